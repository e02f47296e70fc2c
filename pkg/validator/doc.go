// Package validator checks request values with composable rules.
//
//	err := validator.Apply(
//		validator.Required("email", req.Email),
//		validator.Email("email", req.Email),
//		validator.MaxLen("password", req.Password, 72),
//	)
//	if errs, ok := validator.Extract(err); ok {
//		// errs.Fields() maps every failing field to its messages
//	}
//
// Every rule runs; Apply reports all failures at once.
package validator
