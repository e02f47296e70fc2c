// Package backend is the boundary to the managed authentication and
// database service: password sign-in, access-token sessions and row access
// to the application tables.
//
// Memory keeps everything in maps and is used for development and tests.
// Postgres stores identities, sessions and tables in PostgreSQL; its schema
// is embedded and applied with goose on startup.
package backend
