package binder

import "net/http"

// Query binds URL query parameters into the fields of a struct.
//
//   - `query:"name"` binds parameter "name"
//   - `query:"-"` skips the field
//   - untagged fields bind their lower-cased name
//
// Supported types: string, integers, bool, pointers to those, and slices
// (repeated or comma separated).
func Query() func(r *http.Request, v any) error {
	return func(r *http.Request, v any) error {
		return bindToStruct(v, "query", r.URL.Query(), ErrFailedToParseQuery)
	}
}

// Path binds router path parameters using extractor, usually chi.URLParam.
// Fields use the `path` tag.
func Path(extractor func(r *http.Request, name string) string) func(r *http.Request, v any) error {
	return func(r *http.Request, v any) error {
		return bindFields(v, "path", func(name string) []string {
			if value := extractor(r, name); value != "" {
				return []string{value}
			}
			return nil
		}, ErrFailedToParsePath)
	}
}
