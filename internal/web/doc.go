// Package web is the HTTP surface: sign-in and sign-out, the idle session
// of a tab, its notice stream and the role dashboards.
//
// A successful POST /auth/login opens a tab and returns its id. The client
// keeps the id in sessionStorage and sends it in the X-Tab-ID header; the
// event stream at /session/events takes it as the "tab" query parameter
// because EventSource cannot set headers. Requests for an unknown or
// expired tab get 401 with the "session_expired" error code.
package web
