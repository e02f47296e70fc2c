// Package requestid attaches a correlation id to every HTTP request.
//
// Middleware reuses a client supplied X-Request-ID when it is 1-128
// characters of [A-Za-z0-9_-] and otherwise generates a UUID. The id is
// stored in the request context and echoed in the response header.
// LoggerExtractor plugs it into logger.WithContextExtractors so every record
// logged with the request context carries request_id.
package requestid
