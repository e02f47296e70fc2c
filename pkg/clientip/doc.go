// Package clientip resolves the address of the client behind reverse
// proxies.
//
// GetIP checks CF-Connecting-IP, then the first valid entry of
// X-Forwarded-For, then X-Real-IP, and finally the TCP peer address. The
// result is normalised by net/netip; an empty string means no valid address
// was found.
//
//	r.Use(clientip.Middleware)
//	...
//	ip := clientip.FromContext(r.Context())
//
// Forwarding headers are trusted as sent, so the service must sit behind a
// proxy that overwrites them.
package clientip
