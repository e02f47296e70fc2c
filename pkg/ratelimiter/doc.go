// Package ratelimiter throttles requests per key with token buckets from
// golang.org/x/time/rate.
//
// Each key owns a bucket holding up to Burst tokens that refills one token
// every Interval. Buckets idle for longer than IdleTTL are dropped.
//
//	lim, err := ratelimiter.New(ratelimiter.Config{Burst: 5, Interval: 12 * time.Second})
//	if err != nil {
//		return err
//	}
//	r.With(ratelimiter.Middleware(lim, ratelimiter.ByClientIP, onLimit)).Post("/auth/login", login)
//
// The limiter is process local; replicas each keep their own buckets.
package ratelimiter
