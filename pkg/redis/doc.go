// Package redis provides helpers for connecting to a Redis server and using
// it as the shared backing store for per-tab idle-session records.
//
// The package wraps the go-redis client and adds:
//
//   - Connect, which retries the connection using the supplied configuration.
//   - Store, an idlesession.Store with key prefixing and a record TTL.
//   - Healthcheck, for readiness probes.
//
// Configuration is described by the Config struct whose fields are populated
// from environment variables via github.com/caarlos0/env.
//
// # Usage
//
//	client, err := redis.Connect(ctx, cfg)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	shared := redis.NewStoreWithConfig(client, cfg)
//	tabStore := idlesession.NewPrefixStore(shared, "tab:"+tabID+":")
//
// # Errors
//
// Sentinel errors (e.g. ErrNotReady) wrap the underlying go-redis errors
// using errors.Join. Store.Get maps redis.Nil to idlesession.ErrNotFound.
package redis
