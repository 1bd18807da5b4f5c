package infra

import "github.com/redis/go-redis/v9"

// NewRedis builds the client used for the courier GEO index and dispatch
// busy flags.
func NewRedis(addr string) *redis.Client {
	return redis.NewClient(&redis.Options{Addr: addr})
}
