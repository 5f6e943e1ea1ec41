package lib

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/gomodule/redigo/redis"
	"github.com/kiyor/k2tube/pkg/core"
)

// RedisPool is a response cache backed by redis.
type RedisPool struct {
	Pool *redis.Pool
	l    *log.Logger
}

// NewRedisPool dials host lazily; a failing initial PING is logged but does
// not prevent startup.
func NewRedisPool(host string) *RedisPool {
	if !strings.Contains(host, ":") {
		host += ":6379"
	}
	r := &RedisPool{
		Pool: &redis.Pool{
			MaxIdle:     6,
			IdleTimeout: 240 * time.Second,
			Dial: func() (redis.Conn, error) {
				return redis.Dial("tcp", host)
			},
			TestOnBorrow: func(c redis.Conn, t time.Time) error {
				if time.Since(t) < time.Minute {
					return nil
				}
				_, err := c.Do("PING")
				return err
			},
		},
		l: core.NewLogger("cache", "y"),
	}

	conn := r.Pool.Get()
	defer conn.Close()
	if _, err := conn.Do("PING"); err != nil {
		r.l.Printf("redis PING error on initial connection: %v. Check redis server at %s.", err, host)
	} else {
		r.l.Printf("connected to redis at %s", host)
	}
	return r
}

func (r *RedisPool) Get(key string) ([]byte, bool) {
	conn := r.Pool.Get()
	defer conn.Close()
	b, err := redis.Bytes(conn.Do("GET", key))
	if err != nil {
		if err != redis.ErrNil {
			r.l.Println("redis", err)
		}
		return nil, false
	}
	return b, true
}

func (r *RedisPool) SetWithTTL(key string, value []byte, ttl time.Duration) error {
	conn := r.Pool.Get()
	defer conn.Close()

	second := int(ttl / time.Second)
	if second < 1 {
		second = 1
	}
	if _, err := conn.Do("SET", key, value, "EX", second); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

// Close releases pooled connections.
func (r *RedisPool) Close() error {
	return r.Pool.Close()
}
