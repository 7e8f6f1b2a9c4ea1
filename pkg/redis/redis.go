package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Config is the conversation store connection. Timeouts are in seconds.
type Config struct {
	URL          string `split_words:"true"`
	ReadTimeout  int    `split_words:"true" default:"3"`
	WriteTimeout int    `split_words:"true" default:"3"`
	DialTimeout  int    `split_words:"true" default:"5"`
}

// Enabled reports whether a Redis URL is configured.
func (c *Config) Enabled() bool {
	return c.URL != ""
}

func seconds(n int) time.Duration {
	return time.Duration(n) * time.Second
}

// New parses the URL, applies the timeouts and pings the server once.
func (c *Config) New() (*redis.Client, error) {
	opts, err := redis.ParseURL(c.URL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	opts.ReadTimeout = seconds(c.ReadTimeout)
	opts.WriteTimeout = seconds(c.WriteTimeout)
	opts.DialTimeout = seconds(c.DialTimeout)

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), opts.DialTimeout+time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}
