package weaviate

import (
	"fmt"
	"net/url"

	"github.com/weaviate/weaviate-go-client/v5/weaviate"
	"github.com/weaviate/weaviate-go-client/v5/weaviate/auth"
)

type Config struct {
	URL    string `split_words:"true"`
	APIKey string `envconfig:"WEAVIATE_API_KEY"`
}

// Enabled reports whether a Weaviate endpoint is configured.
func (c *Config) Enabled() bool {
	return c.URL != ""
}

func (c *Config) New() (*weaviate.Client, error) {
	u, err := url.Parse(c.URL)
	if err != nil {
		return nil, fmt.Errorf("parse weaviate url: %w", err)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("weaviate url %q has no host", c.URL)
	}
	scheme := u.Scheme
	if scheme == "" {
		scheme = "http"
	}

	cfg := weaviate.Config{
		Host:   u.Host,
		Scheme: scheme,
	}
	if c.APIKey != "" {
		cfg.AuthConfig = auth.ApiKey{Value: c.APIKey}
	}

	return weaviate.NewClient(cfg)
}
