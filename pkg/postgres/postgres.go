package postgres

import (
	"context"
	"database/sql"
	"time"

	_ "github.com/lib/pq"
)

type Config struct {
	URL             string `split_words:"true"`
	MaxOpenConns    int    `split_words:"true" default:"10"`
	MaxIdleConns    int    `split_words:"true" default:"5"`
	ConnMaxLifetime int    `split_words:"true" default:"300"`
	PingTimeout     int    `split_words:"true" default:"5"`
}

func (c *Config) New() (*sql.DB, error) {
	db, err := sql.Open("postgres", c.URL)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(c.MaxOpenConns)
	db.SetMaxIdleConns(c.MaxIdleConns)
	db.SetConnMaxLifetime(time.Duration(c.ConnMaxLifetime) * time.Second)

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(c.PingTimeout)*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}
