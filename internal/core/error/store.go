package errx

import (
	"database/sql"
	"errors"
	"net/http"

	"github.com/redis/go-redis/v9"
)

// wrapStore maps a storage error: a miss is 404, anything else means the
// backend is unavailable (502).
func wrapStore(err, miss error, missMsg, failMsg string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, miss) {
		return New(err, http.StatusNotFound, missMsg)
	}
	return New(err, http.StatusBadGateway, failMsg).WithKind(KindUpstreamUnavailable)
}

// WrapRedis maps go-redis errors; redis.Nil is a missing key.
func WrapRedis(err error) error {
	return wrapStore(err, redis.Nil, RedisNotFoundMessage, RedisErrorMessage)
}

// WrapDB maps database/sql errors; sql.ErrNoRows is a missing record.
func WrapDB(err error) error {
	return wrapStore(err, sql.ErrNoRows, NotFoundMessage, DatabaseErrorMessage)
}
