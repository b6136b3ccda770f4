package storage

import (
	"errors"
	"testing"

	"github.com/redis/go-redis/v9"
)

func TestIsNil(t *testing.T) {
	if !IsNil(redis.Nil) {
		t.Fatalf("redis.Nil must be reported as a cache miss")
	}
	if IsNil(errors.New("connection refused")) {
		t.Fatalf("transport errors are not cache misses")
	}
	if IsNil(nil) {
		t.Fatalf("nil error is not a cache miss")
	}
}
