package cache

import (
	"testing"

	"medibook/config"

	"github.com/alicebob/miniredis/v2"
)

func TestNewRedisClientPings(t *testing.T) {
	mr := miniredis.RunT(t)

	client, err := NewRedisClient(config.RedisConfig{Host: mr.Host(), Port: mr.Port()})
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer client.Close()
}

func TestNewRedisClientFailsWhenUnreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	host, port := mr.Host(), mr.Port()
	mr.Close()

	if _, err := NewRedisClient(config.RedisConfig{Host: host, Port: port}); err == nil {
		t.Fatal("expected error for closed server")
	}
}
