package providers

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
)

func TestNewRedisProvider(t *testing.T) {
	client := NewRedisProvider("localhost:6379", "password")

	if client == nil {
		t.Fatal("Expected redis client to be non-nil")
	}

	defer client.Close()
}

func TestRedisProviderConnects(t *testing.T) {
	mr := miniredis.RunT(t)

	client := NewRedisProvider(mr.Addr(), "")
	t.Cleanup(func() { _ = client.Close() })

	if err := client.Ping(context.Background()).Err(); err != nil {
		t.Fatalf("ping: %v", err)
	}
}
