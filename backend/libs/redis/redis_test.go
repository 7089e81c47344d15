package redis

import "testing"

func TestNewRedisClientValidatesArgs(t *testing.T) {
	if _, err := NewRedisClient(" ", "", 0); err == nil {
		t.Fatalf("expected error for empty addr")
	}
	if _, err := NewRedisClient("localhost:6379", "", -1); err == nil {
		t.Fatalf("expected error for negative db")
	}
}
