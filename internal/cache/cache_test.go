package cache

import (
	"context"
	"errors"
	"testing"
)

// A nil cache must behave as disabled so the server runs without redis.
func TestNilCacheIsDisabled(t *testing.T) {
	var c *AnswerCache
	ctx := context.Background()

	if _, err := c.Lookup(ctx, "doc", "query"); !errors.Is(err, ErrMiss) {
		t.Fatalf("expected ErrMiss from nil cache, got %v", err)
	}
	if err := c.Store(ctx, "doc", "query", "answer"); err != nil {
		t.Fatalf("Store on nil cache: %v", err)
	}
	if err := c.Invalidate(ctx, "doc"); err != nil {
		t.Fatalf("Invalidate on nil cache: %v", err)
	}
	if err := c.Close(); err != nil {
		t.Fatalf("Close on nil cache: %v", err)
	}
}

func TestAnswerKeyScoping(t *testing.T) {
	global := answerKey("", "what is this?")
	scoped := answerKey("doc-1", "what is this?")
	if global == scoped {
		t.Fatalf("global and scoped keys must differ")
	}
	if answerKey("doc-1", "a") == answerKey("doc-1", "b") {
		t.Fatalf("distinct queries must map to distinct keys")
	}
}
