package ctxutil

import (
	"context"
	"testing"
)

func TestDefaultNil(t *testing.T) {
	ctx := Default(nil)
	if ctx == nil {
		t.Fatal("Default(nil) returned nil")
	}
	select {
	case <-ctx.Done():
		t.Fatal("Default(nil) returned a done context")
	default:
	}
}

func TestDefaultPassthrough(t *testing.T) {
	parent, cancel := context.WithCancel(context.Background())
	defer cancel()
	if got := Default(parent); got != parent {
		t.Fatalf("Default(parent) = %v, want the same context back", got)
	}
}
