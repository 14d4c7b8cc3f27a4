package db

import (
	"context"
	"errors"
	"testing"
)

func TestTxFromContext_Empty(t *testing.T) {
	if tx := TxFromContext(context.Background()); tx != nil {
		t.Fatalf("expected nil tx, got %v", tx)
	}
}

func TestConn_FallsBack(t *testing.T) {
	if q := Conn(context.Background(), nil); q != nil {
		t.Fatalf("expected fallback to the given queryable, got %v", q)
	}
}

func TestWithTx_NilBeginnerRunsDirectly(t *testing.T) {
	called := false
	err := WithTx(context.Background(), nil, SnapshotOptions, func(ctx context.Context) error {
		called = true
		if TxFromContext(ctx) != nil {
			t.Error("expected no tx on context")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !called {
		t.Fatal("expected fn to be called")
	}
}

func TestWithTx_PropagatesError(t *testing.T) {
	want := errors.New("boom")
	err := WithTx(context.Background(), nil, SnapshotOptions, func(ctx context.Context) error {
		return want
	})
	if !errors.Is(err, want) {
		t.Fatalf("expected %v, got %v", want, err)
	}
}
