package database_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/JaimeStill/costmap/pkg/database"
)

func TestNewDefersConnection(t *testing.T) {
	cfg := database.Config{Name: "ledger", User: "costmap", Port: 1, ConnTimeout: "200ms"}
	if err := cfg.Finalize(nil); err != nil {
		t.Fatalf("finalize failed: %v", err)
	}

	sys, err := database.New(&cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer sys.Connection().Close()

	if sys.Connection() == nil {
		t.Fatal("Connection() returned nil")
	}

	if err := sys.Ping(context.Background()); !errors.Is(err, database.ErrNotReady) {
		t.Errorf("Ping() against closed port = %v, want ErrNotReady", err)
	}
}
