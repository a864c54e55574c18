package cron

import (
	"context"
	"testing"
)

type namedJob string

func (n namedJob) Name() string              { return string(n) }
func (n namedJob) Run(context.Context) error { return nil }

func TestRegistryKeepsRegistrationOrder(t *testing.T) {
	registry := NewRegistry(namedJob("outbox-retention"), nil)
	if err := registry.Register(namedJob("cart-compaction")); err != nil {
		t.Fatalf("register: %v", err)
	}
	jobs := registry.Jobs()
	if len(jobs) != 2 || jobs[0].Name() != "outbox-retention" || jobs[1].Name() != "cart-compaction" {
		t.Fatalf("unexpected jobs %v", jobs)
	}
	jobs[0] = nil
	if registry.Jobs()[0] == nil {
		t.Fatal("Jobs must return a copy")
	}
}

func TestRegistryRejectsDuplicateNames(t *testing.T) {
	registry := NewRegistry(namedJob("outbox-retention"))
	if err := registry.Register(namedJob("outbox-retention")); err == nil {
		t.Fatal("expected duplicate name to be rejected")
	}
	if len(registry.Jobs()) != 1 {
		t.Fatalf("duplicate must not be appended, got %d jobs", len(registry.Jobs()))
	}

	defer func() {
		if recover() == nil {
			t.Fatal("expected NewRegistry to panic on duplicate names")
		}
	}()
	NewRegistry(namedJob("outbox-retention"), namedJob("outbox-retention"))
}
