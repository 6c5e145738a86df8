package postgres

import (
	"strings"
	"testing"

	"github.com/oklog/ulid/v2"
)

func TestTransactionIDGeneratorFormat(t *testing.T) {
	gen := NewTransactionIDGenerator("txn_")

	id := gen.Generate()
	if !strings.HasPrefix(id, "txn_") {
		t.Fatalf("missing prefix: %s", id)
	}
	if id != strings.ToLower(id) {
		t.Fatalf("expected lowercase id, got %s", id)
	}
	if _, err := ulid.ParseStrict(strings.ToUpper(strings.TrimPrefix(id, "txn_"))); err != nil {
		t.Fatalf("suffix is not a ulid: %v", err)
	}
}

func TestTransactionIDGeneratorIsOrderedAndUnique(t *testing.T) {
	gen := NewTransactionIDGenerator("txn_")

	seen := make(map[string]struct{}, 1000)
	prev := ""
	for i := 0; i < 1000; i++ {
		id := gen.Generate()
		if _, dup := seen[id]; dup {
			t.Fatalf("duplicate id %s", id)
		}
		if id <= prev {
			t.Fatalf("ids out of order: %s after %s", id, prev)
		}
		seen[id] = struct{}{}
		prev = id
	}
}
