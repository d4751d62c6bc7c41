package identity

import (
	"strings"
	"testing"
)

func TestNewIDFormat(t *testing.T) {
	id := NewID()

	if !strings.HasPrefix(id, "session_") {
		t.Errorf("ID = %q, want session_ prefix", id)
	}

	parts := strings.Split(id, "_")
	if len(parts) != 3 {
		t.Fatalf("ID = %q, want 3 underscore-separated parts", id)
	}
	if len(parts[2]) != 12 {
		t.Errorf("suffix = %q, want 12 chars", parts[2])
	}
}

func TestNewIDUniqueness(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 10000; i++ {
		id := NewID()
		if seen[id] {
			t.Fatalf("duplicate ID generated: %s", id)
		}
		seen[id] = true
	}
}
