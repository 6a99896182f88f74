package all_test

import (
	"testing"

	"github.com/textloom/textloom/internal/formats"
	_ "github.com/textloom/textloom/internal/formats/all"
)

// TestDialectRegistrations verifies that importing this package registers
// every built-in dialect with the registry.
func TestDialectRegistrations(t *testing.T) {
	expected := []string{"biltable", "docjson", "xliff"}

	for _, name := range expected {
		if _, err := formats.Lookup(name); err != nil {
			t.Errorf("dialect %q is not registered: %v", name, err)
		}
	}

	if got := len(formats.Names()); got < len(expected) {
		t.Errorf("registry has %d dialects, want at least %d", got, len(expected))
	}
}
