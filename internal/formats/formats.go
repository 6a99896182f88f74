// Package formats holds the dialect adapters that map on-disk interchange
// formats into the engine's shared paragraph/run document shape. Each dialect
// is a thin adapter; the walker, validator, and reconstructor are written
// once against core/doc and reused unchanged for every dialect.
package formats

import (
	"sync"

	"github.com/textloom/textloom/core/doc"
	apperrors "github.com/textloom/textloom/core/errors"
)

// DetectResult reports whether a path belongs to a dialect.
type DetectResult struct {
	Detected bool
	Dialect  string
	Reason   string
}

// Dialect is the fixed capability interface every adapter implements.
// Bilingual dialects carry externally assigned segment identifiers on
// Paragraph.ExternalID; those identifiers round-trip unchanged.
type Dialect interface {
	// Name is the registry key (e.g. "docjson", "xliff", "biltable").
	Name() string

	// Detect reports whether path looks like this dialect.
	Detect(path string) (*DetectResult, error)

	// Load reads path into the shared document shape.
	Load(path string) (*doc.Document, error)

	// Save writes the (reconstructed) document back to path.
	Save(path string, d *doc.Document) error
}

// SourceStashPrefix keys the per-segment source text that bilingual dialects
// stash in Document.Attributes at load time, so Save can emit both columns.
// The suffix is the paragraph's external identifier.
const SourceStashPrefix = "src:"

// StashSource records the source text of an externally identified paragraph.
func StashSource(d *doc.Document, externalID, source string) {
	if d.Attributes == nil {
		d.Attributes = make(map[string]string)
	}
	d.Attributes[SourceStashPrefix+externalID] = source
}

// StashedSource returns a paragraph's stashed source text, if any.
func StashedSource(d *doc.Document, externalID string) (string, bool) {
	s, ok := d.Attributes[SourceStashPrefix+externalID]
	return s, ok
}

var (
	registryMu sync.RWMutex
	registry   []Dialect
	byName     = make(map[string]Dialect)
)

// Register adds a dialect to the registry. Later registrations with the same
// name replace earlier ones.
func Register(d Dialect) {
	registryMu.Lock()
	defer registryMu.Unlock()
	if _, dup := byName[d.Name()]; !dup {
		registry = append(registry, d)
	} else {
		for i, existing := range registry {
			if existing.Name() == d.Name() {
				registry[i] = d
				break
			}
		}
	}
	byName[d.Name()] = d
}

// Lookup returns the dialect registered under name.
func Lookup(name string) (Dialect, error) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	d, ok := byName[name]
	if !ok {
		return nil, apperrors.NewNotFound("dialect", name)
	}
	return d, nil
}

// Names returns the registered dialect names in registration order.
func Names() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, len(registry))
	for i, d := range registry {
		names[i] = d.Name()
	}
	return names
}

// DetectDialect probes every registered dialect and returns the first match.
func DetectDialect(path string) (Dialect, *DetectResult, error) {
	registryMu.RLock()
	dialects := make([]Dialect, len(registry))
	copy(dialects, registry)
	registryMu.RUnlock()

	for _, d := range dialects {
		res, err := d.Detect(path)
		if err != nil {
			return nil, nil, apperrors.Wrapf(err, "detect %s", d.Name())
		}
		if res != nil && res.Detected {
			return d, res, nil
		}
	}
	return nil, nil, apperrors.NewUnsupported("dialect", "no adapter recognized "+path)
}
