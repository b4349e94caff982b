package audiosink

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"io"
	"sync"
)

// IDLength is the number of characters in generated sink and session IDs.
const IDLength = 6

// idBytes random bytes encode to exactly IDLength URL-safe base64 characters.
const idBytes = 4

const maxIDAttempts = 64

// IDGenerator hands out short URL-safe identifiers. Within one generator an
// ID is never returned twice.
type IDGenerator struct {
	mu     sync.Mutex
	source io.Reader
	issued map[string]struct{}
}

// NewIDGenerator returns a generator reading entropy from crypto/rand.
func NewIDGenerator() *IDGenerator {
	return NewIDGeneratorFrom(rand.Reader)
}

// NewIDGeneratorFrom returns a generator reading entropy from source.
func NewIDGeneratorFrom(source io.Reader) *IDGenerator {
	return &IDGenerator{source: source, issued: make(map[string]struct{})}
}

// Next returns a fresh identifier.
func (g *IDGenerator) Next() (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	buf := make([]byte, idBytes)
	for attempt := 0; attempt < maxIDAttempts; attempt++ {
		if _, err := io.ReadFull(g.source, buf); err != nil {
			return "", fmt.Errorf("read id entropy: %w", err)
		}
		id := base64.RawURLEncoding.EncodeToString(buf)[:IDLength]
		if _, dup := g.issued[id]; dup {
			continue
		}
		g.issued[id] = struct{}{}
		return id, nil
	}
	return "", fmt.Errorf("no unique id after %d attempts", maxIDAttempts)
}

// Issued reports how many identifiers the generator has handed out.
func (g *IDGenerator) Issued() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.issued)
}
