package ids

import (
	"crypto/rand"
	"encoding/base32"
	"encoding/hex"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// Generator produces locally-unique ids for new containers.
type Generator interface {
	NewID() string
}

// Random returns 16 lowercase hex characters drawn from a random (v4) UUID.
// Collisions are not checked.
type Random struct{}

func (Random) NewID() string {
	return NewContainerID()
}

func NewContainerID() string {
	u := uuid.New()
	// Skip the version (byte 6) and variant (byte 8) bytes so all 16 chars are random.
	var b [8]byte
	copy(b[:6], u[:6])
	copy(b[6:], u[10:12])
	return hex.EncodeToString(b[:])
}

// IsContainerID reports whether s has the container id shape.
func IsContainerID(s string) bool {
	if len(s) != 16 {
		return false
	}
	for _, r := range s {
		if !(r >= '0' && r <= '9' || r >= 'a' && r <= 'f') {
			return false
		}
	}
	return true
}

// Sequence yields deterministic ids ("<prefix>0001", ...); for tests and fixtures.
type Sequence struct {
	Prefix string

	mu sync.Mutex
	n  int
}

func (s *Sequence) NewID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.n++
	return fmt.Sprintf("%s%04d", s.Prefix, s.n)
}

// NewEntityID returns prefix-<suffix> where suffix is 8 chars of base32 (lowercase, no padding).
// 8 chars base32 ~= 40 bits of space.
func NewEntityID(prefix string) (string, error) {
	var b [5]byte
	if _, err := rand.Read(b[:]); err != nil {
		return "", err
	}
	enc := base32.StdEncoding.WithPadding(base32.NoPadding)
	suffix := strings.ToLower(enc.EncodeToString(b[:]))
	return prefix + "-" + suffix, nil
}
