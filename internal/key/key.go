// Package key implements Minecraft's namespace:path identifier type.
package key

import (
	"errors"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// ErrMalformed is returned when a string cannot be parsed into a Key.
var ErrMalformed = errors.New("key: malformed namespaced key")

// DefaultNamespace is substituted when a path is parsed without one.
const DefaultNamespace = "minecraft"

// Key is a namespace:path identifier, e.g. "minecraft:stone".
//
// Both halves must be non-empty ASCII; equality and hashing are exact.
type Key struct {
	namespace string
	path      string
}

// New builds a Key from an explicit namespace and path. It does not
// validate the input; use Parse for untrusted strings.
func New(namespace, path string) Key {
	return Key{namespace: namespace, path: path}
}

// Vanilla builds a Key in the "minecraft" namespace.
func Vanilla(path string) Key {
	return Key{namespace: DefaultNamespace, path: path}
}

// Parse splits "namespace:path" into a Key. A bare "path" is assumed to be
// in the default "minecraft" namespace, matching vanilla's resource
// location parser.
func Parse(s string) (Key, error) {
	if s == "" {
		return Key{}, ErrMalformed
	}
	ns, path, found := strings.Cut(s, ":")
	if !found {
		ns, path = DefaultNamespace, ns
	}
	if ns == "" || path == "" {
		return Key{}, ErrMalformed
	}
	if !isValidSegment(ns) || !isValidSegment(path) {
		return Key{}, ErrMalformed
	}
	return Key{namespace: ns, path: path}, nil
}

func isValidSegment(s string) bool {
	for _, r := range s {
		if r >= 0x80 {
			return false
		}
	}
	return true
}

// Namespace returns the namespace half.
func (k Key) Namespace() string { return k.namespace }

// Path returns the path half.
func (k Key) Path() string { return k.path }

// IsZero reports whether this is the zero Key (never produced by Parse).
func (k Key) IsZero() bool { return k.namespace == "" && k.path == "" }

// String renders the canonical "namespace:path" form.
func (k Key) String() string {
	if k.IsZero() {
		return ""
	}
	return k.namespace + ":" + k.path
}

// Hash returns a stable 64-bit hash suitable for use as a map key or in a
// hash-indexed registry, grounded on xxhash as used throughout the
// dragonfly family of repos for this exact purpose.
func (k Key) Hash() uint64 {
	h := xxhash.New()
	_, _ = h.WriteString(k.namespace)
	_, _ = h.Write([]byte{0})
	_, _ = h.WriteString(k.path)
	return h.Sum64()
}

// Equal reports exact equality of both halves.
func (k Key) Equal(other Key) bool {
	return k.namespace == other.namespace && k.path == other.path
}
