// Package headers implements the ordered, case-insensitive multimap used
// by the NATS headers extension (component B), including the status-line
// semantics used by HMSG and the JetStream API.
package headers

import "strings"

// Well-known status codes carried on the header status line.
const (
	StatusNoMessages   = 404
	StatusTimeout      = 408
	StatusNoResponders = 503
)

// pair preserves insertion order; Headers permits duplicate names.
type pair struct {
	name  string
	value string
}

// Headers is an ordered, case-insensitive multimap with optional
// status-line fields, mirroring the "NATS/1.0 [status] [description]"
// line that precedes name:value pairs on the wire.
type Headers struct {
	Status      int
	Description string
	pairs       []pair
}

// New returns an empty Headers value.
func New() *Headers {
	return &Headers{}
}

// Set replaces all values for name (case-insensitive) with value.
func (h *Headers) Set(name, value string) {
	h.Del(name)
	h.Add(name, value)
}

// Add appends a (name, value) pair, preserving any existing values for
// the same name.
func (h *Headers) Add(name, value string) {
	h.pairs = append(h.pairs, pair{name: name, value: value})
}

// Get returns the first value for name, case-insensitive, or "".
func (h *Headers) Get(name string) string {
	for _, p := range h.pairs {
		if strings.EqualFold(p.name, name) {
			return p.value
		}
	}
	return ""
}

// Values returns all values for name, case-insensitive, in insertion
// order.
func (h *Headers) Values(name string) []string {
	var out []string
	for _, p := range h.pairs {
		if strings.EqualFold(p.name, name) {
			out = append(out, p.value)
		}
	}
	return out
}

// Del removes every pair with the given name, case-insensitive.
func (h *Headers) Del(name string) {
	kept := h.pairs[:0]
	for _, p := range h.pairs {
		if !strings.EqualFold(p.name, name) {
			kept = append(kept, p)
		}
	}
	h.pairs = kept
}

// Len returns the number of (name, value) pairs, including duplicates.
func (h *Headers) Len() int {
	return len(h.pairs)
}

// Range calls fn for every (name, value) pair in insertion order.
func (h *Headers) Range(fn func(name, value string)) {
	for _, p := range h.pairs {
		fn(p.name, p.value)
	}
}

// Clone returns a deep copy.
func (h *Headers) Clone() *Headers {
	if h == nil {
		return nil
	}
	c := &Headers{Status: h.Status, Description: h.Description}
	c.pairs = append([]pair(nil), h.pairs...)
	return c
}
