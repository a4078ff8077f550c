package headers

import (
	"fmt"
	"strconv"
	"strings"

	nerrors "github.com/cpop/natscore/pkg/errors"
)

const versionLine = "NATS/1.0"

// Encode renders the header block exactly as it appears on the wire: the
// status line, then each name:value pair in insertion order, then a
// trailing blank line. The returned bytes do not include the PUB/HPUB
// payload that follows.
func (h *Headers) Encode() []byte {
	var b strings.Builder
	b.WriteString(versionLine)
	if h.Status != 0 {
		b.WriteByte(' ')
		b.WriteString(strconv.Itoa(h.Status))
		if h.Description != "" {
			b.WriteByte(' ')
			b.WriteString(h.Description)
		}
	}
	b.WriteString("\r\n")
	h.Range(func(name, value string) {
		b.WriteString(name)
		b.WriteString(": ")
		b.WriteString(value)
		b.WriteString("\r\n")
	})
	b.WriteString("\r\n")
	return []byte(b.String())
}

// Decode parses a header block produced by Encode (or by a server). The
// first line must begin with "NATS/1.0"; everything after it on that
// line is an optional "<status> [description]". Subsequent non-empty
// lines split on the first ':'; names and values are whitespace-trimmed;
// empty names are dropped; duplicate names are preserved.
func Decode(block []byte) (*Headers, error) {
	text := strings.ReplaceAll(string(block), "\r\n", "\n")
	lines := strings.Split(strings.TrimSuffix(text, "\n"), "\n")
	if len(lines) == 0 || !strings.HasPrefix(lines[0], versionLine) {
		return nil, nerrors.New(nerrors.KindInvalidHeader, "header block must start with NATS/1.0", nil)
	}

	h := New()
	rest := strings.TrimSpace(strings.TrimPrefix(lines[0], versionLine))
	if rest != "" {
		parts := strings.SplitN(rest, " ", 2)
		status, err := strconv.Atoi(parts[0])
		if err != nil {
			return nil, nerrors.New(nerrors.KindInvalidHeader, fmt.Sprintf("invalid status code %q", parts[0]), err)
		}
		h.Status = status
		if len(parts) == 2 {
			h.Description = strings.TrimSpace(parts[1])
		}
	}

	for _, line := range lines[1:] {
		if line == "" {
			continue
		}
		idx := strings.IndexByte(line, ':')
		if idx < 0 {
			return nil, nerrors.New(nerrors.KindInvalidHeader, "header line missing ':': "+line, nil)
		}
		name := strings.TrimSpace(line[:idx])
		value := strings.TrimSpace(line[idx+1:])
		if name == "" {
			continue
		}
		h.Add(name, value)
	}

	return h, nil
}
