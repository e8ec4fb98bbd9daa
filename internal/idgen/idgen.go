// Package idgen computes the stable 16-hex-digest identifiers used by
// CodeUnit, SymbolDefinition, and Document records. The ids are
// fixed-width sha256 prefixes so two independent processes indexing the
// same tree agree without coordination.
package idgen

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
)

// CodeUnit computes the 16-hex digest over (file_path, name, unit_type,
// start_line) per the data model's id invariant. Re-extracting an
// unchanged file must reproduce the same id.
func CodeUnit(filePath, name, unitType string, startLine int) string {
	return digest(filePath, "\x00", name, "\x00", unitType, "\x00", strconv.Itoa(startLine))
}

// Symbol uses the same construction as CodeUnit; symbols and code units
// share the id space so a method's SymbolDefinition and its originating
// CodeUnit carry identical ids.
func Symbol(filePath, name, kind string, startLine int) string {
	return CodeUnit(filePath, name, kind, startLine)
}

// Document computes sha256(type ∥ path ∥ name? ∥ content)[:16] per §4.5's
// idempotency contract: identical inputs must reproduce identical ids so
// re-extraction is a no-op.
func Document(docType, path, name, content string) string {
	return digest(docType, "\x00", path, "\x00", name, "\x00", content)
}

func digest(parts ...string) string {
	h := sha256.New()
	for _, p := range parts {
		h.Write([]byte(p))
	}
	sum := h.Sum(nil)
	return hex.EncodeToString(sum)[:16]
}

// Validate reports whether id looks like one of our 16-hex digests;
// used defensively when ids arrive over the wire (e.g. feedback events).
func Validate(id string) error {
	if len(id) != 16 {
		return fmt.Errorf("id %q: want 16 hex characters, got %d", id, len(id))
	}
	if _, err := hex.DecodeString(id); err != nil {
		return fmt.Errorf("id %q: not hex: %w", id, err)
	}
	return nil
}
