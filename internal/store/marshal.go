package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/roach88/domfuzz/internal/corpus"
)

// marshalDiagnostics converts diagnostics to JSON TEXT for storage.
// HTML escaping is disabled so that paths and messages are stored verbatim.
func marshalDiagnostics(diags []corpus.Diagnostic) (string, error) {
	if len(diags) == 0 {
		return "[]", nil
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(diags); err != nil {
		return "", fmt.Errorf("marshal diagnostics: %w", err)
	}
	// Encoder adds a trailing newline.
	return strings.TrimSpace(buf.String()), nil
}

// unmarshalDiagnostics parses JSON TEXT. It never returns a nil slice.
func unmarshalDiagnostics(data string) ([]corpus.Diagnostic, error) {
	diags := []corpus.Diagnostic{}
	if data == "" || data == "[]" {
		return diags, nil
	}
	if err := json.Unmarshal([]byte(data), &diags); err != nil {
		return nil, fmt.Errorf("unmarshal diagnostics: %w", err)
	}
	return diags, nil
}

// Seeds are unsigned; SQLite integers are signed. The bit pattern is
// stored unchanged.
func seedToDB(seed uint64) int64   { return int64(seed) }
func seedFromDB(seed int64) uint64 { return uint64(seed) }
