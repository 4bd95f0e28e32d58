package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content-addressed identity.
// Version suffix enables future algorithm migration.
const (
	DomainSource = "tablegraph/source/v1"
	DomainBlank  = "tablegraph/blank/v1"
)

// hashWithDomain computes SHA-256 hash with domain separation.
// Format: SHA256(domain + 0x00 + data)
// The null byte (0x00) separator prevents domain/data boundary ambiguity.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// SourceID computes the stable identity of an entity source from its
// canonical definition. Structurally equal definitions produce equal IDs.
func SourceID(definition map[string]any) (string, error) {
	canonical, err := MarshalCanonical(definition)
	if err != nil {
		return "", fmt.Errorf("SourceID: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainSource, canonical), nil
}

// BlankLabel computes a blank node label suffix from a row scope and the
// term definition being resolved. The same (scope, definition) pair always
// yields the same label. The result is shortened to 16 hex characters.
func BlankLabel(scope, definition string) string {
	data := make([]byte, 0, len(scope)+len(definition)+1)
	data = append(data, scope...)
	data = append(data, 0x00)
	data = append(data, definition...)
	return hashWithDomain(DomainBlank, data)[:16]
}
