package errors

import (
	"regexp"
	"strings"
	"unicode"
)

const maxIdentifierLength = 256

// ValidateSpeciesID validates a species identifier as emitted by an extractor
// (namespace.localName) or as published in the merged dataset (Mod:DisplayName).
//
// The rules are intentionally loose since extractors use several conventions:
//   - No empty identifiers
//   - No control characters
//   - No path separators (identifiers end up in URLs and file names)
//   - Maximum length of 256 characters
func ValidateSpeciesID(id string) error {
	if strings.TrimSpace(id) == "" {
		return New(ErrCodeInvalidRecord, "species id cannot be empty")
	}
	if len(id) > maxIdentifierLength {
		return New(ErrCodeInvalidRecord, "species id too long (max %d characters)", maxIdentifierLength)
	}
	for _, r := range id {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidRecord, "species id %q contains control characters", id)
		}
	}
	if strings.ContainsAny(id, "/\\") {
		return New(ErrCodeInvalidRecord, "species id %q contains path separators", id)
	}
	return nil
}

// modNameRegex matches mod names such as "Forestry" or "ExtraBees".
var modNameRegex = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9]*$`)

// ValidateModName validates a mod name used as the public id prefix.
func ValidateModName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidInput, "mod name cannot be empty")
	}
	if !modNameRegex.MatchString(name) {
		return New(ErrCodeInvalidInput, "invalid mod name: %q", name)
	}
	return nil
}

// namespaceRegex matches lowercase extraction namespaces ("forestry", "magicbees").
var namespaceRegex = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

// ValidateNamespace validates an extraction namespace prefix.
func ValidateNamespace(ns string) error {
	if ns == "" {
		return New(ErrCodeInvalidInput, "namespace cannot be empty")
	}
	if !namespaceRegex.MatchString(ns) {
		return New(ErrCodeInvalidInput, "invalid namespace: %q (lowercase letters, digits and underscores)", ns)
	}
	return nil
}
