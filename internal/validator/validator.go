// Package validator checks the syntactic well-formedness of identifiers
// the parser lifts out of a pipeline: collection/table names and field
// paths. It never checks existence against a schema (there is no schema
// in this module's scope) — only shape, the way a SQL-injection defense
// layer would.
package validator

import (
	"fmt"
	"strings"

	"github.com/rhoulihan/mongoplsql-bridge/internal/types"
)

// suspiciousPatterns is a defense-in-depth blocklist rejecting substrings
// that have no legitimate place in an identifier or field path, even
// though structural character-class rules already exclude most of the
// characters these patterns depend on. Grounded on
// zoobzio-docql/instance.go's own suspiciousPatterns list.
var suspiciousPatterns = []string{
	";", "--", "/*", "*/", "'", "\"", "`", "\\",
	" or ", " and ", "drop ", "delete ", "insert ",
	"update ", "select ", "union ", "exec ", "execute ",
}

// ValidateTableName checks a collection/table name is a safe SQL
// identifier: starts with a letter (never an underscore), continues with
// letters/digits/underscore, no longer than MaxTableNameLength.
func ValidateTableName(name string) error {
	if name == "" {
		return fmt.Errorf("table name must not be empty")
	}
	if len(name) > types.MaxTableNameLength {
		return fmt.Errorf("table name exceeds maximum length: %d > %d", len(name), types.MaxTableNameLength)
	}
	if strings.HasPrefix(name, "_") {
		return fmt.Errorf("invalid table name: %q: must not start with an underscore", name)
	}
	if !isValidIdentifier(name) {
		return fmt.Errorf("invalid table name: %q", name)
	}
	return nil
}

// ValidateFieldName checks a single (non dot-path) output field name,
// e.g. a $group accumulator's output key or a $project alias.
func ValidateFieldName(name string) error {
	if name == "" {
		return fmt.Errorf("field name must not be empty")
	}
	if !isValidIdentifier(name) {
		return fmt.Errorf("invalid field name: %q", name)
	}
	return nil
}

// ValidateAndNormalizeFieldPath checks a dot-notation field path and
// returns it unchanged if valid (normalization is a no-op today; the
// name and signature leave room for a future case-folding policy without
// another call-site-wide rename).
func ValidateAndNormalizeFieldPath(path string) (string, error) {
	if path == "" {
		return "", fmt.Errorf("field path must not be empty")
	}
	if len(path) > types.MaxFieldPathLength {
		return "", fmt.Errorf("field path exceeds maximum length: %d > %d", len(path), types.MaxFieldPathLength)
	}
	if !isValidFieldPath(path) {
		return "", fmt.Errorf("invalid field path: %q", path)
	}
	return path, nil
}

// ValidateFilePath applies the ValidateTableName rules to collection and
// wraps any failure as an invalid collection reference. The parser does
// not call it: the $lookup/$unionWith/$out/$graphLookup.from names go
// through ValidateTableName directly.
func ValidateFilePath(collection string) error {
	if err := ValidateTableName(collection); err != nil {
		return fmt.Errorf("invalid collection reference: %w", err)
	}
	return nil
}

func isValidIdentifier(s string) bool {
	if s == "" {
		return false
	}
	if strings.Contains(s, " ") {
		return false
	}
	for i, r := range s {
		if i == 0 {
			if (r < 'a' || r > 'z') && (r < 'A' || r > 'Z') && r != '_' {
				return false
			}
		} else {
			if (r < 'a' || r > 'z') && (r < 'A' || r > 'Z') && (r < '0' || r > '9') && r != '_' {
				return false
			}
		}
	}
	return !containsSuspicious(s)
}

func isValidFieldPath(s string) bool {
	if s == "" {
		return false
	}
	if strings.Contains(s, " ") {
		return false
	}
	parts := strings.Split(s, ".")
	for _, part := range parts {
		if part == "" {
			return false
		}
		// A purely numeric segment addresses an array index (e.g.
		// "items.0.sku") and is legal even though it can't start a
		// normal identifier.
		if isAllDigits(part) {
			continue
		}
		for i, r := range part {
			if i == 0 {
				if (r < 'a' || r > 'z') && (r < 'A' || r > 'Z') && r != '_' {
					return false
				}
			} else {
				if (r < 'a' || r > 'z') && (r < 'A' || r > 'Z') && (r < '0' || r > '9') && r != '_' {
					return false
				}
			}
		}
	}
	return !containsSuspicious(s)
}

func isAllDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func containsSuspicious(s string) bool {
	lower := strings.ToLower(s)
	for _, pattern := range suspiciousPatterns {
		if strings.Contains(lower, pattern) {
			return true
		}
	}
	return false
}
