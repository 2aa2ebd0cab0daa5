// Copyright (C) 2025 Intelfuse (ops@intelfuse.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package validation provides input validation utilities for security-critical operations.
//
// This package contains validators for user-provided inputs that end up
// interpolated into upstream search queries (news APIs, social searches)
// or logged verbatim. Using these validators prevents query injection and
// keeps degenerate inputs from reaching external providers.
package validation

import (
	"fmt"
	"regexp"
	"strings"
)

// MaxConflictLength is the maximum accepted length for a conflict query.
// Long free text is almost certainly a paste error, not a conflict name.
const MaxConflictLength = 80

// conflictPattern matches valid conflict identifiers.
// Allows: letters, digits, spaces, hyphens (US-Iran), slashes and dots.
var conflictPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9 ./\-]*$`)

// ValidateConflict validates a conflict identifier before it flows into
// the pipeline and upstream provider queries.
//
// Valid identifiers:
//   - 1-80 characters after trimming
//   - letters, digits, spaces
//   - hyphens, dots and slashes for compound names like "US-Iran"
//
// Returns an error if the identifier is invalid.
//
// Example:
//
//	if err := validation.ValidateConflict(req.Conflict); err != nil {
//	    c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
//	    return
//	}
func ValidateConflict(conflict string) error {
	trimmed := strings.TrimSpace(conflict)
	if trimmed == "" {
		return fmt.Errorf("conflict cannot be empty")
	}

	if len(trimmed) > MaxConflictLength {
		return fmt.Errorf("conflict too long: %d characters (max %d)", len(trimmed), MaxConflictLength)
	}

	if !conflictPattern.MatchString(trimmed) {
		return fmt.Errorf("invalid conflict format: %q (letters, digits, spaces, '-', '.', '/' only)", trimmed)
	}

	return nil
}

// SanitizeConflict validates and normalizes a conflict identifier.
// Returns the trimmed identifier, or an error if validation fails.
func SanitizeConflict(conflict string) (string, error) {
	trimmed := strings.TrimSpace(conflict)
	if err := ValidateConflict(trimmed); err != nil {
		return "", err
	}
	return trimmed, nil
}
