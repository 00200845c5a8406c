package store

import (
	"context"
	"fmt"
	"strings"
)

// MinShortIDLength is the minimum required length for short ID prefixes.
// Set to 6 characters to balance usability with collision avoidance.
const MinShortIDLength = 6

// NotFoundError indicates no items matched the short ID.
type NotFoundError struct {
	ShortID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("no items found matching '%s'", e.ShortID)
}

// AmbiguousError indicates multiple items matched the short ID.
type AmbiguousError struct {
	ShortID string
	Matches []string
}

func (e *AmbiguousError) Error() string {
	return fmt.Sprintf("ambiguous short ID '%s' matches %d items", e.ShortID, len(e.Matches))
}

// ResolveItemID resolves a short ID prefix to a full item UUID.
// Returns the full UUID if exactly one match is found.
//
// The function handles three cases:
//  1. Input is already a full UUID (36 chars, 4 hyphens) - validates existence
//  2. Input is too short (< 6 chars) - returns a validation error
//  3. Input is a short prefix - scans for matches and returns the unique result
func (s *Store) ResolveItemID(ctx context.Context, shortID string) (string, error) {
	// If input is already a full UUID, verify it exists and return as-is.
	if len(shortID) == 36 && strings.Count(shortID, "-") == 4 {
		if _, err := s.GetItem(ctx, shortID); err != nil {
			if IsNotFound(err) {
				return "", &NotFoundError{ShortID: shortID}
			}
			return "", fmt.Errorf("failed to verify item existence: %w", err)
		}
		return shortID, nil
	}

	if len(shortID) < MinShortIDLength {
		return "", fmt.Errorf("short ID must be at least %d characters (got %d)", MinShortIDLength, len(shortID))
	}

	matches, err := s.findIDsByPrefix(ctx, shortID)
	if err != nil {
		return "", fmt.Errorf("failed to search for item: %w", err)
	}

	switch len(matches) {
	case 0:
		return "", &NotFoundError{ShortID: shortID}
	case 1:
		return matches[0], nil
	default:
		return "", &AmbiguousError{ShortID: shortID, Matches: matches}
	}
}

// findIDsByPrefix returns the IDs of all items whose ID starts with prefix.
func (s *Store) findIDsByPrefix(ctx context.Context, prefix string) ([]string, error) {
	// Escape LIKE metacharacters so a prefix like "ab_c" only matches
	// literally.
	escaped := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(prefix)

	const q = `SELECT id FROM items WHERE id LIKE ? ESCAPE '\' ORDER BY id`

	rows, err := s.db.QueryContext(ctx, q, escaped+"%")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}

	return ids, rows.Err()
}
