package persistence

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

var (
	slugPattern      = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)
	nonAlphanumerics = regexp.MustCompile(`[^a-z0-9]+`)
)

// Slugify derives a URL-safe slug from a display name: lowercased, runs of
// non-alphanumerics collapsed to a single hyphen, leading/trailing hyphens
// stripped.
func Slugify(name string) (string, error) {
	lowered := strings.ToLower(strings.TrimSpace(name))
	slug := nonAlphanumerics.ReplaceAllString(lowered, "-")
	slug = strings.Trim(slug, "-")

	if slug == "" {
		return "", fmt.Errorf("cannot derive slug from %q", name)
	}

	return slug, nil
}

// SuffixSlug appends a short random suffix for collision resolution.
func SuffixSlug(slug string) (string, error) {
	buf := make([]byte, 2)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("slug suffix: %w", err)
	}
	return slug + "-" + hex.EncodeToString(buf), nil
}

// NormalizeSlug trims whitespace, lowercases the value, and ensures it matches
// the canonical URL-safe slug pattern required for public identifiers.
func NormalizeSlug(input string) (string, error) {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return "", errors.New("slug is required")
	}

	normalized := strings.ToLower(trimmed)
	if !slugPattern.MatchString(normalized) {
		return "", fmt.Errorf("invalid slug %q: must match ^[a-z0-9]+(?:-[a-z0-9]+)*$", input)
	}

	return normalized, nil
}
