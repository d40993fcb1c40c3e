package utils

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseID converts a string-encoded resource id (as found in mapping.json keys) to int64.
func ParseID(s string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid resource id %q: %w", s, err)
	}
	return id, nil
}

// FormatID converts a resource id to its mapping.json key form.
func FormatID(id int64) string {
	return strconv.FormatInt(id, 10)
}

// ToSlash converts any mix of '\' and '/' separators to '/'.
// Unlike filepath.ToSlash it also rewrites backslashes on non-Windows hosts,
// since paths recorded by Windows converters reach us as plain strings.
func ToSlash(p string) string {
	return strings.ReplaceAll(p, "\\", "/")
}

// JoinKey joins object key segments with single '/' separators.
func JoinKey(parts ...string) string {
	trimmed := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.Trim(ToSlash(p), "/")
		if p != "" {
			trimmed = append(trimmed, p)
		}
	}
	return strings.Join(trimmed, "/")
}
