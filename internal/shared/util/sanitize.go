package util

import (
	"errors"
	"strings"
)

// ErrInvalidName is returned for names that are empty or try to escape a directory.
var ErrInvalidName = errors.New("invalid name")

// SanitizeFileName removes path separators and rejects traversal patterns.
func SanitizeFileName(name string) (string, error) {
	if strings.Contains(name, "..") {
		return "", ErrInvalidName
	}
	s := strings.TrimSpace(name)
	s = strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|':
			return '_'
		}
		if r < 0x20 {
			return -1
		}
		return r
	}, s)
	if s == "" {
		return "", ErrInvalidName
	}
	return s, nil
}

// JoinKey builds a slash separated storage key from sanitized segments.
func JoinKey(segments ...string) (string, error) {
	clean := make([]string, 0, len(segments))
	for _, seg := range segments {
		s, err := SanitizeFileName(seg)
		if err != nil {
			return "", err
		}
		clean = append(clean, s)
	}
	return strings.Join(clean, "/"), nil
}
