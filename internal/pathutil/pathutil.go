// Package pathutil does arithmetic on "/"-delimited cloud folder paths.
// The root is the empty string and is displayed as "/".
package pathutil

import (
	"path/filepath"
	"strings"
)

// Separator delimits cloud path segments
const Separator = "/"

// ParentOf returns everything before the last separator, or the root
// when p has no separator (or only a leading one)
func ParentOf(p string) string {
	i := strings.LastIndex(p, Separator)
	if i <= 0 {
		return ""
	}
	return p[:i]
}

// NameOf returns the last segment of p
func NameOf(p string) string {
	return p[strings.LastIndex(p, Separator)+1:]
}

// Join appends name to base
func Join(base, name string) string {
	if base == "" {
		return name
	}
	return base + Separator + name
}

// IsRoot reports whether p is the root
func IsRoot(p string) bool {
	return p == ""
}

// Clean trims whitespace and surrounding separators, so "/" and "" both mean root
func Clean(p string) string {
	return strings.Trim(strings.TrimSpace(p), Separator)
}

// Display renders p for users
func Display(p string) string {
	if IsRoot(p) {
		return Separator
	}
	return p
}

// LocalParent returns the parent of an OS path and false when p is a filesystem root
func LocalParent(p string) (string, bool) {
	clean := filepath.Clean(p)
	parent := filepath.Dir(clean)
	if parent == clean {
		return "", false
	}
	return parent, true
}
