// Package navigator tracks the current folder while a user browses a local or
// remote folder tree one directory at a time.
package navigator

import (
	"errors"
	"sort"
	"unicode"
	"unicode/utf8"

	"github.com/Ning0612/cloudsync/internal/domain"
	"github.com/Ning0612/cloudsync/internal/logger"
)

// ErrSuperseded resolves a remote navigation whose response arrived after a newer
// navigation was issued. The response is discarded and the state is not touched.
var ErrSuperseded = errors.New("navigation superseded by a newer request")

// NavigationState is a snapshot of a navigator's position.
// Children lists the parent marker first (when present), then folders sorted by name.
type NavigationState struct {
	CurrentPath string
	Children    []domain.FolderEntry
	HasParent   bool
}

// Folders returns the children without the parent marker
func (s NavigationState) Folders() []domain.FolderEntry {
	folders := make([]domain.FolderEntry, 0, len(s.Children))
	for _, c := range s.Children {
		if !c.IsParentMarker {
			folders = append(folders, c)
		}
	}
	return folders
}

// IsEmpty reports whether there is nothing to descend into.
// A lone parent marker still counts as empty.
func (s NavigationState) IsEmpty() bool {
	for _, c := range s.Children {
		if !c.IsParentMarker {
			return false
		}
	}
	return true
}

// clone copies the children so callers cannot mutate a navigator's state
func (s NavigationState) clone() NavigationState {
	if s.Children != nil {
		children := make([]domain.FolderEntry, len(s.Children))
		copy(children, s.Children)
		s.Children = children
	}
	return s
}

// newState assembles a state from an unsorted listing
func newState(currentPath string, folders []domain.FolderEntry, parent *domain.FolderEntry) NavigationState {
	sortEntries(folders)

	children := make([]domain.FolderEntry, 0, len(folders)+1)
	if parent != nil {
		children = append(children, *parent)
	}
	children = append(children, folders...)

	return NavigationState{
		CurrentPath: currentPath,
		Children:    children,
		HasParent:   parent != nil,
	}
}

// sortEntries orders entries by name, ignoring case.
// Names equal under case folding keep a fixed order by their raw bytes.
func sortEntries(entries []domain.FolderEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i].DisplayName, entries[j].DisplayName
		if c := compareFold(a, b); c != 0 {
			return c < 0
		}
		return a < b
	})
}

// compareFold compares rune by rune after folding each rune to upper then lower
// case. It does not depend on the process locale.
func compareFold(a, b string) int {
	for a != "" && b != "" {
		ra, na := utf8.DecodeRuneInString(a)
		rb, nb := utf8.DecodeRuneInString(b)
		a, b = a[na:], b[nb:]

		if ra == rb {
			continue
		}
		fa := unicode.ToLower(unicode.ToUpper(ra))
		fb := unicode.ToLower(unicode.ToUpper(rb))
		if fa != fb {
			if fa < fb {
				return -1
			}
			return 1
		}
	}

	switch {
	case a == "" && b == "":
		return 0
	case a == "":
		return -1
	default:
		return 1
	}
}

func log() logger.Logger {
	return logger.Component("navigator")
}
