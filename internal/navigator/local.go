package navigator

import (
	"context"

	"github.com/Ning0612/cloudsync/internal/domain"
	"github.com/Ning0612/cloudsync/internal/pathutil"
)

// FolderSource is the filesystem view a LocalTree lists from
type FolderSource interface {
	// Resolve returns the absolute form of a readable directory path
	Resolve(path string) (string, error)

	// CanRead reports whether a directory can be listed
	CanRead(path string) bool

	// ListFolders returns the visible, readable child folders of a resolved directory
	ListFolders(ctx context.Context, dir string) ([]domain.FolderEntry, error)
}

// LocalTree browses a locally mounted filesystem.
// Calls are synchronous; callers serialize calls per instance.
type LocalTree struct {
	source FolderSource
	state  NavigationState
}

// NewLocalTree creates a navigator that has not listed anything yet
func NewLocalTree(source FolderSource) *LocalTree {
	return &LocalTree{source: source}
}

// State returns the current navigation state
func (t *LocalTree) State() NavigationState {
	return t.state.clone()
}

// NavigateTo lists path and makes it current.
// On failure the previous state is kept and domain.ErrInaccessibleFolder is returned.
func (t *LocalTree) NavigateTo(ctx context.Context, path string) (NavigationState, error) {
	dir, err := t.source.Resolve(path)
	if err != nil {
		log().Debug("cannot navigate", "path", path, "error", err)
		return t.State(), err
	}

	folders, err := t.source.ListFolders(ctx, dir)
	if err != nil {
		log().Debug("listing failed", "path", dir, "error", err)
		return t.State(), err
	}

	var marker *domain.FolderEntry
	if parent, ok := pathutil.LocalParent(dir); ok && t.source.CanRead(parent) {
		m := domain.NewParentMarker(parent)
		marker = &m
	}

	t.state = newState(dir, folders, marker)
	log().Debug("navigated", "path", dir, "folders", len(folders), "has_parent", marker != nil)
	return t.State(), nil
}

// NavigateToParent moves up one level. At a root without an accessible parent
// the current state is returned unchanged.
func (t *LocalTree) NavigateToParent(ctx context.Context) (NavigationState, error) {
	if !t.state.HasParent {
		return t.State(), nil
	}
	parent, ok := pathutil.LocalParent(t.state.CurrentPath)
	if !ok {
		return t.State(), nil
	}
	return t.NavigateTo(ctx, parent)
}

// Open navigates into entry, or to the parent for the parent marker
func (t *LocalTree) Open(ctx context.Context, entry domain.FolderEntry) (NavigationState, error) {
	if entry.IsParentMarker {
		return t.NavigateToParent(ctx)
	}
	return t.NavigateTo(ctx, entry.Path)
}
