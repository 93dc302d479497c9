package navigator

import (
	"context"
	"sync"

	"github.com/Ning0612/cloudsync/internal/adapter"
	"github.com/Ning0612/cloudsync/internal/domain"
	"github.com/Ning0612/cloudsync/internal/pathutil"
)

// Pending is the eventual result of one remote navigation
type Pending struct {
	done  chan struct{}
	state NavigationState
	err   error
}

func newPending() *Pending {
	return &Pending{done: make(chan struct{})}
}

func resolved(state NavigationState, err error) *Pending {
	p := newPending()
	p.resolve(state, err)
	return p
}

func (p *Pending) resolve(state NavigationState, err error) {
	p.state = state
	p.err = err
	close(p.done)
}

// Done is closed once the result is available
func (p *Pending) Done() <-chan struct{} {
	return p.done
}

// Wait blocks until the navigation resolves or ctx ends.
// A superseded navigation returns ErrSuperseded.
func (p *Pending) Wait(ctx context.Context) (NavigationState, error) {
	select {
	case <-p.done:
		return p.state, p.err
	case <-ctx.Done():
		return NavigationState{}, ctx.Err()
	}
}

// RemoteTree browses a provider's folder tree through a FolderLister.
// Only the most recently issued navigation may change the state; earlier
// requests are cancelled and their responses dropped.
type RemoteTree struct {
	lister   adapter.FolderLister
	provider domain.Provider

	mu     sync.Mutex
	state  NavigationState
	seq    uint64
	cancel context.CancelFunc
}

// NewRemoteTree creates a navigator positioned at the root with nothing listed yet
func NewRemoteTree(lister adapter.FolderLister, provider domain.Provider) *RemoteTree {
	return &RemoteTree{
		lister:   lister,
		provider: provider,
	}
}

// Provider returns the provider this tree browses
func (t *RemoteTree) Provider() domain.Provider {
	return t.provider
}

// State returns the last successfully applied state.
// It does not change while a navigation is pending.
func (t *RemoteTree) State() NavigationState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state.clone()
}

// NavigateTo starts listing folderPath. The returned Pending resolves with the new
// state, a *domain.RemoteListingError (state unchanged), or ErrSuperseded when a
// newer navigation was issued before this one finished.
func (t *RemoteTree) NavigateTo(ctx context.Context, folderPath string) *Pending {
	folderPath = pathutil.Clean(folderPath)

	t.mu.Lock()
	if t.cancel != nil {
		t.cancel()
	}
	t.seq++
	seq := t.seq
	reqCtx, cancel := context.WithCancel(ctx)
	t.cancel = cancel
	t.mu.Unlock()

	p := newPending()
	go func() {
		defer cancel()
		folders, err := t.lister.ListFolders(reqCtx, folderPath, t.provider)
		t.apply(seq, folderPath, folders, err, p)
	}()
	return p
}

// apply installs a listing result if it belongs to the latest request
func (t *RemoteTree) apply(seq uint64, folderPath string, folders []adapter.Folder, err error, p *Pending) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if seq != t.seq {
		log().Debug("discarding stale listing", "path", pathutil.Display(folderPath), "provider", t.provider)
		p.resolve(NavigationState{}, ErrSuperseded)
		return
	}
	t.cancel = nil

	if err != nil {
		listErr := domain.NewRemoteListingError(folderPath, err)
		log().Warn("remote listing failed",
			"path", pathutil.Display(folderPath),
			"provider", t.provider,
			"error", listErr.Reason,
		)
		p.resolve(t.state.clone(), listErr)
		return
	}

	t.state = remoteState(folderPath, folders)
	log().Debug("navigated", "path", pathutil.Display(folderPath), "provider", t.provider, "folders", len(folders))
	p.resolve(t.state.clone(), nil)
}

// NavigateToParent lists the parent of the current path.
// At the root it resolves immediately with the unchanged state.
func (t *RemoteTree) NavigateToParent(ctx context.Context) *Pending {
	current := t.State()
	if pathutil.IsRoot(current.CurrentPath) {
		return resolved(current, nil)
	}
	return t.NavigateTo(ctx, pathutil.ParentOf(current.CurrentPath))
}

// Open descends into entry by name, or goes up for the parent marker
func (t *RemoteTree) Open(ctx context.Context, entry domain.FolderEntry) *Pending {
	if entry.IsParentMarker {
		return t.NavigateToParent(ctx)
	}
	return t.NavigateTo(ctx, entry.Path)
}

// Close cancels any navigation in flight
func (t *RemoteTree) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.cancel != nil {
		t.cancel()
		t.cancel = nil
	}
	t.seq++
	return nil
}

// remoteState builds the state for a listing of folderPath.
// Entry paths are composed from names so the navigation key stays readable.
func remoteState(folderPath string, folders []adapter.Folder) NavigationState {
	entries := make([]domain.FolderEntry, 0, len(folders))
	for _, f := range folders {
		entries = append(entries, domain.FolderEntry{
			ID:          f.ID,
			Path:        pathutil.Join(folderPath, f.Name),
			DisplayName: f.Name,
		})
	}

	var marker *domain.FolderEntry
	if !pathutil.IsRoot(folderPath) {
		m := domain.NewParentMarker(pathutil.ParentOf(folderPath))
		marker = &m
	}

	return newState(folderPath, entries, marker)
}
