package adapter

import (
	"context"
	"fmt"

	"github.com/Ning0612/cloudsync/internal/domain"
)

// Folder is one child folder returned by a remote listing
type Folder struct {
	// ID is the provider's opaque item identifier
	ID string `json:"id"`

	// Name is the folder name as shown to the user
	Name string `json:"name"`
}

// FolderLister lists the child folders of a remote folder.
// folderPath is "/"-delimited and relative to the provider root, where "" is the root.
// Implementations return an error for transport failures and for listings the
// remote side reports as unsuccessful.
type FolderLister interface {
	ListFolders(ctx context.Context, folderPath string, provider domain.Provider) ([]Folder, error)
}

// FolderListerFunc adapts a function to FolderLister
type FolderListerFunc func(ctx context.Context, folderPath string, provider domain.Provider) ([]Folder, error)

// ListFolders calls f
func (f FolderListerFunc) ListFolders(ctx context.Context, folderPath string, provider domain.Provider) ([]Folder, error) {
	return f(ctx, folderPath, provider)
}

// Router dispatches listings to a lister per provider
type Router struct {
	listers map[domain.Provider]FolderLister
}

// NewRouter creates an empty router
func NewRouter() *Router {
	return &Router{listers: make(map[domain.Provider]FolderLister)}
}

// Register binds a lister to a provider, replacing any previous one
func (r *Router) Register(provider domain.Provider, lister FolderLister) {
	r.listers[provider] = lister
}

// Supports reports whether a lister is registered for the provider
func (r *Router) Supports(provider domain.Provider) bool {
	_, ok := r.listers[provider]
	return ok
}

// ListFolders forwards to the provider's lister
func (r *Router) ListFolders(ctx context.Context, folderPath string, provider domain.Provider) ([]Folder, error) {
	lister, ok := r.listers[provider]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnknownProvider, provider)
	}
	return lister.ListFolders(ctx, folderPath, provider)
}

// Compile-time interface check
var _ FolderLister = (*Router)(nil)
