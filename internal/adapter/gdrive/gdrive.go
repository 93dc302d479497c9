package gdrive

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/Ning0612/cloudsync/internal/adapter"
	"github.com/Ning0612/cloudsync/internal/domain"
	"github.com/Ning0612/cloudsync/internal/pathutil"
)

const (
	// MimeTypeFolder is the MIME type for Google Drive folders
	MimeTypeFolder = "application/vnd.google-apps.folder"
	// PageSize is the number of folders to fetch per request
	PageSize = 100
	// DefaultCacheSize bounds the path -> folder ID cache
	DefaultCacheSize = 512
	// WalkTimeout bounds a shared path lookup once it no longer follows a caller's context
	WalkTimeout = 30 * time.Second

	rootID = "root"
)

// Lister lists child folders of a Google Drive path
type Lister struct {
	service *drive.Service
	cache   *lru.Cache[string, string] // path -> folder ID
	group   singleflight.Group
}

// Option configures a Lister
type Option func(*listerOptions)

type listerOptions struct {
	cacheSize  int
	clientOpts []option.ClientOption
}

// WithCacheSize sets how many resolved folder IDs are remembered
func WithCacheSize(n int) Option {
	return func(o *listerOptions) { o.cacheSize = n }
}

// WithClientOptions passes extra options to the Drive client, e.g. an endpoint
func WithClientOptions(opts ...option.ClientOption) Option {
	return func(o *listerOptions) { o.clientOpts = append(o.clientOpts, opts...) }
}

// New creates a lister using an authorized HTTP client
func New(ctx context.Context, client *http.Client, opts ...Option) (*Lister, error) {
	o := listerOptions{cacheSize: DefaultCacheSize}
	for _, opt := range opts {
		opt(&o)
	}

	clientOpts := append([]option.ClientOption{option.WithHTTPClient(client)}, o.clientOpts...)
	service, err := drive.NewService(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Drive service: %w", err)
	}
	return newLister(service, o.cacheSize)
}

// NewWithService wraps an existing Drive service
func NewWithService(service *drive.Service) (*Lister, error) {
	return newLister(service, DefaultCacheSize)
}

func newLister(service *drive.Service, cacheSize int) (*Lister, error) {
	if cacheSize <= 0 {
		cacheSize = DefaultCacheSize
	}
	cache, err := lru.New[string, string](cacheSize)
	if err != nil {
		return nil, err
	}
	return &Lister{service: service, cache: cache}, nil
}

// ListFolders returns the folders directly under folderPath, following every page
func (l *Lister) ListFolders(ctx context.Context, folderPath string, _ domain.Provider) ([]adapter.Folder, error) {
	folderPath = pathutil.Clean(folderPath)

	folderID, err := l.resolveFolderID(ctx, folderPath)
	if err != nil {
		return nil, err
	}

	folders, err := l.listChildren(ctx, folderID)
	if errors.Is(err, domain.ErrFolderNotFound) {
		// cached ID went stale, e.g. the folder was moved
		l.forget(folderPath)
	}
	if err != nil {
		return nil, err
	}

	for _, f := range folders {
		l.cache.Add(pathutil.Join(folderPath, f.Name), f.ID)
	}
	return folders, nil
}

func (l *Lister) listChildren(ctx context.Context, folderID string) ([]adapter.Folder, error) {
	query := fmt.Sprintf("'%s' in parents and mimeType = '%s' and trashed = false",
		escapeQueryString(folderID), MimeTypeFolder)

	result := []adapter.Folder{}
	pageToken := ""
	for {
		call := l.service.Files.List().
			Q(query).
			PageSize(PageSize).
			Fields("nextPageToken, files(id, name)")
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}

		fileList, err := call.Context(ctx).Do()
		if err != nil {
			return nil, mapError(err)
		}

		for _, f := range fileList.Files {
			result = append(result, adapter.Folder{ID: f.Id, Name: f.Name})
		}

		pageToken = fileList.NextPageToken
		if pageToken == "" {
			break
		}
	}
	return result, nil
}

// resolveFolderID walks folderPath from the Drive root one name at a time.
// Concurrent lookups of the same path share one walk.
func (l *Lister) resolveFolderID(ctx context.Context, folderPath string) (string, error) {
	if pathutil.IsRoot(folderPath) {
		return rootID, nil
	}
	if id, ok := l.cache.Get(folderPath); ok {
		return id, nil
	}

	// The shared walk outlives any single caller; each caller only stops waiting.
	ch := l.group.DoChan(folderPath, func() (any, error) {
		walkCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), WalkTimeout)
		defer cancel()
		return l.walk(walkCtx, folderPath)
	})

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		return res.Val.(string), nil
	}
}

func (l *Lister) walk(ctx context.Context, folderPath string) (string, error) {
	parts := strings.Split(folderPath, "/")
	currentID := rootID

	for i, part := range parts {
		partialPath := strings.Join(parts[:i+1], "/")
		if id, ok := l.cache.Get(partialPath); ok {
			currentID = id
			continue
		}

		// Escape single quotes to prevent query injection
		query := fmt.Sprintf("name = '%s' and '%s' in parents and mimeType = '%s' and trashed = false",
			escapeQueryString(part), escapeQueryString(currentID), MimeTypeFolder)
		fileList, err := l.service.Files.List().
			Q(query).
			PageSize(1).
			Fields("files(id)").
			Context(ctx).Do()
		if err != nil {
			return "", mapError(err)
		}
		if len(fileList.Files) == 0 {
			return "", fmt.Errorf("%w: %s", domain.ErrFolderNotFound, partialPath)
		}

		currentID = fileList.Files[0].Id
		l.cache.Add(partialPath, currentID)
	}

	return currentID, nil
}

// forget drops folderPath and everything cached below it
func (l *Lister) forget(folderPath string) {
	prefix := folderPath + "/"
	for _, key := range l.cache.Keys() {
		if key == folderPath || strings.HasPrefix(key, prefix) {
			l.cache.Remove(key)
		}
	}
}

// escapeQueryString escapes special characters in Drive query strings
func escapeQueryString(s string) string {
	// Escape backslash first, then single quote
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, "'", "\\'")
	return s
}

// mapError converts Google API errors to domain errors
func mapError(err error) error {
	if err == nil {
		return nil
	}

	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		if isRateLimitReason(apiErr) {
			return fmt.Errorf("%w: %w", domain.ErrRateLimited, err)
		}
		switch apiErr.Code {
		case http.StatusNotFound:
			return fmt.Errorf("%w: %s", domain.ErrFolderNotFound, apiErr.Message)
		case http.StatusUnauthorized, http.StatusForbidden:
			return fmt.Errorf("%w: %s", domain.ErrAccessDenied, apiErr.Message)
		case http.StatusTooManyRequests:
			return fmt.Errorf("%w: %w", domain.ErrRateLimited, err)
		}
	}

	return err
}

// Drive reports per-user quota exhaustion as 403 with a rate limit reason
func isRateLimitReason(apiErr *googleapi.Error) bool {
	for _, item := range apiErr.Errors {
		switch item.Reason {
		case "rateLimitExceeded", "userRateLimitExceeded":
			return true
		}
	}
	return false
}

// Compile-time interface check
var _ adapter.FolderLister = (*Lister)(nil)
