// Package onedrive lists OneDrive folders through Microsoft Graph.
package onedrive

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/imroc/req/v3"
	"golang.org/x/oauth2"

	"github.com/Ning0612/cloudsync/internal/adapter"
	"github.com/Ning0612/cloudsync/internal/domain"
	"github.com/Ning0612/cloudsync/internal/pathutil"
)

const (
	// GraphURL is the Microsoft Graph v1.0 root
	GraphURL = "https://graph.microsoft.com/v1.0"
	// PageSize is the number of items requested per page
	PageSize = 200

	// maxPages stops a server that keeps handing out nextLinks
	maxPages = 1000
)

type driveItem struct {
	ID     string    `json:"id"`
	Name   string    `json:"name"`
	Folder *struct{} `json:"folder"`
}

type childrenPage struct {
	Value    []driveItem `json:"value"`
	NextLink string      `json:"@odata.nextLink"`
}

// graphError is the error envelope Graph returns with non-2xx statuses
type graphError struct {
	Err struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
	status int
}

func (e *graphError) Error() string {
	if e.Err.Code == "" {
		return fmt.Sprintf("graph error %d: %s", e.status, http.StatusText(e.status))
	}
	return fmt.Sprintf("graph error %d: %s: %s", e.status, e.Err.Code, e.Err.Message)
}

// Options configures the Graph client
type Options struct {
	// BaseURL overrides GraphURL
	BaseURL string

	// TokenSource authorizes each request
	TokenSource oauth2.TokenSource

	// Timeout bounds a single request; zero means no limit
	Timeout time.Duration
}

// Lister lists child folders of a OneDrive path
type Lister struct {
	client *req.Client
}

// New creates a lister; requests carry a bearer token from opts.TokenSource
func New(opts Options) (*Lister, error) {
	if opts.TokenSource == nil {
		return nil, fmt.Errorf("%w: onedrive requires a token source", domain.ErrConfigInvalid)
	}
	base := opts.BaseURL
	if base == "" {
		base = GraphURL
	}

	ts := opts.TokenSource
	client := req.C().
		SetBaseURL(strings.TrimRight(base, "/")).
		SetJsonMarshal(json.Marshal).
		SetJsonUnmarshal(json.Unmarshal).
		SetCommonErrorResult(&graphError{}).
		OnBeforeRequest(func(_ *req.Client, r *req.Request) error {
			token, err := ts.Token()
			if err != nil {
				return fmt.Errorf("%w: %w", domain.ErrAccessDenied, err)
			}
			r.SetBearerAuthToken(token.AccessToken)
			return nil
		})
	if opts.Timeout > 0 {
		client.SetTimeout(opts.Timeout)
	}

	return &Lister{client: client}, nil
}

// ListFolders returns the folders directly under folderPath, following @odata.nextLink
func (l *Lister) ListFolders(ctx context.Context, folderPath string, _ domain.Provider) ([]adapter.Folder, error) {
	result := []adapter.Folder{}
	next := childrenURL(pathutil.Clean(folderPath))

	for pages := 0; next != ""; pages++ {
		if pages == maxPages {
			return nil, fmt.Errorf("listing %q exceeded %d pages", folderPath, maxPages)
		}

		var page childrenPage
		r := l.client.R().SetContext(ctx).SetSuccessResult(&page)
		if pages == 0 {
			r.SetQueryParam("$select", "id,name,folder").
				SetQueryParam("$top", fmt.Sprint(PageSize))
		}
		resp, err := r.Get(next)
		if err := handleAPIError(resp, err); err != nil {
			return nil, err
		}

		for _, item := range page.Value {
			if item.Folder != nil {
				result = append(result, adapter.Folder{ID: item.ID, Name: item.Name})
			}
		}
		next = page.NextLink
	}

	return result, nil
}

// childrenURL addresses the children of the root or of a path below it
func childrenURL(folderPath string) string {
	if pathutil.IsRoot(folderPath) {
		return "me/drive/root/children"
	}
	parts := strings.Split(folderPath, "/")
	for i, part := range parts {
		parts[i] = url.PathEscape(part)
	}
	return "me/drive/root:/" + strings.Join(parts, "/") + ":/children"
}

func handleAPIError(resp *req.Response, requestErr error) error {
	if requestErr != nil {
		return fmt.Errorf("http request error: %w", requestErr)
	}
	if !resp.IsErrorState() {
		return nil
	}

	gerr := &graphError{}
	if body, ok := resp.ErrorResult().(*graphError); ok {
		gerr = body
	}
	gerr.status = resp.StatusCode

	switch resp.StatusCode {
	case http.StatusNotFound:
		return fmt.Errorf("%w: %w", domain.ErrFolderNotFound, gerr)
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("%w: %w", domain.ErrAccessDenied, gerr)
	case http.StatusTooManyRequests:
		return fmt.Errorf("%w: %w", domain.ErrRateLimited, gerr)
	}
	return gerr
}

// Compile-time interface check
var _ adapter.FolderLister = (*Lister)(nil)
