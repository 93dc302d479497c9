// Package backend lists remote folders through the CloudSync sync server,
// which holds the provider credentials on the user's behalf.
package backend

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/imroc/req/v3"

	"github.com/Ning0612/cloudsync/internal/adapter"
	"github.com/Ning0612/cloudsync/internal/domain"
)

const (
	listPath = "sync/folders/list"

	// UserAgent is sent with every request
	UserAgent = "cloudsync-cli"
)

// listResponse is the body of GET sync/folders/list
type listResponse struct {
	Success bool             `json:"success"`
	Folders []adapter.Folder `json:"folders"`
	Message string           `json:"message"`
	Error   *apiError        `json:"error"`
}

// apiError is the error envelope the server uses for non-2xx answers
type apiError struct {
	Message string `json:"message"`
	Status  int    `json:"status"`
}

func (e *apiError) Error() string {
	return fmt.Sprintf("server error %d: %s", e.Status, e.Message)
}

// Options configures the server client
type Options struct {
	// BaseURL is the server API root, e.g. https://sync.example.com/api
	BaseURL string

	// Token is sent as a bearer token when set
	Token string

	// Timeout bounds a single request; zero means no limit
	Timeout time.Duration

	// RetryCount retries transport failures and 5xx answers
	RetryCount int
}

// Lister asks the sync server for folder listings
type Lister struct {
	client *req.Client
}

// New creates a lister for the server at opts.BaseURL
func New(opts Options) (*Lister, error) {
	if strings.TrimSpace(opts.BaseURL) == "" {
		return nil, fmt.Errorf("%w: backend url is required", domain.ErrConfigInvalid)
	}

	client := req.C().
		SetBaseURL(strings.TrimRight(opts.BaseURL, "/")).
		SetUserAgent(UserAgent).
		SetJsonMarshal(json.Marshal).
		SetJsonUnmarshal(json.Unmarshal).
		SetCommonErrorResult(&listResponse{})

	if opts.Timeout > 0 {
		client.SetTimeout(opts.Timeout)
	}
	if opts.Token != "" {
		client.SetCommonBearerAuthToken(opts.Token)
	}
	if opts.RetryCount > 0 {
		client.SetCommonRetryCount(opts.RetryCount).
			SetCommonRetryBackoffInterval(200*time.Millisecond, 2*time.Second).
			SetCommonRetryCondition(func(resp *req.Response, err error) bool {
				return err != nil || resp.StatusCode >= http.StatusInternalServerError
			})
	}

	return &Lister{client: client}, nil
}

// ListFolders calls GET sync/folders/list?folderPath=&provider=
func (l *Lister) ListFolders(ctx context.Context, folderPath string, provider domain.Provider) ([]adapter.Folder, error) {
	var result listResponse
	resp, err := l.client.R().
		SetContext(ctx).
		SetQueryParam("folderPath", folderPath).
		SetQueryParam("provider", string(provider)).
		SetSuccessResult(&result).
		Get(listPath)

	if err := handleAPIError(resp, err); err != nil {
		return nil, err
	}

	if !result.Success {
		return nil, rejected(&result)
	}
	if result.Folders == nil {
		return []adapter.Folder{}, nil
	}
	return result.Folders, nil
}

// handleAPIError maps transport failures and error statuses
func handleAPIError(resp *req.Response, requestErr error) error {
	if requestErr != nil {
		return fmt.Errorf("http request error: %w", requestErr)
	}
	if !resp.IsErrorState() {
		return nil
	}

	status := resp.StatusCode
	var cause error = &apiError{Status: status, Message: http.StatusText(status)}
	if body, ok := resp.ErrorResult().(*listResponse); ok {
		if body.Error != nil && body.Error.Message != "" {
			cause = &apiError{Status: status, Message: body.Error.Message}
		} else if body.Message != "" {
			cause = &apiError{Status: status, Message: body.Message}
		}
	}

	switch status {
	case http.StatusNotFound:
		return fmt.Errorf("%w: %w", domain.ErrFolderNotFound, cause)
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("%w: %w", domain.ErrAccessDenied, cause)
	case http.StatusTooManyRequests:
		return fmt.Errorf("%w: %w", domain.ErrRateLimited, cause)
	}
	return cause
}

// rejected reports a success=false answer, keeping the server's message
func rejected(body *listResponse) error {
	msg := body.Message
	if msg == "" && body.Error != nil {
		msg = body.Error.Message
	}
	if msg == "" {
		return domain.ErrListingRejected
	}
	return fmt.Errorf("%w: %s", domain.ErrListingRejected, msg)
}

// Compile-time interface check
var _ adapter.FolderLister = (*Lister)(nil)
