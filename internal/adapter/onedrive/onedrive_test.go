package onedrive

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"github.com/Ning0612/cloudsync/internal/adapter"
	"github.com/Ning0612/cloudsync/internal/domain"
)

func reply(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write([]byte(body))
}

func newTestLister(t *testing.T, handler http.HandlerFunc) *Lister {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	l, err := New(Options{
		BaseURL:     srv.URL + "/v1.0",
		TokenSource: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: "graph-token"}),
	})
	require.NoError(t, err)
	return l
}

func TestListFolders_Root(t *testing.T) {
	var gotPath, gotAuth, gotSelect string
	l := newTestLister(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		gotSelect = r.URL.Query().Get("$select")
		reply(w, http.StatusOK, `{"value":[
			{"id":"1","name":"Documents","folder":{"childCount":2}},
			{"id":"2","name":"report.pdf","file":{"mimeType":"application/pdf"}},
			{"id":"3","name":"Pictures","folder":{}}
		]}`)
	})

	folders, err := l.ListFolders(context.Background(), "", domain.ProviderMicrosoft)
	require.NoError(t, err)
	assert.Equal(t, []adapter.Folder{{ID: "1", Name: "Documents"}, {ID: "3", Name: "Pictures"}}, folders)
	assert.Equal(t, "/v1.0/me/drive/root/children", gotPath)
	assert.Equal(t, "Bearer graph-token", gotAuth)
	assert.Equal(t, "id,name,folder", gotSelect)
}

func TestListFolders_Path(t *testing.T) {
	var gotPath string
	l := newTestLister(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		reply(w, http.StatusOK, `{"value":[]}`)
	})

	folders, err := l.ListFolders(context.Background(), "/Documents/My Work/", domain.ProviderMicrosoft)
	require.NoError(t, err)
	assert.NotNil(t, folders)
	assert.Empty(t, folders)
	assert.Equal(t, "/v1.0/me/drive/root:/Documents/My Work:/children", gotPath)
}

func TestListFolders_FollowsNextLink(t *testing.T) {
	var srvURL string
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if r.URL.Query().Get("$skiptoken") == "" {
			reply(w, http.StatusOK, `{"value":[{"id":"1","name":"a","folder":{}}],
				"@odata.nextLink":"`+srvURL+`/v1.0/me/drive/root/children?$skiptoken=p2"}`)
			return
		}
		reply(w, http.StatusOK, `{"value":[{"id":"2","name":"b","folder":{}}]}`)
	}))
	t.Cleanup(srv.Close)
	srvURL = srv.URL

	l, err := New(Options{BaseURL: srv.URL + "/v1.0", TokenSource: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: "x"})})
	require.NoError(t, err)

	folders, err := l.ListFolders(context.Background(), "", domain.ProviderMicrosoft)
	require.NoError(t, err)
	assert.Equal(t, []adapter.Folder{{ID: "1", Name: "a"}, {ID: "2", Name: "b"}}, folders)
	assert.Equal(t, 2, calls)
}

func TestListFolders_Errors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		want    error
		message string
	}{
		{"not found", http.StatusNotFound, `{"error":{"code":"itemNotFound","message":"The resource could not be found."}}`, domain.ErrFolderNotFound, "itemNotFound"},
		{"unauthorized", http.StatusUnauthorized, `{"error":{"code":"InvalidAuthenticationToken","message":"expired"}}`, domain.ErrAccessDenied, "expired"},
		{"forbidden", http.StatusForbidden, `{"error":{"code":"accessDenied","message":"no"}}`, domain.ErrAccessDenied, "accessDenied"},
		{"throttled", http.StatusTooManyRequests, `{}`, domain.ErrRateLimited, "Too Many Requests"},
		{"server error", http.StatusServiceUnavailable, `{"error":{"code":"serviceNotAvailable","message":"later"}}`, nil, "serviceNotAvailable"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := newTestLister(t, func(w http.ResponseWriter, r *http.Request) {
				reply(w, tt.status, tt.body)
			})
			_, err := l.ListFolders(context.Background(), "Documents", domain.ProviderMicrosoft)
			require.Error(t, err)
			if tt.want != nil {
				assert.ErrorIs(t, err, tt.want)
			}
			assert.Contains(t, err.Error(), tt.message)
		})
	}
}

type failingSource struct{}

func (failingSource) Token() (*oauth2.Token, error) {
	return nil, errors.New("refresh token revoked")
}

func TestListFolders_TokenFailure(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	t.Cleanup(srv.Close)

	l, err := New(Options{BaseURL: srv.URL, TokenSource: failingSource{}})
	require.NoError(t, err)

	_, err = l.ListFolders(context.Background(), "", domain.ProviderMicrosoft)
	assert.ErrorIs(t, err, domain.ErrAccessDenied)
	assert.Contains(t, err.Error(), "refresh token revoked")
	assert.False(t, called)
}

func TestChildrenURL(t *testing.T) {
	assert.Equal(t, "me/drive/root/children", childrenURL(""))
	assert.Equal(t, "me/drive/root:/A/B:/children", childrenURL("A/B"))
	assert.Equal(t, "me/drive/root:/Bob%27s%20stuff/50%25:/children", childrenURL("Bob's stuff/50%"))
}

func TestNew_RequiresTokenSource(t *testing.T) {
	_, err := New(Options{})
	assert.ErrorIs(t, err, domain.ErrConfigInvalid)
}
