package gdrive

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/Ning0612/cloudsync/internal/adapter"
	"github.com/Ning0612/cloudsync/internal/domain"
)

type driveItem struct {
	ID     string
	Name   string
	Folder bool
}

var (
	walkQuery = regexp.MustCompile(`^name = '((?:[^'\\]|\\.)*)' and '([^']*)' in parents and mimeType = '` + MimeTypeFolder + `' and trashed = false$`)
	listQuery = regexp.MustCompile(`^'([^']*)' in parents and mimeType = '` + MimeTypeFolder + `' and trashed = false$`)
)

// fakeDrive serves files.list over a fixed tree, two items per page
type fakeDrive struct {
	tree     map[string][]driveItem // parent ID -> children
	status   int                    // forced error status, 0 for none
	reason   string
	walks    atomic.Int32
	listings atomic.Int32

	// gate, when set, holds every path lookup until it is closed
	gate chan struct{}
}

func (d *fakeDrive) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if d.status != 0 {
		d.fail(w, d.status, d.reason)
		return
	}

	q := r.URL.Query().Get("q")
	if m := walkQuery.FindStringSubmatch(q); m != nil {
		d.walks.Add(1)
		if d.gate != nil {
			select {
			case <-d.gate:
			case <-r.Context().Done():
				return
			}
		}
		name := strings.NewReplacer(`\'`, `'`, `\\`, `\`).Replace(m[1])
		files := []map[string]string{}
		for _, item := range d.tree[m[2]] {
			if item.Folder && item.Name == name {
				files = append(files, map[string]string{"id": item.ID})
				break
			}
		}
		json.NewEncoder(w).Encode(map[string]any{"files": files})
		return
	}

	m := listQuery.FindStringSubmatch(q)
	if m == nil {
		d.fail(w, http.StatusBadRequest, "invalidQuery")
		return
	}
	d.listings.Add(1)
	children, ok := d.tree[m[1]]
	if !ok {
		d.fail(w, http.StatusNotFound, "notFound")
		return
	}

	var folders []driveItem
	for _, item := range children {
		if item.Folder {
			folders = append(folders, item)
		}
	}
	start, _ := strconv.Atoi(r.URL.Query().Get("pageToken"))
	end := min(start+2, len(folders))

	files := []map[string]string{}
	for _, item := range folders[start:end] {
		files = append(files, map[string]string{"id": item.ID, "name": item.Name})
	}
	resp := map[string]any{"files": files}
	if end < len(folders) {
		resp["nextPageToken"] = strconv.Itoa(end)
	}
	json.NewEncoder(w).Encode(resp)
}

func (d *fakeDrive) fail(w http.ResponseWriter, status int, reason string) {
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]any{
			"code":    status,
			"message": reason,
			"errors":  []map[string]string{{"reason": reason, "message": reason}},
		},
	})
}

func newTestLister(t *testing.T, d *fakeDrive) *Lister {
	t.Helper()
	srv := httptest.NewServer(d)
	t.Cleanup(srv.Close)

	l, err := New(context.Background(), srv.Client(), WithClientOptions(option.WithEndpoint(srv.URL+"/")))
	require.NoError(t, err)
	return l
}

func sampleTree() map[string][]driveItem {
	return map[string][]driveItem{
		"root": {
			{ID: "docs", Name: "Documents", Folder: true},
			{ID: "pics", Name: "Pictures", Folder: true},
			{ID: "music", Name: "Music", Folder: true},
			{ID: "f1", Name: "notes.txt"},
		},
		"docs": {
			{ID: "work", Name: "Work", Folder: true},
			{ID: "quote", Name: "Bob's stuff", Folder: true},
		},
		"work":  {},
		"quote": {{ID: "deep", Name: "Deep", Folder: true}},
		"deep":  {},
		"pics":  {},
		"music": {},
	}
}

func names(folders []adapter.Folder) []string {
	out := make([]string, len(folders))
	for i, f := range folders {
		out[i] = f.Name
	}
	return out
}

func TestListFolders_Root(t *testing.T) {
	d := &fakeDrive{tree: sampleTree()}
	l := newTestLister(t, d)

	folders, err := l.ListFolders(context.Background(), "", domain.ProviderGoogle)
	require.NoError(t, err)
	assert.Equal(t, []string{"Documents", "Pictures", "Music"}, names(folders), "files are skipped, pages are joined")
	assert.Equal(t, int32(2), d.listings.Load())
	assert.Zero(t, d.walks.Load(), "root needs no lookup")
}

func TestListFolders_Nested(t *testing.T) {
	d := &fakeDrive{tree: sampleTree()}
	l := newTestLister(t, d)

	folders, err := l.ListFolders(context.Background(), "/Documents/", domain.ProviderGoogle)
	require.NoError(t, err)
	assert.Equal(t, []adapter.Folder{{ID: "work", Name: "Work"}, {ID: "quote", Name: "Bob's stuff"}}, folders)

	folders, err = l.ListFolders(context.Background(), "Documents/Bob's stuff", domain.ProviderGoogle)
	require.NoError(t, err)
	assert.Equal(t, []string{"Deep"}, names(folders))
	assert.Equal(t, int32(1), d.walks.Load(), "children of a listing are cached")
}

func TestListFolders_EmptyFolder(t *testing.T) {
	d := &fakeDrive{tree: sampleTree()}
	l := newTestLister(t, d)

	folders, err := l.ListFolders(context.Background(), "Pictures", domain.ProviderGoogle)
	require.NoError(t, err)
	assert.NotNil(t, folders)
	assert.Empty(t, folders)
}

func TestListFolders_CachesResolvedPath(t *testing.T) {
	d := &fakeDrive{tree: sampleTree()}
	l := newTestLister(t, d)

	for i := 0; i < 3; i++ {
		_, err := l.ListFolders(context.Background(), "Documents/Work", domain.ProviderGoogle)
		require.NoError(t, err)
	}
	assert.Equal(t, int32(2), d.walks.Load())
}

func TestListFolders_ConcurrentLookups(t *testing.T) {
	d := &fakeDrive{tree: sampleTree()}
	l := newTestLister(t, d)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := l.ListFolders(context.Background(), "Documents/Work", domain.ProviderGoogle)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
}

func TestListFolders_CancelledCallerDoesNotFailSharedLookup(t *testing.T) {
	d := &fakeDrive{tree: sampleTree(), gate: make(chan struct{})}
	l := newTestLister(t, d)

	ctxA, cancelA := context.WithCancel(context.Background())
	errA := make(chan error, 1)
	go func() {
		_, err := l.ListFolders(ctxA, "Documents", domain.ProviderGoogle)
		errA <- err
	}()
	require.Eventually(t, func() bool { return d.walks.Load() == 1 }, 2*time.Second, 5*time.Millisecond)

	type result struct {
		folders []adapter.Folder
		err     error
	}
	resB := make(chan result, 1)
	go func() {
		folders, err := l.ListFolders(context.Background(), "Documents", domain.ProviderGoogle)
		resB <- result{folders, err}
	}()
	time.Sleep(50 * time.Millisecond) // let the second caller join the lookup

	cancelA()
	select {
	case err := <-errA:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("cancelled caller did not return")
	}

	close(d.gate)
	select {
	case res := <-resB:
		require.NoError(t, res.err)
		assert.Equal(t, []string{"Work", "Bob's stuff"}, names(res.folders))
	case <-time.After(2 * time.Second):
		t.Fatal("second caller did not return")
	}
	assert.Equal(t, int32(1), d.walks.Load(), "lookup should be shared")
}

func TestListFolders_MissingPath(t *testing.T) {
	d := &fakeDrive{tree: sampleTree()}
	l := newTestLister(t, d)

	_, err := l.ListFolders(context.Background(), "Documents/Nope/Deeper", domain.ProviderGoogle)
	assert.ErrorIs(t, err, domain.ErrFolderNotFound)
	assert.Contains(t, err.Error(), "Documents/Nope")
	assert.Zero(t, d.listings.Load())
}

func TestListFolders_StaleCacheEntryDropped(t *testing.T) {
	d := &fakeDrive{tree: sampleTree()}
	l := newTestLister(t, d)

	_, err := l.ListFolders(context.Background(), "Documents/Bob's stuff", domain.ProviderGoogle)
	require.NoError(t, err)
	_, err = l.ListFolders(context.Background(), "Documents/Bob's stuff/Deep", domain.ProviderGoogle)
	require.NoError(t, err)

	delete(d.tree, "quote")
	_, err = l.ListFolders(context.Background(), "Documents/Bob's stuff", domain.ProviderGoogle)
	assert.ErrorIs(t, err, domain.ErrFolderNotFound)

	_, ok := l.cache.Get("Documents/Bob's stuff/Deep")
	assert.False(t, ok)
	_, ok = l.cache.Get("Documents")
	assert.True(t, ok)
}

func TestListFolders_ProviderErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		reason string
		want   error
	}{
		{"unauthorized", http.StatusUnauthorized, "authError", domain.ErrAccessDenied},
		{"forbidden", http.StatusForbidden, "insufficientPermissions", domain.ErrAccessDenied},
		{"rate limited", http.StatusTooManyRequests, "rateLimitExceeded", domain.ErrRateLimited},
		{"quota as 403", http.StatusForbidden, "userRateLimitExceeded", domain.ErrRateLimited},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := newTestLister(t, &fakeDrive{tree: sampleTree(), status: tt.status, reason: tt.reason})
			_, err := l.ListFolders(context.Background(), "", domain.ProviderGoogle)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestMapError(t *testing.T) {
	assert.NoError(t, mapError(nil))

	err := mapError(&googleapi.Error{Code: 404, Message: "File not found"})
	assert.ErrorIs(t, err, domain.ErrFolderNotFound)

	rate := &googleapi.Error{Code: 429}
	err = mapError(rate)
	assert.ErrorIs(t, err, domain.ErrRateLimited)
	assert.ErrorIs(t, err, rate, "original error is kept")

	server := &googleapi.Error{Code: 500, Message: "server error"}
	assert.Same(t, server, mapError(server))

	generic := errors.New("generic error")
	assert.Equal(t, generic, mapError(generic))
}

func TestEscapeQueryString(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"normal", "normal"},
		{"file'name", "file\\'name"},
		{"file''name", "file\\'\\'name"},
		{"back\\slash", "back\\\\slash"},
		{"no'special\"chars", "no\\'special\"chars"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, escapeQueryString(tt.input), "input %q", tt.input)
	}
}

func TestSecurity_QueryInjection(t *testing.T) {
	maliciousNames := []string{
		"file' or '1'='1",
		"'; DROP TABLE files; --",
		"file' AND trashed=false AND '1'='1",
	}

	for _, name := range maliciousNames {
		escaped := escapeQueryString(name)
		unescaped := strings.ReplaceAll(escaped, "\\'", "")
		assert.NotContains(t, unescaped, "'", "unescaped single quote in %q", escaped)
	}
}

func BenchmarkEscapeQueryString(b *testing.B) {
	testStr := "file'with'many'quotes'in'it"
	for i := 0; i < b.N; i++ {
		_ = escapeQueryString(testStr)
	}
}
