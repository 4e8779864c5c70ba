package starred

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/brizzai/starfetch/internal/config"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// repos builds n repository objects numbered from start.
func repos(start, n int) []map[string]any {
	out := make([]map[string]any, 0, n)
	for i := start; i < start+n; i++ {
		out = append(out, map[string]any{
			"id":        i,
			"name":      fmt.Sprintf("repo-%d", i),
			"full_name": fmt.Sprintf("owner/repo-%d", i),
		})
	}
	return out
}

// pagedServer serves pages[i] for page=i+1 and counts the calls.
func pagedServer(t *testing.T, token string, pages [][]map[string]any, link func(page int) string) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		assert.Equal(t, "/user/starred", r.URL.Path)
		assert.Equal(t, "Bearer "+token, r.Header.Get("Authorization"))
		assert.Equal(t, "application/vnd.github+json", r.Header.Get("Accept"))
		assert.NotEmpty(t, r.Header.Get("User-Agent"))

		page, err := strconv.Atoi(r.URL.Query().Get("page"))
		assert.NoError(t, err)
		if link != nil {
			if l := link(page); l != "" {
				w.Header().Set("Link", l)
			}
		}
		w.Header().Set("Content-Type", "application/json")
		if page < 1 || page > len(pages) {
			_, _ = w.Write([]byte("[]"))
			return
		}
		_ = json.NewEncoder(w).Encode(pages[page-1])
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

func newTestClient(srv *httptest.Server, perPage, maxPages int) *Client {
	return NewClient(&config.GitHubConfig{
		APIURL:   srv.URL,
		PerPage:  perPage,
		MaxPages: maxPages,
		Timeout:  5 * time.Second,
	}, srv.Client())
}

func names(t *testing.T, records []Record) []string {
	t.Helper()
	out := make([]string, 0, len(records))
	for _, r := range records {
		var repo struct {
			Name string `json:"name"`
		}
		require.NoError(t, json.Unmarshal(r, &repo))
		out = append(out, repo.Name)
	}
	return out
}

func TestListStarred_SinglePage(t *testing.T) {
	srv, calls := pagedServer(t, "tok1", [][]map[string]any{repos(1, 2)}, nil)

	records, err := newTestClient(srv, 100, 0).ListStarred(context.Background(), BearerAuth("tok1"))
	require.NoError(t, err)

	assert.Equal(t, int32(1), calls.Load())
	if diff := cmp.Diff([]string{"repo-1", "repo-2"}, names(t, records)); diff != "" {
		t.Errorf("records mismatch (-want +got):\n%s", diff)
	}
}

func TestListStarred_FullPageThenShortPage(t *testing.T) {
	srv, calls := pagedServer(t, "tok1", [][]map[string]any{repos(1, 100), repos(101, 3)}, nil)

	records, err := newTestClient(srv, 100, 0).ListStarred(context.Background(), BearerAuth("tok1"))
	require.NoError(t, err)

	assert.Len(t, records, 103)
	assert.Equal(t, int32(2), calls.Load())

	got := names(t, records)
	for i, name := range got {
		assert.Equal(t, fmt.Sprintf("repo-%d", i+1), name)
	}
}

func TestListStarred_ExactMultipleEndsOnEmptyPage(t *testing.T) {
	srv, calls := pagedServer(t, "tok1", [][]map[string]any{repos(1, 2), repos(3, 2)}, nil)

	records, err := newTestClient(srv, 2, 0).ListStarred(context.Background(), BearerAuth("tok1"))
	require.NoError(t, err)

	assert.Len(t, records, 4)
	assert.Equal(t, int32(3), calls.Load())
}

func TestListStarred_LinkHeaderWithoutNextStops(t *testing.T) {
	pages := [][]map[string]any{repos(1, 2), repos(3, 2)}
	link := func(page int) string {
		if page == 1 {
			return `<http://example/user/starred?page=2>; rel="next", <http://example/user/starred?page=2>; rel="last"`
		}
		return `<http://example/user/starred?page=1>; rel="prev", <http://example/user/starred?page=1>; rel="first"`
	}
	srv, calls := pagedServer(t, "tok1", pages, link)

	records, err := newTestClient(srv, 2, 0).ListStarred(context.Background(), BearerAuth("tok1"))
	require.NoError(t, err)

	assert.Len(t, records, 4)
	assert.Equal(t, int32(2), calls.Load())
}

func TestListStarred_ShortPageWinsOverNextLink(t *testing.T) {
	link := func(int) string { return `<http://example/user/starred?page=2>; rel="next"` }
	srv, calls := pagedServer(t, "tok1", [][]map[string]any{repos(1, 1)}, link)

	records, err := newTestClient(srv, 2, 0).ListStarred(context.Background(), BearerAuth("tok1"))
	require.NoError(t, err)

	assert.Len(t, records, 1)
	assert.Equal(t, int32(1), calls.Load())
}

func TestListStarred_MaxPages(t *testing.T) {
	srv, calls := pagedServer(t, "tok1", [][]map[string]any{repos(1, 1), repos(2, 1), repos(3, 1)}, nil)

	_, err := newTestClient(srv, 1, 2).ListStarred(context.Background(), BearerAuth("tok1"))
	assert.ErrorIs(t, err, ErrTooManyPages)
	assert.Equal(t, int32(2), calls.Load())
}

func TestListStarred_Errors(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		wantErr error
	}{
		{
			name: "unauthorized",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = w.Write([]byte(`{"message":"Bad credentials"}`))
			},
			wantErr: ErrUnexpectedStatus,
		},
		{
			name: "object instead of array",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`{"id":1}`))
			},
			wantErr: ErrMalformedPage,
		},
		{
			name: "invalid json",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`[{"id":1},`))
			},
			wantErr: ErrMalformedPage,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			records, err := newTestClient(srv, 100, 0).ListStarred(context.Background(), BearerAuth("tok1"))
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Nil(t, records)
		})
	}
}

func TestListStarred_SecondPageFailureAbortsListing(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			_ = json.NewEncoder(w).Encode(repos(1, 2))
			return
		}
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	records, err := newTestClient(srv, 2, 0).ListStarred(context.Background(), BearerAuth("tok1"))
	assert.ErrorIs(t, err, ErrUnexpectedStatus)
	assert.Nil(t, records)
	assert.Equal(t, int32(2), calls.Load())
}

func TestListStarred_NoToken(t *testing.T) {
	srv, calls := pagedServer(t, "", nil, nil)

	_, err := newTestClient(srv, 100, 0).ListStarred(context.Background(), BearerAuth(""))
	assert.ErrorIs(t, err, ErrNoToken)
	assert.Equal(t, int32(0), calls.Load())
}

func TestNewClient_ClampsPerPage(t *testing.T) {
	c := NewClient(&config.GitHubConfig{PerPage: 500}, nil)
	assert.Equal(t, config.MaxPerPage, c.PerPage())
}

func TestHasNextLink(t *testing.T) {
	tests := []struct {
		header string
		want   bool
	}{
		{header: "", want: false},
		{header: `<https://api.github.com/user/starred?page=2>; rel="next"`, want: true},
		{header: `<https://api.github.com/user/starred?page=1>; rel="prev"`, want: false},
		{header: `<https://api.github.com/user/starred?page=1>; rel="first", <https://api.github.com/user/starred?page=3>; rel="next"`, want: true},
		{header: `<https://api.github.com/user/starred?page=3>; rel="next last"`, want: true},
		{header: "garbage", want: false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, hasNextLink(tt.header), tt.header)
	}
}
