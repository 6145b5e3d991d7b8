package metadata

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTMDBServer(t *testing.T) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "key", r.URL.Query().Get("api_key"))
		assert.Equal(t, "false", r.URL.Query().Get("include_adult"))

		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Query().Get("query") {
		case "no poster":
			_, _ = w.Write([]byte(`{"results":[{"id":1,"title":"Lost","poster_path":null}]}`))
		case "empty":
			_, _ = w.Write([]byte(`{"results":[]}`))
		case "broken":
			w.WriteHeader(http.StatusInternalServerError)
		default:
			switch r.URL.Path {
			case "/search/movie":
				_, _ = w.Write([]byte(`{"results":[{"id":603,"title":"The Matrix","poster_path":"/matrix.jpg"}]}`))
			case "/search/tv":
				_, _ = w.Write([]byte(`{"results":[{"id":1396,"name":"Breaking Bad","poster_path":"/bb.jpg"}]}`))
			default:
				w.WriteHeader(http.StatusNotFound)
			}
		}
	}))
	t.Cleanup(server.Close)
	return server
}

func newTestTMDB(server *httptest.Server) (*TMDB, *TMDB) {
	return NewTMDBClients(TMDBOptions{
		APIKey:       "key",
		APIBaseURL:   server.URL,
		ImageBaseURL: "https://image.tmdb.org/t/p/w500",
		SiteURL:      "https://www.themoviedb.org/",
	}, ClientOptions{HTTPClient: server.Client()})
}

func TestTMDB_Movie(t *testing.T) {
	movie, _ := newTestTMDB(newTMDBServer(t))

	resp, err := movie.Lookup(context.Background(), "matrix")
	require.NoError(t, err)
	assert.True(t, resp.Found)
	assert.Equal(t, "The Matrix", resp.Title)
	assert.Equal(t, "https://image.tmdb.org/t/p/w500/matrix.jpg", resp.Image)
	assert.Equal(t, "https://www.themoviedb.org/movie/603", resp.URL)
	assert.Equal(t, "tmdb_movie", movie.Name())
}

func TestTMDB_TV(t *testing.T) {
	_, tv := newTestTMDB(newTMDBServer(t))

	resp, err := tv.Lookup(context.Background(), "breaking bad")
	require.NoError(t, err)
	assert.True(t, resp.Found)
	assert.Equal(t, "Breaking Bad", resp.Title)
	assert.Equal(t, "https://image.tmdb.org/t/p/w500/bb.jpg", resp.Image)
	assert.Equal(t, "https://www.themoviedb.org/tv/1396", resp.URL)
	assert.Equal(t, "tmdb_tv", tv.Name())
}

func TestTMDB_NotFound(t *testing.T) {
	movie, tv := newTestTMDB(newTMDBServer(t))

	for _, q := range []string{"no poster", "empty"} {
		resp, err := movie.Lookup(context.Background(), q)
		require.NoError(t, err, q)
		assert.False(t, resp.Found, q)

		resp, err = tv.Lookup(context.Background(), q)
		require.NoError(t, err, q)
		assert.False(t, resp.Found, q)
	}
}

func TestTMDB_UpstreamError(t *testing.T) {
	movie, _ := newTestTMDB(newTMDBServer(t))

	_, err := movie.Lookup(context.Background(), "broken")
	var lookupErr *LookupError
	require.ErrorAs(t, err, &lookupErr)
	assert.Equal(t, "tmdb", lookupErr.Catalog)
	assert.Equal(t, http.StatusInternalServerError, lookupErr.StatusCode)
	assert.Contains(t, err.Error(), "status 500")
}
