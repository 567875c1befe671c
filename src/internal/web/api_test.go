package web

import (
	"bytes"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type apiResult struct {
	code int
	body map[string]any
	list []map[string]any
}

func callAPI(t *testing.T, c *http.Client, method, u string, body any, header http.Header) apiResult {
	t.Helper()
	var rd *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(b)
	} else {
		rd = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, u, rd)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range header {
		req.Header[k] = v
	}
	resp, err := c.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	res := apiResult{code: resp.StatusCode}
	var raw json.RawMessage
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&raw))
	if len(raw) > 0 && raw[0] == '[' {
		require.NoError(t, json.Unmarshal(raw, &res.list))
	} else {
		require.NoError(t, json.Unmarshal(raw, &res.body))
	}
	return res
}

func titles(t *testing.T, res apiResult) []string {
	t.Helper()
	movies, ok := res.body["movies"].([]any)
	require.True(t, ok, "movies array missing: %v", res.body)
	out := make([]string, 0, len(movies))
	for _, m := range movies {
		out = append(out, m.(map[string]any)["title"].(string))
	}
	return out
}

func TestAPI_SearchThenClear(t *testing.T) {
	h := newHarness(t, 0)
	c := h.client(t)

	res := callAPI(t, c, http.MethodGet, h.srv.URL+"/api/v1/movies?q=dune", nil, nil)
	require.Equal(t, http.StatusOK, res.code)
	assert.Equal(t, "ready", res.body["status"])
	assert.Equal(t, []string{"Dune", "Dune: Part Two"}, titles(t, res))

	res = callAPI(t, c, http.MethodGet, h.srv.URL+"/api/v1/movies?q=", nil, nil)
	assert.Equal(t, []string{"Popular One", "Popular Two"}, titles(t, res))
}

func TestAPI_SupersededSearch(t *testing.T) {
	h := newHarness(t, 200*time.Millisecond)
	c := h.client(t)
	header := http.Header{"X-Client-Id": {"client-1"}}

	var wg sync.WaitGroup
	var first apiResult
	wg.Add(1)
	go func() {
		defer wg.Done()
		first = callAPI(t, c, http.MethodGet, h.srv.URL+"/api/v1/movies?q=du", nil, header)
	}()

	time.Sleep(50 * time.Millisecond)
	second := callAPI(t, c, http.MethodGet, h.srv.URL+"/api/v1/movies?q=dune", nil, header)
	wg.Wait()

	assert.Equal(t, http.StatusOK, first.code)
	assert.Equal(t, "superseded", first.body["status"])
	assert.Equal(t, "ready", second.body["status"])
	assert.Equal(t, []string{"Dune", "Dune: Part Two"}, titles(t, second))
}

func TestAPI_CatalogErrorKeepsCachedMovies(t *testing.T) {
	h := newHarness(t, 0)
	c := h.client(t)

	res := callAPI(t, c, http.MethodGet, h.srv.URL+"/api/v1/movies", nil, nil)
	require.Equal(t, http.StatusOK, res.code)

	h.catalog.setErr(errors.New("catalog down"))
	res = callAPI(t, c, http.MethodGet, h.srv.URL+"/api/v1/movies?q=matrix", nil, nil)
	assert.Equal(t, http.StatusBadGateway, res.code)
	assert.Equal(t, "error", res.body["status"])
	assert.Contains(t, res.body["error"], "catalog down")
	assert.Empty(t, titles(t, res))
}

func TestAPI_UnauthenticatedWritesReturn401WithoutStoreCalls(t *testing.T) {
	h := newHarness(t, 0)
	c := h.client(t)

	movie := map[string]any{"title": "Dune"}
	for _, tc := range []struct{ method, path string }{
		{http.MethodPut, "/api/v1/favorites/438631"},
		{http.MethodPost, "/api/v1/favorites/438631/toggle"},
		{http.MethodDelete, "/api/v1/favorites/438631"},
	} {
		res := callAPI(t, c, tc.method, h.srv.URL+tc.path, movie, nil)
		assert.Equal(t, http.StatusUnauthorized, res.code, tc.path)
		assert.Equal(t, "Please sign in to continue", res.body["error"])
	}
	res := callAPI(t, c, http.MethodPut, h.srv.URL+"/api/v1/ratings/438631", map[string]any{"rating": 5}, nil)
	assert.Equal(t, http.StatusUnauthorized, res.code)
	res = callAPI(t, c, http.MethodPut, h.srv.URL+"/api/v1/profile", map[string]any{"email": "a@example.com"}, nil)
	assert.Equal(t, http.StatusUnauthorized, res.code)

	res = callAPI(t, c, http.MethodGet, h.srv.URL+"/api/v1/favorites", nil, nil)
	assert.Equal(t, http.StatusOK, res.code)
	assert.Empty(t, res.list)
	res = callAPI(t, c, http.MethodGet, h.srv.URL+"/api/v1/me", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, res.code)

}

func TestAPI_FavoritesAndRatingsRoundTrip(t *testing.T) {
	h := newHarness(t, 0)
	c := h.client(t)
	h.signUp(t, c, "alice@example.com")
	base := h.srv.URL + "/api/v1"

	res := callAPI(t, c, http.MethodPost, base+"/favorites/438631/toggle", map[string]any{"title": "Dune"}, nil)
	require.Equal(t, http.StatusOK, res.code)
	assert.Equal(t, true, res.body["favorite"])

	res = callAPI(t, c, http.MethodGet, base+"/favorites/438631", nil, nil)
	assert.Equal(t, true, res.body["favorite"])
	res = callAPI(t, c, http.MethodGet, base+"/favorites", nil, nil)
	require.Len(t, res.list, 1)
	assert.Equal(t, "Dune", res.list[0]["title"])

	res = callAPI(t, c, http.MethodDelete, base+"/favorites/438631", nil, nil)
	assert.Equal(t, false, res.body["favorite"])
	res = callAPI(t, c, http.MethodGet, base+"/favorites", nil, nil)
	assert.Empty(t, res.list)

	rate := map[string]any{"rating": 3, "movie": map[string]any{"title": "Dune"}}
	res = callAPI(t, c, http.MethodPost, base+"/ratings/438631/rate", rate, nil)
	assert.EqualValues(t, 3, res.body["rating"])
	res = callAPI(t, c, http.MethodPost, base+"/ratings/438631/rate", rate, nil)
	assert.EqualValues(t, 0, res.body["rating"], "rating the active score clears it")

	res = callAPI(t, c, http.MethodPut, base+"/ratings/438631", map[string]any{"rating": 5, "movie": map[string]any{"title": "Dune"}}, nil)
	assert.EqualValues(t, 5, res.body["rating"])
	res = callAPI(t, c, http.MethodGet, base+"/ratings/438631", nil, nil)
	assert.EqualValues(t, 5, res.body["rating"])

	res = callAPI(t, c, http.MethodPut, base+"/ratings/438631", map[string]any{"rating": 6}, nil)
	assert.Equal(t, http.StatusBadRequest, res.code)
	res = callAPI(t, c, http.MethodGet, base+"/ratings/abc", nil, nil)
	assert.Equal(t, http.StatusBadRequest, res.code)
}

func TestAPI_Profile(t *testing.T) {
	h := newHarness(t, 0)
	c := h.client(t)
	h.signUp(t, c, "alice@example.com")
	base := h.srv.URL + "/api/v1"

	res := callAPI(t, c, http.MethodGet, base+"/profile", nil, nil)
	require.Equal(t, http.StatusOK, res.code)
	assert.Equal(t, "alice@example.com", res.body["email"])

	res = callAPI(t, c, http.MethodPut, base+"/profile", map[string]any{"email": "bad"}, nil)
	assert.Equal(t, http.StatusBadRequest, res.code)
	assert.Equal(t, "validation failed", res.body["error"])

	res = callAPI(t, c, http.MethodPut, base+"/profile", map[string]any{"email": "alice@example.com", "name": "Alice", "userId": "someone-else"}, nil)
	require.Equal(t, http.StatusOK, res.code)
	assert.Equal(t, "Alice", res.body["name"], "response is the stored profile")
	assert.Equal(t, "alice@example.com", res.body["email"])
	assert.NotContains(t, res.body, "userId")
	res = callAPI(t, c, http.MethodGet, base+"/profile", nil, nil)
	assert.Equal(t, "Alice", res.body["name"])

	res = callAPI(t, c, http.MethodGet, base+"/me", nil, nil)
	assert.Equal(t, "alice@example.com", res.body["email"])
}

func TestAPI_CORSPreflight(t *testing.T) {
	h := newHarness(t, 0)
	req, err := http.NewRequest(http.MethodOptions, h.srv.URL+"/api/v1/movies", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "https://app.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}
