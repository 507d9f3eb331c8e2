package commands

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fivetwenty-io/storyblok-client/internal/constants"
	"github.com/fivetwenty-io/storyblok-client/pkg/sbclient"
)

// deliveryServer answers every request with body and records the last
// request's path and query.
type deliveryServer struct {
	*httptest.Server

	mu    sync.Mutex
	path  string
	query url.Values
}

func (s *deliveryServer) last() (string, url.Values) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.path, s.query
}

func newDeliveryServer(t *testing.T, status int, body string) *deliveryServer {
	t.Helper()

	s := &deliveryServer{}
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.path = r.URL.Path
		s.query = r.URL.Query()
		s.mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(s.Close)

	return s
}

func lastPath(s *deliveryServer) string {
	path, _ := s.last()

	return path
}

func lastQuery(s *deliveryServer) url.Values {
	_, query := s.last()

	return query
}

func TestNewStoriesCommand(t *testing.T) {
	cmd := NewStoriesCommand()
	assert.Equal(t, "stories", cmd.Use)
	assert.Equal(t, []string{"story"}, cmd.Aliases)

	get := findSubcommand(cmd, "get")
	require.NotNil(t, get)
	assert.Equal(t, "get SLUG_OR_UUID...", get.Use)

	for _, flagName := range []string{"uuid", "content-version", "edit-mode", "resolve-relations", "query"} {
		assert.NotNil(t, get.Flags().Lookup(flagName), "Flag %s should exist", flagName)
	}

	list := findSubcommand(cmd, "list")
	require.NotNil(t, list)

	for _, flagName := range []string{"starts-with", "tag", "sort-by", "per-page", "page", "query"} {
		assert.NotNil(t, list.Flags().Lookup(flagName), "Flag %s should exist", flagName)
	}
}

func TestStoriesGet(t *testing.T) {
	server := newDeliveryServer(t, http.StatusOK, `{"story":{"id":1,"name":"Home","full_slug":"home","content":{"component":"page"}}}`)
	setupViper(t, server.Server, constants.FormatJSON)

	stdout, _, err := execute(t, NewStoriesCommand(), "get", "home")
	require.NoError(t, err)

	assert.Equal(t, "/v1/cdn/stories/home", lastPath(server))
	assert.Equal(t, testPreviewKey, lastQuery(server).Get("token"))
	assert.Equal(t, "draft", lastQuery(server).Get("version"))

	var body map[string]any
	require.NoError(t, json.Unmarshal([]byte(stdout), &body))
	assert.Equal(t, "Home", body["story"].(map[string]any)["name"])
}

func TestStoriesGet_ByUUIDPublished(t *testing.T) {
	server := newDeliveryServer(t, http.StatusOK, `{"story":{"id":1,"name":"Home"}}`)
	setupViper(t, server.Server, "")

	stdout, _, err := execute(t, NewStoriesCommand(),
		"get", "6f1f0b3e", "--uuid", "--content-version", "published", "--resolve-relations", "page.author")
	require.NoError(t, err)

	assert.Equal(t, "/v1/cdn/stories/6f1f0b3e", lastPath(server))
	assert.Equal(t, "uuid", lastQuery(server).Get("find_by"))
	assert.Equal(t, "published", lastQuery(server).Get("version"))
	assert.Equal(t, "page.author", lastQuery(server).Get("resolve_relations"))
	assert.Contains(t, stdout, "Home")
}

func TestStoriesGet_EditModeForcesDraft(t *testing.T) {
	server := newDeliveryServer(t, http.StatusOK, `{"story":{}}`)
	setupViper(t, server.Server, constants.FormatJSON)
	viper.Set(sbclient.KeyVersion, "published")

	_, _, err := execute(t, NewStoriesCommand(), "get", "home", "--edit-mode")
	require.NoError(t, err)
	assert.Equal(t, "draft", lastQuery(server).Get("version"))
}

func TestStoriesGet_NotFound(t *testing.T) {
	server := newDeliveryServer(t, http.StatusNotFound, `{"error":"Not Found"}`)
	setupViper(t, server.Server, "")

	_, _, err := execute(t, NewStoriesCommand(), "get", "missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to get story")
	assert.Contains(t, err.Error(), "404")
}

func TestStoriesGet_InvalidContentVersion(t *testing.T) {
	server := newDeliveryServer(t, http.StatusOK, `{}`)
	setupViper(t, server.Server, "")

	_, _, err := execute(t, NewStoriesCommand(), "get", "home", "--content-version", "latest")
	require.Error(t, err)
	assert.Empty(t, lastPath(server))
}

func TestStoriesList(t *testing.T) {
	server := newDeliveryServer(t, http.StatusOK,
		`{"stories":[{"id":1,"name":"First Post","full_slug":"blog/first"},{"id":2,"name":"Second Post","full_slug":"blog/second"}]}`)
	setupViper(t, server.Server, constants.FormatTable)

	stdout, _, err := execute(t, NewStoriesCommand(),
		"list", "--starts-with", "blog/", "--tag", "a", "--tag", "b", "--per-page", "5", "-q", "excluding_fields=body")
	require.NoError(t, err)

	assert.Equal(t, "/v1/cdn/stories/", lastPath(server))
	assert.Equal(t, "blog/", lastQuery(server).Get("starts_with"))
	assert.Equal(t, "a,b", lastQuery(server).Get("with_tag"))
	assert.Equal(t, "5", lastQuery(server).Get("per_page"))
	assert.Equal(t, "body", lastQuery(server).Get("excluding_fields"))
	assert.Equal(t, testPreviewKey, lastQuery(server).Get("token"))

	assert.Contains(t, stdout, "First Post")
	assert.Contains(t, stdout, "blog/second")
}

func TestStoriesList_InvalidQuery(t *testing.T) {
	server := newDeliveryServer(t, http.StatusOK, `{}`)
	setupViper(t, server.Server, "")

	_, _, err := execute(t, NewStoriesCommand(), "list", "-q", "novalue")
	require.ErrorIs(t, err, constants.ErrInvalidQueryParam)
}

func TestStoriesList_MissingKey(t *testing.T) {
	server := newDeliveryServer(t, http.StatusOK, `{}`)
	setupViper(t, server.Server, "")
	viper.Set(sbclient.KeyPreviewKey, "")

	_, _, err := execute(t, NewStoriesCommand(), "list")
	require.ErrorIs(t, err, constants.ErrNoKeyConfigured)
}

func TestStoriesList_Stats(t *testing.T) {
	server := newDeliveryServer(t, http.StatusOK, `{"stories":[]}`)
	setupViper(t, server.Server, "")
	viper.Set(KeyStats, true)

	_, stderr, err := execute(t, NewStoriesCommand(), "list")
	require.NoError(t, err)
	assert.Contains(t, stderr, "GET stories/")
}

func TestTagsList(t *testing.T) {
	server := newDeliveryServer(t, http.StatusOK, `{"tags":[{"name":"news","taggings_count":3}]}`)
	setupViper(t, server.Server, "")

	stdout, _, err := execute(t, NewTagsCommand(), "list", "--starts-with", "blog/")
	require.NoError(t, err)

	assert.Equal(t, "/v1/cdn/tags/", lastPath(server))
	assert.Equal(t, "blog/", lastQuery(server).Get("starts_with"))
	assert.Contains(t, stdout, "news")
	assert.Contains(t, stdout, "3")
}

func TestDatasourceEntriesList(t *testing.T) {
	server := newDeliveryServer(t, http.StatusOK,
		`{"datasource_entries":[{"id":7,"name":"Red","value":"#f00","dimension_value":null}]}`)
	setupViper(t, server.Server, constants.FormatYAML)

	stdout, _, err := execute(t, NewDatasourceEntriesCommand(), "list", "colors", "--dimension", "de")
	require.NoError(t, err)

	assert.Equal(t, "/v1/cdn/datasource_entries/", lastPath(server))
	assert.Equal(t, "colors", lastQuery(server).Get("datasource"))
	assert.Equal(t, "de", lastQuery(server).Get("dimension"))
	assert.Contains(t, stdout, "name: Red")
}

func TestLinksTree(t *testing.T) {
	server := newDeliveryServer(t, http.StatusOK, `{"links":{
		"a":{"id":1,"parent_id":0,"name":"Blog","slug":"blog"},
		"b":{"id":2,"parent_id":1,"name":"First","slug":"blog/first"},
		"c":{"id":3,"parent_id":9,"name":"Orphan","slug":"orphan"}
	}}`)
	setupViper(t, server.Server, constants.FormatJSON)

	stdout, _, err := execute(t, NewLinksCommand(), "tree")
	require.NoError(t, err)
	assert.Equal(t, "/v1/cdn/links/", lastPath(server))

	var tree map[string]struct {
		Item     map[string]any `json:"item"`
		Children map[string]struct {
			Item map[string]any `json:"item"`
		} `json:"children"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &tree))

	require.Len(t, tree, 1)
	require.Contains(t, tree, "1")
	assert.Equal(t, "Blog", tree["1"].Item["name"])
	require.Contains(t, tree["1"].Children, "2")
	assert.Equal(t, "First", tree["1"].Children["2"].Item["name"])
}

func TestLinksList(t *testing.T) {
	server := newDeliveryServer(t, http.StatusOK, `{"links":[{"id":1,"parent_id":0,"name":"Blog","slug":"blog","is_folder":true}]}`)
	setupViper(t, server.Server, "")

	stdout, _, err := execute(t, NewLinksCommand(), "list")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Blog")
	assert.Contains(t, stdout, "true")
}

func TestStoriesGet_Several(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/cdn/stories/home":
			_, _ = w.Write([]byte(`{"story":{"id":1,"name":"Home"}}`))
		case "/v1/cdn/stories/about":
			_, _ = w.Write([]byte(`{"story":{"id":2,"name":"About"}}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(server.Close)
	setupViper(t, server, constants.FormatJSON)

	stdout, _, err := execute(t, NewStoriesCommand(), "get", "home", "about", "missing", "--concurrency", "2")
	require.ErrorIs(t, err, constants.ErrStoriesFailed)

	var rows []storyResult
	require.NoError(t, json.Unmarshal([]byte(stdout), &rows))
	require.Len(t, rows, 3)

	assert.Equal(t, "home", rows[0].ID)
	assert.Equal(t, "Home", rows[0].Story["name"])
	assert.Equal(t, "About", rows[1].Story["name"])
	assert.Nil(t, rows[2].Story)
	assert.Contains(t, rows[2].Error, "404")
}
