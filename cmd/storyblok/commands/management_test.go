package commands

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fivetwenty-io/storyblok-client/internal/constants"
	"github.com/fivetwenty-io/storyblok-client/pkg/sbclient"
)

type recordedRequest struct {
	method string
	path   string
	auth   string
	body   string
}

func newManagementServer(t *testing.T, status int, response string) (*httptest.Server, func() recordedRequest) {
	t.Helper()

	var (
		mu   sync.Mutex
		last recordedRequest
	)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)

		mu.Lock()
		last = recordedRequest{
			method: r.Method,
			path:   r.URL.Path,
			auth:   r.Header.Get("Authorization"),
			body:   string(body),
		}
		mu.Unlock()

		w.WriteHeader(status)
		_, _ = w.Write([]byte(response))
	}))
	t.Cleanup(server.Close)

	return server, func() recordedRequest {
		mu.Lock()
		defer mu.Unlock()

		return last
	}
}

func TestNewManagementCommand(t *testing.T) {
	cmd := NewManagementCommand()
	assert.Equal(t, "management", cmd.Use)
	assert.Equal(t, []string{"mapi"}, cmd.Aliases)

	var commandNames []string
	for _, subcmd := range cmd.Commands() {
		commandNames = append(commandNames, subcmd.Name())
	}

	assert.ElementsMatch(t, []string{"get", "post", "put", "delete"}, commandNames)

	post := findSubcommand(cmd, "post")
	require.NotNil(t, post)
	assert.NotNil(t, post.Flags().Lookup("data"))
}

func TestManagementGet(t *testing.T) {
	server, last := newManagementServer(t, http.StatusOK, `{"space":{"id":606,"name":"Demo"}}`)
	setupViper(t, server, "")

	stdout, _, err := execute(t, NewManagementCommand(), "get", "spaces/606")
	require.NoError(t, err)

	req := last()
	assert.Equal(t, http.MethodGet, req.method)
	assert.Equal(t, "/v1/spaces/606", req.path)
	assert.Equal(t, testManagementKey, req.auth)
	assert.Contains(t, stdout, "space")
}

func TestManagementPost(t *testing.T) {
	server, last := newManagementServer(t, http.StatusCreated, `{"story":{"id":123456789012345}}`)
	setupViper(t, server, constants.FormatJSON)

	stdout, _, err := execute(t, NewManagementCommand(),
		"post", "spaces/606/stories", "--data", `{"story":{"name":"About","parent_id":123456789012345}}`)
	require.NoError(t, err)

	req := last()
	assert.Equal(t, http.MethodPost, req.method)
	assert.Equal(t, "/v1/spaces/606/stories", req.path)
	assert.JSONEq(t, `{"story":{"name":"About","parent_id":123456789012345}}`, req.body)
	assert.Contains(t, stdout, "123456789012345")
}

func TestManagementPut_FromFile(t *testing.T) {
	server, last := newManagementServer(t, http.StatusOK, `{}`)
	setupViper(t, server, "")

	payloadFile := filepath.Join(t.TempDir(), "story.json")
	require.NoError(t, os.WriteFile(payloadFile, []byte(`{"story":{"name":"Renamed"}}`), 0o600))

	_, _, err := execute(t, NewManagementCommand(), "put", "spaces/606/stories/1", "--data", "@"+payloadFile)
	require.NoError(t, err)

	req := last()
	assert.Equal(t, http.MethodPut, req.method)
	assert.JSONEq(t, `{"story":{"name":"Renamed"}}`, req.body)
}

func TestManagementPost_FromStdin(t *testing.T) {
	server, last := newManagementServer(t, http.StatusCreated, `{}`)
	setupViper(t, server, "")

	cmd := NewManagementCommand()
	cmd.SetIn(strings.NewReader(`{"datasource":{"name":"Colors"}}`))

	_, _, err := execute(t, cmd, "post", "spaces/606/datasources", "--data", "-")
	require.NoError(t, err)
	assert.JSONEq(t, `{"datasource":{"name":"Colors"}}`, last().body)
}

func TestManagementPost_InvalidPayload(t *testing.T) {
	server, last := newManagementServer(t, http.StatusCreated, `{}`)
	setupViper(t, server, "")

	_, _, err := execute(t, NewManagementCommand(), "post", "spaces/606/stories", "--data", `[1,2]`)
	require.ErrorIs(t, err, constants.ErrInvalidPayload)
	assert.Empty(t, last().method)
}

func TestManagementGet_RawBody(t *testing.T) {
	server, _ := newManagementServer(t, http.StatusOK, `plain text body`)
	setupViper(t, server, "")

	stdout, _, err := execute(t, NewManagementCommand(), "get", "spaces/606/export")
	require.NoError(t, err)
	assert.Contains(t, stdout, "plain text body")
}

func TestManagementGet_ArrayBody(t *testing.T) {
	server, _ := newManagementServer(t, http.StatusOK, `[{"id":1}]`)
	setupViper(t, server, "")

	stdout, _, err := execute(t, NewManagementCommand(), "get", "spaces/606/list")
	require.NoError(t, err)
	assert.Contains(t, stdout, `[{"id":1}]`)
}

func TestManagementDelete(t *testing.T) {
	server, last := newManagementServer(t, http.StatusNoContent, ``)
	setupViper(t, server, "")

	_, _, err := execute(t, NewManagementCommand(), "delete", "spaces/606/stories/42")
	require.NoError(t, err)

	req := last()
	assert.Equal(t, http.MethodDelete, req.method)
	assert.Equal(t, "/v1/spaces/606/stories/42", req.path)
	assert.Empty(t, req.body)
}

func TestManagement_Unauthorized(t *testing.T) {
	server, _ := newManagementServer(t, http.StatusUnauthorized, `{"error":"Unauthorized"}`)
	setupViper(t, server, "")

	_, _, err := execute(t, NewManagementCommand(), "delete", "spaces/606/stories/42")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
}

func TestManagement_MissingKey(t *testing.T) {
	server, _ := newManagementServer(t, http.StatusOK, `{}`)
	setupViper(t, server, "")
	viper.Set(sbclient.KeyManagementKey, "")

	_, _, err := execute(t, NewManagementCommand(), "get", "spaces/606")
	require.ErrorIs(t, err, constants.ErrNoMgmtKeyConfigured)
}

func TestManagement_NATSUnavailable(t *testing.T) {
	server, last := newManagementServer(t, http.StatusOK, `{}`)
	setupViper(t, server, "")
	viper.Set(KeyNATSURL, "nats://127.0.0.1:1")

	_, _, err := execute(t, NewManagementCommand(), "delete", "spaces/606/stories/42")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to connect event publisher")
	assert.Empty(t, last().method)
}

func TestParsePayload(t *testing.T) {
	payload, err := parsePayload(`{"id":123456789012345678}`, nil)
	require.NoError(t, err)

	encoded, err := json.Marshal(payload)
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":123456789012345678}`, string(encoded))

	_, err = parsePayload(`null`, nil)
	require.ErrorIs(t, err, constants.ErrInvalidPayload)

	_, err = parsePayload(`not json`, nil)
	require.ErrorIs(t, err, constants.ErrInvalidPayload)

	_, err = parsePayload("@"+filepath.Join(t.TempDir(), "missing.json"), nil)
	require.Error(t, err)
}
