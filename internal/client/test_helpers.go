package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fivetwenty-io/storyblok-client/pkg/storyblok"
)

// TestAPIKey is the key test clients are created with.
const TestAPIKey = "test-key"

// NewTestConfig returns a config pointing at server with fast retries.
func NewTestConfig(server *httptest.Server, kind storyblok.ConsumerKind) *storyblok.Config {
	return &storyblok.Config{
		APIKey:     TestAPIKey,
		Endpoint:   strings.TrimPrefix(server.URL, "http://"),
		Kind:       kind,
		MaxRetries: 2,
		RetryStep:  time.Millisecond,
	}
}

// NewTestClient creates a delivery client against server.
func NewTestClient(t *testing.T, server *httptest.Server) *Client {
	t.Helper()

	client, err := New(NewTestConfig(server, storyblok.ContentDelivery))
	require.NoError(t, err)

	return client
}

// NewTestManagementClient creates a management client against server.
func NewTestManagementClient(t *testing.T, server *httptest.Server) *ManagementClient {
	t.Helper()

	client, err := NewManagement(NewTestConfig(server, storyblok.ContentManagement))
	require.NoError(t, err)

	return client
}

// TestGetOperation represents a delivery read test case.
type TestGetOperation struct {
	Name          string
	Call          func(context.Context, *Client) (*storyblok.Response, error)
	ExpectedPath  string
	ExpectedQuery map[string][]string
	AbsentKeys    []string
	StatusCode    int
	Response      interface{}
	WantErr       bool
	ErrMessage    string
}

// RunGetTests runs a series of delivery read tests, each against its own
// server.
func RunGetTests(t *testing.T, tests []TestGetOperation) {
	t.Helper()

	for _, testCase := range tests {
		testCase := testCase
		t.Run(testCase.Name, func(t *testing.T) {
			t.Parallel()

			server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
				assert.Equal(t, http.MethodGet, request.Method)
				assert.Equal(t, testCase.ExpectedPath, request.URL.Path)
				assert.Empty(t, request.Header.Get("Authorization"))

				query := request.URL.Query()
				for key, want := range testCase.ExpectedQuery {
					assert.Equal(t, want, query[key], "query key %q", key)
				}

				for _, key := range testCase.AbsentKeys {
					assert.NotContains(t, query, key)
				}

				statusCode := testCase.StatusCode
				if statusCode == 0 {
					statusCode = http.StatusOK
				}

				writer.Header().Set("Content-Type", "application/json")
				writer.WriteHeader(statusCode)

				if testCase.Response != nil {
					_ = json.NewEncoder(writer).Encode(testCase.Response)
				}
			}))
			defer server.Close()

			client := NewTestClient(t, server)

			result, err := testCase.Call(context.Background(), client)

			if testCase.WantErr {
				require.Error(t, err)

				if testCase.ErrMessage != "" {
					assert.Contains(t, err.Error(), testCase.ErrMessage)
				}

				assert.Nil(t, result)
			} else {
				require.NoError(t, err)
				require.NotNil(t, result)
			}
		})
	}
}
