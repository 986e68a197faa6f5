package salesforce

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	gosf "github.com/k-capehart/go-salesforce/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestSFClient creates an sfClient backed by an httptest server.
func newTestSFClient(t *testing.T, handler http.Handler) (Client, *httptest.Server) {
	t.Helper()
	ts := httptest.NewServer(handler)

	sf, err := gosf.Init(gosf.Creds{
		AccessToken: "test-token",
		Domain:      ts.URL,
	},
		gosf.WithValidateAuthentication(false),
		gosf.WithRoundTripper(http.DefaultTransport),
	)
	require.NoError(t, err)
	require.NotNil(t, sf)

	return NewClient(sf), ts
}

func TestSFClient_Query(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.URL.Path, "/query")
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"totalSize": 1,
			"done":      true,
			"records": []map[string]any{
				{
					"attributes": map[string]any{"type": "Account"},
					"Id":         "001xx",
					"Name":       "Acme Corp",
					"Website":    "acme.com",
				},
			},
		})
	})

	client, ts := newTestSFClient(t, handler)
	defer ts.Close()

	var accounts []Account
	err := client.Query(context.Background(), "SELECT Id, Name FROM Account", &accounts)
	require.NoError(t, err)
	require.Len(t, accounts, 1)
	assert.Equal(t, "001xx", accounts[0].ID)
	assert.Equal(t, "Acme Corp", accounts[0].Name)
}

func TestSFClient_Query_Error(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode([]map[string]any{
			{"message": "invalid SOQL", "errorCode": "MALFORMED_QUERY"},
		})
	})

	client, ts := newTestSFClient(t, handler)
	defer ts.Close()

	var accounts []Account
	err := client.Query(context.Background(), "INVALID SOQL", &accounts)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "sf: query")
}

func TestSFClient_InsertOne(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost && r.URL.Path != "/query" {
			w.WriteHeader(http.StatusCreated)
			_ = json.NewEncoder(w).Encode(map[string]any{
				"id":      "001new",
				"success": true,
				"errors":  []any{},
			})
			return
		}
		w.WriteHeader(http.StatusNotFound)
	})

	client, ts := newTestSFClient(t, handler)
	defer ts.Close()

	id, err := client.InsertOne(context.Background(), "Account", map[string]any{
		"Name": "New Corp",
	})
	require.NoError(t, err)
	assert.Equal(t, "001new", id)
}

func TestSFClient_InsertOne_Failure(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			w.WriteHeader(http.StatusOK)
			_ = json.NewEncoder(w).Encode(map[string]any{
				"id":      "",
				"success": false,
				"errors":  []map[string]any{{"message": "required field missing"}},
			})
			return
		}
		w.WriteHeader(http.StatusNotFound)
	})

	client, ts := newTestSFClient(t, handler)
	defer ts.Close()

	_, err := client.InsertOne(context.Background(), "Account", map[string]any{})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "insert Account failed")
}

func TestConnect_RequiresCredentials(t *testing.T) {
	_, err := Connect(Credentials{KeyPath: "missing.pem"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "username and consumer key")

	_, err = Connect(Credentials{Username: "u", ConsumerKey: "k", KeyPath: "does-not-exist.pem"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read JWT private key")
}

func TestSFClient_RateLimitCancelled(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	ts := httptest.NewServer(handler)
	defer ts.Close()

	sf, err := gosf.Init(gosf.Creds{AccessToken: "t", Domain: ts.URL},
		gosf.WithValidateAuthentication(false))
	require.NoError(t, err)
	client := NewClient(sf, WithRateLimit(0.001))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = client.InsertOne(ctx, "Account", map[string]any{"Name": "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate limit")
}
