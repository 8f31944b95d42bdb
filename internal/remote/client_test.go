package remote

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/schemacat/schemacat/internal/descriptor"
	"github.com/schemacat/schemacat/internal/tree"
)

func testClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClientWithHTTP(ClientConfig{
		BaseURL:      server.URL,
		APIKey:       "secret",
		CollectionID: "col-1",
	}, server.Client())
}

func TestClientFetchTree(t *testing.T) {
	var gotKey string
	r := chi.NewRouter()
	r.Get("/collections/{id}", func(w http.ResponseWriter, req *http.Request) {
		gotKey = req.Header.Get("X-Api-Key")
		assert.Equal(t, "col-1", chi.URLParam(req, "id"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"id": "root",
			"name": "",
			"kind": "folder",
			"items": [
				{
					"id": "f1",
					"name": "Invoice",
					"kind": "folder",
					"items": [
						{"id": "r1", "name": "GET /api/resource/invoice", "kind": "request",
						 "verb": "GET", "path": "/api/resource/invoice"}
					]
				}
			]
		}`))
	})

	client := testClient(t, r)
	root, err := client.FetchTree(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "secret", gotKey)
	assert.Equal(t, "root", root.RemoteID)
	require.Len(t, root.Children, 1)

	folder := root.Children[0]
	assert.Equal(t, tree.Folder, folder.Kind)
	assert.Equal(t, "f1", folder.RemoteID)
	require.Len(t, folder.Children, 1)

	leaf := folder.Children[0]
	assert.Equal(t, tree.Leaf, leaf.Kind)
	require.NotNil(t, leaf.Descriptor)
	// The store persisted no hash, so the client recomputes it.
	assert.Equal(t, descriptor.Hash("GET", "/api/resource/invoice", ""), leaf.Descriptor.ContentHash)
}

func TestClientCreateFolder(t *testing.T) {
	r := chi.NewRouter()
	r.Post("/collections/{id}/folders", func(w http.ResponseWriter, req *http.Request) {
		var payload map[string]string
		require.NoError(t, json.NewDecoder(req.Body).Decode(&payload))
		assert.Equal(t, "root", payload["parent_id"])
		assert.Equal(t, "Invoice", payload["name"])
		w.Write([]byte(`{"id": "f-new"}`))
	})

	client := testClient(t, r)
	id, err := client.CreateFolder(context.Background(), "root", "Invoice")
	require.NoError(t, err)
	assert.Equal(t, "f-new", id)
}

func TestClientCreateRequestSendsDescriptor(t *testing.T) {
	r := chi.NewRouter()
	r.Post("/collections/{id}/requests", func(w http.ResponseWriter, req *http.Request) {
		var payload map[string]string
		require.NoError(t, json.NewDecoder(req.Body).Decode(&payload))
		assert.Equal(t, "f1", payload["parent_id"])
		assert.Equal(t, "POST", payload["verb"])
		assert.Equal(t, "/api/resource/invoice", payload["path"])
		assert.NotEmpty(t, payload["hash"])
		w.Write([]byte(`{"id": "r-new"}`))
	})

	client := testClient(t, r)
	leaf := tree.NewLeaf(descriptor.Descriptor{
		Verb:         "POST",
		PathTemplate: "/api/resource/invoice",
		ExampleBody:  `{"amount":0.0}`,
		ContentHash:  descriptor.Hash("POST", "/api/resource/invoice", `{"amount":0.0}`),
	})
	id, err := client.CreateRequest(context.Background(), "f1", leaf)
	require.NoError(t, err)
	assert.Equal(t, "r-new", id)
}

func TestClientRateLimitIsTransient(t *testing.T) {
	r := chi.NewRouter()
	r.Post("/collections/{id}/folders", func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Retry-After", "2")
		w.WriteHeader(http.StatusTooManyRequests)
	})

	client := testClient(t, r)
	_, err := client.CreateFolder(context.Background(), "root", "Invoice")
	require.Error(t, err)
	assert.True(t, IsTransient(err))

	var te *TransientError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, http.StatusTooManyRequests, te.Status)
	assert.Equal(t, 2*time.Second, te.RetryAfter)
}

func TestClientServerErrorIsTransient(t *testing.T) {
	r := chi.NewRouter()
	r.Get("/collections/{id}", func(w http.ResponseWriter, req *http.Request) {
		http.Error(w, "upstream exploded", http.StatusBadGateway)
	})

	client := testClient(t, r)
	err := client.Ping(context.Background())
	require.Error(t, err)
	assert.True(t, IsTransient(err))
}

func TestClientRejectionIsTerminal(t *testing.T) {
	r := chi.NewRouter()
	r.Delete("/requests/{id}", func(w http.ResponseWriter, req *http.Request) {
		http.Error(w, "bad key", http.StatusUnauthorized)
	})

	client := testClient(t, r)
	err := client.DeleteRequest(context.Background(), "r1")
	require.Error(t, err)
	assert.False(t, IsTransient(err))

	var ae *APIError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, http.StatusUnauthorized, ae.Status)
	assert.Equal(t, "bad key", ae.Message)
}

func TestParseRetryAfter(t *testing.T) {
	assert.Equal(t, time.Duration(0), parseRetryAfter(""))
	assert.Equal(t, 30*time.Second, parseRetryAfter("30"))
	assert.Equal(t, time.Duration(0), parseRetryAfter("garbage"))

	future := time.Now().Add(time.Minute).UTC().Format(http.TimeFormat)
	d := parseRetryAfter(future)
	assert.Greater(t, d, 50*time.Second)
}

func TestMemoryStoreRejectsNonEmptyFolderDelete(t *testing.T) {
	store := NewMemoryStore()
	folderID := store.SeedFolder("", "Invoice")
	store.SeedRequest(folderID, "GET /api/resource/invoice", "GET", "/api/resource/invoice", "")

	err := store.DeleteFolder(context.Background(), folderID)
	require.Error(t, err)

	var ae *APIError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, 409, ae.Status)
	// A rejected delete is not a mutation.
	assert.Zero(t, store.Mutations())
}

func TestMemoryStoreSeedingSkipsMutationCounter(t *testing.T) {
	store := NewMemoryStore()
	folderID := store.SeedFolder("", "Invoice")
	store.SeedRequest(folderID, "GET /api/resource/invoice", "GET", "/api/resource/invoice", "")
	assert.Zero(t, store.Mutations())

	_, err := store.CreateFolder(context.Background(), "", "Customer")
	require.NoError(t, err)
	assert.Equal(t, 1, store.Mutations())
}
