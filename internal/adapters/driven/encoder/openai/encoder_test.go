package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return server
}

func TestNew_RequiresAPIKey(t *testing.T) {
	_, err := New(Config{})
	assert.ErrorContains(t, err, "API key is required")
}

func TestNew_KnownModelDimensions(t *testing.T) {
	enc, err := New(Config{APIKey: "sk-test", Model: "text-embedding-3-large"})
	require.NoError(t, err)
	assert.Equal(t, 3072, enc.Dimensions())

	enc, err = New(Config{APIKey: "sk-test", Model: "custom-model"})
	require.NoError(t, err)
	assert.Equal(t, 1536, enc.Dimensions())
}

func TestEncoder_EmbedBatch(t *testing.T) {
	var gotAuth string
	var gotReq embeddingRequest
	server := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/embeddings", r.URL.Path)
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))

		resp := embeddingResponse{}
		// Out of order on purpose; Index restores input order.
		resp.Data = []struct {
			Embedding []float64 `json:"embedding"`
			Index     int       `json:"index"`
		}{
			{Embedding: []float64{0, 1}, Index: 1},
			{Embedding: []float64{1, 0}, Index: 0},
		}
		json.NewEncoder(w).Encode(resp) //nolint:errcheck
	})

	enc, err := New(Config{APIKey: "sk-test", BaseURL: server.URL, Dimensions: 2})
	require.NoError(t, err)

	vectors, err := enc.EmbedBatch(context.Background(), []string{"النص الأول", "النص الثاني"})
	require.NoError(t, err)

	assert.Equal(t, "Bearer sk-test", gotAuth)
	assert.Equal(t, []string{"النص الأول", "النص الثاني"}, gotReq.Input)
	require.Len(t, vectors, 2)
	assert.Equal(t, []float32{1, 0}, vectors[0])
	assert.Equal(t, []float32{0, 1}, vectors[1])
}

func TestEncoder_EmbedBatch_Empty(t *testing.T) {
	enc, err := New(Config{APIKey: "sk-test"})
	require.NoError(t, err)

	vectors, err := enc.EmbedBatch(context.Background(), nil)
	require.NoError(t, err)
	assert.Nil(t, vectors)
}

func TestEncoder_EmbedBatch_APIError(t *testing.T) {
	server := newTestServer(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":{"message":"Incorrect API key provided","type":"invalid_request_error"}}`)) //nolint:errcheck
	})

	enc, err := New(Config{APIKey: "sk-bad", BaseURL: server.URL})
	require.NoError(t, err)

	_, err = enc.EmbedBatch(context.Background(), []string{"نص"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid_request_error")
	assert.Contains(t, err.Error(), "Incorrect API key")
}

func TestEncoder_EmbedBatch_CountMismatch(t *testing.T) {
	server := newTestServer(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"data":[{"embedding":[1,0],"index":0}]}`)) //nolint:errcheck
	})

	enc, err := New(Config{APIKey: "sk-test", BaseURL: server.URL})
	require.NoError(t, err)

	_, err = enc.EmbedBatch(context.Background(), []string{"أ", "ب"})
	assert.ErrorContains(t, err, "1 embeddings for 2 inputs")
}

func TestEncoder_Embed(t *testing.T) {
	server := newTestServer(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"data":[{"embedding":[0.5,0.5],"index":0}]}`)) //nolint:errcheck
	})

	enc, err := New(Config{APIKey: "sk-test", BaseURL: server.URL, Dimensions: 2})
	require.NoError(t, err)

	vector, err := enc.Embed(context.Background(), "نص")
	require.NoError(t, err)
	assert.Equal(t, []float32{0.5, 0.5}, vector)
}

func TestEncoder_Ping(t *testing.T) {
	server := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/models", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		w.Write([]byte(`{"data":[]}`)) //nolint:errcheck
	})

	enc, err := New(Config{APIKey: "sk-test", BaseURL: server.URL})
	require.NoError(t, err)
	assert.NoError(t, enc.Ping(context.Background()))
}
