package vectorize

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lexiqai/rag-agent/internal/config"
	"github.com/lexiqai/rag-agent/internal/resilience"
)

func testConfig(apiURL string) *config.Config {
	return &config.Config{
		VectorizeAPIURL:              apiURL,
		VectorizeOrganizationID:      "org-1",
		VectorizePipelineAccessToken: "token-1",
		VectorizePipelineID:          "pipe-1",
	}
}

func TestNewClient_RequiresCredentials(t *testing.T) {
	_, err := NewClient(&config.Config{}, nil)
	assert.True(t, errors.Is(err, ErrNotConfigured))
}

func TestRetrieveDocuments(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/org/org-1/pipelines/pipe-1/retrieval", r.URL.Path)
		assert.Equal(t, "Bearer token-1", r.Header.Get("Authorization"))

		var req RetrievalRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "What is RAG?", req.Question)
		assert.Equal(t, 3, req.NumResults)

		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"documents":[{"id":"a","text":"RAG is retrieval augmented generation","relevancy":0.91},{"id":"b","text":"second","similarity":0.5}]}`)
	}))
	defer srv.Close()

	client, err := NewClient(testConfig(srv.URL+"/v1/"), srv.Client())
	require.NoError(t, err)

	docs, err := client.RetrieveDocuments(context.Background(), "What is RAG?", 3)
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "RAG is retrieval augmented generation", docs[0].Text)
	assert.InDelta(t, 0.91, *docs[0].BestScore(), 1e-9)
	assert.InDelta(t, 0.5, *docs[1].BestScore(), 1e-9)
}

func TestRetrieveDocuments_StatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "invalid token", http.StatusUnauthorized)
	}))
	defer srv.Close()

	client, err := NewClient(testConfig(srv.URL), srv.Client())
	require.NoError(t, err)

	_, err = client.RetrieveDocuments(context.Background(), "q", 5)
	var statusErr *resilience.StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusUnauthorized, statusErr.StatusCode)
}

func TestRetrieveDocuments_NoPipeline(t *testing.T) {
	cfg := testConfig("http://unused")
	cfg.VectorizePipelineID = ""
	client, err := NewClient(cfg, nil)
	require.NoError(t, err)

	assert.False(t, client.HasPipeline())
	_, err = client.RetrieveDocuments(context.Background(), "q", 5)
	assert.Error(t, err)
}

func TestStartFileUploadAndPut(t *testing.T) {
	var putBody []byte
	var putType string
	var putLength int64

	mux := http.NewServeMux()
	srv := httptest.NewServer(mux)
	defer srv.Close()

	mux.HandleFunc("/org/org-1/files", func(w http.ResponseWriter, r *http.Request) {
		var req StartFileUploadRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "notes.md", req.Name)
		assert.Equal(t, "text/markdown", req.ContentType)
		json.NewEncoder(w).Encode(StartFileUploadResponse{UploadURL: srv.URL + "/upload/abc", FileID: "abc"})
	})
	mux.HandleFunc("/upload/abc", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		putType = r.Header.Get("Content-Type")
		putLength = r.ContentLength
		putBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	})

	client, err := NewClient(testConfig(srv.URL), srv.Client())
	require.NoError(t, err)

	ctx := context.Background()
	started, err := client.StartFileUpload(ctx, "notes.md", "text/markdown")
	require.NoError(t, err)
	assert.Equal(t, "abc", started.FileID)

	require.NoError(t, client.PutFile(ctx, started.UploadURL, "text/markdown", []byte("# hello")))
	assert.Equal(t, "# hello", string(putBody))
	assert.Equal(t, "text/markdown", putType)
	assert.Equal(t, int64(7), putLength)
}

func TestPutFile_Failure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	client, err := NewClient(testConfig(srv.URL), srv.Client())
	require.NoError(t, err)

	err = client.PutFile(context.Background(), srv.URL+"/x", "text/plain", []byte("x"))
	var statusErr *resilience.StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusForbidden, statusErr.StatusCode)
}
