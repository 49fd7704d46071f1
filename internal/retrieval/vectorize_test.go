package retrieval

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lexiqai/rag-agent/internal/config"
	"github.com/lexiqai/rag-agent/internal/document"
	"github.com/lexiqai/rag-agent/internal/resilience"
	"github.com/lexiqai/rag-agent/internal/vectorize"
)

type fakeRetriever struct {
	docs  []vectorize.Document
	err   error
	calls int
	last  int
}

func (f *fakeRetriever) RetrieveDocuments(_ context.Context, _ string, numResults int) ([]vectorize.Document, error) {
	f.calls++
	f.last = numResults
	return f.docs, f.err
}

func score(v float64) *float64 { return &v }

func TestVectorizeGateway_Normalizes(t *testing.T) {
	fake := &fakeRetriever{docs: []vectorize.Document{
		{Text: "first", Relevancy: score(0.9)},
		{Text: "second", Similarity: score(0.4)},
		{Text: "third"},
	}}
	gw := NewVectorizeGateway(fake, nil)

	docs, err := gw.Retrieve(context.Background(), "What is RAG?", 5)
	require.NoError(t, err)
	require.Len(t, docs, 3)

	assert.Equal(t, 5, fake.last)
	assert.Equal(t, "first", docs[0].Content)
	assert.Equal(t, document.SourceKnowledgeBase, docs[0].Source)
	assert.InDelta(t, 0.9, *docs[0].Score, 1e-9)
	assert.InDelta(t, 0.4, *docs[1].Score, 1e-9)
	assert.Nil(t, docs[2].Score)
}

func TestVectorizeGateway_TruncatesToCount(t *testing.T) {
	fake := &fakeRetriever{docs: []vectorize.Document{{Text: "a"}, {Text: "b"}, {Text: "c"}}}
	gw := NewVectorizeGateway(fake, nil)

	docs, err := gw.Retrieve(context.Background(), "q", 2)
	require.NoError(t, err)
	assert.Len(t, docs, 2)
}

func TestVectorizeGateway_RejectsZeroCount(t *testing.T) {
	fake := &fakeRetriever{}
	gw := NewVectorizeGateway(fake, nil)

	_, err := gw.Retrieve(context.Background(), "q", 0)
	var retrievalErr *RetrievalError
	assert.True(t, errors.As(err, &retrievalErr))
	assert.Equal(t, 0, fake.calls)
}

func TestVectorizeGateway_WrapsBackendError(t *testing.T) {
	backendErr := errors.New("connection refused")
	fake := &fakeRetriever{err: backendErr}
	gw := NewVectorizeGateway(fake, nil)

	_, err := gw.Retrieve(context.Background(), "q", 3)

	var retrievalErr *RetrievalError
	require.True(t, errors.As(err, &retrievalErr))
	assert.Equal(t, "q", retrievalErr.Query)
	assert.True(t, errors.Is(err, backendErr))
	assert.Equal(t, 1, fake.calls, "backend must be called exactly once")
}

func TestVectorizeGateway_OpenBreakerFailsFast(t *testing.T) {
	fake := &fakeRetriever{err: errors.New("boom")}
	breaker := resilience.NewCircuitBreaker("knowledge_base", 1, time.Minute)
	gw := NewVectorizeGateway(fake, breaker)

	_, err := gw.Retrieve(context.Background(), "q", 3)
	require.Error(t, err)

	_, err = gw.Retrieve(context.Background(), "q", 3)
	assert.True(t, errors.Is(err, resilience.ErrCircuitOpen))
	assert.Equal(t, 1, fake.calls)
}

func TestUnavailable(t *testing.T) {
	var gw Gateway = Unavailable{Reason: errors.New("missing token")}

	assert.False(t, gw.Available())
	_, err := gw.Retrieve(context.Background(), "What is RAG?", 5)
	assert.True(t, errors.Is(err, ErrUnavailable))
}

func TestNew_SelectsBySource(t *testing.T) {
	creds := config.Config{
		VectorizeAPIURL:              "http://localhost",
		VectorizeOrganizationID:      "o",
		VectorizePipelineAccessToken: "t",
		VectorizePipelineID:          "p",
	}

	none := creds
	none.RAGSource = config.RAGSourceNone
	assert.False(t, New(&none, nil).Available())

	auto := creds
	auto.RAGSource = config.RAGSourceAuto
	assert.True(t, New(&auto, nil).Available())

	missing := config.Config{RAGSource: config.RAGSourceVectorize}
	assert.False(t, New(&missing, nil).Available())
}

type deadlineRetriever struct {
	calls int
}

func (d *deadlineRetriever) RetrieveDocuments(ctx context.Context, _ string, _ int) ([]vectorize.Document, error) {
	d.calls++
	<-ctx.Done()
	return nil, ctx.Err()
}

func TestVectorizeGateway_CallerDeadlineDoesNotTripBreaker(t *testing.T) {
	slow := &deadlineRetriever{}
	breaker := resilience.NewCircuitBreaker("knowledge_base", 1, time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err := NewVectorizeGateway(slow, breaker).Retrieve(ctx, "q", 3)

	var retrievalErr *RetrievalError
	require.True(t, errors.As(err, &retrievalErr))
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
	assert.Equal(t, resilience.StateClosed, breaker.GetState())

	fake := &fakeRetriever{docs: []vectorize.Document{{Text: "still reachable"}}}
	docs, err := NewVectorizeGateway(fake, breaker).Retrieve(context.Background(), "q", 3)
	require.NoError(t, err)
	assert.Len(t, docs, 1)
	assert.Equal(t, 1, fake.calls)
}
