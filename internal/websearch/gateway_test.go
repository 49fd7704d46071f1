package websearch

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lexiqai/rag-agent/internal/document"
	"github.com/lexiqai/rag-agent/internal/resilience"
	"github.com/lexiqai/rag-agent/internal/websearch/duckduckgo"
)

type fakeClient struct {
	resp  *duckduckgo.Response
	err   error
	calls int
}

func (f *fakeClient) Search(context.Context, string) (*duckduckgo.Response, error) {
	f.calls++
	return f.resp, f.err
}

func topics(n int) []duckduckgo.RelatedTopic {
	out := make([]duckduckgo.RelatedTopic, n)
	for i := range out {
		out[i] = duckduckgo.RelatedTopic{
			Text:     fmt.Sprintf("Topic %d about artificial intelligence news", i),
			FirstURL: fmt.Sprintf("https://duckduckgo.com/t%d", i),
		}
	}
	return out
}

func TestSearch_ResultCountBounds(t *testing.T) {
	responses := map[string]*duckduckgo.Response{
		"empty":            {},
		"abstract only":    {Abstract: "An abstract", AbstractURL: "https://example.com"},
		"topics only":      {RelatedTopics: topics(10)},
		"abstract+topics":  {Abstract: "An abstract", RelatedTopics: topics(10)},
		"groups only":      {RelatedTopics: []duckduckgo.RelatedTopic{{Name: "Group", Topics: topics(3)}}},
		"blank topic text": {RelatedTopics: []duckduckgo.RelatedTopic{{FirstURL: "https://x"}}},
	}

	for name, resp := range responses {
		for k := 1; k <= 6; k++ {
			gw := NewGateway(&fakeClient{resp: resp}, nil)
			docs, err := gw.Search(context.Background(), "latest artificial intelligence news", k)
			require.NoError(t, err, name)
			assert.GreaterOrEqual(t, len(docs), 1, "%s k=%d", name, k)
			assert.LessOrEqual(t, len(docs), k, "%s k=%d", name, k)
			for _, d := range docs {
				assert.Equal(t, document.SourceWebSearch, d.Source)
			}
		}
	}
}

func TestSearch_QuickAnswerFirst(t *testing.T) {
	gw := NewGateway(&fakeClient{resp: &duckduckgo.Response{
		Abstract:      "Lagos is the most populous city in Nigeria.",
		AbstractURL:   "https://en.wikipedia.org/wiki/Lagos",
		RelatedTopics: topics(5),
	}}, nil)

	docs, err := gw.Search(context.Background(), "weather in Lagos Nigeria", 3)
	require.NoError(t, err)
	require.Len(t, docs, 3)

	assert.Equal(t, "Quick Answer", docs[0].Title)
	assert.Equal(t, "Lagos is the most populous city in Nigeria.", docs[0].Content)
	assert.Equal(t, "https://en.wikipedia.org/wiki/Lagos", docs[0].URL)
	assert.Equal(t, "https://duckduckgo.com/t0", docs[1].URL)
	assert.Equal(t, "https://duckduckgo.com/t1", docs[2].URL)
}

func TestSearch_TitleTruncation(t *testing.T) {
	long := strings.Repeat("a", 80)
	gw := NewGateway(&fakeClient{resp: &duckduckgo.Response{
		RelatedTopics: []duckduckgo.RelatedTopic{{Text: long, FirstURL: "u1"}, {Text: "short topic", FirstURL: "u2"}},
	}}, nil)

	docs, err := gw.Search(context.Background(), "q", 5)
	require.NoError(t, err)
	require.Len(t, docs, 2)

	assert.Equal(t, strings.Repeat("a", MaxTitleLength)+"...", docs[0].Title)
	assert.Equal(t, long, docs[0].Content)
	assert.Equal(t, "short topic", docs[1].Title)
}

func TestSearch_Fallback(t *testing.T) {
	gw := NewGateway(&fakeClient{resp: &duckduckgo.Response{}}, nil)

	docs, err := gw.Search(context.Background(), "weather in Lagos Nigeria", 3)
	require.NoError(t, err)
	require.Len(t, docs, 1)

	assert.Equal(t, "Search performed", docs[0].Title)
	assert.Equal(t, "Searched for 'weather in Lagos Nigeria' - check web manually for latest info", docs[0].Content)
	assert.Equal(t, "https://duckduckgo.com/?q=weather+in+Lagos+Nigeria", docs[0].URL)
}

func TestSearch_NonPositiveMaxResults(t *testing.T) {
	gw := NewGateway(&fakeClient{resp: &duckduckgo.Response{RelatedTopics: topics(3)}}, nil)

	docs, err := gw.Search(context.Background(), "q", 0)
	require.NoError(t, err)
	assert.Len(t, docs, 1)
}

func TestSearch_Error(t *testing.T) {
	fake := &fakeClient{err: errors.New("i/o timeout")}
	gw := NewGateway(fake, nil)

	docs, err := gw.Search(context.Background(), "q", 3)
	assert.Nil(t, docs)

	var searchErr *SearchError
	require.True(t, errors.As(err, &searchErr))
	assert.Equal(t, "q", searchErr.Query)
	assert.Equal(t, 1, fake.calls)
}

func TestSearch_BreakerOpen(t *testing.T) {
	fake := &fakeClient{err: errors.New("connection refused")}
	gw := NewGateway(fake, resilience.NewCircuitBreaker("web_search", 1, time.Minute))

	_, _ = gw.Search(context.Background(), "q", 3)
	_, err := gw.Search(context.Background(), "q", 3)

	assert.True(t, errors.Is(err, resilience.ErrCircuitOpen))
	assert.Equal(t, 1, fake.calls)
}

// cancellingClient simulates a caller that goes away while the request is in flight
type cancellingClient struct {
	cancel context.CancelFunc
	calls  int
}

func (c *cancellingClient) Search(ctx context.Context, _ string) (*duckduckgo.Response, error) {
	c.calls++
	c.cancel()
	return nil, ctx.Err()
}

func TestSearch_CallerCancellationDoesNotTripBreaker(t *testing.T) {
	breaker := resilience.NewCircuitBreaker("web_search", 5, 30*time.Second)

	for i := 0; i < 5; i++ {
		ctx, cancel := context.WithCancel(context.Background())
		client := &cancellingClient{cancel: cancel}
		_, err := NewGateway(client, breaker).Search(ctx, "abandoned", 3)
		require.Error(t, err)
		assert.True(t, errors.Is(err, context.Canceled))
		assert.Equal(t, 1, client.calls)
	}

	cancelled, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewGateway(&fakeClient{resp: &duckduckgo.Response{}}, breaker).Search(cancelled, "already gone", 3)
	assert.True(t, errors.Is(err, context.Canceled))

	healthy := &fakeClient{resp: &duckduckgo.Response{Abstract: "Sunny"}}
	docs, err := NewGateway(healthy, breaker).Search(context.Background(), "healthy caller", 3)
	require.NoError(t, err)
	assert.Equal(t, 1, healthy.calls)
	assert.Equal(t, "Sunny", docs[0].Content)
	assert.Equal(t, resilience.StateClosed, breaker.GetState())
}

func TestSearch_BlankQueryFallsBack(t *testing.T) {
	fake := &fakeClient{err: errors.New("query cannot be empty")}
	breaker := resilience.NewCircuitBreaker("web_search", 1, time.Minute)

	docs, err := NewGateway(fake, breaker).Search(context.Background(), "   ", 3)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "Search performed", docs[0].Title)
	assert.Zero(t, fake.calls)
	assert.Equal(t, resilience.StateClosed, breaker.GetState())
}
