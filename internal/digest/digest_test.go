package digest

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"insightdash/internal/domain"
	"insightdash/internal/insights"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

// The genai client links opencensus, whose init starts a process-wide worker.
var ignoreOpenCensus = goleak.IgnoreTopFunction("go.opencensus.io/stats/view.(*worker).start")

type fakeGenerator struct {
	mu    sync.Mutex
	calls []string
}

func (g *fakeGenerator) GenerateFor(ctx context.Context, ds domain.Dataset, title, view string, surface insights.Surface) insights.Result {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls = append(g.calls, title+"|"+view+"|"+string(surface))
	return insights.Result{RunID: "run-1", Title: title, Text: "Sentiment is improving."}
}

type fakePoster struct {
	err    error
	posted chan string
}

func (p *fakePoster) PostInsights(ctx context.Context, channelID string, res insights.Result) error {
	if p.posted != nil {
		p.posted <- channelID + ":" + res.Display()
	}
	return p.err
}

func TestNewValidates(t *testing.T) {
	gen := &fakeGenerator{}
	poster := &fakePoster{}

	_, err := New("", "Main", "C1", gen, poster, time.UTC, nil)
	assert.Error(t, err)
	_, err = New("not a cron", "Main", "C1", gen, poster, time.UTC, nil)
	assert.ErrorContains(t, err, "invalid digest schedule")
	_, err = New("0 9 * * *", "Revenue", "C1", gen, poster, time.UTC, nil)
	assert.Error(t, err)
	_, err = New("0 9 * * *", "Main", "", gen, poster, time.UTC, nil)
	assert.Error(t, err)

	s, err := New(" 0 9 * * 1-5 ", "churn-prediction", "C1", gen, poster, time.UTC, nil)
	require.NoError(t, err)
	assert.Equal(t, "Churn Prediction", s.view.String())
}

func TestNextUsesLocation(t *testing.T) {
	loc := time.FixedZone("UTC+2", 2*60*60)
	s, err := New("0 9 * * *", "Main", "C1", &fakeGenerator{}, &fakePoster{}, loc, nil)
	require.NoError(t, err)

	// 08:00 local on a Friday.
	now := time.Date(2025, 1, 17, 6, 0, 0, 0, time.UTC)
	next := s.Next(now)
	assert.True(t, next.Equal(time.Date(2025, 1, 17, 7, 0, 0, 0, time.UTC)), "got %s", next)
}

func TestRunOncePostsNarrative(t *testing.T) {
	gen := &fakeGenerator{}
	poster := &fakePoster{posted: make(chan string, 1)}
	s, err := New("0 9 * * *", "Main", "C1", gen, poster, time.UTC, nil)
	require.NoError(t, err)

	require.NoError(t, s.RunOnce(context.Background()))
	assert.Equal(t, []string{"Main Dashboard|Main|digest"}, gen.calls)
	assert.Equal(t, "C1:Sentiment is improving.", <-poster.posted)
}

func TestRunOncePostError(t *testing.T) {
	s, err := New("0 9 * * *", "Main", "C1", &fakeGenerator{}, &fakePoster{err: errors.New("channel_not_found")}, time.UTC, nil)
	require.NoError(t, err)

	err = s.RunOnce(context.Background())
	assert.ErrorContains(t, err, "channel_not_found")
}

func TestRunFiresOnScheduleUntilCanceled(t *testing.T) {
	defer goleak.VerifyNone(t, ignoreOpenCensus)

	gen := &fakeGenerator{}
	poster := &fakePoster{posted: make(chan string, 4), err: errors.New("transient")}
	s, err := New("30 9 * * *", "Call Metrics", "C9", gen, poster, time.UTC, nil)
	require.NoError(t, err)

	s.now = func() time.Time { return time.Date(2025, 1, 17, 9, 0, 0, 0, time.UTC) }
	waits := make(chan time.Duration, 4)
	ticks := make(chan struct{})
	s.wait = func(ctx context.Context, d time.Duration) error {
		waits <- d
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticks:
			return nil
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	assert.Equal(t, 30*time.Minute, <-waits)
	ticks <- struct{}{}
	assert.Equal(t, "C9:Sentiment is improving.", <-poster.posted)

	// A failed post does not stop the loop.
	assert.Equal(t, 30*time.Minute, <-waits)
	ticks <- struct{}{}
	<-poster.posted
	<-waits

	cancel()
	require.NoError(t, <-done)
	assert.Len(t, gen.calls, 2)
	assert.Equal(t, "Call Metrics Dashboard|Call Metrics|digest", gen.calls[0])
}

func TestSleepContext(t *testing.T) {
	defer goleak.VerifyNone(t, ignoreOpenCensus)

	require.NoError(t, sleepContext(context.Background(), time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, sleepContext(ctx, time.Hour), context.Canceled)
}
