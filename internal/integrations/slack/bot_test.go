package slackbot

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"insightdash/internal/domain"
	"insightdash/internal/insights"

	"github.com/slack-go/slack"
	"github.com/tidwall/gjson"
)

type postedMessage struct {
	Channel string
	User    string
	Text    string
	Blocks  string
}

type upload struct {
	Channel  string
	Filename string
	Title    string
	Data     []byte
}

type fakeAPI struct {
	t         *testing.T
	mu        sync.Mutex
	messages  []postedMessage
	ephemeral []postedMessage
	uploads   []upload
	uploadErr error
}

func decodeOptions(t *testing.T, channel string, options ...slack.MsgOption) postedMessage {
	t.Helper()
	_, values, err := slack.UnsafeApplyMsgOptions("", channel, "", options...)
	if err != nil {
		t.Fatalf("apply msg options: %v", err)
	}
	return postedMessage{Channel: channel, Text: values.Get("text"), Blocks: values.Get("blocks")}
}

func (f *fakeAPI) PostMessageContext(ctx context.Context, channelID string, options ...slack.MsgOption) (string, string, error) {
	msg := decodeOptions(f.t, channelID, options...)
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messages = append(f.messages, msg)
	return channelID, "1700000000.000100", nil
}

func (f *fakeAPI) PostEphemeralContext(ctx context.Context, channelID, userID string, options ...slack.MsgOption) (string, error) {
	msg := decodeOptions(f.t, channelID, options...)
	msg.User = userID
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ephemeral = append(f.ephemeral, msg)
	return "1700000000.000200", nil
}

func (f *fakeAPI) UploadFileV2Context(ctx context.Context, params slack.UploadFileV2Parameters) (*slack.FileSummary, error) {
	if f.uploadErr != nil {
		return nil, f.uploadErr
	}
	data, err := io.ReadAll(params.Reader)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.uploads = append(f.uploads, upload{Channel: params.Channel, Filename: params.Filename, Title: params.Title, Data: data})
	return &slack.FileSummary{ID: "F1", Title: params.Title}, nil
}

type fakeGenerator struct {
	calls  []string
	result insights.Result
}

func (g *fakeGenerator) GenerateFor(ctx context.Context, ds domain.Dataset, title, view string, surface insights.Surface) insights.Result {
	g.calls = append(g.calls, title+"|"+view+"|"+string(surface))
	res := g.result
	res.Title = title
	return res
}

type fakeStats struct {
	stats domain.InsightStats
	err   error
	since []time.Time
}

func (s *fakeStats) GetInsightStats(ctx context.Context, since time.Time) (domain.InsightStats, error) {
	s.since = append(s.since, since)
	return s.stats, s.err
}

func newTestBot(t *testing.T, gen Generator, stats StatsReader) (*Bot, *fakeAPI) {
	t.Helper()
	api := &fakeAPI{t: t}
	return NewBot(api, gen, stats, "", time.UTC, nil), api
}

func TestDashboardCommandPostsPickerAndCharts(t *testing.T) {
	bot, api := newTestBot(t, &fakeGenerator{}, nil)

	bot.HandleSlashCommand(context.Background(), slack.SlashCommand{Command: "/dashboard", ChannelID: "C1", UserID: "U1"})

	if len(api.messages) != 1 {
		t.Fatalf("expected 1 message, got %d", len(api.messages))
	}
	blocks := api.messages[0].Blocks
	if got := gjson.Get(blocks, "0.text.text").String(); got != "Customer Insights Dashboard" {
		t.Fatalf("unexpected header %q", got)
	}
	if got := gjson.Get(blocks, "1.accessory.action_id").String(); got != actionSelectView {
		t.Fatalf("expected view picker, got %q", got)
	}
	if got := gjson.Get(blocks, "1.accessory.options.#").Int(); got != 7 {
		t.Fatalf("expected 7 options, got %d", got)
	}
	if got := gjson.Get(blocks, "1.accessory.initial_option.value").String(); got != "main" {
		t.Fatalf("expected main selected, got %q", got)
	}
	if got := gjson.Get(blocks, "2.elements.0.value").String(); got != "main" {
		t.Fatalf("expected Ask AI button for main, got %q", got)
	}

	if len(api.uploads) != 6 {
		t.Fatalf("expected 6 chart uploads, got %d", len(api.uploads))
	}
	if api.uploads[0].Filename != "sentiment.png" || api.uploads[0].Channel != "C1" {
		t.Fatalf("unexpected first upload: %+v", api.uploads[0])
	}
	for _, u := range api.uploads {
		if !strings.HasPrefix(string(u.Data), "\x89PNG") {
			t.Fatalf("upload %s is not a PNG", u.Filename)
		}
	}
}

func TestDashboardCommandWithView(t *testing.T) {
	bot, api := newTestBot(t, &fakeGenerator{}, nil)

	bot.HandleSlashCommand(context.Background(), slack.SlashCommand{Command: "/dashboard", Text: "Call Metrics", ChannelID: "C1", UserID: "U1"})
	if len(api.uploads) != 1 || api.uploads[0].Filename != "call-metrics.png" || api.uploads[0].Title != "Call Metrics" {
		t.Fatalf("unexpected uploads: %+v", api.uploads)
	}

	bot.HandleSlashCommand(context.Background(), slack.SlashCommand{Command: "/dashboard", Text: "revenue", ChannelID: "C1", UserID: "U1"})
	if len(api.ephemeral) != 1 || !strings.Contains(api.ephemeral[0].Text, `Unknown view "revenue"`) {
		t.Fatalf("expected unknown view reply, got %+v", api.ephemeral)
	}
	if api.ephemeral[0].User != "U1" {
		t.Fatalf("expected ephemeral to U1, got %q", api.ephemeral[0].User)
	}
}

func TestDashboardUploadErrorIsReported(t *testing.T) {
	bot, api := newTestBot(t, &fakeGenerator{}, nil)
	api.uploadErr = errors.New("missing_scope")

	bot.HandleSlashCommand(context.Background(), slack.SlashCommand{Command: "/dashboard", Text: "churn-prediction", ChannelID: "C1", UserID: "U1"})
	if len(api.ephemeral) != 1 || !strings.Contains(api.ephemeral[0].Text, "missing_scope") {
		t.Fatalf("expected upload error reply, got %+v", api.ephemeral)
	}
}

func blockAction(actionID, value, selected string) slack.InteractionCallback {
	cb := slack.InteractionCallback{Type: slack.InteractionTypeBlockActions}
	cb.User.ID = "U1"
	cb.Container.ChannelID = "C1"
	act := &slack.BlockAction{ActionID: actionID, Value: value}
	act.SelectedOption.Value = selected
	cb.ActionCallback.BlockActions = []*slack.BlockAction{act}
	return cb
}

func TestAskAIPostsNarrative(t *testing.T) {
	gen := &fakeGenerator{result: insights.Result{Text: "Insights: churn risk rising"}}
	bot, api := newTestBot(t, gen, nil)

	bot.HandleInteraction(context.Background(), blockAction(actionAskAI, "churn-prediction", ""))

	if len(gen.calls) != 1 || gen.calls[0] != "Churn Prediction Dashboard|Churn Prediction|slack" {
		t.Fatalf("unexpected generator calls: %v", gen.calls)
	}
	if len(api.messages) != 1 {
		t.Fatalf("expected 1 message, got %d", len(api.messages))
	}
	msg := api.messages[0]
	if msg.Channel != "C1" || msg.Text != "Insights: churn risk rising" {
		t.Fatalf("unexpected message: %+v", msg)
	}
	if got := gjson.Get(msg.Blocks, "0.text.text").String(); got != "AI Insights" {
		t.Fatalf("expected AI Insights header, got %q", got)
	}
	if got := gjson.Get(msg.Blocks, "2.text.text").String(); got != "Insights: churn risk rising" {
		t.Fatalf("expected narrative section, got %q", got)
	}
}

func TestAskAIPostsFailure(t *testing.T) {
	gen := &fakeGenerator{result: insights.Result{Failure: &insights.Failure{Category: insights.CategoryAuth, Detail: "bad key"}}}
	bot, api := newTestBot(t, gen, nil)

	bot.HandleInteraction(context.Background(), blockAction(actionAskAI, "main", ""))

	msg := api.messages[0]
	if msg.Text != "An error occurred while generating insights: bad key" {
		t.Fatalf("unexpected failure text %q", msg.Text)
	}
	if !strings.Contains(msg.Blocks, "generation failed (auth)") {
		t.Fatalf("expected failure marker in blocks: %s", msg.Blocks)
	}
}

func TestSelectViewReposts(t *testing.T) {
	bot, api := newTestBot(t, &fakeGenerator{}, nil)

	bot.HandleInteraction(context.Background(), blockAction(actionSelectView, "", "issue-types-breakdown"))
	if len(api.uploads) != 1 || api.uploads[0].Filename != "issue-types.png" {
		t.Fatalf("unexpected uploads: %+v", api.uploads)
	}

	bot.HandleInteraction(context.Background(), blockAction(actionSelectView, "", "gone"))
	if len(api.ephemeral) != 1 {
		t.Fatalf("expected a reply for an unknown view, got %+v", api.ephemeral)
	}
}

func TestInsightsStats(t *testing.T) {
	bot, api := newTestBot(t, &fakeGenerator{}, nil)
	bot.HandleSlashCommand(context.Background(), slack.SlashCommand{Command: "/insights-stats", ChannelID: "C1", UserID: "U1"})
	if !strings.Contains(api.ephemeral[0].Text, "disabled") {
		t.Fatalf("expected disabled reply, got %q", api.ephemeral[0].Text)
	}

	stats := &fakeStats{stats: domain.InsightStats{
		TotalRuns: 4, SuccessfulRuns: 3, FailedRuns: 1, TotalTokens: 12345, AvgDurationMS: 2500,
		ByProvider:      map[string]int{"openai": 3, "gemini": 1},
		ByOutcome:       map[string]int{"ok": 3, "rate_limit": 1},
		LastGeneratedAt: time.Date(2025, 1, 10, 9, 30, 0, 0, time.UTC),
	}}
	bot, api = newTestBot(t, &fakeGenerator{}, stats)
	now := time.Date(2025, 1, 17, 12, 0, 0, 0, time.UTC)
	bot.now = func() time.Time { return now }

	bot.HandleSlashCommand(context.Background(), slack.SlashCommand{Command: "/insights-stats", ChannelID: "C1", UserID: "U1"})
	text := api.ephemeral[0].Text
	for _, want := range []string{
		"All time: 4 runs (3 ok, 1 failed), 12.3k tokens, avg 2.5s",
		"By provider: openai=3, gemini=1",
		"By outcome: ok=3, rate_limit=1",
		"Last run: 2025-01-10 09:30 UTC",
	} {
		if !strings.Contains(text, want) {
			t.Fatalf("expected %q in:\n%s", want, text)
		}
	}
	if len(stats.since) != 2 || !stats.since[0].IsZero() || !stats.since[1].Equal(now.AddDate(0, 0, -7)) {
		t.Fatalf("unexpected stats windows: %v", stats.since)
	}
}

func TestChunkText(t *testing.T) {
	if got := chunkText("short", 10); len(got) != 1 || got[0] != "short" {
		t.Fatalf("unexpected chunks: %q", got)
	}
	got := chunkText("line one\nline two\nline three", 12)
	want := []string{"line one\n", "line two\n", "line three"}
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Fatalf("expected %q, got %q", want, got)
	}
	long := strings.Repeat("é", 25)
	parts := chunkText(long, 10)
	if len(parts) != 3 || strings.Join(parts, "") != long {
		t.Fatalf("unexpected rune chunks: %q", parts)
	}
}

func TestFormatTokenCount(t *testing.T) {
	cases := map[int64]string{0: "0", 999: "999", 1000: "1k", 1250: "1.3k", 12345: "12.3k"}
	for in, want := range cases {
		if got := formatTokenCount(in); got != want {
			t.Fatalf("formatTokenCount(%d) = %q, want %q", in, got, want)
		}
	}
}
