package app

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"insightdash/internal/config"
	"insightdash/internal/storage/sqlite"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := newRootCmd(&out)
	root.SetArgs(args)
	root.SetErr(io.Discard)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	for _, key := range []string{
		"CONFIG_PATH", "LLM_PROVIDER", "LLM_MODEL", "OPENAI_API_KEY", "OPENAI_BASE_URL",
		"ANTHROPIC_API_KEY", "GEMINI_API_KEY", "COMPANY_NAME", "EXTERNAL_HTTP_TIMEOUT_SECONDS",
		"DB_PATH", "SLACK_BOT_TOKEN", "SLACK_APP_TOKEN", "DIGEST_SCHEDULE", "TIMEZONE",
	} {
		t.Setenv(key, "")
	}
	// LoadConfig reads DB_PATH with LookupEnv, so an inherited value must be removed.
	require.NoError(t, os.Unsetenv("DB_PATH"))
	return path
}

func TestViewsListsEveryView(t *testing.T) {
	out, err := runCLI(t, "views")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 8)
	assert.Contains(t, lines[0], "SLUG")
	assert.Contains(t, lines[1], "main")
	assert.Contains(t, lines[1], "sentiment, churn, follow-up, call-metrics, issue-types, duration-by-issue")
	assert.Regexp(t, `^churn-prediction\s+Churn Prediction\s+churn$`, lines[3])
}

func TestRenderWritesOneFilePerChart(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "charts")

	out, err := runCLI(t, "render", "--view", "Call Metrics", "--format", "svg", "--out", dir)
	require.NoError(t, err)

	path := filepath.Join(dir, "call-metrics.svg")
	assert.Equal(t, path, strings.TrimSpace(out))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "<svg")

	out, err = runCLI(t, "render", "--out", dir, "--width", "800", "--height", "500")
	require.NoError(t, err)
	assert.Len(t, strings.Split(strings.TrimSpace(out), "\n"), 6)
	data, err = os.ReadFile(filepath.Join(dir, "sentiment.png"))
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("\x89PNG")))
}

func TestRenderRejectsBadInput(t *testing.T) {
	_, err := runCLI(t, "render", "--view", "revenue", "--out", t.TempDir())
	assert.ErrorContains(t, err, "revenue")

	_, err = runCLI(t, "render", "--format", "gif", "--out", t.TempDir())
	assert.ErrorContains(t, err, "unsupported image format")
}

func TestInsightsPrintsNarrativeAndRecordsRun(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"choices":[{"message":{"content":"Churn risk is concentrated in billing issues."}}],"usage":{"prompt_tokens":40,"completion_tokens":8}}`)
	}))
	defer server.Close()

	dbPath := filepath.Join(t.TempDir(), "runs.db")
	cfgPath := writeConfig(t, "llm_provider: openai\n"+
		"llm_model: gpt-4\n"+
		"openai_api_key: sk-test\n"+
		"openai_base_url: "+server.URL+"/v1\n"+
		"db_path: "+dbPath+"\n"+
		"timezone: UTC\n")

	out, err := runCLI(t, "--config", cfgPath, "insights", "--view", "churn-prediction")
	require.NoError(t, err)
	assert.Equal(t, "Churn risk is concentrated in billing issues.\n", out)
	assert.EqualValues(t, 1, calls.Load())

	store, err := sqlite.Open(dbPath)
	require.NoError(t, err)
	defer store.Close()
	runs, err := store.ListRecentInsightRuns(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "Churn Prediction", runs[0].View)
	assert.Equal(t, "Churn Prediction Dashboard", runs[0].Title)
	assert.Equal(t, "cli", runs[0].Surface)
	assert.Equal(t, "ok", runs[0].Outcome)
	assert.EqualValues(t, 48, runs[0].InputTokens+runs[0].OutputTokens)
}

func TestInsightsFailurePrintsMessage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = io.WriteString(w, `{"error":{"message":"Incorrect API key provided"}}`)
	}))
	defer server.Close()

	cfgPath := writeConfig(t, "openai_api_key: sk-bad\n"+
		"openai_base_url: "+server.URL+"/v1\n"+
		"db_path: \"\"\n"+
		"timezone: UTC\n")

	out, err := runCLI(t, "--config", cfgPath, "insights")
	assert.ErrorContains(t, err, "(auth)")
	assert.True(t, strings.HasPrefix(out, "An error occurred while generating insights: "), out)
	assert.Contains(t, out, "Incorrect API key provided")
}

func TestInsightsRequiresValidConfig(t *testing.T) {
	cfgPath := writeConfig(t, "llm_provider: gemini\ntimezone: UTC\n")
	_, err := runCLI(t, "--config", cfgPath, "insights")
	assert.ErrorContains(t, err, "gemini_api_key is required")
}

func TestServeStopsWhenContextIsCanceled(t *testing.T) {
	empty := ""
	cfg := config.Config{
		LLMProvider:                config.ProviderOpenAI,
		OpenAIAPIKey:               "sk-test",
		CompanyName:                "TADA",
		DashboardTitle:             "Customer Insights Dashboard",
		HTTPAddr:                   "127.0.0.1:0",
		ExternalHTTPTimeoutSeconds: 30,
		DBPath:                     &empty,
		Location:                   time.UTC,
	}
	c := &cli{out: io.Discard, logger: zap.NewNop()}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.serve(ctx, cfg) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("serve did not stop after cancel")
	}
}
