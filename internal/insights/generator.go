package insights

import (
	"context"
	"time"

	"insightdash/internal/domain"
	"insightdash/internal/integrations/llm"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Surface names where a generation was requested from.
type Surface string

const (
	SurfaceWeb    Surface = "web"
	SurfaceAPI    Surface = "api"
	SurfaceSlack  Surface = "slack"
	SurfaceDigest Surface = "digest"
	SurfaceCLI    Surface = "cli"
)

// Recorder stores the audit row of a finished generation. History is never
// read back to answer a request.
type Recorder interface {
	InsertInsightRun(ctx context.Context, run domain.InsightRun) error
}

type Generator struct {
	completer   llm.Completer
	companyName string
	recorder    Recorder
	logger      *zap.Logger
	now         func() time.Time
}

type Option func(*Generator)

func WithRecorder(r Recorder) Option {
	return func(g *Generator) { g.recorder = r }
}

func WithClock(now func() time.Time) Option {
	return func(g *Generator) { g.now = now }
}

func NewGenerator(completer llm.Completer, companyName string, logger *zap.Logger, opts ...Option) *Generator {
	if logger == nil {
		logger = zap.NewNop()
	}
	if companyName == "" {
		companyName = "TADA"
	}
	g := &Generator{
		completer:   completer,
		companyName: companyName,
		logger:      logger.Named("insights"),
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Generate makes exactly one completion call for the dataset and title.
// Provider failures come back inside the Result, never as an error.
func (g *Generator) Generate(ctx context.Context, ds domain.Dataset, title string) Result {
	return g.generate(ctx, ds, title, "", "")
}

// GenerateFor is Generate with the view and requesting surface attached to
// the run record.
func (g *Generator) GenerateFor(ctx context.Context, ds domain.Dataset, title, view string, surface Surface) Result {
	return g.generate(ctx, ds, title, view, surface)
}

func (g *Generator) generate(ctx context.Context, ds domain.Dataset, title, view string, surface Surface) Result {
	res := Result{
		RunID:    uuid.NewString(),
		Title:    title,
		Provider: g.completer.Provider(),
		Model:    g.completer.Model(),
	}
	logger := g.logger.With(
		zap.String("run_id", res.RunID),
		zap.String("view", view),
		zap.String("provider", res.Provider),
		zap.String("model", res.Model))

	started := g.now()
	data, err := CombinedData(ds)
	if err != nil {
		res.Failure = &Failure{Category: CategoryInternal, Detail: err.Error()}
	} else {
		completion, err := g.completer.Complete(ctx, SystemPrompt(g.companyName), UserPrompt(title, data))
		res.Usage = completion.Usage
		if err != nil {
			res.Failure = &Failure{Category: Classify(err), Detail: err.Error()}
		} else {
			res.Text = completion.Text
		}
	}
	elapsed := g.now().Sub(started)

	if res.Failure != nil {
		logger.Warn("insights generation failed",
			zap.String("category", string(res.Failure.Category)),
			zap.String("detail", res.Failure.Detail),
			zap.Duration("duration", elapsed))
	} else {
		logger.Info("insights generated",
			zap.Int("size", len(res.Text)),
			zap.Int64("tokens", res.Usage.TotalTokens()),
			zap.Duration("duration", elapsed))
	}

	g.record(ctx, res, view, surface, started, elapsed, logger)
	return res
}

func (g *Generator) record(ctx context.Context, res Result, view string, surface Surface, started time.Time, elapsed time.Duration, logger *zap.Logger) {
	if g.recorder == nil {
		return
	}
	run := domain.InsightRun{
		ID:             res.RunID,
		View:           view,
		Title:          res.Title,
		LLMProvider:    res.Provider,
		LLMModel:       res.Model,
		Outcome:        res.Outcome(),
		ResponseChars:  len(res.Text),
		InputTokens:    res.Usage.InputTokens,
		OutputTokens:   res.Usage.OutputTokens,
		DurationMillis: elapsed.Milliseconds(),
		Surface:        string(surface),
		GeneratedAt:    started,
	}
	if res.Failure != nil {
		run.Detail = res.Failure.Detail
	}
	if err := g.recorder.InsertInsightRun(context.WithoutCancel(ctx), run); err != nil {
		logger.Error("recording insight run", zap.Error(err))
	}
}
