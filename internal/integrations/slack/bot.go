package slackbot

import (
	"context"
	"time"

	"insightdash/internal/domain"
	"insightdash/internal/insights"

	"github.com/slack-go/slack"
	"github.com/slack-go/slack/slackevents"
	"github.com/slack-go/slack/socketmode"
	"go.uber.org/zap"
)

const (
	actionSelectView = "dashboard_select_view"
	actionAskAI      = "dashboard_ask_ai"
	blockViewPicker  = "dashboard_view_picker"
	blockAskAI       = "dashboard_ask_ai"
)

// API is the subset of *slack.Client the bot posts through.
type API interface {
	PostMessageContext(ctx context.Context, channelID string, options ...slack.MsgOption) (string, string, error)
	PostEphemeralContext(ctx context.Context, channelID, userID string, options ...slack.MsgOption) (string, error)
	UploadFileV2Context(ctx context.Context, params slack.UploadFileV2Parameters) (*slack.FileSummary, error)
}

type Generator interface {
	GenerateFor(ctx context.Context, ds domain.Dataset, title, view string, surface insights.Surface) insights.Result
}

// StatsReader backs /insights-stats; nil means history is disabled.
type StatsReader interface {
	GetInsightStats(ctx context.Context, since time.Time) (domain.InsightStats, error)
}

type Bot struct {
	api       API
	generator Generator
	stats     StatsReader
	appTitle  string
	loc       *time.Location
	logger    *zap.Logger
	now       func() time.Time
}

func NewBot(api API, generator Generator, stats StatsReader, appTitle string, loc *time.Location, logger *zap.Logger) *Bot {
	if logger == nil {
		logger = zap.NewNop()
	}
	if loc == nil {
		loc = time.Local
	}
	if appTitle == "" {
		appTitle = "Customer Insights Dashboard"
	}
	return &Bot{
		api:       api,
		generator: generator,
		stats:     stats,
		appTitle:  appTitle,
		loc:       loc,
		logger:    logger.Named("slack"),
		now:       time.Now,
	}
}

// Run connects over Socket Mode and serves commands until ctx is done.
func (b *Bot) Run(ctx context.Context, client *slack.Client) error {
	sm := socketmode.New(client, socketmode.OptionLog(zap.NewStdLog(b.logger)))

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case evt, ok := <-sm.Events:
				if !ok {
					return
				}
				b.dispatch(ctx, sm, evt)
			}
		}
	}()

	b.logger.Info("slack bot connecting via socket mode")
	err := sm.RunContext(ctx)
	if ctx.Err() != nil {
		return nil
	}
	return err
}

func (b *Bot) dispatch(ctx context.Context, sm *socketmode.Client, evt socketmode.Event) {
	switch evt.Type {
	case socketmode.EventTypeSlashCommand:
		sm.Ack(*evt.Request)
		cmd, ok := evt.Data.(slack.SlashCommand)
		if !ok {
			return
		}
		b.logger.Info("slash command received",
			zap.String("command", cmd.Command),
			zap.String("user", cmd.UserID),
			zap.String("channel", cmd.ChannelID))
		go b.HandleSlashCommand(ctx, cmd)
	case socketmode.EventTypeInteractive:
		sm.Ack(*evt.Request)
		cb, ok := evt.Data.(slack.InteractionCallback)
		if !ok {
			return
		}
		go b.HandleInteraction(ctx, cb)
	case socketmode.EventTypeEventsAPI:
		sm.Ack(*evt.Request)
		if ev, ok := evt.Data.(slackevents.EventsAPIEvent); ok {
			b.logger.Debug("ignoring events api event", zap.String("type", ev.Type))
		}
	case socketmode.EventTypeConnected:
		b.logger.Info("slack bot connected")
	case socketmode.EventTypeConnectionError:
		b.logger.Warn("slack connection error")
	}
}
