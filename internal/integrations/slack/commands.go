package slackbot

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"insightdash/internal/dashboard"
	"insightdash/internal/domain"
	"insightdash/internal/insights"
	"insightdash/internal/render"

	"github.com/slack-go/slack"
	"go.uber.org/zap"
)

func (b *Bot) HandleSlashCommand(ctx context.Context, cmd slack.SlashCommand) {
	switch cmd.Command {
	case "/dashboard":
		b.handleDashboard(ctx, cmd)
	case "/insights-stats":
		b.handleStats(ctx, cmd)
	default:
		b.postEphemeral(ctx, cmd.ChannelID, cmd.UserID, fmt.Sprintf("Unknown command %s", cmd.Command))
	}
}

func (b *Bot) handleDashboard(ctx context.Context, cmd slack.SlashCommand) {
	view := dashboard.ViewMain
	if arg := strings.TrimSpace(cmd.Text); arg != "" {
		v, err := dashboard.ParseView(arg)
		if err != nil {
			b.postEphemeral(ctx, cmd.ChannelID, cmd.UserID, fmt.Sprintf("Unknown view %q. Available: %s", arg, viewNames()))
			return
		}
		view = v
	}
	if err := b.PostView(ctx, cmd.ChannelID, view); err != nil {
		b.logger.Error("posting dashboard view", zap.String("view", view.String()), zap.Error(err))
		b.postEphemeral(ctx, cmd.ChannelID, cmd.UserID, fmt.Sprintf("Error showing %s: %v", view, err))
	}
}

// PostView posts the view picker and then each chart of the view as a PNG.
func (b *Bot) PostView(ctx context.Context, channelID string, view dashboard.View) error {
	charts, err := dashboard.Select(view, domain.SampleDataset())
	if err != nil {
		return err
	}
	if _, _, err := b.api.PostMessageContext(ctx, channelID,
		slack.MsgOptionText(fmt.Sprintf("%s: %s", b.appTitle, view), false),
		slack.MsgOptionBlocks(viewBlocks(b.appTitle, view)...),
	); err != nil {
		return fmt.Errorf("posting view picker: %w", err)
	}

	for _, c := range charts {
		png, err := render.Bytes(c, render.FormatPNG, render.Options{})
		if err != nil {
			return err
		}
		_, err = b.api.UploadFileV2Context(ctx, slack.UploadFileV2Parameters{
			Reader:   bytes.NewReader(png),
			FileSize: len(png),
			Filename: c.Spec.ID + ".png",
			Title:    c.Spec.Title,
			Channel:  channelID,
		})
		if err != nil {
			return fmt.Errorf("uploading %s: %w", c.Spec.ID, err)
		}
	}
	b.logger.Info("dashboard view posted", zap.String("view", view.String()), zap.Int("charts", len(charts)))
	return nil
}

func (b *Bot) HandleInteraction(ctx context.Context, cb slack.InteractionCallback) {
	if cb.Type != slack.InteractionTypeBlockActions || len(cb.ActionCallback.BlockActions) == 0 {
		return
	}
	act := cb.ActionCallback.BlockActions[0]
	channelID := cb.Channel.ID
	if channelID == "" {
		channelID = cb.Container.ChannelID
	}
	userID := cb.User.ID

	switch act.ActionID {
	case actionSelectView:
		view, err := dashboard.ParseView(act.SelectedOption.Value)
		if err != nil {
			b.postEphemeral(ctx, channelID, userID, "That view no longer exists.")
			return
		}
		if err := b.PostView(ctx, channelID, view); err != nil {
			b.logger.Error("posting dashboard view", zap.String("view", view.String()), zap.Error(err))
			b.postEphemeral(ctx, channelID, userID, fmt.Sprintf("Error showing %s: %v", view, err))
		}
	case actionAskAI:
		view, err := dashboard.ParseView(act.Value)
		if err != nil {
			b.postEphemeral(ctx, channelID, userID, "That view no longer exists.")
			return
		}
		b.postEphemeral(ctx, channelID, userID, fmt.Sprintf("Generating insights for %s...", view.Title()))
		res := b.generator.GenerateFor(ctx, domain.SampleDataset(), view.Title(), view.String(), insights.SurfaceSlack)
		if err := b.PostInsights(ctx, channelID, res); err != nil {
			b.logger.Error("posting insights", zap.String("view", view.String()), zap.Error(err))
		}
	}
}

// PostInsights posts a generation result under the "AI Insights" heading.
func (b *Bot) PostInsights(ctx context.Context, channelID string, res insights.Result) error {
	_, _, err := b.api.PostMessageContext(ctx, channelID,
		slack.MsgOptionText(res.Display(), false),
		slack.MsgOptionBlocks(insightBlocks(res)...),
	)
	return err
}

func (b *Bot) handleStats(ctx context.Context, cmd slack.SlashCommand) {
	if b.stats == nil {
		b.postEphemeral(ctx, cmd.ChannelID, cmd.UserID, "Insight history is disabled (db_path is empty).")
		return
	}
	allTime, err := b.stats.GetInsightStats(ctx, time.Time{})
	if err != nil {
		b.logger.Error("loading insight stats", zap.Error(err))
		b.postEphemeral(ctx, cmd.ChannelID, cmd.UserID, fmt.Sprintf("Error loading stats: %v", err))
		return
	}
	weekAgo := b.now().In(b.loc).AddDate(0, 0, -7)
	recent, err := b.stats.GetInsightStats(ctx, weekAgo)
	if err != nil {
		b.logger.Warn("loading recent insight stats", zap.Error(err))
		recent = domain.InsightStats{}
	}
	b.postEphemeral(ctx, cmd.ChannelID, cmd.UserID, formatStats(allTime, recent, b.loc))
}

func formatStats(allTime, recent domain.InsightStats, loc *time.Location) string {
	var sb strings.Builder
	sb.WriteString("*Insight generation stats*\n")
	if allTime.TotalRuns == 0 {
		sb.WriteString("No insights have been generated yet.")
		return sb.String()
	}
	fmt.Fprintf(&sb, "All time: %d runs (%d ok, %d failed), %s tokens, avg %.1fs\n",
		allTime.TotalRuns, allTime.SuccessfulRuns, allTime.FailedRuns,
		formatTokenCount(allTime.TotalTokens), allTime.AvgDurationMS/1000)
	fmt.Fprintf(&sb, "Last 7 days: %d runs (%d ok, %d failed)\n",
		recent.TotalRuns, recent.SuccessfulRuns, recent.FailedRuns)
	sb.WriteString("By provider: " + formatCounts(allTime.ByProvider) + "\n")
	sb.WriteString("By outcome: " + formatCounts(allTime.ByOutcome) + "\n")
	if !allTime.LastGeneratedAt.IsZero() {
		fmt.Fprintf(&sb, "Last run: %s", allTime.LastGeneratedAt.In(loc).Format("2006-01-02 15:04 MST"))
	}
	return strings.TrimRight(sb.String(), "\n")
}

func formatCounts(m map[string]int) string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if m[keys[i]] != m[keys[j]] {
			return m[keys[i]] > m[keys[j]]
		}
		return keys[i] < keys[j]
	})
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		name := k
		if name == "" {
			name = "unknown"
		}
		parts = append(parts, fmt.Sprintf("%s=%d", name, m[k]))
	}
	return strings.Join(parts, ", ")
}

func formatTokenCount(tokens int64) string {
	if tokens < 1000 {
		return fmt.Sprintf("%d", tokens)
	}
	rounded := (tokens + 50) / 100
	whole := rounded / 10
	frac := rounded % 10
	if frac == 0 {
		return fmt.Sprintf("%dk", whole)
	}
	return fmt.Sprintf("%d.%dk", whole, frac)
}

func viewNames() string {
	names := make([]string, 0, len(dashboard.Views))
	for _, v := range dashboard.Views {
		names = append(names, v.Slug())
	}
	return strings.Join(names, ", ")
}

func (b *Bot) postEphemeral(ctx context.Context, channelID, userID, text string) {
	if _, err := b.api.PostEphemeralContext(ctx, channelID, userID, slack.MsgOptionText(text, false)); err != nil {
		b.logger.Warn("posting ephemeral", zap.String("channel", channelID), zap.Error(err))
	}
}
