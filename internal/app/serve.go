package app

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"insightdash/internal/config"
	"insightdash/internal/digest"
	"insightdash/internal/httpx"
	"insightdash/internal/insights"
	"insightdash/internal/integrations/llm"
	slackbot "insightdash/internal/integrations/slack"
	"insightdash/internal/storage/sqlite"
	"insightdash/internal/web"

	"github.com/slack-go/slack"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

func (c *cli) serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the web dashboard, plus the Slack bot and digest when configured",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return c.serve(ctx, cfg)
		},
	}
}

// generatorDeps holds what every generation surface shares.
type generatorDeps struct {
	generator *insights.Generator
	store     *sqlite.Store
}

func (d generatorDeps) Close() error {
	if d.store == nil {
		return nil
	}
	return d.store.Close()
}

func (c *cli) newGenerator(cfg config.Config, httpClient *http.Client) (generatorDeps, error) {
	completer, err := llm.New(cfg, httpClient, c.logger)
	if err != nil {
		return generatorDeps{}, err
	}
	var deps generatorDeps
	var opts []insights.Option
	if cfg.HistoryEnabled() {
		store, err := sqlite.Open(*cfg.DBPath)
		if err != nil {
			return generatorDeps{}, err
		}
		c.logger.Info("insight history enabled", zap.String("db_path", *cfg.DBPath))
		deps.store = store
		opts = append(opts, insights.WithRecorder(store))
	}
	deps.generator = insights.NewGenerator(completer, cfg.CompanyName, c.logger, opts...)
	return deps, nil
}

func (c *cli) serve(ctx context.Context, cfg config.Config) error {
	httpClient := httpx.NewExternalClient(cfg.ExternalHTTPTimeoutSeconds)
	deps, err := c.newGenerator(cfg, httpClient)
	if err != nil {
		return err
	}
	defer deps.Close()

	var history web.HistoryReader
	var stats slackbot.StatsReader
	if deps.store != nil {
		history = deps.store
		stats = deps.store
	}

	var bot *slackbot.Bot
	var client *slack.Client
	var sched *digest.Scheduler
	if cfg.SlackConfigured() {
		client = slack.New(cfg.SlackBotToken, slack.OptionAppLevelToken(cfg.SlackAppToken))
		bot = slackbot.NewBot(client, deps.generator, stats, cfg.DashboardTitle, cfg.Location, c.logger)
		if cfg.DigestSchedule != "" {
			sched, err = digest.New(cfg.DigestSchedule, cfg.DigestView, cfg.DigestChannelID,
				deps.generator, bot, cfg.Location, c.logger)
			if err != nil {
				return err
			}
		}
	} else {
		c.logger.Info("slack disabled (slack_bot_token not set)")
	}

	srv := web.NewServer(cfg.DashboardTitle, deps.generator, history, c.logger).HTTPServer(cfg.HTTPAddr, httpClient.Timeout)
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		c.logger.Info("http server listening", zap.String("addr", cfg.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		c.logger.Info("shutting down http server")
		return srv.Shutdown(shutdownCtx)
	})
	if bot != nil {
		g.Go(func() error { return bot.Run(gctx, client) })
	}
	if sched != nil {
		g.Go(func() error { return sched.Run(gctx) })
	}

	return g.Wait()
}
