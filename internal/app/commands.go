package app

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"insightdash/internal/dashboard"
	"insightdash/internal/domain"
	"insightdash/internal/httpx"
	"insightdash/internal/insights"
	"insightdash/internal/render"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func (c *cli) viewsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "views",
		Short: "List dashboard views and the charts each one shows",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			tw := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "SLUG\tVIEW\tCHARTS")
			for _, v := range dashboard.Views {
				fmt.Fprintf(tw, "%s\t%s\t%s\n", v.Slug(), v, strings.Join(dashboard.ChartIDs(v), ", "))
			}
			return tw.Flush()
		},
	}
}

func (c *cli) renderCmd() *cobra.Command {
	var viewName, formatName, outDir string
	var width, height int

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render every chart of a view to image files",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			view, err := dashboard.ParseView(viewName)
			if err != nil {
				return err
			}
			format, err := render.ParseFormat(formatName)
			if err != nil {
				return err
			}
			charts, err := dashboard.Select(view, domain.SampleDataset())
			if err != nil {
				return err
			}
			if err := os.MkdirAll(outDir, 0o755); err != nil {
				return fmt.Errorf("creating %s: %w", outDir, err)
			}
			for _, ch := range charts {
				data, err := render.Bytes(ch, format, render.Options{Width: width, Height: height})
				if err != nil {
					return fmt.Errorf("rendering %s: %w", ch.Spec.ID, err)
				}
				path := filepath.Join(outDir, ch.Spec.ID+"."+string(format))
				if err := os.WriteFile(path, data, 0o644); err != nil {
					return fmt.Errorf("writing %s: %w", path, err)
				}
				c.logger.Debug("chart rendered", zap.String("chart", ch.Spec.ID), zap.Int("bytes", len(data)))
				fmt.Fprintln(c.out, path)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&viewName, "view", dashboard.ViewMain.Slug(), "View name or slug")
	cmd.Flags().StringVar(&formatName, "format", string(render.FormatPNG), "Image format: png or svg")
	cmd.Flags().StringVar(&outDir, "out", ".", "Output directory")
	cmd.Flags().IntVar(&width, "width", 0, "Image width in pixels (default 640)")
	cmd.Flags().IntVar(&height, "height", 0, "Image height in pixels (default 400)")
	return cmd
}

func (c *cli) insightsCmd() *cobra.Command {
	var viewName string

	cmd := &cobra.Command{
		Use:   "insights",
		Short: "Generate the AI narrative for a view and print it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			view, err := dashboard.ParseView(viewName)
			if err != nil {
				return err
			}
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			deps, err := c.newGenerator(cfg, httpx.NewExternalClient(cfg.ExternalHTTPTimeoutSeconds))
			if err != nil {
				return err
			}
			defer deps.Close()

			res := deps.generator.GenerateFor(cmd.Context(), domain.SampleDataset(), view.Title(), view.String(), insights.SurfaceCLI)
			fmt.Fprintln(c.out, res.Display())
			if !res.OK() {
				return fmt.Errorf("insight generation failed (%s)", res.Failure.Category)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&viewName, "view", dashboard.ViewMain.Slug(), "View name or slug")
	return cmd
}
