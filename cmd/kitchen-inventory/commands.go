package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"kitchen-inventory/internal/api"
	"kitchen-inventory/internal/app"
	"kitchen-inventory/internal/logger"
	"kitchen-inventory/internal/storage"
)

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "kitchen-inventory",
		Short:        "Recipe cost and nutrition calculator for a kitchen inventory",
		SilenceUsage: true,
	}

	rootCmd.AddCommand(
		newServeCmd(),
		newListCmd(),
		newReportCmd(),
		newMatchCmd(),
		newImportCmd(),
		newExportCmd(),
		newExtractCmd(),
		newGhostsCmd(),
		newReplaceGhostCmd(),
		newDeleteCmd(),
		newUsageCmd(),
		newMetricsCleanupCmd(),
	)
	return rootCmd
}

// runWithApp opens the dependencies, runs fn and closes them again.
func runWithApp(withLLM bool, fn func(ctx context.Context, d *deps, out io.Writer) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		d, err := openDeps(ctx, withLLM)
		if err != nil {
			return err
		}
		defer d.Close()
		return fn(ctx, d, cmd.OutOrStdout())
	}
}

func writeJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the JSON API",
		Args:  cobra.NoArgs,
		RunE: runWithApp(false, func(ctx context.Context, d *deps, _ io.Writer) error {
			srv := &http.Server{
				Addr:              d.cfg.HTTPAddr,
				Handler:           api.NewRouter(d.app),
				ReadHeaderTimeout: 10 * time.Second,
			}

			ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			errCh := make(chan error, 1)
			go func() {
				logger.L().Info("HTTP server listening", zap.String("addr", d.cfg.HTTPAddr))
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
				close(errCh)
			}()

			select {
			case err, ok := <-errCh:
				if ok {
					return fmt.Errorf("server failed: %w", err)
				}
				return nil
			case <-ctx.Done():
			}

			logger.L().Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				return fmt.Errorf("server forced to shutdown: %w", err)
			}
			logger.L().Info("server exiting")
			return nil
		}),
	}
}

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all items",
		Args:  cobra.NoArgs,
		RunE: runWithApp(false, func(ctx context.Context, d *deps, out io.Writer) error {
			items, err := d.app.ListItems(ctx)
			if err != nil {
				return err
			}
			for _, it := range items {
				fmt.Fprintf(out, "%-36s  %-9s  %s\n", it.ID, it.Type, it.Name)
			}
			return nil
		}),
	}
}

func newReportCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "report [item-id]",
		Short: "Show cost, nutrition and allergens of an item",
		Args:  cobra.ExactArgs(1),
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the report as JSON")
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		return runWithApp(false, func(ctx context.Context, d *deps, out io.Writer) error {
			rep, err := d.app.Evaluate(ctx, args[0], nil)
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(out, rep)
			}
			return app.RenderReport(out, rep)
		})(cmd, args)
	}
	return cmd
}

func newMatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "match [name]",
		Short: "Find the inventory item most similar to a name",
		Args:  cobra.MinimumNArgs(1),
	}
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		name := strings.Join(args, " ")
		return runWithApp(false, func(ctx context.Context, d *deps, out io.Writer) error {
			res, ok, err := d.app.Match(ctx, name)
			if err != nil {
				return err
			}
			if !ok {
				fmt.Fprintf(out, "No item is similar enough to %q.\n", name)
				return nil
			}
			kind := "similar"
			if res.Exact {
				kind = "exact"
			}
			fmt.Fprintf(out, "%s (%s), %s match, score %.2f\n", res.Item.Name, res.Item.ID, kind, res.Score)
			return nil
		})(cmd, args)
	}
	return cmd
}

func newImportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import [snapshot-file]",
		Short: "Import items from a snapshot or a JSON item list",
		Args:  cobra.ExactArgs(1),
	}
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		return runWithApp(false, func(ctx context.Context, d *deps, out io.Writer) error {
			snap, err := storage.LoadFile(args[0])
			if err != nil {
				return err
			}
			sum, err := d.app.ImportSnapshot(ctx, snap)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Imported %d new, %d updated, %d skipped.\n", sum.Created, sum.Updated, sum.Skipped)
			return nil
		})(cmd, args)
	}
	return cmd
}

func newExportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "export",
		Short: "Write a snapshot of the whole inventory",
		Args:  cobra.NoArgs,
		RunE: runWithApp(false, func(ctx context.Context, d *deps, out io.Writer) error {
			name, err := d.app.ExportSnapshot(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Snapshot written: %s\n", name)
			return nil
		}),
	}
}

func newExtractCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "extract [url-or-file...]",
		Short: "Create items from manufacturer datasheets (HTML pages or PDFs)",
		Args:  cobra.MinimumNArgs(1),
	}
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		return runWithApp(true, func(ctx context.Context, d *deps, out io.Writer) error {
			results, err := d.app.ImportDatasheets(ctx, args)
			if err != nil {
				return err
			}
			failed := 0
			for _, r := range results {
				if r.Error != "" {
					failed++
					fmt.Fprintf(out, "FAILED  %s: %s\n", r.Source, r.Error)
					continue
				}
				fmt.Fprintf(out, "OK      %s -> %s (%s)\n", r.Source, r.Item.Name, r.Item.ID)
				for _, u := range r.Unmatched {
					fmt.Fprintf(out, "        unmatched component: %s\n", u.Name)
				}
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d datasheets failed", failed, len(results))
			}
			return nil
		})(cmd, args)
	}
	return cmd
}

func newGhostsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ghosts",
		Short: "List recipe components whose item was deleted",
		Args:  cobra.NoArgs,
		RunE: runWithApp(false, func(ctx context.Context, d *deps, out io.Writer) error {
			ghosts, err := d.app.Ghosts(ctx)
			if err != nil {
				return err
			}
			if len(ghosts) == 0 {
				fmt.Fprintln(out, "No ghost components.")
				return nil
			}
			for _, g := range ghosts {
				fmt.Fprintf(out, "%s (%s): %q\n", g.ParentName, g.ParentID, g.DeletedItemName)
			}
			return nil
		}),
	}
}

func newReplaceGhostCmd() *cobra.Command {
	var parentID string
	cmd := &cobra.Command{
		Use:   "replace-ghost [deleted-name] [replacement-id]",
		Short: "Link ghost components to an existing item",
		Long:  "Replaces ghost components carrying deleted-name with a reference to replacement-id, in every recipe or only in --parent.",
		Args:  cobra.ExactArgs(2),
	}
	cmd.Flags().StringVar(&parentID, "parent", "", "only update this recipe")
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		return runWithApp(false, func(ctx context.Context, d *deps, out io.Writer) error {
			n, err := d.app.ReplaceGhost(ctx, args[0], args[1], parentID)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Relinked %d components.\n", n)
			return nil
		})(cmd, args)
	}
	return cmd
}

func newDeleteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete [item-id]",
		Short: "Delete an item, leaving ghost components in recipes that use it",
		Args:  cobra.ExactArgs(1),
	}
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		return runWithApp(false, func(ctx context.Context, d *deps, out io.Writer) error {
			n, err := d.app.DeleteItem(ctx, args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Deleted. %d recipes now hold a ghost component.\n", n)
			return nil
		})(cmd, args)
	}
	return cmd
}

func newUsageCmd() *cobra.Command {
	var days int
	cmd := &cobra.Command{
		Use:   "usage",
		Short: "Show datasheet extraction token usage per day",
		Args:  cobra.NoArgs,
	}
	cmd.Flags().IntVar(&days, "days", 7, "number of days to report")
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		return runWithApp(false, func(ctx context.Context, d *deps, out io.Writer) error {
			usage, err := d.app.DailyUsage(ctx, days)
			if err != nil {
				return err
			}
			for _, u := range usage {
				fmt.Fprintf(out, "%s  %3d runs  %7d prompt  %7d completion\n", u.Date, u.TotalExecution, u.TotalPrompt, u.TotalCompletion)
			}
			return nil
		})(cmd, args)
	}
	return cmd
}

func newMetricsCleanupCmd() *cobra.Command {
	var days int
	cmd := &cobra.Command{
		Use:   "metrics-cleanup",
		Short: "Delete usage metrics older than --days",
		Args:  cobra.NoArgs,
	}
	cmd.Flags().IntVar(&days, "days", 30, "keep records of this many days")
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		return runWithApp(false, func(ctx context.Context, d *deps, out io.Writer) error {
			n, err := d.app.CleanupMetrics(ctx, days)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Deleted %d metric records.\n", n)
			return nil
		})(cmd, args)
	}
	return cmd
}
