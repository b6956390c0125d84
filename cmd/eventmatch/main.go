// Package main provides the eventmatch binary: the HTTP API plus the
// maintenance commands that share its configuration.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

const (
	Version = "0.1.0"
	appName = "eventmatch"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   appName,
		Short: "Event registration and matchmaking service",
		Long: `eventmatch runs event registration for hosts: configurable onboarding
forms, capacity and waitlist admission, priority scoring and live Q&A.

Configuration is read from EVENTMATCH_* environment variables.`,
		SilenceUsage: true,
	}

	cmd.AddCommand(serveCmd(), migrateCmd(), seedTemplatesCmd(), regenerateQRCmd(), reconcileVotesCmd())
	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "%s version %s\n", appName, Version)
		},
	})
	return cmd
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx)
		},
	}
}

func serve(ctx context.Context) error {
	a, err := newApp(ctx, true)
	if err != nil {
		return err
	}
	defer a.close()

	srv := &http.Server{
		Addr:              a.cfg.Addr,
		Handler:           a.handler(),
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("eventmatch listening", "addr", a.cfg.Addr, "version", Version)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	a.logger.Info("shutting down", "timeout", a.cfg.ShutdownTimeout)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("http shutdown", "error", err)
	}
	a.pool.Shutdown(shutdownCtx)
	return nil
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer a.close()
			a.logger.Info("migrations applied", "driver", a.cfg.DBDriver)
			return nil
		},
	}
}

func seedTemplatesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed-templates",
		Short: "Create the built-in questionnaire templates",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer a.close()

			results, err := a.templates.Seed(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, r := range results {
				if r.Created {
					fmt.Fprintf(out, "created template %q with %d questions\n", r.Template.Name, r.Questions)
				} else {
					fmt.Fprintf(out, "template %q already exists\n", r.Template.Name)
				}
			}
			return nil
		},
	}
}

func regenerateQRCmd() *cobra.Command {
	var (
		all     bool
		eventID int64
	)
	cmd := &cobra.Command{
		Use:   "regenerate-qr",
		Short: "Render registration QR codes for events missing one",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer a.close()

			if cmd.Flags().Changed("event-id") {
				path, err := a.qrcodes.Generate(cmd.Context(), eventID)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "event %d: %s\n", eventID, path)
				return nil
			}

			n, err := a.qrcodes.Regenerate(cmd.Context(), all)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "rendered %d QR codes\n", n)
			return nil
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "Re-render codes for every event")
	cmd.Flags().Int64Var(&eventID, "event-id", 0, "Render the code of one event")
	cmd.MarkFlagsMutuallyExclusive("all", "event-id")
	return cmd
}

func reconcileVotesCmd() *cobra.Command {
	var eventID int64
	cmd := &cobra.Command{
		Use:   "reconcile-votes",
		Short: "Rewrite Q&A vote counters that drifted from recorded votes",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer a.close()

			var scope *int64
			if cmd.Flags().Changed("event-id") {
				scope = &eventID
			}
			fixed, err := a.qa.ReconcileVotes(cmd.Context(), scope)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, c := range fixed {
				fmt.Fprintf(out, "question %d: %d -> %d\n", c.QuestionID, c.Recorded, c.Actual)
			}
			fmt.Fprintf(out, "%d counters corrected\n", len(fixed))
			return nil
		},
	}
	cmd.Flags().Int64Var(&eventID, "event-id", 0, "Only reconcile questions of this event")
	return cmd
}
