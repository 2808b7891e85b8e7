package cmd

import (
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/collegemail/idverify/internal/emailgen"
	"github.com/collegemail/idverify/internal/pipeline"
	"github.com/collegemail/idverify/internal/server"
	"github.com/collegemail/idverify/internal/store"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the verification HTTP server",
	Long: `Starts the HTTP API: multipart document upload, outcome lookup,
Prometheus metrics and a websocket event stream. Outcomes persist to a
SQLite database under the data directory.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().String("host", "0.0.0.0", "host to bind to")
	serveCmd.Flags().IntP("port", "p", 8080, "port to listen on")
	serveCmd.Flags().Int("workers", 0, "pipeline worker count (0 = config default)")

	_ = viper.BindPFlag("server.host", serveCmd.Flags().Lookup("host"))
	_ = viper.BindPFlag("server.port", serveCmd.Flags().Lookup("port"))

	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	provider, err := buildEngineProvider()
	if err != nil {
		return err
	}

	outcomes, err := store.NewSQLiteStore(globalConfig.DataDir)
	if err != nil {
		return fmt.Errorf("open outcome store: %w", err)
	}
	defer func() { _ = outcomes.Close() }()

	workers := globalConfig.Pipeline.QueueWorkers
	if w, _ := cmd.Flags().GetInt("workers"); w > 0 {
		workers = w
	}

	p, err := pipeline.NewBuilder().
		WithEngineProvider(provider).
		WithOutcomeStore(outcomes).
		WithExtractionTimeout(globalConfig.Pipeline.ExtractionTimeout).
		WithMaxImageSide(globalConfig.Pipeline.MaxImageSide).
		WithQueueWorkers(workers).
		Build()
	if err != nil {
		return fmt.Errorf("build pipeline: %w", err)
	}

	queue := pipeline.NewQueue(p, pipeline.QueueConfig{
		Workers: workers,
		Depth:   globalConfig.Pipeline.QueueDepth,
	})
	defer queue.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv := server.New(globalConfig.Server, emailgen.New(globalConfig.Email.Domain), p, queue)
	if err := srv.ListenAndServe(ctx); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	slog.Info("Server stopped")
	return nil
}
