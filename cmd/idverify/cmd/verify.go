package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/collegemail/idverify/internal/decision"
	"github.com/collegemail/idverify/internal/document"
	"github.com/collegemail/idverify/internal/engine"
	"github.com/collegemail/idverify/internal/pipeline"
	"github.com/collegemail/idverify/internal/store"
)

var verifyCmd = &cobra.Command{
	Use:   "verify <document>",
	Short: "Verify a single ID card document against a declared profile",
	Long: `Runs one ID card (JPEG, PNG or PDF) through the full verification
pipeline and prints the extraction and decision outcome.`,
	Args: cobra.ExactArgs(1),
	RunE: runVerify,
}

func init() {
	verifyCmd.Flags().String("name", "", "declared student name (required)")
	verifyCmd.Flags().String("email", "", "declared student email (required)")
	verifyCmd.Flags().String("request-id", "", "request identifier (generated when omitted)")
	verifyCmd.Flags().StringP("format", "f", "", "output format: json, yaml or text")
	verifyCmd.Flags().StringP("output", "o", "", "output file (default stdout)")
	_ = verifyCmd.MarkFlagRequired("name")
	_ = verifyCmd.MarkFlagRequired("email")

	rootCmd.AddCommand(verifyCmd)
}

func runVerify(cmd *cobra.Command, args []string) error {
	path := args[0]
	declaredName, _ := cmd.Flags().GetString("name")
	declaredEmail, _ := cmd.Flags().GetString("email")
	requestID, _ := cmd.Flags().GetString("request-id")
	if requestID == "" {
		requestID = uuid.NewString()
	}

	mediaType, ok := document.TypeForFilename(path)
	if !ok {
		return fmt.Errorf("%w: %s", document.ErrUnsupportedMedia, path)
	}
	data, err := os.ReadFile(path) //nolint:gosec // G304: Reading user-provided document path is expected
	if err != nil {
		return fmt.Errorf("read document: %w", err)
	}

	provider, err := buildEngineProvider()
	if err != nil {
		return err
	}

	p, err := pipeline.NewBuilder().
		WithEngineProvider(provider).
		WithExtractionTimeout(globalConfig.Pipeline.ExtractionTimeout).
		WithMaxImageSide(globalConfig.Pipeline.MaxImageSide).
		Build()
	if err != nil {
		return fmt.Errorf("build pipeline: %w", err)
	}

	queue := pipeline.NewQueue(p, pipeline.QueueConfig{Workers: 1, Depth: 1})
	defer queue.Close()

	ticket, err := queue.Submit(pipeline.Request{
		ID:       requestID,
		Document: document.Document{Data: data, MediaType: mediaType, Filename: path},
		Profile:  decision.Profile{DeclaredName: declaredName, DeclaredEmail: declaredEmail},
	})
	if err != nil {
		return fmt.Errorf("submit request: %w", err)
	}

	rec, err := ticket.Wait(context.Background())
	if err != nil {
		return err
	}
	return writeResult(cmd, rec)
}

// buildEngineProvider wires the ONNX engine from configuration.
func buildEngineProvider() (engine.Provider, error) {
	cfg := engine.ONNXConfig{
		ModelPath:   globalConfig.Engine.ModelPath,
		DictPath:    globalConfig.Engine.DictPath,
		ImageHeight: globalConfig.Engine.ImageHeight,
		NumThreads:  globalConfig.Engine.NumThreads,
	}
	if cfg.ModelPath == "" {
		return nil, errors.New("no recognition model configured (set --model and --dict)")
	}
	return engine.NewONNXProvider(cfg)
}

// writeResult renders a record in the configured output format.
func writeResult(cmd *cobra.Command, rec store.Record) error {
	format, _ := cmd.Flags().GetString("format")
	if format == "" {
		format = globalConfig.Output.Format
	}
	outPath, _ := cmd.Flags().GetString("output")
	if outPath == "" {
		outPath = globalConfig.Output.File
	}

	var out io.Writer = cmd.OutOrStdout()
	if outPath != "" {
		f, err := os.Create(outPath) //nolint:gosec // G304: Writing user-requested output path is expected
		if err != nil {
			return fmt.Errorf("create output file: %w", err)
		}
		defer func() { _ = f.Close() }()
		out = f
	}

	switch format {
	case "json":
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(rec)
	case "yaml":
		enc := yaml.NewEncoder(out)
		defer func() { _ = enc.Close() }()
		return enc.Encode(rec)
	case "text":
		_, err := fmt.Fprintf(out,
			"request:    %s\ncategory:   %s\nconfidence: %.2f\nname match: %.2f\nroll match: %.2f\nname:       %s\nroll:       %s\ncollege id: %s\n",
			rec.RequestID, rec.Outcome.Category, rec.Outcome.ConfidenceScore,
			rec.Outcome.NameMatchScore, rec.Outcome.RollMatchScore,
			rec.Extraction.Name, rec.Extraction.Roll, rec.Extraction.CollegeID)
		return err
	default:
		return fmt.Errorf("invalid output format: %q", format)
	}
}
