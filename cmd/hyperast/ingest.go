package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/hyperast/hyperast-go/pkg/checkpoint"
	"github.com/hyperast/hyperast-go/pkg/hyperast"
	"github.com/hyperast/hyperast-go/pkg/ingest"
	"github.com/hyperast/hyperast-go/pkg/observability"
)

func ingestCmd() *cobra.Command {
	var checkpointDir string

	cmd := &cobra.Command{
		Use:   "ingest <document.json|->",
		Short: "Validate and insert an ingest document, reporting the resulting tree's metrics",
		Long: `Validate a wire-format ingest document against its JSON Schema and insert
the tree it describes into a fresh store, printing the root's size, byte
length, and height.

Pass --checkpoint-dir to snapshot the validated document bytes so a
subsequent ingest of the same content can restore them without re-reading
the original input.

Examples:
  hyperast ingest tree.json
  hyperast ingest - < tree.json
  hyperast ingest tree.json --checkpoint-dir ./checkpoints`,
		Args: cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return runIngest(args[0], checkpointDir)
		},
	}

	cmd.Flags().StringVar(&checkpointDir, "checkpoint-dir", "", "directory for resumable ingest checkpoints")

	return cmd
}

const checkpointComponentDocument = "document"

func runIngest(path, checkpointDir string) error {
	providers, err := initObservability(observability.ModeCLI)
	if err != nil {
		return fmt.Errorf("init observability: %w", err)
	}

	defer func() {
		if shutdownErr := providers.Shutdown(context.Background()); shutdownErr != nil {
			fmt.Fprintf(os.Stderr, "observability shutdown: %v\n", shutdownErr)
		}
	}()

	ctx, span := providers.Tracer.Start(context.Background(), "cmd.ingest")
	defer span.End()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	data, err := readInput(path)
	if err != nil {
		return err
	}

	var mgr *checkpoint.Manager

	if checkpointDir != "" {
		mgr = checkpoint.NewManager(checkpointDir, checkpoint.DocumentHash(data))

		if mgr.Exists() {
			doc := &checkpoint.DocumentCheckpoint{}

			if _, loadErr := mgr.Load(map[string]checkpoint.Checkpointable{checkpointComponentDocument: doc}); loadErr == nil {
				providers.Logger.InfoContext(ctx, "ingest.checkpoint_restored", "dir", mgr.CheckpointDir())

				data = doc.Data
			}
		}
	}

	store := hyperast.New(cfg.Cache.StoreOptions())

	metrics, err := observability.NewIngestMetrics(providers.Meter)
	if err != nil {
		return fmt.Errorf("init ingest metrics: %w", err)
	}

	start := time.Now()

	root, err := ingest.Build(ctx, store, data)
	if err != nil {
		observability.RecordSpanError(span, err, observability.ErrTypeValidation, observability.ErrSourceClient)

		return fmt.Errorf("ingest %s: %w", path, err)
	}

	view, err := store.Resolve(root)
	if err != nil {
		return fmt.Errorf("resolve root: %w", err)
	}

	run := observability.IngestStats{
		Documents:       1,
		Nodes:           int(view.Metrics.Size),
		IngestDurations: []time.Duration{time.Since(start)},
	}
	metrics.RecordRun(ctx, run)

	if mgr != nil {
		doc := &checkpoint.DocumentCheckpoint{Data: data}
		state := checkpoint.IngestState{TotalDocuments: 1, ProcessedDocuments: 1, LastDocumentHash: mgr.DocumentHash}

		if saveErr := mgr.Save(map[string]checkpoint.Checkpointable{checkpointComponentDocument: doc}, state); saveErr != nil {
			return fmt.Errorf("save checkpoint: %w", saveErr)
		}
	}

	providers.Logger.InfoContext(ctx, "ingest.complete",
		"file", path,
		"nodes", view.Metrics.Size,
		"duration_ms", run.Summarize().Mean.Milliseconds(),
	)

	color.New(color.FgGreen).Fprintf(os.Stdout, "ingested %s (root kind %s)\n", path, view.Kind.String())
	fmt.Fprintf(os.Stdout, "  nodes:  %s\n", humanize.Comma(int64(view.Metrics.Size)))
	fmt.Fprintf(os.Stdout, "  bytes:  %s\n", humanize.Bytes(uint64(view.Metrics.ByteLength)))
	fmt.Fprintf(os.Stdout, "  height: %d\n", view.Metrics.Height)
	fmt.Fprintf(os.Stdout, "  lines:  %s\n", humanize.Comma(int64(view.Metrics.LineCount)))

	return nil
}

func readInput(path string) ([]byte, error) {
	if path == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return nil, fmt.Errorf("read stdin: %w", err)
		}

		return data, nil
	}

	data, err := os.ReadFile(path) //nolint:gosec // CLI argument, operator-controlled input path.
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	return data, nil
}
