package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/sergi/go-diff/diffmatchpatch"
	"github.com/spf13/cobra"

	"github.com/hyperast/hyperast-go/pkg/diff"
	"github.com/hyperast/hyperast-go/pkg/diff/script"
	"github.com/hyperast/hyperast-go/pkg/hyperast"
	"github.com/hyperast/hyperast-go/pkg/ingest"
	"github.com/hyperast/hyperast-go/pkg/observability"
)

// diffArgCount is the number of ingest-document arguments the diff command takes.
const diffArgCount = 2

func diffCmd() *cobra.Command {
	var showText bool

	cmd := &cobra.Command{
		Use:   "diff <old.json> <new.json>",
		Short: "Compute the structural edit script between two ingest documents",
		Long: `Ingest two wire-format documents into a shared store and compute the
GumTree-style edit script that replays the first tree into the second
(spec.md §4.5-§4.7).

Examples:
  hyperast diff old.json new.json
  hyperast diff --text old.json new.json   # also show a line-level text diff`,
		Args: cobra.ExactArgs(diffArgCount),
		RunE: func(_ *cobra.Command, args []string) error {
			return runDiff(args[0], args[1], showText)
		},
	}

	cmd.Flags().BoolVar(&showText, "text", false, "also print a line-level diff of the raw document bytes")

	return cmd
}

func runDiff(oldPath, newPath string, showText bool) error {
	providers, err := initObservability(observability.ModeCLI)
	if err != nil {
		return fmt.Errorf("init observability: %w", err)
	}

	defer func() {
		if shutdownErr := providers.Shutdown(context.Background()); shutdownErr != nil {
			fmt.Fprintf(os.Stderr, "observability shutdown: %v\n", shutdownErr)
		}
	}()

	ctx, span := providers.Tracer.Start(context.Background(), "cmd.diff")
	defer span.End()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	oldData, err := readInput(oldPath)
	if err != nil {
		return err
	}

	newData, err := readInput(newPath)
	if err != nil {
		return err
	}

	store := hyperast.New(cfg.Cache.StoreOptions())

	srcRoot, err := ingest.Build(ctx, store, oldData)
	if err != nil {
		observability.RecordSpanError(span, err, observability.ErrTypeValidation, observability.ErrSourceClient)

		return fmt.Errorf("ingest %s: %w", oldPath, err)
	}

	dstRoot, err := ingest.Build(ctx, store, newData)
	if err != nil {
		observability.RecordSpanError(span, err, observability.ErrTypeValidation, observability.ErrSourceClient)

		return fmt.Errorf("ingest %s: %w", newPath, err)
	}

	result, err := store.Diff(ctx, srcRoot, dstRoot, cfg.Diff.DiffOptions())
	if err != nil {
		observability.RecordSpanError(span, err, observability.ErrTypeInternal, observability.ErrSourceServer)

		return fmt.Errorf("diff: %w", err)
	}

	providers.Logger.InfoContext(ctx, "diff.complete",
		"actions", len(result.Actions),
		"total_ms", result.Timings.Total.Milliseconds(),
	)

	printActionTable(result.Actions)

	if showText {
		printTextDiff(oldData, newData)
	}

	return nil
}

func printActionTable(actions []script.Action) {
	tbl := table.NewWriter()
	tbl.SetOutputMirror(os.Stdout)
	tbl.SetStyle(table.StyleLight)
	tbl.Style().Options.SeparateRows = false
	tbl.AppendHeader(table.Row{"Op", "Action"})

	for _, action := range actions {
		tbl.AppendRow(table.Row{colorizeOp(action.Op), action.String()})
	}

	tbl.Render()
}

func colorizeOp(op script.Op) string {
	switch op {
	case script.OpInsert:
		return color.GreenString(op.String())
	case script.OpDelete:
		return color.RedString(op.String())
	case script.OpUpdate:
		return color.YellowString(op.String())
	case script.OpMove, script.OpMovUpd:
		return color.CyanString(op.String())
	default:
		return op.String()
	}
}

// printTextDiff prints a line-level diff of the two documents' raw bytes,
// grounded on the teacher's pkg/analyzers/plumbing file-diff idiom
// (diffmatchpatch.DiffLinesToRunes + DiffMainRunes + DiffCleanupSemantic).
func printTextDiff(oldData, newData []byte) {
	dmp := diffmatchpatch.New()

	srcRunes, dstRunes, lineArray := dmp.DiffLinesToRunes(string(oldData), string(newData))
	diffs := dmp.DiffMainRunes(srcRunes, dstRunes, false)
	diffs = dmp.DiffCharsToLines(diffs, lineArray)
	diffs = dmp.DiffCleanupSemantic(diffs)

	fmt.Fprintln(os.Stdout, "\ntext diff:")

	for _, d := range diffs {
		switch d.Type {
		case diffmatchpatch.DiffInsert:
			color.New(color.FgGreen).Fprint(os.Stdout, prefixLines("+", d.Text))
		case diffmatchpatch.DiffDelete:
			color.New(color.FgRed).Fprint(os.Stdout, prefixLines("-", d.Text))
		case diffmatchpatch.DiffEqual:
			fmt.Fprint(os.Stdout, prefixLines(" ", d.Text))
		}
	}
}

func prefixLines(prefix, text string) string {
	lines := strings.Split(strings.TrimSuffix(text, "\n"), "\n")
	for i, line := range lines {
		lines[i] = prefix + line
	}

	return strings.Join(lines, "\n") + "\n"
}
