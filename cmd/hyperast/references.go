package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/hyperast/hyperast-go/pkg/hyperast"
	"github.com/hyperast/hyperast-go/pkg/ingest"
	"github.com/hyperast/hyperast-go/pkg/nodestore"
	"github.com/hyperast/hyperast-go/pkg/observability"
	"github.com/hyperast/hyperast-go/pkg/refs"
)

// referencesArgCount is the number of positional arguments the references
// command takes: the document and the declaration's path.
const referencesArgCount = 2

// errEmptyPathStep reports a malformed dot-path component.
var errEmptyPathStep = errors.New("path component must be a non-negative integer")

func referencesCmd() *cobra.Command {
	var scopePath, limitPath string

	var peerPaths []string

	cmd := &cobra.Command{
		Use:   "references <document.json> <decl-path>",
		Short: "Resolve identifier references against a declaration path",
		Long: `Ingest a document and search for the positions referencing the
declaration addressed by decl-path (spec.md §4.9). Paths are dot-separated
child indices descended from the document root, e.g. "0.2.1".

Examples:
  hyperast references tree.json 0.1.0
  hyperast references --scope 0 tree.json 0.1.0`,
		Args: cobra.ExactArgs(referencesArgCount),
		RunE: func(_ *cobra.Command, args []string) error {
			return runReferences(args[0], scopePath, args[1], peerPaths, limitPath)
		},
	}

	cmd.Flags().StringVar(&scopePath, "scope", "", "dot-path to the scope root (default: document root)")
	cmd.Flags().StringVar(&limitPath, "limit", "", "dot-path to the ancestor that bounds ascent")
	cmd.Flags().StringArrayVar(&peerPaths, "peer", nil, "dot-path (relative to scope) of a sibling declaration to disambiguate against")

	return cmd
}

func runReferences(docPath, scopePath, declPath string, peerPaths []string, limitPath string) error {
	providers, err := initObservability(observability.ModeCLI)
	if err != nil {
		return fmt.Errorf("init observability: %w", err)
	}

	defer func() {
		if shutdownErr := providers.Shutdown(context.Background()); shutdownErr != nil {
			fmt.Fprintf(os.Stderr, "observability shutdown: %v\n", shutdownErr)
		}
	}()

	ctx, span := providers.Tracer.Start(context.Background(), "cmd.references")
	defer span.End()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	data, err := readInput(docPath)
	if err != nil {
		return err
	}

	store := hyperast.New(cfg.Cache.StoreOptions())

	docRoot, err := ingest.Build(ctx, store, data)
	if err != nil {
		observability.RecordSpanError(span, err, observability.ErrTypeValidation, observability.ErrSourceClient)

		return fmt.Errorf("ingest %s: %w", docPath, err)
	}

	scopeRoot := docRoot

	if scopePath != "" {
		_, scopeRoot, err = walkDotPath(store, docRoot, scopePath)
		if err != nil {
			return fmt.Errorf("resolve --scope: %w", err)
		}
	}

	decl, _, err := walkDotPath(store, scopeRoot, declPath)
	if err != nil {
		return fmt.Errorf("resolve decl-path: %w", err)
	}

	peers := make([]refs.Path, 0, len(peerPaths))

	for _, peerPath := range peerPaths {
		peer, _, err := walkDotPath(store, scopeRoot, peerPath)
		if err != nil {
			return fmt.Errorf("resolve --peer %s: %w", peerPath, err)
		}

		peers = append(peers, peer)
	}

	var limitAncestor nodestore.ID

	if limitPath != "" {
		_, limitAncestor, err = walkDotPath(store, docRoot, limitPath)
		if err != nil {
			return fmt.Errorf("resolve --limit: %w", err)
		}
	}

	result, err := store.References(ctx, decl, scopeRoot, peers, limitAncestor)
	if err != nil {
		observability.RecordSpanError(span, err, observability.ErrTypeInternal, observability.ErrSourceServer)

		return fmt.Errorf("references: %w", err)
	}

	providers.Logger.InfoContext(ctx, "references.complete", "positions", len(result.Positions))

	printPositions(store, scopeRoot, result)

	return nil
}

func printPositions(store *hyperast.Store, scopeRoot nodestore.ID, result refs.Result) {
	tbl := table.NewWriter()
	tbl.SetOutputMirror(os.Stdout)
	tbl.SetStyle(table.StyleLight)
	tbl.AppendHeader(table.Row{"Path", "Byte Start", "Byte End"})

	for _, pos := range result.Positions {
		byteRange, err := store.PositionOf(scopeRoot, pos)
		if err != nil {
			tbl.AppendRow(table.Row{describePath(pos), "?", "?"})

			continue
		}

		tbl.AppendRow(table.Row{describePath(pos), byteRange[0], byteRange[1]})
	}

	tbl.Render()

	if result.Diagnostic != "" {
		color.New(color.FgYellow).Fprintf(os.Stdout, "\n%s\n", result.Diagnostic)
	}
}

func describePath(path refs.Path) string {
	parts := make([]string, len(path))
	for i, step := range path {
		parts[i] = strconv.Itoa(step.ChildIndex)
	}

	return strings.Join(parts, ".")
}

// walkDotPath descends from root following dot-separated child indices,
// building the [refs.Path] the store's reference resolver expects (each
// step's Ancestor is the id actually visited while descending). It returns
// both the path and the id it addresses.
func walkDotPath(store *hyperast.Store, root nodestore.ID, dotPath string) (refs.Path, nodestore.ID, error) {
	if dotPath == "" {
		return nil, root, nil
	}

	cur := root

	path := make(refs.Path, 0)

	for _, component := range strings.Split(dotPath, ".") {
		idx, convErr := strconv.Atoi(component)
		if convErr != nil || idx < 0 {
			return nil, 0, fmt.Errorf("%w: %q", errEmptyPathStep, component)
		}

		view, resolveErr := store.Resolve(cur)
		if resolveErr != nil {
			return nil, 0, resolveErr
		}

		if idx >= len(view.Children) {
			return nil, 0, fmt.Errorf("%w: index %d out of range (%d children)", errEmptyPathStep, idx, len(view.Children))
		}

		path = append(path, refs.Step{Ancestor: cur, ChildIndex: idx})
		cur = view.Children[idx]
	}

	return path, cur, nil
}
