package main

import (
	"bytes"
	"strings"
	"testing"
)

func TestHyperastCLI_IngestCommand_CheckspointsAndResumes(t *testing.T) {
	t.Parallel()

	path := writeTempJSON(t, `{
		"root": {
			"kind": "File",
			"children": [{"kind": "Identifier", "label": "foo"}]
		}
	}`)
	checkpointDir := t.TempDir()

	rootCmd := buildTestRootCmd()
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"ingest", path, "--checkpoint-dir", checkpointDir})

	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("ingest command failed: %v", err)
	}

	// Re-running against the same document should restore from the
	// checkpoint rather than erroring.
	rootCmd2 := buildTestRootCmd()
	buf2 := new(bytes.Buffer)
	rootCmd2.SetOut(buf2)
	rootCmd2.SetArgs([]string{"ingest", path, "--checkpoint-dir", checkpointDir})

	if err := rootCmd2.Execute(); err != nil {
		t.Fatalf("resumed ingest command failed: %v", err)
	}
}

func TestHyperastCLI_IngestCommand_ReportsMetrics(t *testing.T) {
	t.Parallel()

	path := writeTempJSON(t, `{
		"root": {
			"kind": "File",
			"children": [
				{"kind": "Identifier", "label": "foo"},
				{"kind": "Identifier", "label": "bar"}
			]
		}
	}`)

	rootCmd := buildTestRootCmd()
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"ingest", path})

	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("ingest command failed: %v", err)
	}
}

func TestHyperastCLI_DiffCommand_ReportsActions(t *testing.T) {
	t.Parallel()

	oldPath := writeTempJSON(t, `{
		"root": {
			"kind": "File",
			"children": [{"kind": "Identifier", "label": "foo"}]
		}
	}`)
	newPath := writeTempJSON(t, `{
		"root": {
			"kind": "File",
			"children": [{"kind": "Identifier", "label": "bar"}]
		}
	}`)

	rootCmd := buildTestRootCmd()
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"diff", oldPath, newPath})

	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("diff command failed: %v", err)
	}
}

func TestHyperastCLI_DiffCommand_TextFlagIncludesLineDiff(t *testing.T) {
	t.Parallel()

	oldPath := writeTempJSON(t, `{"root":{"kind":"File","children":[{"kind":"Identifier","label":"foo"}]}}`)
	newPath := writeTempJSON(t, `{"root":{"kind":"File","children":[{"kind":"Identifier","label":"bar"}]}}`)

	rootCmd := buildTestRootCmd()
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"diff", "--text", oldPath, newPath})

	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("diff --text command failed: %v", err)
	}

	if !strings.Contains(buf.String(), "text diff:") {
		t.Errorf("expected text diff header in output, got: %s", buf.String())
	}
}

func TestHyperastCLI_ReferencesCommand_ResolvesScopedIdentifier(t *testing.T) {
	t.Parallel()

	// root -> Block(0) -> [ Identifier "x" (decl, index 0), Identifier "x" (use, index 1) ]
	path := writeTempJSON(t, `{
		"root": {
			"kind": "File",
			"children": [
				{
					"kind": "Block",
					"children": [
						{"kind": "Identifier", "label": "x", "role": "name"},
						{"kind": "Identifier", "label": "x", "role": "name"}
					]
				}
			]
		}
	}`)

	rootCmd := buildTestRootCmd()
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs([]string{"references", "--scope", "0", path, "0"})

	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("references command failed: %v", err)
	}

	if !strings.Contains(buf.String(), "Byte Start") {
		t.Errorf("expected a positions table in output, got: %s", buf.String())
	}
}

func TestHyperastCLI_ReferencesCommand_RejectsOutOfRangePath(t *testing.T) {
	t.Parallel()

	path := writeTempJSON(t, `{"root": {"kind": "File", "children": [{"kind": "Identifier", "label": "foo"}]}}`)

	rootCmd := buildTestRootCmd()
	rootCmd.SetArgs([]string{"references", path, "99"})

	if err := rootCmd.Execute(); err == nil {
		t.Fatal("expected an error resolving an out-of-range decl-path, got nil")
	}
}
