package checkpoint

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/pierrec/lz4/v4"
)

// documentFile is the name of the lz4-compressed document payload within a
// checkpoint's component directory.
const documentFile = "document.json.lz4"

// filePerm is the permission mode for checkpoint payload files.
const filePerm = 0o600

// DocumentCheckpoint is a [Checkpointable] that snapshots a single
// wire-format ingest document's raw bytes, lz4-compressed, so a batch
// ingest can resume without re-reading (and re-validating) the original
// input.
type DocumentCheckpoint struct {
	// Data holds the document bytes. Save compresses it to disk; Load
	// overwrites it with the decompressed contents.
	Data []byte
}

// SaveCheckpoint implements [Checkpointable].
func (d *DocumentCheckpoint) SaveCheckpoint(dir string) error {
	path := filepath.Join(dir, documentFile)

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, filePerm) //nolint:gosec // path is Manager-controlled.
	if err != nil {
		return fmt.Errorf("create document checkpoint: %w", err)
	}
	defer f.Close()

	zw := lz4.NewWriter(f)

	if _, err := zw.Write(d.Data); err != nil {
		return fmt.Errorf("compress document checkpoint: %w", err)
	}

	if err := zw.Close(); err != nil {
		return fmt.Errorf("flush document checkpoint: %w", err)
	}

	return nil
}

// LoadCheckpoint implements [Checkpointable].
func (d *DocumentCheckpoint) LoadCheckpoint(dir string) error {
	path := filepath.Join(dir, documentFile)

	f, err := os.Open(path) //nolint:gosec // path is Manager-controlled, not user input.
	if err != nil {
		return fmt.Errorf("open document checkpoint: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(lz4.NewReader(f))
	if err != nil {
		return fmt.Errorf("decompress document checkpoint: %w", err)
	}

	d.Data = data

	return nil
}

// CheckpointSize implements [Checkpointable], reporting the uncompressed
// size of the document bytes.
func (d *DocumentCheckpoint) CheckpointSize() int64 {
	return int64(len(d.Data))
}

var _ Checkpointable = (*DocumentCheckpoint)(nil)
