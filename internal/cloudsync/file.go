package cloudsync

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/Veraticus/phonocorrect/internal/common"
)

// DefaultFileName is the document name FileClient uses inside its directory.
const DefaultFileName = "rules.json"

var _ Client = (*FileClient)(nil)

// FileClient syncs through a shared directory, such as a mounted drive.
type FileClient struct {
	now  func() time.Time
	path string
}

// NewFileClient creates a client that keeps the document in dir.
func NewFileClient(dir string) (*FileClient, error) {
	if dir == "" {
		return nil, fmt.Errorf("%w: sync directory is empty", common.ErrInvalidConfig)
	}
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create sync directory: %w", err)
	}
	return &FileClient{path: filepath.Join(dir, DefaultFileName), now: time.Now}, nil
}

// Path returns the document location.
func (c *FileClient) Path() string {
	return c.path
}

// Push writes data to a temp file and renames it into place.
func (c *FileClient) Push(ctx context.Context, data []byte) (Ack, error) {
	if err := ctx.Err(); err != nil {
		return Ack{}, err
	}

	tmp, err := os.CreateTemp(filepath.Dir(c.path), ".rules-*.json")
	if err != nil {
		return Ack{}, fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return Ack{}, fmt.Errorf("failed to write sync document: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return Ack{}, fmt.Errorf("failed to close sync document: %w", err)
	}
	if err := os.Rename(tmpName, c.path); err != nil {
		return Ack{}, fmt.Errorf("failed to move sync document into place: %w", err)
	}

	return Ack{StoredAt: c.now(), Revision: revision(data), Bytes: len(data)}, nil
}

// Pull reads the stored document.
func (c *FileClient) Pull(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(c.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, common.Permanent(fmt.Errorf("sync document %s: %w", c.path, common.ErrNotFound))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read sync document: %w", err)
	}
	return data, nil
}
