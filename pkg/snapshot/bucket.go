package snapshot

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/dmitrymomot/flagkit/pkg/repository"
)

// Bucket stores encoded snapshots under keys.
type Bucket interface {
	Put(ctx context.Context, key string, data []byte) error

	// Get returns ErrSnapshotNotFound when nothing is stored under key.
	Get(ctx context.Context, key string) ([]byte, error)
}

// Save encodes the snapshot in the format implied by the key extension and
// writes it to the bucket.
func Save(ctx context.Context, b Bucket, key string, snap *Snapshot) error {
	var buf bytes.Buffer
	if err := Encode(&buf, snap, FormatFromPath(key)); err != nil {
		return err
	}
	return b.Put(ctx, key, buf.Bytes())
}

// Load reads and decodes the snapshot stored under key.
func Load(ctx context.Context, b Bucket, key string) (*Snapshot, error) {
	data, err := b.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	return Decode(bytes.NewReader(data), FormatFromPath(key))
}

// DirBucket keeps snapshots as files under a directory.
type DirBucket struct {
	root string
}

func NewDirBucket(root string) *DirBucket {
	return &DirBucket{root: root}
}

func (b *DirBucket) Put(_ context.Context, key string, data []byte) error {
	path, err := b.path(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return repository.Unavailable(err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return repository.Unavailable(err)
	}
	return repository.Unavailable(os.Rename(tmp, path))
}

func (b *DirBucket) Get(_ context.Context, key string) ([]byte, error) {
	path, err := b.path(key)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrSnapshotNotFound, key)
	}
	if err != nil {
		return nil, repository.Unavailable(err)
	}
	return data, nil
}

// path rejects keys escaping the root.
func (b *DirBucket) path(key string) (string, error) {
	if !filepath.IsLocal(key) {
		return "", fmt.Errorf("%w: invalid snapshot key %q", repository.ErrInvalidArgument, key)
	}
	return filepath.Join(b.root, key), nil
}
