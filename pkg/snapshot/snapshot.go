package snapshot

import (
	"cmp"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/dmitrymomot/flagkit/pkg/feature"
	"github.com/dmitrymomot/flagkit/pkg/property"
)

// Version is the document format written by Encode.
const Version = 1

// Format is the serialization of a snapshot document.
type Format string

const (
	YAML Format = "yaml"
	JSON Format = "json"
)

// FormatFromPath picks the format from a file extension, defaulting to YAML.
func FormatFromPath(path string) Format {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return JSON
	}
	return YAML
}

// Snapshot is a portable copy of every feature and property.
// Creation and modification dates are not part of the YAML form.
type Snapshot struct {
	Version    int                  `json:"version" yaml:"version"`
	ExportedAt time.Time            `json:"exported_at" yaml:"exported_at"`
	Features   []*feature.Feature   `json:"features" yaml:"features"`
	Properties []*property.Property `json:"properties" yaml:"properties"`
}

// Export reads both stores. Entities are sorted by uid so documents diff well.
// A nil store is skipped.
func Export(ctx context.Context, features *feature.Store, properties *property.Store) (*Snapshot, error) {
	snap := &Snapshot{Version: Version, ExportedAt: time.Now().UTC().Truncate(time.Second)}

	if features != nil {
		all, err := features.FindAll(ctx)
		if err != nil {
			return nil, fmt.Errorf("export features: %w", err)
		}
		snap.Features = slices.SortedFunc(maps.Values(all), func(a, b *feature.Feature) int {
			return cmp.Compare(a.UID, b.UID)
		})
	}
	if properties != nil {
		all, err := properties.FindAll(ctx)
		if err != nil {
			return nil, fmt.Errorf("export properties: %w", err)
		}
		snap.Properties = slices.SortedFunc(maps.Values(all), func(a, b *property.Property) int {
			return cmp.Compare(a.UID, b.UID)
		})
	}
	return snap, nil
}

// Encode writes the snapshot in the given format.
func Encode(w io.Writer, snap *Snapshot, f Format) error {
	switch f {
	case YAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(snap); err != nil {
			return err
		}
		return enc.Close()
	case JSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(snap)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, f)
	}
}

// Decode reads a snapshot. A missing version is read as Version.
func Decode(r io.Reader, f Format) (*Snapshot, error) {
	var snap Snapshot
	var err error
	switch f {
	case YAML:
		err = yaml.NewDecoder(r).Decode(&snap)
	case JSON:
		err = json.NewDecoder(r).Decode(&snap)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, f)
	}
	if err != nil && err != io.EOF {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	if snap.Version == 0 {
		snap.Version = Version
	}
	if snap.Version > Version {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, snap.Version)
	}
	for i, ft := range snap.Features {
		if ft == nil {
			return nil, fmt.Errorf("%w: empty feature at index %d", ErrMalformed, i)
		}
	}
	for i, p := range snap.Properties {
		if p == nil {
			return nil, fmt.Errorf("%w: empty property at index %d", ErrMalformed, i)
		}
	}
	return &snap, nil
}
