package console

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/dmitrymomot/flagkit/pkg/binder"
	"github.com/dmitrymomot/flagkit/pkg/repository"
	"github.com/dmitrymomot/flagkit/pkg/snapshot"
)

type snapshotRequest struct {
	Format  string `query:"format"`
	Replace bool   `query:"replace"`
}

func (req snapshotRequest) format() (snapshot.Format, error) {
	switch f := snapshot.Format(req.Format); f {
	case "":
		return snapshot.YAML, nil
	case snapshot.YAML, snapshot.JSON:
		return f, nil
	}
	return "", fmt.Errorf("%w: %q", snapshot.ErrUnknownFormat, req.Format)
}

// exportSnapshot writes every feature and property as YAML (default) or JSON.
func (c *Console) exportSnapshot(r *http.Request) Response {
	var req snapshotRequest
	if err := binder.Query()(r, &req); err != nil {
		return JSONError(err)
	}
	format, err := req.format()
	if err != nil {
		return JSONError(err)
	}
	snap, err := snapshot.Export(r.Context(), c.features, c.properties)
	if err != nil {
		return JSONError(err)
	}

	var buf bytes.Buffer
	if err := snapshot.Encode(&buf, snap, format); err != nil {
		return JSONError(err)
	}
	contentType := "application/yaml"
	if format == snapshot.JSON {
		contentType = "application/json"
	}
	return rawResponse{contentType: contentType, body: buf.Bytes()}
}

// maxSnapshotSize bounds the import body.
const maxSnapshotSize = 16 << 20

// importSnapshot loads the body into the stores. ?replace=true clears them first.
func (c *Console) importSnapshot(r *http.Request) Response {
	var req snapshotRequest
	if err := binder.Query()(r, &req); err != nil {
		return JSONError(err)
	}
	format, err := req.format()
	if err != nil {
		return JSONError(err)
	}

	snap, err := snapshot.Decode(http.MaxBytesReader(nil, r.Body, maxSnapshotSize), format)
	if err != nil {
		return JSONError(err)
	}
	if len(snap.Properties) > 0 && c.properties == nil {
		return JSONError(fmt.Errorf("%w: property store is not configured", repository.ErrInvalidArgument))
	}

	opts := []snapshot.ImportOption{snapshot.WithLogger(c.log)}
	if req.Replace {
		opts = append(opts, snapshot.WithReplace())
	}
	rep, err := snapshot.Import(r.Context(), snap, c.features, c.properties, opts...)
	if err != nil {
		return JSONError(err, WithMeta(rep))
	}
	return JSON(rep)
}
