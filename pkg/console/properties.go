package console

import (
	"cmp"
	"errors"
	"maps"
	"net/http"
	"slices"

	"github.com/go-chi/chi/v5"

	"github.com/dmitrymomot/flagkit/pkg/binder"
	"github.com/dmitrymomot/flagkit/pkg/property"
	"github.com/dmitrymomot/flagkit/pkg/repository"
)

type propertyRequest struct {
	Kind        property.Kind `json:"kind"`
	Value       string        `json:"value"`
	Description string        `json:"description"`
	Owner       string        `json:"owner"`
	FixedValues []string      `json:"fixed_values"`
}

func (c *Console) listProperties(r *http.Request) Response {
	all, err := c.properties.FindAll(r.Context())
	if err != nil {
		return JSONError(err)
	}
	return JSON(slices.SortedFunc(maps.Values(all), func(a, b *property.Property) int {
		return cmp.Compare(a.UID, b.UID)
	}))
}

func (c *Console) getProperty(r *http.Request) Response {
	p, err := c.properties.FindByID(r.Context(), chi.URLParam(r, "uid"))
	if err != nil {
		return JSONError(err)
	}
	return JSON(p)
}

// putProperty creates the property or replaces an existing one.
func (c *Console) putProperty(r *http.Request) Response {
	var req propertyRequest
	if err := binder.JSON()(r, &req); err != nil {
		return JSONError(err)
	}
	ctx := r.Context()
	p := property.New(chi.URLParam(r, "uid"), req.Kind, req.Value, req.FixedValues...)
	p.Description = req.Description
	p.Owner = req.Owner

	status := http.StatusOK
	err := c.properties.Update(ctx, p)
	if errors.Is(err, repository.ErrNotFound) {
		status = http.StatusCreated
		err = c.properties.Create(ctx, p)
	}
	if err = c.committed(ctx, err); err != nil {
		return JSONError(err)
	}
	return JSON(p, WithStatus(status))
}

func (c *Console) deleteProperty(r *http.Request) Response {
	if err := c.committed(r.Context(), c.properties.Delete(r.Context(), chi.URLParam(r, "uid"))); err != nil {
		return JSONError(err)
	}
	return Empty()
}
