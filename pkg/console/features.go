package console

import (
	"cmp"
	"maps"
	"net/http"
	"slices"

	"github.com/go-chi/chi/v5"

	"github.com/dmitrymomot/flagkit/pkg/binder"
	"github.com/dmitrymomot/flagkit/pkg/feature"
)

type featureRequest struct {
	UID              string                `json:"uid"`
	Description      string                `json:"description"`
	Owner            string                `json:"owner"`
	Enabled          bool                  `json:"enabled"`
	Group            string                `json:"group"`
	Permissions      []string              `json:"permissions"`
	Strategy         *feature.StrategySpec `json:"strategy"`
	CustomProperties map[string]string     `json:"custom_properties"`
}

func (req featureRequest) feature(uid string) *feature.Feature {
	f := feature.New(uid, req.Enabled)
	f.Description = req.Description
	f.Owner = req.Owner
	f.Group = req.Group
	f.Permissions = req.Permissions
	f.Strategy = req.Strategy
	f.CustomProperties = req.CustomProperties
	return f
}

func sortedFeatures(all map[string]*feature.Feature) []*feature.Feature {
	return slices.SortedFunc(maps.Values(all), func(a, b *feature.Feature) int {
		return cmp.Compare(a.UID, b.UID)
	})
}

func (c *Console) listFeatures(r *http.Request) Response {
	all, err := c.features.FindAll(r.Context())
	if err != nil {
		return JSONError(err)
	}
	return JSON(sortedFeatures(all))
}

func (c *Console) getFeature(r *http.Request) Response {
	f, err := c.features.FindByID(r.Context(), chi.URLParam(r, "uid"))
	if err != nil {
		return JSONError(err)
	}
	return JSON(f)
}

func (c *Console) createFeature(r *http.Request) Response {
	var req featureRequest
	if err := binder.JSON()(r, &req); err != nil {
		return JSONError(err)
	}
	f := req.feature(req.UID)
	if err := c.committed(r.Context(), c.features.Create(r.Context(), f)); err != nil {
		return JSONError(err)
	}
	return JSON(f, WithStatus(http.StatusCreated))
}

// updateFeature replaces the feature; the uid comes from the path.
func (c *Console) updateFeature(r *http.Request) Response {
	var req featureRequest
	if err := binder.JSON()(r, &req); err != nil {
		return JSONError(err)
	}
	f := req.feature(chi.URLParam(r, "uid"))
	if err := c.committed(r.Context(), c.features.Update(r.Context(), f)); err != nil {
		return JSONError(err)
	}
	return JSON(f)
}

func (c *Console) deleteFeature(r *http.Request) Response {
	if err := c.committed(r.Context(), c.features.Delete(r.Context(), chi.URLParam(r, "uid"))); err != nil {
		return JSONError(err)
	}
	return Empty()
}

func (c *Console) toggleFeature(enabled bool) func(r *http.Request) Response {
	return func(r *http.Request) Response {
		uid := chi.URLParam(r, "uid")
		toggle := c.features.ToggleOff
		if enabled {
			toggle = c.features.ToggleOn
		}
		if err := c.committed(r.Context(), toggle(r.Context(), uid)); err != nil {
			return JSONError(err)
		}
		return c.getFeature(r)
	}
}

type checkResult struct {
	UID     string `json:"uid"`
	Enabled bool   `json:"enabled"`
}

// checkFeature evaluates the feature for the calling user. It counts as a hit.
func (c *Console) checkFeature(r *http.Request) Response {
	uid := chi.URLParam(r, "uid")
	on, err := c.features.Check(r.Context(), uid)
	if err != nil {
		return JSONError(err)
	}
	return JSON(checkResult{UID: uid, Enabled: on})
}

func (c *Console) grantRole(r *http.Request) Response {
	err := c.features.GrantRole(r.Context(), chi.URLParam(r, "uid"), chi.URLParam(r, "role"))
	if err = c.committed(r.Context(), err); err != nil {
		return JSONError(err)
	}
	return c.getFeature(r)
}

func (c *Console) removeRole(r *http.Request) Response {
	err := c.features.RemoveRole(r.Context(), chi.URLParam(r, "uid"), chi.URLParam(r, "role"))
	if err = c.committed(r.Context(), err); err != nil {
		return JSONError(err)
	}
	return c.getFeature(r)
}

func (c *Console) addToGroup(r *http.Request) Response {
	err := c.features.AddToGroup(r.Context(), chi.URLParam(r, "uid"), chi.URLParam(r, "group"))
	if err = c.committed(r.Context(), err); err != nil {
		return JSONError(err)
	}
	return c.getFeature(r)
}

func (c *Console) removeFromGroup(r *http.Request) Response {
	err := c.features.RemoveFromGroup(r.Context(), chi.URLParam(r, "uid"), chi.URLParam(r, "group"))
	if err = c.committed(r.Context(), err); err != nil {
		return JSONError(err)
	}
	return c.getFeature(r)
}

func (c *Console) listGroups(r *http.Request) Response {
	groups, err := c.features.ReadAllGroups(r.Context())
	if err != nil {
		return JSONError(err)
	}
	if groups == nil {
		groups = []string{}
	}
	return JSON(groups)
}

func (c *Console) readGroup(r *http.Request) Response {
	members, err := c.features.ReadGroup(r.Context(), chi.URLParam(r, "group"))
	if err != nil {
		return JSONError(err)
	}
	return JSON(sortedFeatures(members))
}

func (c *Console) toggleGroup(enabled bool) func(r *http.Request) Response {
	return func(r *http.Request) Response {
		toggle := c.features.DisableGroup
		if enabled {
			toggle = c.features.EnableGroup
		}
		if err := c.committed(r.Context(), toggle(r.Context(), chi.URLParam(r, "group"))); err != nil {
			return JSONError(err)
		}
		return c.readGroup(r)
	}
}
