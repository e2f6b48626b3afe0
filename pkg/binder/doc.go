// Package binder decodes HTTP requests into tagged structs.
//
//	type updateRequest struct {
//		UID     string `path:"uid"`
//		Enabled bool   `json:"enabled"`
//	}
//
//	var req updateRequest
//	err := binder.Bind(r, &req, binder.JSON(), binder.Path(chi.URLParam))
//
// Every binding error matches repository.ErrInvalidArgument.
package binder
