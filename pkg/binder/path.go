package binder

import (
	"fmt"
	"net/http"
)

// Path returns a binder filling fields tagged `path:"name"` through the
// router's extractor, for instance chi.URLParam.
func Path(extractor func(r *http.Request, name string) string) func(r *http.Request, v any) error {
	return func(r *http.Request, v any) error {
		if extractor == nil {
			return fmt.Errorf("%w: extractor is nil", ErrFailedToParsePath)
		}
		return bindToStruct(v, "path", func(name string) []string {
			if value := extractor(r, name); value != "" {
				return []string{value}
			}
			return nil
		}, ErrFailedToParsePath)
	}
}

// Bind applies binders in order and stops at the first failure.
func Bind(r *http.Request, v any, binders ...func(*http.Request, any) error) error {
	for _, b := range binders {
		if err := b(r, v); err != nil {
			return err
		}
	}
	return nil
}
