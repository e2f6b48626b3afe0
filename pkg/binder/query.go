package binder

import "net/http"

// Query returns a binder filling fields tagged `query:"name"` from the URL
// query. Slices accept repeated parameters and comma separated lists.
//
//	type auditRequest struct {
//		From  *int64 `query:"from"`
//		Scope string `query:"scope"`
//	}
func Query() func(r *http.Request, v any) error {
	return func(r *http.Request, v any) error {
		q := r.URL.Query()
		return bindToStruct(v, "query", func(name string) []string { return q[name] }, ErrFailedToParseQuery)
	}
}
