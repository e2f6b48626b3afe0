package binder_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/flagkit/pkg/binder"
	"github.com/dmitrymomot/flagkit/pkg/repository"
)

type searchRequest struct {
	From    *int64        `query:"from"`
	To      *int64        `query:"to"`
	Scope   string        `query:"scope"`
	Roles   []string      `query:"roles"`
	Verbose bool          `query:"verbose"`
	Window  time.Duration `query:"window"`
	Ignored string        `query:"-"`
}

func TestQuery(t *testing.T) {
	t.Parallel()

	t.Run("binds values", func(t *testing.T) {
		t.Parallel()

		r := httptest.NewRequest(http.MethodGet, "/audit?from=10&scope=FEATURE&roles=a,b&roles=c&verbose=yes&window=1h&Ignored=x", nil)
		var req searchRequest
		require.NoError(t, binder.Query()(r, &req))

		require.NotNil(t, req.From)
		assert.Equal(t, int64(10), *req.From)
		assert.Nil(t, req.To)
		assert.Equal(t, "FEATURE", req.Scope)
		assert.Equal(t, []string{"a", "b", "c"}, req.Roles)
		assert.True(t, req.Verbose)
		assert.Equal(t, time.Hour, req.Window)
		assert.Empty(t, req.Ignored)
	})

	t.Run("invalid number", func(t *testing.T) {
		t.Parallel()

		r := httptest.NewRequest(http.MethodGet, "/audit?from=yesterday", nil)
		var req searchRequest
		err := binder.Query()(r, &req)
		assert.ErrorIs(t, err, binder.ErrFailedToParseQuery)
		assert.ErrorIs(t, err, repository.ErrInvalidArgument)
	})

	t.Run("non pointer target", func(t *testing.T) {
		t.Parallel()

		r := httptest.NewRequest(http.MethodGet, "/", nil)
		assert.ErrorIs(t, binder.Query()(r, searchRequest{}), binder.ErrFailedToParseQuery)
	})
}

type toggleRequest struct {
	UID     string `path:"uid" json:"-"`
	Enabled bool   `path:"-" json:"enabled"`
}

func TestJSONAndPath(t *testing.T) {
	t.Parallel()

	params := map[string]string{"uid": "beta"}
	extract := func(_ *http.Request, name string) string { return params[name] }

	t.Run("combined", func(t *testing.T) {
		t.Parallel()

		r := httptest.NewRequest(http.MethodPut, "/features/beta", strings.NewReader(`{"enabled":true}`))
		r.Header.Set("Content-Type", "application/json; charset=utf-8")

		var req toggleRequest
		require.NoError(t, binder.Bind(r, &req, binder.JSON(), binder.Path(extract)))
		assert.Equal(t, "beta", req.UID)
		assert.True(t, req.Enabled)
	})

	cases := []struct {
		name        string
		contentType string
		body        string
		want        error
	}{
		{"missing content type", "", `{}`, binder.ErrMissingContentType},
		{"wrong media type", "text/plain", `{}`, binder.ErrUnsupportedMediaType},
		{"empty body", "application/json", ``, binder.ErrFailedToParseJSON},
		{"unknown field", "application/json", `{"enabled":true,"extra":1}`, binder.ErrFailedToParseJSON},
		{"trailing data", "application/json", `{"enabled":true}{}`, binder.ErrFailedToParseJSON},
		{"wrong type", "application/json", `{"enabled":"maybe"}`, binder.ErrFailedToParseJSON},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			r := httptest.NewRequest(http.MethodPut, "/features/beta", strings.NewReader(tc.body))
			if tc.contentType != "" {
				r.Header.Set("Content-Type", tc.contentType)
			}
			var req toggleRequest
			err := binder.JSON()(r, &req)
			assert.ErrorIs(t, err, tc.want)
			assert.ErrorIs(t, err, repository.ErrInvalidArgument)
		})
	}

	t.Run("nil extractor", func(t *testing.T) {
		t.Parallel()

		r := httptest.NewRequest(http.MethodGet, "/", nil)
		var req toggleRequest
		assert.ErrorIs(t, binder.Path(nil)(r, &req), binder.ErrFailedToParsePath)
	})
}
