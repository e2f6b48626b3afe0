package opensearch

import (
	"errors"
	"fmt"

	"github.com/opensearch-project/opensearch-go/v2/opensearchapi"
)

var (
	ErrNoAddresses       = errors.New("opensearch: no addresses, set OPENSEARCH_ADDRESSES")
	ErrConnectionFailed  = errors.New("opensearch: connection failed")
	ErrHealthcheckFailed = errors.New("opensearch: healthcheck failed")
	ErrRequestFailed     = errors.New("opensearch: request failed")
)

// ResponseError turns an error status into ErrRequestFailed carrying the
// response text. It returns nil for successful responses.
func ResponseError(res *opensearchapi.Response) error {
	if res == nil || !res.IsError() {
		return nil
	}
	return fmt.Errorf("%w: %s", ErrRequestFailed, res.String())
}
