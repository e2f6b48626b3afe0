package opensearch

import (
	"context"
	"errors"

	"github.com/opensearch-project/opensearch-go/v2"
)

// Healthcheck returns a probe calling the cluster info endpoint, for
// readiness endpoints. Error statuses count as failures.
func Healthcheck(client *opensearch.Client) func(context.Context) error {
	return func(ctx context.Context) error {
		res, err := client.Info(client.Info.WithContext(ctx))
		if err != nil {
			return errors.Join(ErrHealthcheckFailed, err)
		}
		defer res.Body.Close()
		if err := ResponseError(res); err != nil {
			return errors.Join(ErrHealthcheckFailed, err)
		}
		return nil
	}
}
