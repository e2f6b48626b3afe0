// Package opensearch builds an opensearch-go/v2 client from environment
// configuration and checks the cluster is reachable.
//
//	var cfg opensearch.Config
//	_ = env.Parse(&cfg)
//
//	client, err := opensearch.New(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	trail := searchtrail.New(client, cfg.AuditIndex)
//
// ResponseError converts error statuses, which the client does not report
// as Go errors, into ErrRequestFailed.
package opensearch
