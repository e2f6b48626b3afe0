// Package snapshot exports features and properties to a YAML or JSON
// document and imports them back.
//
// Import writes through the feature and property stores, so every imported
// entity produces the same listener notifications, and therefore the same
// audit events, as a manual change would.
//
//	snap, err := snapshot.Export(ctx, features, properties)
//	if err != nil {
//		return err
//	}
//	err = snapshot.Save(ctx, bucket, "nightly.yaml", snap)
//
// Buckets are a local directory (DirBucket) or an S3 bucket (S3Bucket).
package snapshot
