package mongo

import (
	"errors"

	"go.mongodb.org/mongo-driver/v2/mongo"
)

var (
	ErrFailedToConnectToMongo = errors.New("mongo: failed to connect")
	ErrEmptyConnectionURL     = errors.New("mongo: empty connection URL, set MONGODB_URL")
	ErrHealthcheckFailed      = errors.New("mongo: healthcheck failed")
)

// IsNotFoundError reports whether err is mongo.ErrNoDocuments.
func IsNotFoundError(err error) bool {
	return errors.Is(err, mongo.ErrNoDocuments)
}

// IsDuplicateKeyError reports a unique index violation.
func IsDuplicateKeyError(err error) bool {
	return mongo.IsDuplicateKeyError(err)
}
