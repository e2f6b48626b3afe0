package mongo_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	driver "go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/dmitrymomot/flagkit/pkg/mongo"
)

func TestIsNotFoundError(t *testing.T) {
	t.Parallel()

	assert.True(t, mongo.IsNotFoundError(driver.ErrNoDocuments))
	assert.True(t, mongo.IsNotFoundError(fmt.Errorf("find: %w", driver.ErrNoDocuments)))
	assert.False(t, mongo.IsNotFoundError(errors.New("timeout")))
}

func TestNew_EmptyURL(t *testing.T) {
	t.Parallel()

	_, err := mongo.New(context.Background(), mongo.Config{})
	assert.ErrorIs(t, err, mongo.ErrEmptyConnectionURL)
}
