package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConnect_RequiresDatabaseName(t *testing.T) {
	_, err := Connect(context.Background(), "mongodb://localhost:27017", "")
	assert.ErrorIs(t, err, ErrNoDatabase)
}

func TestConnect_RejectsMalformedURI(t *testing.T) {
	_, err := Connect(context.Background(), "not-a-mongo-uri", "bazar")
	require.Error(t, err)
	assert.ErrorContains(t, err, "mongo connect bazar")
}

func TestClientOptions(t *testing.T) {
	opts := clientOptions("mongodb://localhost:27017")

	require.NotNil(t, opts.AppName)
	assert.Equal(t, appName, *opts.AppName)
	require.NotNil(t, opts.MaxPoolSize)
	assert.EqualValues(t, maxCatalogConns, *opts.MaxPoolSize)
	require.NotNil(t, opts.RetryWrites)
	assert.True(t, *opts.RetryWrites)
	assert.Equal(t, []string{"localhost:27017"}, opts.Hosts)
}
