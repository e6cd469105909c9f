package utils

import (
	"testing"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewULIDFromTimestamp(t *testing.T) {
	ts := time.Date(2024, time.January, 2, 3, 4, 5, 0, time.UTC)

	id, err := New().NewULIDFromTimestamp(ts)
	require.NoError(t, err)
	assert.Len(t, id, 26)

	parsed, err := ulid.ParseStrict(id)
	require.NoError(t, err)
	assert.Equal(t, ulid.Timestamp(ts), parsed.Time())
}
