package config

import (
	"testing"

	"github.com/gofrs/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateUniqueInstance(t *testing.T) {
	id := CreateUniqueInstance("bingo")

	parsed, err := uuid.FromString(id)
	require.NoError(t, err)
	assert.Equal(t, byte(4), parsed.Version())
	assert.Equal(t, id, GetInstanceId())

	// each service start gets its own id
	assert.NotEqual(t, id, CreateUniqueInstance("bingo"))
}
