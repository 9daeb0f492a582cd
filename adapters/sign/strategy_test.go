package sign

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"goenso/domain/core"
)

func TestForStrategy_KnownNames(t *testing.T) {
	loading, err := ForStrategy("loading-box")
	require.NoError(t, err)
	assert.Equal(t, "loading-box", loading.Name())

	byDefault, err := ForStrategy("")
	require.NoError(t, err)
	assert.Equal(t, "loading-box", byDefault.Name())

	event, err := ForStrategy("event-window")
	require.NoError(t, err)
	assert.Equal(t, "event-window", event.Name())
}

func TestForStrategy_UnknownName(t *testing.T) {
	_, err := ForStrategy("coin-flip")
	require.Error(t, err)
	assert.True(t, core.IsInvalidArgument(err))
}
