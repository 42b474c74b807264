package keyhash

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHashAndMatch(t *testing.T) {
	hash, err := Hash("key-1")
	require.NoError(t, err)
	require.True(t, Match(hash, "key-1"))
	require.False(t, Match(hash, "key-2"))
	require.False(t, Match("not-a-hash", "key-1"))
}
