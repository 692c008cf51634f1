package store

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPairKey(t *testing.T) {
	require.Equal(t, PairKey("a", "b"), PairKey("b", "a"))
	require.NotEqual(t, PairKey("a:b", "c"), PairKey("a", "b:c"))
	require.NotEqual(t, PairKey("u1", "u2:u3"), PairKey("u1:u2", "u3"))
}
