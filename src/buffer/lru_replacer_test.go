package buffer

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLRUReplacer_Unpin(t *testing.T) {
	replacer := NewLRUReplacer()

	for i := 0; i < 10; i++ {
		replacer.Unpin(i)
		require.Equal(t, i, replacer.sentinel.next.frameId)
		require.Contains(t, replacer.index, i)
	}
	require.Equal(t, 10, replacer.Size())
}

func TestLRUReplacer_UnpinTwiceKeepsRecency(t *testing.T) {
	replacer := NewLRUReplacer()
	replacer.Unpin(0)
	replacer.Unpin(1)
	replacer.Unpin(2)

	// A second unpin of a tracked frame must not refresh it.
	replacer.Unpin(0)
	frameId, ok := replacer.Victim()
	require.Equal(t, true, ok)
	require.Equal(t, 0, frameId)
}

func TestLRUReplacer_Pin(t *testing.T) {
	replacer := NewLRUReplacer()
	for i := 0; i < 10; i++ {
		replacer.Unpin(i)
	}

	replacer.Pin(5)
	require.NotContains(t, replacer.index, 5)
	// The chain closes over the removed node.
	require.Equal(t, replacer.index[4], replacer.index[6].next)
	require.Equal(t, replacer.index[6], replacer.index[4].prev)

	// Pinning an untracked frame changes nothing.
	replacer.Pin(5)
	require.Equal(t, 9, replacer.Size())
}

func TestLRUReplacer_Victim(t *testing.T) {
	replacer := NewLRUReplacer()
	for i := 0; i < 10; i++ {
		replacer.Unpin(i)
	}
	for i := 0; i < 10; i++ {
		frameId, ok := replacer.Victim()
		require.Equal(t, true, ok)
		require.Equal(t, i, frameId)
	}
	_, ok := replacer.Victim()
	require.Equal(t, false, ok)

	// An emptied replacer is still usable.
	replacer.Unpin(3)
	frameId, ok := replacer.Victim()
	require.Equal(t, true, ok)
	require.Equal(t, 3, frameId)
}

func TestLRUReplacer_Hybrid(t *testing.T) {
	replacer := NewLRUReplacer()
	for i := 0; i < 10; i++ {
		replacer.Unpin(i)
	}
	replacer.Pin(0)
	replacer.Pin(3)
	replacer.Pin(5)

	frameId, ok := replacer.Victim()
	require.Equal(t, true, ok)
	require.Equal(t, 1, frameId)
	frameId, ok = replacer.Victim()
	require.Equal(t, true, ok)
	require.Equal(t, 2, frameId)
	frameId, ok = replacer.Victim()
	require.Equal(t, true, ok)
	require.Equal(t, 4, frameId)

	replacer.Unpin(5)
	frameId, ok = replacer.Victim()
	require.Equal(t, true, ok)
	require.Equal(t, 6, frameId)
}
