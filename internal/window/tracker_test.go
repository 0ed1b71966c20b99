package window

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrackerTryAcquireOncePerKey(t *testing.T) {
	tr := NewTracker()
	k := FetchKey{Handle: testHandle, Offset: 20}
	require.True(t, tr.TryAcquire(k, 20))
	assert.False(t, tr.TryAcquire(k, 20))
	assert.True(t, tr.Pending(k))

	other := FetchKey{Handle: Handle{ThingID: "x", Property: "children"}, Offset: 20}
	assert.True(t, tr.TryAcquire(other, 20), "keys differ by handle")

	tr.Release(k)
	assert.False(t, tr.Pending(k))
	assert.True(t, tr.TryAcquire(k, 20))
}

func TestTrackerScopedRelease(t *testing.T) {
	tr := NewTracker()
	k := FetchKey{Handle: testHandle, Offset: 0}
	release, ok := tr.Acquire(k, 20)
	require.True(t, ok)
	_, ok = tr.Acquire(k, 20)
	require.False(t, ok)

	release()
	release()
	assert.Equal(t, 0, tr.Len())
}

func TestTrackerStaleReleaseKeepsNewerAcquisition(t *testing.T) {
	tr := NewTracker()
	k := FetchKey{Handle: testHandle, Offset: 0}
	old, ok := tr.Acquire(k, 20)
	require.True(t, ok)
	tr.Reset()
	_, ok = tr.Acquire(k, 20)
	require.True(t, ok)

	old()
	assert.True(t, tr.Pending(k))
}

func TestTrackerCoveringAndNextStart(t *testing.T) {
	tr := NewTracker()
	require.True(t, tr.TryAcquire(FetchKey{Handle: testHandle, Offset: 20}, 20))
	require.True(t, tr.TryAcquire(FetchKey{Handle: testHandle, Offset: 80}, 20))

	p, ok := tr.Covering(testHandle, 39)
	require.True(t, ok)
	assert.Equal(t, 20, p.Key.Offset)
	_, ok = tr.Covering(testHandle, 40)
	assert.False(t, ok)
	_, ok = tr.Covering(Handle{ThingID: "x", Property: "children"}, 25)
	assert.False(t, ok)

	next, ok := tr.NextStart(testHandle, 40)
	require.True(t, ok)
	assert.Equal(t, 80, next)
	next, ok = tr.NextStart(testHandle, 0)
	require.True(t, ok)
	assert.Equal(t, 20, next)
	_, ok = tr.NextStart(testHandle, 80)
	assert.False(t, ok)
	assert.Len(t, tr.Snapshot(), 2)
}
