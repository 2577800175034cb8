package tracker

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTracker(order []string) *Tracker {
	return New(order, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

// drain pulls every releasable notification.
func drain(t *Tracker) []Notification {
	var out []Notification
	for {
		n, ok := t.Next()
		if !ok {
			return out
		}
		out = append(out, n)
	}
}

func TestTrackerReleasesInTopologicalOrder(t *testing.T) {
	tr := newTestTracker([]string{"a", "b", "c"})
	tr.Plan(map[string]int{"a": 2, "c": 1})

	// Nothing resolved yet.
	_, ok := tr.Next()
	assert.False(t, ok)

	done, expected, err := tr.Update("a", 0)
	require.NoError(t, err)
	assert.Equal(t, 1, done)
	assert.Equal(t, 2, expected)

	// a is mid-flight, the cursor must hold.
	_, ok = tr.Next()
	assert.False(t, ok)

	done, expected, err = tr.Update("a", 1)
	require.NoError(t, err)
	assert.Equal(t, 2, done)
	assert.Equal(t, 2, expected)

	n, ok := tr.Next()
	require.True(t, ok)
	assert.Equal(t, Notification{Name: "a", Updated: true}, n)

	// b was excluded from the plan and resolves without any update.
	n, ok = tr.Next()
	require.True(t, ok)
	assert.Equal(t, Notification{Name: "b", Updated: false}, n)

	// c has not completed its batch yet.
	_, ok = tr.Next()
	assert.False(t, ok)

	_, _, err = tr.Update("c", 0)
	require.NoError(t, err)

	n, ok = tr.Next()
	require.True(t, ok)
	assert.Equal(t, Notification{Name: "c", Updated: true}, n)

	// Exhausted.
	_, ok = tr.Next()
	assert.False(t, ok)
}

func TestTrackerReversedArrivalOrder(t *testing.T) {
	order := []string{"a", "b", "c", "d"}
	tr := newTestTracker(order)
	tr.Plan(map[string]int{"a": 1, "b": 1, "c": 1, "d": 1})

	// Completions arrive in exactly the reverse topological order.
	for _, name := range []string{"d", "c", "b"} {
		_, _, err := tr.Update(name, 0)
		require.NoError(t, err)
		_, ok := tr.Next()
		assert.False(t, ok, "nothing may release while a is pending (just completed %q)", name)
	}

	_, _, err := tr.Update("a", 0)
	require.NoError(t, err)

	notifications := drain(tr)
	require.Len(t, notifications, 4)
	for i, name := range order {
		assert.Equal(t, Notification{Name: name, Updated: true}, notifications[i])
	}
}

func TestTrackerPollingHasNoSideEffects(t *testing.T) {
	tr := newTestTracker([]string{"a", "b"})
	tr.Plan(map[string]int{"a": 1, "b": 1})

	for i := 0; i < 5; i++ {
		_, ok := tr.Next()
		assert.False(t, ok)
	}

	_, _, err := tr.Update("a", 0)
	require.NoError(t, err)

	n, ok := tr.Next()
	require.True(t, ok)
	assert.Equal(t, "a", n.Name)
}

func TestTrackerEmptyPlanReleasesEverything(t *testing.T) {
	tr := newTestTracker([]string{"a", "b", "c"})
	tr.Plan(map[string]int{})

	notifications := drain(tr)
	require.Len(t, notifications, 3)
	for i, name := range []string{"a", "b", "c"} {
		assert.Equal(t, Notification{Name: name, Updated: false}, notifications[i])
	}
}

func TestTrackerUpdateUnknownSnapshot(t *testing.T) {
	tr := newTestTracker([]string{"a", "b"})
	tr.Plan(map[string]int{"a": 1})

	_, _, err := tr.Update("b", 0)
	require.Error(t, err)
	assert.True(t, IsUnknownSnapshot(err))
	assert.False(t, IsBatchOverflow(err))

	var se *StateError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, ErrCodeUnknownSnapshot, se.Code)
	assert.Equal(t, "b", se.Snapshot)
}

func TestTrackerUpdateOverflow(t *testing.T) {
	tr := newTestTracker([]string{"a"})
	tr.Plan(map[string]int{"a": 1})

	_, _, err := tr.Update("a", 0)
	require.NoError(t, err)

	done, expected, err := tr.Update("a", 1)
	require.Error(t, err)
	assert.True(t, IsBatchOverflow(err))
	assert.Equal(t, 1, done)
	assert.Equal(t, 1, expected)

	// The overflow does not corrupt the already resolved state.
	n, ok := tr.Next()
	require.True(t, ok)
	assert.Equal(t, Notification{Name: "a", Updated: true}, n)
}

func TestTrackerReplanKeepsCursor(t *testing.T) {
	tr := newTestTracker([]string{"a", "b"})
	tr.Plan(map[string]int{"a": 1, "b": 1})

	_, _, err := tr.Update("a", 0)
	require.NoError(t, err)

	n, ok := tr.Next()
	require.True(t, ok)
	assert.Equal(t, "a", n.Name)

	// A second plan replaces expectations but must not rewind past a.
	tr.Plan(map[string]int{"b": 2})

	_, ok = tr.Next()
	assert.False(t, ok)

	_, _, err = tr.Update("b", 0)
	require.NoError(t, err)
	_, _, err = tr.Update("b", 1)
	require.NoError(t, err)

	notifications := drain(tr)
	require.Len(t, notifications, 1)
	assert.Equal(t, Notification{Name: "b", Updated: true}, notifications[0])
}

func TestTrackerPending(t *testing.T) {
	tr := newTestTracker([]string{"a", "b", "c", "d"})
	tr.Plan(map[string]int{"a": 1, "b": 1, "d": 1})

	assert.Equal(t, []string{"a", "b", "d"}, tr.Pending())

	_, _, err := tr.Update("a", 0)
	require.NoError(t, err)
	drain(tr)

	// a notified, b still unresolved, c resolved-excluded, d unresolved.
	assert.Equal(t, []string{"b", "d"}, tr.Pending())

	_, _, err = tr.Update("b", 0)
	require.NoError(t, err)
	_, _, err = tr.Update("d", 0)
	require.NoError(t, err)
	drain(tr)

	assert.Empty(t, tr.Pending())
}

func TestTrackerEachNotificationExactlyOnce(t *testing.T) {
	order := []string{"a", "b", "c"}
	tr := newTestTracker(order)
	tr.Plan(map[string]int{"b": 2})

	var got []Notification
	got = append(got, drain(tr)...) // releases a immediately

	_, _, err := tr.Update("b", 0)
	require.NoError(t, err)
	got = append(got, drain(tr)...)

	_, _, err = tr.Update("b", 1)
	require.NoError(t, err)
	got = append(got, drain(tr)...)

	require.Len(t, got, 3)
	assert.Equal(t, Notification{Name: "a", Updated: false}, got[0])
	assert.Equal(t, Notification{Name: "b", Updated: true}, got[1])
	assert.Equal(t, Notification{Name: "c", Updated: false}, got[2])
}
