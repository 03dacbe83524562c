package conversation

import (
	"testing"
	"time"

	"salesagent/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetOrCreateReturnsSameSessionForKnownID(t *testing.T) {
	store := NewStore("welcome", time.Hour)

	first := store.GetOrCreate("", models.LanguageAuto)
	id := first.ID()

	second := store.GetOrCreate(id, models.LanguageAuto)
	assert.Same(t, first, second)
	assert.Equal(t, 1, store.Len())
}

func TestGetOrCreateKeepsClientSuppliedIDOpaque(t *testing.T) {
	store := NewStore("welcome", time.Hour)

	sess := store.GetOrCreate("tab-7f3a", models.LanguageEN)
	assert.Equal(t, "tab-7f3a", sess.ID())

	found, ok := store.Get("tab-7f3a")
	require.True(t, ok)
	assert.Same(t, sess, found)
}

func TestGetOrCreateUpdatesLanguageOnRevisit(t *testing.T) {
	store := NewStore("welcome", time.Hour)

	sess := store.GetOrCreate("s1", models.LanguageAuto)
	store.GetOrCreate("s1", models.LanguageHindi)
	assert.Equal(t, models.LanguageHindi, sess.Language())

	// Unknown language values are ignored.
	store.GetOrCreate("s1", "klingon")
	assert.Equal(t, models.LanguageHindi, sess.Language())
}

func TestSweepEvictsIdleSessions(t *testing.T) {
	store := NewStore("welcome", 10*time.Millisecond)

	stale := store.GetOrCreate("stale", models.LanguageAuto)
	require.Equal(t, 1, store.Len())

	store.sweep(time.Now().Add(time.Second))
	assert.Equal(t, 0, store.Len())

	_, ok := store.Get("stale")
	assert.False(t, ok)

	// The evicted session is closed: timers and late responses are dead.
	stale.mu.Lock()
	closed := stale.closed
	stale.mu.Unlock()
	assert.True(t, closed)
}

func TestSweepRunsEvictHooks(t *testing.T) {
	store := NewStore("welcome", 10*time.Millisecond)

	var evicted []string
	store.OnEvict(func(id string) { evicted = append(evicted, id) })

	store.GetOrCreate("stale", models.LanguageAuto)
	store.sweep(time.Now().Add(time.Second))
	assert.Equal(t, []string{"stale"}, evicted)

	// Surviving sessions do not fire the hook.
	store.GetOrCreate("fresh", models.LanguageAuto)
	store.sweep(time.Now())
	assert.Len(t, evicted, 1)
}

func TestSweepKeepsActiveSessions(t *testing.T) {
	store := NewStore("welcome", time.Hour)
	store.GetOrCreate("active", models.LanguageAuto)

	store.sweep(time.Now())
	assert.Equal(t, 1, store.Len())
}
