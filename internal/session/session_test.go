package session

import (
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"code-scanner/internal/models"
)

func entry(i int) models.HistoryEntry {
	return models.HistoryEntry{Code: strconv.Itoa(i)}
}

func codes(entries []models.HistoryEntry) []string {
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Code)
	}
	return out
}

func TestHistory_EvictsOldest(t *testing.T) {
	h := NewHistory(3)
	assert.Empty(t, h.Entries())

	for i := 1; i <= 2; i++ {
		h.Push(entry(i))
	}
	assert.Equal(t, []string{"1", "2"}, codes(h.Entries()))

	for i := 3; i <= 7; i++ {
		h.Push(entry(i))
	}
	assert.Equal(t, 3, h.Len())
	assert.Equal(t, []string{"5", "6", "7"}, codes(h.Entries()))
}

func TestHistory_DefaultCapacity(t *testing.T) {
	h := NewHistory(0)
	assert.Equal(t, DefaultHistorySize, h.Cap())

	for i := 0; i < 25; i++ {
		h.Push(entry(i))
	}
	assert.Equal(t, DefaultHistorySize, h.Len())
	assert.Equal(t, "15", h.Entries()[0].Code)
}

func TestHistory_EntriesIsACopy(t *testing.T) {
	h := NewHistory(2)
	h.Push(entry(1))
	entries := h.Entries()
	entries[0].Code = "changed"
	assert.Equal(t, "1", h.Entries()[0].Code)
}

func TestStore_Lifecycle(t *testing.T) {
	st := NewStore(time.Hour, 2)

	s := st.Create(models.User{ID: 7})
	require.NotEmpty(t, s.ID)
	require.NotEmpty(t, s.CSRFToken)
	assert.NotEqual(t, s.ID, s.CSRFToken)

	got, ok := st.Get(s.ID)
	require.True(t, ok)
	assert.Equal(t, int64(7), got.UserID)

	got.Record(entry(1))
	got.Record(entry(2))
	history := got.Record(entry(3))
	assert.Equal(t, []string{"2", "3"}, codes(history))

	st.Destroy(s.ID)
	_, ok = st.Get(s.ID)
	assert.False(t, ok)

	_, ok = st.Get("")
	assert.False(t, ok)
}

func TestStore_Expiry(t *testing.T) {
	st := NewStore(20*time.Millisecond, 0)
	s := st.Create(models.User{ID: 1})

	time.Sleep(50 * time.Millisecond)
	_, ok := st.Get(s.ID)
	assert.False(t, ok)
}

func TestCheckCSRF(t *testing.T) {
	st := NewStore(time.Hour, 0)
	s := st.Create(models.User{ID: 1})

	assert.NoError(t, s.CheckCSRF(s.CSRFToken))
	assert.Equal(t, ErrCSRFInvalid, s.CheckCSRF(""))
	assert.Equal(t, ErrCSRFInvalid, s.CheckCSRF("forged"))
}
