package audit

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "deedledger/pkg/domain-errors"
)

func entry(txID string, action Action, performer string, ts time.Time) Entry {
	return Entry{
		TransactionID: txID,
		DeedNumber:    "D/1",
		Action:        action,
		PerformedBy:   performer,
		Timestamp:     ts,
	}
}

func TestRecorderAppendValidates(t *testing.T) {
	ctx := context.Background()
	rec := NewRecorder(NewMemoryStore(), nil)

	err := rec.Append(ctx, Entry{TransactionID: "t1", Action: "sideload", PerformedBy: "kamala"})
	require.Error(t, err)
	assert.True(t, dErrors.Is(err, dErrors.CodeValidation))

	err = rec.Append(ctx, Entry{Action: ActionRegister, PerformedBy: "kamala"})
	require.Error(t, err)
	assert.True(t, dErrors.Is(err, dErrors.CodeValidation))
}

func TestRecorderAppendDefaults(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	rec := NewRecorder(store, nil)

	require.NoError(t, rec.Append(ctx, Entry{
		TransactionID: "t1",
		Action:        ActionLogin,
		PerformedBy:   "kamala",
	}))

	page, err := rec.Query(ctx, Filter{}, 1, 10)
	require.NoError(t, err)
	require.Len(t, page.Entries, 1)
	assert.Equal(t, "-", page.Entries[0].DeedNumber, "deed number defaults to dash")
	assert.False(t, page.Entries[0].Timestamp.IsZero(), "timestamp defaults to write time")
}

func TestRecorderDuplicateTransactionID(t *testing.T) {
	ctx := context.Background()
	rec := NewRecorder(NewMemoryStore(), nil)
	now := time.Now()

	require.NoError(t, rec.Append(ctx, entry("t1", ActionRegister, "kamala", now)))
	err := rec.Append(ctx, entry("t1", ActionTransfer, "kamala", now))
	require.Error(t, err)
	assert.True(t, dErrors.Is(err, dErrors.CodeConflict))
}

func TestRecorderQueryPagination(t *testing.T) {
	ctx := context.Background()
	rec := NewRecorder(NewMemoryStore(), nil)
	base := time.Now()

	// 25 entries, newest last so timestamp-descending order reverses them.
	for i := 0; i < 25; i++ {
		e := entry(fmt.Sprintf("t%02d", i), ActionRegister, "kamala", base.Add(time.Duration(i)*time.Second))
		require.NoError(t, rec.Append(ctx, e))
	}

	page, err := rec.Query(ctx, Filter{}, 2, 10)
	require.NoError(t, err)
	assert.Equal(t, 25, page.Total)
	assert.Equal(t, 3, page.TotalPages)
	require.Len(t, page.Entries, 10)
	// Page 2 of a descending list holds entries 14..05.
	assert.Equal(t, "t14", page.Entries[0].TransactionID)
	assert.Equal(t, "t05", page.Entries[9].TransactionID)

	last, err := rec.Query(ctx, Filter{}, 3, 10)
	require.NoError(t, err)
	assert.Len(t, last.Entries, 5)

	empty, err := rec.Query(ctx, Filter{}, 9, 10)
	require.NoError(t, err)
	assert.Empty(t, empty.Entries)
	assert.Equal(t, 25, empty.Total)
}

func TestRecorderQueryDefaults(t *testing.T) {
	ctx := context.Background()
	rec := NewRecorder(NewMemoryStore(), nil)
	require.NoError(t, rec.Append(ctx, entry("t1", ActionRegister, "kamala", time.Now())))

	page, err := rec.Query(ctx, Filter{}, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, 10, page.Limit)
}

func TestRecorderQueryFilters(t *testing.T) {
	ctx := context.Background()
	rec := NewRecorder(NewMemoryStore(), nil)
	now := time.Now()

	require.NoError(t, rec.Append(ctx, entry("t1", ActionRegister, "kamala", now)))
	require.NoError(t, rec.Append(ctx, entry("t2", ActionTransfer, "sunil", now.Add(time.Second))))
	e3 := entry("t3", ActionLogin, "kamala-admin", now.Add(2*time.Second))
	e3.DeedNumber = "-"
	require.NoError(t, rec.Append(ctx, e3))

	t.Run("action All disables the filter", func(t *testing.T) {
		page, err := rec.Query(ctx, Filter{Action: "All"}, 1, 10)
		require.NoError(t, err)
		assert.Equal(t, 3, page.Total)
	})

	t.Run("exact action", func(t *testing.T) {
		page, err := rec.Query(ctx, Filter{Action: ActionTransfer}, 1, 10)
		require.NoError(t, err)
		require.Len(t, page.Entries, 1)
		assert.Equal(t, "t2", page.Entries[0].TransactionID)
	})

	t.Run("deed number substring", func(t *testing.T) {
		page, err := rec.Query(ctx, Filter{DeedNumber: "d/1"}, 1, 10)
		require.NoError(t, err)
		assert.Equal(t, 2, page.Total)
	})

	t.Run("username exact takes precedence over performedBy substring", func(t *testing.T) {
		page, err := rec.Query(ctx, Filter{Username: "kamala", PerformedBy: "kamala"}, 1, 10)
		require.NoError(t, err)
		require.Len(t, page.Entries, 1)
		assert.Equal(t, "t1", page.Entries[0].TransactionID)
	})

	t.Run("performedBy substring alone", func(t *testing.T) {
		page, err := rec.Query(ctx, Filter{PerformedBy: "kamala"}, 1, 10)
		require.NoError(t, err)
		assert.Equal(t, 2, page.Total)
	})
}
