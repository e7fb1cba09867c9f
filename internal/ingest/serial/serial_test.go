package serial

import (
	"context"
	"testing"
	"time"

	"BillTrackerSaas/internal/store"
	"BillTrackerSaas/internal/store/storetest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)

func TestNewGenerator_StartsAfterHighest(t *testing.T) {
	bills := storetest.NewBillStore()
	bills.Seed(store.Document{"srNo": "2400041"})
	bills.Seed(store.Document{"srNo": "2300999"})
	bills.Seed(store.Document{"srNo": "24ABC"})

	g, err := NewGenerator(context.Background(), bills, now)
	require.NoError(t, err)
	assert.Equal(t, "2400042", g.Next())
	assert.Equal(t, "2400043", g.Next())
}

func TestNewGenerator_WideSequence(t *testing.T) {
	bills := storetest.NewBillStore()
	bills.Seed(store.Document{"srNo": "2499999"})
	bills.Seed(store.Document{"srNo": "24100000"})

	g, err := NewGenerator(context.Background(), bills, now)
	require.NoError(t, err)
	assert.Equal(t, "24100001", g.Next())
}

func TestNewGenerator_EmptyStore(t *testing.T) {
	g, err := NewGenerator(context.Background(), storetest.NewBillStore(), now)
	require.NoError(t, err)
	assert.Equal(t, "2400001", g.Next())
}

func TestIssue_SkipsUsedAndStored(t *testing.T) {
	bills := storetest.NewBillStore()
	// alias collides with the first candidate
	bills.Seed(store.Document{"srNo": "LEGACY-1", "excelSrNo": "2400001"})
	g, err := NewGenerator(context.Background(), bills, now)
	require.NoError(t, err)
	g.MarkUsed("2400002")

	first, err := g.Issue(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "2400003", first)
	assert.True(t, g.Used(first))

	second, err := g.Issue(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "2400004", second)
}

func TestIssue_UniqueAcrossManyRows(t *testing.T) {
	g, err := NewGenerator(context.Background(), storetest.NewBillStore(), now)
	require.NoError(t, err)
	seen := map[string]bool{}
	for i := 0; i < 500; i++ {
		sr, err := g.Issue(context.Background())
		require.NoError(t, err)
		require.False(t, seen[sr], sr)
		seen[sr] = true
	}
}

func TestPrefix(t *testing.T) {
	assert.Equal(t, "05", Prefix(time.Date(2005, 1, 1, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, "26", Prefix(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)))
}
