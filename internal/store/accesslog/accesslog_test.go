package accesslog_test

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/signboardapp/signboard-server/internal/domain"
	"github.com/signboardapp/signboard-server/internal/query"
	"github.com/signboardapp/signboard-server/internal/store/accesslog"
)

func setupLog(t *testing.T) *accesslog.Store {
	t.Helper()

	s, err := accesslog.Open(filepath.Join(t.TempDir(), "access-log.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	return s
}

func seedAccesses(t *testing.T, s *accesslog.Store, n int) {
	t.Helper()

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	for i := range n {
		mac := fmt.Sprintf("AA:BB:CC:DD:EE:%02d", i%3)
		require.NoError(t, s.Insert(context.Background(), &domain.DeviceAccess{
			ID:          fmt.Sprintf("acc_%03d", i),
			MACAddress:  mac,
			IP:          fmt.Sprintf("10.0.0.%d", i+1),
			CPUUsage:    float64(10 + i),
			MemoryUsage: float64(30 + i),
			CreatedAt:   base.Add(time.Duration(i) * time.Minute),
		}))
	}
}

func TestAccessLog_InsertAndList(t *testing.T) {
	s := setupLog(t)
	seedAccesses(t, s, 5)

	page, err := s.FindPage(context.Background(), query.Normalize(query.Params{}))
	require.NoError(t, err)

	assert.Equal(t, 5, page.TotalDocs)
	assert.Equal(t, 1, page.TotalPages)
	require.Len(t, page.Docs, 5)

	// Default ordering is newest first.
	assert.Equal(t, "acc_004", page.Docs[0].ID)
	assert.Equal(t, "acc_000", page.Docs[4].ID)
	assert.InEpsilon(t, 14.0, page.Docs[0].CPUUsage, 1e-9)
}

func TestAccessLog_FilterByMAC(t *testing.T) {
	s := setupLog(t)
	seedAccesses(t, s, 6)

	page, err := s.FindPage(context.Background(), query.Normalize(query.Params{
		Filter: "ee:00",
		Fields: "macAddress",
	}))
	require.NoError(t, err)

	// Rows 0 and 3 carry the :00 MAC; matching is case-insensitive.
	assert.Equal(t, 2, page.TotalDocs)
	for _, doc := range page.Docs {
		assert.Equal(t, "AA:BB:CC:DD:EE:00", doc.MACAddress)
	}
}

func TestAccessLog_FilterEscapesWildcards(t *testing.T) {
	s := setupLog(t)
	seedAccesses(t, s, 3)

	page, err := s.FindPage(context.Background(), query.Normalize(query.Params{
		Filter: "%",
		Fields: "ip",
	}))
	require.NoError(t, err)
	assert.Zero(t, page.TotalDocs)
}

func TestAccessLog_Pagination(t *testing.T) {
	s := setupLog(t)
	seedAccesses(t, s, 25)

	first, err := s.FindPage(context.Background(), query.Normalize(query.Params{}))
	require.NoError(t, err)
	assert.Len(t, first.Docs, query.DefaultLimit)
	assert.Equal(t, 25, first.TotalDocs)
	assert.Equal(t, 3, first.TotalPages)

	last, err := s.FindPage(context.Background(), query.Normalize(query.Params{
		Page: "3",
	}))
	require.NoError(t, err)
	assert.Len(t, last.Docs, 5)
}

func TestAccessLog_SortAscending(t *testing.T) {
	s := setupLog(t)
	seedAccesses(t, s, 4)

	page, err := s.FindPage(context.Background(), query.Normalize(query.Params{
		Sort:  "cpuUsage",
		Order: "1",
	}))
	require.NoError(t, err)
	require.Len(t, page.Docs, 4)
	assert.Equal(t, "acc_000", page.Docs[0].ID)

	// Unknown sort fields fall back to created_at rather than erroring.
	_, err = s.FindPage(context.Background(), query.Normalize(query.Params{
		Sort: "passwordHash",
	}))
	assert.NoError(t, err)
}
