//go:build integration

package audit_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"deedledger/internal/audit"
	"deedledger/pkg/platform/sentinel"
	"deedledger/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *audit.PostgresStore
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.postgres = containers.NewPostgresContainer(s.T())
	s.store = audit.NewPostgresStore(s.postgres.DB)
}

func (s *PostgresStoreSuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateTables(context.Background(), "audit_entries"))
}

func (s *PostgresStoreSuite) seed(n int) {
	base := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
	for i := 0; i < n; i++ {
		performer := "kamala"
		if i%2 == 1 {
			performer = "asela"
		}
		s.Require().NoError(s.store.Append(context.Background(), audit.Entry{
			TransactionID: fmt.Sprintf("TXN-%03d", i),
			DeedNumber:    fmt.Sprintf("D-%03d", i%3),
			Action:        audit.ActionRegister,
			PerformedBy:   performer,
			Timestamp:     base.Add(time.Duration(i) * time.Minute),
		}))
	}
}

func (s *PostgresStoreSuite) TestAppendAndQuery() {
	ctx := context.Background()
	s.seed(3)

	page, err := s.store.Query(ctx, audit.Filter{}, 1, 10)
	s.Require().NoError(err)
	s.Equal(3, page.Total)
	s.Equal(1, page.TotalPages)
	s.Require().Len(page.Entries, 3)
	s.Equal("TXN-002", page.Entries[0].TransactionID, "newest first")
}

func (s *PostgresStoreSuite) TestDuplicateTransactionID() {
	ctx := context.Background()
	e := audit.Entry{
		TransactionID: "TXN-dup",
		DeedNumber:    "D-001",
		Action:        audit.ActionRegister,
		PerformedBy:   "kamala",
		Timestamp:     time.Now(),
	}
	s.Require().NoError(s.store.Append(ctx, e))
	s.ErrorIs(s.store.Append(ctx, e), sentinel.ErrConflict)
}

func (s *PostgresStoreSuite) TestPagination() {
	ctx := context.Background()
	s.seed(25)

	page, err := s.store.Query(ctx, audit.Filter{}, 2, 10)
	s.Require().NoError(err)
	s.Equal(25, page.Total)
	s.Equal(3, page.TotalPages)
	s.Require().Len(page.Entries, 10)
	s.Equal("TXN-014", page.Entries[0].TransactionID)
	s.Equal("TXN-005", page.Entries[9].TransactionID)

	page, err = s.store.Query(ctx, audit.Filter{}, 3, 10)
	s.Require().NoError(err)
	s.Len(page.Entries, 5)

	page, err = s.store.Query(ctx, audit.Filter{}, 9, 10)
	s.Require().NoError(err)
	s.Empty(page.Entries, "a page past the end is empty, not an error")
	s.Equal(25, page.Total)
}

func (s *PostgresStoreSuite) TestFilters() {
	ctx := context.Background()
	s.seed(9)

	page, err := s.store.Query(ctx, audit.Filter{DeedNumber: "D-001"}, 1, 10)
	s.Require().NoError(err)
	s.Equal(3, page.Total)

	// Username is an exact match and wins over PerformedBy
	page, err = s.store.Query(ctx, audit.Filter{Username: "kamala", PerformedBy: "asela"}, 1, 10)
	s.Require().NoError(err)
	s.Equal(5, page.Total)
	for _, e := range page.Entries {
		s.Equal("kamala", e.PerformedBy)
	}

	// PerformedBy is a case-insensitive substring match
	page, err = s.store.Query(ctx, audit.Filter{PerformedBy: "ASE"}, 1, 10)
	s.Require().NoError(err)
	s.Equal(4, page.Total)
}
