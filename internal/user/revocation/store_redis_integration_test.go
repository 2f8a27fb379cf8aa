//go:build integration

package revocation_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"deedledger/internal/user/revocation"
	"deedledger/pkg/testutil/containers"
)

type RedisTRLSuite struct {
	suite.Suite
	redis *containers.RedisContainer
	trl   *revocation.RedisTRL
}

func TestRedisTRLSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RedisTRLSuite))
}

func (s *RedisTRLSuite) SetupSuite() {
	s.redis = containers.NewRedisContainer(s.T())
	s.trl = revocation.NewRedisTRL(s.redis.Client)
}

func (s *RedisTRLSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(context.Background()))
}

func (s *RedisTRLSuite) TestRevokeAndCheck() {
	ctx := context.Background()

	revoked, err := s.trl.IsRevoked(ctx, "jti-1")
	s.Require().NoError(err)
	s.False(revoked)

	s.Require().NoError(s.trl.Revoke(ctx, "jti-1", time.Minute))

	revoked, err = s.trl.IsRevoked(ctx, "jti-1")
	s.Require().NoError(err)
	s.True(revoked)

	revoked, err = s.trl.IsRevoked(ctx, "jti-2")
	s.Require().NoError(err)
	s.False(revoked, "revocation is per JTI")
}

func (s *RedisTRLSuite) TestEntryExpires() {
	ctx := context.Background()

	s.Require().NoError(s.trl.Revoke(ctx, "jti-short", time.Second))

	s.Require().Eventually(func() bool {
		revoked, err := s.trl.IsRevoked(ctx, "jti-short")
		return err == nil && !revoked
	}, 5*time.Second, 200*time.Millisecond, "entry past its TTL is no longer revoked")
}

func (s *RedisTRLSuite) TestNonPositiveTTLIsNoop() {
	ctx := context.Background()

	s.Require().NoError(s.trl.Revoke(ctx, "jti-expired", -time.Second))
	revoked, err := s.trl.IsRevoked(ctx, "jti-expired")
	s.Require().NoError(err)
	s.False(revoked, "an already expired token needs no revocation entry")
}
