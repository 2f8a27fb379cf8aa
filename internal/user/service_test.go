package user_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"deedledger/internal/access"
	"deedledger/internal/audit"
	"deedledger/internal/jwttoken"
	"deedledger/internal/user"
	"deedledger/internal/user/revocation"
	dErrors "deedledger/pkg/domain-errors"
)

const chromeUA = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

type fixture struct {
	svc    *user.Service
	store  *user.MemoryStore
	audits *audit.MemoryStore
	trl    *revocation.MemoryTRL
	tokens *jwttoken.Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := user.NewMemoryStore()
	audits := audit.NewMemoryStore()
	trl := revocation.NewMemoryTRL()
	tokens := jwttoken.NewService("test-signing-key", "deedledger-test")
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := user.NewService(store, audit.NewRecorder(audits, nil), tokens, trl, nil, time.Hour, logger)
	return &fixture{svc: svc, store: store, audits: audits, trl: trl, tokens: tokens}
}

func (f *fixture) seed(t *testing.T, u user.User, password string) user.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	u.PasswordHash = string(hash)
	require.NoError(t, f.store.Create(context.Background(), u))
	return u
}

func (f *fixture) lastAudit(t *testing.T) audit.Entry {
	t.Helper()
	page, err := f.audits.Query(context.Background(), audit.Filter{}, 1, 1)
	require.NoError(t, err)
	require.NotEmpty(t, page.Entries)
	return page.Entries[0]
}

func internalOfficer(id, username string) user.User {
	return user.User{
		ID:                 id,
		Username:           username,
		Email:              username + "@registry.example",
		Role:               access.RoleOfficer,
		UserType:           access.UserTypeInternal,
		RegistrationStatus: user.StatusApproved,
		CreatedAt:          time.Now(),
	}
}

func externalLawyer(id, username string, status user.RegistrationStatus) user.User {
	return user.User{
		ID:                 id,
		Username:           username,
		Email:              username + "@chambers.example",
		Role:               access.RoleLawyer,
		UserType:           access.UserTypeExternal,
		Profession:         "attorney-at-law",
		RegistrationStatus: status,
		CreatedAt:          time.Now(),
	}
}

var superAdmin = access.Identity{
	UserID:   "u-super",
	Username: "asela",
	Role:     access.RoleSuperAdmin,
	UserType: access.UserTypeInternal,
}

var plainAdmin = access.Identity{
	UserID:   "u-admin",
	Username: "nimal",
	Role:     access.RoleAdmin,
	UserType: access.UserTypeInternal,
}

func TestLoginIssuesValidToken(t *testing.T) {
	f := newFixture(t)
	f.seed(t, internalOfficer("u-1", "kamala"), "correct horse")

	token, u, err := f.svc.Login(context.Background(), "kamala", "correct horse", chromeUA)
	require.NoError(t, err)
	assert.Equal(t, "kamala", u.Username)

	claims, err := f.tokens.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "u-1", claims.UserID)
	assert.Equal(t, string(access.RoleOfficer), claims.Role)

	entry := f.lastAudit(t)
	assert.Equal(t, audit.ActionLogin, entry.Action)
	assert.Equal(t, "kamala", entry.PerformedBy)
	assert.Contains(t, entry.Details, "Chrome")
}

func TestLoginWrongPassword(t *testing.T) {
	f := newFixture(t)
	f.seed(t, internalOfficer("u-1", "kamala"), "correct horse")

	_, _, err := f.svc.Login(context.Background(), "kamala", "wrong", chromeUA)
	assert.True(t, dErrors.Is(err, dErrors.CodeUnauthorized))
}

func TestLoginUnknownUser(t *testing.T) {
	f := newFixture(t)

	_, _, err := f.svc.Login(context.Background(), "nobody", "anything", chromeUA)
	assert.True(t, dErrors.Is(err, dErrors.CodeUnauthorized),
		"unknown users get the same error as bad passwords")
}

func TestLoginPendingExternalForbidden(t *testing.T) {
	f := newFixture(t)
	f.seed(t, externalLawyer("u-2", "saman", user.StatusPending), "correct horse")

	_, _, err := f.svc.Login(context.Background(), "saman", "correct horse", chromeUA)
	assert.True(t, dErrors.Is(err, dErrors.CodeForbidden))

	f.seed(t, externalLawyer("u-3", "ruwan", user.StatusRejected), "correct horse")
	_, _, err = f.svc.Login(context.Background(), "ruwan", "correct horse", chromeUA)
	assert.True(t, dErrors.Is(err, dErrors.CodeForbidden))
}

func TestLogoutRevokesToken(t *testing.T) {
	f := newFixture(t)
	f.seed(t, internalOfficer("u-1", "kamala"), "correct horse")

	token, _, err := f.svc.Login(context.Background(), "kamala", "correct horse", "")
	require.NoError(t, err)
	claims, err := f.tokens.ValidateToken(token)
	require.NoError(t, err)

	require.NoError(t, f.svc.Logout(context.Background(), claims))

	revoked, err := f.trl.IsRevoked(context.Background(), claims.ID)
	require.NoError(t, err)
	assert.True(t, revoked)

	entry := f.lastAudit(t)
	assert.Equal(t, audit.ActionLogout, entry.Action)
	assert.Equal(t, "kamala", entry.PerformedBy)
}

func TestCreateInternalUser(t *testing.T) {
	f := newFixture(t)

	u, err := f.svc.Create(context.Background(), plainAdmin, user.CreateInput{
		Username: "kamala",
		Email:    "kamala.perera@registry.example",
		Password: "long enough",
		Role:     access.RoleOfficer,
		UserType: access.UserTypeInternal,
	})
	require.NoError(t, err)
	assert.Equal(t, user.StatusApproved, u.RegistrationStatus, "internal accounts skip review")
	assert.NotEmpty(t, u.ID)

	entry := f.lastAudit(t)
	assert.Equal(t, audit.ActionCreateUser, entry.Action)
	assert.Equal(t, "nimal", entry.PerformedBy)
}

func TestCreateExternalUserStartsPending(t *testing.T) {
	f := newFixture(t)

	u, err := f.svc.Create(context.Background(), plainAdmin, user.CreateInput{
		Username:   "saman",
		Email:      "saman@chambers.example",
		Password:   "long enough",
		Role:       access.RoleLawyer,
		UserType:   access.UserTypeExternal,
		Profession: "attorney-at-law",
	})
	require.NoError(t, err)
	assert.Equal(t, user.StatusPending, u.RegistrationStatus)
}

func TestCreateValidation(t *testing.T) {
	f := newFixture(t)
	base := user.CreateInput{
		Username: "kamala",
		Email:    "kamala@registry.example",
		Password: "long enough",
		Role:     access.RoleOfficer,
		UserType: access.UserTypeInternal,
	}

	tests := []struct {
		name   string
		mutate func(*user.CreateInput)
	}{
		{"missing username", func(in *user.CreateInput) { in.Username = "" }},
		{"missing email", func(in *user.CreateInput) { in.Email = "" }},
		{"short password", func(in *user.CreateInput) { in.Password = "short" }},
		{"unknown role", func(in *user.CreateInput) { in.Role = "warden" }},
		{"unknown user type", func(in *user.CreateInput) { in.UserType = "guest" }},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			in := base
			tc.mutate(&in)
			_, err := f.svc.Create(context.Background(), plainAdmin, in)
			assert.True(t, dErrors.Is(err, dErrors.CodeValidation))
		})
	}
}

func TestCreateRequiresAdmin(t *testing.T) {
	f := newFixture(t)
	officer := internalOfficer("u-1", "kamala").Identity()

	_, err := f.svc.Create(context.Background(), officer, user.CreateInput{
		Username: "saman",
		Email:    "saman@registry.example",
		Password: "long enough",
		Role:     access.RoleOfficer,
		UserType: access.UserTypeInternal,
	})
	assert.True(t, dErrors.Is(err, dErrors.CodeForbidden))
}

func TestCreateDuplicateUsername(t *testing.T) {
	f := newFixture(t)
	f.seed(t, internalOfficer("u-1", "kamala"), "correct horse")

	_, err := f.svc.Create(context.Background(), plainAdmin, user.CreateInput{
		Username: "kamala",
		Email:    "other@registry.example",
		Password: "long enough",
		Role:     access.RoleOfficer,
		UserType: access.UserTypeInternal,
	})
	assert.True(t, dErrors.Is(err, dErrors.CodeConflict))
}

func TestDeleteUserRequiresSuperAdmin(t *testing.T) {
	f := newFixture(t)
	f.seed(t, internalOfficer("u-1", "kamala"), "correct horse")

	err := f.svc.Delete(context.Background(), plainAdmin, "u-1")
	assert.True(t, dErrors.Is(err, dErrors.CodeForbidden))

	require.NoError(t, f.svc.Delete(context.Background(), superAdmin, "u-1"))
	_, err = f.svc.Get(context.Background(), "u-1")
	assert.True(t, dErrors.Is(err, dErrors.CodeNotFound))

	entry := f.lastAudit(t)
	assert.Equal(t, audit.ActionDeleteUser, entry.Action)
	assert.Contains(t, entry.Details, "kamala")
}

func TestApproveExternalRegistration(t *testing.T) {
	f := newFixture(t)
	f.seed(t, externalLawyer("u-2", "saman", user.StatusPending), "correct horse")

	require.NoError(t, f.svc.Approve(context.Background(), plainAdmin, "u-2"))

	u, err := f.svc.Get(context.Background(), "u-2")
	require.NoError(t, err)
	assert.Equal(t, user.StatusApproved, u.RegistrationStatus)

	entry := f.lastAudit(t)
	assert.Equal(t, audit.ActionApproveUser, entry.Action)

	// approval unlocks login
	_, _, err = f.svc.Login(context.Background(), "saman", "correct horse", "")
	assert.NoError(t, err)
}

func TestRejectExternalRegistration(t *testing.T) {
	f := newFixture(t)
	f.seed(t, externalLawyer("u-2", "saman", user.StatusPending), "correct horse")

	require.NoError(t, f.svc.Reject(context.Background(), plainAdmin, "u-2"))

	u, err := f.svc.Get(context.Background(), "u-2")
	require.NoError(t, err)
	assert.Equal(t, user.StatusRejected, u.RegistrationStatus)

	entry := f.lastAudit(t)
	assert.Equal(t, audit.ActionRejectUser, entry.Action)
}

func TestReviewRejectsInternalAccounts(t *testing.T) {
	f := newFixture(t)
	f.seed(t, internalOfficer("u-1", "kamala"), "correct horse")

	err := f.svc.Approve(context.Background(), plainAdmin, "u-1")
	assert.True(t, dErrors.Is(err, dErrors.CodeValidation))
}

func TestVerifyEmail(t *testing.T) {
	f := newFixture(t)
	seeded := f.seed(t, internalOfficer("u-1", "kamala"), "correct horse")

	require.NoError(t, f.svc.VerifyEmail(context.Background(), seeded.Identity()))

	u, err := f.svc.Get(context.Background(), "u-1")
	require.NoError(t, err)
	assert.True(t, u.EmailVerified)

	entry := f.lastAudit(t)
	assert.Equal(t, audit.ActionVerifyEmail, entry.Action)
}
