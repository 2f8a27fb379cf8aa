package user

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/mssola/useragent"
	"golang.org/x/crypto/bcrypt"

	"deedledger/internal/access"
	"deedledger/internal/audit"
	"deedledger/internal/jwttoken"
	dErrors "deedledger/pkg/domain-errors"
	"deedledger/pkg/email"
	"deedledger/pkg/platform/sentinel"
)

// AuditRecorder appends one entry per completed operation.
type AuditRecorder interface {
	Append(ctx context.Context, e audit.Entry) error
}

// RevocationList tracks logged-out token JTIs.
type RevocationList interface {
	Revoke(ctx context.Context, jti string, ttl time.Duration) error
}

// Service owns account lifecycle and authentication events. Every login,
// logout and account mutation lands exactly one audit entry.
type Service struct {
	store    Store
	auditor  AuditRecorder
	tokens   *jwttoken.Service
	trl      RevocationList
	mail     email.Sender
	tokenTTL time.Duration
	logger   *slog.Logger
}

func NewService(store Store, auditor AuditRecorder, tokens *jwttoken.Service, trl RevocationList, mail email.Sender, tokenTTL time.Duration, logger *slog.Logger) *Service {
	return &Service{
		store:    store,
		auditor:  auditor,
		tokens:   tokens,
		trl:      trl,
		mail:     mail,
		tokenTTL: tokenTTL,
		logger:   logger,
	}
}

// Login checks credentials and issues an access token. Unapproved external
// accounts cannot log in.
func (s *Service) Login(ctx context.Context, username, password, userAgent string) (string, User, error) {
	u, err := s.store.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return "", User{}, dErrors.New(dErrors.CodeUnauthorized, "invalid credentials")
		}
		return "", User{}, dErrors.Wrap(dErrors.CodeInternal, "find user", err)
	}

	if u.UserType == access.UserTypeExternal && u.RegistrationStatus != StatusApproved {
		return "", User{}, dErrors.New(dErrors.CodeForbidden, "account is not approved for access")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return "", User{}, dErrors.New(dErrors.CodeUnauthorized, "invalid credentials")
	}

	token, err := s.tokens.GenerateAccessToken(u.Identity(), s.tokenTTL)
	if err != nil {
		return "", User{}, dErrors.Wrap(dErrors.CodeInternal, "issue token", err)
	}

	if err := s.auditor.Append(ctx, audit.Entry{
		TransactionID: newTransactionID(),
		Action:        audit.ActionLogin,
		PerformedBy:   u.Username,
		Details:       loginDetails(userAgent),
	}); err != nil {
		return "", User{}, err
	}
	return token, u, nil
}

// Logout revokes the presented token's JTI until the token would have
// expired anyway.
func (s *Service) Logout(ctx context.Context, claims *jwttoken.Claims) error {
	ttl := s.tokenTTL
	if claims.ExpiresAt != nil {
		ttl = time.Until(claims.ExpiresAt.Time)
	}
	if err := s.trl.Revoke(ctx, claims.ID, ttl); err != nil {
		return dErrors.Wrap(dErrors.CodeInternal, "revoke token", err)
	}
	return s.auditor.Append(ctx, audit.Entry{
		TransactionID: newTransactionID(),
		Action:        audit.ActionLogout,
		PerformedBy:   claims.Username,
	})
}

// CreateInput carries a new account request.
type CreateInput struct {
	Username   string
	Email      string
	Password   string
	Role       access.Role
	UserType   access.UserType
	Profession string
}

// Create registers a new account. Internal accounts start approved; external
// accounts wait for approval.
func (s *Service) Create(ctx context.Context, caller access.Identity, in CreateInput) (User, error) {
	if !access.IsAdmin(caller) {
		return User{}, dErrors.New(dErrors.CodeForbidden, "only an admin may create accounts")
	}
	if in.Username == "" || in.Email == "" {
		return User{}, dErrors.New(dErrors.CodeValidation, "username and email are required")
	}
	if len(in.Password) < 8 {
		return User{}, dErrors.New(dErrors.CodeValidation, "password must be at least 8 characters")
	}
	if !access.ValidRole(in.Role) {
		return User{}, dErrors.New(dErrors.CodeValidation, "unknown role")
	}
	if !access.ValidUserType(in.UserType) {
		return User{}, dErrors.New(dErrors.CodeValidation, "unknown user type")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return User{}, dErrors.Wrap(dErrors.CodeInternal, "hash password", err)
	}

	u := User{
		ID:                 uuid.NewString(),
		Username:           in.Username,
		Email:              in.Email,
		PasswordHash:       string(hash),
		Role:               in.Role,
		UserType:           in.UserType,
		Profession:         in.Profession,
		RegistrationStatus: StatusApproved,
		CreatedAt:          time.Now(),
	}
	if in.UserType == access.UserTypeExternal {
		u.RegistrationStatus = StatusPending
	}

	if err := s.store.Create(ctx, u); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return User{}, dErrors.New(dErrors.CodeConflict, "username already exists")
		}
		return User{}, dErrors.Wrap(dErrors.CodeInternal, "create user", err)
	}

	if err := s.auditor.Append(ctx, audit.Entry{
		TransactionID: newTransactionID(),
		Action:        audit.ActionCreateUser,
		PerformedBy:   caller.Username,
		Details:       fmt.Sprintf("created %s account %s (%s)", u.UserType, u.Username, u.Role),
	}); err != nil {
		return User{}, err
	}

	s.notify(ctx, u, "Welcome to the deed registry",
		"Your account has been created. Please verify your email address.")
	return u, nil
}

// Delete removes an account. Super-admin only.
func (s *Service) Delete(ctx context.Context, caller access.Identity, id string) error {
	if !access.IsSuperAdmin(caller) {
		return dErrors.New(dErrors.CodeForbidden, "only a super-admin may delete accounts")
	}
	u, err := s.store.FindByID(ctx, id)
	if err != nil {
		return translateStoreErr(err)
	}
	if err := s.store.Delete(ctx, id); err != nil {
		return translateStoreErr(err)
	}
	return s.auditor.Append(ctx, audit.Entry{
		TransactionID: newTransactionID(),
		Action:        audit.ActionDeleteUser,
		PerformedBy:   caller.Username,
		Details:       "deleted account " + u.Username,
	})
}

// Approve clears an external account for read-only access.
func (s *Service) Approve(ctx context.Context, caller access.Identity, id string) error {
	return s.review(ctx, caller, id, StatusApproved, audit.ActionApproveUser,
		"Your registration has been approved. You now have read-only search access.")
}

// Reject declines an external registration.
func (s *Service) Reject(ctx context.Context, caller access.Identity, id string) error {
	return s.review(ctx, caller, id, StatusRejected, audit.ActionRejectUser,
		"Your registration has been rejected. Contact the registry for details.")
}

func (s *Service) review(ctx context.Context, caller access.Identity, id string, status RegistrationStatus, action audit.Action, message string) error {
	if !access.IsAdmin(caller) {
		return dErrors.New(dErrors.CodeForbidden, "only an admin may review registrations")
	}
	u, err := s.store.FindByID(ctx, id)
	if err != nil {
		return translateStoreErr(err)
	}
	if u.UserType != access.UserTypeExternal {
		return dErrors.New(dErrors.CodeValidation, "only external accounts go through review")
	}
	if err := s.store.UpdateStatus(ctx, id, status); err != nil {
		return translateStoreErr(err)
	}
	if err := s.auditor.Append(ctx, audit.Entry{
		TransactionID: newTransactionID(),
		Action:        action,
		PerformedBy:   caller.Username,
		Details:       fmt.Sprintf("%s account %s", status, u.Username),
	}); err != nil {
		return err
	}
	s.notify(ctx, u, "Registration "+string(status), message)
	return nil
}

// VerifyEmail marks the caller's address as verified.
func (s *Service) VerifyEmail(ctx context.Context, caller access.Identity) error {
	if err := s.store.MarkEmailVerified(ctx, caller.UserID); err != nil {
		return translateStoreErr(err)
	}
	return s.auditor.Append(ctx, audit.Entry{
		TransactionID: newTransactionID(),
		Action:        audit.ActionVerifyEmail,
		PerformedBy:   caller.Username,
	})
}

// Get returns one account by id.
func (s *Service) Get(ctx context.Context, id string) (User, error) {
	u, err := s.store.FindByID(ctx, id)
	if err != nil {
		return User{}, translateStoreErr(err)
	}
	return u, nil
}

// notify is best-effort: a failed email never fails the operation.
func (s *Service) notify(ctx context.Context, u User, subject, message string) {
	if s.mail == nil {
		return
	}
	first, _ := email.DeriveNameFromEmail(u.Email)
	body := fmt.Sprintf("Dear %s,\n\n%s", first, message)
	if err := s.mail.Send(ctx, u.Email, subject, body); err != nil {
		s.logger.WarnContext(ctx, "notification email failed",
			"to", u.Email,
			"error", err,
		)
	}
}

func loginDetails(userAgent string) string {
	if userAgent == "" {
		return "login"
	}
	ua := useragent.New(userAgent)
	browser, version := ua.Browser()
	if browser == "" {
		return "login"
	}
	return fmt.Sprintf("login from %s %s on %s", browser, version, ua.OS())
}

func newTransactionID() string {
	return fmt.Sprintf("TXN-%s-%s", time.Now().UTC().Format("20060102150405.000000000"), uuid.NewString()[:8])
}

func translateStoreErr(err error) error {
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.New(dErrors.CodeNotFound, "user not found")
	case errors.Is(err, sentinel.ErrConflict):
		return dErrors.New(dErrors.CodeConflict, "conflicting user record")
	default:
		return dErrors.Wrap(dErrors.CodeInternal, "user store failure", err)
	}
}
