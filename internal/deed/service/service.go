// Package service orchestrates the deed lifecycle: validation, fingerprint
// upkeep, persistence, and the audit entry that documents each mutation. The
// deed write and its audit entry are committed in one transaction when the
// backing stores support it.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"deedledger/internal/access"
	"deedledger/internal/audit"
	"deedledger/internal/deed"
	"deedledger/internal/deed/fingerprint"
	"deedledger/internal/platform/metrics"
	dErrors "deedledger/pkg/domain-errors"
	"deedledger/pkg/platform/sentinel"
)

// NIC formats: old is nine digits plus V/X (case-insensitive), new is exactly
// twelve digits. Exactly one must match.
var (
	nicOldFormat = regexp.MustCompile(`^\d{9}[vVxX]$`)
	nicNewFormat = regexp.MustCompile(`^\d{12}$`)
)

// ValidNIC reports whether nic matches one of the two accepted formats.
func ValidNIC(nic string) bool {
	return nicOldFormat.MatchString(nic) || nicNewFormat.MatchString(nic)
}

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks

// AuditRecorder appends one entry per completed operation.
type AuditRecorder interface {
	Append(ctx context.Context, e audit.Entry) error
}

// TxRunner executes fn as a single unit of work. The Postgres runner gives
// fails-together semantics; the passthrough runner is sequential best-effort.
type TxRunner interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

var tracer = otel.Tracer("deedledger/internal/deed/service")

// Service owns when the fingerprint is recomputed and when an audit entry is
// written. No other component writes either.
type Service struct {
	store   deed.Store
	auditor AuditRecorder
	runner  TxRunner
	metrics *metrics.Metrics
	logger  *slog.Logger

	// verifyCache short-circuits repeated public verifications of the same
	// deed number. Invalidated on every mutation.
	verifyCache *expirable.LRU[string, deed.Deed]
}

func New(store deed.Store, auditor AuditRecorder, runner TxRunner, m *metrics.Metrics, logger *slog.Logger, cacheSize int, cacheTTL time.Duration) *Service {
	if cacheSize <= 0 {
		cacheSize = 128
	}
	return &Service{
		store:       store,
		auditor:     auditor,
		runner:      runner,
		metrics:     m,
		logger:      logger,
		verifyCache: expirable.NewLRU[string, deed.Deed](cacheSize, nil, cacheTTL),
	}
}

// RegisterInput carries the fields supplied at registration.
type RegisterInput struct {
	LandTitleNumber string
	DeedNumber      string
	OwnerName       string
	OwnerNIC        string
	LandLocation    string
	Province        string
	District        string
	LandArea        string
	SurveyRef       string
	Status          deed.Status
	DocumentURL     string
	DocumentID      string
}

func (in RegisterInput) validate() error {
	required := map[string]string{
		"landTitleNumber": in.LandTitleNumber,
		"deedNumber":      in.DeedNumber,
		"ownerName":       in.OwnerName,
		"ownerNIC":        in.OwnerNIC,
		"landLocation":    in.LandLocation,
		"province":        in.Province,
		"district":        in.District,
		"landArea":        in.LandArea,
		"surveyRef":       in.SurveyRef,
	}
	for field, value := range required {
		if value == "" {
			return dErrors.New(dErrors.CodeValidation, field+" is required")
		}
	}
	if !ValidNIC(in.OwnerNIC) {
		return dErrors.New(dErrors.CodeValidation, "owner NIC does not match an accepted format")
	}
	if in.Status != "" && !deed.ValidStatus(in.Status) {
		return dErrors.New(dErrors.CodeValidation, "status must be valid, invalid or pending")
	}
	return nil
}

// Register validates, fingerprints, persists, and audits a new deed.
func (s *Service) Register(ctx context.Context, caller access.Identity, in RegisterInput) (deed.Deed, error) {
	ctx, span := tracer.Start(ctx, "deed.Register")
	defer span.End()
	span.SetAttributes(attribute.String("deed.number", in.DeedNumber))

	if err := in.validate(); err != nil {
		return deed.Deed{}, err
	}

	d := deed.Deed{
		ID:               uuid.NewString(),
		LandTitleNumber:  in.LandTitleNumber,
		DeedNumber:       in.DeedNumber,
		OwnerName:        in.OwnerName,
		OwnerNIC:         in.OwnerNIC,
		LandLocation:     in.LandLocation,
		Province:         in.Province,
		District:         in.District,
		LandArea:         in.LandArea,
		SurveyRef:        in.SurveyRef,
		RegistrationDate: time.Now(),
		Status:           in.Status,
		RegisteredBy:     caller.Username,
		DocumentURL:      in.DocumentURL,
		DocumentID:       in.DocumentID,
	}
	if d.Status == "" {
		d.Status = deed.StatusValid
	}
	d.Fingerprint = fingerprint.Compute(d)

	err := s.runner.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.store.Create(ctx, d); err != nil {
			return translateStoreErr(err, "a deed with this title number, deed number or fingerprint already exists")
		}
		return s.auditor.Append(ctx, audit.Entry{
			TransactionID: newTransactionID(),
			DeedNumber:    d.DeedNumber,
			Action:        audit.ActionRegister,
			PerformedBy:   caller.Username,
			Details:       fmt.Sprintf("registered land title %s for %s", d.LandTitleNumber, d.OwnerName),
		})
	})
	if err != nil {
		return deed.Deed{}, err
	}

	if s.metrics != nil {
		s.metrics.DeedsRegistered.Inc()
	}
	return d, nil
}

// TransferInput replaces the owner fields; everything else is preserved.
type TransferInput struct {
	OwnerName string
	OwnerNIC  string
	Reason    string
}

// Transfer changes ownership, recomputes the fingerprint, and audits the
// previous and new owner plus the caller-supplied reason.
func (s *Service) Transfer(ctx context.Context, caller access.Identity, id string, in TransferInput) (deed.Deed, error) {
	ctx, span := tracer.Start(ctx, "deed.Transfer")
	defer span.End()

	if in.OwnerName == "" {
		return deed.Deed{}, dErrors.New(dErrors.CodeValidation, "ownerName is required")
	}
	if !ValidNIC(in.OwnerNIC) {
		return deed.Deed{}, dErrors.New(dErrors.CodeValidation, "owner NIC does not match an accepted format")
	}

	current, err := s.store.FindByID(ctx, id)
	if err != nil {
		return deed.Deed{}, translateStoreErr(err, "")
	}

	updated := current
	updated.OwnerName = in.OwnerName
	updated.OwnerNIC = in.OwnerNIC
	updated.Fingerprint = fingerprint.Compute(updated)

	fields := deed.UpdateFields{OwnerName: &in.OwnerName, OwnerNIC: &in.OwnerNIC}
	err = s.runner.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.store.Update(ctx, id, fields, updated.Fingerprint); err != nil {
			return translateStoreErr(err, "transfer collides with an existing deed fingerprint")
		}
		details := fmt.Sprintf("ownership transferred from %s (%s) to %s (%s); reason: %s",
			current.OwnerName, current.OwnerNIC, in.OwnerName, in.OwnerNIC, in.Reason)
		return s.auditor.Append(ctx, audit.Entry{
			TransactionID: newTransactionID(),
			DeedNumber:    current.DeedNumber,
			Action:        audit.ActionTransfer,
			PerformedBy:   caller.Username,
			Details:       details,
		})
	})
	if err != nil {
		return deed.Deed{}, err
	}

	s.invalidate(current)
	if s.metrics != nil {
		s.metrics.DeedsTransferred.Inc()
	}
	return updated, nil
}

// Update applies a partial field change. Permitted only for super-admins or
// the identity that originally registered the deed.
func (s *Service) Update(ctx context.Context, caller access.Identity, id string, fields deed.UpdateFields) (deed.Deed, error) {
	ctx, span := tracer.Start(ctx, "deed.Update")
	defer span.End()

	current, err := s.store.FindByID(ctx, id)
	if err != nil {
		return deed.Deed{}, translateStoreErr(err, "")
	}

	if !access.IsSuperAdmin(caller) && current.RegisteredBy != caller.Username {
		return deed.Deed{}, dErrors.New(dErrors.CodeForbidden, "only a super-admin or the registering officer may update this deed")
	}
	if fields.OwnerNIC != nil && !ValidNIC(*fields.OwnerNIC) {
		return deed.Deed{}, dErrors.New(dErrors.CodeValidation, "owner NIC does not match an accepted format")
	}
	if fields.Status != nil && !deed.ValidStatus(*fields.Status) {
		return deed.Deed{}, dErrors.New(dErrors.CodeValidation, "status must be valid, invalid or pending")
	}

	updated := fields.Apply(current)
	updated.Fingerprint = fingerprint.Compute(updated)

	err = s.runner.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.store.Update(ctx, id, fields, updated.Fingerprint); err != nil {
			return translateStoreErr(err, "update collides with an existing deed")
		}
		return s.auditor.Append(ctx, audit.Entry{
			TransactionID: newTransactionID(),
			DeedNumber:    updated.DeedNumber,
			Action:        audit.ActionUpdate,
			PerformedBy:   caller.Username,
			Details:       "deed record updated",
		})
	})
	if err != nil {
		return deed.Deed{}, err
	}

	s.invalidate(current)
	s.invalidate(updated)
	return updated, nil
}

// Delete hard-deletes a deed. Super-admin only. The audit entry references
// data captured before deletion.
func (s *Service) Delete(ctx context.Context, caller access.Identity, id string) error {
	ctx, span := tracer.Start(ctx, "deed.Delete")
	defer span.End()

	if !access.IsSuperAdmin(caller) {
		return dErrors.New(dErrors.CodeForbidden, "only a super-admin may delete a deed")
	}

	current, err := s.store.FindByID(ctx, id)
	if err != nil {
		return translateStoreErr(err, "")
	}

	err = s.runner.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.store.Delete(ctx, id); err != nil {
			return translateStoreErr(err, "")
		}
		return s.auditor.Append(ctx, audit.Entry{
			TransactionID: newTransactionID(),
			DeedNumber:    current.DeedNumber,
			Action:        audit.ActionDeleteDeed,
			PerformedBy:   caller.Username,
			Details:       fmt.Sprintf("deleted deed %s (land title %s)", current.DeedNumber, current.LandTitleNumber),
		})
	})
	if err != nil {
		return err
	}

	s.invalidate(current)
	if s.metrics != nil {
		s.metrics.DeedsDeleted.Inc()
	}
	return nil
}

// Get returns one deed by id.
func (s *Service) Get(ctx context.Context, id string) (deed.Deed, error) {
	d, err := s.store.FindByID(ctx, id)
	if err != nil {
		return deed.Deed{}, translateStoreErr(err, "")
	}
	return d, nil
}

// Search runs a filtered query, newest registrations first.
func (s *Service) Search(ctx context.Context, filter deed.QueryFilter) ([]deed.Deed, error) {
	out, err := s.store.Query(ctx, filter)
	if err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "query deeds", err)
	}
	return out, nil
}

// VerifyResult is the public view of a verification.
type VerifyResult struct {
	DeedNumber      string      `json:"deedNumber"`
	LandTitleNumber string      `json:"landTitleNumber"`
	OwnerName       string      `json:"ownerName"`
	Status          deed.Status `json:"status"`
	Fingerprint     string      `json:"fingerprint"`
}

// Verify looks up a deed by number for the public verification endpoint.
// Successful verifications are audited with performer "public".
func (s *Service) Verify(ctx context.Context, number string) (VerifyResult, error) {
	ctx, span := tracer.Start(ctx, "deed.Verify")
	defer span.End()

	d, cached := s.verifyCache.Get(number)
	if !cached {
		var err error
		d, err = s.store.FindByNumber(ctx, number)
		if err != nil {
			return VerifyResult{}, translateStoreErr(err, "")
		}
		s.verifyCache.Add(number, d)
	}

	if err := s.auditor.Append(ctx, audit.Entry{
		TransactionID: newTransactionID(),
		DeedNumber:    d.DeedNumber,
		Action:        audit.ActionVerify,
		PerformedBy:   "public",
		Details:       "public verification of deed " + d.DeedNumber,
	}); err != nil {
		return VerifyResult{}, err
	}

	if s.metrics != nil {
		s.metrics.Verifications.Inc()
	}
	return VerifyResult{
		DeedNumber:      d.DeedNumber,
		LandTitleNumber: d.LandTitleNumber,
		OwnerName:       d.OwnerName,
		Status:          d.Status,
		Fingerprint:     d.Fingerprint,
	}, nil
}

func (s *Service) invalidate(d deed.Deed) {
	s.verifyCache.Remove(d.DeedNumber)
	s.verifyCache.Remove(d.LandTitleNumber)
}

// newTransactionID builds a time-based transaction id; the uuid suffix keeps
// ids unique when two operations land in the same nanosecond.
func newTransactionID() string {
	return fmt.Sprintf("TXN-%s-%s", time.Now().UTC().Format("20060102150405.000000000"), uuid.NewString()[:8])
}

func translateStoreErr(err error, conflictMsg string) error {
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.New(dErrors.CodeNotFound, "deed not found")
	case errors.Is(err, sentinel.ErrConflict):
		if conflictMsg == "" {
			conflictMsg = "conflicting deed record"
		}
		return dErrors.New(dErrors.CodeConflict, conflictMsg)
	case dErrors.CodeOf(err) != dErrors.CodeInternal:
		return err
	default:
		return dErrors.Wrap(dErrors.CodeInternal, "deed store failure", err)
	}
}
