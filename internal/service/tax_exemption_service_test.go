package service

import (
	"context"
	"testing"

	"backend/internal/model"
	"backend/internal/repository"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubTxManager struct{}

func (stubTxManager) RunInTx(ctx context.Context, fn func(txCtx context.Context) error) error {
	return fn(ctx)
}

type stubAuditRepo struct {
	repository.AuditRepository
	entries []model.AuditLog
}

func (s *stubAuditRepo) Log(ctx context.Context, entry *model.AuditLog) error {
	s.entries = append(s.entries, *entry)
	return nil
}

type stubExemptionRepo struct {
	repository.TaxExemptionRepository
	exemption *model.TaxExemption
	updated   bool
}

func (s *stubExemptionRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.TaxExemption, error) {
	copied := *s.exemption
	return &copied, nil
}

func (s *stubExemptionRepo) Update(ctx context.Context, exemption *model.TaxExemption) error {
	s.exemption = exemption
	s.updated = true
	return nil
}

func exemptionServiceWith(exemption *model.TaxExemption) (TaxExemptionService, *stubExemptionRepo, *stubAuditRepo) {
	repo := &stubExemptionRepo{exemption: exemption}
	audit := &stubAuditRepo{}
	svc := NewTaxExemptionService(repo, nil, audit, stubTxManager{}, NewNopNotifier())
	return svc, repo, audit
}

func pendingExemption() *model.TaxExemption {
	return &model.TaxExemption{
		ID:                uuid.New(),
		CertificateNumber: "CERT-100",
		Status:            model.ExemptionPending,
		IsActive:          true,
	}
}

func TestApproveExemption(t *testing.T) {
	svc, repo, audit := exemptionServiceWith(pendingExemption())
	reviewer := uuid.NewString()

	approved, err := svc.Approve(context.Background(), repo.exemption.ID.String(), reviewer)

	require.NoError(t, err)
	assert.Equal(t, model.ExemptionApproved, approved.Status)
	require.NotNil(t, approved.DecidedBy)
	assert.Equal(t, reviewer, approved.DecidedBy.String())
	assert.NotNil(t, approved.DecidedAt)
	assert.True(t, repo.updated)
	require.Len(t, audit.entries, 1)
	assert.Equal(t, model.ActionApproveExemption, audit.entries[0].Action)
}

func TestApproveExemptionOnlyFromPending(t *testing.T) {
	exemption := pendingExemption()
	exemption.Status = model.ExemptionRejected

	svc, repo, _ := exemptionServiceWith(exemption)
	_, err := svc.Approve(context.Background(), exemption.ID.String(), uuid.NewString())

	assert.ErrorContains(t, err, "already REJECTED")
	assert.False(t, repo.updated)
}

func TestRejectExemptionRequiresReason(t *testing.T) {
	svc, repo, _ := exemptionServiceWith(pendingExemption())

	_, err := svc.Reject(context.Background(), repo.exemption.ID.String(), uuid.NewString(), "")
	assert.ErrorContains(t, err, "reason is required")

	rejected, err := svc.Reject(context.Background(), repo.exemption.ID.String(), uuid.NewString(), "certificate expired")
	require.NoError(t, err)
	assert.Equal(t, model.ExemptionRejected, rejected.Status)
	assert.Equal(t, "certificate expired", rejected.RejectionReason)
}

func TestSuspendExemptionRequiresApproved(t *testing.T) {
	svc, repo, _ := exemptionServiceWith(pendingExemption())
	_, err := svc.Suspend(context.Background(), repo.exemption.ID.String(), uuid.NewString())
	assert.ErrorContains(t, err, "only an approved exemption")

	approved := pendingExemption()
	approved.Status = model.ExemptionApproved
	svc, repo, _ = exemptionServiceWith(approved)

	suspended, err := svc.Suspend(context.Background(), repo.exemption.ID.String(), uuid.NewString())
	require.NoError(t, err)
	assert.Equal(t, model.ExemptionSuspended, suspended.Status)
}

func TestListExemptionsRejectsUnknownStatus(t *testing.T) {
	svc, _, _ := exemptionServiceWith(pendingExemption())
	_, _, err := svc.List(context.Background(), ExemptionFilter{Status: "MAYBE"})
	assert.ErrorContains(t, err, "unknown exemption status")
}
