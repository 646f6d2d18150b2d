package service

import (
	"context"
	"fmt"

	"github.com/vanshika/chargeback/backend/internal/domain"
)

// EvidenceWriter is the storage contract required to load evidence records.
type EvidenceWriter interface {
	UpsertPaymentEvidence(ctx context.Context, ev domain.PaymentEvidence) error
}

// EvidenceService validates inbound evidence records and persists them to the graph.
type EvidenceService struct {
	repo EvidenceWriter
}

// NewEvidenceService constructs an EvidenceService.
func NewEvidenceService(repo EvidenceWriter) *EvidenceService {
	return &EvidenceService{repo: repo}
}

// UpsertEvidence normalizes an evidence payload and writes it.
func (s *EvidenceService) UpsertEvidence(ctx context.Context, input EvidenceInput) error {
	ev := input.ToDomain()
	if ev.PaymentID == "" {
		return fmt.Errorf("payment ID is required")
	}
	if input.IP != "" && ev.IP == "" {
		return fmt.Errorf("payment %s: invalid ip address %q", ev.PaymentID, input.IP)
	}
	for _, s := range ev.Sessions {
		if s.Start != nil && s.End != nil && s.End.Before(*s.Start) {
			return fmt.Errorf("payment %s: session %s ends before it starts", ev.PaymentID, s.ID)
		}
	}
	return s.repo.UpsertPaymentEvidence(ctx, ev)
}
