package services

import (
	"context"
	"fmt"

	"roundsettle/domain/entities"
	"roundsettle/domain/events"
	"roundsettle/domain/interfaces"
	"roundsettle/domain/utils"

	log "github.com/sirupsen/logrus"
)

type commissionService struct {
	commissionRepo interfaces.CommissionRecordRepository
	accountRepo    interfaces.AccountRepository
	ledgerRepo     interfaces.LedgerEntryRepository
	eventPublisher interfaces.EventPublisher
}

// NewCommissionService creates a new commission service
func NewCommissionService(
	commissionRepo interfaces.CommissionRecordRepository,
	accountRepo interfaces.AccountRepository,
	ledgerRepo interfaces.LedgerEntryRepository,
	eventPublisher interfaces.EventPublisher,
) interfaces.CommissionService {
	return &commissionService{
		commissionRepo: commissionRepo,
		accountRepo:    accountRepo,
		ledgerRepo:     ledgerRepo,
		eventPublisher: eventPublisher,
	}
}

// ApplyShare claims the (round, account, tier) key and credits the share.
// Returns nil when the key was already taken by an earlier run.
func (s *commissionService) ApplyShare(ctx context.Context, share *entities.CommissionShare) (*entities.CommissionRecord, error) {
	if share.Amount <= 0 {
		return nil, fmt.Errorf("commission share for account %d tier %d has no amount", share.AccountID, share.Tier)
	}

	record := share.Record()
	inserted, err := s.commissionRepo.TryInsert(ctx, record)
	if err != nil {
		return nil, fmt.Errorf("failed to record commission: %w", err)
	}
	if !inserted {
		log.WithFields(log.Fields{
			"round_id":   share.RoundID,
			"account_id": share.AccountID,
			"tier":       share.Tier,
		}).Debug("Commission already paid, skipping")
		return nil, nil
	}

	roundID := share.RoundID
	entry := &entities.LedgerEntry{
		AccountID: share.AccountID,
		Kind:      entities.EntryKindCommission,
		Amount:    share.Amount,
		RoundID:   &roundID,
		Metadata: map[string]any{
			"round_id": share.RoundID,
			"tier":     share.Tier,
			"rate":     share.Rate.String(),
			"sources":  share.Sources,
		},
	}
	if err := utils.ApplyLedgerEntry(ctx, s.accountRepo, s.ledgerRepo, s.eventPublisher, entry); err != nil {
		return nil, fmt.Errorf("failed to credit commission: %w", err)
	}

	if err := s.eventPublisher.Publish(events.CommissionPaidEvent{
		RoundID:   share.RoundID,
		AccountID: share.AccountID,
		Tier:      share.Tier,
		Amount:    share.Amount,
	}); err != nil {
		log.WithError(err).Error("Failed to publish commission paid event")
	}

	return record, nil
}
