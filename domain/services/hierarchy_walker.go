package services

import (
	"context"
	"fmt"

	"roundsettle/domain/entities"
	"roundsettle/domain/interfaces"

	log "github.com/sirupsen/logrus"
)

type hierarchyWalker struct {
	accounts interfaces.AccountReader
}

// NewHierarchyWalker creates a walker over parent references
func NewHierarchyWalker(accounts interfaces.AccountReader) interfaces.HierarchyWalker {
	return &hierarchyWalker{accounts: accounts}
}

// GetUpline follows parent references from the account, nearest ancestor first.
// The walk stops at the root, after maxDepth ancestors, at a dangling parent, or
// when an id repeats.
func (w *hierarchyWalker) GetUpline(ctx context.Context, accountID int64, maxDepth int) ([]*entities.Account, error) {
	if maxDepth <= 0 {
		return nil, nil
	}

	account, err := w.accounts.GetByID(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to get account %d: %w", accountID, err)
	}
	if account == nil {
		return nil, fmt.Errorf("%w: %d", entities.ErrAccountNotFound, accountID)
	}

	visited := map[int64]bool{account.ID: true}
	upline := make([]*entities.Account, 0, maxDepth)
	child := account

	for len(upline) < maxDepth && child.ParentID != nil {
		parentID := *child.ParentID
		if visited[parentID] {
			log.WithFields(log.Fields{
				"account_id": accountID,
				"parent_id":  parentID,
				"depth":      len(upline),
			}).Warn("Cycle detected in account hierarchy, stopping walk")
			break
		}

		parent, err := w.accounts.GetByID(ctx, parentID)
		if err != nil {
			return nil, fmt.Errorf("failed to get ancestor %d of account %d: %w", parentID, accountID, err)
		}
		if parent == nil {
			log.WithFields(log.Fields{
				"account_id": accountID,
				"parent_id":  parentID,
			}).Warn("Account hierarchy references missing parent, stopping walk")
			break
		}

		if !parent.Role.Outranks(child.Role) {
			log.WithFields(log.Fields{
				"account_id":  child.ID,
				"role":        child.Role,
				"parent_id":   parent.ID,
				"parent_role": parent.Role,
			}).Warn("Parent does not outrank child in account hierarchy")
		}

		visited[parentID] = true
		upline = append(upline, parent)
		child = parent
	}

	return upline, nil
}
