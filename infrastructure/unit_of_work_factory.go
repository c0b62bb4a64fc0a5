package infrastructure

import (
	"roundsettle/application"
	"roundsettle/database"
	"roundsettle/domain/interfaces"
	"roundsettle/repository"
)

// UnitOfWorkFactory implements the application.UnitOfWorkFactory interface.
// Every unit of work gets its own transactional publisher over the shared event publisher.
type UnitOfWorkFactory struct {
	repoFactory    *repository.UnitOfWorkFactory
	eventPublisher interfaces.EventPublisher
}

// NewUnitOfWorkFactory creates a new UnitOfWorkFactory
func NewUnitOfWorkFactory(db *database.DB, eventPublisher interfaces.EventPublisher) *UnitOfWorkFactory {
	return &UnitOfWorkFactory{
		repoFactory:    repository.NewUnitOfWorkFactory(db),
		eventPublisher: eventPublisher,
	}
}

// Create creates a new UnitOfWork whose events are published after commit
func (f *UnitOfWorkFactory) Create() application.UnitOfWork {
	return f.repoFactory.CreateWithPublisher(NewNATSTransactionalPublisher(f.eventPublisher))
}
