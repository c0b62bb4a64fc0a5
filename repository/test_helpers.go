package repository

import (
	"roundsettle/application"
	"roundsettle/database"
	"roundsettle/domain/interfaces"
)

// CreateTestUnitOfWork creates a unit of work for testing with the provided transactional publisher
func CreateTestUnitOfWork(db *database.DB, transactionalPublisher interfaces.TransactionalEventPublisher) application.UnitOfWork {
	return NewUnitOfWorkFactory(db).CreateWithPublisher(transactionalPublisher)
}
