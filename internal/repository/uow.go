package repository

import (
	"context"
	"fmt"

	"postboard/internal/observability"

	"gorm.io/gorm"
)

// Repositories is the set of repositories bound to one unit of work.
type Repositories struct {
	Users UserRepository
	Posts PostRepository
}

// UnitOfWork scopes a group of repository calls to one database transaction.
type UnitOfWork struct {
	db *gorm.DB
}

// NewUnitOfWork returns a UnitOfWork that opens transactions on db.
func NewUnitOfWork(db *gorm.DB) *UnitOfWork {
	return &UnitOfWork{db: db}
}

// Do runs fn inside a transaction. The transaction commits when fn returns nil
// and rolls back when it returns an error or panics; the connection is released
// either way. operation labels the span and the metrics.
func (u *UnitOfWork) Do(ctx context.Context, operation string, fn func(Repositories) error) (err error) {
	ctx, endSpan := observability.StartUnitOfWork(ctx, operation)
	track := observability.TrackUnitOfWork(operation)
	defer func() {
		if r := recover(); r != nil {
			perr := fmt.Errorf("unit of work %s panicked: %v", operation, r)
			track(perr)
			endSpan(perr)
			panic(r)
		}
		track(err)
		endSpan(err)
	}()

	return u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(Repositories{
			Users: NewUserRepository(tx),
			Posts: NewPostRepository(tx),
		})
	})
}
