package repo

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Base is embedded by the yard repositories. Each repository's WithTx builds
// a new Base around the transaction handle.
type Base struct {
	db *gorm.DB
}

func NewBase(db *gorm.DB) Base {
	return Base{db: db}
}

// DB returns the connection bound to ctx. A nil ctx returns the raw handle.
func (b Base) DB(ctx context.Context) *gorm.DB {
	if ctx == nil {
		return b.db
	}
	return b.db.WithContext(ctx)
}

// ForUpdate is DB with a row lock held until the surrounding transaction
// ends. Approval locks racks and requests; receiving locks the shipment and
// the rack it settles into. SQLite drops the clause.
func (b Base) ForUpdate(ctx context.Context) *gorm.DB {
	return b.DB(ctx).Clauses(clause.Locking{Strength: "UPDATE"})
}

// InTx reports whether the base is bound to an open transaction.
func (b Base) InTx() bool {
	if b.db == nil || b.db.Statement == nil {
		return false
	}
	_, ok := b.db.Statement.ConnPool.(gorm.TxCommitter)
	return ok
}
