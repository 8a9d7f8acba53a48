package dbctx

import (
	"context"

	"gorm.io/gorm"
)

// Context bundles a request context with an optional GORM transaction.
// Store methods receive it as their first argument; a nil Tx means the
// store should fall back to its own connection.
type Context struct {
	Ctx context.Context
	Tx  *gorm.DB
}
