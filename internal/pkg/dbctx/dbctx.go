package dbctx

import (
	"context"

	"gorm.io/gorm"
)

// Context carries a request context together with an optional transaction.
// Repos run against Tx when it is set and fall back to their own handle
// otherwise, so a service can compose several repo calls into one
// transaction without changing any repo signatures.
type Context struct {
	Ctx context.Context
	Tx  *gorm.DB
}
