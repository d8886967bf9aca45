package repository

import "context"

// Transactor runs fn inside a single storage transaction. Repositories called
// with the ctx handed to fn take part in that transaction. Any error returned
// by fn rolls the transaction back.
type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// ReadOnlyTransactor is implemented by stores that can run read-only
// transactions side by side. fn must not write.
type ReadOnlyTransactor interface {
	WithinReadOnlyTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
