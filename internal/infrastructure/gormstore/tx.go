package gormstore

import (
	"context"
	"database/sql"

	"gorm.io/gorm"

	"github.com/oksasatya/identity-service/internal/domain/repository"
)

type txKey struct{}

// TxManager implements repository.Transactor with gorm transactions.
type TxManager struct {
	db *gorm.DB
}

func NewTxManager(db *gorm.DB) *TxManager {
	return &TxManager{db: db}
}

func (m *TxManager) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey{}).(*gorm.DB); ok {
		return fn(ctx)
	}
	return m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(context.WithValue(ctx, txKey{}, tx))
	})
}

// WithinReadOnlyTransaction runs fn in a READ ONLY transaction.
func (m *TxManager) WithinReadOnlyTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey{}).(*gorm.DB); ok {
		return fn(ctx)
	}
	return m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(context.WithValue(ctx, txKey{}, tx))
	}, &sql.TxOptions{ReadOnly: true})
}

func dbFrom(ctx context.Context, fallback *gorm.DB) *gorm.DB {
	if tx, ok := ctx.Value(txKey{}).(*gorm.DB); ok {
		return tx
	}
	return fallback
}

var (
	_ repository.Transactor         = (*TxManager)(nil)
	_ repository.ReadOnlyTransactor = (*TxManager)(nil)
)
