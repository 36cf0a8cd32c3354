package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"market_chat/internal/domain"
	apperrors "market_chat/pkg/errors"
	"market_chat/pkg/logger"
)

type TransactionRepository interface {
	Create(ctx context.Context, transaction *domain.Transaction) error
	GetByID(ctx context.Context, id int64) (*domain.Transaction, error)
}

type transactionRepository struct {
	db  DB
	log logger.Logger
}

func NewTransactionRepository(db DB, log logger.Logger) TransactionRepository {
	return &transactionRepository{db: db, log: log}
}

func (r *transactionRepository) Create(ctx context.Context, transaction *domain.Transaction) error {
	query := `
		INSERT INTO item_transactions (buyer_id, seller_id, item_id)
		VALUES ($1, $2, $3)
		RETURNING id
	`

	err := r.db.QueryRow(ctx, query,
		transaction.BuyerID, transaction.SellerID, transaction.ItemID,
	).Scan(&transaction.ID)
	if err != nil {
		r.log.Error("Failed to create transaction", "buyer_id", transaction.BuyerID, "seller_id", transaction.SellerID, "error", err)
		return err
	}

	return nil
}

func (r *transactionRepository) GetByID(ctx context.Context, id int64) (*domain.Transaction, error) {
	query := `SELECT id, buyer_id, seller_id, item_id FROM item_transactions WHERE id = $1`

	transaction := &domain.Transaction{}
	err := r.db.QueryRow(ctx, query, id).Scan(
		&transaction.ID, &transaction.BuyerID, &transaction.SellerID, &transaction.ItemID,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrTransactionNotFound
		}
		r.log.Error("Failed to get transaction", "transaction_id", id, "error", err)
		return nil, err
	}

	return transaction, nil
}
