package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"market_chat/internal/domain"
	apperrors "market_chat/pkg/errors"
	"market_chat/pkg/logger"
)

type RoomRepository interface {
	Create(ctx context.Context, room *domain.Room) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Room, error)
	GetByTransactionID(ctx context.Context, transactionID int64) (*domain.Room, error)
	GetFriendRoom(ctx context.Context, user1, user2 string) (*domain.Room, error)
	GetDetails(ctx context.Context, id uuid.UUID) (*domain.RoomDetails, error)
	ListDetailsByUser(ctx context.Context, userID string, roomType *domain.RoomType) ([]*domain.RoomDetails, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type roomRepository struct {
	db  DB
	log logger.Logger
}

func NewRoomRepository(db DB, log logger.Logger) RoomRepository {
	return &roomRepository{db: db, log: log}
}

const roomColumns = `id, buyer_id, seller_id, transaction_id, room_type, created_at`

const roomDetailsSelect = `
	SELECT r.id, r.buyer_id, r.seller_id, r.transaction_id, r.room_type, r.created_at,
	       COALESCE(b.name, ''), COALESCE(s.name, ''),
	       i.id, i.title, i.meet_location,
	       COALESCE((SELECT array_agg(img.path ORDER BY img.position, img.id)
	                 FROM item_images img WHERE img.item_id = i.id), '{}')
	FROM chat_rooms r
	LEFT JOIN users b ON b.id = r.buyer_id
	LEFT JOIN users s ON s.id = r.seller_id
	LEFT JOIN item_transactions t ON t.id = r.transaction_id
	LEFT JOIN items i ON i.id = t.item_id
`

func (r *roomRepository) Create(ctx context.Context, room *domain.Room) error {
	query := `
		INSERT INTO chat_rooms (` + roomColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.db.Exec(ctx, query,
		room.ID, room.BuyerID, room.SellerID, room.TransactionID, string(room.RoomType), room.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			r.log.Warn("Chat room already exists (unique violation)",
				"buyer_id", room.BuyerID, "seller_id", room.SellerID, "transaction_id", room.TransactionID)
			return fmt.Errorf("create room: %w", apperrors.ErrConflict)
		}
		r.log.Error("Failed to create room", "error", err)
		return fmt.Errorf("create room: %w", err)
	}

	return nil
}

func (r *roomRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Room, error) {
	query := `SELECT ` + roomColumns + ` FROM chat_rooms WHERE id = $1`

	return r.getOne(ctx, "id", query, id)
}

func (r *roomRepository) GetByTransactionID(ctx context.Context, transactionID int64) (*domain.Room, error) {
	query := `SELECT ` + roomColumns + ` FROM chat_rooms WHERE transaction_id = $1`

	return r.getOne(ctx, "transaction_id", query, transactionID)
}

// GetFriendRoom matches the pair in either order.
func (r *roomRepository) GetFriendRoom(ctx context.Context, user1, user2 string) (*domain.Room, error) {
	query := `
		SELECT ` + roomColumns + `
		FROM chat_rooms
		WHERE room_type = 'FRIEND'
		  AND ((buyer_id = $1 AND seller_id = $2) OR (buyer_id = $2 AND seller_id = $1))
		ORDER BY created_at
		LIMIT 1
	`

	return r.getOne(ctx, "friend_pair", query, user1, user2)
}

func (r *roomRepository) getOne(ctx context.Context, by, query string, args ...any) (*domain.Room, error) {
	room := &domain.Room{}
	var roomType string
	err := r.db.QueryRow(ctx, query, args...).Scan(
		&room.ID, &room.BuyerID, &room.SellerID, &room.TransactionID, &roomType, &room.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrRoomNotFound
		}
		r.log.Error("Failed to get room", "by", by, "error", err)
		return nil, err
	}
	room.RoomType = domain.RoomType(roomType)

	return room, nil
}

func (r *roomRepository) GetDetails(ctx context.Context, id uuid.UUID) (*domain.RoomDetails, error) {
	rows, err := r.db.Query(ctx, roomDetailsSelect+` WHERE r.id = $1`, id)
	if err != nil {
		r.log.Error("Failed to get room details", "room_id", id, "error", err)
		return nil, err
	}
	details, err := r.scanDetails(rows)
	if err != nil {
		return nil, err
	}
	if len(details) == 0 {
		return nil, apperrors.ErrRoomNotFound
	}

	return details[0], nil
}

// ListDetailsByUser returns rooms the user takes part in, newest first.
func (r *roomRepository) ListDetailsByUser(ctx context.Context, userID string, roomType *domain.RoomType) ([]*domain.RoomDetails, error) {
	query := roomDetailsSelect + ` WHERE (r.buyer_id = $1 OR r.seller_id = $1)`
	args := []any{userID}
	if roomType != nil {
		query += ` AND r.room_type = $2`
		args = append(args, string(*roomType))
	}
	query += ` ORDER BY r.created_at DESC, r.id`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		r.log.Error("Failed to list rooms", "user_id", userID, "error", err)
		return nil, err
	}

	return r.scanDetails(rows)
}

func (r *roomRepository) scanDetails(rows pgx.Rows) ([]*domain.RoomDetails, error) {
	defer rows.Close()

	details := []*domain.RoomDetails{}
	for rows.Next() {
		d := &domain.RoomDetails{}
		var roomType string
		err := rows.Scan(
			&d.ID, &d.BuyerID, &d.SellerID, &d.TransactionID, &roomType, &d.CreatedAt,
			&d.BuyerName, &d.SellerName,
			&d.ItemID, &d.ItemTitle, &d.ItemMeetLocation, &d.ItemImages,
		)
		if err != nil {
			r.log.Error("Failed to scan room details", "error", err)
			return nil, err
		}
		d.RoomType = domain.RoomType(roomType)
		details = append(details, d)
	}
	if err := rows.Err(); err != nil {
		r.log.Error("Failed to iterate room details", "error", err)
		return nil, err
	}

	return details, nil
}

// Delete removes the room's messages, detaches its transaction and removes the
// room in one database transaction. The room row is locked first so a
// concurrent send cannot slip a message in between.
func (r *roomRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		r.log.Error("Failed to begin room delete", "room_id", id, "error", err)
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var locked uuid.UUID
	if err := tx.QueryRow(ctx, `SELECT id FROM chat_rooms WHERE id = $1 FOR UPDATE`, id).Scan(&locked); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.ErrRoomNotFound
		}
		r.log.Error("Failed to lock room", "room_id", id, "error", err)
		return err
	}

	if _, err := tx.Exec(ctx, `DELETE FROM chat_messages WHERE room_id = $1`, id); err != nil {
		r.log.Error("Failed to delete room messages", "room_id", id, "error", err)
		return err
	}
	if _, err := tx.Exec(ctx, `UPDATE chat_rooms SET transaction_id = NULL WHERE id = $1`, id); err != nil {
		r.log.Error("Failed to detach room transaction", "room_id", id, "error", err)
		return err
	}
	tag, err := tx.Exec(ctx, `DELETE FROM chat_rooms WHERE id = $1`, id)
	if err != nil {
		r.log.Error("Failed to delete room", "room_id", id, "error", err)
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrRoomNotFound
	}

	if err := tx.Commit(ctx); err != nil {
		r.log.Error("Failed to commit room delete", "room_id", id, "error", err)
		return err
	}

	return nil
}
