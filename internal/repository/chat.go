package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"market_chat/internal/domain"
	apperrors "market_chat/pkg/errors"
	"market_chat/pkg/logger"
)

type ChatRepository interface {
	CreateMessage(ctx context.Context, message *domain.ChatMessage) error
	GetMessages(ctx context.Context, roomID uuid.UUID) ([]*domain.ChatMessage, error)
	MarkRoomRead(ctx context.Context, roomID uuid.UUID, readerID string) ([]int64, error)
}

type chatRepository struct {
	db  DB
	log logger.Logger
}

func NewChatRepository(db DB, log logger.Logger) ChatRepository {
	return &chatRepository{db: db, log: log}
}

func (r *chatRepository) CreateMessage(ctx context.Context, message *domain.ChatMessage) error {
	query := `
		INSERT INTO chat_messages (room_id, sender_id, content, client_id, sent_at, is_read)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`

	err := r.db.QueryRow(ctx, query,
		message.RoomID, message.SenderID, message.Content,
		message.ClientID, message.SentAt, message.Read,
	).Scan(&message.ID)

	if err != nil {
		if isForeignKeyViolation(err) {
			// the room was deleted after the caller looked it up
			return fmt.Errorf("create message: %w", apperrors.ErrRoomNotFound)
		}
		r.log.Error("Failed to create message", "room_id", message.RoomID, "error", err)
		return err
	}

	return nil
}

// GetMessages returns the full history in send order. Messages sharing a
// timestamp keep insertion order.
func (r *chatRepository) GetMessages(ctx context.Context, roomID uuid.UUID) ([]*domain.ChatMessage, error) {
	query := `
		SELECT id, room_id, sender_id, content, client_id, sent_at, is_read
		FROM chat_messages
		WHERE room_id = $1
		ORDER BY sent_at, id
	`

	rows, err := r.db.Query(ctx, query, roomID)
	if err != nil {
		r.log.Error("Failed to get messages", "room_id", roomID, "error", err)
		return nil, err
	}
	defer rows.Close()

	messages := []*domain.ChatMessage{}
	for rows.Next() {
		message := &domain.ChatMessage{}
		err := rows.Scan(
			&message.ID, &message.RoomID, &message.SenderID, &message.Content,
			&message.ClientID, &message.SentAt, &message.Read,
		)
		if err != nil {
			r.log.Error("Failed to scan message", "error", err)
			return nil, err
		}
		messages = append(messages, message)
	}
	if err := rows.Err(); err != nil {
		r.log.Error("Failed to iterate messages", "room_id", roomID, "error", err)
		return nil, err
	}

	return messages, nil
}

// MarkRoomRead flips every unread message in the room not sent by readerID
// and returns the ids it changed. Rows inserted after the statement starts are
// left alone.
func (r *chatRepository) MarkRoomRead(ctx context.Context, roomID uuid.UUID, readerID string) ([]int64, error) {
	query := `
		UPDATE chat_messages
		SET is_read = true
		WHERE room_id = $1 AND sender_id <> $2 AND NOT is_read
		RETURNING id
	`

	rows, err := r.db.Query(ctx, query, roomID, readerID)
	if err != nil {
		r.log.Error("Failed to mark messages read", "room_id", roomID, "error", err)
		return nil, err
	}
	defer rows.Close()

	ids := []int64{}
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			r.log.Error("Failed to scan read message id", "error", err)
			return nil, err
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		r.log.Error("Failed to mark messages read", "room_id", roomID, "error", err)
		return nil, err
	}

	return ids, nil
}
