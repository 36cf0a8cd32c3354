package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"market_chat/internal/domain"
	"market_chat/internal/metrics"
	"market_chat/internal/repository"
	apperrors "market_chat/pkg/errors"
	"market_chat/pkg/logger"
)

type RoomService interface {
	CreateTransactionRoom(ctx context.Context, transactionID *int64, buyerID, sellerID string) (*domain.RoomView, error)
	CreateOrGetFriendRoom(ctx context.Context, user1, user2 string) (*domain.RoomView, error)
	ListRoomsForUser(ctx context.Context, userID string, roomType *domain.RoomType) ([]domain.RoomView, error)
	GetRoom(ctx context.Context, id uuid.UUID) (*domain.RoomView, error)
	GetRoomEntity(ctx context.Context, id uuid.UUID) (*domain.Room, error)
	DeleteRoom(ctx context.Context, id uuid.UUID) error
	IsParticipant(ctx context.Context, roomID uuid.UUID, userID string) (bool, error)
}

type roomService struct {
	roomRepo        repository.RoomRepository
	userRepo        repository.UserRepository
	transactionRepo repository.TransactionRepository
	audit           AuditService
	log             logger.Logger
	now             func() time.Time
}

func NewRoomService(
	roomRepo repository.RoomRepository,
	userRepo repository.UserRepository,
	transactionRepo repository.TransactionRepository,
	audit AuditService,
	log logger.Logger,
) RoomService {
	return &roomService{
		roomRepo:        roomRepo,
		userRepo:        userRepo,
		transactionRepo: transactionRepo,
		audit:           audit,
		log:             log,
		now:             time.Now,
	}
}

// CreateTransactionRoom returns the trade room for a transaction, creating the
// transaction and the room when they do not exist yet. Both steps are
// idempotent, so a caller holding the transaction id from a failed attempt can
// simply retry with it.
//
// When ctx carries an actor, the actor must be the buyer or the seller of the
// transaction; nothing is created otherwise.
func (s *roomService) CreateTransactionRoom(ctx context.Context, transactionID *int64, buyerID, sellerID string) (*domain.RoomView, error) {
	actor := ActorID(ctx)
	if transactionID == nil && actor != "" && actor != buyerID && actor != sellerID {
		return nil, fmt.Errorf("%w: user %s is not a party to the new transaction", apperrors.ErrForbidden, actor)
	}

	txn, err := s.ensureTransaction(ctx, transactionID, buyerID, sellerID)
	if err != nil {
		return nil, err
	}
	if actor != "" && actor != txn.BuyerID && actor != txn.SellerID {
		return nil, fmt.Errorf("%w: user %s is not a party to transaction %d", apperrors.ErrForbidden, actor, txn.ID)
	}

	room, err := s.ensureTransactionRoom(ctx, txn)
	if err != nil {
		return nil, fmt.Errorf("ensure room for transaction %d: %w", txn.ID, err)
	}

	return s.GetRoom(ctx, room.ID)
}

func (s *roomService) ensureTransaction(ctx context.Context, transactionID *int64, buyerID, sellerID string) (*domain.Transaction, error) {
	if transactionID != nil {
		return s.transactionRepo.GetByID(ctx, *transactionID)
	}

	if _, err := s.userRepo.GetByID(ctx, buyerID); err != nil {
		return nil, fmt.Errorf("buyer %s: %w", buyerID, err)
	}
	if _, err := s.userRepo.GetByID(ctx, sellerID); err != nil {
		return nil, fmt.Errorf("seller %s: %w", sellerID, err)
	}

	txn := &domain.Transaction{BuyerID: buyerID, SellerID: sellerID}
	if err := s.transactionRepo.Create(ctx, txn); err != nil {
		return nil, fmt.Errorf("create transaction: %w", err)
	}
	s.log.Info("Transaction created for chat room", "transaction_id", txn.ID, "buyer_id", buyerID, "seller_id", sellerID)

	return txn, nil
}

func (s *roomService) ensureTransactionRoom(ctx context.Context, txn *domain.Transaction) (*domain.Room, error) {
	existing, err := s.roomRepo.GetByTransactionID(ctx, txn.ID)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, apperrors.ErrRoomNotFound) {
		return nil, err
	}

	transactionID := txn.ID
	room := &domain.Room{
		ID:            uuid.New(),
		BuyerID:       txn.BuyerID,
		SellerID:      txn.SellerID,
		TransactionID: &transactionID,
		RoomType:      domain.RoomTypeTrade,
		CreatedAt:     s.now().UnixMilli(),
	}

	if err := s.roomRepo.Create(ctx, room); err != nil {
		if errors.Is(err, apperrors.ErrConflict) {
			return s.roomRepo.GetByTransactionID(ctx, txn.ID)
		}
		return nil, err
	}
	s.roomCreated(ctx, room)

	return room, nil
}

func (s *roomService) CreateOrGetFriendRoom(ctx context.Context, user1, user2 string) (*domain.RoomView, error) {
	if user1 == user2 {
		return nil, fmt.Errorf("%w: cannot open a friend room with yourself", apperrors.ErrValidation)
	}
	if _, err := s.userRepo.GetByID(ctx, user1); err != nil {
		return nil, fmt.Errorf("user %s: %w", user1, err)
	}
	if _, err := s.userRepo.GetByID(ctx, user2); err != nil {
		return nil, fmt.Errorf("user %s: %w", user2, err)
	}

	room, err := s.roomRepo.GetFriendRoom(ctx, user1, user2)
	if err == nil {
		return s.GetRoom(ctx, room.ID)
	}
	if !errors.Is(err, apperrors.ErrRoomNotFound) {
		return nil, err
	}

	room = &domain.Room{
		ID:        uuid.New(),
		BuyerID:   user1,
		SellerID:  user2,
		RoomType:  domain.RoomTypeFriend,
		CreatedAt: s.now().UnixMilli(),
	}
	if err := s.roomRepo.Create(ctx, room); err != nil {
		if !errors.Is(err, apperrors.ErrConflict) {
			return nil, err
		}
		// lost the race for this pair
		room, err = s.roomRepo.GetFriendRoom(ctx, user1, user2)
		if err != nil {
			return nil, err
		}
	} else {
		s.roomCreated(ctx, room)
	}

	return s.GetRoom(ctx, room.ID)
}

func (s *roomService) ListRoomsForUser(ctx context.Context, userID string, roomType *domain.RoomType) ([]domain.RoomView, error) {
	details, err := s.roomRepo.ListDetailsByUser(ctx, userID, roomType)
	if err != nil {
		return nil, err
	}

	views := make([]domain.RoomView, 0, len(details))
	for _, d := range details {
		views = append(views, d.View())
	}
	return views, nil
}

func (s *roomService) GetRoom(ctx context.Context, id uuid.UUID) (*domain.RoomView, error) {
	details, err := s.roomRepo.GetDetails(ctx, id)
	if err != nil {
		return nil, err
	}
	view := details.View()
	return &view, nil
}

func (s *roomService) GetRoomEntity(ctx context.Context, id uuid.UUID) (*domain.Room, error) {
	return s.roomRepo.GetByID(ctx, id)
}

func (s *roomService) DeleteRoom(ctx context.Context, id uuid.UUID) error {
	if err := s.roomRepo.Delete(ctx, id); err != nil {
		return err
	}

	metrics.RoomsDeleted.Inc()
	s.log.Info("Chat room deleted", "room_id", id)
	if err := s.audit.LogEvent(ctx, &id, domain.EventTypeRoomDeleted, nil); err != nil {
		s.log.Warn("Failed to audit room deletion", "room_id", id, "error", err)
	}
	return nil
}

func (s *roomService) IsParticipant(ctx context.Context, roomID uuid.UUID, userID string) (bool, error) {
	room, err := s.roomRepo.GetByID(ctx, roomID)
	if err != nil {
		return false, err
	}
	return room.HasParticipant(userID), nil
}

func (s *roomService) roomCreated(ctx context.Context, room *domain.Room) {
	metrics.RoomsCreated.WithLabelValues(string(room.RoomType)).Inc()
	s.log.Info("Chat room created", "room_id", room.ID, "room_type", room.RoomType)

	payload := map[string]interface{}{
		"room_type": room.RoomType,
		"buyer_id":  room.BuyerID,
		"seller_id": room.SellerID,
	}
	if room.TransactionID != nil {
		payload["transaction_id"] = *room.TransactionID
	}
	if err := s.audit.LogEvent(ctx, &room.ID, domain.EventTypeRoomCreated, payload); err != nil {
		s.log.Warn("Failed to audit room creation", "room_id", room.ID, "error", err)
	}
}
