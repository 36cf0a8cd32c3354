package service

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/google/uuid"

	"market_chat/internal/domain"
	apperrors "market_chat/pkg/errors"
)

// memDB backs the fake repositories with the same uniqueness rules as the
// Postgres schema.
type memDB struct {
	mu         sync.Mutex
	users      map[string]*domain.User
	txns       map[int64]*domain.Transaction
	rooms      map[uuid.UUID]*domain.Room
	messages   []*domain.ChatMessage
	audits     []*domain.AuditLog
	nextTxnID  int64
	nextMsgID  int64
	failCreate error
	// beforeRoomCreate runs ahead of the uniqueness check, outside the lock.
	beforeRoomCreate func()
}

func newMemDB(users ...string) *memDB {
	db := &memDB{
		users: map[string]*domain.User{},
		txns:  map[int64]*domain.Transaction{},
		rooms: map[uuid.UUID]*domain.Room{},
	}
	for _, id := range users {
		db.users[id] = &domain.User{ID: id, Name: "name-" + id}
	}
	return db
}

func (db *memDB) insertRoom(room *domain.Room) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	for _, r := range db.rooms {
		if room.TransactionID != nil && r.TransactionID != nil && *r.TransactionID == *room.TransactionID {
			return apperrors.ErrConflict
		}
		if room.RoomType == domain.RoomTypeFriend && r.RoomType == domain.RoomTypeFriend &&
			r.HasParticipant(room.BuyerID) && r.HasParticipant(room.SellerID) {
			return apperrors.ErrConflict
		}
	}
	stored := *room
	db.rooms[room.ID] = &stored
	return nil
}

func (db *memDB) messageByID(id int64) *domain.ChatMessage {
	db.mu.Lock()
	defer db.mu.Unlock()
	for _, m := range db.messages {
		if m.ID == id {
			copied := *m
			return &copied
		}
	}
	return nil
}

type fakeRooms struct{ db *memDB }

func (f *fakeRooms) Create(ctx context.Context, room *domain.Room) error {
	if f.db.beforeRoomCreate != nil {
		hook := f.db.beforeRoomCreate
		f.db.beforeRoomCreate = nil
		hook()
	}
	if f.db.failCreate != nil {
		return f.db.failCreate
	}
	return f.db.insertRoom(room)
}

func (f *fakeRooms) GetByID(ctx context.Context, id uuid.UUID) (*domain.Room, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	r, ok := f.db.rooms[id]
	if !ok {
		return nil, apperrors.ErrRoomNotFound
	}
	copied := *r
	return &copied, nil
}

func (f *fakeRooms) GetByTransactionID(ctx context.Context, transactionID int64) (*domain.Room, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	for _, r := range f.db.rooms {
		if r.TransactionID != nil && *r.TransactionID == transactionID {
			copied := *r
			return &copied, nil
		}
	}
	return nil, apperrors.ErrRoomNotFound
}

func (f *fakeRooms) GetFriendRoom(ctx context.Context, user1, user2 string) (*domain.Room, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	for _, r := range f.db.rooms {
		if r.RoomType == domain.RoomTypeFriend && r.HasParticipant(user1) && r.HasParticipant(user2) {
			copied := *r
			return &copied, nil
		}
	}
	return nil, apperrors.ErrRoomNotFound
}

func (f *fakeRooms) details(r *domain.Room) *domain.RoomDetails {
	d := &domain.RoomDetails{Room: *r}
	if u, ok := f.db.users[r.BuyerID]; ok {
		d.BuyerName = u.Name
	}
	if u, ok := f.db.users[r.SellerID]; ok {
		d.SellerName = u.Name
	}
	return d
}

func (f *fakeRooms) GetDetails(ctx context.Context, id uuid.UUID) (*domain.RoomDetails, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	r, ok := f.db.rooms[id]
	if !ok {
		return nil, apperrors.ErrRoomNotFound
	}
	return f.details(r), nil
}

func (f *fakeRooms) ListDetailsByUser(ctx context.Context, userID string, roomType *domain.RoomType) ([]*domain.RoomDetails, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	out := []*domain.RoomDetails{}
	for _, r := range f.db.rooms {
		if !r.HasParticipant(userID) {
			continue
		}
		if roomType != nil && r.RoomType != *roomType {
			continue
		}
		out = append(out, f.details(r))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt > out[j].CreatedAt })
	return out, nil
}

func (f *fakeRooms) Delete(ctx context.Context, id uuid.UUID) error {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	if _, ok := f.db.rooms[id]; !ok {
		return apperrors.ErrRoomNotFound
	}
	kept := f.db.messages[:0]
	for _, m := range f.db.messages {
		if m.RoomID != id {
			kept = append(kept, m)
		}
	}
	f.db.messages = kept
	delete(f.db.rooms, id)
	return nil
}

type fakeChat struct{ db *memDB }

func (f *fakeChat) CreateMessage(ctx context.Context, message *domain.ChatMessage) error {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	f.db.nextMsgID++
	message.ID = f.db.nextMsgID
	stored := *message
	f.db.messages = append(f.db.messages, &stored)
	return nil
}

func (f *fakeChat) GetMessages(ctx context.Context, roomID uuid.UUID) ([]*domain.ChatMessage, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	out := []*domain.ChatMessage{}
	for _, m := range f.db.messages {
		if m.RoomID == roomID {
			copied := *m
			out = append(out, &copied)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].SentAt.Equal(out[j].SentAt) {
			return out[i].SentAt.Before(out[j].SentAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (f *fakeChat) MarkRoomRead(ctx context.Context, roomID uuid.UUID, readerID string) ([]int64, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	ids := []int64{}
	// reverse order so callers cannot rely on the store sorting
	for i := len(f.db.messages) - 1; i >= 0; i-- {
		m := f.db.messages[i]
		if m.RoomID == roomID && m.SenderID != readerID && !m.Read {
			m.Read = true
			ids = append(ids, m.ID)
		}
	}
	return ids, nil
}

type fakeUsers struct{ db *memDB }

func (f *fakeUsers) GetByID(ctx context.Context, id string) (*domain.User, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	u, ok := f.db.users[id]
	if !ok {
		return nil, apperrors.ErrUserNotFound
	}
	copied := *u
	return &copied, nil
}

type fakeTransactions struct{ db *memDB }

func (f *fakeTransactions) Create(ctx context.Context, txn *domain.Transaction) error {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	f.db.nextTxnID++
	txn.ID = f.db.nextTxnID
	stored := *txn
	f.db.txns[txn.ID] = &stored
	return nil
}

func (f *fakeTransactions) GetByID(ctx context.Context, id int64) (*domain.Transaction, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	t, ok := f.db.txns[id]
	if !ok {
		return nil, apperrors.ErrTransactionNotFound
	}
	copied := *t
	return &copied, nil
}

type fakeAudit struct{ db *memDB }

func (f *fakeAudit) CreateLog(ctx context.Context, log *domain.AuditLog) error {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	f.db.audits = append(f.db.audits, log)
	return nil
}

type published struct {
	topic   string
	payload string
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []published
	err    error
}

func (p *recordingPublisher) Publish(ctx context.Context, topic string, payload []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, published{topic: topic, payload: string(payload)})
	return nil
}

func (p *recordingPublisher) onTopic(topic string) []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []string
	for _, e := range p.events {
		if e.topic == topic {
			out = append(out, e.payload)
		}
	}
	return out
}

var errBrokerDown = errors.New("broker down")
