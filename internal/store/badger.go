package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"github.com/vineet-vishwakarma/Chat-App/internal/apperr"
	"github.com/vineet-vishwakarma/Chat-App/internal/metrics"
	"github.com/vineet-vishwakarma/Chat-App/internal/models"
	"github.com/vineet-vishwakarma/Chat-App/internal/room"
)

// BadgerStore keeps messages in an embedded badger database.
//
// Keys are "msg:{room}:{created_at unix nanos, 19 digits}:{id}" so a prefix
// scan over a room yields its messages in creation order; the id breaks
// ties between messages created in the same nanosecond.
type BadgerStore struct {
	db *badger.DB
}

func OpenBadger(path string) (*BadgerStore, error) {
	db, err := badger.Open(badger.DefaultOptions(path).WithLoggingLevel(badger.ERROR))
	if err != nil {
		return nil, fmt.Errorf("open badger %s: %w", path, err)
	}
	return &BadgerStore{db: db}, nil
}

func messageKey(m *models.Message) []byte {
	return []byte(fmt.Sprintf("msg:%s:%019d:%s", m.RoomID, m.CreatedAt.UnixNano(), m.ID))
}

func roomPrefix(id room.ID) []byte {
	return []byte(fmt.Sprintf("msg:%s:", id))
}

func (s *BadgerStore) Insert(_ context.Context, msg *models.Message) error {
	if err := prepare(msg); err != nil {
		return err
	}
	b, err := json.Marshal(msg)
	if err != nil {
		return apperr.Storage("failed to save message", err)
	}
	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(messageKey(msg), b)
	})
	if err != nil {
		metrics.StoreErrorsTotal.Inc()
		return apperr.Storage("failed to save message", err)
	}
	return nil
}

func (s *BadgerStore) FindByPair(_ context.Context, a, b string) ([]models.Message, error) {
	return s.scan(room.Resolve(a, b), func(m models.Message) bool { return isPair(m, a, b) })
}

func (s *BadgerStore) ListByRoom(_ context.Context, id room.ID) ([]models.Message, error) {
	return s.scan(id, func(m models.Message) bool { return m.RoomID == id })
}

func (s *BadgerStore) scan(id room.ID, keep func(models.Message) bool) ([]models.Message, error) {
	msgs := make([]models.Message, 0)
	prefix := roomPrefix(id)
	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var m models.Message
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &m)
			})
			if err != nil {
				return err
			}
			if keep(m) {
				msgs = append(msgs, m)
			}
		}
		return nil
	})
	if err != nil {
		metrics.StoreErrorsTotal.Inc()
		return nil, apperr.Storage("failed to load messages", err)
	}
	return msgs, nil
}

func (s *BadgerStore) Close() error { return s.db.Close() }
