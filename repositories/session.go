//go:generate go run go.uber.org/mock/mockgen -source=session.go -destination=../mocks/mock_session_repository.go -package=mocks
package repositories

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

const sessionPrefix = "session:"

var validate = validator.New()

type ISessionRepository interface {
	StoreJoin(record SessionRecord) error
	StoreLeave(record SessionRecord) error
	ListSessions(limit *int) ([]SessionRecord, error)
}

// SessionRecord is what the ledger keeps about one session.
// Message content is never stored.
type SessionRecord struct {
	ID         uuid.UUID  `json:"id" validate:"required"`
	Name       string     `json:"name" validate:"required"`
	RemoteAddr string     `json:"remote_addr"`
	JoinedAt   time.Time  `json:"joined_at" validate:"required"`
	LeftAt     *time.Time `json:"left_at,omitempty"`
	Reason     string     `json:"reason,omitempty"`
	Messages   int        `json:"messages" validate:"gte=0"`
}

type SessionRepository struct {
	db  *badger.DB
	log *slog.Logger
}

func NewSessionRepository(db *badger.DB, log *slog.Logger) SessionRepository {
	return SessionRepository{db: db, log: log}
}

// StoreJoin persists a session when it enters the room.
// The key is formatted as "session:{joined_at_padded}:{uuid}" so a prefix scan
// returns sessions in join order, the uuid breaks nanosecond ties.
func (r SessionRepository) StoreJoin(record SessionRecord) error {
	return r.store(record)
}

// StoreLeave overwrites the record written by StoreJoin.
// A leave without a prior join is stored anyway.
func (r SessionRepository) StoreLeave(record SessionRecord) error {
	if record.LeftAt == nil {
		return fmt.Errorf("session %s: missing leave time", record.ID)
	}
	return r.store(record)
}

// ListSessions returns at most limit records, oldest join first.
func (r SessionRepository) ListSessions(limit *int) ([]SessionRecord, error) {
	var records []SessionRecord
	err := r.db.View(func(txn *badger.Txn) error {
		prefix := []byte(sessionPrefix)
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			if limit != nil && len(records) == *limit {
				r.log.Debug(fmt.Sprintf("Maximum of %d sessions reached", *limit))
				break
			}
			err := it.Item().Value(func(value []byte) error {
				var record SessionRecord
				if err := json.Unmarshal(value, &record); err != nil {
					return err
				}
				records = append(records, record)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return records, nil
}

func (r SessionRepository) store(record SessionRecord) error {
	if err := validate.Struct(record); err != nil {
		return fmt.Errorf("invalid session record: %w", err)
	}
	bytes, err := json.Marshal(record)
	if err != nil {
		return err
	}
	return r.db.Update(func(txn *badger.Txn) error {
		return txn.Set(sessionKey(record), bytes)
	})
}

func sessionKey(record SessionRecord) []byte {
	return []byte(fmt.Sprintf("%s%019d:%s", sessionPrefix, record.JoinedAt.UnixNano(), record.ID))
}
