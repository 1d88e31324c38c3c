package services

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/medgrove/med-web-ui/internal/models"
	bolt "go.etcd.io/bbolt"
)

// historyLimit caps how many entries a conversation retains. Older entries
// are discarded on append.
const historyLimit = 20

// BoltStore implements the conversation Store interface using a BoltDB
// backend. Each browser session maps to one bucket of ordered messages.
type BoltStore struct {
	db *bolt.DB
}

// NewBoltStore creates a new BoltStore instance with the specified file path. The
// database file is created with 0600 permissions if it doesn't exist.
func NewBoltStore(path string) (BoltStore, error) {
	db, err := bolt.Open(path, 0600, nil)
	if err != nil {
		return BoltStore{}, fmt.Errorf("failed to open bolt db: %w", err)
	}

	return BoltStore{db: db}, nil
}

func conversationBucketName(sessionID string) []byte {
	return []byte(fmt.Sprintf("conversation-%s", sessionID))
}

// Messages retrieves the conversation for a session in insertion order. A
// session with no history yields an empty slice, not an error.
func (b BoltStore) Messages(_ context.Context, sessionID string) ([]models.Message, error) {
	var messages []models.Message
	err := b.db.View(func(tx *bolt.Tx) error {
		bkt := tx.Bucket(conversationBucketName(sessionID))
		if bkt == nil {
			return nil
		}

		return bkt.ForEach(func(_, v []byte) error {
			var message models.Message
			if err := json.Unmarshal(v, &message); err != nil {
				return fmt.Errorf("failed to unmarshal message: %w", err)
			}
			messages = append(messages, message)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return messages, nil
}

// AppendMessage stores a new message at the end of the session's
// conversation, then trims the conversation to the retention limit. It
// generates a sequence-prefixed ID so bucket iteration preserves insertion
// order, and returns the new ID.
func (b BoltStore) AppendMessage(_ context.Context, sessionID string, message models.Message) (string, error) {
	var newID string
	err := b.db.Update(func(tx *bolt.Tx) error {
		bkt, err := tx.CreateBucketIfNotExists(conversationBucketName(sessionID))
		if err != nil {
			return fmt.Errorf("failed to create conversation bucket: %w", err)
		}

		seq, err := bkt.NextSequence()
		if err != nil {
			return fmt.Errorf("failed to get next sequence: %w", err)
		}
		newID = fmt.Sprintf("%020d-%s", seq, message.ID)
		message.ID = newID

		v, err := json.Marshal(message)
		if err != nil {
			return fmt.Errorf("failed to marshal message: %w", err)
		}
		if err := bkt.Put([]byte(newID), v); err != nil {
			return err
		}

		return trimBucket(bkt, historyLimit)
	})

	return newID, err
}

// trimBucket deletes the oldest keys until at most limit remain. Keys are
// zero-padded sequence numbers, so byte order is insertion order.
func trimBucket(bkt *bolt.Bucket, limit int) error {
	count := 0
	c := bkt.Cursor()
	for k, _ := c.First(); k != nil; k, _ = c.Next() {
		count++
	}

	for excess := count - limit; excess > 0; excess-- {
		if k, _ := c.First(); k == nil {
			return nil
		}
		if err := c.Delete(); err != nil {
			return err
		}
	}
	return nil
}

// ClearConversation removes the session's conversation entirely. Clearing a
// session that has no history is a no-op.
func (b BoltStore) ClearConversation(_ context.Context, sessionID string) error {
	return b.db.Update(func(tx *bolt.Tx) error {
		if tx.Bucket(conversationBucketName(sessionID)) == nil {
			return nil
		}
		return tx.DeleteBucket(conversationBucketName(sessionID))
	})
}

// Close releases the underlying database file.
func (b BoltStore) Close() error {
	return b.db.Close()
}
