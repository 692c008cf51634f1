package badger

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/vovakirdan/chatbot-server/internal/store"
	"github.com/vovakirdan/chatbot-server/internal/utils"
)

type messageRecord struct {
	ID         string    `json:"id"`
	SenderID   string    `json:"senderId"`
	ReceiverID string    `json:"receiverId"`
	Content    string    `json:"content"`
	Timestamp  string    `json:"timestamp"`
	CreatedAt  time.Time `json:"createdAt"`
}

func newMessageRecord(msg *store.Message) messageRecord {
	return messageRecord{
		ID:         msg.ID,
		SenderID:   msg.SenderID,
		ReceiverID: msg.ReceiverID,
		Content:    msg.Content,
		Timestamp:  msg.Timestamp,
		CreatedAt:  msg.CreatedAt,
	}
}

func (r *messageRecord) toMessage() *store.Message {
	return &store.Message{
		ID:         r.ID,
		SenderID:   r.SenderID,
		ReceiverID: r.ReceiverID,
		Content:    r.Content,
		Timestamp:  r.Timestamp,
		CreatedAt:  r.CreatedAt,
	}
}

// SaveMessage stores a direct message under its sequence key and indexes it by
// receiver and by conversation.
func (s *BadgerStore) SaveMessage(ctx context.Context, msg *store.Message) error {
	seq, err := s.nextSeq()
	if err != nil {
		return err
	}
	if msg.ID == "" {
		msg.ID = utils.NewID()
	}
	msg.CreatedAt = time.Now().UTC()

	rec := newMessageRecord(msg)
	msgKey := key(prefixMessage, seqPart(seq))

	err = s.update(ctx, func(txn *badger.Txn) error {
		if err := setJSON(txn, msgKey, rec); err != nil {
			return err
		}
		if err := txn.Set([]byte(key(prefixMessageTo, msg.ReceiverID, seqPart(seq))), []byte(msgKey)); err != nil {
			return err
		}
		pair := store.PairKey(msg.SenderID, msg.ReceiverID)
		return txn.Set([]byte(key(prefixMessagePair, pair, seqPart(seq))), []byte(msgKey))
	})
	if err != nil {
		return fmt.Errorf("insert message: %w", err)
	}
	return nil
}

// ListMessagesByReceiver lists messages addressed to a user in storage order.
func (s *BadgerStore) ListMessagesByReceiver(ctx context.Context, receiverID string) ([]*store.Message, error) {
	return s.listIndexedMessages(ctx, key(prefixMessageTo, receiverID)+sep)
}

// ListAllMessages lists every direct message in storage order.
func (s *BadgerStore) ListAllMessages(ctx context.Context) ([]*store.Message, error) {
	messages := []*store.Message{}
	err := s.view(ctx, func(txn *badger.Txn) error {
		return scanPrefix(txn, prefixMessage, func(_ string, item *badger.Item) error {
			msg, err := decodeMessage(item)
			if err != nil {
				return err
			}
			messages = append(messages, msg)
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("query messages: %w", err)
	}
	return messages, nil
}

// ListConversation lists messages exchanged between two users in storage order.
func (s *BadgerStore) ListConversation(ctx context.Context, a, b string) ([]*store.Message, error) {
	return s.listIndexedMessages(ctx, key(prefixMessagePair, store.PairKey(a, b))+sep)
}

// listIndexedMessages resolves every index entry under prefix to its message record.
func (s *BadgerStore) listIndexedMessages(ctx context.Context, prefix string) ([]*store.Message, error) {
	messages := []*store.Message{}
	err := s.view(ctx, func(txn *badger.Txn) error {
		return scanPrefix(txn, prefix, func(_ string, item *badger.Item) error {
			msgKey, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			var rec messageRecord
			if err := getJSON(txn, string(msgKey), &rec); err != nil {
				return err
			}
			messages = append(messages, rec.toMessage())
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("query messages: %w", err)
	}
	return messages, nil
}

func decodeMessage(item *badger.Item) (*store.Message, error) {
	var rec messageRecord
	if err := item.Value(func(val []byte) error {
		return json.Unmarshal(val, &rec)
	}); err != nil {
		return nil, err
	}
	return rec.toMessage(), nil
}
