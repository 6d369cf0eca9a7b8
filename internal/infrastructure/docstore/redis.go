package docstore

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// RedisStore is the redis-backed document store. Documents live as JSON
// values under doc:{collection}:{id}, each collection keeps a zset index
// scored by createdAt, and change events are fanned out on a per-collection
// pub/sub channel.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore creates a RedisStore and verifies the connection.
func NewRedisStore(ctx context.Context, host, password string, db int) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         host,
		Password:     password,
		DB:           db,
		PoolSize:     10,
		MinIdleConns: 5,
		MaxRetries:   3,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return &RedisStore{client: client}, nil
}

// Close releases the underlying connection pool.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

func docKey(collection, id string) string  { return fmt.Sprintf("doc:%s:%s", collection, id) }
func indexKey(collection string) string    { return fmt.Sprintf("idx:%s", collection) }
func channelName(collection string) string { return fmt.Sprintf("changes:%s", collection) }

func (s *RedisStore) Insert(ctx context.Context, collection string, doc any) (string, error) {
	id := uuid.NewString()
	if err := s.InsertWithID(ctx, collection, id, doc); err != nil {
		return "", err
	}
	return id, nil
}

func (s *RedisStore) InsertWithID(ctx context.Context, collection, id string, doc any) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal document: %w", err)
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, docKey(collection, id), raw, 0)
	pipe.ZAdd(ctx, indexKey(collection), redis.Z{
		Score:  createdAtScore(raw),
		Member: id,
	})
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("insert document: %w", err)
	}

	s.publish(ctx, Event{Type: EventAdded, Collection: collection, ID: id}, raw)
	return nil
}

func (s *RedisStore) Update(ctx context.Context, collection, id string, update Update) error {
	raw, err := s.client.Get(ctx, docKey(collection, id)).Bytes()
	if err == redis.Nil {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("read document: %w", err)
	}

	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return fmt.Errorf("decode document: %w", err)
	}
	applyUpdate(m, update)

	updated, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("marshal document: %w", err)
	}
	if err := s.client.Set(ctx, docKey(collection, id), updated, 0).Err(); err != nil {
		return fmt.Errorf("write document: %w", err)
	}

	s.publish(ctx, Event{Type: EventModified, Collection: collection, ID: id}, updated)
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, collection, id string) error {
	deleted, err := s.client.Del(ctx, docKey(collection, id)).Result()
	if err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	if deleted == 0 {
		return ErrNotFound
	}
	if err := s.client.ZRem(ctx, indexKey(collection), id).Err(); err != nil {
		return fmt.Errorf("remove index entry: %w", err)
	}

	s.publish(ctx, Event{Type: EventRemoved, Collection: collection, ID: id}, nil)
	return nil
}

func (s *RedisStore) GetByID(ctx context.Context, collection, id string, dest any) error {
	raw, err := s.client.Get(ctx, docKey(collection, id)).Bytes()
	if err == redis.Nil {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("read document: %w", err)
	}

	withID, err := embedID(id, raw)
	if err != nil {
		return fmt.Errorf("decode document: %w", err)
	}
	return json.Unmarshal(withID, dest)
}

func (s *RedisStore) Query(ctx context.Context, collection, field, value string) ([]json.RawMessage, error) {
	docs, err := s.readAllAscending(ctx, collection)
	if err != nil {
		return nil, err
	}

	var out []json.RawMessage
	for _, d := range docs {
		var m map[string]any
		if err := json.Unmarshal(d.data, &m); err != nil {
			continue
		}
		if got, ok := m[field].(string); ok && got == value {
			withID, err := embedID(d.id, d.data)
			if err != nil {
				continue
			}
			out = append(out, withID)
		}
	}
	return out, nil
}

func (s *RedisStore) Subscribe(ctx context.Context, collection string, h Handler) error {
	// Open the pub/sub channel before reading the snapshot so no event
	// emitted during the read is lost. An event may then be delivered
	// both in the snapshot and live; the reconciling store is idempotent
	// on adds, and a stale modify heals on the next snapshot.
	sub := s.client.Subscribe(ctx, channelName(collection))
	if _, err := sub.Receive(ctx); err != nil {
		sub.Close()
		return fmt.Errorf("subscribe %s: %w", collection, err)
	}

	docs, err := s.readAllAscending(ctx, collection)
	if err != nil {
		sub.Close()
		return err
	}

	go func() {
		defer sub.Close()

		for _, d := range docs {
			withID, err := embedID(d.id, d.data)
			if err != nil {
				continue
			}
			h(Event{Type: EventAdded, Collection: collection, ID: d.id, Data: withID})
		}

		ch := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				var evt Event
				if err := json.Unmarshal([]byte(msg.Payload), &evt); err != nil {
					log.Debug().Err(err).Str("collection", collection).Msg("dropping malformed change event")
					continue
				}
				h(evt)
			}
		}
	}()

	return nil
}

type rawDoc struct {
	id   string
	data []byte
}

// readAllAscending returns every document of a collection in ascending
// createdAt order (the order Subscribe snapshots are delivered in).
func (s *RedisStore) readAllAscending(ctx context.Context, collection string) ([]rawDoc, error) {
	ids, err := s.client.ZRange(ctx, indexKey(collection), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("read index: %w", err)
	}
	if len(ids) == 0 {
		return nil, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = docKey(collection, id)
	}
	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("read documents: %w", err)
	}

	docs := make([]rawDoc, 0, len(ids))
	for i, v := range values {
		str, ok := v.(string)
		if !ok {
			// Index entry without a document; skip, the next write
			// of that id will repair the pair.
			continue
		}
		docs = append(docs, rawDoc{id: ids[i], data: []byte(str)})
	}
	return docs, nil
}

func (s *RedisStore) publish(ctx context.Context, evt Event, doc []byte) {
	if doc != nil {
		withID, err := embedID(evt.ID, doc)
		if err != nil {
			log.Error().Err(err).Str("collection", evt.Collection).Msg("failed to encode change event")
			return
		}
		evt.Data = withID
	}

	payload, err := json.Marshal(evt)
	if err != nil {
		log.Error().Err(err).Str("collection", evt.Collection).Msg("failed to encode change event")
		return
	}
	if err := s.client.Publish(ctx, channelName(evt.Collection), payload).Err(); err != nil {
		// The write itself succeeded; subscribers heal on their next
		// snapshot, so a lost notification is logged, not returned.
		log.Error().Err(err).Str("collection", evt.Collection).Msg("failed to publish change event")
	}
}

// createdAtScore derives the index score from the document's createdAt
// field, falling back to now for documents without one.
func createdAtScore(raw []byte) float64 {
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return float64(time.Now().UnixNano())
	}
	str, ok := m[CreatedAtField].(string)
	if !ok {
		return float64(time.Now().UnixNano())
	}
	ts, err := time.Parse(time.RFC3339, str)
	if err != nil {
		return float64(time.Now().UnixNano())
	}
	return float64(ts.UnixNano())
}
