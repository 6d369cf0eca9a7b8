package docstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
)

// PostgresStore is the pgx-backed document store. Documents live as jsonb
// rows in a single table; every confirmed write emits a pg_notify payload
// on a per-collection channel, and Subscribe pairs an initial ordered
// SELECT with a LISTEN loop on a dedicated connection.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// PostgresOptions configures the connection pool.
type PostgresOptions struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
	MaxConns int32
	MinConns int32
}

const createDocumentsTable = `
CREATE TABLE IF NOT EXISTS documents (
	collection TEXT NOT NULL,
	id         TEXT NOT NULL,
	data       JSONB NOT NULL,
	created_at TIMESTAMPTZ NOT NULL,
	PRIMARY KEY (collection, id)
)`

// NewPostgresStore connects the pool and ensures the documents table exists.
func NewPostgresStore(ctx context.Context, opts PostgresOptions) (*PostgresStore, error) {
	dsn := fmt.Sprintf(
		"postgresql://%s:%s@%s:%d/%s?sslmode=%s",
		opts.User, opts.Password, opts.Host, opts.Port, opts.Database, opts.SSLMode,
	)

	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse database config: %w", err)
	}
	config.MaxConns = opts.MaxConns
	config.MinConns = opts.MinConns
	config.ConnConfig.ConnectTimeout = 10 * time.Second

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("database ping failed: %w", err)
	}

	if _, err := pool.Exec(ctx, createDocumentsTable); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ensure documents table: %w", err)
	}

	return &PostgresStore{pool: pool}, nil
}

// Close releases the connection pool.
func (s *PostgresStore) Close() {
	s.pool.Close()
}

// notifyChannel maps a collection to its LISTEN/NOTIFY channel name.
func notifyChannel(collection string) string {
	return "qwitter_changes_" + collection
}

func (s *PostgresStore) Insert(ctx context.Context, collection string, doc any) (string, error) {
	id := uuid.NewString()
	if err := s.InsertWithID(ctx, collection, id, doc); err != nil {
		return "", err
	}
	return id, nil
}

func (s *PostgresStore) InsertWithID(ctx context.Context, collection, id string, doc any) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal document: %w", err)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin insert: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx,
		`INSERT INTO documents (collection, id, data, created_at) VALUES ($1, $2, $3, $4)`,
		collection, id, raw, createdAtTime(raw),
	)
	if err != nil {
		return fmt.Errorf("insert document: %w", err)
	}

	if err := notify(ctx, tx, Event{Type: EventAdded, Collection: collection, ID: id}, raw); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (s *PostgresStore) Update(ctx context.Context, collection, id string, update Update) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin update: %w", err)
	}
	defer tx.Rollback(ctx)

	var raw []byte
	err = tx.QueryRow(ctx,
		`SELECT data FROM documents WHERE collection = $1 AND id = $2 FOR UPDATE`,
		collection, id,
	).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
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
	_, err = tx.Exec(ctx,
		`UPDATE documents SET data = $3 WHERE collection = $1 AND id = $2`,
		collection, id, updated,
	)
	if err != nil {
		return fmt.Errorf("write document: %w", err)
	}

	if err := notify(ctx, tx, Event{Type: EventModified, Collection: collection, ID: id}, updated); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (s *PostgresStore) Delete(ctx context.Context, collection, id string) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin delete: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx,
		`DELETE FROM documents WHERE collection = $1 AND id = $2`,
		collection, id,
	)
	if err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	if err := notify(ctx, tx, Event{Type: EventRemoved, Collection: collection, ID: id}, nil); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (s *PostgresStore) GetByID(ctx context.Context, collection, id string, dest any) error {
	var raw []byte
	err := s.pool.QueryRow(ctx,
		`SELECT data FROM documents WHERE collection = $1 AND id = $2`,
		collection, id,
	).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
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

func (s *PostgresStore) Query(ctx context.Context, collection, field, value string) ([]json.RawMessage, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, data FROM documents WHERE collection = $1 AND data->>$2 = $3 ORDER BY created_at ASC`,
		collection, field, value,
	)
	if err != nil {
		return nil, fmt.Errorf("query documents: %w", err)
	}
	defer rows.Close()

	var out []json.RawMessage
	for rows.Next() {
		var id string
		var raw []byte
		if err := rows.Scan(&id, &raw); err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		withID, err := embedID(id, raw)
		if err != nil {
			continue
		}
		out = append(out, withID)
	}
	return out, rows.Err()
}

func (s *PostgresStore) Subscribe(ctx context.Context, collection string, h Handler) error {
	// The LISTEN session needs its own connection for the lifetime of the
	// subscription; pool connections multiplexed across queries cannot
	// hold one open.
	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire listen connection: %w", err)
	}

	if _, err := conn.Exec(ctx, "LISTEN "+notifyChannel(collection)); err != nil {
		conn.Release()
		return fmt.Errorf("listen %s: %w", collection, err)
	}

	// Snapshot after LISTEN so nothing emitted in between is lost;
	// duplicates are absorbed by the reconciling store.
	rows, err := s.pool.Query(ctx,
		`SELECT id, data FROM documents WHERE collection = $1 ORDER BY created_at ASC, id ASC`,
		collection,
	)
	if err != nil {
		conn.Release()
		return fmt.Errorf("snapshot %s: %w", collection, err)
	}

	var snapshot []Event
	for rows.Next() {
		var id string
		var raw []byte
		if err := rows.Scan(&id, &raw); err != nil {
			rows.Close()
			conn.Release()
			return fmt.Errorf("scan snapshot: %w", err)
		}
		withID, err := embedID(id, raw)
		if err != nil {
			continue
		}
		snapshot = append(snapshot, Event{Type: EventAdded, Collection: collection, ID: id, Data: withID})
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		conn.Release()
		return fmt.Errorf("snapshot %s: %w", collection, err)
	}

	go func() {
		defer conn.Release()

		for _, evt := range snapshot {
			h(evt)
		}

		for {
			notification, err := conn.Conn().WaitForNotification(ctx)
			if err != nil {
				if ctx.Err() == nil {
					log.Error().Err(err).Str("collection", collection).Msg("change feed terminated")
				}
				return
			}

			var evt Event
			if err := json.Unmarshal([]byte(notification.Payload), &evt); err != nil {
				log.Debug().Err(err).Str("collection", collection).Msg("dropping malformed change event")
				continue
			}
			h(evt)
		}
	}()

	return nil
}

// notify emits a change event inside the writing transaction, so the event
// becomes visible exactly when the write commits. Qwitter documents are
// small (bodies cap at 140 chars); payloads stay well under the 8000-byte
// NOTIFY limit.
func notify(ctx context.Context, tx pgx.Tx, evt Event, doc []byte) error {
	if doc != nil {
		withID, err := embedID(evt.ID, doc)
		if err != nil {
			return fmt.Errorf("encode change event: %w", err)
		}
		evt.Data = withID
	}

	payload, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("encode change event: %w", err)
	}

	if _, err := tx.Exec(ctx, `SELECT pg_notify($1, $2)`, notifyChannel(evt.Collection), string(payload)); err != nil {
		return fmt.Errorf("notify change event: %w", err)
	}
	return nil
}

// createdAtTime derives the ordering column from the document's createdAt
// field, falling back to now.
func createdAtTime(raw []byte) time.Time {
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return time.Now().UTC()
	}
	str, ok := m[CreatedAtField].(string)
	if !ok {
		return time.Now().UTC()
	}
	ts, err := time.Parse(time.RFC3339, str)
	if err != nil {
		return time.Now().UTC()
	}
	return ts
}
