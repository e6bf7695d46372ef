package contact

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	_ "github.com/lib/pq"
)

// Store is an outbox of contact submissions in SQLite or Postgres. Every
// published submission is persisted and can later be relayed to another
// Publisher with Drain.
type Store struct {
	db       *sql.DB
	postgres bool
	now      func() time.Time
}

// Message is a stored submission.
type Message struct {
	ID          int64
	Submission  Submission
	CreatedAt   time.Time
	DeliveredAt *time.Time
}

// IsPostgresDSN reports whether dsn selects the Postgres backend.
func IsPostgresDSN(dsn string) bool {
	return strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://")
}

// OpenStore opens the outbox named by dsn. Postgres URLs use lib/pq;
// anything else is a SQLite file path, optionally prefixed with "sqlite://".
func OpenStore(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, errors.New("contact store: empty dsn")
	}
	var (
		s   *Store
		err error
	)
	if IsPostgresDSN(dsn) {
		s, err = openPostgresStore(ctx, dsn)
	} else {
		s, err = openSQLiteStore(strings.TrimPrefix(dsn, "sqlite://"))
	}
	if err != nil {
		return nil, err
	}
	if err := s.ensureSchema(ctx); err != nil {
		s.db.Close()
		return nil, err
	}
	return s, nil
}

func openSQLiteStore(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	db, err := openSQLite(path)
	if err != nil {
		return nil, err
	}
	// WAL lets the relay read while the handler writes; the busy timeout
	// makes writers wait instead of failing with SQLITE_BUSY.
	if _, err := db.Exec(`
		PRAGMA journal_mode=WAL;
		PRAGMA busy_timeout=5000;
		PRAGMA synchronous=NORMAL;
	`); err != nil {
		db.Close()
		return nil, err
	}
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(4)
	return &Store{db: db, now: time.Now}, nil
}

func openPostgresStore(ctx context.Context, dsn string) (*Store, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(4)
	db.SetConnMaxLifetime(30 * time.Minute)
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("contact store: %w", err)
	}
	return &Store{db: db, postgres: true, now: time.Now}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) ensureSchema(ctx context.Context) error {
	id := "INTEGER PRIMARY KEY AUTOINCREMENT"
	if s.postgres {
		id = "BIGSERIAL PRIMARY KEY"
	}
	_, err := s.db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS contact_messages (
    id `+id+`,
    name TEXT NOT NULL,
    email TEXT NOT NULL,
    message TEXT NOT NULL,
    created_at BIGINT NOT NULL,
    delivered_at BIGINT
);
`)
	return err
}

// rebind rewrites ? placeholders to $n for Postgres.
func (s *Store) rebind(query string) string {
	if !s.postgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Publish implements Publisher by appending sub to the outbox.
func (s *Store) Publish(ctx context.Context, sub Submission) error {
	_, err := s.Insert(ctx, sub)
	return err
}

// Insert stores sub and returns its id.
func (s *Store) Insert(ctx context.Context, sub Submission) (int64, error) {
	var id int64
	err := s.db.QueryRowContext(ctx,
		s.rebind(`INSERT INTO contact_messages (name, email, message, created_at) VALUES (?, ?, ?, ?) RETURNING id`),
		sub.Name, sub.Email, sub.Message, s.now().Unix(),
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("store contact message: %w", err)
	}
	return id, nil
}

// Pending returns up to limit undelivered messages, oldest first.
func (s *Store) Pending(ctx context.Context, limit int) ([]Message, error) {
	rows, err := s.db.QueryContext(ctx,
		s.rebind(`SELECT id, name, email, message, created_at FROM contact_messages WHERE delivered_at IS NULL ORDER BY id LIMIT ?`),
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var msgs []Message
	for rows.Next() {
		var (
			m       Message
			created int64
		)
		if err := rows.Scan(&m.ID, &m.Submission.Name, &m.Submission.Email, &m.Submission.Message, &created); err != nil {
			return nil, err
		}
		m.CreatedAt = time.Unix(created, 0).UTC()
		msgs = append(msgs, m)
	}
	return msgs, rows.Err()
}

// Get returns the message with id.
func (s *Store) Get(ctx context.Context, id int64) (Message, error) {
	var (
		m         Message
		created   int64
		delivered sql.NullInt64
	)
	err := s.db.QueryRowContext(ctx,
		s.rebind(`SELECT id, name, email, message, created_at, delivered_at FROM contact_messages WHERE id = ?`), id,
	).Scan(&m.ID, &m.Submission.Name, &m.Submission.Email, &m.Submission.Message, &created, &delivered)
	if err != nil {
		return Message{}, err
	}
	m.CreatedAt = time.Unix(created, 0).UTC()
	if delivered.Valid {
		t := time.Unix(delivered.Int64, 0).UTC()
		m.DeliveredAt = &t
	}
	return m, nil
}

// MarkDelivered records that the message with id was relayed.
func (s *Store) MarkDelivered(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx,
		s.rebind(`UPDATE contact_messages SET delivered_at = ? WHERE id = ?`), s.now().Unix(), id)
	return err
}

// Drain relays up to limit pending messages to p, marking each one delivered
// after it was accepted. It stops at the first publish failure so ordering
// is kept; the failed message stays pending.
func (s *Store) Drain(ctx context.Context, p Publisher, limit int) (int, error) {
	msgs, err := s.Pending(ctx, limit)
	if err != nil {
		return 0, err
	}
	for i, m := range msgs {
		if err := p.Publish(ctx, m.Submission); err != nil {
			return i, fmt.Errorf("relay message %d: %w", m.ID, err)
		}
		if err := s.MarkDelivered(ctx, m.ID); err != nil {
			return i, err
		}
	}
	return len(msgs), nil
}
