// Package sqlite implements interfaces.ContactStore using pure-Go SQLite.
// Zero CGO required. It is the default store wired up by the CLI; the engine
// itself only depends on the ContactStore contract and works against any
// implementation the surrounding application provides.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"

	_ "modernc.org/sqlite" // pure-Go SQLite driver

	"contactimport/app/interfaces"
)

// Store implements interfaces.ContactStore backed by a local SQLite file.
type Store struct {
	db *sql.DB
}

var _ interfaces.ContactStore = (*Store)(nil)

// New creates a Store using a local SQLite file at dbPath. A single shared
// connection serializes all goroutines through one writer, eliminating
// SQLITE_BUSY errors from the commit worker pool.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open: %w", err)
	}
	db.SetMaxOpenConns(1)
	return &Store{db: db}, nil
}

// Init creates the contacts table and its blocking-key indexes.
func (s *Store) Init(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS contacts (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			email TEXT,
			phone TEXT,
			address TEXT,
			city TEXT,
			state TEXT,
			zip_code TEXT,
			notes TEXT,
			source TEXT,
			tags TEXT,
			email_local TEXT,
			phone_digits TEXT,
			name_token TEXT,
			created_at TIMESTAMP NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_contacts_email_local ON contacts(email_local)`,
		`CREATE INDEX IF NOT EXISTS idx_contacts_phone_digits ON contacts(phone_digits)`,
		`CREATE INDEX IF NOT EXISTS idx_contacts_name_token ON contacts(name_token)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("sqlite: init: %w", err)
		}
	}
	return nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Save persists one contact and returns its assigned id. The blocking-key
// columns (email local part, phone digits, first name token) are derived at
// write time so QueryExisting can answer lookups from indexes.
func (s *Store) Save(ctx context.Context, contact interfaces.ImportedContact) (string, error) {
	id := uuid.NewString()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO contacts
			(id, name, email, phone, address, city, state, zip_code, notes, source, tags,
			 email_local, phone_digits, name_token, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id,
		contact.Name,
		contact.Email,
		contact.Phone,
		contact.Address,
		contact.City,
		contact.State,
		contact.ZipCode,
		contact.Notes,
		contact.Source,
		strings.Join(contact.Tags, ","),
		emailLocalPart(contact.Email),
		phoneDigits(contact.Phone),
		nameToken(contact.Name),
		time.Now().UTC(),
	)
	if err != nil {
		return "", fmt.Errorf("sqlite: save contact: %w", err)
	}
	return id, nil
}

// QueryExisting returns stored contacts matching the criteria. Zero-value
// criteria scans the whole table, newest first.
func (s *Store) QueryExisting(ctx context.Context, criteria interfaces.QueryCriteria) ([]interfaces.ImportedContact, error) {
	var conds []string
	var args []any

	if criteria.EmailLocalPart != "" {
		conds = append(conds, "email_local = ?")
		args = append(args, strings.ToLower(criteria.EmailLocalPart))
	}
	if criteria.PhoneSuffix != "" {
		conds = append(conds, "phone_digits LIKE ?")
		args = append(args, "%"+criteria.PhoneSuffix)
	}
	if criteria.NameToken != "" {
		conds = append(conds, "name_token = ?")
		args = append(args, strings.ToLower(criteria.NameToken))
	}

	query := `SELECT name, email, phone, address, city, state, zip_code, notes, source, tags
		FROM contacts`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " OR ")
	}
	query += " ORDER BY created_at DESC"
	if criteria.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", criteria.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: query contacts: %w", err)
	}
	defer rows.Close()

	var out []interfaces.ImportedContact
	for rows.Next() {
		var c interfaces.ImportedContact
		var tags string
		if err := rows.Scan(&c.Name, &c.Email, &c.Phone, &c.Address, &c.City,
			&c.State, &c.ZipCode, &c.Notes, &c.Source, &tags); err != nil {
			return nil, fmt.Errorf("sqlite: scan contact: %w", err)
		}
		if tags != "" {
			c.Tags = strings.Split(tags, ",")
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// Count returns the number of stored contacts.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM contacts`).Scan(&n)
	return n, err
}

func emailLocalPart(email string) string {
	email = strings.ToLower(strings.TrimSpace(email))
	if at := strings.Index(email, "@"); at > 0 {
		return email[:at]
	}
	return ""
}

func phoneDigits(phone string) string {
	var b strings.Builder
	for _, r := range phone {
		if unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func nameToken(name string) string {
	fields := strings.Fields(strings.ToLower(strings.TrimSpace(name)))
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}
