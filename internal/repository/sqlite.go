package repository

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/ElmWill/acceloka/internal/domain"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
)

// Store is the SQLite-backed inventory store and reservation ledger.
// Write transactions start with an immediate lock (_txlock=immediate), so
// concurrent Reserve/Adjust/Release calls serialize at BEGIN instead of
// failing halfway through.
type Store struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewStore opens (or creates) the database and initializes the schema.
func NewStore(dbPath string, logger *zap.Logger) (*Store, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=1&_busy_timeout=5000&_txlock=immediate")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	s := &Store{
		db:     db,
		logger: logger,
	}

	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return s, nil
}

// initSchema creates the database schema
func (s *Store) initSchema() error {
	schema := `
	-- Categories table: grouping key for tickets
	CREATE TABLE IF NOT EXISTS categories (
		id TEXT PRIMARY KEY,
		name TEXT UNIQUE NOT NULL
	);

	-- Tickets table: sellable inventory, quota is the remaining sellable units.
	-- Price is stored as integer cents so filters and ordering stay exact.
	CREATE TABLE IF NOT EXISTS tickets (
		id TEXT PRIMARY KEY,
		category_id TEXT NOT NULL,
		code TEXT UNIQUE NOT NULL,
		name TEXT NOT NULL,
		event_date TEXT NOT NULL,
		price INTEGER NOT NULL,
		quota INTEGER NOT NULL DEFAULT 0,
		FOREIGN KEY (category_id) REFERENCES categories(id),
		CHECK(quota >= 0)
	);

	-- Bookings table: one row per customer reservation
	CREATE TABLE IF NOT EXISTS bookings (
		id TEXT PRIMARY KEY,
		created_at TEXT NOT NULL
	);

	-- Booking lines table: quantity of one ticket within one booking
	CREATE TABLE IF NOT EXISTS booking_lines (
		id TEXT PRIMARY KEY,
		booking_id TEXT NOT NULL,
		ticket_id TEXT NOT NULL,
		quantity INTEGER NOT NULL,
		FOREIGN KEY (booking_id) REFERENCES bookings(id),
		FOREIGN KEY (ticket_id) REFERENCES tickets(id),
		UNIQUE(booking_id, ticket_id),
		CHECK(quantity >= 1)
	);

	CREATE INDEX IF NOT EXISTS idx_tickets_code ON tickets(code);
	CREATE INDEX IF NOT EXISTS idx_tickets_category_id ON tickets(category_id);
	CREATE INDEX IF NOT EXISTS idx_booking_lines_booking_id ON booking_lines(booking_id);
	CREATE INDEX IF NOT EXISTS idx_booking_lines_ticket_id ON booking_lines(ticket_id);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// SeedTicket inserts a category (if missing) and a ticket. Catalog
// management proper lives outside this service; this exists for initial
// data loads and tests.
func (s *Store) SeedTicket(ctx context.Context, categoryName string, ticket domain.Ticket) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var categoryID string
	err = tx.QueryRowContext(ctx, `SELECT id FROM categories WHERE name = ?`, categoryName).Scan(&categoryID)
	if err == sql.ErrNoRows {
		categoryID = uuid.New().String()
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO categories (id, name) VALUES (?, ?)`, categoryID, categoryName); err != nil {
			return fmt.Errorf("insert category: %w", err)
		}
	} else if err != nil {
		return fmt.Errorf("query category: %w", err)
	}

	id := ticket.ID
	if id == uuid.Nil {
		id = uuid.New()
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO tickets (id, category_id, code, name, event_date, price, quota)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		id.String(), categoryID, ticket.Code, ticket.Name,
		ticket.EventDate.Format(domain.EventDateLayout),
		ticket.Price.Round(2).Shift(2).IntPart(), ticket.Quota,
	)
	if err != nil {
		return fmt.Errorf("insert ticket: %w", err)
	}

	return tx.Commit()
}

// TicketCount returns the number of tickets in the catalog.
func (s *Store) TicketCount(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM tickets`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count tickets: %w", err)
	}
	return count, nil
}
