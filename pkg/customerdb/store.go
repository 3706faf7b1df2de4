package customerdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/pgdriver"
	_ "modernc.org/sqlite"

	logx "github.com/tanpawarit/Chative-A2A-Customer-Service/pkg/logger"
)

var (
	ErrNotFound        = errors.New("not found")
	ErrInvalidPriority = errors.New("priority must be 'low', 'medium', or 'high'")
	ErrInvalidStatus   = errors.New("status must be 'active' or 'disabled'")
	ErrNoFields        = errors.New("no fields to update, provide at least one of: name, email, phone, status")
)

// Store is the customers/tickets repository.
type Store struct {
	db     *bun.DB
	now    func() time.Time
	logger zerolog.Logger
}

// Open connects to the configured database, creates the schema and, when
// cfg.Seed is set, loads the sample data into an empty database.
func Open(ctx context.Context, cfg Config) (*Store, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var db *bun.DB
	if cfg.isPostgres() {
		sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(cfg.DSN)))
		db = bun.NewDB(sqldb, pgdialect.New())
	} else {
		sqldb, err := openSQLite(ctx, cfg.DSN)
		if err != nil {
			return nil, err
		}
		db = bun.NewDB(sqldb, sqlitedialect.New())
	}

	s := &Store{
		db:     db,
		now:    func() time.Time { return time.Now().UTC() },
		logger: logx.Component("customerdb"),
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if err := s.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	if cfg.Seed {
		if err := s.Seed(ctx); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("seed: %w", err)
		}
	}
	return s, nil
}

func openSQLite(ctx context.Context, dsn string) (*sql.DB, error) {
	if !strings.HasPrefix(dsn, "file:") && !strings.Contains(dsn, ":memory:") {
		if dir := filepath.Dir(dsn); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("create data dir: %w", err)
			}
		}
	}

	sqldb, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// One connection keeps the pragmas and in-memory databases consistent.
	sqldb.SetMaxOpenConns(1)

	for _, p := range []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	} {
		if _, err := sqldb.ExecContext(ctx, p); err != nil {
			_ = sqldb.Close()
			return nil, fmt.Errorf("exec %s: %w", p, err)
		}
	}
	return sqldb, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) DB() *bun.DB {
	return s.db
}

func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.db.NewCreateTable().
		Model((*Customer)(nil)).
		IfNotExists().
		Exec(ctx); err != nil {
		return fmt.Errorf("create customers: %w", err)
	}
	if _, err := s.db.NewCreateTable().
		Model((*Ticket)(nil)).
		IfNotExists().
		ForeignKey(`("customer_id") REFERENCES "customers" ("id") ON DELETE CASCADE`).
		Exec(ctx); err != nil {
		return fmt.Errorf("create tickets: %w", err)
	}

	indexes := []struct {
		model  any
		name   string
		column string
	}{
		{(*Customer)(nil), "idx_customers_email", "email"},
		{(*Ticket)(nil), "idx_tickets_customer_id", "customer_id"},
		{(*Ticket)(nil), "idx_tickets_status", "status"},
	}
	for _, idx := range indexes {
		if _, err := s.db.NewCreateIndex().
			Model(idx.model).
			Index(idx.name).
			Column(idx.column).
			IfNotExists().
			Exec(ctx); err != nil {
			return fmt.Errorf("create index %s: %w", idx.name, err)
		}
	}
	return nil
}

// Seed inserts the sample customers and tickets unless customers already exist.
func (s *Store) Seed(ctx context.Context) error {
	count, err := s.db.NewSelect().Model((*Customer)(nil)).Count(ctx)
	if err != nil {
		return fmt.Errorf("count customers: %w", err)
	}
	if count > 0 {
		s.logger.Debug().Int("customers", count).Msg("seed skipped")
		return nil
	}

	customers, tickets := sampleData()
	err = s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewInsert().Model(&customers).Exec(ctx); err != nil {
			return fmt.Errorf("insert customers: %w", err)
		}
		if _, err := tx.NewInsert().Model(&tickets).Exec(ctx); err != nil {
			return fmt.Errorf("insert tickets: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Info().Int("customers", len(customers)).Int("tickets", len(tickets)).Msg("sample data inserted")
	return nil
}

func (s *Store) GetCustomer(ctx context.Context, id int64) (Customer, error) {
	var c Customer
	err := s.db.NewSelect().Model(&c).Where("c.id = ?", id).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return Customer{}, fmt.Errorf("customer with ID %d %w", id, ErrNotFound)
	}
	if err != nil {
		return Customer{}, fmt.Errorf("get customer %d: %w", id, err)
	}
	return c, nil
}

// ListCustomers returns up to limit customers, filtered by status when set.
func (s *Store) ListCustomers(ctx context.Context, status string, limit int) ([]Customer, error) {
	customers := []Customer{}
	q := s.db.NewSelect().Model(&customers).OrderExpr("c.id ASC").Limit(normalizeLimit(limit, 10))
	if status != "" {
		q = q.Where("c.status = ?", status)
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("list customers: %w", err)
	}
	return customers, nil
}

func (s *Store) UpdateCustomer(ctx context.Context, id int64, update CustomerUpdate) (Customer, error) {
	if update.empty() {
		return Customer{}, ErrNoFields
	}
	if update.Status != nil && *update.Status != StatusActive && *update.Status != StatusDisabled {
		return Customer{}, ErrInvalidStatus
	}

	q := s.db.NewUpdate().Model((*Customer)(nil))
	if update.Name != nil {
		q = q.Set("name = ?", *update.Name)
	}
	if update.Email != nil {
		q = q.Set("email = ?", *update.Email)
	}
	if update.Phone != nil {
		q = q.Set("phone = ?", *update.Phone)
	}
	if update.Status != nil {
		q = q.Set("status = ?", *update.Status)
	}
	res, err := q.Set("updated_at = ?", s.now()).Where("id = ?", id).Exec(ctx)
	if err != nil {
		return Customer{}, fmt.Errorf("update customer %d: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return Customer{}, fmt.Errorf("customer with ID %d %w", id, ErrNotFound)
	}
	return s.GetCustomer(ctx, id)
}

// CreateTicket opens a ticket for an existing customer.
func (s *Store) CreateTicket(ctx context.Context, customerID int64, issue, priority string) (Ticket, error) {
	if priority == "" {
		priority = PriorityMedium
	}
	if !validPriority(priority) {
		return Ticket{}, ErrInvalidPriority
	}
	if _, err := s.GetCustomer(ctx, customerID); err != nil {
		return Ticket{}, err
	}

	t := Ticket{
		CustomerID: customerID,
		Issue:      issue,
		Status:     TicketOpen,
		Priority:   priority,
		CreatedAt:  s.now(),
	}
	if _, err := s.db.NewInsert().Model(&t).Exec(ctx); err != nil {
		return Ticket{}, fmt.Errorf("insert ticket: %w", err)
	}
	return t, nil
}

// CustomerHistory returns the customer with every ticket, newest first.
func (s *Store) CustomerHistory(ctx context.Context, customerID int64) (History, error) {
	c, err := s.GetCustomer(ctx, customerID)
	if err != nil {
		return History{}, err
	}
	tickets := []Ticket{}
	if err := s.db.NewSelect().
		Model(&tickets).
		Where("t.customer_id = ?", customerID).
		OrderExpr("t.created_at DESC").
		OrderExpr("t.id DESC").
		Scan(ctx); err != nil {
		return History{}, fmt.Errorf("list tickets of customer %d: %w", customerID, err)
	}
	return History{Customer: c, Tickets: tickets}, nil
}

// SearchCustomers matches query against name or email, case-insensitively.
func (s *Store) SearchCustomers(ctx context.Context, query string, limit int) ([]Customer, error) {
	term := "%" + strings.ToLower(query) + "%"
	customers := []Customer{}
	if err := s.db.NewSelect().
		Model(&customers).
		Where("LOWER(c.name) LIKE ?", term).
		WhereOr("LOWER(c.email) LIKE ?", term).
		OrderExpr("c.id ASC").
		Limit(normalizeLimit(limit, 10)).
		Scan(ctx); err != nil {
		return nil, fmt.Errorf("search customers: %w", err)
	}
	return customers, nil
}

// OpenTickets lists open tickets by priority (high first), newest first within
// a priority, with the customer's name and email.
func (s *Store) OpenTickets(ctx context.Context, limit int) ([]OpenTicket, error) {
	tickets := []OpenTicket{}
	if err := s.db.NewSelect().
		Model(&tickets).
		ColumnExpr("t.*").
		ColumnExpr("c.name AS customer_name").
		ColumnExpr("c.email AS customer_email").
		Join("JOIN customers AS c ON c.id = t.customer_id").
		Where("t.status = ?", TicketOpen).
		OrderExpr("CASE t.priority WHEN 'high' THEN 1 WHEN 'medium' THEN 2 WHEN 'low' THEN 3 END").
		OrderExpr("t.created_at DESC").
		OrderExpr("t.id DESC").
		Limit(normalizeLimit(limit, 20)).
		Scan(ctx); err != nil {
		return nil, fmt.Errorf("list open tickets: %w", err)
	}
	return tickets, nil
}

func validPriority(p string) bool {
	return p == PriorityLow || p == PriorityMedium || p == PriorityHigh
}

func normalizeLimit(limit, fallback int) int {
	if limit <= 0 {
		return fallback
	}
	return limit
}
