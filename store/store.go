// Package store persists recurring payment state on SQLite: the mapping
// from platform orders to gateway subscriptions, and the ledger of webhook
// notifications already applied. The ledger is what makes webhook handling
// idempotent across redeliveries.
package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// RecurringStatus tracks the local view of a subscription's lifecycle.
type RecurringStatus string

const (
	RecurringActive    RecurringStatus = "active"
	RecurringSuspended RecurringStatus = "suspended"
	RecurringComplete  RecurringStatus = "complete"
	RecurringCancelled RecurringStatus = "cancelled"
)

// RecurringPayment links a platform order to its gateway subscription.
type RecurringPayment struct {
	ID             int64
	OrderGUID      string
	SubscriptionID int64
	CustomerID     string
	Status         RecurringStatus
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// RecurringTransaction is one applied payment notification.
type RecurringTransaction struct {
	ID             int64
	SubscriptionID int64
	TransactionID  string
	Amount         float64
	Success        bool
	CreatedAt      time.Time
}

// Store is a SQLite-backed payment store. Safe for concurrent use.
type Store struct {
	db   *sql.DB
	path string
	mu   sync.Mutex
}

// retryOperation retries a database operation on SQLITE_BUSY with
// exponential backoff.
func (s *Store) retryOperation(operation func() error, maxRetries int) error {
	var lastErr error

	for attempt := 0; attempt <= maxRetries; attempt++ {
		err := operation()
		if err == nil {
			return nil
		}

		if strings.Contains(err.Error(), "SQLITE_BUSY") || strings.Contains(err.Error(), "database is locked") {
			lastErr = err
			if attempt < maxRetries {
				backoff := time.Duration(10*(1<<attempt)) * time.Millisecond
				time.Sleep(backoff)
				continue
			}
		} else {
			return err
		}
	}

	return fmt.Errorf("operation failed after %d retries, last error: %w", maxRetries+1, lastErr)
}

// NewStore opens (creating if needed) the payment store at dbPath.
func NewStore(dbPath string) (*Store, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	// WAL mode so webhook deliveries and checkout writes do not block
	// each other.
	connStr := fmt.Sprintf("%s?_journal_mode=WAL&_synchronous=NORMAL&_cache_size=1000&_timeout=20000&_txlock=immediate", dbPath)

	db, err := sql.Open("sqlite3", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(0)

	store := &Store{
		db:   db,
		path: dbPath,
	}

	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return store, nil
}

func (s *Store) initSchema() error {
	query := `
	CREATE TABLE IF NOT EXISTS recurring_payments (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		order_guid TEXT NOT NULL,
		subscription_id INTEGER NOT NULL,
		customer_id TEXT NOT NULL,
		status TEXT NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		UNIQUE(order_guid)
	);

	CREATE INDEX IF NOT EXISTS idx_recurring_subscription ON recurring_payments(subscription_id);

	CREATE TABLE IF NOT EXISTS recurring_transactions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		subscription_id INTEGER NOT NULL,
		transaction_id TEXT NOT NULL,
		amount REAL NOT NULL,
		success INTEGER NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		UNIQUE(transaction_id)
	);

	CREATE INDEX IF NOT EXISTS idx_transactions_subscription ON recurring_transactions(subscription_id);

	CREATE TRIGGER IF NOT EXISTS update_recurring_payments_updated_at
		AFTER UPDATE ON recurring_payments
	BEGIN
		UPDATE recurring_payments SET updated_at = CURRENT_TIMESTAMP WHERE id = NEW.id;
	END;
	`

	_, err := s.db.Exec(query)
	return err
}

// SaveRecurringPayment records a newly created subscription for an order.
// Saving again for the same order updates the subscription link in place.
func (s *Store) SaveRecurringPayment(rec *RecurringPayment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.retryOperation(func() error {
		query := `
		INSERT INTO recurring_payments (order_guid, subscription_id, customer_id, status, updated_at)
		VALUES (?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(order_guid)
		DO UPDATE SET
			subscription_id = excluded.subscription_id,
			customer_id = excluded.customer_id,
			status = excluded.status,
			updated_at = CURRENT_TIMESTAMP
		`

		_, err := s.db.Exec(query, rec.OrderGUID, rec.SubscriptionID, rec.CustomerID, string(rec.Status))
		if err != nil {
			return fmt.Errorf("failed to save recurring payment: %w", err)
		}
		return nil
	}, 3)
}

// GetRecurringPaymentByOrder returns the subscription link for an order, or
// nil when the order has none.
func (s *Store) GetRecurringPaymentByOrder(orderGUID string) (*RecurringPayment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.getRecurringPayment("order_guid = ?", orderGUID)
}

// GetRecurringPaymentBySubscription returns the order link for a gateway
// subscription, or nil when no order is tracking it.
func (s *Store) GetRecurringPaymentBySubscription(subscriptionID int64) (*RecurringPayment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.getRecurringPayment("subscription_id = ?", subscriptionID)
}

func (s *Store) getRecurringPayment(where string, arg any) (*RecurringPayment, error) {
	var rec RecurringPayment
	var status string

	err := s.retryOperation(func() error {
		query := `
		SELECT id, order_guid, subscription_id, customer_id, status, created_at, updated_at
		FROM recurring_payments
		WHERE ` + where

		return s.db.QueryRow(query, arg).Scan(
			&rec.ID, &rec.OrderGUID, &rec.SubscriptionID, &rec.CustomerID,
			&status, &rec.CreatedAt, &rec.UpdatedAt,
		)
	}, 3)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load recurring payment: %w", err)
	}

	rec.Status = RecurringStatus(status)
	return &rec, nil
}

// UpdateRecurringStatus moves a tracked subscription to a new lifecycle
// status.
func (s *Store) UpdateRecurringStatus(subscriptionID int64, status RecurringStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.retryOperation(func() error {
		query := `UPDATE recurring_payments SET status = ? WHERE subscription_id = ?`
		_, err := s.db.Exec(query, string(status), subscriptionID)
		if err != nil {
			return fmt.Errorf("failed to update recurring status: %w", err)
		}
		return nil
	}, 3)
}

// MarkTransactionProcessed records a payment notification. It returns false
// when the transaction id was already recorded, which is how redelivered
// webhooks are detected.
func (s *Store) MarkTransactionProcessed(tran *RecurringTransaction) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var inserted bool
	err := s.retryOperation(func() error {
		query := `
		INSERT OR IGNORE INTO recurring_transactions (subscription_id, transaction_id, amount, success)
		VALUES (?, ?, ?, ?)
		`

		res, err := s.db.Exec(query, tran.SubscriptionID, tran.TransactionID, tran.Amount, boolToInt(tran.Success))
		if err != nil {
			return fmt.Errorf("failed to record transaction: %w", err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return err
		}
		inserted = affected > 0
		return nil
	}, 3)

	return inserted, err
}

// ListTransactions returns all recorded notifications for a subscription,
// oldest first.
func (s *Store) ListTransactions(subscriptionID int64) ([]RecurringTransaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var trans []RecurringTransaction
	err := s.retryOperation(func() error {
		query := `
		SELECT id, subscription_id, transaction_id, amount, success, created_at
		FROM recurring_transactions
		WHERE subscription_id = ?
		ORDER BY id ASC
		`

		rows, err := s.db.Query(query, subscriptionID)
		if err != nil {
			return fmt.Errorf("failed to list transactions: %w", err)
		}
		defer rows.Close()

		trans = trans[:0]
		for rows.Next() {
			var tran RecurringTransaction
			var success int
			if err := rows.Scan(&tran.ID, &tran.SubscriptionID, &tran.TransactionID, &tran.Amount, &success, &tran.CreatedAt); err != nil {
				return fmt.Errorf("failed to scan transaction: %w", err)
			}
			tran.Success = success != 0
			trans = append(trans, tran)
		}
		return rows.Err()
	}, 3)
	if err != nil {
		return nil, err
	}

	return trans, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
