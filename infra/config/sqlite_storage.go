package config

import (
	"database/sql"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteStorage handles persistent storage of form settings documents,
// fundraiser donation records, the bounded per-form audit log and the
// remote tax-rule cache.
type SQLiteStorage struct {
	db   *sql.DB
	path string
	mu   sync.Mutex
}

// retryOperation executes a database operation with retry logic for SQLITE_BUSY errors
func (s *SQLiteStorage) retryOperation(operation func() error, maxRetries int) error {
	var lastErr error

	for attempt := 0; attempt <= maxRetries; attempt++ {
		err := operation()
		if err == nil {
			return nil
		}

		// Check if it's a busy error
		if strings.Contains(err.Error(), "SQLITE_BUSY") || strings.Contains(err.Error(), "database is locked") {
			lastErr = err
			if attempt < maxRetries {
				// Exponential backoff: 10ms, 20ms, 40ms, 80ms
				backoff := time.Duration(10*(1<<attempt)) * time.Millisecond
				log.Printf("SQLite busy, retrying in %v (attempt %d/%d)", backoff, attempt+1, maxRetries+1)
				time.Sleep(backoff)
				continue
			}
		} else {
			// Not a retry-able error
			return err
		}
	}

	return fmt.Errorf("operation failed after %d retries, last error: %w", maxRetries+1, lastErr)
}

// NewSQLiteStorage creates a new SQLite storage instance optimized for multiple processes
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	// Ensure directory exists
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	// SQLite connection string with multi-process optimizations
	connStr := fmt.Sprintf("%s?_journal_mode=WAL&_synchronous=NORMAL&_cache_size=1000&_timeout=20000&_txlock=immediate", dbPath)

	db, err := sql.Open("sqlite3", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(0)

	storage := &SQLiteStorage{
		db:   db,
		path: dbPath,
	}

	if err := storage.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return storage, nil
}

// initSchema creates the necessary tables
func (s *SQLiteStorage) initSchema() error {
	query := `
	CREATE TABLE IF NOT EXISTS form_configs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		form_name TEXT NOT NULL,
		config_data TEXT NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		UNIQUE(form_name)
	);

	CREATE TABLE IF NOT EXISTS fundraiser_donations (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		form_name TEXT NOT NULL,
		campaign TEXT NOT NULL,
		donor_name TEXT NOT NULL,
		currency TEXT NOT NULL,
		amount TEXT NOT NULL,
		frequency TEXT NOT NULL,
		comment TEXT NOT NULL DEFAULT '',
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_fundraiser_campaign ON fundraiser_donations(campaign);

	CREATE TABLE IF NOT EXISTS donation_logs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		form_name TEXT NOT NULL,
		record TEXT NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_donation_logs_form ON donation_logs(form_name);

	CREATE TABLE IF NOT EXISTS tax_rule_cache (
		form_name TEXT PRIMARY KEY,
		payload TEXT NOT NULL,
		fetched_at DATETIME NOT NULL
	);
	`

	_, err := s.db.Exec(query)
	return err
}

// SaveFormConfig stores or replaces the raw settings document of a form.
func (s *SQLiteStorage) SaveFormConfig(formName, configData string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.retryOperation(func() error {
		query := `
			INSERT INTO form_configs (form_name, config_data, updated_at)
			VALUES (?, ?, CURRENT_TIMESTAMP)
			ON CONFLICT(form_name) DO UPDATE SET
				config_data = excluded.config_data,
				updated_at = CURRENT_TIMESTAMP
		`
		_, err := s.db.Exec(query, formName, configData)
		return err
	}, 3)
}

// GetFormConfig retrieves the raw settings document of a form.
func (s *SQLiteStorage) GetFormConfig(formName string) (string, error) {
	var configData string
	err := s.db.QueryRow("SELECT config_data FROM form_configs WHERE form_name = ?", formName).Scan(&configData)
	if err == sql.ErrNoRows {
		return "", fmt.Errorf("no settings for form '%s'", formName)
	}
	if err != nil {
		return "", fmt.Errorf("failed to load form config: %w", err)
	}
	return configData, nil
}

// ListForms returns the names of all stored forms.
func (s *SQLiteStorage) ListForms() ([]string, error) {
	rows, err := s.db.Query("SELECT form_name FROM form_configs ORDER BY form_name")
	if err != nil {
		return nil, fmt.Errorf("failed to list forms: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// SaveFundraiserDonation records a donation against a matching-fundraiser campaign.
func (s *SQLiteStorage) SaveFundraiserDonation(formName, campaign, donorName, currency, amount, frequency, comment string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.retryOperation(func() error {
		query := `
			INSERT INTO fundraiser_donations (form_name, campaign, donor_name, currency, amount, frequency, comment)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`
		_, err := s.db.Exec(query, formName, campaign, donorName, currency, amount, frequency, comment)
		return err
	}, 3)
}

// CountFundraiserDonations returns the number of records for a campaign.
func (s *SQLiteStorage) CountFundraiserDonations(campaign string) (int, error) {
	var n int
	err := s.db.QueryRow("SELECT COUNT(*) FROM fundraiser_donations WHERE campaign = ?", campaign).Scan(&n)
	return n, err
}

// SaveDonationLog appends an audit log record for a form and prunes the
// oldest records beyond maxRecords. maxRecords <= 0 means unbounded.
func (s *SQLiteStorage) SaveDonationLog(formName, record string, maxRecords int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.retryOperation(func() error {
		if _, err := s.db.Exec("INSERT INTO donation_logs (form_name, record) VALUES (?, ?)", formName, record); err != nil {
			return err
		}
		if maxRecords > 0 {
			query := `
				DELETE FROM donation_logs WHERE form_name = ? AND id NOT IN (
					SELECT id FROM donation_logs WHERE form_name = ? ORDER BY id DESC LIMIT ?
				)
			`
			if _, err := s.db.Exec(query, formName, formName, maxRecords); err != nil {
				return err
			}
		}
		return nil
	}, 3)
}

// ListDonationLogs returns the audit records of a form, newest first.
func (s *SQLiteStorage) ListDonationLogs(formName string) ([]string, error) {
	rows, err := s.db.Query("SELECT record FROM donation_logs WHERE form_name = ? ORDER BY id DESC", formName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []string
	for rows.Next() {
		var record string
		if err := rows.Scan(&record); err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

// SaveTaxRuleCache stores a fetched remote tax-rule payload for a form.
func (s *SQLiteStorage) SaveTaxRuleCache(formName, payload string, fetchedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.retryOperation(func() error {
		query := `
			INSERT INTO tax_rule_cache (form_name, payload, fetched_at)
			VALUES (?, ?, ?)
			ON CONFLICT(form_name) DO UPDATE SET
				payload = excluded.payload,
				fetched_at = excluded.fetched_at
		`
		_, err := s.db.Exec(query, formName, payload, fetchedAt.UTC())
		return err
	}, 3)
}

// GetTaxRuleCache returns the cached remote payload and its fetch time.
func (s *SQLiteStorage) GetTaxRuleCache(formName string) (string, time.Time, error) {
	var payload string
	var fetchedAt time.Time
	err := s.db.QueryRow("SELECT payload, fetched_at FROM tax_rule_cache WHERE form_name = ?", formName).Scan(&payload, &fetchedAt)
	if err == sql.ErrNoRows {
		return "", time.Time{}, fmt.Errorf("no cached tax rules for form '%s'", formName)
	}
	if err != nil {
		return "", time.Time{}, err
	}
	return payload, fetchedAt, nil
}

// Close closes the underlying database.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}
