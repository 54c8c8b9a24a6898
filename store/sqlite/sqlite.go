/*
Package sqlite provides a SQLite-backed implementation of the storage interfaces.

PURPOSE:
  Persists everything the commission engine reads between runs (settings,
  bracket tables, monthly targets) and everything a run produces
  (calculation runs with their per-person results).

INTERFACES IMPLEMENTED:
  settings.Store:        Typed key/value settings
  commission.RuleStore:  Commission brackets in scan order
  commission.TargetStore: Stored monthly targets

KEY TABLES:
  app_settings:      One row per setting key
  commission_rules:  Brackets; id order is lookup order within a model
  monthly_targets:   At most one row per (year, month)
  calculation_runs:  One row per run, detailed results as JSON
  person_results:    One summary row per person of a run

MONEY:
  Decimals are stored as TEXT so values round-trip exactly. An empty
  target cell is NULL, which is what makes carry-forward work for
  stored targets.

CONCURRENCY:
  Uses sync.RWMutex for thread-safety. In production with PostgreSQL,
  database-level concurrency control handles this instead.

USAGE:
  store, err := sqlite.New("./data/commission.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

MIGRATION:
  Schema is auto-migrated on New(). For production, use a proper
  migration tool (golang-migrate, goose) with versioned migrations.

SEE ALSO:
  - commission/store.go: Rule and target interfaces
  - settings/provider.go: Settings interface
  - commission/store/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
	"github.com/warp/commission-engine/commission"
	"github.com/warp/commission-engine/settings"
)

// Store implements all storage interfaces using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if dbPath == ":memory:" {
		// Every pooled connection would otherwise get its own empty database.
		db.SetMaxOpenConns(1)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping verifies the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS app_settings (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		value_type TEXT NOT NULL DEFAULT 'string',
		description TEXT,
		updated_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS commission_rules (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		model_name TEXT NOT NULL,
		min_sales TEXT NOT NULL,
		max_sales TEXT NOT NULL,
		marketer_rate TEXT NOT NULL,
		negotiator_rate TEXT NOT NULL,
		coordinator_rate TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_commission_rules_model
		ON commission_rules(model_name);

	-- One target row per month
	CREATE TABLE IF NOT EXISTS monthly_targets (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		year INTEGER NOT NULL,
		month INTEGER NOT NULL,
		collective_target TEXT,
		individual_target TEXT,
		UNIQUE(year, month)
	);

	CREATE TABLE IF NOT EXISTS calculation_runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		public_id TEXT NOT NULL UNIQUE,
		filename TEXT NOT NULL,
		report_period TEXT NOT NULL,
		created_at TEXT NOT NULL,
		detailed_results_json TEXT NOT NULL,
		targets_json TEXT
	);

	CREATE TABLE IF NOT EXISTS person_results (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id INTEGER NOT NULL REFERENCES calculation_runs(id) ON DELETE CASCADE,
		person_name TEXT NOT NULL,
		commission_model TEXT NOT NULL,
		original_commission TEXT NOT NULL,
		additional_bonus TEXT NOT NULL,
		payable_commission TEXT NOT NULL,
		paid_commission TEXT NOT NULL,
		remaining_balance TEXT NOT NULL,
		full_commission TEXT NOT NULL DEFAULT '0',
		pending_commission TEXT NOT NULL DEFAULT '0'
	);

	CREATE INDEX IF NOT EXISTS idx_person_results_run
		ON person_results(run_id);
	`

	if _, err := s.db.Exec(schema); err != nil {
		return err
	}

	// Databases created before the full/pending totals were stored.
	for _, col := range []string{"full_commission", "pending_commission"} {
		if err := s.addColumnIfMissing("person_results", col, "TEXT NOT NULL DEFAULT '0'"); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) addColumnIfMissing(table, column, definition string) error {
	rows, err := s.db.Query("SELECT name FROM pragma_table_info(?)", table)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return err
		}
		if name == column {
			return nil
		}
	}
	if err := rows.Err(); err != nil {
		return err
	}
	rows.Close()

	_, err = s.db.Exec(fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s", table, column, definition))
	return err
}

// =============================================================================
// SETTINGS STORE (settings.Store interface)
// =============================================================================

// ListSettings returns every setting ordered by key.
func (s *Store) ListSettings(ctx context.Context) ([]settings.Setting, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT key, value, value_type, description FROM app_settings ORDER BY key",
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []settings.Setting
	for rows.Next() {
		var st settings.Setting
		var valueType string
		var description sql.NullString
		if err := rows.Scan(&st.Key, &st.Value, &valueType, &description); err != nil {
			return nil, err
		}
		st.ValueType = settings.ValueType(valueType)
		st.Description = description.String
		out = append(out, st)
	}
	return out, rows.Err()
}

// GetSetting returns one setting or commission.ErrSettingNotFound.
func (s *Store) GetSetting(ctx context.Context, key string) (settings.Setting, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var st settings.Setting
	var valueType string
	var description sql.NullString
	err := s.db.QueryRowContext(ctx,
		"SELECT key, value, value_type, description FROM app_settings WHERE key = ?", key,
	).Scan(&st.Key, &st.Value, &valueType, &description)
	if errors.Is(err, sql.ErrNoRows) {
		return settings.Setting{}, commission.ErrSettingNotFound
	}
	if err != nil {
		return settings.Setting{}, err
	}
	st.ValueType = settings.ValueType(valueType)
	st.Description = description.String
	return st, nil
}

// SaveSetting inserts or replaces a setting.
func (s *Store) SaveSetting(ctx context.Context, st settings.Setting) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO app_settings (key, value, value_type, description, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			value = excluded.value,
			value_type = excluded.value_type,
			description = excluded.description,
			updated_at = excluded.updated_at
	`
	_, err := s.db.ExecContext(ctx, query,
		st.Key, st.Value, string(st.ValueType), nullString(st.Description),
		time.Now().UTC().Format(time.RFC3339),
	)
	return err
}

// InsertSettingIfAbsent inserts st unless its key exists. Reports whether
// a row was written.
func (s *Store) InsertSettingIfAbsent(ctx context.Context, st settings.Setting) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO app_settings (key, value, value_type, description, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(key) DO NOTHING
	`, st.Key, st.Value, string(st.ValueType), nullString(st.Description),
		time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// =============================================================================
// RULE STORE (commission.RuleStore interface)
// =============================================================================

const ruleColumns = "id, model_name, min_sales, max_sales, marketer_rate, negotiator_rate, coordinator_rate"

// ListRules returns every bracket in id order, which is lookup order.
func (s *Store) ListRules(ctx context.Context) ([]commission.Rule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, "SELECT "+ruleColumns+" FROM commission_rules ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rules []commission.Rule
	for rows.Next() {
		r, err := scanRule(rows)
		if err != nil {
			return nil, err
		}
		rules = append(rules, r)
	}
	return rules, rows.Err()
}

// GetRule returns one bracket or commission.ErrRuleNotFound.
func (s *Store) GetRule(ctx context.Context, id int64) (commission.Rule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, err := scanRule(s.db.QueryRowContext(ctx, "SELECT "+ruleColumns+" FROM commission_rules WHERE id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return commission.Rule{}, commission.ErrRuleNotFound
	}
	return r, err
}

// SaveRule inserts the rule when ID is 0, otherwise updates it.
func (s *Store) SaveRule(ctx context.Context, r commission.Rule) (commission.Rule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if r.ID == 0 {
		res, err := s.db.ExecContext(ctx, `
			INSERT INTO commission_rules (model_name, min_sales, max_sales,
				marketer_rate, negotiator_rate, coordinator_rate)
			VALUES (?, ?, ?, ?, ?, ?)
		`, r.Model, r.MinSales.String(), r.MaxSales.String(),
			r.MarketerRate.String(), r.NegotiatorRate.String(), r.CoordinatorRate.String())
		if err != nil {
			return commission.Rule{}, err
		}
		r.ID, err = res.LastInsertId()
		return r, err
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE commission_rules SET model_name = ?, min_sales = ?, max_sales = ?,
			marketer_rate = ?, negotiator_rate = ?, coordinator_rate = ?
		WHERE id = ?
	`, r.Model, r.MinSales.String(), r.MaxSales.String(),
		r.MarketerRate.String(), r.NegotiatorRate.String(), r.CoordinatorRate.String(), r.ID)
	if err != nil {
		return commission.Rule{}, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return commission.Rule{}, commission.ErrRuleNotFound
	}
	return r, nil
}

// DeleteRule removes a bracket.
func (s *Store) DeleteRule(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, "DELETE FROM commission_rules WHERE id = ?", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return commission.ErrRuleNotFound
	}
	return nil
}

// CountRules returns the number of stored brackets.
func (s *Store) CountRules(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM commission_rules").Scan(&n)
	return n, err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRule(row rowScanner) (commission.Rule, error) {
	var r commission.Rule
	var minSales, maxSales, marketer, negotiator, coordinator string
	if err := row.Scan(&r.ID, &r.Model, &minSales, &maxSales, &marketer, &negotiator, &coordinator); err != nil {
		return commission.Rule{}, err
	}
	r.MinSales = commission.MustParseDecimal(minSales)
	r.MaxSales = commission.MustParseDecimal(maxSales)
	r.MarketerRate = commission.MustParseDecimal(marketer)
	r.NegotiatorRate = commission.MustParseDecimal(negotiator)
	r.CoordinatorRate = commission.MustParseDecimal(coordinator)
	return r, nil
}

// =============================================================================
// TARGET STORE (commission.TargetStore interface)
// =============================================================================

// ListTargets returns targets in ascending month order.
func (s *Store) ListTargets(ctx context.Context) ([]commission.MonthlyTarget, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, year, month, collective_target, individual_target
		FROM monthly_targets
		ORDER BY year, month
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var targets []commission.MonthlyTarget
	for rows.Next() {
		var t commission.MonthlyTarget
		var collective, individual sql.NullString
		if err := rows.Scan(&t.ID, &t.Year, &t.Month, &collective, &individual); err != nil {
			return nil, err
		}
		t.Collective = nullDecimal(collective)
		t.Individual = nullDecimal(individual)
		targets = append(targets, t)
	}
	return targets, rows.Err()
}

// SaveTarget upserts the target of (year, month).
func (s *Store) SaveTarget(ctx context.Context, t commission.MonthlyTarget) (commission.MonthlyTarget, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO monthly_targets (year, month, collective_target, individual_target)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(year, month) DO UPDATE SET
			collective_target = excluded.collective_target,
			individual_target = excluded.individual_target
	`, t.Year, t.Month, decimalString(t.Collective), decimalString(t.Individual))
	if err != nil {
		return commission.MonthlyTarget{}, err
	}

	err = s.db.QueryRowContext(ctx,
		"SELECT id FROM monthly_targets WHERE year = ? AND month = ?", t.Year, t.Month,
	).Scan(&t.ID)
	return t, err
}

// DeleteTarget removes the target of (year, month).
func (s *Store) DeleteTarget(ctx context.Context, year, month int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, "DELETE FROM monthly_targets WHERE year = ? AND month = ?", year, month)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return commission.ErrTargetNotFound
	}
	return nil
}

// =============================================================================
// CALCULATION RUNS
// =============================================================================

// Run is a persisted calculation run.
type Run struct {
	ID              int64           `json:"-"`
	PublicID        string          `json:"public_id"`
	Filename        string          `json:"filename"`
	ReportPeriod    string          `json:"report_period"`
	CreatedAt       time.Time       `json:"created_at"`
	DetailedResults json.RawMessage `json:"detailed_results,omitempty"`
	Targets         json.RawMessage `json:"targets,omitempty"`
	People          []PersonResult  `json:"people,omitempty"`
}

// PersonResult is one summary row of a run.
type PersonResult struct {
	PersonName         string          `json:"person_name"`
	CommissionModel    string          `json:"commission_model"`
	OriginalCommission decimal.Decimal `json:"total_original_commission"`
	Bonus              decimal.Decimal `json:"total_additional_bonus"`
	Payable            decimal.Decimal `json:"total_payable_commission"`
	Paid               decimal.Decimal `json:"total_paid_commission"`
	Remaining          decimal.Decimal `json:"remaining_balance"`
	FullCommission     decimal.Decimal `json:"total_full_commission"`
	PendingCommission  decimal.Decimal `json:"total_pending_commission"`
}

// PersonResultFrom copies the persisted fields of a summary.
func PersonResultFrom(s *commission.Summary) PersonResult {
	return PersonResult{
		PersonName:         s.PersonName,
		CommissionModel:    s.CommissionModel,
		OriginalCommission: s.OriginalCommission,
		Bonus:              s.Bonus,
		Payable:            s.Payable,
		Paid:               s.Paid,
		Remaining:          s.Remaining,
		FullCommission:     s.FullCommission,
		PendingCommission:  s.PendingCommission,
	}
}

// SaveRun stores a run and its person rows atomically.
func (s *Store) SaveRun(ctx context.Context, run *Run) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	res, err := sqlTx.ExecContext(ctx, `
		INSERT INTO calculation_runs (public_id, filename, report_period, created_at,
			detailed_results_json, targets_json)
		VALUES (?, ?, ?, ?, ?, ?)
	`, run.PublicID, run.Filename, run.ReportPeriod, run.CreatedAt.UTC().Format(time.RFC3339Nano),
		string(run.DetailedResults), nullString(string(run.Targets)))
	if err != nil {
		if isUniqueConstraintError(err) {
			return fmt.Errorf("run %s already stored: %w", run.PublicID, err)
		}
		return err
	}
	if run.ID, err = res.LastInsertId(); err != nil {
		return err
	}

	stmt, err := sqlTx.PrepareContext(ctx, `
		INSERT INTO person_results (run_id, person_name, commission_model, original_commission,
			additional_bonus, payable_commission, paid_commission, remaining_balance,
			full_commission, pending_commission)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, p := range run.People {
		if _, err := stmt.ExecContext(ctx, run.ID, p.PersonName, p.CommissionModel,
			p.OriginalCommission.String(), p.Bonus.String(), p.Payable.String(),
			p.Paid.String(), p.Remaining.String(),
			p.FullCommission.String(), p.PendingCommission.String(),
		); err != nil {
			return err
		}
	}

	return sqlTx.Commit()
}

// GetRun returns a run with its detailed results and person rows.
func (s *Store) GetRun(ctx context.Context, publicID string) (*Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var run Run
	var createdAt, details string
	var targets sql.NullString
	err := s.db.QueryRowContext(ctx, `
		SELECT id, public_id, filename, report_period, created_at, detailed_results_json, targets_json
		FROM calculation_runs WHERE public_id = ?
	`, publicID).Scan(&run.ID, &run.PublicID, &run.Filename, &run.ReportPeriod, &createdAt, &details, &targets)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, commission.ErrRunNotFound
	}
	if err != nil {
		return nil, err
	}
	run.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
	run.DetailedResults = json.RawMessage(details)
	if targets.Valid {
		run.Targets = json.RawMessage(targets.String)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT person_name, commission_model, original_commission, additional_bonus,
			payable_commission, paid_commission, remaining_balance,
			full_commission, pending_commission
		FROM person_results WHERE run_id = ? ORDER BY person_name
	`, run.ID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var p PersonResult
		var original, bonus, payable, paid, remaining, full, pending string
		if err := rows.Scan(&p.PersonName, &p.CommissionModel, &original, &bonus, &payable, &paid, &remaining,
			&full, &pending); err != nil {
			return nil, err
		}
		p.OriginalCommission = commission.MustParseDecimal(original)
		p.Bonus = commission.MustParseDecimal(bonus)
		p.Payable = commission.MustParseDecimal(payable)
		p.Paid = commission.MustParseDecimal(paid)
		p.Remaining = commission.MustParseDecimal(remaining)
		p.FullCommission = commission.MustParseDecimal(full)
		p.PendingCommission = commission.MustParseDecimal(pending)
		run.People = append(run.People, p)
	}
	return &run, rows.Err()
}

// ListRuns returns runs newest first, without detailed results.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, public_id, filename, report_period, created_at
		FROM calculation_runs
		ORDER BY id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		var createdAt string
		if err := rows.Scan(&r.ID, &r.PublicID, &r.Filename, &r.ReportPeriod, &createdAt); err != nil {
			return nil, err
		}
		r.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// Helper functions

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func decimalString(d *decimal.Decimal) sql.NullString {
	if d == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: d.String(), Valid: true}
}

func nullDecimal(ns sql.NullString) *decimal.Decimal {
	if !ns.Valid {
		return nil
	}
	d := commission.MustParseDecimal(ns.String)
	return &d
}

func isUniqueConstraintError(err error) bool {
	return err != nil && (strings.Contains(err.Error(), "UNIQUE constraint failed") ||
		strings.Contains(err.Error(), "duplicate key"))
}
