/*
Package sqlite provides a SQLite-backed implementation of the storage layer.

PURPOSE:
  Persists the aggregates the engine computes over: the resource catalog,
  template definitions, line items with their three row collections, and
  funds with categories and items. In production the same patterns apply
  to PostgreSQL - only minor SQL dialect differences.

INTERFACES IMPLEMENTED:
  costing.Catalog: Unit price lookups at materialization time

FULL-RESULT PERSISTENCE:
  The engine returns complete new aggregate states, never deltas, so the
  store persists them the same way: SaveLineItem and SaveFund replace the
  whole aggregate graph inside a single SQL transaction. There is no code
  path that updates one category or one row in place, so interleaved
  partial writes under concurrent edits cannot happen.

KEY TABLES:
  resources:           Priced material/labor catalog
  templates:           JSON template definitions (factory schema)
  line_items:          Line item headers
  bom_rows:            Material and work rows (owned by line_items)
  fund_rows:           Overhead rows attached to line items
  funds:               Fund headers with derived totals
  fund_categories:     Categories (owned by funds)
  fund_category_items: Leaf items (owned by categories)

  Ownership cascades are enforced with ON DELETE CASCADE foreign keys.

DECIMALS:
  All quantities, prices, costs, and percentages are stored as TEXT and
  parsed with decimal.NewFromString, so nothing round-trips through
  binary floating point.

CONCURRENCY:
  Uses sync.RWMutex for thread-safety. Callers must still serialize
  read-modify-write cycles per aggregate; the engine provides no locking.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging) for better concurrency:
  - Multiple readers don't block
  - Single writer at a time
  - Better crash recovery

USAGE:
  store, err := sqlite.New("./data/costing.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

MIGRATION:
  Schema is auto-migrated on New(). For production, use a proper
  migration tool (golang-migrate, goose) with versioned migrations.

SEE ALSO:
  - costing/types.go: Aggregate definitions
  - costing/catalog/memory.go: In-memory catalog for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
	"github.com/warp/costing-engine/costing"
	"github.com/warp/costing-engine/funds"
)

// Store implements the storage layer using SQLite.
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

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	-- Resource catalog (current prices; saved rows keep their own snapshots)
	CREATE TABLE IF NOT EXISTS resources (
		id TEXT NOT NULL,
		kind TEXT NOT NULL,
		name TEXT NOT NULL DEFAULT '',
		unit TEXT NOT NULL DEFAULT '',
		unit_price TEXT NOT NULL,
		updated_at TEXT NOT NULL,
		PRIMARY KEY (kind, id)
	);

	-- Template definitions (JSON, factory schema)
	CREATE TABLE IF NOT EXISTS templates (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL DEFAULT '',
		config_json TEXT NOT NULL,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	-- Line items
	CREATE TABLE IF NOT EXISTS line_items (
		id TEXT PRIMARY KEY,
		definition_id TEXT NOT NULL DEFAULT '',
		name TEXT NOT NULL DEFAULT '',
		quantity TEXT NOT NULL,
		effective_quantity TEXT NOT NULL,
		quantity_formula TEXT NOT NULL DEFAULT '',
		updated_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS bom_rows (
		line_item_id TEXT NOT NULL REFERENCES line_items(id) ON DELETE CASCADE,
		position INTEGER NOT NULL,
		resource_kind TEXT NOT NULL,
		resource_id TEXT NOT NULL,
		quantity TEXT NOT NULL,
		unit_price_snapshot TEXT NOT NULL,
		cost TEXT NOT NULL,
		base_quantity TEXT NOT NULL,
		quantity_formula TEXT NOT NULL DEFAULT '',
		waste_percent TEXT NOT NULL,
		PRIMARY KEY (line_item_id, resource_kind, position)
	);

	CREATE TABLE IF NOT EXISTS fund_rows (
		line_item_id TEXT NOT NULL REFERENCES line_items(id) ON DELETE CASCADE,
		position INTEGER NOT NULL,
		name TEXT NOT NULL,
		fund_type TEXT NOT NULL,
		fund_value TEXT NOT NULL,
		cost TEXT NOT NULL,
		PRIMARY KEY (line_item_id, position)
	);

	-- Funds
	CREATE TABLE IF NOT EXISTS funds (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL DEFAULT '',
		total_amount TEXT NOT NULL,
		allocated_amount TEXT NOT NULL,
		remaining_amount TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS fund_categories (
		id TEXT PRIMARY KEY,
		fund_id TEXT NOT NULL REFERENCES funds(id) ON DELETE CASCADE,
		position INTEGER NOT NULL,
		name TEXT NOT NULL,
		category_type TEXT NOT NULL,
		priority INTEGER NOT NULL DEFAULT 0,
		planned_amount TEXT NOT NULL,
		actual_amount TEXT NOT NULL,
		percentage TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_fund_categories_fund
		ON fund_categories(fund_id, position);

	CREATE TABLE IF NOT EXISTS fund_category_items (
		id TEXT PRIMARY KEY,
		category_id TEXT NOT NULL REFERENCES fund_categories(id) ON DELETE CASCADE,
		position INTEGER NOT NULL,
		item_type TEXT NOT NULL DEFAULT '',
		amount TEXT NOT NULL,
		percentage TEXT NOT NULL,
		currency TEXT NOT NULL DEFAULT ''
	);

	CREATE INDEX IF NOT EXISTS idx_fund_category_items_category
		ON fund_category_items(category_id, position);
	`
	_, err := s.db.Exec(schema)
	return err
}

func now() string { return time.Now().UTC().Format(time.RFC3339) }

func parseDec(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(s)
}

// =============================================================================
// RESOURCE CATALOG
// =============================================================================

// SaveResource inserts or updates a catalog entry.
func (s *Store) SaveResource(ctx context.Context, r costing.Resource) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO resources (id, kind, name, unit, unit_price, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (kind, id) DO UPDATE SET
			name = excluded.name, unit = excluded.unit,
			unit_price = excluded.unit_price, updated_at = excluded.updated_at`,
		string(r.ID), string(r.Kind), r.Name, r.Unit, r.UnitPrice.String(), now())
	return err
}

// UnitPrice implements costing.Catalog.
func (s *Store) UnitPrice(ctx context.Context, kind costing.ResourceKind, id costing.ResourceID) (decimal.Decimal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var raw string
	err := s.db.QueryRowContext(ctx,
		`SELECT unit_price FROM resources WHERE kind = ? AND id = ?`,
		string(kind), string(id)).Scan(&raw)
	if err == sql.ErrNoRows {
		return decimal.Zero, &costing.NotFoundError{Kind: string(kind), ID: string(id)}
	}
	if err != nil {
		return decimal.Zero, err
	}
	return parseDec(raw)
}

// ListResources returns all catalog entries ordered by kind then id.
func (s *Store) ListResources(ctx context.Context) ([]costing.Resource, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, kind, name, unit, unit_price FROM resources ORDER BY kind, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []costing.Resource
	for rows.Next() {
		var r costing.Resource
		var id, kind, price string
		if err := rows.Scan(&id, &kind, &r.Name, &r.Unit, &price); err != nil {
			return nil, err
		}
		r.ID = costing.ResourceID(id)
		r.Kind = costing.ResourceKind(kind)
		if r.UnitPrice, err = parseDec(price); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// =============================================================================
// TEMPLATES
// =============================================================================

// TemplateRecord is a stored template definition.
type TemplateRecord struct {
	ID         string
	Name       string
	ConfigJSON string
}

// SaveTemplate inserts or updates a template.
func (s *Store) SaveTemplate(ctx context.Context, r TemplateRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO templates (id, name, config_json, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			name = excluded.name, config_json = excluded.config_json,
			updated_at = excluded.updated_at`,
		r.ID, r.Name, r.ConfigJSON, now(), now())
	return err
}

// GetTemplate returns a template, or a NotFoundError.
func (s *Store) GetTemplate(ctx context.Context, id string) (*TemplateRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var r TemplateRecord
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, config_json FROM templates WHERE id = ?`, id).
		Scan(&r.ID, &r.Name, &r.ConfigJSON)
	if err == sql.ErrNoRows {
		return nil, &costing.NotFoundError{Kind: "template", ID: id}
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// ListTemplates returns all stored templates.
func (s *Store) ListTemplates(ctx context.Context) ([]TemplateRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, config_json FROM templates ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []TemplateRecord
	for rows.Next() {
		var r TemplateRecord
		if err := rows.Scan(&r.ID, &r.Name, &r.ConfigJSON); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// =============================================================================
// LINE ITEMS - Whole-aggregate load and save
// =============================================================================

// SaveLineItem replaces the full line item graph in one transaction.
func (s *Store) SaveLineItem(ctx context.Context, li *costing.LineItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO line_items (id, definition_id, name, quantity, effective_quantity, quantity_formula, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			definition_id = excluded.definition_id, name = excluded.name,
			quantity = excluded.quantity, effective_quantity = excluded.effective_quantity,
			quantity_formula = excluded.quantity_formula, updated_at = excluded.updated_at`,
		li.ID, li.DefinitionID, li.Name, li.Quantity.String(),
		li.EffectiveQuantity.String(), li.QuantityFormula, now()); err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM bom_rows WHERE line_item_id = ?`, li.ID); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM fund_rows WHERE line_item_id = ?`, li.ID); err != nil {
		return err
	}

	insertRows := func(rows []costing.BOMRow) error {
		for i, r := range rows {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO bom_rows (line_item_id, position, resource_kind, resource_id,
					quantity, unit_price_snapshot, cost, base_quantity, quantity_formula, waste_percent)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				li.ID, i, string(r.ResourceKind), string(r.ResourceID),
				r.Quantity.String(), r.UnitPriceSnapshot.String(), r.Cost.String(),
				r.BaseQuantity.String(), r.QuantityFormula, r.WastePercent.String()); err != nil {
				return err
			}
		}
		return nil
	}
	if err := insertRows(li.Materials); err != nil {
		return err
	}
	if err := insertRows(li.WorkTypes); err != nil {
		return err
	}

	for i, f := range li.Funds {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO fund_rows (line_item_id, position, name, fund_type, fund_value, cost)
			VALUES (?, ?, ?, ?, ?, ?)`,
			li.ID, i, f.Name, string(f.FundType), f.FundValue.String(), f.Cost.String()); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// GetLineItem loads the full line item graph, or a NotFoundError.
func (s *Store) GetLineItem(ctx context.Context, id string) (*costing.LineItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	li := &costing.LineItem{ID: id}
	var quantity, effective string
	err := s.db.QueryRowContext(ctx, `
		SELECT definition_id, name, quantity, effective_quantity, quantity_formula
		FROM line_items WHERE id = ?`, id).
		Scan(&li.DefinitionID, &li.Name, &quantity, &effective, &li.QuantityFormula)
	if err == sql.ErrNoRows {
		return nil, &costing.NotFoundError{Kind: "line item", ID: id}
	}
	if err != nil {
		return nil, err
	}
	if li.Quantity, err = parseDec(quantity); err != nil {
		return nil, err
	}
	if li.EffectiveQuantity, err = parseDec(effective); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT resource_kind, resource_id, quantity, unit_price_snapshot, cost,
			base_quantity, quantity_formula, waste_percent
		FROM bom_rows WHERE line_item_id = ? ORDER BY resource_kind, position`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var r costing.BOMRow
		var kind, resID, qty, price, cost, base, waste string
		if err := rows.Scan(&kind, &resID, &qty, &price, &cost, &base, &r.QuantityFormula, &waste); err != nil {
			return nil, err
		}
		r.ResourceKind = costing.ResourceKind(kind)
		r.ResourceID = costing.ResourceID(resID)
		if r.Quantity, err = parseDec(qty); err != nil {
			return nil, err
		}
		if r.UnitPriceSnapshot, err = parseDec(price); err != nil {
			return nil, err
		}
		if r.Cost, err = parseDec(cost); err != nil {
			return nil, err
		}
		if r.BaseQuantity, err = parseDec(base); err != nil {
			return nil, err
		}
		if r.WastePercent, err = parseDec(waste); err != nil {
			return nil, err
		}
		if r.ResourceKind == costing.ResourceLabor {
			li.WorkTypes = append(li.WorkTypes, r)
		} else {
			li.Materials = append(li.Materials, r)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	fundRows, err := s.db.QueryContext(ctx, `
		SELECT name, fund_type, fund_value, cost
		FROM fund_rows WHERE line_item_id = ? ORDER BY position`, id)
	if err != nil {
		return nil, err
	}
	defer fundRows.Close()

	for fundRows.Next() {
		var f costing.FundRow
		var fundType, value, cost string
		if err := fundRows.Scan(&f.Name, &fundType, &value, &cost); err != nil {
			return nil, err
		}
		f.FundType = costing.FundType(fundType)
		if f.FundValue, err = parseDec(value); err != nil {
			return nil, err
		}
		if f.Cost, err = parseDec(cost); err != nil {
			return nil, err
		}
		li.Funds = append(li.Funds, f)
	}
	return li, fundRows.Err()
}

// ListLineItems returns line item headers without their row collections.
func (s *Store) ListLineItems(ctx context.Context) ([]costing.LineItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, definition_id, name, quantity, effective_quantity, quantity_formula
		FROM line_items ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []costing.LineItem
	for rows.Next() {
		var li costing.LineItem
		var quantity, effective string
		if err := rows.Scan(&li.ID, &li.DefinitionID, &li.Name, &quantity, &effective, &li.QuantityFormula); err != nil {
			return nil, err
		}
		if li.Quantity, err = parseDec(quantity); err != nil {
			return nil, err
		}
		if li.EffectiveQuantity, err = parseDec(effective); err != nil {
			return nil, err
		}
		out = append(out, li)
	}
	return out, rows.Err()
}

// DeleteLineItem removes a line item and, via cascade, its rows.
func (s *Store) DeleteLineItem(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `DELETE FROM line_items WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return &costing.NotFoundError{Kind: "line item", ID: id}
	}
	return nil
}

// =============================================================================
// FUNDS - Whole-aggregate load and save
// =============================================================================

// SaveFund replaces the full fund graph in one transaction.
func (s *Store) SaveFund(ctx context.Context, f *funds.Fund) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO funds (id, name, total_amount, allocated_amount, remaining_amount, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			name = excluded.name, total_amount = excluded.total_amount,
			allocated_amount = excluded.allocated_amount,
			remaining_amount = excluded.remaining_amount, updated_at = excluded.updated_at`,
		f.ID, f.Name, f.TotalAmount.String(), f.AllocatedAmount.String(),
		f.RemainingAmount.String(), now()); err != nil {
		return err
	}

	// Category deletes cascade to their items.
	if _, err := tx.ExecContext(ctx, `DELETE FROM fund_categories WHERE fund_id = ?`, f.ID); err != nil {
		return err
	}

	for i, c := range f.Categories {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO fund_categories (id, fund_id, position, name, category_type,
				priority, planned_amount, actual_amount, percentage)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			c.ID, f.ID, i, c.Name, string(c.Type), c.Priority,
			c.PlannedAmount.String(), c.ActualAmount.String(), c.Percentage.String()); err != nil {
			return err
		}
		for j, item := range c.Items {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO fund_category_items (id, category_id, position, item_type, amount, percentage, currency)
				VALUES (?, ?, ?, ?, ?, ?, ?)`,
				item.ID, c.ID, j, item.Type, item.Amount.String(),
				item.Percentage.String(), item.Currency); err != nil {
				return err
			}
		}
	}

	return tx.Commit()
}

// GetFund loads the full fund graph, or a NotFoundError.
func (s *Store) GetFund(ctx context.Context, id string) (*funds.Fund, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	f := &funds.Fund{ID: id}
	var total, allocated, remaining string
	err := s.db.QueryRowContext(ctx, `
		SELECT name, total_amount, allocated_amount, remaining_amount
		FROM funds WHERE id = ?`, id).
		Scan(&f.Name, &total, &allocated, &remaining)
	if err == sql.ErrNoRows {
		return nil, &costing.NotFoundError{Kind: "fund", ID: id}
	}
	if err != nil {
		return nil, err
	}
	if f.TotalAmount, err = parseDec(total); err != nil {
		return nil, err
	}
	if f.AllocatedAmount, err = parseDec(allocated); err != nil {
		return nil, err
	}
	if f.RemainingAmount, err = parseDec(remaining); err != nil {
		return nil, err
	}

	catRows, err := s.db.QueryContext(ctx, `
		SELECT id, name, category_type, priority, planned_amount, actual_amount, percentage
		FROM fund_categories WHERE fund_id = ? ORDER BY position`, id)
	if err != nil {
		return nil, err
	}
	defer catRows.Close()

	for catRows.Next() {
		var c funds.Category
		var catType, planned, actual, pct string
		if err := catRows.Scan(&c.ID, &c.Name, &catType, &c.Priority, &planned, &actual, &pct); err != nil {
			return nil, err
		}
		c.Type = funds.CategoryType(catType)
		if c.PlannedAmount, err = parseDec(planned); err != nil {
			return nil, err
		}
		if c.ActualAmount, err = parseDec(actual); err != nil {
			return nil, err
		}
		if c.Percentage, err = parseDec(pct); err != nil {
			return nil, err
		}
		f.Categories = append(f.Categories, c)
	}
	if err := catRows.Err(); err != nil {
		return nil, err
	}

	for i := range f.Categories {
		items, err := s.loadCategoryItems(ctx, f.Categories[i].ID)
		if err != nil {
			return nil, err
		}
		f.Categories[i].Items = items
	}

	return f, nil
}

func (s *Store) loadCategoryItems(ctx context.Context, categoryID string) ([]funds.Item, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, item_type, amount, percentage, currency
		FROM fund_category_items WHERE category_id = ? ORDER BY position`, categoryID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []funds.Item
	for rows.Next() {
		var item funds.Item
		var amount, pct string
		if err := rows.Scan(&item.ID, &item.Type, &amount, &pct, &item.Currency); err != nil {
			return nil, err
		}
		if item.Amount, err = parseDec(amount); err != nil {
			return nil, err
		}
		if item.Percentage, err = parseDec(pct); err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, rows.Err()
}

// ListFunds returns fund headers without their category graphs.
func (s *Store) ListFunds(ctx context.Context) ([]funds.Fund, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, total_amount, allocated_amount, remaining_amount
		FROM funds ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []funds.Fund
	for rows.Next() {
		var f funds.Fund
		var total, allocated, remaining string
		if err := rows.Scan(&f.ID, &f.Name, &total, &allocated, &remaining); err != nil {
			return nil, err
		}
		if f.TotalAmount, err = parseDec(total); err != nil {
			return nil, err
		}
		if f.AllocatedAmount, err = parseDec(allocated); err != nil {
			return nil, err
		}
		if f.RemainingAmount, err = parseDec(remaining); err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

// DeleteFund removes a fund and, via cascade, its categories and items.
func (s *Store) DeleteFund(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `DELETE FROM funds WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return &costing.NotFoundError{Kind: "fund", ID: id}
	}
	return nil
}
