package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/denisok6893-rgb/property-exchange-matching/internal/domain"
)

type SQLiteStore struct {
	db *sql.DB
}

func OpenSQLite(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	// базовые настройки
	if _, err := db.Exec(`PRAGMA journal_mode=WAL;`); err != nil {
		_ = db.Close()
		return nil, err
	}
	if _, err := db.Exec(`PRAGMA foreign_keys=ON;`); err != nil {
		_ = db.Close()
		return nil, err
	}
	if path == ":memory:" {
		// every new connection would open a separate empty database
		db.SetMaxOpenConns(1)
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Close() error { return s.db.Close() }

func (s *SQLiteStore) EnsureSchema(ctx context.Context) error {
	const createTable = `
CREATE TABLE IF NOT EXISTS listings (
  id TEXT PRIMARY KEY,
  title TEXT NOT NULL DEFAULT '',
  category TEXT NOT NULL DEFAULT '',
  deal_type TEXT NOT NULL DEFAULT '',
  price INTEGER NOT NULL,
  area INTEGER NOT NULL,
  city TEXT NOT NULL DEFAULT '',
  district TEXT NOT NULL DEFAULT '',
  bedrooms INTEGER,
  year_built INTEGER,
  floor INTEGER,
  total_floors INTEGER,
  document_type TEXT NOT NULL DEFAULT '',
  has_parking INTEGER NOT NULL DEFAULT 0,
  has_elevator INTEGER NOT NULL DEFAULT 0,
  has_storage INTEGER NOT NULL DEFAULT 0,
  is_renovated INTEGER NOT NULL DEFAULT 0,
  open_to_exchange INTEGER NOT NULL DEFAULT 0,
  exchange_preferences_json TEXT NOT NULL DEFAULT '[]',
  description TEXT NOT NULL DEFAULT '',
  owner_phone TEXT NOT NULL DEFAULT '',
  source_link TEXT NOT NULL DEFAULT '',
  image_url TEXT NOT NULL DEFAULT ''
);
`
	if _, err := s.db.ExecContext(ctx, createTable); err != nil {
		return fmt.Errorf("create listings table: %w", err)
	}
	for _, idx := range []string{
		`CREATE INDEX IF NOT EXISTS idx_listings_city ON listings(city);`,
		`CREATE INDEX IF NOT EXISTS idx_listings_price ON listings(price);`,
	} {
		if _, err := s.db.ExecContext(ctx, idx); err != nil {
			return fmt.Errorf("create index: %w", err)
		}
	}
	return nil
}

const listingColumns = `id, title, category, deal_type, price, area, city, district,
bedrooms, year_built, floor, total_floors, document_type,
has_parking, has_elevator, has_storage, is_renovated,
open_to_exchange, exchange_preferences_json, description, owner_phone, source_link, image_url`

const insertListing = `(` + listingColumns + `)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

func listingArgs(l domain.Listing) []any {
	prefs, _ := json.Marshal(l.ExchangePreferences)
	return []any{
		l.ID, l.Title, string(l.Category), string(l.DealType), l.Price, l.Area, l.City, l.District,
		l.Bedrooms, l.YearBuilt, l.Floor, l.TotalFloors, string(l.DocumentType),
		l.HasParking, l.HasElevator, l.HasStorage, l.IsRenovated,
		l.OpenToExchange, string(prefs), l.Description, l.OwnerPhone, l.SourceLink, l.ImageURL,
	}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanListing(row rowScanner) (domain.Listing, error) {
	var (
		l                                      domain.Listing
		category, dealType, docType, prefsJSON string
		bedrooms, yearBuilt, floor, total      sql.NullInt64
	)
	err := row.Scan(
		&l.ID, &l.Title, &category, &dealType, &l.Price, &l.Area, &l.City, &l.District,
		&bedrooms, &yearBuilt, &floor, &total, &docType,
		&l.HasParking, &l.HasElevator, &l.HasStorage, &l.IsRenovated,
		&l.OpenToExchange, &prefsJSON, &l.Description, &l.OwnerPhone, &l.SourceLink, &l.ImageURL,
	)
	if err != nil {
		return domain.Listing{}, err
	}
	l.Category = domain.PropertyType(category)
	l.DealType = domain.DealType(dealType)
	l.DocumentType = domain.DocumentType(docType)
	l.Bedrooms = nullableInt(bedrooms)
	l.YearBuilt = nullableInt(yearBuilt)
	l.Floor = nullableInt(floor)
	l.TotalFloors = nullableInt(total)
	if err := json.Unmarshal([]byte(prefsJSON), &l.ExchangePreferences); err != nil {
		return domain.Listing{}, fmt.Errorf("%w: %s: exchange preferences: %v", ErrCorruptListing, l.ID, err)
	}
	return l, nil
}

func nullableInt(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	n := int(v.Int64)
	return &n
}

func (s *SQLiteStore) CountListings(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM listings`).Scan(&n)
	return n, err
}

// UpsertMany inserts the initial dataset without duplicating by id.
func (s *SQLiteStore) UpsertMany(ctx context.Context, items []domain.Listing) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `INSERT OR IGNORE INTO listings `+insertListing)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, l := range items {
		if _, err := stmt.ExecContext(ctx, listingArgs(l)...); err != nil {
			return fmt.Errorf("insert listing %s: %w", l.ID, err)
		}
	}
	return tx.Commit()
}

func (s *SQLiteStore) Create(ctx context.Context, l domain.Listing) (domain.Listing, error) {
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	if err := l.Validate(); err != nil {
		return domain.Listing{}, err
	}
	if _, err := s.db.ExecContext(ctx, `INSERT INTO listings `+insertListing, listingArgs(l)...); err != nil {
		return domain.Listing{}, fmt.Errorf("insert listing: %w", err)
	}
	return l, nil
}

func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM listings WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if aff, _ := res.RowsAffected(); aff == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLiteStore) Get(ctx context.Context, id string) (domain.Listing, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+listingColumns+` FROM listings WHERE id = ?`, id)
	l, err := scanListing(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Listing{}, ErrNotFound
	}
	return l, err
}

func (s *SQLiteStore) All(ctx context.Context) ([]domain.Listing, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+listingColumns+` FROM listings ORDER BY id`)
	if err != nil {
		return nil, err
	}
	return collect(rows)
}

func (s *SQLiteStore) List(ctx context.Context, p ListParams) ([]domain.Listing, int, error) {
	p = p.normalized()

	where := make([]string, 0, 4)
	args := make([]any, 0, 8)

	if loc := strings.TrimSpace(p.Location); loc != "" {
		// contains, case-insensitive
		where = append(where, "(LOWER(city) LIKE '%' || LOWER(?) || '%' OR LOWER(district) LIKE '%' || LOWER(?) || '%')")
		args = append(args, loc, loc)
	}
	if p.MinPrice > 0 {
		where = append(where, "price >= ?")
		args = append(args, p.MinPrice)
	}
	if p.MaxPrice > 0 {
		where = append(where, "price <= ?")
		args = append(args, p.MaxPrice)
	}
	if p.MinBedrooms > 0 {
		where = append(where, "bedrooms >= ?")
		args = append(args, p.MinBedrooms)
	}

	whereSQL := ""
	if len(where) > 0 {
		whereSQL = "WHERE " + strings.Join(where, " AND ")
	}

	orderSQL := "ORDER BY id"
	switch p.Sort {
	case "price_asc":
		orderSQL = "ORDER BY price ASC, id"
	case "price_desc":
		orderSQL = "ORDER BY price DESC, id"
	}

	var total int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM listings "+whereSQL, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	rowsSQL := "SELECT " + listingColumns + " FROM listings " + whereSQL + "\n" + orderSQL + "\nLIMIT ? OFFSET ?"
	rowsArgs := append(append([]any{}, args...), p.Limit, p.Offset)

	rows, err := s.db.QueryContext(ctx, rowsSQL, rowsArgs...)
	if err != nil {
		return nil, 0, err
	}
	out, err := collect(rows)
	if err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

func collect(rows *sql.Rows) ([]domain.Listing, error) {
	defer rows.Close()
	var out []domain.Listing
	for rows.Next() {
		l, err := scanListing(rows)
		if errors.Is(err, ErrCorruptListing) {
			// one bad record must not hide the rest
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}
