package storage

import (
	"database/sql"
	"fmt"
	"sync"

	_ "modernc.org/sqlite"

	"github.com/shayan4Ii/google-map-scraper/internal/model"
)

type Store struct {
	db *sql.DB
	mu sync.Mutex
}

func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening db: %w", err)
	}

	// Optimize for write throughput
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return nil, fmt.Errorf("setting pragma %q: %w", p, err)
		}
	}

	if err := createSchema(db); err != nil {
		return nil, err
	}

	return &Store{db: db}, nil
}

func createSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS businesses (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		address TEXT,
		website TEXT,
		phone_number TEXT,
		reviews_count INTEGER,
		reviews_average REAL,
		latitude REAL NOT NULL,
		longitude REAL NOT NULL,
		url TEXT NOT NULL,
		query TEXT NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		UNIQUE(url, query)
	);
	CREATE INDEX IF NOT EXISTS idx_businesses_query ON businesses(query);
	CREATE INDEX IF NOT EXISTS idx_businesses_coords ON businesses(latitude, longitude);
	`
	_, err := db.Exec(schema)
	if err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}
	return nil
}

func (s *Store) InsertBatch(businesses []model.Business) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("beginning tx: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT OR IGNORE INTO businesses
		(name, address, website, phone_number, reviews_count, reviews_average,
		 latitude, longitude, url, query)
		VALUES (?,?,?,?,?,?,?,?,?,?)
	`)
	if err != nil {
		tx.Rollback()
		return 0, fmt.Errorf("preparing stmt: %w", err)
	}
	defer stmt.Close()

	inserted := 0
	for _, b := range businesses {
		res, err := stmt.Exec(
			b.Name, b.Address, b.Website, b.PhoneNumber,
			nullInt(b.ReviewCount), nullFloat(b.Rating),
			b.Lat, b.Lng, b.URL, b.Query,
		)
		if err != nil {
			continue
		}
		n, _ := res.RowsAffected()
		inserted += int(n)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing tx: %w", err)
	}

	return inserted, nil
}

// All returns every stored business ordered by query, then discovery order.
func (s *Store) All() ([]model.Business, error) {
	return s.query(`
		SELECT name, address, website, phone_number, reviews_count,
		       reviews_average, latitude, longitude, url, query
		FROM businesses ORDER BY query, id`)
}

// ByQuery returns the stored businesses for one search term in discovery order.
func (s *Store) ByQuery(query string) ([]model.Business, error) {
	return s.query(`
		SELECT name, address, website, phone_number, reviews_count,
		       reviews_average, latitude, longitude, url, query
		FROM businesses WHERE query = ? ORDER BY id`, query)
}

// Queries lists the distinct search terms present in the store.
func (s *Store) Queries() ([]string, error) {
	rows, err := s.db.Query(`SELECT DISTINCT query FROM businesses ORDER BY query`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var queries []string
	for rows.Next() {
		var q string
		if err := rows.Scan(&q); err != nil {
			return nil, err
		}
		queries = append(queries, q)
	}
	return queries, rows.Err()
}

func (s *Store) Count() (int, error) {
	var count int
	err := s.db.QueryRow("SELECT COUNT(*) FROM businesses").Scan(&count)
	return count, err
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) query(q string, args ...any) ([]model.Business, error) {
	rows, err := s.db.Query(q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var businesses []model.Business
	for rows.Next() {
		var b model.Business
		var reviews sql.NullInt64
		var rating sql.NullFloat64
		err := rows.Scan(
			&b.Name, &b.Address, &b.Website, &b.PhoneNumber,
			&reviews, &rating, &b.Lat, &b.Lng, &b.URL, &b.Query,
		)
		if err != nil {
			return nil, err
		}
		if reviews.Valid {
			b.ReviewCount = model.Some(int(reviews.Int64))
		}
		if rating.Valid {
			b.Rating = model.Some(rating.Float64)
		}
		businesses = append(businesses, b)
	}
	return businesses, rows.Err()
}

func nullInt(o model.Optional[int]) sql.NullInt64 {
	v, ok := o.Get()
	return sql.NullInt64{Int64: int64(v), Valid: ok}
}

func nullFloat(o model.Optional[float64]) sql.NullFloat64 {
	v, ok := o.Get()
	return sql.NullFloat64{Float64: v, Valid: ok}
}
