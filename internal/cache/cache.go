// Package cache persists the grocery snapshot (items and categories) so the
// UI has instant data on cold start. Suggestions and transient state are
// deliberately not persisted; they are re-fetched each session.
package cache

import (
	"database/sql"
	"embed"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"

	"github.com/BarisSumer/bizim-market/internal/model"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Cache is a durable snapshot store backed by SQLite.
type Cache struct {
	db *sql.DB
}

// Open opens (or creates) the snapshot database at path and runs migrations.
func Open(path string) (*Cache, error) {
	db, err := sql.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open cache db: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping cache db: %w", err)
	}

	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Cache{db: db}, nil
}

func runMigrations(db *sql.DB) error {
	goose.SetBaseFS(migrations)

	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("set dialect: %w", err)
	}

	if err := goose.Up(db, "migrations"); err != nil {
		return fmt.Errorf("goose up: %w", err)
	}

	return nil
}

func (c *Cache) Close() error {
	return c.db.Close()
}

// Checkpoint flushes the WAL into the main database file, e.g. before an
// encrypted export copies it.
func (c *Cache) Checkpoint() error {
	if _, err := c.db.Exec(`PRAGMA wal_checkpoint(TRUNCATE)`); err != nil {
		return fmt.Errorf("wal checkpoint: %w", err)
	}
	return nil
}

// Load reads the persisted snapshot. found is false on first run, before any
// snapshot has been saved; the caller then seeds defaults.
func (c *Cache) Load() (items []model.GroceryItem, categories []model.Category, found bool, err error) {
	var saved string
	err = c.db.QueryRow(`SELECT value FROM snapshot_meta WHERE key = 'saved_at'`).Scan(&saved)
	if err == sql.ErrNoRows {
		return nil, nil, false, nil
	}
	if err != nil {
		return nil, nil, false, fmt.Errorf("read snapshot meta: %w", err)
	}

	rows, err := c.db.Query(`SELECT id, name, emoji, category, is_bought, quantity, unit FROM snapshot_items ORDER BY position ASC`)
	if err != nil {
		return nil, nil, false, fmt.Errorf("load items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var item model.GroceryItem
		var id string
		var bought int
		if err := rows.Scan(&id, &item.Name, &item.Emoji, &item.Category, &bought, &item.Quantity, &item.Unit); err != nil {
			return nil, nil, false, fmt.Errorf("scan item: %w", err)
		}
		item.ID = model.ParseItemID(id)
		item.IsBought = bought != 0
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, false, fmt.Errorf("load items: %w", err)
	}

	catRows, err := c.db.Query(`SELECT name, emoji, server_id FROM snapshot_categories ORDER BY position ASC`)
	if err != nil {
		return nil, nil, false, fmt.Errorf("load categories: %w", err)
	}
	defer catRows.Close()

	for catRows.Next() {
		var cat model.Category
		var serverID sql.NullString
		if err := catRows.Scan(&cat.Name, &cat.Emoji, &serverID); err != nil {
			return nil, nil, false, fmt.Errorf("scan category: %w", err)
		}
		if serverID.Valid {
			if u, err := uuid.Parse(serverID.String); err == nil {
				cat.ID = &u
			}
		}
		categories = append(categories, cat)
	}
	if err := catRows.Err(); err != nil {
		return nil, nil, false, fmt.Errorf("load categories: %w", err)
	}

	return items, categories, true, nil
}

// Save replaces the snapshot atomically.
func (c *Cache) Save(items []model.GroceryItem, categories []model.Category) error {
	tx, err := c.db.Begin()
	if err != nil {
		return fmt.Errorf("begin save: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM snapshot_items`); err != nil {
		return fmt.Errorf("clear items: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM snapshot_categories`); err != nil {
		return fmt.Errorf("clear categories: %w", err)
	}

	for i, item := range items {
		bought := 0
		if item.IsBought {
			bought = 1
		}
		_, err := tx.Exec(
			`INSERT INTO snapshot_items (position, id, name, emoji, category, is_bought, quantity, unit) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			i, item.ID.String(), item.Name, item.Emoji, item.Category, bought, item.Quantity, item.Unit,
		)
		if err != nil {
			return fmt.Errorf("insert item: %w", err)
		}
	}

	for i, cat := range categories {
		var serverID sql.NullString
		if cat.ID != nil {
			serverID = sql.NullString{String: cat.ID.String(), Valid: true}
		}
		_, err := tx.Exec(
			`INSERT INTO snapshot_categories (position, name, emoji, server_id) VALUES (?, ?, ?, ?)`,
			i, cat.Name, cat.Emoji, serverID,
		)
		if err != nil {
			return fmt.Errorf("insert category: %w", err)
		}
	}

	_, err = tx.Exec(
		`INSERT INTO snapshot_meta (key, value) VALUES ('saved_at', ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("update snapshot meta: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit save: %w", err)
	}
	return nil
}
