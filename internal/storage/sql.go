package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"littlesteps/internal/database"
)

// SQLStorage stores one namespace's items in the storage_items table.
type SQLStorage struct {
	db        *database.DB
	namespace string
	now       func() time.Time
}

// NewSQLStorage binds a namespace to the database.
func NewSQLStorage(db *database.DB, namespace string) *SQLStorage {
	return &SQLStorage{db: db, namespace: namespace, now: time.Now}
}

// Namespace returns the bound namespace.
func (s *SQLStorage) Namespace() string {
	return s.namespace
}

func (s *SQLStorage) GetItem(ctx context.Context, key string) (string, bool, error) {
	var value string
	query := "SELECT item_value FROM storage_items WHERE namespace = ? AND item_key = ?"
	err := s.db.QueryRowContext(ctx, query, s.namespace, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to get item %s: %w", key, err)
	}
	return value, true, nil
}

func (s *SQLStorage) SetItem(ctx context.Context, key, value string) error {
	return s.Apply(ctx, Set(key, value))
}

func (s *SQLStorage) RemoveItem(ctx context.Context, key string) error {
	return s.Apply(ctx, Remove(key))
}

func (s *SQLStorage) Keys(ctx context.Context) ([]string, error) {
	query := "SELECT item_key FROM storage_items WHERE namespace = ? ORDER BY item_key ASC"
	rows, err := s.db.QueryContext(ctx, query, s.namespace)
	if err != nil {
		return nil, fmt.Errorf("failed to query keys: %w", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("failed to scan key: %w", err)
		}
		keys = append(keys, key)
	}
	return keys, rows.Err()
}

func (s *SQLStorage) Apply(ctx context.Context, ops ...Op) error {
	if err := validate(ops); err != nil {
		return err
	}
	if len(ops) == 0 {
		return nil
	}

	now := s.now().UTC()
	return s.db.WithTx(ctx, func(tx *database.Tx) error {
		for _, op := range ops {
			if op.Remove {
				query := "DELETE FROM storage_items WHERE namespace = ? AND item_key = ?"
				if _, err := tx.ExecContext(ctx, query, s.namespace, op.Key); err != nil {
					return fmt.Errorf("failed to remove item %s: %w", op.Key, err)
				}
				continue
			}
			if _, err := tx.ExecContext(ctx, tx.GetDialect().UpsertItemQuery(), s.namespace, op.Key, op.Value, now); err != nil {
				return fmt.Errorf("failed to set item %s: %w", op.Key, err)
			}
		}
		return nil
	})
}

// NamespaceSummary describes one stored namespace.
type NamespaceSummary struct {
	Namespace string
	Items     int
}

// Namespaces lists every namespace with at least one item.
func Namespaces(ctx context.Context, db database.DBTX) ([]NamespaceSummary, error) {
	query := `
		SELECT namespace, COUNT(*)
		FROM storage_items
		GROUP BY namespace
		ORDER BY namespace ASC
	`
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query namespaces: %w", err)
	}
	defer rows.Close()

	var out []NamespaceSummary
	for rows.Next() {
		var ns NamespaceSummary
		if err := rows.Scan(&ns.Namespace, &ns.Items); err != nil {
			return nil, fmt.Errorf("failed to scan namespace: %w", err)
		}
		out = append(out, ns)
	}
	return out, rows.Err()
}

// Clear deletes every item in a namespace.
func Clear(ctx context.Context, db database.DBTX, namespace string) error {
	if _, err := db.ExecContext(ctx, "DELETE FROM storage_items WHERE namespace = ?", namespace); err != nil {
		return fmt.Errorf("failed to clear namespace %s: %w", namespace, err)
	}
	return nil
}
