package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"staypilot/internal/models"
)

var ErrPropertyNotFound = errors.New("database: property not found")

// CreateProperty inserts a property.
func (db *DB) CreateProperty(ctx context.Context, p *models.Property) error {
	_, err := db.ExecContext(ctx,
		`INSERT INTO properties (id, name, location, is_active, sort_order) VALUES (?, ?, ?, ?, ?)`,
		p.ID, p.Name, p.Location, p.Active, p.SortOrder)
	if err != nil {
		return fmt.Errorf("insert property: %w", err)
	}
	return nil
}

// GetProperty returns a property by id.
func (db *DB) GetProperty(ctx context.Context, id string) (*models.Property, error) {
	var p models.Property
	err := db.QueryRowContext(ctx,
		`SELECT id, name, location, is_active, sort_order FROM properties WHERE id = ?`, id).
		Scan(&p.ID, &p.Name, &p.Location, &p.Active, &p.SortOrder)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrPropertyNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// GetPropertyByName returns a property by its display name. Bulk import
// files reference properties by name, not id.
func (db *DB) GetPropertyByName(ctx context.Context, name string) (*models.Property, error) {
	var p models.Property
	err := db.QueryRowContext(ctx,
		`SELECT id, name, location, is_active, sort_order FROM properties WHERE name = ?`, name).
		Scan(&p.ID, &p.Name, &p.Location, &p.Active, &p.SortOrder)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrPropertyNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// ListProperties returns all properties ordered for display.
func (db *DB) ListProperties(ctx context.Context) ([]models.Property, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT id, name, location, is_active, sort_order FROM properties ORDER BY sort_order, name`)
	if err != nil {
		return nil, fmt.Errorf("list properties: %w", err)
	}
	defer rows.Close()

	var out []models.Property
	for rows.Next() {
		var p models.Property
		if err := rows.Scan(&p.ID, &p.Name, &p.Location, &p.Active, &p.SortOrder); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// DeactivateProperty hides a property from new bookings without deleting
// its history.
func (db *DB) DeactivateProperty(ctx context.Context, id string) error {
	res, err := db.ExecContext(ctx,
		`UPDATE properties SET is_active = 0, updated_at = ? WHERE id = ?`, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("deactivate property: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrPropertyNotFound
	}
	return nil
}
