package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/pawhaven/rescuedesk/internal/model"
)

// SavePets replaces the cached pet listings wholesale.
func (s *SQLiteStore) SavePets(ctx context.Context, pets []model.Pet) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM pets"); err != nil {
		return fmt.Errorf("clearing pet snapshot: %w", err)
	}

	const query = `
		INSERT INTO pets (id, name, species, breed, status, description, listed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`

	stmt, err := tx.PreparexContext(ctx, query)
	if err != nil {
		return fmt.Errorf("preparing pet insert: %w", err)
	}
	defer stmt.Close()

	for _, p := range pets {
		if _, err := stmt.ExecContext(
			ctx, p.ID, p.Name, p.Species, p.Breed, p.Status,
			p.Description, p.ListedAt.UTC().Format(time.RFC3339Nano),
		); err != nil {
			return fmt.Errorf("inserting pet %d: %w", p.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing pet snapshot: %w", err)
	}
	return nil
}

// Pets returns the cached pet listings, newest first.
func (s *SQLiteStore) Pets(ctx context.Context) ([]model.Pet, error) {
	const query = `
		SELECT id, name, species, breed, status, description, listed_at
		FROM pets
		ORDER BY listed_at DESC`

	rows, err := s.db.QueryxContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying pets: %w", err)
	}
	defer rows.Close()

	var pets []model.Pet
	for rows.Next() {
		p, err := scanPet(rows)
		if err != nil {
			return nil, err
		}
		pets = append(pets, p)
	}
	return pets, rows.Err()
}

// GetPetByID returns a single cached pet, or nil if it is not cached.
func (s *SQLiteStore) GetPetByID(ctx context.Context, id int64) (*model.Pet, error) {
	const query = `
		SELECT id, name, species, breed, status, description, listed_at
		FROM pets
		WHERE id = ?`

	row := s.db.QueryRowxContext(ctx, query, id)
	p, err := scanPet(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

// SearchPets returns cached pets whose name, breed, or description
// matches the query.
func (s *SQLiteStore) SearchPets(
	ctx context.Context,
	query string,
	limit int,
) ([]model.Pet, error) {
	if limit <= 0 {
		limit = 20
	}

	const q = `
		SELECT id, name, species, breed, status, description, listed_at
		FROM pets
		WHERE name LIKE ? OR breed LIKE ? OR description LIKE ?
		ORDER BY listed_at DESC
		LIMIT ?`

	pattern := "%" + query + "%"
	rows, err := s.db.QueryxContext(ctx, q, pattern, pattern, pattern, limit)
	if err != nil {
		return nil, fmt.Errorf("searching pets: %w", err)
	}
	defer rows.Close()

	var pets []model.Pet
	for rows.Next() {
		p, err := scanPet(rows)
		if err != nil {
			return nil, err
		}
		pets = append(pets, p)
	}
	return pets, rows.Err()
}

// scanPet converts one row into a model.Pet.
func scanPet(row interface {
	Scan(dest ...interface{}) error
}) (model.Pet, error) {
	var (
		p        model.Pet
		listedAt string
	)
	err := row.Scan(
		&p.ID, &p.Name, &p.Species, &p.Breed,
		&p.Status, &p.Description, &listedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Pet{}, err
		}
		return model.Pet{}, fmt.Errorf("scanning pet: %w", err)
	}
	if t, err := time.Parse(time.RFC3339Nano, listedAt); err == nil {
		p.ListedAt = t
	}
	return p, nil
}
