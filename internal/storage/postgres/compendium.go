package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hearthvtt/levelforge/internal/game/advancement"
	"github.com/hearthvtt/levelforge/internal/game/compendium"
)

// ErrEntryNotFound is returned when a compendium lookup yields no results.
var ErrEntryNotFound = errors.New("compendium entry not found")

// CompendiumRepository persists compendium entries as JSONB payloads so
// imported content survives restarts and can be shared between processes.
type CompendiumRepository struct {
	db *pgxpool.Pool
}

// NewCompendiumRepository creates a CompendiumRepository backed by the
// given pool.
//
// Precondition: db must be a valid, open connection pool.
func NewCompendiumRepository(db *pgxpool.Pool) *CompendiumRepository {
	return &CompendiumRepository{db: db}
}

// Upsert inserts or replaces the entry keyed by its UUID.
//
// Precondition: entry must pass compendium.ValidateEntry.
// Postcondition: The stored payload matches entry exactly.
func (r *CompendiumRepository) Upsert(ctx context.Context, entry *advancement.ItemData) error {
	if err := compendium.ValidateEntry(entry); err != nil {
		return fmt.Errorf("validating entry %s: %w", entry.UUID, err)
	}

	payload, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("encoding entry %s: %w", entry.UUID, err)
	}

	_, err = r.db.Exec(ctx, `
		INSERT INTO compendium_entries (uuid, type, name, payload)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (uuid) DO UPDATE
		SET type = EXCLUDED.type, name = EXCLUDED.name,
		    payload = EXCLUDED.payload, updated_at = NOW()`,
		entry.UUID, entry.Type, entry.Name, payload,
	)
	if err != nil {
		return fmt.Errorf("upserting entry %s: %w", entry.UUID, err)
	}
	return nil
}

// GetByUUID retrieves a single entry.
//
// Postcondition: Returns the entry or ErrEntryNotFound.
func (r *CompendiumRepository) GetByUUID(ctx context.Context, uuid string) (*advancement.ItemData, error) {
	var payload []byte
	err := r.db.QueryRow(ctx, `
		SELECT payload FROM compendium_entries WHERE uuid = $1`,
		uuid,
	).Scan(&payload)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrEntryNotFound
		}
		return nil, fmt.Errorf("querying entry: %w", err)
	}

	var entry advancement.ItemData
	if err := json.Unmarshal(payload, &entry); err != nil {
		return nil, fmt.Errorf("decoding entry %s: %w", uuid, err)
	}
	return &entry, nil
}

// ListByType returns all entries of the given type ordered by name.
//
// Postcondition: Returns a slice (may be empty) or a non-nil error.
func (r *CompendiumRepository) ListByType(ctx context.Context, entryType string) ([]*advancement.ItemData, error) {
	return r.list(ctx, `
		SELECT payload FROM compendium_entries WHERE type = $1 ORDER BY name ASC`,
		entryType)
}

// All returns every stored entry ordered by name.
func (r *CompendiumRepository) All(ctx context.Context) ([]*advancement.ItemData, error) {
	return r.list(ctx, `
		SELECT payload FROM compendium_entries ORDER BY name ASC`)
}

func (r *CompendiumRepository) list(ctx context.Context, sql string, args ...any) ([]*advancement.ItemData, error) {
	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("listing entries: %w", err)
	}
	defer rows.Close()

	entries := make([]*advancement.ItemData, 0)
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scanning entry row: %w", err)
		}
		var entry advancement.ItemData
		if err := json.Unmarshal(payload, &entry); err != nil {
			return nil, fmt.Errorf("decoding entry payload: %w", err)
		}
		entries = append(entries, &entry)
	}
	return entries, rows.Err()
}

// LoadRegistry builds an in-memory Registry from every stored entry.
//
// Postcondition: Returns a Registry holding all persisted entries.
func (r *CompendiumRepository) LoadRegistry(ctx context.Context) (*compendium.Registry, error) {
	entries, err := r.All(ctx)
	if err != nil {
		return nil, err
	}
	reg := compendium.NewRegistry()
	for _, entry := range entries {
		if err := reg.Register(entry); err != nil {
			return nil, fmt.Errorf("registering entry %s: %w", entry.UUID, err)
		}
	}
	return reg, nil
}
