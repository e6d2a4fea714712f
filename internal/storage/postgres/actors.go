package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hearthvtt/levelforge/internal/game/document"
)

// ActorRepository provides actor persistence and implements document.Store.
type ActorRepository struct {
	db *pgxpool.Pool
}

// NewActorRepository creates an ActorRepository backed by the given pool.
//
// Precondition: db must be a valid, open connection pool.
func NewActorRepository(db *pgxpool.Pool) *ActorRepository {
	return &ActorRepository{db: db}
}

// Create inserts a new actor with its embedded items.
//
// Precondition: a.ID must be non-empty and not already stored.
// Postcondition: The actor and all its items are persisted, or nothing is.
func (r *ActorRepository) Create(ctx context.Context, a *document.Actor) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	_, err = tx.Exec(ctx, `
		INSERT INTO actors (id, name, hp_value, hp_max)
		VALUES ($1, $2, $3, $4)`,
		a.ID, a.Name, a.HP.Value, a.HP.Max,
	)
	if err != nil {
		return fmt.Errorf("inserting actor: %w", err)
	}

	if err := insertItems(ctx, tx, a.ID, a.Items); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing actor insert: %w", err)
	}
	return nil
}

// Get retrieves an actor and all its embedded items.
//
// Precondition: id must be non-empty.
// Postcondition: Returns the Actor or document.ErrActorNotFound.
func (r *ActorRepository) Get(ctx context.Context, id string) (*document.Actor, error) {
	var a document.Actor
	err := r.db.QueryRow(ctx, `
		SELECT id, name, hp_value, hp_max FROM actors WHERE id = $1`,
		id,
	).Scan(&a.ID, &a.Name, &a.HP.Value, &a.HP.Max)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, document.ErrActorNotFound
		}
		return nil, fmt.Errorf("querying actor: %w", err)
	}

	items, err := loadItems(ctx, r.db, id)
	if err != nil {
		return nil, err
	}
	a.Items = items
	return &a, nil
}

// ApplyDeltas applies the ordered batch to the stored actor in a single
// transaction. The actor row is locked for the duration so concurrent
// batches serialize.
//
// Precondition: actorID must reference a stored actor.
// Postcondition: Either every delta is applied and persisted, or the
// stored actor is unchanged and an error is returned.
func (r *ActorRepository) ApplyDeltas(ctx context.Context, actorID string, deltas []document.Delta) error {
	if len(deltas) == 0 {
		return nil
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var a document.Actor
	err = tx.QueryRow(ctx, `
		SELECT id, name, hp_value, hp_max FROM actors WHERE id = $1 FOR UPDATE`,
		actorID,
	).Scan(&a.ID, &a.Name, &a.HP.Value, &a.HP.Max)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return document.ErrActorNotFound
		}
		return fmt.Errorf("locking actor: %w", err)
	}

	items, err := loadItems(ctx, tx, actorID)
	if err != nil {
		return err
	}
	a.Items = items

	if err := document.Apply(&a, deltas); err != nil {
		return err
	}

	_, err = tx.Exec(ctx, `
		UPDATE actors SET name = $2, hp_value = $3, hp_max = $4, updated_at = NOW()
		WHERE id = $1`,
		a.ID, a.Name, a.HP.Value, a.HP.Max,
	)
	if err != nil {
		return fmt.Errorf("updating actor: %w", err)
	}

	// Rewriting the item set wholesale keeps ordering and avoids
	// per-delta SQL that could drift from document.Apply semantics.
	if _, err := tx.Exec(ctx, `DELETE FROM actor_items WHERE actor_id = $1`, actorID); err != nil {
		return fmt.Errorf("clearing actor items: %w", err)
	}
	if err := insertItems(ctx, tx, actorID, a.Items); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing delta batch: %w", err)
	}
	return nil
}

// Delete removes an actor and its items.
//
// Postcondition: Returns document.ErrActorNotFound if no actor row matched.
func (r *ActorRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM actors WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting actor: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return document.ErrActorNotFound
	}
	return nil
}

// querier is the subset of pgx shared by pools and transactions.
type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func loadItems(ctx context.Context, q querier, actorID string) ([]*document.Item, error) {
	rows, err := q.Query(ctx, `
		SELECT id, origin, uuid, name, type, subtype, level, hit_die, advancements
		FROM actor_items WHERE actor_id = $1 ORDER BY position ASC`,
		actorID,
	)
	if err != nil {
		return nil, fmt.Errorf("querying actor items: %w", err)
	}
	defer rows.Close()

	items := make([]*document.Item, 0)
	for rows.Next() {
		var (
			item     document.Item
			advBytes []byte
		)
		if err := rows.Scan(
			&item.ID, &item.Origin, &item.UUID, &item.Name,
			&item.Type, &item.Subtype, &item.Level, &item.HitDie, &advBytes,
		); err != nil {
			return nil, fmt.Errorf("scanning actor item row: %w", err)
		}
		if len(advBytes) > 0 {
			if err := json.Unmarshal(advBytes, &item.Advancements); err != nil {
				return nil, fmt.Errorf("decoding advancements for item %s: %w", item.ID, err)
			}
		}
		items = append(items, &item)
	}
	return items, rows.Err()
}

func insertItems(ctx context.Context, tx pgx.Tx, actorID string, items []*document.Item) error {
	for pos, item := range items {
		advBytes, err := json.Marshal(item.Advancements)
		if err != nil {
			return fmt.Errorf("encoding advancements for item %s: %w", item.ID, err)
		}
		if item.Advancements == nil {
			advBytes = []byte(`[]`)
		}
		_, err = tx.Exec(ctx, `
			INSERT INTO actor_items
				(actor_id, id, origin, uuid, name, type, subtype, level, hit_die, advancements, position)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`,
			actorID, item.ID, item.Origin, item.UUID, item.Name,
			item.Type, item.Subtype, item.Level, item.HitDie, advBytes, pos,
		)
		if err != nil {
			return fmt.Errorf("inserting actor item %s: %w", item.ID, err)
		}
	}
	return nil
}
