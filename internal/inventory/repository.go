package inventory

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"kitchen-inventory/internal/inventory/inventorydb"
	"kitchen-inventory/internal/logger"
)

// Repository is a database-backed repository for inventory items. Each
// item is stored as a JSON document; name and type are copied into their
// own columns for ordering and inspection.
type Repository struct {
	queries *inventorydb.Queries
	db      *sql.DB
	now     func() time.Time
}

// NewRepository creates a new Repository.
func NewRepository(d *sql.DB) *Repository {
	return &Repository{
		queries: inventorydb.New(d),
		db:      d,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Save inserts or updates an item. Items without an id get a new UUID.
// The stored item is returned.
func (r *Repository) Save(ctx context.Context, it Item) (Item, error) {
	return r.save(ctx, r.queries, it)
}

func (r *Repository) save(ctx context.Context, q *inventorydb.Queries, it Item) (Item, error) {
	it = it.Clone()
	if it.ID == "" {
		it.ID = uuid.NewString()
	}
	now := r.now()
	if it.CreatedAt.IsZero() {
		it.CreatedAt = now
	}
	it.UpdatedAt = now

	if err := Validate(it); err != nil {
		return Item{}, err
	}

	data, err := json.Marshal(it)
	if err != nil {
		return Item{}, fmt.Errorf("failed to marshal item to JSON: %w", err)
	}

	err = q.UpsertItem(ctx, inventorydb.UpsertItemParams{
		ID:        it.ID,
		Name:      it.Name,
		Type:      string(it.Type),
		Data:      string(data),
		UpdatedAt: it.UpdatedAt,
	})
	if err != nil {
		return Item{}, fmt.Errorf("failed to save item %s: %w", it.ID, err)
	}
	return it, nil
}

// Get retrieves an item by its ID.
func (r *Repository) Get(ctx context.Context, id string) (Item, error) {
	return r.get(ctx, r.queries, id)
}

func (r *Repository) get(ctx context.Context, q *inventorydb.Queries, id string) (Item, error) {
	row, err := q.GetItemByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Item{}, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return Item{}, fmt.Errorf("failed to get item by ID: %w", err)
	}
	return decodeItem(row)
}

// List retrieves all items ordered by name. Rows whose JSON cannot be
// decoded are logged and skipped.
func (r *Repository) List(ctx context.Context) ([]Item, error) {
	return r.list(ctx, r.queries)
}

func (r *Repository) list(ctx context.Context, q *inventorydb.Queries) ([]Item, error) {
	rows, err := q.ListItems(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list items: %w", err)
	}

	items := make([]Item, 0, len(rows))
	for _, row := range rows {
		it, err := decodeItem(row)
		if err != nil {
			logger.L().Warn("skipping undecodable item", zap.String("id", row.ID), zap.Error(err))
			continue
		}
		items = append(items, it)
	}
	return items, nil
}

// Catalog loads every item into an in-memory snapshot for the aggregation engine.
func (r *Repository) Catalog(ctx context.Context) (Catalog, error) {
	items, err := r.List(ctx)
	if err != nil {
		return nil, err
	}
	return NewCatalog(items...), nil
}

// Count returns the number of items in the database.
func (r *Repository) Count(ctx context.Context) (int, error) {
	n, err := r.queries.CountItems(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to count items: %w", err)
	}
	return int(n), nil
}

// Delete removes an item. Every component that referenced it is turned
// into a ghost carrying the deleted item's name, so recipes keep a visible
// placeholder until someone links a replacement. It returns the number of
// recipes that now hold such a ghost.
func (r *Repository) Delete(ctx context.Context, id string) (int, error) {
	var touched int
	err := r.withTx(ctx, func(q *inventorydb.Queries) error {
		deleted, err := r.get(ctx, q, id)
		if err != nil {
			return err
		}
		if _, err := q.DeleteItem(ctx, id); err != nil {
			return fmt.Errorf("failed to delete item %s: %w", id, err)
		}

		items, err := r.list(ctx, q)
		if err != nil {
			return err
		}
		for _, it := range items {
			changed := false
			for idx, c := range it.Components {
				if c.TargetID() == id {
					it.Components[idx] = Component{
						Quantity:        c.Quantity,
						Unit:            c.Unit,
						DeletedItemName: deleted.Name,
					}
					changed = true
				}
			}
			if !changed {
				continue
			}
			if _, err := r.save(ctx, q, it); err != nil {
				return err
			}
			touched++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return touched, nil
}

// ReplaceGhost links ghost components named deletedName to replacementID.
// With a parentID only that recipe is updated; with an empty parentID every
// recipe holding a ghost of that name is. Names compare case-insensitively.
// It returns the number of components relinked.
func (r *Repository) ReplaceGhost(ctx context.Context, deletedName, replacementID, parentID string) (int, error) {
	want := strings.TrimSpace(deletedName)
	if want == "" {
		return 0, fmt.Errorf("deleted item name must not be empty")
	}

	var relinked int
	err := r.withTx(ctx, func(q *inventorydb.Queries) error {
		if _, err := r.get(ctx, q, replacementID); err != nil {
			return fmt.Errorf("failed to load replacement: %w", err)
		}

		var parents []Item
		if parentID != "" {
			parent, err := r.get(ctx, q, parentID)
			if err != nil {
				return err
			}
			parents = []Item{parent}
		} else {
			all, err := r.list(ctx, q)
			if err != nil {
				return err
			}
			parents = all
		}

		for _, it := range parents {
			if it.ID == replacementID {
				continue
			}
			changed := false
			for idx, c := range it.Components {
				if !c.IsGhost() || !strings.EqualFold(strings.TrimSpace(c.DeletedItemName), want) {
					continue
				}
				id := replacementID
				it.Components[idx] = Component{ItemID: &id, Quantity: c.Quantity, Unit: c.Unit}
				changed = true
				relinked++
			}
			if !changed {
				continue
			}
			if _, err := r.save(ctx, q, it); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return relinked, nil
}

func (r *Repository) withTx(ctx context.Context, fn func(q *inventorydb.Queries) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	if err := fn(r.queries.WithTx(tx)); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func decodeItem(row inventorydb.Item) (Item, error) {
	var it Item
	if err := json.Unmarshal([]byte(row.Data), &it); err != nil {
		return Item{}, fmt.Errorf("failed to unmarshal item JSON: %w", err)
	}
	it.ID = row.ID
	return it, nil
}
