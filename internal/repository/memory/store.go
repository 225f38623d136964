// Package memory is an in-process implementation of repository.Store. It
// backs the "memory" database driver and the service and handler tests.
package memory

import (
	"context"
	"maps"
	"slices"
	"strings"
	"sync"
	"time"

	"tierimage/internal/models"
	"tierimage/internal/repository"
)

type data struct {
	accounts map[string]models.Account
	tiers    map[string]models.Tier
	images   map[string]models.CustomImage
	members  map[string]map[string]struct{}
}

func newData() *data {
	return &data{
		accounts: map[string]models.Account{},
		tiers:    map[string]models.Tier{},
		images:   map[string]models.CustomImage{},
		members:  map[string]map[string]struct{}{},
	}
}

func (d *data) clone() *data {
	out := &data{
		accounts: maps.Clone(d.accounts),
		tiers:    maps.Clone(d.tiers),
		images:   maps.Clone(d.images),
		members:  make(map[string]map[string]struct{}, len(d.members)),
	}
	for tierID, set := range d.members {
		out.members[tierID] = maps.Clone(set)
	}
	return out
}

type database struct {
	mu  sync.Mutex
	cur *data
}

// Store serializes every operation. A transaction works on a copy of the
// data that replaces the live copy on commit.
type Store struct {
	db  *database
	tx  *data
	now func() time.Time
}

func New() *Store {
	return &Store{
		db:  &database{cur: newData()},
		now: func() time.Time { return time.Now().UTC() },
	}
}

func (s *Store) with(fn func(d *data) error) error {
	if s.tx != nil {
		return fn(s.tx)
	}
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	return fn(s.db.cur)
}

func (s *Store) Accounts() repository.Accounts { return accounts{s} }

func (s *Store) Tiers() repository.Tiers { return tiers{s} }

func (s *Store) CustomImages() repository.CustomImages { return customImages{s} }

func (s *Store) InTx(ctx context.Context, fn func(repository.Store) error) error {
	if s.tx != nil {
		return fn(s)
	}
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	tx := s.db.cur.clone()
	if err := fn(&Store{db: s.db, tx: tx, now: s.now}); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.db.cur = tx
	return nil
}

func (s *Store) Ping(context.Context) error { return nil }

func byCreated[T any](items []T, created func(T) time.Time, id func(T) string) []T {
	slices.SortFunc(items, func(a, b T) int {
		if c := created(a).Compare(created(b)); c != 0 {
			return c
		}
		return strings.Compare(id(a), id(b))
	})
	return items
}

type accounts struct{ s *Store }

func (r accounts) Create(_ context.Context, account models.Account) error {
	return r.s.with(func(d *data) error {
		for _, existing := range d.accounts {
			if existing.Email == account.Email || existing.ID == account.ID {
				return repository.ErrConflict
			}
		}
		now := r.s.now()
		account.CreatedAt, account.UpdatedAt = now, now
		d.accounts[account.ID] = account
		return nil
	})
}

func (r accounts) GetByID(_ context.Context, id string) (models.Account, error) {
	var out models.Account
	err := r.s.with(func(d *data) error {
		account, ok := d.accounts[id]
		if !ok {
			return repository.ErrNotFound
		}
		out = account
		return nil
	})
	return out, err
}

func (r accounts) FindByEmail(_ context.Context, email string) (models.Account, error) {
	var out models.Account
	err := r.s.with(func(d *data) error {
		for _, account := range d.accounts {
			if account.Email == email {
				out = account
				return nil
			}
		}
		return repository.ErrNotFound
	})
	return out, err
}

func (r accounts) List(_ context.Context, limit, offset int) ([]models.Account, error) {
	var out []models.Account
	err := r.s.with(func(d *data) error {
		values := make([]models.Account, 0, len(d.accounts))
		for _, a := range d.accounts {
			values = append(values, a)
		}
		all := byCreated(values,
			func(a models.Account) time.Time { return a.CreatedAt },
			func(a models.Account) string { return a.ID })
		slices.Reverse(all)
		if offset >= len(all) {
			return nil
		}
		all = all[offset:]
		if limit > 0 && limit < len(all) {
			all = all[:limit]
		}
		out = all
		return nil
	})
	return out, err
}

func (r accounts) Update(_ context.Context, account models.Account) error {
	return r.s.with(func(d *data) error {
		existing, ok := d.accounts[account.ID]
		if !ok {
			return repository.ErrNotFound
		}
		for _, other := range d.accounts {
			if other.ID != account.ID && other.Email == account.Email {
				return repository.ErrConflict
			}
		}
		account.CreatedAt = existing.CreatedAt
		account.UpdatedAt = r.s.now()
		d.accounts[account.ID] = account
		return nil
	})
}

func (r accounts) Delete(_ context.Context, id string) error {
	return r.s.with(func(d *data) error {
		if _, ok := d.accounts[id]; !ok {
			return repository.ErrNotFound
		}
		delete(d.accounts, id)
		for tierID, tier := range d.tiers {
			if tier.OwnerID == id {
				delete(d.tiers, tierID)
				delete(d.members, tierID)
			}
		}
		for imageID, image := range d.images {
			if image.OwnerID == id {
				d.deleteImage(imageID)
			}
		}
		return nil
	})
}

func (d *data) deleteImage(id string) {
	delete(d.images, id)
	for _, set := range d.members {
		delete(set, id)
	}
}
