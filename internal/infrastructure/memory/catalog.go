package memory

import (
	"context"
	"sort"
	"strings"

	"github.com/jhoicas/stock-ledger-api/internal/domain"
	"github.com/jhoicas/stock-ledger-api/internal/domain/entity"
)

// ItemRepository implementa repository.ItemRepository.
type ItemRepository struct{ s *Store }

func (r *ItemRepository) Create(ctx context.Context, item *entity.Item) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.items {
		if strings.EqualFold(existing.SKU, item.SKU) {
			return domain.ErrDuplicate
		}
	}
	cp := *item
	r.s.items[item.ID] = &cp
	return nil
}

func (r *ItemRepository) GetByID(ctx context.Context, id string) (*entity.Item, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	item, ok := r.s.items[id]
	if !ok {
		return nil, nil
	}
	cp := *item
	return &cp, nil
}

func (r *ItemRepository) GetBySKU(ctx context.Context, sku string) (*entity.Item, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, item := range r.s.items {
		if strings.EqualFold(item.SKU, sku) {
			cp := *item
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *ItemRepository) List(ctx context.Context, limit, offset int) ([]*entity.Item, error) {
	r.s.mu.RLock()
	list := make([]*entity.Item, 0, len(r.s.items))
	for _, item := range r.s.items {
		cp := *item
		list = append(list, &cp)
	}
	r.s.mu.RUnlock()
	sort.Slice(list, func(i, j int) bool { return list[i].Name < list[j].Name })
	return paginate(list, limit, offset), nil
}

func (r *ItemRepository) Count(ctx context.Context) (int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return len(r.s.items), nil
}

// LocationRepository implementa repository.LocationRepository.
type LocationRepository struct{ s *Store }

func (r *LocationRepository) Create(ctx context.Context, location *entity.Location) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.locations {
		if strings.EqualFold(existing.Code, location.Code) {
			return domain.ErrDuplicate
		}
	}
	cp := *location
	r.s.locations[location.ID] = &cp
	return nil
}

func (r *LocationRepository) GetByID(ctx context.Context, id string) (*entity.Location, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	loc, ok := r.s.locations[id]
	if !ok {
		return nil, nil
	}
	cp := *loc
	return &cp, nil
}

func (r *LocationRepository) GetByCode(ctx context.Context, code string) (*entity.Location, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, loc := range r.s.locations {
		if strings.EqualFold(loc.Code, code) {
			cp := *loc
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *LocationRepository) List(ctx context.Context, limit, offset int) ([]*entity.Location, error) {
	r.s.mu.RLock()
	list := make([]*entity.Location, 0, len(r.s.locations))
	for _, loc := range r.s.locations {
		cp := *loc
		list = append(list, &cp)
	}
	r.s.mu.RUnlock()
	sort.Slice(list, func(i, j int) bool { return list[i].Name < list[j].Name })
	return paginate(list, limit, offset), nil
}

func (r *LocationRepository) Count(ctx context.Context) (int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return len(r.s.locations), nil
}

// UserRepository implementa repository.UserRepository.
type UserRepository struct{ s *Store }

func (r *UserRepository) Create(ctx context.Context, user *entity.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.users {
		if strings.EqualFold(existing.Email, user.Email) {
			return domain.ErrEmailAlreadyExists
		}
	}
	cp := *user
	r.s.users[user.ID] = &cp
	return nil
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*entity.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	u, ok := r.s.users[id]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, u := range r.s.users {
		if strings.EqualFold(u.Email, email) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *UserRepository) Update(ctx context.Context, user *entity.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.users[user.ID]; !ok {
		return domain.ErrUserNotFound
	}
	cp := *user
	r.s.users[user.ID] = &cp
	return nil
}

func (r *UserRepository) List(ctx context.Context, limit, offset int) ([]*entity.User, error) {
	r.s.mu.RLock()
	list := make([]*entity.User, 0, len(r.s.users))
	for _, u := range r.s.users {
		cp := *u
		list = append(list, &cp)
	}
	r.s.mu.RUnlock()
	sort.Slice(list, func(i, j int) bool { return list[i].Email < list[j].Email })
	return paginate(list, limit, offset), nil
}
