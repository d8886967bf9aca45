package memory

import (
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/oksasatya/identity-service/internal/domain/entity"
	"github.com/oksasatya/identity-service/internal/domain/repository"
)

// UserRepository keeps accounts in process memory. It enforces the same
// unique and conditional-write rules as the SQL schema and doubles as its own
// Transactor.
type UserRepository struct {
	mu    sync.RWMutex
	users map[string]*entity.User
	order []string
	newID func() string
}

func NewUserRepository() *UserRepository {
	return &UserRepository{
		users: make(map[string]*entity.User),
		newID: uuid.NewString,
	}
}

type txKey struct{}

type txState struct {
	owner    *UserRepository
	readOnly bool
}

// WithinTransaction holds the write lock for the duration of fn and restores
// the previous state if fn fails.
func (r *UserRepository) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if st := r.txState(ctx); st != nil {
		if st.readOnly {
			panic("memory: write transaction inside a read-only transaction")
		}
		return fn(ctx)
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	users, order := r.snapshot()
	if err := fn(context.WithValue(ctx, txKey{}, &txState{owner: r})); err != nil {
		r.users, r.order = users, order
		return err
	}
	return nil
}

// WithinReadOnlyTransaction holds the read lock, so read-only transactions
// run side by side.
func (r *UserRepository) WithinReadOnlyTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if r.txState(ctx) != nil {
		return fn(ctx)
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return fn(context.WithValue(ctx, txKey{}, &txState{owner: r, readOnly: true}))
}

func (r *UserRepository) txState(ctx context.Context) *txState {
	st, _ := ctx.Value(txKey{}).(*txState)
	if st == nil || st.owner != r {
		return nil
	}
	return st
}

func (r *UserRepository) rlock(ctx context.Context) func() {
	if r.txState(ctx) != nil {
		return func() {}
	}
	r.mu.RLock()
	return r.mu.RUnlock
}

func (r *UserRepository) lock(ctx context.Context) func() {
	if st := r.txState(ctx); st != nil {
		if st.readOnly {
			panic("memory: write inside a read-only transaction")
		}
		return func() {}
	}
	r.mu.Lock()
	return r.mu.Unlock
}

func (r *UserRepository) snapshot() (map[string]*entity.User, []string) {
	users := make(map[string]*entity.User, len(r.users))
	for id, u := range r.users {
		users[id] = u.Clone()
	}
	order := make([]string, len(r.order))
	copy(order, r.order)
	return users, order
}

func (r *UserRepository) Save(ctx context.Context, u *entity.User) (*entity.User, error) {
	defer r.lock(ctx)()

	if u.ID != "" {
		if _, ok := r.users[u.ID]; !ok {
			return nil, repository.ErrNotFound
		}
	}
	for id, other := range r.users {
		if id == u.ID {
			continue
		}
		if other.Username == u.Username {
			return nil, repository.ErrUsernameTaken
		}
		if other.Email == u.Email {
			return nil, repository.ErrEmailTaken
		}
	}

	stored := u.Clone()
	if stored.ID == "" {
		stored.ID = r.newID()
		r.order = append(r.order, stored.ID)
	}
	r.users[stored.ID] = stored
	return stored.Clone(), nil
}

func (r *UserRepository) FindByID(ctx context.Context, id string) (*entity.User, error) {
	defer r.rlock(ctx)()
	if u, ok := r.users[id]; ok {
		return u.Clone(), nil
	}
	return nil, repository.ErrNotFound
}

func (r *UserRepository) FindByUsername(ctx context.Context, username string) (*entity.User, error) {
	return r.findOne(ctx, func(u *entity.User) bool { return u.Username == username })
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	return r.findOne(ctx, func(u *entity.User) bool { return u.Email == email })
}

func (r *UserRepository) FindAll(ctx context.Context) ([]*entity.User, error) {
	return r.filter(ctx, func(*entity.User) bool { return true }), nil
}

func (r *UserRepository) FindByStatus(ctx context.Context, status entity.AccountStatus) ([]*entity.User, error) {
	return r.filter(ctx, func(u *entity.User) bool { return u.AccountStatus == status }), nil
}

func (r *UserRepository) FindByFirstNameContaining(ctx context.Context, term string) ([]*entity.User, error) {
	return r.filter(ctx, func(u *entity.User) bool { return containsFold(u.FirstName, term) }), nil
}

func (r *UserRepository) FindByLastNameContaining(ctx context.Context, term string) ([]*entity.User, error) {
	return r.filter(ctx, func(u *entity.User) bool { return containsFold(u.LastName, term) }), nil
}

func (r *UserRepository) FindByEmailContaining(ctx context.Context, term string) ([]*entity.User, error) {
	return r.filter(ctx, func(u *entity.User) bool { return containsFold(u.Email, term) }), nil
}

func (r *UserRepository) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	_, err := r.FindByUsername(ctx, username)
	return err == nil, nil
}

func (r *UserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	_, err := r.FindByEmail(ctx, email)
	return err == nil, nil
}

func (r *UserRepository) Count(ctx context.Context) (int64, error) {
	defer r.rlock(ctx)()
	return int64(len(r.users)), nil
}

func (r *UserRepository) DeleteByID(ctx context.Context, id string) error {
	defer r.lock(ctx)()
	return r.remove(id)
}

func (r *UserRepository) Delete(ctx context.Context, u *entity.User) error {
	if u == nil || u.ID == "" {
		return repository.ErrNotFound
	}
	defer r.lock(ctx)()
	return r.remove(u.ID)
}

func (r *UserRepository) remove(id string) error {
	if _, ok := r.users[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.users, id)
	for i, v := range r.order {
		if v == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return nil
}

func (r *UserRepository) findOne(ctx context.Context, match func(*entity.User) bool) (*entity.User, error) {
	found := r.filter(ctx, match)
	if len(found) == 0 {
		return nil, repository.ErrNotFound
	}
	return found[0], nil
}

func (r *UserRepository) filter(ctx context.Context, match func(*entity.User) bool) []*entity.User {
	defer r.rlock(ctx)()
	out := make([]*entity.User, 0)
	for _, id := range r.order {
		if u := r.users[id]; match(u) {
			out = append(out, u.Clone())
		}
	}
	return out
}

func containsFold(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}

var (
	_ repository.UserRepository     = (*UserRepository)(nil)
	_ repository.Transactor         = (*UserRepository)(nil)
	_ repository.ReadOnlyTransactor = (*UserRepository)(nil)
)
