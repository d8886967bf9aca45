package application

import (
	"context"

	"github.com/oksasatya/identity-service/internal/domain/entity"
)

// GetUserByID consults the cache first when one is configured.
func (s *Service) GetUserByID(ctx context.Context, id string) (*entity.User, error) {
	if err := requireValue("id", id); err != nil {
		return nil, err
	}
	if s.Cache != nil {
		u, ok, err := s.Cache.Get(ctx, id)
		if err != nil {
			s.Logger.WithError(err).WithField("user_id", id).Warn("user cache read failed")
		} else if ok {
			return u, nil
		}
	}

	u, err := s.findOne(ctx, func(ctx context.Context) (*entity.User, error) {
		return s.Repo.FindByID(ctx, id)
	})
	if err != nil {
		return nil, err
	}
	if s.Cache != nil {
		if err := s.Cache.Set(ctx, u); err != nil {
			s.Logger.WithError(err).WithField("user_id", id).Warn("user cache write failed")
		}
	}
	return u, nil
}

func (s *Service) GetUserByUsername(ctx context.Context, username string) (*entity.User, error) {
	if err := requireValue("username", username); err != nil {
		return nil, err
	}
	return s.findOne(ctx, func(ctx context.Context) (*entity.User, error) {
		return s.Repo.FindByUsername(ctx, username)
	})
}

func (s *Service) GetUserByEmail(ctx context.Context, email string) (*entity.User, error) {
	if err := requireValue("email", email); err != nil {
		return nil, err
	}
	return s.findOne(ctx, func(ctx context.Context) (*entity.User, error) {
		return s.Repo.FindByEmail(ctx, email)
	})
}

func (s *Service) ListUsers(ctx context.Context) ([]*entity.User, error) {
	return s.findMany(ctx, s.Repo.FindAll)
}

// ListUsersByStatus accepts the status name in any casing.
func (s *Service) ListUsersByStatus(ctx context.Context, status string) ([]*entity.User, error) {
	st, err := entity.ParseAccountStatus(status)
	if err != nil {
		return nil, invalidField("status", "must be one of the known account statuses")
	}
	return s.findMany(ctx, func(ctx context.Context) ([]*entity.User, error) {
		return s.Repo.FindByStatus(ctx, st)
	})
}

// SearchUsersByName returns first-name matches followed by last-name matches,
// each account at most once.
func (s *Service) SearchUsersByName(ctx context.Context, term string) ([]*entity.User, error) {
	var out []*entity.User
	err := s.inReadTx(ctx, func(ctx context.Context) error {
		byFirst, err := s.Repo.FindByFirstNameContaining(ctx, term)
		if err != nil {
			return mapRepoError(err)
		}
		byLast, err := s.Repo.FindByLastNameContaining(ctx, term)
		if err != nil {
			return mapRepoError(err)
		}
		out = unionByID(byFirst, byLast)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Service) SearchUsersByEmail(ctx context.Context, term string) ([]*entity.User, error) {
	return s.findMany(ctx, func(ctx context.Context) ([]*entity.User, error) {
		return s.Repo.FindByEmailContaining(ctx, term)
	})
}

func (s *Service) CountUsers(ctx context.Context) (int64, error) {
	var n int64
	err := s.inReadTx(ctx, func(ctx context.Context) error {
		c, err := s.Repo.Count(ctx)
		if err != nil {
			return mapRepoError(err)
		}
		n = c
		return nil
	})
	return n, err
}

// SearchDirectory runs a full-text query against the search index. Without
// an index it returns no hits.
func (s *Service) SearchDirectory(ctx context.Context, q string, size int) ([]map[string]any, error) {
	if s.Index == nil {
		return []map[string]any{}, nil
	}
	return s.Index.Search(ctx, q, size)
}

func (s *Service) findOne(ctx context.Context, find func(ctx context.Context) (*entity.User, error)) (*entity.User, error) {
	var u *entity.User
	err := s.inReadTx(ctx, func(ctx context.Context) error {
		found, err := find(ctx)
		if err != nil {
			return mapRepoError(err)
		}
		u = found
		return nil
	})
	if err != nil {
		return nil, err
	}
	return u, nil
}

func (s *Service) findMany(ctx context.Context, find func(ctx context.Context) ([]*entity.User, error)) ([]*entity.User, error) {
	var users []*entity.User
	err := s.inReadTx(ctx, func(ctx context.Context) error {
		found, err := find(ctx)
		if err != nil {
			return mapRepoError(err)
		}
		users = found
		return nil
	})
	if err != nil {
		return nil, err
	}
	if users == nil {
		users = []*entity.User{}
	}
	return users, nil
}

func unionByID(lists ...[]*entity.User) []*entity.User {
	seen := make(map[string]struct{})
	out := make([]*entity.User, 0)
	for _, list := range lists {
		for _, u := range list {
			if _, dup := seen[u.ID]; dup {
				continue
			}
			seen[u.ID] = struct{}{}
			out = append(out, u)
		}
	}
	return out
}
