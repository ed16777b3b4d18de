package service

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/actuallystonmai/user-directory/internal/domain"
)

// Store is the persistence the service needs; *repository.Repository satisfies it.
type Store interface {
	ListUsers(ctx context.Context, q domain.ListQuery) (*domain.ListResult, error)
	GetUser(ctx context.Context, id int64) (*domain.User, error)
	CreateUser(ctx context.Context, u *domain.User) error
	UpdateUser(ctx context.Context, u *domain.User) error
	DeleteUser(ctx context.Context, id int64) error
	Ping(ctx context.Context) error
}

// PageCache holds list results between writes; *cache.Cache satisfies it.
// Entries are keyed by generation, and Invalidate starts a new one.
type PageCache interface {
	Generation(ctx context.Context) (int64, error)
	Get(ctx context.Context, gen int64, q domain.ListQuery) (*domain.ListResult, bool, error)
	Set(ctx context.Context, gen int64, q domain.ListQuery, res *domain.ListResult) error
	Invalidate(ctx context.Context) error
}

type Service struct {
	store Store
	cache PageCache
}

// NewService builds the service. cache may be nil, in which case every list
// goes to the store.
func NewService(store Store, cache PageCache) *Service {
	return &Service{
		store: store,
		cache: cache,
	}
}

func (s *Service) ListUsers(ctx context.Context, q domain.ListQuery) (*domain.ListResult, error) {
	q = q.Normalize()

	// The generation is read before the store so a write that lands while
	// this request is loading leaves the Set below on a dead key.
	var gen int64
	useCache := false
	if s.cache != nil {
		var err error
		if gen, err = s.cache.Generation(ctx); err != nil {
			log.Printf("[service] cache generation error: %v", err)
		} else {
			useCache = true
			cached, found, err := s.cache.Get(ctx, gen, q)
			if err != nil {
				log.Printf("[service] cache get error for page %d: %v", q.Page, err)
			}
			if found {
				return cached, nil
			}
		}
	}

	res, err := s.store.ListUsers(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}

	if useCache {
		if cacheErr := s.cache.Set(ctx, gen, q, res); cacheErr != nil {
			log.Printf("[service] cache set error for page %d: %v", q.Page, cacheErr)
		}
	}
	return res, nil
}

func (s *Service) GetUser(ctx context.Context, id int64) (*domain.User, error) {
	user, err := s.store.GetUser(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return user, nil
}

func (s *Service) CreateUser(ctx context.Context, name string, age int) (*domain.User, error) {
	user := &domain.User{Name: name, Age: age}
	if err := user.Validate(); err != nil {
		return nil, err
	}
	if err := s.store.CreateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	s.invalidate(ctx)
	log.Printf("[service] created user %d", user.ID)
	return user, nil
}

func (s *Service) UpdateUser(ctx context.Context, id int64, name string, age int) (*domain.User, error) {
	user := &domain.User{ID: id, Name: name, Age: age}
	if err := user.Validate(); err != nil {
		return nil, err
	}
	if err := s.store.UpdateUser(ctx, user); err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("update user: %w", err)
	}
	s.invalidate(ctx)
	return user, nil
}

func (s *Service) DeleteUser(ctx context.Context, id int64) error {
	if err := s.store.DeleteUser(ctx, id); err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return err
		}
		return fmt.Errorf("delete user: %w", err)
	}
	s.invalidate(ctx)
	log.Printf("[service] deleted user %d", id)
	return nil
}

func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

// invalidate drops cached pages after a write. Failures are logged only; the
// entries still expire on their TTL.
func (s *Service) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx); err != nil {
		log.Printf("[service] cache invalidation error: %v", err)
	}
}
