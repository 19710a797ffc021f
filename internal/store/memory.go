// Package store provides record storage backends for RecipeDesk.
//
// This file implements an in-memory store used by tests and by
// deployments without a database DSN.
package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/recipedesk/RecipeDesk/internal/models"
)

type MemoryStore struct {
	mu        sync.RWMutex
	users     map[string]models.UserProfile
	recipes   map[int64]models.Recipe
	favorites map[string]map[int64]struct{}
	nextID    int64
	admins    map[string]struct{}
}

// NewMemoryStore creates an empty in-memory record store.
func NewMemoryStore(opts ...Option) *MemoryStore {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	return &MemoryStore{
		users:     make(map[string]models.UserProfile),
		recipes:   make(map[int64]models.Recipe),
		favorites: make(map[string]map[int64]struct{}),
		nextID:    1,
		admins:    adminSet(cfg.AdminIDs),
	}
}

func (s *MemoryStore) IsRegistered(ctx context.Context, actorID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.users[actorID]
	return ok && p.Active, nil
}

func (s *MemoryStore) RegisterUser(ctx context.Context, p models.UserProfile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.users[p.ActorID]
	if ok {
		existing.Username = p.Username
		existing.DisplayName = p.DisplayName
		existing.Active = true
		existing.BanReason = ""
		s.users[p.ActorID] = existing
		return nil
	}
	p.Active = true
	p.JoinedAt = time.Now()
	s.users[p.ActorID] = p
	return nil
}

func (s *MemoryStore) IsAdmin(actorID string) bool {
	_, ok := s.admins[actorID]
	return ok
}

func (s *MemoryStore) SetBanned(ctx context.Context, actorID, reason string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.users[actorID]
	if !ok {
		return models.ErrNotFound
	}
	p.Active = false
	p.BanReason = reason
	s.users[actorID] = p
	return nil
}

func (s *MemoryStore) GetProfile(ctx context.Context, actorID string) (*models.UserProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.users[actorID]
	if !ok {
		return nil, nil
	}
	cp := p
	return &cp, nil
}

func (s *MemoryStore) SaveRecipe(ctx context.Context, r models.Recipe) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r.ID = s.nextID
	s.nextID++
	now := time.Now()
	r.CreatedAt = now
	r.UpdatedAt = now
	s.recipes[r.ID] = r
	return r.ID, nil
}

func (s *MemoryStore) UpdateRecipe(ctx context.Context, r models.Recipe) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.recipes[r.ID]
	if !ok || existing.OwnerID != r.OwnerID {
		return false, nil
	}
	r.CreatedAt = existing.CreatedAt
	r.UpdatedAt = time.Now()
	s.recipes[r.ID] = r
	return true, nil
}

func (s *MemoryStore) GetRecipe(ctx context.Context, id int64) (*models.Recipe, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.recipes[id]
	if !ok {
		return nil, nil
	}
	cp := r
	return &cp, nil
}

func (s *MemoryStore) ListRecipesByOwner(ctx context.Context, ownerID string) ([]models.Recipe, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.Recipe
	for _, r := range s.recipes {
		if r.OwnerID == ownerID {
			out = append(out, r)
		}
	}
	sortNewestFirst(out)
	return out, nil
}

func (s *MemoryStore) SearchRecipes(ctx context.Context, term string) ([]models.Recipe, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	needle := strings.ToLower(term)
	var out []models.Recipe
	for _, r := range s.recipes {
		if strings.Contains(strings.ToLower(r.Title), needle) ||
			strings.Contains(strings.ToLower(r.Ingredients), needle) ||
			strings.Contains(strings.ToLower(r.Instructions), needle) {
			out = append(out, r)
		}
	}
	sortNewestFirst(out)
	return out, nil
}

func (s *MemoryStore) SaveBMI(ctx context.Context, actorID string, bmi float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.users[actorID]
	if !ok {
		return models.ErrNotFound
	}
	p.BMI = bmi
	s.users[actorID] = p
	return nil
}

func (s *MemoryStore) IsFavorite(ctx context.Context, actorID string, recipeID int64) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	set, ok := s.favorites[actorID]
	if !ok {
		return false, nil
	}
	_, ok = set[recipeID]
	return ok, nil
}

func (s *MemoryStore) AddFavorite(ctx context.Context, actorID string, recipeID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	set, ok := s.favorites[actorID]
	if !ok {
		set = make(map[int64]struct{})
		s.favorites[actorID] = set
	}
	set[recipeID] = struct{}{}
	return nil
}

func (s *MemoryStore) RemoveFavorite(ctx context.Context, actorID string, recipeID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if set, ok := s.favorites[actorID]; ok {
		delete(set, recipeID)
	}
	return nil
}

func (s *MemoryStore) ListFavorites(ctx context.Context, actorID string) ([]models.Recipe, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.Recipe
	for id := range s.favorites[actorID] {
		if r, ok := s.recipes[id]; ok {
			out = append(out, r)
		}
	}
	sortNewestFirst(out)
	return out, nil
}

func (s *MemoryStore) Close() error {
	return nil
}

// sortNewestFirst orders recipes by creation time descending, breaking
// ties by id descending to match the SQL backends.
func sortNewestFirst(recipes []models.Recipe) {
	sort.Slice(recipes, func(i, j int) bool {
		if recipes[i].CreatedAt.Equal(recipes[j].CreatedAt) {
			return recipes[i].ID > recipes[j].ID
		}
		return recipes[i].CreatedAt.After(recipes[j].CreatedAt)
	})
}
