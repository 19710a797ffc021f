// Package store provides record storage backends for RecipeDesk.
//
// It persists user profiles, recipes, favorites, and BMI results. Three
// backends share one interface: SQLite, PostgreSQL, and an in-memory store
// for tests.
package store

import (
	"context"
	"strings"

	"github.com/recipedesk/RecipeDesk/internal/models"
)

// Store is the record storage interface.
//
// Lookup methods return nil, nil when the record does not exist.
type Store interface {
	// IsRegistered reports whether the actor has an active registration.
	// Banned users are not registered.
	IsRegistered(ctx context.Context, actorID string) (bool, error)
	// RegisterUser inserts or reactivates a user profile.
	RegisterUser(ctx context.Context, profile models.UserProfile) error
	// IsAdmin reports whether the actor is on the admin allow-list.
	// The allow-list is configuration, not data, so no error is possible.
	IsAdmin(actorID string) bool
	// SetBanned deactivates the user and records the reason.
	SetBanned(ctx context.Context, actorID, reason string) error
	// GetProfile returns the user's profile, or nil if never registered.
	GetProfile(ctx context.Context, actorID string) (*models.UserProfile, error)

	// SaveRecipe inserts a recipe and returns its assigned id.
	SaveRecipe(ctx context.Context, r models.Recipe) (int64, error)
	// UpdateRecipe overwrites the recipe's editable fields. It returns
	// false when the recipe does not exist or r.OwnerID does not own it.
	UpdateRecipe(ctx context.Context, r models.Recipe) (bool, error)
	// GetRecipe returns the recipe, or nil if it does not exist.
	GetRecipe(ctx context.Context, id int64) (*models.Recipe, error)
	// ListRecipesByOwner returns the owner's recipes, newest first.
	ListRecipesByOwner(ctx context.Context, ownerID string) ([]models.Recipe, error)
	// SearchRecipes matches the term case-insensitively against title,
	// ingredients, and instructions. Results are newest first.
	SearchRecipes(ctx context.Context, term string) ([]models.Recipe, error)

	// SaveBMI records the actor's latest BMI value.
	SaveBMI(ctx context.Context, actorID string, bmi float64) error

	IsFavorite(ctx context.Context, actorID string, recipeID int64) (bool, error)
	AddFavorite(ctx context.Context, actorID string, recipeID int64) error
	RemoveFavorite(ctx context.Context, actorID string, recipeID int64) error
	// ListFavorites returns the actor's favorited recipes, newest first.
	ListFavorites(ctx context.Context, actorID string) ([]models.Recipe, error)

	Close() error
}

// Opts holds configuration options for store backends.
type Opts struct {
	DSN      string
	AdminIDs []string
}

// Option defines a configuration option for store backends.
type Option func(*Opts)

// WithSQLiteDSN sets the SQLite database file path.
func WithSQLiteDSN(dsn string) Option {
	return func(o *Opts) {
		o.DSN = dsn
	}
}

// WithPostgresDSN sets the PostgreSQL connection string.
func WithPostgresDSN(dsn string) Option {
	return func(o *Opts) {
		o.DSN = dsn
	}
}

// WithAdminIDs sets the admin allow-list.
func WithAdminIDs(ids []string) Option {
	return func(o *Opts) {
		o.AdminIDs = ids
	}
}

// DetectDSNType returns "postgres" for PostgreSQL connection strings and
// "sqlite3" otherwise. SQLite DSNs are plain file paths.
func DetectDSNType(dsn string) string {
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") || strings.Contains(dsn, "host=") {
		return "postgres"
	}
	return "sqlite3"
}

// New creates a store backend matching the DSN type. An empty DSN yields
// an in-memory store.
func New(opts ...Option) (Store, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.DSN == "" {
		return NewMemoryStore(WithAdminIDs(cfg.AdminIDs)), nil
	}
	if DetectDSNType(cfg.DSN) == "postgres" {
		return NewPostgresStore(opts...)
	}
	return NewSQLiteStore(opts...)
}

// adminSet builds a membership set from the allow-list.
func adminSet(ids []string) map[string]struct{} {
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if id = strings.TrimSpace(id); id != "" {
			set[id] = struct{}{}
		}
	}
	return set
}
