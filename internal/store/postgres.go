// Package store provides record storage backends for RecipeDesk.
//
// This file implements the PostgreSQL-backed store.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "embed"

	_ "github.com/lib/pq"

	"github.com/recipedesk/RecipeDesk/internal/models"
)

// Database connection pool configuration constants
const (
	// DefaultMaxOpenConns is the default maximum number of open connections to the database
	DefaultMaxOpenConns = 25
	// DefaultMaxIdleConns is the default maximum number of idle connections in the pool
	DefaultMaxIdleConns = 25
	// DefaultConnMaxLifetime is the default maximum amount of time a connection may be reused
	DefaultConnMaxLifetime = 5 * time.Minute
)

//go:embed migrations_postgres.sql
var postgresMigrations string

type PostgresStore struct {
	db     *sql.DB
	admins map[string]struct{}
}

// NewPostgresStore creates a new Postgres store based on provided options.
func NewPostgresStore(opts ...Option) (*PostgresStore, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	slog.Debug("PostgresStore.NewPostgresStore: creating Postgres store", "DSN_set", cfg.DSN != "", "admins", len(cfg.AdminIDs))

	dsn := cfg.DSN
	if dsn == "" {
		slog.Error("PostgresStore DSN not set")
		return nil, fmt.Errorf("database DSN not set")
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		slog.Error("Failed to open Postgres connection", "error", err)
		return nil, err
	}

	db.SetMaxOpenConns(DefaultMaxOpenConns)
	db.SetMaxIdleConns(DefaultMaxIdleConns)
	db.SetConnMaxLifetime(DefaultConnMaxLifetime)

	if err := db.Ping(); err != nil {
		slog.Error("Postgres ping failed", "error", err)
		return nil, err
	}

	slog.Debug("Running Postgres migrations")
	if _, err := db.Exec(postgresMigrations); err != nil {
		slog.Error("Failed to run migrations", "error", err)
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	slog.Debug("Postgres migrations applied successfully")

	return &PostgresStore{db: db, admins: adminSet(cfg.AdminIDs)}, nil
}

func (s *PostgresStore) IsRegistered(ctx context.Context, actorID string) (bool, error) {
	var active bool
	err := s.db.QueryRowContext(ctx, `SELECT active FROM users WHERE actor_id = $1`, actorID).Scan(&active)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		slog.Error("PostgresStore IsRegistered query failed", "error", err, "actor", actorID)
		return false, fmt.Errorf("failed to query registration for %s: %w", actorID, err)
	}
	return active, nil
}

func (s *PostgresStore) RegisterUser(ctx context.Context, p models.UserProfile) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (actor_id, username, display_name, active)
		VALUES ($1, $2, $3, TRUE)
		ON CONFLICT (actor_id) DO UPDATE SET
			username = EXCLUDED.username,
			display_name = EXCLUDED.display_name,
			active = TRUE,
			ban_reason = NULL`,
		p.ActorID, p.Username, nilIfEmpty(p.DisplayName))
	if err != nil {
		slog.Error("PostgresStore RegisterUser failed", "error", err, "actor", p.ActorID)
		return fmt.Errorf("failed to register user %s: %w", p.ActorID, err)
	}
	slog.Debug("PostgresStore RegisterUser succeeded", "actor", p.ActorID, "username", p.Username)
	return nil
}

func (s *PostgresStore) IsAdmin(actorID string) bool {
	_, ok := s.admins[actorID]
	return ok
}

func (s *PostgresStore) SetBanned(ctx context.Context, actorID, reason string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE users SET active = FALSE, ban_reason = $1 WHERE actor_id = $2`,
		nilIfEmpty(reason), actorID)
	if err != nil {
		slog.Error("PostgresStore SetBanned failed", "error", err, "actor", actorID)
		return fmt.Errorf("failed to ban user %s: %w", actorID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check ban result for %s: %w", actorID, err)
	}
	if n == 0 {
		return models.ErrNotFound
	}
	slog.Debug("PostgresStore SetBanned succeeded", "actor", actorID)
	return nil
}

func (s *PostgresStore) GetProfile(ctx context.Context, actorID string) (*models.UserProfile, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT actor_id, username, display_name, active, ban_reason, bmi, joined_at FROM users WHERE actor_id = $1`,
		actorID)
	p, err := scanProfile(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		slog.Error("PostgresStore GetProfile failed", "error", err, "actor", actorID)
		return nil, fmt.Errorf("failed to query profile for %s: %w", actorID, err)
	}
	return &p, nil
}

func (s *PostgresStore) SaveRecipe(ctx context.Context, r models.Recipe) (int64, error) {
	var id int64
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO recipes (title, ingredients, cooking_time, skill_level, calories, instructions, voice_ref, photo_ref, owner_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id`,
		r.Title, r.Ingredients, r.CookingTime, r.SkillLevel, r.Calories, r.Instructions,
		nilIfEmpty(r.VoiceRef), nilIfEmpty(r.PhotoRef), r.OwnerID).Scan(&id)
	if err != nil {
		slog.Error("PostgresStore SaveRecipe failed", "error", err, "owner", r.OwnerID)
		return 0, fmt.Errorf("failed to insert recipe for %s: %w", r.OwnerID, err)
	}
	slog.Debug("PostgresStore SaveRecipe succeeded", "id", id, "owner", r.OwnerID)
	return id, nil
}

func (s *PostgresStore) UpdateRecipe(ctx context.Context, r models.Recipe) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE recipes SET
			title = $1, ingredients = $2, cooking_time = $3, skill_level = $4, calories = $5,
			instructions = $6, voice_ref = $7, photo_ref = $8, updated_at = NOW()
		WHERE id = $9 AND owner_id = $10`,
		r.Title, r.Ingredients, r.CookingTime, r.SkillLevel, r.Calories, r.Instructions,
		nilIfEmpty(r.VoiceRef), nilIfEmpty(r.PhotoRef), r.ID, r.OwnerID)
	if err != nil {
		slog.Error("PostgresStore UpdateRecipe failed", "error", err, "id", r.ID)
		return false, fmt.Errorf("failed to update recipe %d: %w", r.ID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to check update result for recipe %d: %w", r.ID, err)
	}
	slog.Debug("PostgresStore UpdateRecipe finished", "id", r.ID, "updated", n > 0)
	return n > 0, nil
}

func (s *PostgresStore) GetRecipe(ctx context.Context, id int64) (*models.Recipe, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+recipeColumns+` FROM recipes WHERE id = $1`, id)
	r, err := scanRecipeRow(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		slog.Error("PostgresStore GetRecipe failed", "error", err, "id", id)
		return nil, fmt.Errorf("failed to query recipe %d: %w", id, err)
	}
	return &r, nil
}

func (s *PostgresStore) ListRecipesByOwner(ctx context.Context, ownerID string) ([]models.Recipe, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+recipeColumns+` FROM recipes WHERE owner_id = $1 ORDER BY created_at DESC, id DESC`, ownerID)
	if err != nil {
		slog.Error("PostgresStore ListRecipesByOwner query failed", "error", err, "owner", ownerID)
		return nil, fmt.Errorf("failed to query recipes for %s: %w", ownerID, err)
	}
	return collectRecipes(rows)
}

func (s *PostgresStore) SearchRecipes(ctx context.Context, term string) ([]models.Recipe, error) {
	pattern := "%" + term + "%"
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+recipeColumns+` FROM recipes
		WHERE title ILIKE $1 OR ingredients ILIKE $1 OR instructions ILIKE $1
		ORDER BY created_at DESC, id DESC`,
		pattern)
	if err != nil {
		slog.Error("PostgresStore SearchRecipes query failed", "error", err, "term", term)
		return nil, fmt.Errorf("failed to search recipes: %w", err)
	}
	return collectRecipes(rows)
}

func (s *PostgresStore) SaveBMI(ctx context.Context, actorID string, bmi float64) error {
	res, err := s.db.ExecContext(ctx, `UPDATE users SET bmi = $1 WHERE actor_id = $2`, bmi, actorID)
	if err != nil {
		slog.Error("PostgresStore SaveBMI failed", "error", err, "actor", actorID)
		return fmt.Errorf("failed to save BMI for %s: %w", actorID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check BMI save result for %s: %w", actorID, err)
	}
	if n == 0 {
		return models.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) IsFavorite(ctx context.Context, actorID string, recipeID int64) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx,
		`SELECT 1 FROM favorites WHERE actor_id = $1 AND recipe_id = $2`, actorID, recipeID).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		slog.Error("PostgresStore IsFavorite query failed", "error", err, "actor", actorID, "recipe", recipeID)
		return false, fmt.Errorf("failed to query favorite: %w", err)
	}
	return true, nil
}

func (s *PostgresStore) AddFavorite(ctx context.Context, actorID string, recipeID int64) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO favorites (actor_id, recipe_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`, actorID, recipeID)
	if err != nil {
		slog.Error("PostgresStore AddFavorite failed", "error", err, "actor", actorID, "recipe", recipeID)
		return fmt.Errorf("failed to add favorite: %w", err)
	}
	return nil
}

func (s *PostgresStore) RemoveFavorite(ctx context.Context, actorID string, recipeID int64) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM favorites WHERE actor_id = $1 AND recipe_id = $2`, actorID, recipeID)
	if err != nil {
		slog.Error("PostgresStore RemoveFavorite failed", "error", err, "actor", actorID, "recipe", recipeID)
		return fmt.Errorf("failed to remove favorite: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListFavorites(ctx context.Context, actorID string) ([]models.Recipe, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT r.id, r.title, r.ingredients, r.cooking_time, r.skill_level, r.calories, r.instructions,
		       r.voice_ref, r.photo_ref, r.owner_id, r.created_at, r.updated_at
		FROM recipes r
		JOIN favorites f ON f.recipe_id = r.id
		WHERE f.actor_id = $1
		ORDER BY r.created_at DESC, r.id DESC`, actorID)
	if err != nil {
		slog.Error("PostgresStore ListFavorites query failed", "error", err, "actor", actorID)
		return nil, fmt.Errorf("failed to query favorites for %s: %w", actorID, err)
	}
	return collectRecipes(rows)
}

// Close closes the database connection.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}
