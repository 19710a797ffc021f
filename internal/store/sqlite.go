// Package store provides record storage backends for RecipeDesk.
//
// This file implements the SQLite-backed store.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	_ "embed"

	_ "github.com/mattn/go-sqlite3"

	"github.com/recipedesk/RecipeDesk/internal/models"
)

// Constants for SQLite store configuration
const (
	// DefaultDirPermissions defines the default permissions for database directories
	DefaultDirPermissions = 0755
)

//go:embed migrations_sqlite.sql
var sqliteMigrations string

type SQLiteStore struct {
	db     *sql.DB
	admins map[string]struct{}
}

// NewSQLiteStore creates a new SQLite store with the given DSN.
// The DSN should be a file path to the SQLite database file.
// If the directory doesn't exist, it will be created.
func NewSQLiteStore(opts ...Option) (*SQLiteStore, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	slog.Debug("NewSQLiteStore invoked", "DSN_set", cfg.DSN != "", "admins", len(cfg.AdminIDs))

	dsn := cfg.DSN
	if dsn == "" {
		slog.Error("SQLiteStore DSN not set")
		return nil, fmt.Errorf("database DSN not set")
	}

	// Ensure the directory exists
	dir := filepath.Dir(dsn)
	if err := os.MkdirAll(dir, DefaultDirPermissions); err != nil {
		slog.Error("Failed to create database directory", "error", err, "dir", dir)
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		slog.Error("Failed to open SQLite connection", "error", err)
		return nil, err
	}

	if err := db.Ping(); err != nil {
		slog.Error("SQLite ping failed", "error", err)
		return nil, err
	}

	slog.Debug("Running SQLite migrations")
	if _, err := db.Exec(sqliteMigrations); err != nil {
		slog.Error("Failed to run migrations", "error", err)
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	slog.Debug("SQLite migrations applied successfully")

	return &SQLiteStore{db: db, admins: adminSet(cfg.AdminIDs)}, nil
}

func (s *SQLiteStore) IsRegistered(ctx context.Context, actorID string) (bool, error) {
	var active bool
	err := s.db.QueryRowContext(ctx, `SELECT active FROM users WHERE actor_id = ?`, actorID).Scan(&active)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		slog.Error("SQLiteStore IsRegistered query failed", "error", err, "actor", actorID)
		return false, fmt.Errorf("failed to query registration for %s: %w", actorID, err)
	}
	return active, nil
}

func (s *SQLiteStore) RegisterUser(ctx context.Context, p models.UserProfile) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (actor_id, username, display_name, active)
		VALUES (?, ?, ?, 1)
		ON CONFLICT(actor_id) DO UPDATE SET
			username = excluded.username,
			display_name = excluded.display_name,
			active = 1,
			ban_reason = NULL`,
		p.ActorID, p.Username, nilIfEmpty(p.DisplayName))
	if err != nil {
		slog.Error("SQLiteStore RegisterUser failed", "error", err, "actor", p.ActorID)
		return fmt.Errorf("failed to register user %s: %w", p.ActorID, err)
	}
	slog.Debug("SQLiteStore RegisterUser succeeded", "actor", p.ActorID, "username", p.Username)
	return nil
}

func (s *SQLiteStore) IsAdmin(actorID string) bool {
	_, ok := s.admins[actorID]
	return ok
}

func (s *SQLiteStore) SetBanned(ctx context.Context, actorID, reason string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE users SET active = 0, ban_reason = ? WHERE actor_id = ?`,
		nilIfEmpty(reason), actorID)
	if err != nil {
		slog.Error("SQLiteStore SetBanned failed", "error", err, "actor", actorID)
		return fmt.Errorf("failed to ban user %s: %w", actorID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check ban result for %s: %w", actorID, err)
	}
	if n == 0 {
		return models.ErrNotFound
	}
	slog.Debug("SQLiteStore SetBanned succeeded", "actor", actorID)
	return nil
}

func (s *SQLiteStore) GetProfile(ctx context.Context, actorID string) (*models.UserProfile, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT actor_id, username, display_name, active, ban_reason, bmi, joined_at FROM users WHERE actor_id = ?`,
		actorID)
	p, err := scanProfile(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		slog.Error("SQLiteStore GetProfile failed", "error", err, "actor", actorID)
		return nil, fmt.Errorf("failed to query profile for %s: %w", actorID, err)
	}
	return &p, nil
}

func (s *SQLiteStore) SaveRecipe(ctx context.Context, r models.Recipe) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO recipes (title, ingredients, cooking_time, skill_level, calories, instructions, voice_ref, photo_ref, owner_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.Title, r.Ingredients, r.CookingTime, r.SkillLevel, r.Calories, r.Instructions,
		nilIfEmpty(r.VoiceRef), nilIfEmpty(r.PhotoRef), r.OwnerID)
	if err != nil {
		slog.Error("SQLiteStore SaveRecipe failed", "error", err, "owner", r.OwnerID)
		return 0, fmt.Errorf("failed to insert recipe for %s: %w", r.OwnerID, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read recipe id: %w", err)
	}
	slog.Debug("SQLiteStore SaveRecipe succeeded", "id", id, "owner", r.OwnerID)
	return id, nil
}

func (s *SQLiteStore) UpdateRecipe(ctx context.Context, r models.Recipe) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE recipes SET
			title = ?, ingredients = ?, cooking_time = ?, skill_level = ?, calories = ?,
			instructions = ?, voice_ref = ?, photo_ref = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND owner_id = ?`,
		r.Title, r.Ingredients, r.CookingTime, r.SkillLevel, r.Calories, r.Instructions,
		nilIfEmpty(r.VoiceRef), nilIfEmpty(r.PhotoRef), r.ID, r.OwnerID)
	if err != nil {
		slog.Error("SQLiteStore UpdateRecipe failed", "error", err, "id", r.ID)
		return false, fmt.Errorf("failed to update recipe %d: %w", r.ID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to check update result for recipe %d: %w", r.ID, err)
	}
	slog.Debug("SQLiteStore UpdateRecipe finished", "id", r.ID, "updated", n > 0)
	return n > 0, nil
}

func (s *SQLiteStore) GetRecipe(ctx context.Context, id int64) (*models.Recipe, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+recipeColumns+` FROM recipes WHERE id = ?`, id)
	r, err := scanRecipeRow(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		slog.Error("SQLiteStore GetRecipe failed", "error", err, "id", id)
		return nil, fmt.Errorf("failed to query recipe %d: %w", id, err)
	}
	return &r, nil
}

func (s *SQLiteStore) ListRecipesByOwner(ctx context.Context, ownerID string) ([]models.Recipe, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+recipeColumns+` FROM recipes WHERE owner_id = ? ORDER BY created_at DESC, id DESC`, ownerID)
	if err != nil {
		slog.Error("SQLiteStore ListRecipesByOwner query failed", "error", err, "owner", ownerID)
		return nil, fmt.Errorf("failed to query recipes for %s: %w", ownerID, err)
	}
	return collectRecipes(rows)
}

func (s *SQLiteStore) SearchRecipes(ctx context.Context, term string) ([]models.Recipe, error) {
	pattern := "%" + term + "%"
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+recipeColumns+` FROM recipes
		WHERE LOWER(title) LIKE LOWER(?) OR LOWER(ingredients) LIKE LOWER(?) OR LOWER(instructions) LIKE LOWER(?)
		ORDER BY created_at DESC, id DESC`,
		pattern, pattern, pattern)
	if err != nil {
		slog.Error("SQLiteStore SearchRecipes query failed", "error", err, "term", term)
		return nil, fmt.Errorf("failed to search recipes: %w", err)
	}
	return collectRecipes(rows)
}

func (s *SQLiteStore) SaveBMI(ctx context.Context, actorID string, bmi float64) error {
	res, err := s.db.ExecContext(ctx, `UPDATE users SET bmi = ? WHERE actor_id = ?`, bmi, actorID)
	if err != nil {
		slog.Error("SQLiteStore SaveBMI failed", "error", err, "actor", actorID)
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

func (s *SQLiteStore) IsFavorite(ctx context.Context, actorID string, recipeID int64) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx,
		`SELECT 1 FROM favorites WHERE actor_id = ? AND recipe_id = ?`, actorID, recipeID).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		slog.Error("SQLiteStore IsFavorite query failed", "error", err, "actor", actorID, "recipe", recipeID)
		return false, fmt.Errorf("failed to query favorite: %w", err)
	}
	return true, nil
}

func (s *SQLiteStore) AddFavorite(ctx context.Context, actorID string, recipeID int64) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO favorites (actor_id, recipe_id) VALUES (?, ?)`, actorID, recipeID)
	if err != nil {
		slog.Error("SQLiteStore AddFavorite failed", "error", err, "actor", actorID, "recipe", recipeID)
		return fmt.Errorf("failed to add favorite: %w", err)
	}
	return nil
}

func (s *SQLiteStore) RemoveFavorite(ctx context.Context, actorID string, recipeID int64) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM favorites WHERE actor_id = ? AND recipe_id = ?`, actorID, recipeID)
	if err != nil {
		slog.Error("SQLiteStore RemoveFavorite failed", "error", err, "actor", actorID, "recipe", recipeID)
		return fmt.Errorf("failed to remove favorite: %w", err)
	}
	return nil
}

func (s *SQLiteStore) ListFavorites(ctx context.Context, actorID string) ([]models.Recipe, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT r.id, r.title, r.ingredients, r.cooking_time, r.skill_level, r.calories, r.instructions,
		       r.voice_ref, r.photo_ref, r.owner_id, r.created_at, r.updated_at
		FROM recipes r
		JOIN favorites f ON f.recipe_id = r.id
		WHERE f.actor_id = ?
		ORDER BY r.created_at DESC, r.id DESC`, actorID)
	if err != nil {
		slog.Error("SQLiteStore ListFavorites query failed", "error", err, "actor", actorID)
		return nil, fmt.Errorf("failed to query favorites for %s: %w", actorID, err)
	}
	return collectRecipes(rows)
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
