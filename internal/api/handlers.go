package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/recipedesk/RecipeDesk/internal/models"
)

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSONResponse(w, http.StatusOK, models.Success(map[string]string{"status": "healthy"}))
}

func (s *Server) recipesHandler(w http.ResponseWriter, r *http.Request) {
	owner := r.URL.Query().Get("owner")
	if owner == "" {
		writeJSONResponse(w, http.StatusBadRequest, models.Error("owner query parameter is required"))
		return
	}

	recipes, err := s.records.ListRecipesByOwner(r.Context(), owner)
	if err != nil {
		slog.Error("Server.recipesHandler: listing failed", "error", err, "owner", owner)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to list recipes"))
		return
	}
	writeJSONResponse(w, http.StatusOK, models.Success(recipes))
}

func (s *Server) recipeHandler(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Invalid recipe id"))
		return
	}

	recipe, err := s.records.GetRecipe(r.Context(), id)
	if err != nil {
		slog.Error("Server.recipeHandler: lookup failed", "error", err, "id", id)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to load recipe"))
		return
	}
	if recipe == nil {
		writeJSONResponse(w, http.StatusNotFound, models.Error("Recipe not found"))
		return
	}
	writeJSONResponse(w, http.StatusOK, models.Success(recipe))
}

func (s *Server) statsHandler(w http.ResponseWriter, r *http.Request) {
	active, err := s.sessions.Count(r.Context())
	if err != nil {
		slog.Error("Server.statsHandler: session count failed", "error", err)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to collect stats"))
		return
	}

	writeJSONResponse(w, http.StatusOK, models.Success(map[string]any{
		"active_sessions": active,
		"uptime_seconds":  int64(time.Since(s.started).Seconds()),
	}))
}

// mediaContentTypes maps stored media kinds to the content type they are
// served with.
var mediaContentTypes = map[models.MediaKind]string{
	models.MediaPhoto: "image/jpeg",
	models.MediaVoice: "audio/ogg",
}

func (s *Server) mediaHandler(w http.ResponseWriter, r *http.Request) {
	if s.media == nil {
		writeJSONResponse(w, http.StatusNotFound, models.Error("Media storage not configured"))
		return
	}

	kind := models.MediaKind(r.PathValue("kind"))
	contentType, ok := mediaContentTypes[kind]
	if !ok {
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Invalid media kind"))
		return
	}

	data, err := s.media.Resolve(kind, r.PathValue("ref"))
	if errors.Is(err, models.ErrMediaUnavailable) {
		writeJSONResponse(w, http.StatusNotFound, models.Error("Media not found"))
		return
	}
	if err != nil {
		slog.Error("Server.mediaHandler: resolve failed", "error", err, "kind", kind)
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Invalid media reference"))
		return
	}

	w.Header().Set("Content-Type", contentType)
	if _, err := w.Write(data); err != nil {
		slog.Error("Server.mediaHandler: write failed", "error", err)
	}
}
