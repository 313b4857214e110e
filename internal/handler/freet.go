package handler

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"freets-backend/internal/httputil"
	"freets-backend/internal/model"
	"freets-backend/internal/service"
	"freets-backend/internal/transport/http/middleware"
)

type FreetHandler struct {
	freetService *service.FreetService
}

func NewFreetHandler(freetService *service.FreetService) *FreetHandler {
	return &FreetHandler{
		freetService: freetService,
	}
}

// Create handles POST /freets
// Creates a new freet for the authenticated user.
func (h *FreetHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	var req model.CreateFreetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteBadRequest(w, "Invalid request body")
		return
	}

	freet, err := h.freetService.Create(r.Context(), userID, req)
	if err != nil {
		switch {
		case errors.Is(err, model.ErrEmptyContent):
			httputil.WriteBadRequest(w, "Freet content is required")
		case errors.Is(err, model.ErrContentTooLong):
			httputil.WriteBadRequest(w, "Freet content too long (max 280 characters)")
		case errors.Is(err, model.ErrTooManyImages):
			httputil.WriteBadRequest(w, "Too many images (max 4)")
		default:
			log.Printf("[ERROR] Create freet handler: user=%d err=%v", userID, err)
			httputil.WriteInternalError(w, "Failed to create freet")
		}
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, freet)
}

// GetByID handles GET /freets/:id
// Returns a single freet with full details.
func (h *FreetHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	freetIDStr := chi.URLParam(r, "id")
	freetID, err := strconv.ParseInt(freetIDStr, 10, 64)
	if err != nil {
		httputil.WriteBadRequest(w, "Invalid freet ID")
		return
	}

	// Get viewer ID if authenticated (for like status)
	var viewerID *int64
	if id, ok := middleware.GetUserIDFromContext(r.Context()); ok {
		viewerID = &id
	}

	freet, err := h.freetService.GetByID(r.Context(), freetID, viewerID)
	if err != nil {
		if errors.Is(err, model.ErrFreetNotFound) {
			httputil.WriteNotFound(w, "Freet not found")
			return
		}
		log.Printf("[ERROR] Get freet handler: freet=%d err=%v", freetID, err)
		httputil.WriteInternalError(w, "Failed to get freet")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, freet)
}

// Delete handles DELETE /freets/:id
// Soft-deletes a freet (only the author can delete).
func (h *FreetHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	freetIDStr := chi.URLParam(r, "id")
	freetID, err := strconv.ParseInt(freetIDStr, 10, 64)
	if err != nil {
		httputil.WriteBadRequest(w, "Invalid freet ID")
		return
	}

	err = h.freetService.Delete(r.Context(), freetID, userID)
	if err != nil {
		switch {
		case errors.Is(err, model.ErrFreetNotFound):
			httputil.WriteNotFound(w, "Freet not found")
		case errors.Is(err, model.ErrNotFreetAuthor):
			httputil.WriteForbidden(w, "You can only delete your own freets")
		default:
			log.Printf("[ERROR] Delete freet handler: user=%d freet=%d err=%v", userID, freetID, err)
			httputil.WriteInternalError(w, "Failed to delete freet")
		}
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]string{
		"message": "Freet deleted successfully",
	})
}

// GetUserFreets handles GET /users/:id/freets
// Returns paginated freets for a user's profile.
func (h *FreetHandler) GetUserFreets(w http.ResponseWriter, r *http.Request) {
	userIDStr := chi.URLParam(r, "id")
	userID, err := strconv.ParseInt(userIDStr, 10, 64)
	if err != nil {
		httputil.WriteBadRequest(w, "Invalid user ID")
		return
	}

	var cursor *string
	if c := r.URL.Query().Get("cursor"); c != "" {
		cursor = &c
	}

	limit := 20 // default
	if l := r.URL.Query().Get("limit"); l != "" {
		parsed, err := strconv.Atoi(l)
		if err != nil || parsed <= 0 {
			httputil.WriteBadRequest(w, "Invalid limit parameter")
			return
		}
		limit = parsed
	}

	var viewerID *int64
	if id, ok := middleware.GetUserIDFromContext(r.Context()); ok {
		viewerID = &id
	}

	freets, err := h.freetService.GetUserFreets(r.Context(), userID, cursor, limit, viewerID)
	if err != nil {
		log.Printf("[ERROR] Get user freets handler: user=%d err=%v", userID, err)
		httputil.WriteInternalError(w, "Failed to get user freets")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, freets)
}

// Like handles POST /freets/:id/like
func (h *FreetHandler) Like(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	freetIDStr := chi.URLParam(r, "id")
	freetID, err := strconv.ParseInt(freetIDStr, 10, 64)
	if err != nil {
		httputil.WriteBadRequest(w, "Invalid freet ID")
		return
	}

	if err := h.freetService.Like(r.Context(), freetID, userID); err != nil {
		switch {
		case errors.Is(err, model.ErrFreetNotFound):
			httputil.WriteNotFound(w, "Freet not found")
		case errors.Is(err, model.ErrAlreadyLiked):
			httputil.WriteConflict(w, "Freet already liked")
		default:
			log.Printf("[ERROR] Like freet handler: user=%d freet=%d err=%v", userID, freetID, err)
			httputil.WriteInternalError(w, "Failed to like freet")
		}
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]string{
		"message": "Freet liked",
	})
}

// Unlike handles DELETE /freets/:id/like
func (h *FreetHandler) Unlike(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	freetIDStr := chi.URLParam(r, "id")
	freetID, err := strconv.ParseInt(freetIDStr, 10, 64)
	if err != nil {
		httputil.WriteBadRequest(w, "Invalid freet ID")
		return
	}

	if err := h.freetService.Unlike(r.Context(), freetID, userID); err != nil {
		switch {
		case errors.Is(err, model.ErrFreetNotFound):
			httputil.WriteNotFound(w, "Freet not found")
		case errors.Is(err, model.ErrNotLiked):
			httputil.WriteConflict(w, "Freet not liked")
		default:
			log.Printf("[ERROR] Unlike freet handler: user=%d freet=%d err=%v", userID, freetID, err)
			httputil.WriteInternalError(w, "Failed to unlike freet")
		}
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]string{
		"message": "Freet unliked",
	})
}

// GetLikers handles GET /freets/:id/likes
// Returns paginated users who liked the freet.
func (h *FreetHandler) GetLikers(w http.ResponseWriter, r *http.Request) {
	freetIDStr := chi.URLParam(r, "id")
	freetID, err := strconv.ParseInt(freetIDStr, 10, 64)
	if err != nil {
		httputil.WriteBadRequest(w, "Invalid freet ID")
		return
	}

	var cursor *string
	if c := r.URL.Query().Get("cursor"); c != "" {
		cursor = &c
	}

	limit := 20 // default
	if l := r.URL.Query().Get("limit"); l != "" {
		parsed, err := strconv.Atoi(l)
		if err != nil || parsed <= 0 {
			httputil.WriteBadRequest(w, "Invalid limit parameter")
			return
		}
		limit = parsed
	}

	likers, err := h.freetService.GetFreetLikers(r.Context(), freetID, cursor, limit)
	if err != nil {
		if errors.Is(err, model.ErrFreetNotFound) {
			httputil.WriteNotFound(w, "Freet not found")
			return
		}
		log.Printf("[ERROR] Get freet likers handler: freet=%d err=%v", freetID, err)
		httputil.WriteInternalError(w, "Failed to get likers")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, likers)
}
