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

// CircleHandler exposes circle management endpoints. Every endpoint requires
// authentication; circles are visible only to their owner.
type CircleHandler struct {
	circleService *service.CircleService
}

func NewCircleHandler(circleService *service.CircleService) *CircleHandler {
	return &CircleHandler{
		circleService: circleService,
	}
}

// Create handles POST /circles
func (h *CircleHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	var req model.CreateCircleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteBadRequest(w, "Invalid request body")
		return
	}

	circle, err := h.circleService.Create(r.Context(), userID, &req)
	if err != nil {
		switch {
		case errors.Is(err, model.ErrCircleNameRequired), errors.Is(err, model.ErrCircleNameTooLong):
			httputil.WriteBadRequest(w, err.Error())
		case errors.Is(err, model.ErrDuplicateCircleName):
			httputil.WriteConflict(w, err.Error())
		default:
			log.Printf("[ERROR] Create circle handler: %v", err)
			httputil.WriteInternalError(w, "Failed to create circle")
		}
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, circle)
}

// List handles GET /circles
func (h *CircleHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	circles, err := h.circleService.List(r.Context(), userID)
	if err != nil {
		log.Printf("[ERROR] List circles handler: %v", err)
		httputil.WriteInternalError(w, "Failed to list circles")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"circles": circles,
	})
}

// Delete handles DELETE /circles/{id}
func (h *CircleHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	circleID, err := parseIDParam(r, "id")
	if err != nil {
		httputil.WriteBadRequest(w, "Invalid circle ID")
		return
	}

	if err := h.circleService.Delete(r.Context(), circleID, userID); err != nil {
		switch {
		case errors.Is(err, model.ErrCircleNotFound):
			httputil.WriteNotFound(w, err.Error())
		case errors.Is(err, model.ErrNotCircleOwner):
			httputil.WriteForbidden(w, err.Error())
		default:
			log.Printf("[ERROR] Delete circle handler: %v", err)
			httputil.WriteInternalError(w, "Failed to delete circle")
		}
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]string{
		"message": "Circle deleted",
	})
}

// GetMembers handles GET /circles/{id}/members
func (h *CircleHandler) GetMembers(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	circleID, err := parseIDParam(r, "id")
	if err != nil {
		httputil.WriteBadRequest(w, "Invalid circle ID")
		return
	}

	members, err := h.circleService.GetMembers(r.Context(), circleID, userID)
	if err != nil {
		switch {
		case errors.Is(err, model.ErrCircleNotFound):
			httputil.WriteNotFound(w, err.Error())
		case errors.Is(err, model.ErrNotCircleOwner):
			httputil.WriteForbidden(w, err.Error())
		default:
			log.Printf("[ERROR] Get circle members handler: %v", err)
			httputil.WriteInternalError(w, "Failed to get circle members")
		}
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"members": members,
	})
}

// AddMember handles POST /circles/{id}/members
func (h *CircleHandler) AddMember(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	circleID, err := parseIDParam(r, "id")
	if err != nil {
		httputil.WriteBadRequest(w, "Invalid circle ID")
		return
	}

	var req model.AddCircleMemberRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteBadRequest(w, "Invalid request body")
		return
	}
	if req.Username == "" {
		httputil.WriteBadRequest(w, "username is required")
		return
	}

	if err := h.circleService.AddMember(r.Context(), circleID, userID, &req); err != nil {
		switch {
		case errors.Is(err, model.ErrCircleNotFound), errors.Is(err, model.ErrUserNotFound):
			httputil.WriteNotFound(w, err.Error())
		case errors.Is(err, model.ErrNotCircleOwner):
			httputil.WriteForbidden(w, err.Error())
		case errors.Is(err, model.ErrSelfMembership):
			httputil.WriteBadRequest(w, err.Error())
		default:
			log.Printf("[ERROR] Add circle member handler: %v", err)
			httputil.WriteInternalError(w, "Failed to add member")
		}
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]string{
		"message": "Member added",
	})
}

// RemoveMember handles DELETE /circles/{id}/members/{username}
func (h *CircleHandler) RemoveMember(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	circleID, err := parseIDParam(r, "id")
	if err != nil {
		httputil.WriteBadRequest(w, "Invalid circle ID")
		return
	}

	username := chi.URLParam(r, "username")
	if username == "" {
		httputil.WriteBadRequest(w, "username is required")
		return
	}

	if err := h.circleService.RemoveMember(r.Context(), circleID, userID, username); err != nil {
		switch {
		case errors.Is(err, model.ErrCircleNotFound), errors.Is(err, model.ErrUserNotFound):
			httputil.WriteNotFound(w, err.Error())
		case errors.Is(err, model.ErrNotCircleOwner):
			httputil.WriteForbidden(w, err.Error())
		default:
			log.Printf("[ERROR] Remove circle member handler: %v", err)
			httputil.WriteInternalError(w, "Failed to remove member")
		}
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]string{
		"message": "Member removed",
	})
}

// parseIDParam parses a numeric chi URL parameter.
func parseIDParam(r *http.Request, name string) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, name), 10, 64)
}
