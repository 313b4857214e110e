package handler

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"freets-backend/internal/httputil"
	"freets-backend/internal/model"
	"freets-backend/internal/service"
	"freets-backend/internal/transport/http/middleware"
)

// AlbumHandler exposes album endpoints. Reads go through the visibility
// engine inside the service; a viewer who fails the check sees a 404, never
// a 403, so album existence stays private.
type AlbumHandler struct {
	albumService *service.AlbumService
}

func NewAlbumHandler(albumService *service.AlbumService) *AlbumHandler {
	return &AlbumHandler{
		albumService: albumService,
	}
}

// Create handles POST /albums
func (h *AlbumHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	var req model.CreateAlbumRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteBadRequest(w, "Invalid request body")
		return
	}

	album, err := h.albumService.Create(r.Context(), userID, &req)
	if err != nil {
		switch {
		case errors.Is(err, model.ErrAlbumNameRequired), errors.Is(err, model.ErrAlbumNameTooLong):
			httputil.WriteBadRequest(w, err.Error())
		case errors.Is(err, model.ErrDuplicateAlbumName):
			httputil.WriteConflict(w, err.Error())
		default:
			log.Printf("[ERROR] Create album handler: %v", err)
			httputil.WriteInternalError(w, "Failed to create album")
		}
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, album)
}

// ListMine handles GET /albums
func (h *AlbumHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	albums, err := h.albumService.ListMine(r.Context(), userID)
	if err != nil {
		log.Printf("[ERROR] List albums handler: %v", err)
		httputil.WriteInternalError(w, "Failed to list albums")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"albums": albums,
	})
}

// ListVisible handles GET /albums/visible
func (h *AlbumHandler) ListVisible(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	albums, err := h.albumService.ListVisible(r.Context(), userID)
	if err != nil {
		log.Printf("[ERROR] List visible albums handler: %v", err)
		httputil.WriteInternalError(w, "Failed to list visible albums")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"albums": albums,
	})
}

// Get handles GET /albums/{id}
func (h *AlbumHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	albumID, err := parseIDParam(r, "id")
	if err != nil {
		httputil.WriteBadRequest(w, "Invalid album ID")
		return
	}

	album, err := h.albumService.Get(r.Context(), albumID, userID)
	if err != nil {
		if errors.Is(err, model.ErrAlbumNotFound) {
			httputil.WriteNotFound(w, err.Error())
			return
		}
		log.Printf("[ERROR] Get album handler: %v", err)
		httputil.WriteInternalError(w, "Failed to get album")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, album)
}

// Delete handles DELETE /albums/{id}
func (h *AlbumHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	albumID, err := parseIDParam(r, "id")
	if err != nil {
		httputil.WriteBadRequest(w, "Invalid album ID")
		return
	}

	if err := h.albumService.Delete(r.Context(), albumID, userID); err != nil {
		switch {
		case errors.Is(err, model.ErrAlbumNotFound):
			httputil.WriteNotFound(w, err.Error())
		case errors.Is(err, model.ErrNotAlbumOwner):
			httputil.WriteForbidden(w, err.Error())
		default:
			log.Printf("[ERROR] Delete album handler: %v", err)
			httputil.WriteInternalError(w, "Failed to delete album")
		}
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]string{
		"message": "Album deleted",
	})
}

// AddCircle handles POST /albums/{id}/circles
func (h *AlbumHandler) AddCircle(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	albumID, err := parseIDParam(r, "id")
	if err != nil {
		httputil.WriteBadRequest(w, "Invalid album ID")
		return
	}

	var req model.AddAlbumCircleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteBadRequest(w, "Invalid request body")
		return
	}
	if req.CircleName == "" {
		httputil.WriteBadRequest(w, "circle_name is required")
		return
	}

	if err := h.albumService.AddCircle(r.Context(), albumID, userID, req.CircleName); err != nil {
		switch {
		case errors.Is(err, model.ErrAlbumNotFound), errors.Is(err, model.ErrCircleNotFound):
			httputil.WriteNotFound(w, err.Error())
		case errors.Is(err, model.ErrNotAlbumOwner), errors.Is(err, model.ErrNotCircleOwner):
			httputil.WriteForbidden(w, err.Error())
		default:
			log.Printf("[ERROR] Add album circle handler: %v", err)
			httputil.WriteInternalError(w, "Failed to link circle")
		}
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]string{
		"message": "Circle linked to album",
	})
}

// RemoveCircle handles DELETE /albums/{id}/circles/{name}
func (h *AlbumHandler) RemoveCircle(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	albumID, err := parseIDParam(r, "id")
	if err != nil {
		httputil.WriteBadRequest(w, "Invalid album ID")
		return
	}

	circleName := chi.URLParam(r, "name")
	if circleName == "" {
		httputil.WriteBadRequest(w, "circle name is required")
		return
	}

	if err := h.albumService.RemoveCircle(r.Context(), albumID, userID, circleName); err != nil {
		switch {
		case errors.Is(err, model.ErrAlbumNotFound), errors.Is(err, model.ErrCircleNotFound):
			httputil.WriteNotFound(w, err.Error())
		case errors.Is(err, model.ErrNotAlbumOwner):
			httputil.WriteForbidden(w, err.Error())
		default:
			log.Printf("[ERROR] Remove album circle handler: %v", err)
			httputil.WriteInternalError(w, "Failed to unlink circle")
		}
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]string{
		"message": "Circle unlinked from album",
	})
}

// AddFreet handles POST /albums/{id}/freets
func (h *AlbumHandler) AddFreet(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	albumID, err := parseIDParam(r, "id")
	if err != nil {
		httputil.WriteBadRequest(w, "Invalid album ID")
		return
	}

	var req model.AddAlbumFreetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteBadRequest(w, "Invalid request body")
		return
	}
	if req.FreetID <= 0 {
		httputil.WriteBadRequest(w, "freet_id is required")
		return
	}

	if err := h.albumService.AddFreet(r.Context(), albumID, userID, req.FreetID); err != nil {
		switch {
		case errors.Is(err, model.ErrAlbumNotFound), errors.Is(err, model.ErrFreetNotFound):
			httputil.WriteNotFound(w, err.Error())
		case errors.Is(err, model.ErrNotAlbumOwner):
			httputil.WriteForbidden(w, err.Error())
		default:
			log.Printf("[ERROR] Add album freet handler: %v", err)
			httputil.WriteInternalError(w, "Failed to add freet to album")
		}
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]string{
		"message": "Freet added to album",
	})
}

// RemoveFreet handles DELETE /albums/{id}/freets/{freetID}
func (h *AlbumHandler) RemoveFreet(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	albumID, err := parseIDParam(r, "id")
	if err != nil {
		httputil.WriteBadRequest(w, "Invalid album ID")
		return
	}

	freetID, err := parseIDParam(r, "freetID")
	if err != nil {
		httputil.WriteBadRequest(w, "Invalid freet ID")
		return
	}

	if err := h.albumService.RemoveFreet(r.Context(), albumID, userID, freetID); err != nil {
		switch {
		case errors.Is(err, model.ErrAlbumNotFound):
			httputil.WriteNotFound(w, err.Error())
		case errors.Is(err, model.ErrNotAlbumOwner):
			httputil.WriteForbidden(w, err.Error())
		default:
			log.Printf("[ERROR] Remove album freet handler: %v", err)
			httputil.WriteInternalError(w, "Failed to remove freet from album")
		}
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]string{
		"message": "Freet removed from album",
	})
}

// ListCircles handles GET /albums/{id}/circles
// Owner-only: lists the circles linked to the album.
func (h *AlbumHandler) ListCircles(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	albumID, err := parseIDParam(r, "id")
	if err != nil {
		httputil.WriteBadRequest(w, "Invalid album ID")
		return
	}

	circles, err := h.albumService.ListCircles(r.Context(), albumID, userID)
	if err != nil {
		switch {
		case errors.Is(err, model.ErrAlbumNotFound):
			httputil.WriteNotFound(w, err.Error())
		case errors.Is(err, model.ErrNotAlbumOwner):
			httputil.WriteForbidden(w, err.Error())
		default:
			log.Printf("[ERROR] List album circles handler: %v", err)
			httputil.WriteInternalError(w, "Failed to list album circles")
		}
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"circles": circles,
	})
}

// ListViewers handles GET /albums/{id}/viewers
// Owner-only: resolves the album's live viewer set.
func (h *AlbumHandler) ListViewers(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	albumID, err := parseIDParam(r, "id")
	if err != nil {
		httputil.WriteBadRequest(w, "Invalid album ID")
		return
	}

	viewers, err := h.albumService.ListViewers(r.Context(), albumID, userID)
	if err != nil {
		switch {
		case errors.Is(err, model.ErrAlbumNotFound):
			httputil.WriteNotFound(w, err.Error())
		case errors.Is(err, model.ErrNotAlbumOwner):
			httputil.WriteForbidden(w, err.Error())
		default:
			log.Printf("[ERROR] List album viewers handler: %v", err)
			httputil.WriteInternalError(w, "Failed to list viewers")
		}
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"viewers": viewers,
	})
}

// GetFreets handles GET /albums/{id}/freets
func (h *AlbumHandler) GetFreets(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	albumID, err := parseIDParam(r, "id")
	if err != nil {
		httputil.WriteBadRequest(w, "Invalid album ID")
		return
	}

	freets, err := h.albumService.GetFreets(r.Context(), albumID, userID)
	if err != nil {
		if errors.Is(err, model.ErrAlbumNotFound) {
			httputil.WriteNotFound(w, err.Error())
			return
		}
		log.Printf("[ERROR] Get album freets handler: %v", err)
		httputil.WriteInternalError(w, "Failed to get album freets")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"freets": freets,
	})
}
