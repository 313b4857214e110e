package handler

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"

	"freets-backend/internal/httputil"
	"freets-backend/internal/model"
	"freets-backend/internal/service"
	"freets-backend/internal/transport/http/middleware"
)

type MediaHandler struct {
	mediaService *service.MediaService
	userService  *service.UserService
}

func NewMediaHandler(mediaService *service.MediaService, userService *service.UserService) *MediaHandler {
	return &MediaHandler{
		mediaService: mediaService,
		userService:  userService,
	}
}

// UploadAvatar handles POST /media/avatar
// Accepts a multipart upload, resizes it to 200x200 and stores it as the
// authenticated user's avatar.
func (h *MediaHandler) UploadAvatar(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	maxFormSize := int64(model.MaxAvatarSizeBytes) + 1024*1024 // allow form overhead
	r.Body = http.MaxBytesReader(w, r.Body, maxFormSize)
	if err := r.ParseMultipartForm(maxFormSize); err != nil {
		if errors.Is(err, http.ErrNotMultipart) {
			httputil.WriteBadRequest(w, "Content-Type must be multipart/form-data")
			return
		}
		if strings.Contains(err.Error(), "request body too large") {
			httputil.WriteBadRequestWithCode(w, model.CodeFileTooLarge, "Avatar exceeds 5MB limit")
			return
		}
		httputil.WriteBadRequest(w, "Invalid form data")
		return
	}

	file, header, err := r.FormFile("avatar")
	if err != nil {
		httputil.WriteBadRequest(w, "avatar file is required")
		return
	}
	defer file.Close()

	// Remember the current avatar key so the old object can be cleaned up
	// after a successful replacement.
	var oldKey *string
	if current, err := h.userService.GetByID(r.Context(), userID); err == nil {
		oldKey = current.AvatarKey
	}

	upload, err := h.mediaService.UploadAvatar(r.Context(), file, header)
	if err != nil {
		switch {
		case errors.Is(err, model.ErrFileTooLarge):
			httputil.WriteBadRequestWithCode(w, model.CodeFileTooLarge, "Avatar exceeds 5MB limit")
		case errors.Is(err, model.ErrInvalidImageType):
			httputil.WriteBadRequestWithCode(w, model.CodeInvalidImageType, "Unsupported image type. Allowed: jpeg, png, gif, webp")
		default:
			log.Printf("[ERROR] Upload avatar handler: user=%d err=%v", userID, err)
			httputil.WriteInternalError(w, "Failed to upload avatar")
		}
		return
	}

	if err := h.userService.UpdateAvatar(r.Context(), userID, upload.URL, upload.Key); err != nil {
		log.Printf("[ERROR] Update avatar handler: user=%d err=%v", userID, err)
		httputil.WriteInternalError(w, "Failed to save avatar")
		return
	}

	// Best-effort cleanup of the replaced avatar object.
	if oldKey != nil && *oldKey != "" && *oldKey != upload.Key {
		if err := h.mediaService.DeleteObject(r.Context(), *oldKey); err != nil {
			log.Printf("[MediaHandler] Failed to delete old avatar %s: %v", *oldKey, err)
		}
	}

	httputil.WriteJSON(w, http.StatusOK, upload)
}

// PresignFreetUpload handles POST /media/freets/presign
// Returns a presigned URL for uploading freet images directly to R2.
func (h *MediaHandler) PresignFreetUpload(w http.ResponseWriter, r *http.Request) {
	_, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1MB is plenty for JSON
	var req model.PresignFreetUploadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteBadRequest(w, "Invalid request body")
		return
	}

	req.ContentType = strings.TrimSpace(req.ContentType)
	if req.ContentType == "" {
		httputil.WriteBadRequest(w, "content_type is required")
		return
	}
	if req.FileSize > 0 && req.FileSize > model.MaxFreetImageSize {
		httputil.WriteBadRequestWithCode(w, model.CodeFileTooLarge, "Image exceeds 10MB limit")
		return
	}

	res, err := h.mediaService.PresignFreetUpload(r.Context(), req.ContentType)
	if err != nil {
		switch {
		case errors.Is(err, model.ErrInvalidImageType):
			httputil.WriteBadRequestWithCode(w, model.CodeInvalidImageType, "Unsupported image type. Allowed: jpeg, png, gif, webp")
		default:
			log.Printf("[ERROR] Presign freet upload handler: err=%v", err)
			httputil.WriteInternalError(w, "Failed to create upload URL")
		}
		return
	}

	httputil.WriteJSON(w, http.StatusOK, res)
}
