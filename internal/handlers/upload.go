package handlers

import (
	"net/http"
	"path/filepath"
	"strings"

	"github.com/AnshRaj112/leadvault-backend/internal/services"
	"go.uber.org/zap"
)

const maxAvatarBytes = 5 << 20

var avatarExtensions = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".gif": true, ".webp": true,
}

type UploadResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	URL     string `json:"url,omitempty"`
}

// UploadAvatar stores a contact avatar and returns its URL.
func (h *Handler) UploadAvatar(w http.ResponseWriter, r *http.Request) {
	if h.Uploader == nil {
		h.writeError(w, r, services.ErrUploadUnavailable)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxAvatarBytes+(1<<20))
	if err := r.ParseMultipartForm(maxAvatarBytes); err != nil {
		h.writeMessage(w, http.StatusBadRequest, "Failed to parse form or file too large (max 5MB)")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		h.writeMessage(w, http.StatusBadRequest, "No file provided")
		return
	}
	defer file.Close()

	if header.Size > maxAvatarBytes {
		h.writeMessage(w, http.StatusRequestEntityTooLarge, "File too large (max 5MB)")
		return
	}
	if !avatarExtensions[strings.ToLower(filepath.Ext(header.Filename))] {
		h.writeMessage(w, http.StatusBadRequest, "Only jpg, png, gif and webp images are allowed")
		return
	}

	url, err := h.Uploader.UploadAvatar(r.Context(), file, header.Filename)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.Logger.Info("avatar uploaded", zap.String("filename", header.Filename), zap.Int64("size", header.Size))
	writeJSON(w, http.StatusOK, UploadResponse{
		Success: true,
		Message: "File uploaded successfully",
		URL:     url,
	})
}
