package handler

import (
	"encoding/json"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/nenoreno/jakes-bath-house/internal/middleware"
	"github.com/nenoreno/jakes-bath-house/internal/model"
)

const maxPhotoSize = 10 << 20

var photoExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
	"image/gif":  ".gif",
}

// UploadPhoto принимает multipart-загрузку фотографии питомца.
// Файл сохраняется в каталог загрузок, метаданные в базу.
func (h *Handler) UploadPhoto(w http.ResponseWriter, r *http.Request) {
	session, ok := middleware.GetSessionFromContext(r.Context())
	if !ok {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	petID, err := pathID(r, "id")
	if err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	if err := r.ParseMultipartForm(maxPhotoSize); err != nil {
		http.Error(w, "file too large", http.StatusRequestEntityTooLarge)
		return
	}

	file, header, err := r.FormFile("photo")
	if err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	ext, ok := photoExtensions[contentType]
	if !ok {
		http.Error(w, "unsupported file type", http.StatusUnsupportedMediaType)
		return
	}

	name := uuid.NewString() + ext
	dst := filepath.Join(h.uploadsDir, name)

	out, err := os.Create(dst)
	if err != nil {
		h.logger.Error("create upload file", zap.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	size, err := io.Copy(out, file)
	out.Close()
	if err != nil {
		os.Remove(dst)
		h.logger.Error("write upload file", zap.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	photo := model.PetPhoto{
		PetID:    petID,
		PhotoURL: "/uploads/" + name,
		Caption:  r.FormValue("caption"),
		FileSize: &size,
		FileType: contentType,
	}

	if photoType := r.FormValue("photo_type"); photoType != "" {
		photo.PhotoType = photoType
	} else {
		photo.PhotoType = "general"
	}

	if v := r.FormValue("appointment_id"); v != "" {
		appointmentID, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			os.Remove(dst)
			http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
			return
		}
		photo.AppointmentID = &appointmentID
	}

	id, err := h.service.AddPhoto(r.Context(), session.UserID, photo)
	if err != nil {
		os.Remove(dst)
		h.respondError(w, err, "add photo error")
		return
	}

	photo.ID = id
	h.writeJSON(w, http.StatusCreated, photo)
}

// GetPhotos возвращает фотографии питомцев текущего пользователя.
func (h *Handler) GetPhotos(w http.ResponseWriter, r *http.Request) {
	_, id, ok := h.sessionAndOwnID(w, r)
	if !ok {
		return
	}

	var petID int64
	if v := r.URL.Query().Get("pet_id"); v != "" {
		parsed, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
			return
		}
		petID = parsed
	}

	photos, err := h.service.GetPhotos(r.Context(), id, petID, r.URL.Query().Get("photo_type"))
	if err != nil {
		h.respondError(w, err, "get photos error")
		return
	}

	if photos == nil {
		photos = []model.PetPhoto{}
	}
	h.writeJSON(w, http.StatusOK, photos)
}

// DeletePhoto удаляет фотографию вместе с файлом. Доступно только владельцу.
func (h *Handler) DeletePhoto(w http.ResponseWriter, r *http.Request) {
	session, ok := middleware.GetSessionFromContext(r.Context())
	if !ok {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	id, err := pathID(r, "id")
	if err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	photoURL, err := h.service.DeletePhoto(r.Context(), session.UserID, id)
	if err != nil {
		h.respondError(w, err, "delete photo error")
		return
	}

	if name := filepath.Base(photoURL); name != "" && name != "." {
		if err := os.Remove(filepath.Join(h.uploadsDir, name)); err != nil && !os.IsNotExist(err) {
			h.logger.Warn("remove photo file", zap.Error(err))
		}
	}

	w.WriteHeader(http.StatusNoContent)
}

// ToggleLike ставит или снимает лайк текущего пользователя.
func (h *Handler) ToggleLike(w http.ResponseWriter, r *http.Request) {
	session, ok := middleware.GetSessionFromContext(r.Context())
	if !ok {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	id, err := pathID(r, "id")
	if err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	action, count, err := h.service.ToggleLike(r.Context(), id, session.UserID)
	if err != nil {
		h.respondError(w, err, "toggle like error")
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]any{
		"action":     action,
		"like_count": count,
	})
}

type commentRequest struct {
	Text string `json:"comment_text"`
}

// AddComment добавляет комментарий к фотографии.
func (h *Handler) AddComment(w http.ResponseWriter, r *http.Request) {
	session, ok := middleware.GetSessionFromContext(r.Context())
	if !ok {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	id, err := pathID(r, "id")
	if err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	var req commentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	if req.Text == "" {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	commentID, err := h.service.AddComment(r.Context(), model.PhotoComment{
		PhotoID: id,
		UserID:  session.UserID,
		Text:    req.Text,
	})
	if err != nil {
		h.respondError(w, err, "add comment error")
		return
	}

	h.writeJSON(w, http.StatusCreated, map[string]int64{"id": commentID})
}

// GetComments возвращает комментарии к фотографии.
func (h *Handler) GetComments(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	comments, err := h.service.GetComments(r.Context(), id)
	if err != nil {
		h.respondError(w, err, "get comments error")
		return
	}

	if comments == nil {
		comments = []model.PhotoComment{}
	}
	h.writeJSON(w, http.StatusOK, comments)
}
