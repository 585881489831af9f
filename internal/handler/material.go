package handler

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/classecho/classecho/internal/model"
	"github.com/classecho/classecho/internal/storage"
	"github.com/classecho/classecho/internal/store"
)

// maxUploadBytes caps a single material upload.
const maxUploadBytes = 100 << 20

type MaterialHandler struct {
	materials *store.MaterialStore
	courses   *store.CourseStore
	files     *storage.ObjectStore
	logger    *slog.Logger
}

func NewMaterialHandler(materials *store.MaterialStore, courses *store.CourseStore, files *storage.ObjectStore, logger *slog.Logger) *MaterialHandler {
	return &MaterialHandler{materials: materials, courses: courses, files: files, logger: logger}
}

var materialTypes = map[string]bool{
	model.MaterialPDF:          true,
	model.MaterialVideo:        true,
	model.MaterialDocument:     true,
	model.MaterialPresentation: true,
	model.MaterialImage:        true,
	model.MaterialOther:        true,
}

// Upload accepts a multipart form with course_id, title, type and file
// fields, stores the file in object storage and records its metadata.
func (h *MaterialHandler) Upload(w http.ResponseWriter, r *http.Request) {
	if !h.files.Enabled() {
		writeError(w, http.StatusServiceUnavailable, "file storage not configured")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	courseID, err := parseFormID(r, "course_id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid course_id")
		return
	}
	title := strings.TrimSpace(r.FormValue("title"))
	if title == "" {
		writeError(w, http.StatusBadRequest, "title is required")
		return
	}
	matType := strings.ToUpper(strings.TrimSpace(r.FormValue("type")))
	if matType == "" {
		matType = model.MaterialOther
	}
	if !materialTypes[matType] {
		writeError(w, http.StatusBadRequest, "invalid material type")
		return
	}

	ok, err := h.courses.Exists(courseID)
	if err != nil {
		h.logger.Error("check course", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if !ok {
		writeError(w, http.StatusNotFound, "course not found")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "file is required")
		return
	}
	defer file.Close()

	key := fmt.Sprintf("%d/%s%s", courseID, uuid.NewString(), filepath.Ext(header.Filename))
	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = mime.TypeByExtension(filepath.Ext(header.Filename))
	}
	if err := h.files.Put(r.Context(), key, file, header.Size, contentType); err != nil {
		h.logger.Error("upload material", "key", key, "error", err)
		writeError(w, http.StatusInternalServerError, "upload failed")
		return
	}

	material, err := h.materials.Create(courseID, title, matType, key, header.Filename, header.Size)
	if err != nil {
		h.logger.Error("create material", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	h.logger.Info("material uploaded", "material_id", material.ID, "course_id", courseID, "size", header.Size)
	writeJSON(w, http.StatusCreated, material)
}

func (h *MaterialHandler) Get(w http.ResponseWriter, r *http.Request) {
	material, ok := h.lookup(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, material)
}

// Download streams the stored file back with its original name.
func (h *MaterialHandler) Download(w http.ResponseWriter, r *http.Request) {
	material, ok := h.lookup(w, r)
	if !ok {
		return
	}

	body, err := h.files.Get(r.Context(), material.S3Key)
	if err != nil {
		if errors.Is(err, storage.ErrNotConfigured) {
			writeError(w, http.StatusServiceUnavailable, "file storage not configured")
			return
		}
		h.logger.Error("download material", "material_id", material.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "download failed")
		return
	}
	defer body.Close()

	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", material.FileName))
	if _, err := io.Copy(w, body); err != nil {
		h.logger.Warn("stream material", "material_id", material.ID, "error", err)
	}
}

func (h *MaterialHandler) List(w http.ResponseWriter, r *http.Request) {
	materials, err := h.materials.List()
	if err != nil {
		h.logger.Error("list materials", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if materials == nil {
		materials = []model.Material{}
	}
	writeJSON(w, http.StatusOK, materials)
}

// ListByCourse returns a course's materials, newest first. An optional
// ?type= query narrows the result to one material type.
func (h *MaterialHandler) ListByCourse(w http.ResponseWriter, r *http.Request) {
	courseID, err := parseIDParam(r, "courseId")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid course id")
		return
	}
	matType := strings.ToUpper(strings.TrimSpace(r.URL.Query().Get("type")))
	if matType != "" && !materialTypes[matType] {
		writeError(w, http.StatusBadRequest, "invalid material type")
		return
	}

	materials, err := h.materials.ListByCourse(courseID, matType)
	if err != nil {
		h.logger.Error("list course materials", "course_id", courseID, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if materials == nil {
		materials = []model.Material{}
	}
	writeJSON(w, http.StatusOK, materials)
}

func (h *MaterialHandler) Count(w http.ResponseWriter, r *http.Request) {
	courseID, err := parseIDParam(r, "courseId")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid course id")
		return
	}
	count, err := h.materials.CountByCourse(courseID)
	if err != nil {
		h.logger.Error("count course materials", "course_id", courseID, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"count": count})
}

type materialUpdateRequest struct {
	Title string `json:"title"`
	Type  string `json:"type" validate:"omitempty,oneof=PDF VIDEO DOCUMENT PRESENTATION IMAGE OTHER"`
}

// Update changes a material's title and/or type. Empty fields keep
// their current values.
func (h *MaterialHandler) Update(w http.ResponseWriter, r *http.Request) {
	material, ok := h.lookup(w, r)
	if !ok {
		return
	}

	var req materialUpdateRequest
	if !bind(w, r, &req) {
		return
	}

	updated, err := h.materials.Update(material.ID, strings.TrimSpace(req.Title), req.Type)
	if err != nil {
		h.logger.Error("update material", "material_id", material.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// Delete removes the stored file and its metadata row. A storage
// failure is logged but does not keep the row alive, so retries stay
// idempotent.
func (h *MaterialHandler) Delete(w http.ResponseWriter, r *http.Request) {
	material, ok := h.lookup(w, r)
	if !ok {
		return
	}

	if err := h.files.Delete(r.Context(), material.S3Key); err != nil && !errors.Is(err, storage.ErrNotConfigured) {
		h.logger.Warn("delete material object", "material_id", material.ID, "key", material.S3Key, "error", err)
	}
	if err := h.materials.Delete(material.ID); err != nil {
		h.logger.Error("delete material", "material_id", material.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *MaterialHandler) lookup(w http.ResponseWriter, r *http.Request) (*model.Material, bool) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid material id")
		return nil, false
	}
	material, err := h.materials.GetByID(id)
	if err != nil {
		h.logger.Error("get material", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return nil, false
	}
	if material == nil {
		writeError(w, http.StatusNotFound, "material not found")
		return nil, false
	}
	return material, true
}
