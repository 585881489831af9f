package handler

import (
	"log/slog"
	"net/http"

	"github.com/classecho/classecho/internal/backup"
	"github.com/classecho/classecho/internal/model"
	"github.com/classecho/classecho/internal/store"
)

type BackupHandler struct {
	manager *backup.Manager
	backups *store.BackupStore
	logger  *slog.Logger
}

func NewBackupHandler(manager *backup.Manager, backups *store.BackupStore, logger *slog.Logger) *BackupHandler {
	return &BackupHandler{manager: manager, backups: backups, logger: logger}
}

func (h *BackupHandler) Status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.manager.Status())
}

func (h *BackupHandler) List(w http.ResponseWriter, r *http.Request) {
	backups, err := h.backups.List(50)
	if err != nil {
		h.logger.Error("list backups", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if backups == nil {
		backups = []model.Backup{}
	}
	writeJSON(w, http.StatusOK, backups)
}

func (h *BackupHandler) Run(w http.ResponseWriter, r *http.Request) {
	id, err := h.manager.RunNow(r.Context())
	if err != nil {
		h.logger.Error("run backup", "error", err)
		writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]int64{"backup_id": id})
}

// Restore replaces the live database with a backup and exits the process.
func (h *BackupHandler) Restore(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid backup id")
		return
	}
	if err := h.manager.Restore(r.Context(), id); err != nil {
		h.logger.Error("restore backup", "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
}
