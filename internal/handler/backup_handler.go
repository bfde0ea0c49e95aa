package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/ouroboros-study/ouroboros-api/internal/dto"
	"github.com/ouroboros-study/ouroboros-api/internal/models"
	appErrors "github.com/ouroboros-study/ouroboros-api/pkg/errors"
	"github.com/ouroboros-study/ouroboros-api/pkg/response"
)

const maxBackupBytes = 32 << 20

type backupService interface {
	Export(ctx context.Context) (*models.Snapshot, string, error)
	Import(ctx context.Context, data []byte) (*dto.ImportResult, error)
	Clear(ctx context.Context) error
}

// BackupHandler exposes the whole-database backup, restore and wipe.
type BackupHandler struct {
	service     backupService
	clearPhrase string
}

// NewBackupHandler builds a new handler. clearPhrase must be typed verbatim to wipe data.
func NewBackupHandler(service backupService, clearPhrase string) *BackupHandler {
	return &BackupHandler{service: service, clearPhrase: clearPhrase}
}

// Export godoc
// @Summary Download every plan and study record
// @Tags Backup
// @Produce json
// @Success 200 {file} binary
// @Router /backup [get]
func (h *BackupHandler) Export(c *gin.Context) {
	snap, filename, err := h.service.Export(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	body, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, http.StatusInternalServerError, "failed to encode backup"))
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", filename))
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, "application/json; charset=utf-8", body)
}

// Import godoc
// @Summary Replace all data with a backup
// @Tags Backup
// @Accept json
// @Accept mpfd
// @Produce json
// @Param confirm query bool true "Must be true"
// @Param file formData file false "Backup file"
// @Success 200 {object} response.Envelope
// @Router /backup/import [post]
func (h *BackupHandler) Import(c *gin.Context) {
	if c.Query("confirm") != "true" {
		response.Error(c, appErrors.Clone(appErrors.ErrConfirmationRequired, "import replaces every plan and study record; repeat with confirm=true"))
		return
	}
	data, err := readBackupBody(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	result, err := h.service.Import(c.Request.Context(), data)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Clear godoc
// @Summary Irreversibly delete every plan, study record and setting
// @Tags Backup
// @Accept json
// @Param payload body dto.ClearAllRequest true "Confirmation phrase"
// @Success 204
// @Router /backup/clear [post]
func (h *BackupHandler) Clear(c *gin.Context) {
	var req dto.ClearAllRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid confirmation payload"))
		return
	}
	if h.clearPhrase == "" || strings.TrimSpace(req.Confirmation) != h.clearPhrase {
		response.Error(c, appErrors.Clone(appErrors.ErrConfirmationRequired, fmt.Sprintf("type %q to confirm", h.clearPhrase)))
		return
	}
	if err := h.service.Clear(c.Request.Context()); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

func readBackupBody(c *gin.Context) ([]byte, error) {
	var src io.Reader = c.Request.Body
	if strings.HasPrefix(c.ContentType(), "multipart/") {
		fh, err := c.FormFile("file")
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "file field is required")
		}
		f, err := fh.Open()
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, http.StatusInternalServerError, "failed to open upload")
		}
		defer f.Close() //nolint:errcheck
		src = f
	}
	data, err := io.ReadAll(io.LimitReader(src, maxBackupBytes+1))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "failed to read backup")
	}
	if len(data) > maxBackupBytes {
		return nil, appErrors.Clone(appErrors.ErrInvalidBackup, "backup exceeds 32 MiB")
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil, appErrors.Clone(appErrors.ErrInvalidBackup, "backup is empty")
	}
	return data, nil
}
