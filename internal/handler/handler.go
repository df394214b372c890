// Package handler holds the gin handlers for the submission and clock-in
// routes. Each handler is the same shape: validate input, call the external
// services, map the outcome to a JSON body with a success flag.
package handler

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"traycam/internal/config"
	"traycam/internal/kintone"
	"traycam/internal/secrets"
)

// FileStore is the slice of the Drive client the handlers use.
type FileStore interface {
	Upload(ctx context.Context, data []byte, name, mimeType, parentID string) (string, error)
	FindOrCreateFolder(ctx context.Context, parentID, name string) (string, error)
}

// RecordStore is the slice of the Kintone client the handlers use.
type RecordStore interface {
	QueryRecords(ctx context.Context, appID, token, query string, fields []string) ([]kintone.Record, error)
	CreateRecord(ctx context.Context, appID, token string, rec kintone.Record) error
}

// Clock-in times and upload filenames use JST regardless of host timezone.
var jst = time.FixedZone("JST", 9*60*60)

const timestampLayout = "2006-01-02T15-04-05"

// Fixed Kintone field values of the production apps.
const (
	statusProcessing = "OCR処理中"
	typeSoilTest     = "土壌検査"
	typeToday        = "本日の記録"
	todayPrefix      = "today_"
)

// Handler serves all user-facing routes.
type Handler struct {
	cfg     config.App
	sec     *secrets.Bundle
	files   FileStore
	records RecordStore
	log     *slog.Logger

	// Injectable for deterministic tests.
	now   func() time.Time
	newID func() string
}

// New wires a handler with the real clock and uuid generator.
func New(cfg config.App, sec *secrets.Bundle, files FileStore, records RecordStore, log *slog.Logger) *Handler {
	return &Handler{
		cfg:     cfg,
		sec:     sec,
		files:   files,
		records: records,
		log:     log,
		now:     time.Now,
		newID:   uuid.NewString,
	}
}

// Register attaches the POST routes to r.
func (h *Handler) Register(r gin.IRoutes) {
	r.POST("/record-attendance", h.RecordAttendance)
	r.POST("/submit", h.SubmitSoilTest)
	r.POST("/submit_today", h.SubmitToday)
	r.POST("/upload_habitat_image", h.UploadHabitatImage)
}

func fail(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"success": false, "message": message})
}

// readFormImage pulls the named file field from the multipart form. A part
// with an empty filename counts as missing, matching browser behavior for an
// untouched file input.
func readFormImage(c *gin.Context, field string) (data []byte, filename, mimeType string, err error) {
	header, err := c.FormFile(field)
	if err != nil {
		return nil, "", "", err
	}
	if header.Filename == "" {
		return nil, "", "", http.ErrMissingFile
	}
	f, err := header.Open()
	if err != nil {
		return nil, "", "", err
	}
	defer f.Close()
	data, err = io.ReadAll(f)
	if err != nil {
		return nil, "", "", err
	}
	mimeType = header.Header.Get("Content-Type")
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}
	return data, header.Filename, mimeType, nil
}
