package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"traycam/internal/config"
	"traycam/internal/kintone"
	"traycam/internal/secrets"
)

const fixedID = "11111111-2222-3333-4444-555555555555"

// fixedNow is 03:04:05 UTC, which is 12:04:05 JST on the same day.
var fixedNow = time.Date(2025, 6, 1, 3, 4, 5, 0, time.UTC)

type upload struct {
	data     []byte
	name     string
	mimeType string
	parentID string
}

type fakeFiles struct {
	uploads     []upload
	uploadErr   error
	failSuffix  string
	folderID    string
	folderErr   error
	folderCalls []string
}

func (f *fakeFiles) Upload(_ context.Context, data []byte, name, mimeType, parentID string) (string, error) {
	if f.uploadErr != nil {
		return "", f.uploadErr
	}
	if f.failSuffix != "" && strings.HasSuffix(name, f.failSuffix) {
		return "", errors.New("drive says no")
	}
	f.uploads = append(f.uploads, upload{data: data, name: name, mimeType: mimeType, parentID: parentID})
	return fmt.Sprintf("file-%d", len(f.uploads)), nil
}

func (f *fakeFiles) FindOrCreateFolder(_ context.Context, parentID, name string) (string, error) {
	f.folderCalls = append(f.folderCalls, parentID+"/"+name)
	if f.folderErr != nil {
		return "", f.folderErr
	}
	if f.folderID == "" {
		return "sub-folder-1", nil
	}
	return f.folderID, nil
}

type createCall struct {
	appID string
	token string
	rec   kintone.Record
}

type queryCall struct {
	appID  string
	token  string
	query  string
	fields []string
}

type fakeRecords struct {
	queryRecs []kintone.Record
	queryErr  error
	queries   []queryCall
	creates   []createCall
	createErr error
}

func (f *fakeRecords) QueryRecords(_ context.Context, appID, token, query string, fields []string) ([]kintone.Record, error) {
	f.queries = append(f.queries, queryCall{appID: appID, token: token, query: query, fields: fields})
	if f.queryErr != nil {
		return nil, f.queryErr
	}
	return f.queryRecs, nil
}

func (f *fakeRecords) CreateRecord(_ context.Context, appID, token string, rec kintone.Record) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.creates = append(f.creates, createCall{appID: appID, token: token, rec: rec})
	return nil
}

func testBundle() *secrets.Bundle {
	return &secrets.Bundle{
		NPKFolderID:        "npk-folder",
		TodayFolderID:      "today-folder",
		HabitatFolderID:    "habitat-root",
		KintoneDomain:      "example.cybozu.com",
		KintoneAppID:       "12",
		KintoneAPIToken:    "tok-main",
		UserMasterAppID:    "13",
		UserMasterAPIToken: "tok-master",
		AttendanceAppID:    "14",
		AttendanceAPIToken: "tok-att",
	}
}

func newTestRouter(files *fakeFiles, records *fakeRecords) *gin.Engine {
	cfg := config.App{
		UUIDFieldCode:        "uuid",
		StatusFieldCode:      "ocr_status",
		TodayStatusFieldCode: "today_status",
		NPKTypeFieldCode:     "npk_test_type",
	}
	h := New(cfg, testBundle(), files, records, slog.New(slog.NewTextHandler(io.Discard, nil)))
	h.now = func() time.Time { return fixedNow }
	h.newID = func() string { return fixedID }

	gin.SetMode(gin.TestMode)
	r := gin.New()
	h.Register(r)
	return r
}

func postJSON(r *gin.Engine, path string, body any) *httptest.ResponseRecorder {
	data, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// postMultipart builds a multipart form with an optional file part and posts it.
func postMultipart(t *testing.T, r *gin.Engine, path, fileField, fileName string, fileData []byte, fields map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	if fileField != "" {
		part, err := w.CreateFormFile(fileField, fileName)
		require.NoError(t, err)
		_, err = part.Write(fileData)
		require.NoError(t, err)
	}
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}
