package handler

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUploadHabitatImageWithMemo(t *testing.T) {
	files := &fakeFiles{folderID: "tray-folder"}
	records := &fakeRecords{}
	r := newTestRouter(files, records)

	w := postMultipart(t, r, "/upload_habitat_image", "habitat_image", "bug.jpg", jpegBytes, map[string]string{
		"treiID": "T1",
		"memo":   "幼虫を3匹確認",
	})

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"habitat-root/T1"}, files.folderCalls)

	require.Len(t, files.uploads, 2, "image and memo must both be stored")
	img, memo := files.uploads[0], files.uploads[1]
	assert.Equal(t, "T1_2025-06-01T12-04-05.jpg", img.name)
	assert.Equal(t, "tray-folder", img.parentID)
	assert.Equal(t, "T1_2025-06-01T12-04-05_memo.txt", memo.name)
	assert.Equal(t, "tray-folder", memo.parentID)
	assert.Equal(t, "text/plain", memo.mimeType)
	assert.Equal(t, []byte("幼虫を3匹確認"), memo.data)

	assert.Empty(t, records.creates, "habitat uploads never write a record")
	assert.Empty(t, records.queries)
}

func TestUploadHabitatImageWithoutMemo(t *testing.T) {
	files := &fakeFiles{}
	r := newTestRouter(files, &fakeRecords{})

	w := postMultipart(t, r, "/upload_habitat_image", "habitat_image", "bug.jpg", jpegBytes, map[string]string{"treiID": "T1"})

	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, files.uploads, 1)
}

func TestUploadHabitatImageBlankMemoSkipped(t *testing.T) {
	files := &fakeFiles{}
	r := newTestRouter(files, &fakeRecords{})

	w := postMultipart(t, r, "/upload_habitat_image", "habitat_image", "bug.jpg", jpegBytes, map[string]string{
		"treiID": "T1",
		"memo":   "   ",
	})

	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, files.uploads, 1, "whitespace-only memo must not produce a memo file")
}

func TestUploadHabitatImageMemoFailureStillSucceeds(t *testing.T) {
	files := &fakeFiles{failSuffix: "_memo.txt"}
	r := newTestRouter(files, &fakeRecords{})

	w := postMultipart(t, r, "/upload_habitat_image", "habitat_image", "bug.jpg", jpegBytes, map[string]string{
		"treiID": "T1",
		"memo":   "幼虫を3匹確認",
	})

	require.Equal(t, http.StatusOK, w.Code, "memo failure must not fail the request once the image is stored")
	body := decodeBody(t, w)
	assert.Equal(t, true, body["success"])
	assert.Len(t, files.uploads, 1)
}

func TestUploadHabitatImageFolderFailure(t *testing.T) {
	files := &fakeFiles{folderErr: errors.New("shared drive unavailable")}
	r := newTestRouter(files, &fakeRecords{})

	w := postMultipart(t, r, "/upload_habitat_image", "habitat_image", "bug.jpg", jpegBytes, map[string]string{"treiID": "T1"})

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Empty(t, files.uploads)
}

func TestUploadHabitatImageUploadFailure(t *testing.T) {
	files := &fakeFiles{uploadErr: errors.New("quota exceeded")}
	r := newTestRouter(files, &fakeRecords{})

	w := postMultipart(t, r, "/upload_habitat_image", "habitat_image", "bug.jpg", jpegBytes, map[string]string{"treiID": "T1"})

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestUploadHabitatImageMissingFields(t *testing.T) {
	files := &fakeFiles{}
	r := newTestRouter(files, &fakeRecords{})

	noImage := postMultipart(t, r, "/upload_habitat_image", "", "", nil, map[string]string{"treiID": "T1"})
	assert.Equal(t, http.StatusBadRequest, noImage.Code)

	noTray := postMultipart(t, r, "/upload_habitat_image", "habitat_image", "bug.jpg", jpegBytes, nil)
	assert.Equal(t, http.StatusBadRequest, noTray.Code)

	assert.Empty(t, files.uploads)
	assert.Empty(t, files.folderCalls)
}
