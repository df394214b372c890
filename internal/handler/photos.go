package handler

import (
	"fmt"
	"net/http"
	"path/filepath"

	"github.com/gin-gonic/gin"

	"traycam/internal/kintone"
)

// SubmitSoilTest uploads a soil-test photo to the NPK folder and registers a
// processing record so the downstream OCR flow picks it up.
func (h *Handler) SubmitSoilTest(c *gin.Context) {
	data, filename, mimeType, err := readFormImage(c, "photo_npk_test_type")
	if err != nil {
		fail(c, http.StatusBadRequest, "画像が選択されていません。")
		return
	}
	recordID := h.newID()
	trayID := c.PostForm("treiID")
	if trayID == "" {
		fail(c, http.StatusBadRequest, "トレイIDが入力されていません。")
		return
	}
	ctx := c.Request.Context()

	ts := h.now().In(jst).Format(timestampLayout)
	driveName := fmt.Sprintf("%s_%s_%s%s", trayID, ts, recordID, filepath.Ext(filename))
	if _, err := h.files.Upload(ctx, data, driveName, mimeType, h.sec.NPKFolderID); err != nil {
		h.log.Error("drive upload failed", "file", driveName, "error", err)
		fail(c, http.StatusInternalServerError, fmt.Sprintf("Google Driveへのアップロード中にエラーが発生しました: %v", err))
		return
	}

	rec := pruneEmpty(kintone.Record{
		h.cfg.UUIDFieldCode:    {Value: recordID},
		h.cfg.StatusFieldCode:  {Value: statusProcessing},
		h.cfg.NPKTypeFieldCode: {Value: typeSoilTest},
		"placeID":              {Value: c.PostForm("placeID")},
		"houseID":              {Value: c.PostForm("houseID")},
		"treiID":               {Value: trayID},
		"username":             {Value: c.PostForm("username")},
		"worker_id":            {Value: c.PostForm("worker_id")},
		"memo":                 {Value: c.PostForm("memo")},
	})
	if err := h.records.CreateRecord(ctx, h.sec.KintoneAppID, h.sec.KintoneAPIToken, rec); err != nil {
		h.log.Error("kintone create failed", "uuid", recordID, "error", err)
		fail(c, http.StatusInternalServerError, "Kintoneへの先行登録に失敗しました。")
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "アップロードとKintoneへの登録を開始しました。"})
}

// SubmitToday is the same flow as SubmitSoilTest for the daily-record photo:
// its own folder, a today_ filename prefix, its own status field code and
// type tag, and the Kintone response body surfaced on failure.
func (h *Handler) SubmitToday(c *gin.Context) {
	data, filename, mimeType, err := readFormImage(c, "photo_today")
	if err != nil {
		fail(c, http.StatusBadRequest, "画像が選択されていません。")
		return
	}
	recordID := h.newID()
	trayID := c.PostForm("treiID")
	if trayID == "" {
		fail(c, http.StatusBadRequest, "トレイIDが入力されていません。")
		return
	}
	ctx := c.Request.Context()

	ts := h.now().In(jst).Format(timestampLayout)
	driveName := fmt.Sprintf("%s%s_%s_%s%s", todayPrefix, trayID, ts, recordID, filepath.Ext(filename))
	if _, err := h.files.Upload(ctx, data, driveName, mimeType, h.sec.TodayFolderID); err != nil {
		h.log.Error("drive upload failed", "file", driveName, "error", err)
		fail(c, http.StatusInternalServerError, fmt.Sprintf("Google Driveへのアップロード中にエラーが発生しました: %v", err))
		return
	}

	rec := pruneEmpty(kintone.Record{
		h.cfg.UUIDFieldCode:        {Value: recordID},
		h.cfg.TodayStatusFieldCode: {Value: statusProcessing},
		h.cfg.NPKTypeFieldCode:     {Value: typeToday},
		"placeID":                  {Value: c.PostForm("placeID")},
		"houseID":                  {Value: c.PostForm("houseID")},
		"treiID":                   {Value: trayID},
		"username":                 {Value: c.PostForm("username")},
		"worker_id":                {Value: c.PostForm("worker_id")},
		"memo":                     {Value: c.PostForm("memo")},
	})
	if err := h.records.CreateRecord(ctx, h.sec.KintoneAppID, h.sec.KintoneAPIToken, rec); err != nil {
		h.log.Error("kintone create failed", "uuid", recordID, "error", err)
		fail(c, http.StatusInternalServerError, fmt.Sprintf("Kintoneへの登録に失敗しました: %v", err))
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "アップロードとKintoneへの登録を開始しました。"})
}
