package handler

import (
	"fmt"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
)

// UploadHabitatImage stores a habitat photo inside a per-tray subfolder of
// the habitat parent folder, creating the subfolder on first use. A
// non-blank memo is stored next to the image as a plain-text file; a failed
// memo upload is logged but does not fail the request, since the image is
// already in place. No Kintone record is written for habitat photos.
func (h *Handler) UploadHabitatImage(c *gin.Context) {
	data, filename, mimeType, err := readFormImage(c, "habitat_image")
	if err != nil {
		fail(c, http.StatusBadRequest, "画像が選択されていません。")
		return
	}
	trayID := c.PostForm("treiID")
	if trayID == "" {
		fail(c, http.StatusBadRequest, "トレイIDが入力されていません。")
		return
	}
	memo := c.PostForm("memo")
	ctx := c.Request.Context()

	folderID, err := h.files.FindOrCreateFolder(ctx, h.sec.HabitatFolderID, trayID)
	if err != nil {
		h.log.Error("habitat folder resolve failed", "tray_id", trayID, "error", err)
		fail(c, http.StatusInternalServerError, fmt.Sprintf("Google Driveのフォルダ操作中にエラー: %v", err))
		return
	}

	base := fmt.Sprintf("%s_%s", trayID, h.now().In(jst).Format(timestampLayout))
	imageName := base + filepath.Ext(filename)
	if _, err := h.files.Upload(ctx, data, imageName, mimeType, folderID); err != nil {
		h.log.Error("habitat image upload failed", "file", imageName, "error", err)
		fail(c, http.StatusInternalServerError, fmt.Sprintf("画像のアップロード中にエラーが発生しました: %v", err))
		return
	}

	if strings.TrimSpace(memo) != "" {
		memoName := base + "_memo.txt"
		if _, err := h.files.Upload(ctx, []byte(memo), memoName, "text/plain", folderID); err != nil {
			// Image upload already succeeded; keep the success response.
			h.log.Warn("habitat memo upload failed", "file", memoName, "error", err)
		}
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "アップロードが完了しました。"})
}
