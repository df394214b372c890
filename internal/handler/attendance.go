package handler

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"traycam/internal/kintone"
)

type attendanceRequest struct {
	WorkerID  string   `json:"worker_id"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
	Accuracy  *float64 `json:"accuracy"`
}

// RecordAttendance looks the worker up in the user-master app and writes a
// clock-in record with the server-side JST timestamp and optional
// geolocation.
func (h *Handler) RecordAttendance(c *gin.Context) {
	var req attendanceRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.WorkerID == "" {
		fail(c, http.StatusBadRequest, "作業者IDがありません。")
		return
	}
	ctx := c.Request.Context()

	query := fmt.Sprintf(`userid_master = "%s"`, req.WorkerID)
	recs, err := h.records.QueryRecords(ctx, h.sec.UserMasterAppID, h.sec.UserMasterAPIToken, query, []string{"username_master"})
	if err != nil {
		h.log.Error("user master lookup failed", "worker_id", req.WorkerID, "error", err)
		fail(c, http.StatusInternalServerError, "ユーザーマスタの検索に失敗しました。")
		return
	}
	if len(recs) == 0 {
		fail(c, http.StatusNotFound, fmt.Sprintf("ID「%s」の作業者が見つかりません。", req.WorkerID))
		return
	}
	workerName := recs[0].StringValue("username_master")

	mapLink := ""
	if req.Latitude != nil && req.Longitude != nil {
		mapLink = fmt.Sprintf("https://www.google.com/maps?q=%s,%s", formatCoord(*req.Latitude), formatCoord(*req.Longitude))
	}
	rec := pruneNil(kintone.Record{
		"worker_id":         {Value: req.WorkerID},
		"worker_name":       {Value: workerName},
		"clock_in_time":     {Value: h.now().In(jst).Format(time.RFC3339)},
		"latitude":          {Value: floatValue(req.Latitude)},
		"longitude":         {Value: floatValue(req.Longitude)},
		"location_accuracy": {Value: floatValue(req.Accuracy)},
		"map_link":          {Value: mapLink},
	})

	if err := h.records.CreateRecord(ctx, h.sec.AttendanceAppID, h.sec.AttendanceAPIToken, rec); err != nil {
		h.log.Error("attendance record create failed", "worker_id", req.WorkerID, "error", err)
		fail(c, http.StatusInternalServerError, "出勤記録に失敗しました。")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":     true,
		"message":     "出勤を記録しました。",
		"worker_name": workerName,
	})
}
