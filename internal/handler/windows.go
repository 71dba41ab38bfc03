package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ffnexus/incident-watch/internal/model"
)

// windowLister - 활성 윈도우 조회 인터페이스
type windowLister interface {
	Snapshots() []model.WindowSnapshot
}

// WindowHandler - 활성 알림 윈도우 조회 핸들러
type WindowHandler struct {
	svc windowLister
}

func NewWindowHandler(svc windowLister) *WindowHandler {
	return &WindowHandler{svc: svc}
}

// ListWindows godoc
// @Summary List active alert windows
// @Tags windows
// @Produce json
// @Security BearerAuth
// @Success 200 {object} model.WindowListResponse
// @Failure 401 {object} model.ErrorResponse
// @Router /api/v1/windows [get]
func (h *WindowHandler) ListWindows(c *gin.Context) {
	snaps := h.svc.Snapshots()
	if snaps == nil {
		snaps = []model.WindowSnapshot{}
	}
	c.JSON(http.StatusOK, model.WindowListResponse{Status: "success", Data: snaps})
}
