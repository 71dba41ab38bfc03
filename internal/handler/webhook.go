package handler

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/ffnexus/incident-watch/internal/model"
)

// webhookService - 서비스 인터페이스
type webhookService interface {
	ListWebhookConfigs(ctx context.Context) ([]model.WebhookConfig, error)
	GetWebhookConfig(ctx context.Context, id int) (*model.WebhookConfig, error)
	CreateWebhookConfig(ctx context.Context, req model.WebhookConfigRequest) (int, error)
	UpdateWebhookConfig(ctx context.Context, id int, req model.WebhookConfigRequest) error
	DeleteWebhookConfig(ctx context.Context, id int) error
}

// WebhookSettingsHandler - 알림 윈도우 웹훅 설정 핸들러
//
// 등록된 웹훅은 윈도우 스냅샷이 생성/갱신될 때마다 호출됨
// categories가 비어 있으면 모든 유형, min_severity 미만 스냅샷은 전달하지 않음
type WebhookSettingsHandler struct {
	svc webhookService
}

func NewWebhookSettingsHandler(svc webhookService) *WebhookSettingsHandler {
	return &WebhookSettingsHandler{svc: svc}
}

// ListWebhookConfigs godoc
// @Summary List window webhooks
// @Description Lists webhooks notified on alert window snapshots.
// @Description With category and/or severity, only webhooks whose filters accept such a snapshot are returned.
// @Tags settings
// @Produce json
// @Security BearerAuth
// @Param category query string false "Window category filter" Enums(login, lag, crash)
// @Param severity query string false "Snapshot severity filter" Enums(low, medium, high)
// @Success 200 {object} model.WebhookConfigListResponse "categories and min_severity of each webhook included"
// @Failure 400,500 {object} model.ErrorResponse
// @Router /api/v1/settings/webhooks [get]
func (h *WebhookSettingsHandler) ListWebhookConfigs(c *gin.Context) {
	sample, filtered, err := snapshotFilter(c.Query("category"), c.Query("severity"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "error": err.Error()})
		return
	}

	configs, err := h.svc.ListWebhookConfigs(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "error": err.Error()})
		return
	}
	if filtered {
		matched := make([]model.WebhookConfig, 0, len(configs))
		for _, cfg := range configs {
			if cfg.Accepts(sample) {
				matched = append(matched, cfg)
			}
		}
		configs = matched
	}
	c.JSON(http.StatusOK, model.WebhookConfigListResponse{Status: "success", Data: configs})
}

// snapshotFilter - 조회 조건을 가상의 스냅샷으로 변환
// 유형만 주어지면 모든 심각도를 받는 설정을 찾도록 high로 간주
func snapshotFilter(category, severity string) (model.WindowSnapshot, bool, error) {
	if category == "" && severity == "" {
		return model.WindowSnapshot{}, false, nil
	}
	sample := model.WindowSnapshot{Severity: model.SeverityHigh}
	if category != "" {
		sample.Category = model.ParseCategory(category)
		if sample.Category == model.CategoryNone {
			return sample, false, fmt.Errorf("unknown category %q", category)
		}
	}
	if severity != "" {
		sample.Severity = model.Severity(severity)
		if sample.Severity.Rank() == 0 {
			return sample, false, fmt.Errorf("unknown severity %q", severity)
		}
	}
	return sample, true, nil
}

// GetWebhookConfig godoc
// @Summary Get a window webhook by ID
// @Tags settings
// @Produce json
// @Security BearerAuth
// @Param id path int true "Webhook ID"
// @Success 200 {object} model.WebhookConfigResponse "includes the categories and min_severity filters"
// @Failure 400,404,500 {object} model.ErrorResponse
// @Router /api/v1/settings/webhooks/{id} [get]
func (h *WebhookSettingsHandler) GetWebhookConfig(c *gin.Context) {
	id, ok := webhookID(c)
	if !ok {
		return
	}
	cfg, err := h.svc.GetWebhookConfig(c.Request.Context(), id)
	if err != nil {
		c.JSON(statusFor(err), gin.H{"status": "error", "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, model.WebhookConfigResponse{Status: "success", Data: cfg})
}

// CreateWebhookConfig godoc
// @Summary Register a window webhook
// @Description categories limits delivery to those window categories (empty means all).
// @Description min_severity drops snapshots below that severity (empty means low).
// @Description body may use window.* placeholders (for example window.count) rendered from the snapshot.
// @Tags settings
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body model.WebhookConfigRequest true "Target, template and window filters"
// @Success 201 {object} model.WebhookConfigMutationResponse
// @Failure 400,500 {object} model.ErrorResponse
// @Router /api/v1/settings/webhooks [post]
func (h *WebhookSettingsHandler) CreateWebhookConfig(c *gin.Context) {
	var req model.WebhookConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "error": err.Error()})
		return
	}
	id, err := h.svc.CreateWebhookConfig(c.Request.Context(), req)
	if err != nil {
		c.JSON(statusFor(err), gin.H{"status": "error", "error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, model.WebhookConfigMutationResponse{
		Status:  "success",
		Message: "웹훅 설정이 생성되었습니다.",
		ID:      id,
	})
}

// UpdateWebhookConfig godoc
// @Summary Replace a window webhook
// @Description Replaces target, template and the categories / min_severity filters as a whole.
// @Tags settings
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Webhook ID"
// @Param request body model.WebhookConfigRequest true "Target, template and window filters"
// @Success 200 {object} model.WebhookConfigMutationResponse
// @Failure 400,404,500 {object} model.ErrorResponse
// @Router /api/v1/settings/webhooks/{id} [put]
func (h *WebhookSettingsHandler) UpdateWebhookConfig(c *gin.Context) {
	id, ok := webhookID(c)
	if !ok {
		return
	}
	var req model.WebhookConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "error": err.Error()})
		return
	}
	if err := h.svc.UpdateWebhookConfig(c.Request.Context(), id, req); err != nil {
		c.JSON(statusFor(err), gin.H{"status": "error", "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, model.WebhookConfigMutationResponse{
		Status:  "success",
		Message: "웹훅 설정이 수정되었습니다.",
		ID:      id,
	})
}

// DeleteWebhookConfig godoc
// @Summary Delete a window webhook
// @Tags settings
// @Produce json
// @Security BearerAuth
// @Param id path int true "Webhook ID"
// @Success 200 {object} model.WebhookConfigMutationResponse
// @Failure 400,404,500 {object} model.ErrorResponse
// @Router /api/v1/settings/webhooks/{id} [delete]
func (h *WebhookSettingsHandler) DeleteWebhookConfig(c *gin.Context) {
	id, ok := webhookID(c)
	if !ok {
		return
	}
	if err := h.svc.DeleteWebhookConfig(c.Request.Context(), id); err != nil {
		c.JSON(statusFor(err), gin.H{"status": "error", "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, model.WebhookConfigMutationResponse{
		Status:  "success",
		Message: "웹훅 설정이 삭제되었습니다.",
		ID:      id,
	})
}

// webhookID - 경로의 id 파싱, 실패 시 400 응답 후 false
func webhookID(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "error": "invalid id"})
		return 0, false
	}
	return id, true
}
