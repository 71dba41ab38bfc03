package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ffnexus/incident-watch/internal/db"
	"github.com/ffnexus/incident-watch/internal/model"
	"github.com/ffnexus/incident-watch/internal/service"
)

// keywordService - 서비스 인터페이스
type keywordService interface {
	List(ctx context.Context) ([]string, error)
	Add(ctx context.Context, keywords []string) (int, error)
	Delete(ctx context.Context, keyword string) error
}

// KeywordSettingsHandler - 장애 키워드 설정 핸들러
type KeywordSettingsHandler struct {
	svc keywordService
}

func NewKeywordSettingsHandler(svc keywordService) *KeywordSettingsHandler {
	return &KeywordSettingsHandler{svc: svc}
}

// ListKeywords godoc
// @Summary List operator incident keywords
// @Tags settings
// @Produce json
// @Security BearerAuth
// @Success 200 {object} model.KeywordListResponse
// @Failure 500 {object} model.ErrorResponse
// @Router /api/v1/settings/keywords [get]
func (h *KeywordSettingsHandler) ListKeywords(c *gin.Context) {
	keywords, err := h.svc.List(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, model.KeywordListResponse{Status: "success", Data: keywords})
}

// AddKeywords godoc
// @Summary Add operator incident keywords
// @Tags settings
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body model.KeywordRequest true "Keywords"
// @Success 201 {object} model.KeywordMutationResponse
// @Failure 400,500 {object} model.ErrorResponse
// @Router /api/v1/settings/keywords [post]
func (h *KeywordSettingsHandler) AddKeywords(c *gin.Context) {
	var req model.KeywordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "error": err.Error()})
		return
	}
	added, err := h.svc.Add(c.Request.Context(), req.Keywords)
	if err != nil {
		c.JSON(statusFor(err), gin.H{"status": "error", "error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, model.KeywordMutationResponse{
		Status:  "success",
		Message: "키워드가 추가되었습니다.",
		Count:   added,
	})
}

// DeleteKeyword godoc
// @Summary Delete an operator incident keyword
// @Tags settings
// @Produce json
// @Security BearerAuth
// @Param keyword path string true "Keyword"
// @Success 200 {object} model.KeywordMutationResponse
// @Failure 400,404,500 {object} model.ErrorResponse
// @Router /api/v1/settings/keywords/{keyword} [delete]
func (h *KeywordSettingsHandler) DeleteKeyword(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), c.Param("keyword")); err != nil {
		c.JSON(statusFor(err), gin.H{"status": "error", "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, model.KeywordMutationResponse{
		Status:  "success",
		Message: "키워드가 삭제되었습니다.",
		Count:   1,
	})
}

// statusFor - 서비스/DB 에러를 HTTP 상태 코드로 변환
func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrInvalidKeyword), errors.Is(err, service.ErrInvalidWebhookConfig):
		return http.StatusBadRequest
	case errors.Is(err, db.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
