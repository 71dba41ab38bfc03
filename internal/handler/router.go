package handler

import (
	"log/slog"

	"github.com/gin-gonic/gin"

	"github.com/ffnexus/incident-watch/internal/metrics"
)

// RouterConfig - 라우터 구성 요소
// 설정 핸들러가 nil이면 (DB 미사용) 해당 라우트는 등록하지 않음
type RouterConfig struct {
	Events   *EventHandler
	Windows  *WindowHandler
	Keywords *KeywordSettingsHandler
	Webhooks *WebhookSettingsHandler

	Metrics   *metrics.Metrics
	Logger    *slog.Logger
	JWTSecret string
}

// NewRouter - gin 엔진 생성 및 라우트 등록
func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), RequestLogger(cfg.Logger, cfg.Metrics))

	// 헬스체크, 문서, 메트릭
	router.GET("/", Root)
	router.GET("/ping", Ping)
	router.GET("/openapi.json", OpenAPIDoc)
	if cfg.Metrics != nil {
		router.GET("/metrics", gin.WrapH(cfg.Metrics.Handler()))
	}

	// 윈도우 조회도 채팅 원문을 포함하므로 토큰 필요
	api := router.Group("/api/v1")
	protected := api.Group("", TokenAuth(cfg.JWTSecret))
	if cfg.Windows != nil {
		protected.GET("/windows", cfg.Windows.ListWindows)
	}
	if cfg.Events != nil {
		protected.POST("/events", cfg.Events.IngestEvents)
	}
	if cfg.Keywords != nil {
		protected.GET("/settings/keywords", cfg.Keywords.ListKeywords)
		protected.POST("/settings/keywords", cfg.Keywords.AddKeywords)
		protected.DELETE("/settings/keywords/:keyword", cfg.Keywords.DeleteKeyword)
	}
	if cfg.Webhooks != nil {
		protected.GET("/settings/webhooks", cfg.Webhooks.ListWebhookConfigs)
		protected.GET("/settings/webhooks/:id", cfg.Webhooks.GetWebhookConfig)
		protected.POST("/settings/webhooks", cfg.Webhooks.CreateWebhookConfig)
		protected.PUT("/settings/webhooks/:id", cfg.Webhooks.UpdateWebhookConfig)
		protected.DELETE("/settings/webhooks/:id", cfg.Webhooks.DeleteWebhookConfig)
	}

	return router
}
