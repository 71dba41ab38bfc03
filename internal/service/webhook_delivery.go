package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/ffnexus/incident-watch/internal/model"
	tmpl "github.com/ffnexus/incident-watch/internal/template"
	"github.com/google/uuid"
)

const deliveryIDHeader = "X-Delivery-ID"

// webhookConfigReader - DB 인터페이스 (delivery 전용)
type webhookConfigReader interface {
	GetWebhookConfigs(ctx context.Context) ([]model.WebhookConfig, error)
}

// WebhookNotifier - 사용자 설정 Webhook으로 윈도우 스냅샷을 전송하는 서비스
// FanoutSink의 부가 알림으로 사용
type WebhookNotifier struct {
	configDB   webhookConfigReader
	httpClient *http.Client
	logger     *slog.Logger
}

// NewWebhookNotifier 생성자
func NewWebhookNotifier(configDB webhookConfigReader, logger *slog.Logger) *WebhookNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &WebhookNotifier{
		configDB: configDB,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		logger: logger,
	}
}

// Notify - 조건에 맞는 모든 webhook config에 렌더링된 body를 HTTP로 전송
//
// Slack 알림과 독립적으로 동작합니다.
// 개별 config 실패 시 로그만 남기고 나머지는 계속 전송합니다.
func (s *WebhookNotifier) Notify(ctx context.Context, snap model.WindowSnapshot) {
	// 1. 저장된 webhook configs 조회
	configs, err := s.configDB.GetWebhookConfigs(ctx)
	if err != nil {
		s.logger.Warn("failed to load webhook configs", "error", err)
		return
	}
	if len(configs) == 0 {
		return
	}

	data := tmpl.WindowDataFromSnapshot(snap)

	// 2. 각 config에 대해 필터 확인 후 렌더링, HTTP 전송
	for _, cfg := range configs {
		if cfg.URL == "" {
			s.logger.Debug("skipping webhook config without url", "config_id", cfg.ID)
			continue
		}
		if !cfg.Accepts(snap) {
			continue
		}

		deliveryID := uuid.NewString()
		rendered := tmpl.RenderBody(cfg.Body, &data)

		if err := s.send(ctx, cfg, deliveryID, rendered); err != nil {
			s.logger.Warn("webhook delivery failed",
				"config_id", cfg.ID,
				"url", cfg.URL,
				"delivery_id", deliveryID,
				"window_id", snap.WindowID,
				"error", err,
			)
			continue
		}
		s.logger.Debug("webhook delivered",
			"config_id", cfg.ID,
			"delivery_id", deliveryID,
			"window_id", snap.WindowID,
		)
	}
}

// send - 단일 webhook config로 HTTP 요청 전송
func (s *WebhookNotifier) send(ctx context.Context, cfg model.WebhookConfig, deliveryID, body string) error {
	method := cfg.Method
	if method == "" {
		method = http.MethodPost
	}
	req, err := http.NewRequestWithContext(ctx, method, cfg.URL, bytes.NewBufferString(body))
	if err != nil {
		return err
	}

	// Content-Type 기본값 설정 (없으면 application/json)
	hasContentType := false
	for _, h := range cfg.Headers {
		if h.Key != "" {
			req.Header.Set(h.Key, h.Value)
		}
		if http.CanonicalHeaderKey(h.Key) == "Content-Type" {
			hasContentType = true
		}
	}
	if !hasContentType {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set(deliveryIDHeader, deliveryID)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	return nil
}
