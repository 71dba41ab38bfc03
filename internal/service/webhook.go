package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/ffnexus/incident-watch/internal/model"
)

// ErrInvalidWebhookConfig - 요청 값 검증 실패
var ErrInvalidWebhookConfig = errors.New("invalid webhook config")

// webhookRepo - DB 인터페이스
type webhookRepo interface {
	GetWebhookConfigs(ctx context.Context) ([]model.WebhookConfig, error)
	GetWebhookConfigByID(ctx context.Context, id int) (*model.WebhookConfig, error)
	CreateWebhookConfig(ctx context.Context, cfg model.WebhookConfig) (int, error)
	UpdateWebhookConfig(ctx context.Context, id int, cfg model.WebhookConfig) error
	DeleteWebhookConfig(ctx context.Context, id int) error
}

// WebhookService - 웹훅 설정 비즈니스 로직
type WebhookService struct {
	db webhookRepo
}

func NewWebhookService(db webhookRepo) *WebhookService {
	return &WebhookService{db: db}
}

func (s *WebhookService) ListWebhookConfigs(ctx context.Context) ([]model.WebhookConfig, error) {
	return s.db.GetWebhookConfigs(ctx)
}

func (s *WebhookService) GetWebhookConfig(ctx context.Context, id int) (*model.WebhookConfig, error) {
	return s.db.GetWebhookConfigByID(ctx, id)
}

func (s *WebhookService) CreateWebhookConfig(ctx context.Context, req model.WebhookConfigRequest) (int, error) {
	cfg, err := webhookConfigFromRequest(req)
	if err != nil {
		return 0, err
	}
	return s.db.CreateWebhookConfig(ctx, cfg)
}

func (s *WebhookService) UpdateWebhookConfig(ctx context.Context, id int, req model.WebhookConfigRequest) error {
	cfg, err := webhookConfigFromRequest(req)
	if err != nil {
		return err
	}
	return s.db.UpdateWebhookConfig(ctx, id, cfg)
}

func (s *WebhookService) DeleteWebhookConfig(ctx context.Context, id int) error {
	return s.db.DeleteWebhookConfig(ctx, id)
}

// webhookConfigFromRequest - 요청 검증 및 기본값 적용
//   - method: 기본 POST
//   - categories: login/lag/crash만 허용
//   - min_severity: 기본 low
func webhookConfigFromRequest(req model.WebhookConfigRequest) (model.WebhookConfig, error) {
	u, err := url.Parse(strings.TrimSpace(req.URL))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return model.WebhookConfig{}, fmt.Errorf("%w: url must be an absolute http(s) URL", ErrInvalidWebhookConfig)
	}

	method := strings.ToUpper(strings.TrimSpace(req.Method))
	switch method {
	case "":
		method = http.MethodPost
	case http.MethodPost, http.MethodPut, http.MethodPatch:
	default:
		return model.WebhookConfig{}, fmt.Errorf("%w: unsupported method %q", ErrInvalidWebhookConfig, req.Method)
	}

	categories := make([]model.Category, 0, len(req.Categories))
	for _, c := range req.Categories {
		parsed := model.ParseCategory(strings.ToLower(string(c)))
		if parsed == model.CategoryNone {
			return model.WebhookConfig{}, fmt.Errorf("%w: unknown category %q", ErrInvalidWebhookConfig, c)
		}
		categories = append(categories, parsed)
	}

	severity := model.Severity(strings.ToLower(string(req.MinSeverity)))
	if severity == "" {
		severity = model.SeverityLow
	}
	if severity.Rank() == 0 {
		return model.WebhookConfig{}, fmt.Errorf("%w: unknown severity %q", ErrInvalidWebhookConfig, req.MinSeverity)
	}

	cfg := model.WebhookConfig{
		URL:         u.String(),
		Method:      method,
		Body:        req.Body,
		Categories:  categories,
		MinSeverity: severity,
	}
	if req.Headers != nil {
		cfg.Headers = req.Headers
	} else {
		cfg.Headers = []model.WebhookHeader{}
	}
	return cfg, nil
}
