package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ffnexus/incident-watch/internal/model"
	"github.com/jackc/pgx/v5"
)

// EnsureWebhookSchema - webhook_configs 테이블 생성 (없으면)
func (p *Postgres) EnsureWebhookSchema(ctx context.Context) error {
	_, err := p.Pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS webhook_configs (
			id           SERIAL       PRIMARY KEY,
			url          TEXT         NOT NULL DEFAULT '',
			method       TEXT         NOT NULL DEFAULT 'POST',
			headers      JSONB        NOT NULL DEFAULT '[]',
			body         TEXT         NOT NULL DEFAULT '',
			categories   TEXT[]       NOT NULL DEFAULT '{}',
			min_severity TEXT         NOT NULL DEFAULT 'low',
			updated_at   TIMESTAMPTZ  NOT NULL DEFAULT NOW()
		);
	`)
	if err != nil {
		return fmt.Errorf("failed to create webhook_configs table: %w", err)
	}
	return nil
}

const webhookColumns = `id, url, method, headers, body, categories, min_severity, updated_at`

// GetWebhookConfigs - 웹훅 설정 전체 목록 조회 (최신순)
func (p *Postgres) GetWebhookConfigs(ctx context.Context) ([]model.WebhookConfig, error) {
	rows, err := p.Pool.Query(ctx, `
		SELECT `+webhookColumns+`
		FROM webhook_configs
		ORDER BY updated_at DESC;
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query webhook configs: %w", err)
	}
	defer rows.Close()

	var configs []model.WebhookConfig
	for rows.Next() {
		cfg, err := scanWebhookConfig(rows)
		if err != nil {
			return nil, err
		}
		configs = append(configs, cfg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read webhook configs: %w", err)
	}
	if configs == nil {
		configs = []model.WebhookConfig{}
	}
	return configs, nil
}

// GetWebhookConfigByID - ID로 단건 조회
func (p *Postgres) GetWebhookConfigByID(ctx context.Context, id int) (*model.WebhookConfig, error) {
	row := p.Pool.QueryRow(ctx, `
		SELECT `+webhookColumns+`
		FROM webhook_configs
		WHERE id = $1;
	`, id)

	cfg, err := scanWebhookConfig(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("webhook config %d: %w", id, ErrNotFound)
		}
		return nil, err
	}
	return &cfg, nil
}

// CreateWebhookConfig - 신규 웹훅 설정 저장
func (p *Postgres) CreateWebhookConfig(ctx context.Context, cfg model.WebhookConfig) (int, error) {
	headersJSON, err := json.Marshal(cfg.Headers)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal headers: %w", err)
	}

	var id int
	err = p.Pool.QueryRow(ctx, `
		INSERT INTO webhook_configs (url, method, headers, body, categories, min_severity, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
		RETURNING id;
	`, cfg.URL, cfg.Method, headersJSON, cfg.Body, categoryStrings(cfg.Categories), string(cfg.MinSeverity)).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to insert webhook config: %w", err)
	}
	return id, nil
}

// UpdateWebhookConfig - ID로 웹훅 설정 수정
func (p *Postgres) UpdateWebhookConfig(ctx context.Context, id int, cfg model.WebhookConfig) error {
	headersJSON, err := json.Marshal(cfg.Headers)
	if err != nil {
		return fmt.Errorf("failed to marshal headers: %w", err)
	}

	tag, err := p.Pool.Exec(ctx, `
		UPDATE webhook_configs
		SET url = $1, method = $2, headers = $3, body = $4,
		    categories = $5, min_severity = $6, updated_at = NOW()
		WHERE id = $7;
	`, cfg.URL, cfg.Method, headersJSON, cfg.Body, categoryStrings(cfg.Categories), string(cfg.MinSeverity), id)
	if err != nil {
		return fmt.Errorf("failed to update webhook config: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("webhook config %d: %w", id, ErrNotFound)
	}
	return nil
}

// DeleteWebhookConfig - ID로 웹훅 설정 삭제
func (p *Postgres) DeleteWebhookConfig(ctx context.Context, id int) error {
	tag, err := p.Pool.Exec(ctx, `DELETE FROM webhook_configs WHERE id = $1;`, id)
	if err != nil {
		return fmt.Errorf("failed to delete webhook config: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("webhook config %d: %w", id, ErrNotFound)
	}
	return nil
}

func scanWebhookConfig(row pgx.Row) (model.WebhookConfig, error) {
	var (
		cfg         model.WebhookConfig
		headersJSON []byte
		categories  []string
		minSeverity string
	)
	if err := row.Scan(&cfg.ID, &cfg.URL, &cfg.Method, &headersJSON, &cfg.Body, &categories, &minSeverity, &cfg.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return cfg, err
		}
		return cfg, fmt.Errorf("failed to scan webhook config: %w", err)
	}
	if err := json.Unmarshal(headersJSON, &cfg.Headers); err != nil {
		return cfg, fmt.Errorf("failed to unmarshal headers: %w", err)
	}
	cfg.Categories = make([]model.Category, 0, len(categories))
	for _, c := range categories {
		if parsed := model.ParseCategory(c); parsed != model.CategoryNone {
			cfg.Categories = append(cfg.Categories, parsed)
		}
	}
	cfg.MinSeverity = model.Severity(minSeverity)
	return cfg, nil
}

func categoryStrings(categories []model.Category) []string {
	out := make([]string, 0, len(categories))
	for _, c := range categories {
		out = append(out, string(c))
	}
	return out
}
