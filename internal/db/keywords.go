package db

import (
	"context"
	"fmt"
)

// EnsureKeywordSchema - incident_keywords 테이블 생성 (없으면)
func (p *Postgres) EnsureKeywordSchema(ctx context.Context) error {
	_, err := p.Pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS incident_keywords (
			keyword    TEXT         PRIMARY KEY,
			created_at TIMESTAMPTZ  NOT NULL DEFAULT NOW()
		);
	`)
	if err != nil {
		return fmt.Errorf("failed to create incident_keywords table: %w", err)
	}
	return nil
}

// ListIncidentKeywords - 등록된 키워드 목록 (등록순)
func (p *Postgres) ListIncidentKeywords(ctx context.Context) ([]string, error) {
	rows, err := p.Pool.Query(ctx, `
		SELECT keyword
		FROM incident_keywords
		ORDER BY created_at, keyword;
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query incident keywords: %w", err)
	}
	defer rows.Close()

	keywords := []string{}
	for rows.Next() {
		var kw string
		if err := rows.Scan(&kw); err != nil {
			return nil, fmt.Errorf("failed to scan incident keyword: %w", err)
		}
		keywords = append(keywords, kw)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read incident keywords: %w", err)
	}
	return keywords, nil
}

// AddIncidentKeywords - 키워드 일괄 추가, 이미 있는 키워드는 건너뜀
// 실제로 추가된 행 수 반환
func (p *Postgres) AddIncidentKeywords(ctx context.Context, keywords []string) (int, error) {
	tag, err := p.Pool.Exec(ctx, `
		INSERT INTO incident_keywords (keyword)
		SELECT unnest($1::text[])
		ON CONFLICT (keyword) DO NOTHING;
	`, keywords)
	if err != nil {
		return 0, fmt.Errorf("failed to insert incident keywords: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

// DeleteIncidentKeyword - 키워드 삭제
func (p *Postgres) DeleteIncidentKeyword(ctx context.Context, keyword string) error {
	tag, err := p.Pool.Exec(ctx, `DELETE FROM incident_keywords WHERE keyword = $1;`, keyword)
	if err != nil {
		return fmt.Errorf("failed to delete incident keyword: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("incident keyword %q: %w", keyword, ErrNotFound)
	}
	return nil
}
