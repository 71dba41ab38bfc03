package model

import "time"

// WebhookHeader - 헤더 키-값 쌍
type WebhookHeader struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// WebhookConfig - DB에 저장되는 웹훅 설정 구조체
//
// Categories가 비어 있으면 모든 유형의 윈도우를 전달하고,
// MinSeverity 미만의 스냅샷은 전달하지 않음 (빈 값이면 low)
type WebhookConfig struct {
	ID          int             `json:"id"`
	URL         string          `json:"url"`
	Method      string          `json:"method"`
	Headers     []WebhookHeader `json:"headers"`
	Body        string          `json:"body"`
	Categories  []Category      `json:"categories"`
	MinSeverity Severity        `json:"min_severity"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// Accepts - 스냅샷이 이 설정의 전달 조건을 만족하는지 여부
func (c WebhookConfig) Accepts(snap WindowSnapshot) bool {
	if len(c.Categories) > 0 {
		matched := false
		for _, cat := range c.Categories {
			if cat == snap.Category {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}
	return snap.Severity.Rank() >= c.MinSeverity.Rank()
}

// WebhookConfigRequest - 웹훅 설정 생성/수정 요청 구조체
type WebhookConfigRequest struct {
	URL         string          `json:"url"`
	Method      string          `json:"method"`
	Headers     []WebhookHeader `json:"headers"`
	Body        string          `json:"body"`
	Categories  []Category      `json:"categories"`
	MinSeverity Severity        `json:"min_severity"`
}

// WebhookConfigResponse - 단건 조회 응답
type WebhookConfigResponse struct {
	Status string         `json:"status"`
	Data   *WebhookConfig `json:"data"`
}

// WebhookConfigListResponse - 목록 조회 응답
type WebhookConfigListResponse struct {
	Status string          `json:"status"`
	Data   []WebhookConfig `json:"data"`
}

// WebhookConfigMutationResponse - 생성/수정/삭제 응답
type WebhookConfigMutationResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	ID      int    `json:"id,omitempty"`
}
