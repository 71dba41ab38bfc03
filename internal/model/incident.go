package model

import (
	"fmt"
	"strings"
	"time"
)

// Category - 장애 유형
type Category string

const (
	CategoryLogin Category = "login"
	CategoryLag   Category = "lag"
	CategoryCrash Category = "crash"
	CategoryNone  Category = "none"
)

// Categories - 윈도우를 가질 수 있는 유형 (평가 순서와 동일)
var Categories = []Category{CategoryLogin, CategoryLag, CategoryCrash}

// Label - 알림 제목에 쓰이는 표시명
func (c Category) Label() string {
	switch c {
	case CategoryLogin:
		return "Problemas de login/conexão"
	case CategoryLag:
		return "Lag/Ping/Quedas"
	case CategoryCrash:
		return "Erros/Bugs/Crash"
	default:
		return "Sem categoria"
	}
}

// ParseCategory - 문자열을 Category로 변환 (알 수 없는 값은 CategoryNone)
func ParseCategory(s string) Category {
	switch Category(s) {
	case CategoryLogin, CategoryLag, CategoryCrash:
		return Category(s)
	default:
		return CategoryNone
	}
}

// Severity - 발생 횟수로만 결정되는 심각도 단계
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// Rank - 심각도 비교용 순위 (알 수 없는 값은 0)
func (s Severity) Rank() int {
	switch s {
	case SeverityLow:
		return 1
	case SeverityMedium:
		return 2
	case SeverityHigh:
		return 3
	default:
		return 0
	}
}

// ClassificationSource - 분류 결과를 만든 단계
type ClassificationSource string

const (
	SourceRule ClassificationSource = "rule"
	SourceAI   ClassificationSource = "ai"
)

// ClassificationResult - 이벤트별 분류 결과 (저장하지 않음)
type ClassificationResult struct {
	Category   Category
	Confidence float64 // 규칙 매칭은 1.0
	Annotation string
	Source     ClassificationSource
}

// Classified - Category가 확정되었는지 여부
func (r ClassificationResult) Classified() bool {
	return r.Category != "" && r.Category != CategoryNone
}

// Opinion - 외부 AI 분류 서비스의 검증된 응답
type Opinion struct {
	Label       Category
	Score       float64
	GameContext bool
	Summary     string
	Reasons     []string
}

// Example - 윈도우에 보관되는 메시지 샘플
type Example struct {
	Text       string    `json:"text"`
	OccurredAt time.Time `json:"occurredAt"`
	SourceRef  string    `json:"sourceRef,omitempty"`
}

// SinkHandle - 알림 싱크가 돌려준 메시지 식별자 (예: Slack ts)
type SinkHandle string

// SnapshotEvent - 스냅샷이 만들어진 계기
type SnapshotEvent string

const (
	SnapshotCreated SnapshotEvent = "created"
	SnapshotUpdated SnapshotEvent = "updated"
)

// WindowSnapshot - 알림 싱크로 전달되는 윈도우의 현재 상태
// 싱크는 이 값으로 알림을 새로 그리며, 윈도우 내부 상태에는 접근하지 않음
type WindowSnapshot struct {
	WindowID        string        `json:"window_id"`
	Event           SnapshotEvent `json:"event,omitempty"`
	Category        Category      `json:"category"`
	Label           string        `json:"label"`
	Count           int           `json:"count"`
	Severity        Severity      `json:"severity"`
	OpenedAt        time.Time     `json:"opened_at"`
	LastSeenAt      time.Time     `json:"last_seen_at"`
	WindowMinutes   int           `json:"window_minutes"`
	Examples        []Example     `json:"examples"`
	HiddenExamples  int           `json:"hidden_examples"`
	Annotation      string        `json:"annotation,omitempty"`
	DistinctAuthors int           `json:"distinct_authors"`
	TopKeywords     []string      `json:"top_keywords,omitempty"`
	Handle          SinkHandle    `json:"handle,omitempty"`
}

// WindowListResponse - GET /api/v1/windows 응답
type WindowListResponse struct {
	Status string           `json:"status"`
	Data   []WindowSnapshot `json:"data"`
}

// TotalExamples - 윈도우에 보관 중인 예시 수 (표시 + 숨김)
func (s WindowSnapshot) TotalExamples() int {
	return len(s.Examples) + s.HiddenExamples
}

// ContextSummary - 작성자 수와 상위 키워드로 만든 한 줄 요약
func (s WindowSnapshot) ContextSummary() string {
	if len(s.TopKeywords) == 0 {
		return "Múltiplos relatos de problemas detectados."
	}
	keywords := s.TopKeywords
	if len(keywords) > 3 {
		keywords = keywords[:3]
	}
	// 작성자 정보 없이 수집된 이벤트만 있는 경우
	if s.DistinctAuthors == 0 {
		return "Problemas relacionados a: " + strings.Join(keywords, ", ")
	}
	return fmt.Sprintf("%d usuário(s) reportando problemas relacionados a: %s", s.DistinctAuthors, strings.Join(keywords, ", "))
}
