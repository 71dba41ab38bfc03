// Package template provides webhook body template rendering.
//
// 지원하는 변수 형식:
//
//	{{window.id}}, {{window.event}}, {{window.category}}, {{window.label}},
//	{{window.count}}, {{window.severity}}, {{window.opened_at}},
//	{{window.last_seen_at}}, {{window.annotation}}, {{window.examples}},
//	{{window.summary}}
//
// 치환 값은 JSON 문자열 리터럴 안에 그대로 넣을 수 있도록 escape 됩니다.
// (예: "text": "{{window.examples}}")
package template

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/ffnexus/incident-watch/internal/model"
)

// WindowData - 템플릿 렌더링에 사용할 윈도우 데이터
type WindowData struct {
	ID         string
	Event      string
	Category   string
	Label      string
	Count      int
	Severity   string
	OpenedAt   time.Time
	LastSeenAt time.Time
	Annotation string
	Examples   []string
	Summary    string
}

// WindowDataFromSnapshot - model.WindowSnapshot에서 WindowData 생성
func WindowDataFromSnapshot(snap model.WindowSnapshot) WindowData {
	examples := make([]string, 0, len(snap.Examples))
	for _, ex := range snap.Examples {
		examples = append(examples, ex.Text)
	}
	return WindowData{
		ID:         snap.WindowID,
		Event:      string(snap.Event),
		Category:   string(snap.Category),
		Label:      snap.Label,
		Count:      snap.Count,
		Severity:   string(snap.Severity),
		OpenedAt:   snap.OpenedAt,
		LastSeenAt: snap.LastSeenAt,
		Annotation: snap.Annotation,
		Examples:   examples,
		Summary:    snap.ContextSummary(),
	}
}

// RenderBody - webhook body 템플릿의 변수를 실제 값으로 치환
//
// window가 nil이면 모든 변수는 빈 문자열로 치환됩니다.
func RenderBody(body string, window *WindowData) string {
	var w WindowData
	if window != nil {
		w = *window
	}

	pairs := []string{
		"{{window.id}}", escape(w.ID),
		"{{window.event}}", escape(w.Event),
		"{{window.category}}", escape(w.Category),
		"{{window.label}}", escape(w.Label),
		"{{window.count}}", count(w, window != nil),
		"{{window.severity}}", escape(w.Severity),
		"{{window.opened_at}}", timestamp(w.OpenedAt),
		"{{window.last_seen_at}}", timestamp(w.LastSeenAt),
		"{{window.annotation}}", escape(w.Annotation),
		"{{window.examples}}", escape(strings.Join(w.Examples, "\n")),
		"{{window.summary}}", escape(w.Summary),
	}
	return strings.NewReplacer(pairs...).Replace(body)
}

func count(w WindowData, present bool) string {
	if !present {
		return ""
	}
	return strconv.Itoa(w.Count)
}

func timestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

// escape - JSON 문자열 내부 표현 (따옴표 제외)
func escape(s string) string {
	if s == "" {
		return ""
	}
	b, err := json.Marshal(s)
	if err != nil {
		return ""
	}
	return string(b[1 : len(b)-1])
}
