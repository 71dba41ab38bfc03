// 채팅 수집기(chat transport)가 전달하는 이벤트 페이로드 정의
// handler, ingest, service 레이어에서 공통으로 사용하기 때문에 model 레이어에 별도로 정의

package model

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrMalformedEvent - 필수 필드가 빠진 이벤트 (ingest 경계에서 거부)
var ErrMalformedEvent = errors.New("malformed event")

// IncidentEvent - 채널에서 수집된 개별 메시지
// 수집기가 생성하며 불변, 파이프라인에서 한 번만 소비됨
type IncidentEvent struct {
	// 메시지 본문 (원문 그대로)
	Text string `json:"text"`

	// OccurredAt: 메시지 작성 시각
	OccurredAt time.Time `json:"occurredAt"`

	// SourceRef: 원본 메시지 링크 (예: https://discord.com/channels/...)
	SourceRef string `json:"sourceRef,omitempty"`

	// AuthorRef: 작성자 식별자 (불투명 값, 고유 작성자 수 집계에만 사용)
	AuthorRef string `json:"authorRef,omitempty"`
}

// Validate - 필수 필드 체크
func (e IncidentEvent) Validate() error {
	if strings.TrimSpace(e.Text) == "" {
		return fmt.Errorf("%w: text is required", ErrMalformedEvent)
	}
	if e.OccurredAt.IsZero() {
		return fmt.Errorf("%w: occurredAt is required", ErrMalformedEvent)
	}
	return nil
}

// IngestRequest - POST /api/v1/events 배치 페이로드
// 단건 이벤트는 IncidentEvent 형태 그대로 전송 가능
type IngestRequest struct {
	Events []IncidentEvent `json:"events"`
}

// IngestResponse - 수집 결과 (처리는 비동기)
type IngestResponse struct {
	Status   string   `json:"status"`
	Accepted int      `json:"accepted"`
	Rejected int      `json:"rejected"`
	Errors   []string `json:"errors,omitempty"`
}
