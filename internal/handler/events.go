package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ffnexus/incident-watch/internal/metrics"
	"github.com/ffnexus/incident-watch/internal/model"
)

const (
	maxIngestBody   = 1 << 20
	maxIngestEvents = 500

	// 요청 하나가 빈 워커를 기다리는 최대 시간
	ingestWaitTimeout = 5 * time.Second
)

// eventSubmitter - 이벤트 파이프라인 인터페이스
type eventSubmitter interface {
	Submit(ctx context.Context, ev model.IncidentEvent) bool
}

// EventHandler - 채팅 이벤트 수집 핸들러
type EventHandler struct {
	svc     eventSubmitter
	logger  *slog.Logger
	metrics *metrics.Metrics
}

func NewEventHandler(svc eventSubmitter, logger *slog.Logger, m *metrics.Metrics) *EventHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &EventHandler{svc: svc, logger: logger, metrics: m}
}

// IngestEvents godoc
// @Summary Ingest chat events
// @Description Accepts a single IncidentEvent or {"events":[...]}; processing is asynchronous.
// @Description Waits up to 5s for a free worker; events still waiting after that are reported as busy
// @Tags events
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body model.IngestRequest true "Events"
// @Success 202 {object} model.IngestResponse
// @Failure 400,401,413 {object} model.ErrorResponse
// @Failure 503 {object} model.IngestResponse
// @Router /api/v1/events [post]
func (h *EventHandler) IngestEvents(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxIngestBody+1))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read body"})
		return
	}
	if len(body) > maxIngestBody {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "payload too large"})
		return
	}

	events, err := decodeEvents(body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if len(events) > maxIngestEvents {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": fmt.Sprintf("at most %d events per request", maxIngestEvents)})
		return
	}

	// 1. 필수 필드 검증 후 워커 풀에 제출 (빈 워커가 없으면 ingestWaitTimeout까지 대기)
	ctx, cancel := context.WithTimeout(c.Request.Context(), ingestWaitTimeout)
	defer cancel()
	resp := model.IngestResponse{Status: "accepted"}
	busy := 0
	for i, ev := range events {
		if err := ev.Validate(); err != nil {
			h.metrics.Event("malformed")
			resp.Rejected++
			resp.Errors = append(resp.Errors, fmt.Sprintf("events[%d]: %v", i, err))
			continue
		}
		if !h.svc.Submit(ctx, ev) {
			busy++
			resp.Rejected++
			resp.Errors = append(resp.Errors, fmt.Sprintf("events[%d]: pipeline busy", i))
			continue
		}
		resp.Accepted++
	}

	// 2. 응답 코드 결정
	switch {
	case resp.Accepted == 0 && busy > 0:
		h.logger.Warn("ingest rejected, pipeline saturated", "events", len(events))
		resp.Status = "busy"
		c.JSON(http.StatusServiceUnavailable, resp)
	case resp.Accepted == 0:
		resp.Status = "rejected"
		c.JSON(http.StatusBadRequest, resp)
	default:
		c.JSON(http.StatusAccepted, resp)
	}
}

// decodeEvents - 단건 객체, {"events":[...]}, 배열 형태를 모두 허용
func decodeEvents(body []byte) ([]model.IncidentEvent, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("empty body")
	}

	if trimmed[0] == '[' {
		var events []model.IncidentEvent
		if err := json.Unmarshal(trimmed, &events); err != nil {
			return nil, fmt.Errorf("invalid payload: %w", err)
		}
		return events, nil
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &fields); err != nil {
		return nil, fmt.Errorf("invalid payload: %w", err)
	}
	if _, ok := fields["events"]; ok {
		var req model.IngestRequest
		if err := json.Unmarshal(trimmed, &req); err != nil {
			return nil, fmt.Errorf("invalid payload: %w", err)
		}
		return req.Events, nil
	}

	var ev model.IncidentEvent
	if err := json.Unmarshal(trimmed, &ev); err != nil {
		return nil, fmt.Errorf("invalid payload: %w", err)
	}
	return []model.IncidentEvent{ev}, nil
}
