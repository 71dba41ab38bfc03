// 알림 싱크 정의
//
// 싱크는 윈도우 스냅샷을 받아 알림을 새로 만들거나(Create) 다시 그림(Update)
// 싱크 실패는 Aggregator가 로그로 남기고 삼킴 (인메모리 윈도우 상태가 기준)
//
// 구현:
//   - SlackSink: chat.postMessage / chat.update (핸들 = 메시지 ts)
//   - LogSink: Slack 미설정 시 사용, 로그만 남김 (핸들 = 윈도우 ID)
//   - FanoutSink: 주 싱크 + 부가 알림(사용자 웹훅)을 함께 호출

package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/ffnexus/incident-watch/internal/model"
)

// ErrSinkUnavailable - 싱크 호출 실패
var ErrSinkUnavailable = errors.New("alert sink unavailable")

// Sink - 알림 싱크 인터페이스
type Sink interface {
	Create(ctx context.Context, snap model.WindowSnapshot) (model.SinkHandle, error)
	Update(ctx context.Context, handle model.SinkHandle, snap model.WindowSnapshot) error
}

// Notifier - 결과를 기다리지 않는 부가 알림 (실패는 내부에서 로그 처리)
type Notifier interface {
	Notify(ctx context.Context, snap model.WindowSnapshot)
}

// slackWindowClient - Slack 클라이언트 인터페이스
type slackWindowClient interface {
	PostWindow(ctx context.Context, snap model.WindowSnapshot) (string, error)
	UpdateWindow(ctx context.Context, ts string, snap model.WindowSnapshot) error
}

// SlackSink - Slack 메시지를 윈도우 알림으로 사용하는 싱크
type SlackSink struct {
	client slackWindowClient
}

func NewSlackSink(client slackWindowClient) *SlackSink {
	return &SlackSink{client: client}
}

func (s *SlackSink) Create(ctx context.Context, snap model.WindowSnapshot) (model.SinkHandle, error) {
	ts, err := s.client.PostWindow(ctx, snap)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrSinkUnavailable, err)
	}
	return model.SinkHandle(ts), nil
}

func (s *SlackSink) Update(ctx context.Context, handle model.SinkHandle, snap model.WindowSnapshot) error {
	if err := s.client.UpdateWindow(ctx, string(handle), snap); err != nil {
		return fmt.Errorf("%w: %v", ErrSinkUnavailable, err)
	}
	return nil
}

// LogSink - 외부 알림 없이 로그만 남기는 싱크
type LogSink struct {
	logger *slog.Logger
}

func NewLogSink(logger *slog.Logger) *LogSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogSink{logger: logger}
}

func (s *LogSink) Create(_ context.Context, snap model.WindowSnapshot) (model.SinkHandle, error) {
	s.log("incident alert opened", snap)
	return model.SinkHandle(snap.WindowID), nil
}

func (s *LogSink) Update(_ context.Context, _ model.SinkHandle, snap model.WindowSnapshot) error {
	s.log("incident alert updated", snap)
	return nil
}

func (s *LogSink) log(msg string, snap model.WindowSnapshot) {
	s.logger.Info(msg,
		"window_id", snap.WindowID,
		"category", snap.Category,
		"count", snap.Count,
		"severity", snap.Severity,
		"hidden_examples", snap.HiddenExamples,
		"annotation", snap.Annotation,
	)
}

// FanoutSink - 주 싱크가 핸들을 소유하고, 부가 알림은 비동기로 전달
//
// 부가 알림은 주 싱크의 성공 여부와 무관하게 매 스냅샷마다 예약됨
// 알림 대상마다 전송 루프는 하나뿐이고, 밀린 스냅샷은 윈도우별 최신 것만 남음
type FanoutSink struct {
	primary Sink
	queues  []*notifyQueue
	wg      sync.WaitGroup
}

func NewFanoutSink(primary Sink, notifiers ...Notifier) *FanoutSink {
	s := &FanoutSink{primary: primary}
	for _, n := range notifiers {
		s.queues = append(s.queues, &notifyQueue{
			notifier: n,
			pending:  make(map[string]model.WindowSnapshot),
		})
	}
	return s
}

func (s *FanoutSink) Create(ctx context.Context, snap model.WindowSnapshot) (model.SinkHandle, error) {
	handle, err := s.primary.Create(ctx, snap)
	snap.Handle = handle
	s.notify(snap)
	return handle, err
}

func (s *FanoutSink) Update(ctx context.Context, handle model.SinkHandle, snap model.WindowSnapshot) error {
	err := s.primary.Update(ctx, handle, snap)
	s.notify(snap)
	return err
}

// Wait - 예약된 부가 알림 완료 대기 (종료 시 사용)
func (s *FanoutSink) Wait() {
	s.wg.Wait()
}

func (s *FanoutSink) notify(snap model.WindowSnapshot) {
	for _, q := range s.queues {
		if q.push(snap) {
			s.wg.Add(1)
			go func(q *notifyQueue) {
				defer s.wg.Done()
				q.drain()
			}(q)
		}
	}
}

// notifyQueue - 알림 대상 하나의 대기열 (윈도우 ID별 최신 스냅샷)
type notifyQueue struct {
	notifier Notifier

	mu       sync.Mutex
	pending  map[string]model.WindowSnapshot
	order    []string
	draining bool

	// 윈도우별 마지막으로 전달한 Count (오래된 스냅샷 재전달 방지)
	sent map[string]int
}

// 추적하는 윈도우 수 상한 (넘으면 비움)
const maxSentWindows = 256

// push - 스냅샷을 대기열에 넣고, 전송 루프를 새로 시작해야 하면 true
func (q *notifyQueue) push(snap model.WindowSnapshot) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if prev, ok := q.pending[snap.WindowID]; ok {
		if snap.Count >= prev.Count {
			q.pending[snap.WindowID] = snap
		}
	} else {
		q.pending[snap.WindowID] = snap
		q.order = append(q.order, snap.WindowID)
	}

	if q.draining {
		return false
	}
	q.draining = true
	return true
}

func (q *notifyQueue) drain() {
	for {
		q.mu.Lock()
		if len(q.order) == 0 {
			q.draining = false
			q.mu.Unlock()
			return
		}
		id := q.order[0]
		q.order = q.order[1:]
		snap := q.pending[id]
		delete(q.pending, id)
		if q.sent == nil || len(q.sent) >= maxSentWindows {
			q.sent = make(map[string]int)
		}
		if last, ok := q.sent[id]; ok && snap.Count < last {
			q.mu.Unlock()
			continue
		}
		q.sent[id] = snap.Count
		q.mu.Unlock()

		q.notifier.Notify(context.Background(), snap)
	}
}
