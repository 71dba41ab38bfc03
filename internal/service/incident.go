// 채팅 이벤트 처리 파이프라인
//
// 처리 흐름:
//  1. 필수 필드 검증 (malformed)
//  2. Guard 필터 (rejected, 조용히 종료)
//  3. 규칙 분류 (Login -> Lag -> Crash)
//  4. 필요 시 AI 의견으로 Login 승격 또는 메모 추가 (실패해도 규칙 결과 유지)
//  5. 분류되지 않으면 종료 (unclassified)
//  6. Aggregator에 반영 (created / updated)
//
// 한 이벤트의 실패(패닉 포함)가 다른 이벤트나 프로세스에 영향을 주지 않음

package service

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/ffnexus/incident-watch/internal/classifier"
	"github.com/ffnexus/incident-watch/internal/metrics"
	"github.com/ffnexus/incident-watch/internal/model"
)

// Outcome - 이벤트 하나의 처리 결과
type Outcome string

const (
	OutcomeMalformed    Outcome = "malformed"
	OutcomeRejected     Outcome = "rejected"
	OutcomeUnclassified Outcome = "unclassified"
	OutcomeCreated      Outcome = "created"
	OutcomeUpdated      Outcome = "updated"
	OutcomeFailed       Outcome = "failed"
)

// IncidentService 구조체 정의
type IncidentService struct {
	// 키워드 갱신 시 통째로 교체 (Guard 자체는 불변)
	guard atomic.Pointer[classifier.Guard]
	rules *classifier.Rules
	ai    *AIAdapter
	agg   *Aggregator

	logger  *slog.Logger
	metrics *metrics.Metrics

	sem chan struct{}
	wg  sync.WaitGroup
}

// IncidentOptions - IncidentService 설정
type IncidentOptions struct {
	// 동시에 처리하는 이벤트 수 (Submit 전용)
	Workers int
	Logger  *slog.Logger
	Metrics *metrics.Metrics
}

// IncidentService 객체 생성 (ai가 nil이면 규칙 분류만 사용)
func NewIncidentService(guard *classifier.Guard, rules *classifier.Rules, ai *AIAdapter, agg *Aggregator, opts IncidentOptions) *IncidentService {
	if opts.Workers < 1 {
		opts.Workers = 16
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	s := &IncidentService{
		rules:   rules,
		ai:      ai,
		agg:     agg,
		logger:  opts.Logger,
		metrics: opts.Metrics,
		sem:     make(chan struct{}, opts.Workers),
	}
	s.guard.Store(guard)
	return s
}

// SetGuard - Guard 교체 (처리 중인 이벤트는 이전 Guard로 끝까지 진행)
func (s *IncidentService) SetGuard(g *classifier.Guard) {
	if g != nil {
		s.guard.Store(g)
	}
}

// Handle - 이벤트 하나를 동기적으로 처리
func (s *IncidentService) Handle(ctx context.Context, ev model.IncidentEvent) (out Outcome) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("panic while handling incident event", "panic", r, "source_ref", ev.SourceRef)
			out = OutcomeFailed
		}
		s.metrics.Event(string(out))
	}()

	// 1. 필수 필드 검증
	if err := ev.Validate(); err != nil {
		s.logger.Debug("incident event rejected", "reason", "malformed", "error", err)
		return OutcomeMalformed
	}

	// 2. Guard 필터
	if reason := s.guard.Load().Check(ev.Text); reason != classifier.ReasonPassed {
		s.logger.Debug("incident event rejected", "reason", reason)
		return OutcomeRejected
	}

	// 3. 규칙 분류
	normalized := classifier.Normalize(ev.Text)
	result := s.rules.Classify(normalized)

	// 4. AI 의견 (승격/메모)
	if s.ai.ShouldConsult(result) {
		op := s.ai.Classify(ctx, ev.Text, aiHint, aiLang)
		result = s.ai.Decide(result, op, s.rules.MentionsDomain(normalized))
	}

	// 5. 미분류 종료
	if !result.Classified() {
		s.logger.Debug("incident event unclassified")
		return OutcomeUnclassified
	}
	s.metrics.Classified(string(result.Category), string(result.Source))

	// 6. 윈도우 반영
	snap, err := s.agg.Merge(ctx, result.Category, ev, result.Annotation)
	if err != nil {
		s.logger.Error("failed to merge incident event", "category", result.Category, "error", err)
		return OutcomeFailed
	}
	if snap.Event == model.SnapshotCreated {
		return OutcomeCreated
	}
	return OutcomeUpdated
}

// Submit - 워커 풀에서 비동기 처리
// 빈 워커가 없으면 ctx가 끝날 때까지 기다리고, 끝나면 false를 반환 (이벤트는 처리하지 않음)
// 처리 자체는 ctx와 무관하게 끝까지 진행
func (s *IncidentService) Submit(ctx context.Context, ev model.IncidentEvent) bool {
	select {
	case s.sem <- struct{}{}:
	default:
		select {
		case s.sem <- struct{}{}:
		case <-ctx.Done():
			return false
		}
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer func() { <-s.sem }()
		s.Handle(context.WithoutCancel(ctx), ev)
	}()
	return true
}

// Wait - Submit으로 시작된 처리와 예약된 알림 전송이 모두 끝날 때까지 대기
func (s *IncidentService) Wait() {
	s.wg.Wait()
	s.agg.Wait()
}

// Snapshots - 활성 윈도우 조회
func (s *IncidentService) Snapshots() []model.WindowSnapshot {
	return s.agg.Snapshots()
}
