// 분류된 이벤트를 유형별 알림 윈도우로 묶는 Aggregator
//
// 처리 흐름:
//  1. Merge: 유형별 잠금 안에서 윈도우 생성 또는 갱신, 스냅샷 생성
//  2. 싱크 호출: 잠금 밖에서 윈도우별 단일 전송 루프가 최신 스냅샷만 전달
//     (핸들이 없으면 Create, 있으면 Update)
//  3. Sweep: 주기적으로 만료된 윈도우를 레지스트리에서 제거
//
// 느린 싱크는 같은 유형의 Merge/Sweep/Snapshots를 막지 않음
// 전송 중에 쌓인 스냅샷은 가장 최신 것 하나로 합쳐짐
// 윈도우는 마지막 갱신 후 WindowDuration이 지나면 만료됨
// 만료 후 sweep 전에 도착한 이벤트는 빈 슬롯과 동일하게 새 윈도우를 생성
// 싱크 실패 시 윈도우 상태는 그대로 유지되고 다음 이벤트에서 재시도

package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/ffnexus/incident-watch/internal/classifier"
	"github.com/ffnexus/incident-watch/internal/clock"
	"github.com/ffnexus/incident-watch/internal/metrics"
	"github.com/ffnexus/incident-watch/internal/model"
	"github.com/google/uuid"
)

const (
	// 알림에 표시되는 최근 예시 수
	visibleExamples = 5
	// 예시 텍스트 최대 길이 (rune)
	maxExampleRunes = 300
	// 윈도우별로 추적하는 고유 작성자 상한
	maxTrackedAuthors = 512
	// 스냅샷에 담는 상위 키워드 수
	topKeywordCount = 5
)

// ErrUnknownCategory - 윈도우를 가질 수 없는 유형
var ErrUnknownCategory = errors.New("unknown incident category")

// Thresholds - 심각도 경계 (Medium 이상, High 이상)
type Thresholds struct {
	Medium int
	High   int
}

func DefaultThresholds() Thresholds {
	return Thresholds{Medium: 2, High: 6}
}

func (t Thresholds) Validate() error {
	if t.Medium < 2 || t.High <= t.Medium {
		return fmt.Errorf("invalid severity thresholds: medium=%d high=%d", t.Medium, t.High)
	}
	return nil
}

// Severity - 발생 횟수만으로 결정되는 심각도
func (t Thresholds) Severity(count int) model.Severity {
	switch {
	case count >= t.High:
		return model.SeverityHigh
	case count >= t.Medium:
		return model.SeverityMedium
	default:
		return model.SeverityLow
	}
}

// AggregatorConfig - Aggregator 설정 (생성 후 변경 불가)
type AggregatorConfig struct {
	WindowDuration  time.Duration
	Thresholds      Thresholds
	ExampleCapacity int
	SweepInterval   time.Duration
	SinkTimeout     time.Duration
}

func DefaultAggregatorConfig() AggregatorConfig {
	return AggregatorConfig{
		WindowDuration:  10 * time.Minute,
		Thresholds:      DefaultThresholds(),
		ExampleCapacity: 12,
		SweepInterval:   5 * time.Second,
		SinkTimeout:     10 * time.Second,
	}
}

// alertWindow - 유형별 알림 윈도우 (slot 잠금 안에서만 접근)
type alertWindow struct {
	id            string
	category      model.Category
	openedAt      time.Time
	lastUpdatedAt time.Time
	count         int
	examples      []model.Example
	annotation    string
	authors       map[string]struct{}
	handle        model.SinkHandle

	// 전송 대기 중인 최신 스냅샷과 전송 루프 실행 여부
	pending  *model.WindowSnapshot
	emitting bool
}

type slot struct {
	mu     sync.Mutex
	window *alertWindow
}

// Aggregator 구조체 정의
type Aggregator struct {
	cfg     AggregatorConfig
	sink    Sink
	clock   clock.Clock
	logger  *slog.Logger
	metrics *metrics.Metrics

	// 생성 시 모든 유형의 슬롯을 채워두므로 map 자체는 읽기 전용
	slots  map[model.Category]*slot
	active atomic.Int64

	emits sync.WaitGroup
}

// AggregatorOption - Aggregator 생성 옵션
type AggregatorOption func(*Aggregator)

func WithClock(c clock.Clock) AggregatorOption {
	return func(a *Aggregator) { a.clock = c }
}

func WithAggregatorLogger(l *slog.Logger) AggregatorOption {
	return func(a *Aggregator) { a.logger = l }
}

func WithAggregatorMetrics(m *metrics.Metrics) AggregatorOption {
	return func(a *Aggregator) { a.metrics = m }
}

// Aggregator 객체 생성
func NewAggregator(cfg AggregatorConfig, sink Sink, opts ...AggregatorOption) (*Aggregator, error) {
	if sink == nil {
		return nil, fmt.Errorf("aggregator: sink is nil")
	}
	if cfg.WindowDuration <= 0 {
		return nil, fmt.Errorf("aggregator: window duration must be positive")
	}
	if err := cfg.Thresholds.Validate(); err != nil {
		return nil, fmt.Errorf("aggregator: %w", err)
	}
	if cfg.ExampleCapacity < 1 {
		return nil, fmt.Errorf("aggregator: example capacity must be at least 1")
	}
	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = DefaultAggregatorConfig().SweepInterval
	}
	if cfg.SinkTimeout <= 0 {
		cfg.SinkTimeout = DefaultAggregatorConfig().SinkTimeout
	}

	a := &Aggregator{
		cfg:    cfg,
		sink:   sink,
		clock:  clock.Real(),
		logger: slog.Default(),
		slots:  make(map[model.Category]*slot, len(model.Categories)),
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.clock == nil {
		a.clock = clock.Real()
	}
	if a.logger == nil {
		a.logger = slog.Default()
	}
	for _, c := range model.Categories {
		a.slots[c] = &slot{}
	}
	return a, nil
}

// Merge - 분류된 이벤트를 해당 유형의 윈도우에 반영하고 싱크 전송을 예약
//
// 반환되는 스냅샷의 Event로 생성/갱신 여부를 구분
// 싱크 호출은 기다리지 않음 (Handle은 Merge 시점에 알려진 핸들)
// 싱크 실패는 로그로만 남기며 에러로 반환하지 않음
func (a *Aggregator) Merge(ctx context.Context, category model.Category, ev model.IncidentEvent, annotation string) (model.WindowSnapshot, error) {
	s, ok := a.slots[category]
	if !ok {
		return model.WindowSnapshot{}, fmt.Errorf("%w: %q", ErrUnknownCategory, category)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := a.clock.Now()
	w := s.window
	event := model.SnapshotUpdated

	if w != nil && a.expired(w, now) {
		a.logger.Debug("window expired before sweep",
			"category", category,
			"window_id", w.id,
			"count", w.count,
		)
		s.window = nil
		a.active.Add(-1)
		w = nil
	}

	if w == nil {
		w = &alertWindow{
			id:       uuid.NewString(),
			category: category,
			openedAt: now,
			authors:  make(map[string]struct{}),
		}
		s.window = w
		a.active.Add(1)
		event = model.SnapshotCreated
	}

	w.count++
	w.lastUpdatedAt = now
	w.addExample(model.Example{
		Text:       truncateRunes(strings.TrimSpace(ev.Text), maxExampleRunes),
		OccurredAt: ev.OccurredAt,
		SourceRef:  ev.SourceRef,
	}, a.cfg.ExampleCapacity)
	if ev.AuthorRef != "" && len(w.authors) < maxTrackedAuthors {
		w.authors[ev.AuthorRef] = struct{}{}
	}
	if annotation != "" {
		w.annotation = annotation
	}

	snap := a.snapshot(w, event)
	snap.Handle = w.handle
	a.schedule(context.WithoutCancel(ctx), s, w, snap)
	a.metrics.SetActiveWindows(int(a.active.Load()))

	a.logger.Info("incident window "+string(event),
		"category", category,
		"window_id", w.id,
		"count", w.count,
		"severity", snap.Severity,
		"handle", w.handle,
	)
	return snap, nil
}

// schedule - 최신 스냅샷을 대기열에 두고, 전송 루프가 없으면 시작
// 호출자가 slot 잠금을 보유한 상태여야 함
func (a *Aggregator) schedule(ctx context.Context, s *slot, w *alertWindow, snap model.WindowSnapshot) {
	w.pending = &snap
	if w.emitting {
		return
	}
	w.emitting = true
	a.emits.Add(1)
	go a.drain(ctx, s, w)
}

// drain - 윈도우 하나의 전송 루프
// 한 번에 하나의 싱크 호출만 진행되므로 Create가 중복되지 않음
func (a *Aggregator) drain(ctx context.Context, s *slot, w *alertWindow) {
	defer a.emits.Done()
	for {
		s.mu.Lock()
		snap := w.pending
		if snap == nil {
			w.emitting = false
			s.mu.Unlock()
			return
		}
		w.pending = nil
		handle := w.handle
		s.mu.Unlock()

		created := a.emit(ctx, w, handle, *snap)

		if created != "" {
			s.mu.Lock()
			w.handle = created
			s.mu.Unlock()
		}
	}
}

// emit - 핸들이 없으면 Create, 있으면 Update
// Create 성공 시 새 핸들 반환, 실패하면 다음 이벤트에서 다시 Create
func (a *Aggregator) emit(ctx context.Context, w *alertWindow, handle model.SinkHandle, snap model.WindowSnapshot) (created model.SinkHandle) {
	defer func() {
		if r := recover(); r != nil {
			a.metrics.SinkCall("emit", "panic")
			a.logger.Error("panic in alert sink", "window_id", w.id, "panic", r)
			created = ""
		}
	}()

	sctx, cancel := context.WithTimeout(ctx, a.cfg.SinkTimeout)
	defer cancel()

	snap.Handle = handle
	if handle == "" {
		snap.Event = model.SnapshotCreated
		h, err := a.sink.Create(sctx, snap)
		if err != nil || h == "" {
			a.metrics.SinkCall("create", "error")
			a.logger.Warn("alert sink create failed, will retry on next event",
				"category", w.category,
				"window_id", w.id,
				"count", snap.Count,
				"error", err,
			)
			return ""
		}
		a.metrics.SinkCall("create", "ok")
		return h
	}

	snap.Event = model.SnapshotUpdated
	if err := a.sink.Update(sctx, handle, snap); err != nil {
		a.metrics.SinkCall("update", "error")
		a.logger.Warn("alert sink update failed, will retry on next event",
			"category", w.category,
			"window_id", w.id,
			"handle", handle,
			"count", snap.Count,
			"error", err,
		)
		return ""
	}
	a.metrics.SinkCall("update", "ok")
	return ""
}

// Wait - 예약된 싱크 전송이 모두 끝날 때까지 대기 (종료 시 사용)
func (a *Aggregator) Wait() {
	a.emits.Wait()
}

// Sweep - 만료된 윈도우를 레지스트리에서 제거하고 제거 수 반환
// 제거 시 싱크 호출은 하지 않음
func (a *Aggregator) Sweep() int {
	now := a.clock.Now()
	evicted := 0
	for _, c := range model.Categories {
		s := a.slots[c]
		s.mu.Lock()
		if w := s.window; w != nil && a.expired(w, now) {
			s.window = nil
			a.active.Add(-1)
			evicted++
			a.logger.Info("incident window expired",
				"category", c,
				"window_id", w.id,
				"count", w.count,
				"handle", w.handle,
			)
		}
		s.mu.Unlock()
	}
	if evicted > 0 {
		a.metrics.SetActiveWindows(int(a.active.Load()))
	}
	return evicted
}

// Run - SweepInterval마다 Sweep 실행 (ctx 종료 시 반환)
func (a *Aggregator) Run(ctx context.Context) error {
	ticker := a.clock.NewTicker(a.cfg.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			a.Sweep()
		}
	}
}

// Snapshots - 활성 윈도우의 현재 상태 (유형 평가 순서대로)
func (a *Aggregator) Snapshots() []model.WindowSnapshot {
	now := a.clock.Now()
	out := make([]model.WindowSnapshot, 0, len(model.Categories))
	for _, c := range model.Categories {
		s := a.slots[c]
		s.mu.Lock()
		if w := s.window; w != nil && !a.expired(w, now) {
			snap := a.snapshot(w, "")
			snap.Handle = w.handle
			out = append(out, snap)
		}
		s.mu.Unlock()
	}
	return out
}

func (a *Aggregator) expired(w *alertWindow, now time.Time) bool {
	return now.Sub(w.lastUpdatedAt) >= a.cfg.WindowDuration
}

// snapshot - 싱크 전달용 복사본 (윈도우 내부 슬라이스를 공유하지 않음)
func (a *Aggregator) snapshot(w *alertWindow, event model.SnapshotEvent) model.WindowSnapshot {
	start := 0
	if len(w.examples) > visibleExamples {
		start = len(w.examples) - visibleExamples
	}
	examples := make([]model.Example, len(w.examples)-start)
	copy(examples, w.examples[start:])

	return model.WindowSnapshot{
		WindowID:        w.id,
		Event:           event,
		Category:        w.category,
		Label:           w.category.Label(),
		Count:           w.count,
		Severity:        a.cfg.Thresholds.Severity(w.count),
		OpenedAt:        w.openedAt,
		LastSeenAt:      w.lastUpdatedAt,
		WindowMinutes:   int(a.cfg.WindowDuration / time.Minute),
		Examples:        examples,
		HiddenExamples:  start,
		Annotation:      w.annotation,
		DistinctAuthors: len(w.authors),
		TopKeywords:     topKeywords(w.examples, topKeywordCount),
	}
}

// addExample - FIFO, capacity 초과 시 가장 오래된 예시 제거
func (w *alertWindow) addExample(ex model.Example, capacity int) {
	w.examples = append(w.examples, ex)
	if over := len(w.examples) - capacity; over > 0 {
		copy(w.examples, w.examples[over:])
		w.examples = w.examples[:capacity]
	}
}

// topKeywords - 예시에 자주 등장한 단어 (4글자 이상), 빈도 내림차순
// 빈도가 같으면 먼저 등장한 단어 우선
func topKeywords(examples []model.Example, n int) []string {
	type entry struct {
		word  string
		count int
		first int
	}
	seen := make(map[string]*entry)
	order := 0
	for _, ex := range examples {
		words := strings.FieldsFunc(classifier.Normalize(ex.Text), func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsDigit(r)
		})
		for _, word := range words {
			if utf8.RuneCountInString(word) <= 3 {
				continue
			}
			if e, ok := seen[word]; ok {
				e.count++
				continue
			}
			seen[word] = &entry{word: word, count: 1, first: order}
			order++
		}
	}

	entries := make([]*entry, 0, len(seen))
	for _, e := range seen {
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].count != entries[j].count {
			return entries[i].count > entries[j].count
		}
		return entries[i].first < entries[j].first
	})

	if len(entries) > n {
		entries = entries[:n]
	}
	if len(entries) == 0 {
		return nil
	}
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.word
	}
	return out
}

func truncateRunes(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	r := []rune(s)
	return string(r[:max])
}
