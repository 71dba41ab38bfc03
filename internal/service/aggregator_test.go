package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ffnexus/incident-watch/internal/model"
)

func TestThresholdsSeverity(t *testing.T) {
	th := DefaultThresholds()
	tests := []struct {
		count int
		want  model.Severity
	}{
		{1, model.SeverityLow},
		{2, model.SeverityMedium},
		{5, model.SeverityMedium},
		{6, model.SeverityHigh},
		{40, model.SeverityHigh},
	}
	for _, tt := range tests {
		if got := th.Severity(tt.count); got != tt.want {
			t.Errorf("Severity(%d) = %s, want %s", tt.count, got, tt.want)
		}
	}

	for _, bad := range []Thresholds{{Medium: 1, High: 6}, {Medium: 4, High: 4}, {Medium: 5, High: 3}} {
		if err := bad.Validate(); err == nil {
			t.Errorf("Validate(%+v) = nil, want error", bad)
		}
	}
	if err := th.Validate(); err != nil {
		t.Errorf("Validate(default) error = %v", err)
	}
}

func TestAggregatorCreateThenUpdate(t *testing.T) {
	sink := &fakeSink{}
	agg, _ := newTestAggregator(t, sink, DefaultAggregatorConfig())
	ctx := context.Background()

	snap, err := agg.Merge(ctx, model.CategoryLogin, testEvent("não consigo entrar no jogo, ff caiu", 0), "")
	if err != nil {
		t.Fatalf("Merge() error = %v", err)
	}
	if snap.Event != model.SnapshotCreated || snap.Count != 1 || snap.Severity != model.SeverityLow {
		t.Fatalf("first snapshot = %+v", snap)
	}
	agg.Wait()
	if sink.count("create") != 1 || sink.count("update") != 0 {
		t.Fatalf("sink calls = %+v", sink.all())
	}

	for i := 1; i <= 5; i++ {
		snap, err = agg.Merge(ctx, model.CategoryLogin, testEvent(fmt.Sprintf("ff caiu de novo %d", i), i), "")
		if err != nil {
			t.Fatalf("Merge() error = %v", err)
		}
		agg.Wait()
	}

	if snap.Event != model.SnapshotUpdated || snap.Count != 6 || snap.Severity != model.SeverityHigh {
		t.Fatalf("final snapshot = %+v", snap)
	}
	if sink.count("create") != 1 || sink.count("update") != 5 {
		t.Fatalf("create=%d update=%d, want 1/5", sink.count("create"), sink.count("update"))
	}

	last := sink.last()
	if last.handle != "h-1" {
		t.Fatalf("update handle = %q, want h-1", last.handle)
	}
	if last.snap.Severity != model.SeverityHigh || len(last.snap.Examples) != 5 || last.snap.HiddenExamples != 1 {
		t.Fatalf("last payload: severity=%s examples=%d hidden=%d", last.snap.Severity, len(last.snap.Examples), last.snap.HiddenExamples)
	}
	if last.snap.Examples[4].Text != "ff caiu de novo 5" {
		t.Fatalf("newest example = %q", last.snap.Examples[4].Text)
	}
	if last.snap.DistinctAuthors != 3 {
		t.Fatalf("DistinctAuthors = %d, want 3", last.snap.DistinctAuthors)
	}
}

func TestAggregatorSeverityProgression(t *testing.T) {
	sink := &fakeSink{}
	agg, _ := newTestAggregator(t, sink, DefaultAggregatorConfig())

	want := []model.Severity{
		model.SeverityLow, model.SeverityMedium, model.SeverityMedium,
		model.SeverityMedium, model.SeverityMedium, model.SeverityHigh, model.SeverityHigh,
	}
	for i, sev := range want {
		snap, _ := agg.Merge(context.Background(), model.CategoryLag, testEvent("muito lag no ff", i), "")
		if snap.Count != i+1 || snap.Severity != sev {
			t.Fatalf("event %d: count=%d severity=%s, want %d/%s", i, snap.Count, snap.Severity, i+1, sev)
		}
	}
}

func TestAggregatorExpiryStartsNewWindow(t *testing.T) {
	sink := &fakeSink{}
	cfg := DefaultAggregatorConfig()
	agg, fc := newTestAggregator(t, sink, cfg)
	ctx := context.Background()

	first, _ := agg.Merge(ctx, model.CategoryLogin, testEvent("ff caiu galera", 0), "")
	agg.Wait()
	agg.Merge(ctx, model.CategoryLogin, testEvent("ff caiu aqui tambem", 1), "")
	agg.Wait()

	// 마지막 갱신 후 정확히 WindowDuration 경과 (sweep 전)
	fc.Advance(cfg.WindowDuration)

	second, _ := agg.Merge(ctx, model.CategoryLogin, testEvent("ff caiu de novo", 2), "")
	if second.Event != model.SnapshotCreated || second.Count != 1 {
		t.Fatalf("after expiry: event=%s count=%d, want created/1", second.Event, second.Count)
	}
	if second.WindowID == first.WindowID {
		t.Fatal("expected a new window id")
	}
	if second.Handle != "" {
		t.Fatalf("new window inherited handle %q", second.Handle)
	}
	agg.Wait()
	if snaps := agg.Snapshots(); len(snaps) != 1 || snaps[0].Handle != "h-2" {
		t.Fatalf("snapshots = %+v, want handle h-2", snaps)
	}

	agg.Merge(ctx, model.CategoryLogin, testEvent("ff caiu mais uma vez", 3), "")
	agg.Wait()
	for _, c := range sink.all()[2:] {
		if c.handle == "h-1" {
			t.Fatal("expired window's handle received an update")
		}
	}
}

func TestAggregatorSweep(t *testing.T) {
	sink := &fakeSink{}
	cfg := DefaultAggregatorConfig()
	agg, fc := newTestAggregator(t, sink, cfg)

	agg.Merge(context.Background(), model.CategoryCrash, testEvent("ff cheio de bug", 0), "")
	agg.Merge(context.Background(), model.CategoryLogin, testEvent("ff caiu", 1), "")

	fc.Advance(cfg.WindowDuration - time.Second)
	if n := agg.Sweep(); n != 0 {
		t.Fatalf("Sweep() = %d before expiry, want 0", n)
	}
	if got := len(agg.Snapshots()); got != 2 {
		t.Fatalf("Snapshots() = %d, want 2", got)
	}

	fc.Advance(time.Second)
	if n := agg.Sweep(); n != 2 {
		t.Fatalf("Sweep() = %d, want 2", n)
	}
	if got := len(agg.Snapshots()); got != 0 {
		t.Fatalf("Snapshots() = %d after sweep, want 0", got)
	}
	agg.Wait()
	if sink.count("update") != 0 {
		t.Fatal("eviction must not notify the sink")
	}
}

func TestAggregatorRunSweepsPeriodically(t *testing.T) {
	cfg := DefaultAggregatorConfig()
	cfg.SweepInterval = time.Minute
	agg, fc := newTestAggregator(t, &fakeSink{}, cfg)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- agg.Run(ctx) }()

	agg.Merge(context.Background(), model.CategoryLogin, testEvent("ff caiu", 0), "")

	deadline := time.Now().Add(2 * time.Second)
	for agg.active.Load() != 0 {
		if time.Now().After(deadline) {
			t.Fatal("window was not swept")
		}
		fc.Advance(cfg.SweepInterval)
		time.Sleep(time.Millisecond)
	}

	cancel()
	if err := <-done; err != nil {
		t.Fatalf("Run() error = %v", err)
	}
}

func TestAggregatorExampleCapacity(t *testing.T) {
	sink := &fakeSink{}
	agg, _ := newTestAggregator(t, sink, DefaultAggregatorConfig())

	var snap model.WindowSnapshot
	for i := 1; i <= 15; i++ {
		snap, _ = agg.Merge(context.Background(), model.CategoryLogin, testEvent(fmt.Sprintf("msg %d", i), i), "")
	}

	w := agg.slots[model.CategoryLogin].window
	if len(w.examples) != 12 {
		t.Fatalf("retained examples = %d, want 12", len(w.examples))
	}
	if w.examples[0].Text != "msg 4" {
		t.Fatalf("oldest retained = %q, want msg 4", w.examples[0].Text)
	}
	if snap.HiddenExamples != 7 || snap.Examples[0].Text != "msg 11" {
		t.Fatalf("hidden=%d first visible=%q", snap.HiddenExamples, snap.Examples[0].Text)
	}
	if snap.Count != 15 {
		t.Fatalf("Count = %d, want 15", snap.Count)
	}
}

func TestAggregatorExampleTruncation(t *testing.T) {
	agg, _ := newTestAggregator(t, &fakeSink{}, DefaultAggregatorConfig())
	long := ""
	for i := 0; i < 400; i++ {
		long += "é"
	}
	snap, _ := agg.Merge(context.Background(), model.CategoryLogin, testEvent(long, 0), "")
	if got := len([]rune(snap.Examples[0].Text)); got != 300 {
		t.Fatalf("example length = %d runes, want 300", got)
	}
}

func TestAggregatorCreateFailureRetries(t *testing.T) {
	sink := &fakeSink{}
	sink.setFail(true, false)
	agg, _ := newTestAggregator(t, sink, DefaultAggregatorConfig())
	ctx := context.Background()

	first, _ := agg.Merge(ctx, model.CategoryLogin, testEvent("ff caiu", 0), "")
	agg.Wait()
	if snaps := agg.Snapshots(); snaps[0].Handle != "" {
		t.Fatalf("handle = %q after failed create, want empty", snaps[0].Handle)
	}

	sink.setFail(false, false)
	second, _ := agg.Merge(ctx, model.CategoryLogin, testEvent("ff caiu de novo", 1), "")
	agg.Wait()
	if second.Count != 2 || second.WindowID != first.WindowID {
		t.Fatalf("state lost after sink failure: %+v", second)
	}
	if sink.count("create") != 2 || sink.count("update") != 0 {
		t.Fatalf("create=%d update=%d, want 2/0", sink.count("create"), sink.count("update"))
	}
	if snaps := agg.Snapshots(); snaps[0].Handle != "h-1" {
		t.Fatalf("handle = %q, want h-1", snaps[0].Handle)
	}

	third, _ := agg.Merge(ctx, model.CategoryLogin, testEvent("ff caiu pela terceira vez", 2), "")
	agg.Wait()
	if third.Handle != "h-1" {
		t.Fatalf("third merge handle = %q, want h-1", third.Handle)
	}
	if sink.count("update") != 1 {
		t.Fatalf("update calls = %d, want 1", sink.count("update"))
	}
}

func TestAggregatorUpdateFailureKeepsHandle(t *testing.T) {
	sink := &fakeSink{}
	agg, _ := newTestAggregator(t, sink, DefaultAggregatorConfig())
	ctx := context.Background()

	agg.Merge(ctx, model.CategoryLag, testEvent("lag no ff", 0), "")
	agg.Wait()
	sink.setFail(false, true)
	agg.Merge(ctx, model.CategoryLag, testEvent("lag no ff 2", 1), "")
	agg.Wait()
	sink.setFail(false, false)
	snap, _ := agg.Merge(ctx, model.CategoryLag, testEvent("lag no ff 3", 2), "")
	agg.Wait()

	last := sink.last()
	if last.op != "update" || last.handle != "h-1" || last.snap.Count != 3 {
		t.Fatalf("last call = %+v", last)
	}
	if snap.Count != 3 || sink.count("create") != 1 {
		t.Fatalf("count=%d creates=%d", snap.Count, sink.count("create"))
	}
}

func TestAggregatorAnnotationMerge(t *testing.T) {
	agg, _ := newTestAggregator(t, &fakeSink{}, DefaultAggregatorConfig())
	ctx := context.Background()

	agg.Merge(ctx, model.CategoryLogin, testEvent("ff caiu", 0), "fila de login")
	snap, _ := agg.Merge(ctx, model.CategoryLogin, testEvent("ff caiu 2", 1), "")
	if snap.Annotation != "fila de login" {
		t.Fatalf("annotation = %q, want kept", snap.Annotation)
	}
	snap, _ = agg.Merge(ctx, model.CategoryLogin, testEvent("ff caiu 3", 2), "servidor fora")
	if snap.Annotation != "servidor fora" {
		t.Fatalf("annotation = %q, want replaced", snap.Annotation)
	}
}

func TestAggregatorCategoriesAreIndependent(t *testing.T) {
	sink := &fakeSink{}
	agg, _ := newTestAggregator(t, sink, DefaultAggregatorConfig())
	ctx := context.Background()

	agg.Merge(ctx, model.CategoryLogin, testEvent("ff caiu", 0), "")
	lag, _ := agg.Merge(ctx, model.CategoryLag, testEvent("lag no ff", 1), "")
	if lag.Event != model.SnapshotCreated || lag.Count != 1 {
		t.Fatalf("lag snapshot = %+v", lag)
	}
	agg.Wait()
	if sink.count("create") != 2 {
		t.Fatalf("creates = %d, want 2", sink.count("create"))
	}

	if _, err := agg.Merge(ctx, model.CategoryNone, testEvent("nada", 2), ""); !errors.Is(err, ErrUnknownCategory) {
		t.Fatalf("Merge(none) error = %v, want ErrUnknownCategory", err)
	}
}

func TestAggregatorConcurrentMergeSingleWindow(t *testing.T) {
	sink := &fakeSink{}
	agg, _ := newTestAggregator(t, sink, DefaultAggregatorConfig())

	const n = 50
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			agg.Merge(context.Background(), model.CategoryLogin, testEvent("ff caiu", i), "")
		}(i)
	}
	wg.Wait()
	agg.Wait()

	// 전송 중에 쌓인 갱신은 합쳐지지만 마지막 전송은 항상 최종 상태
	if sink.count("create") != 1 || sink.count("update") > n-1 {
		t.Fatalf("create=%d update=%d, want 1/<=%d", sink.count("create"), sink.count("update"), n-1)
	}
	if last := sink.last(); last.snap.Count != n {
		t.Fatalf("last delivered count = %d, want %d", last.snap.Count, n)
	}
	snaps := agg.Snapshots()
	if len(snaps) != 1 || snaps[0].Count != n || snaps[0].Handle != "h-1" {
		t.Fatalf("snapshots = %+v", snaps)
	}
}

// stallSink - 첫 Create는 ctx가 끝날 때까지 응답하지 않는 싱크
type stallSink struct {
	fakeSink
	started chan struct{}
	stalled atomic.Bool
}

func (s *stallSink) Create(ctx context.Context, snap model.WindowSnapshot) (model.SinkHandle, error) {
	if !s.stalled.Swap(true) {
		close(s.started)
		<-ctx.Done()
		s.mu.Lock()
		s.calls = append(s.calls, sinkCall{op: "create", snap: snap})
		s.mu.Unlock()
		return "", ctx.Err()
	}
	return s.fakeSink.Create(ctx, snap)
}

func TestAggregatorSlowSinkDoesNotBlockMerge(t *testing.T) {
	sink := &stallSink{started: make(chan struct{})}
	cfg := DefaultAggregatorConfig()
	cfg.SinkTimeout = 2 * time.Second
	agg, _ := newTestAggregator(t, sink, cfg)
	ctx := context.Background()

	agg.Merge(ctx, model.CategoryLogin, testEvent("ff caiu", 0), "")
	<-sink.started

	done := make(chan model.WindowSnapshot, 1)
	go func() {
		snap, _ := agg.Merge(ctx, model.CategoryLogin, testEvent("ff caiu de novo", 1), "")
		done <- snap
	}()

	select {
	case snap := <-done:
		if snap.Count != 2 || snap.Event != model.SnapshotUpdated {
			t.Fatalf("second snapshot = %+v", snap)
		}
	case <-time.After(200 * time.Millisecond):
		t.Fatal("Merge blocked behind a stalled sink call")
	}
	if snaps := agg.Snapshots(); len(snaps) != 1 || snaps[0].Count != 2 {
		t.Fatalf("Snapshots() = %+v while sink stalls", snaps)
	}
	if n := agg.Sweep(); n != 0 {
		t.Fatalf("Sweep() = %d, want 0", n)
	}

	// 첫 Create가 진행 중이므로 두 번째 Create는 시작되지 않음
	if got := sink.count("create"); got != 0 {
		t.Fatalf("create calls during stall = %d, want 0", got)
	}

	agg.Wait()
	// 첫 Create는 타임아웃 후 실패로 기록되고, 대기 중이던 최신 스냅샷으로 다시 Create
	calls := sink.all()
	if len(calls) != 2 || calls[0].op != "create" || calls[1].op != "create" || calls[1].snap.Count != 2 {
		t.Fatalf("sink calls = %+v", calls)
	}
	if snaps := agg.Snapshots(); snaps[0].Handle != "h-1" {
		t.Fatalf("handle = %q, want h-1", snaps[0].Handle)
	}
}

type panicSink struct{}

func (panicSink) Create(context.Context, model.WindowSnapshot) (model.SinkHandle, error) {
	panic("boom")
}

func (panicSink) Update(context.Context, model.SinkHandle, model.WindowSnapshot) error {
	panic("boom")
}

func TestAggregatorRecoversFromSinkPanic(t *testing.T) {
	agg, _ := newTestAggregator(t, panicSink{}, DefaultAggregatorConfig())
	ctx := context.Background()

	agg.Merge(ctx, model.CategoryLogin, testEvent("ff caiu", 0), "")
	agg.Wait()
	snap, _ := agg.Merge(ctx, model.CategoryLogin, testEvent("ff caiu de novo", 1), "")
	agg.Wait()

	if snap.Count != 2 || snap.Handle != "" {
		t.Fatalf("snapshot = %+v", snap)
	}
}

func TestNewAggregatorValidation(t *testing.T) {
	cfg := DefaultAggregatorConfig()
	if _, err := NewAggregator(cfg, nil); err == nil {
		t.Fatal("expected error for nil sink")
	}
	cfg.Thresholds = Thresholds{Medium: 3, High: 2}
	if _, err := NewAggregator(cfg, &fakeSink{}); err == nil {
		t.Fatal("expected error for invalid thresholds")
	}
	cfg = DefaultAggregatorConfig()
	cfg.ExampleCapacity = 0
	if _, err := NewAggregator(cfg, &fakeSink{}); err == nil {
		t.Fatal("expected error for zero capacity")
	}
}

func TestTopKeywords(t *testing.T) {
	examples := []model.Example{
		{Text: "Não consigo entrar, servidor caiu"},
		{Text: "servidor caiu de novo"},
		{Text: "login travado no servidor"},
	}
	got := topKeywords(examples, 3)
	want := []string{"servidor", "caiu", "consigo"}
	if len(got) != len(want) {
		t.Fatalf("topKeywords() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("topKeywords() = %v, want %v", got, want)
		}
	}
	if topKeywords(nil, 3) != nil {
		t.Fatal("expected nil for no examples")
	}
}
