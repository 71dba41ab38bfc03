package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/ffnexus/incident-watch/internal/clock"
	"github.com/ffnexus/incident-watch/internal/logging"
	"github.com/ffnexus/incident-watch/internal/model"
)

var testStart = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

type sinkCall struct {
	op     string
	handle model.SinkHandle
	snap   model.WindowSnapshot
}

type fakeSink struct {
	mu         sync.Mutex
	calls      []sinkCall
	failCreate bool
	failUpdate bool
	next       int
}

func (f *fakeSink) Create(ctx context.Context, snap model.WindowSnapshot) (model.SinkHandle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, sinkCall{op: "create", snap: snap})
	if f.failCreate {
		return "", fmt.Errorf("%w: slack down", ErrSinkUnavailable)
	}
	f.next++
	return model.SinkHandle(fmt.Sprintf("h-%d", f.next)), nil
}

func (f *fakeSink) Update(ctx context.Context, handle model.SinkHandle, snap model.WindowSnapshot) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, sinkCall{op: "update", handle: handle, snap: snap})
	if f.failUpdate {
		return fmt.Errorf("%w: slack down", ErrSinkUnavailable)
	}
	return nil
}

func (f *fakeSink) setFail(create, update bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failCreate = create
	f.failUpdate = update
}

func (f *fakeSink) count(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if c.op == op {
			n++
		}
	}
	return n
}

func (f *fakeSink) all() []sinkCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]sinkCall(nil), f.calls...)
}

func (f *fakeSink) last() sinkCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[len(f.calls)-1]
}

// fakeClassifier - 외부 분류 서비스 대역
// block이 설정되면 context를 무시하고 block이 닫힐 때까지 대기
type fakeClassifier struct {
	mu    sync.Mutex
	body  string
	err   error
	block chan struct{}
	calls int
}

func (f *fakeClassifier) Classify(ctx context.Context, text, hint, lang string) ([]byte, error) {
	f.mu.Lock()
	f.calls++
	block, body, err := f.block, f.body, f.err
	f.mu.Unlock()
	if block != nil {
		<-block
		return nil, errors.New("released")
	}
	if err != nil {
		return nil, err
	}
	return []byte(body), nil
}

func (f *fakeClassifier) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func newTestAggregator(t *testing.T, sink Sink, cfg AggregatorConfig) (*Aggregator, *clock.Fake) {
	t.Helper()
	fc := clock.NewFake(testStart)
	agg, err := NewAggregator(cfg, sink, WithClock(fc), WithAggregatorLogger(logging.Discard()))
	if err != nil {
		t.Fatalf("NewAggregator() error = %v", err)
	}
	return agg, fc
}

func testEvent(text string, i int) model.IncidentEvent {
	return model.IncidentEvent{
		Text:       text,
		OccurredAt: testStart.Add(time.Duration(i) * time.Second),
		SourceRef:  fmt.Sprintf("https://discord.com/channels/1/2/%d", i),
		AuthorRef:  fmt.Sprintf("user-%d", i%3),
	}
}
