package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ffnexus/incident-watch/internal/logging"
	"github.com/ffnexus/incident-watch/internal/model"
)

type recordingNotifier struct {
	mu    sync.Mutex
	snaps []model.WindowSnapshot
}

func (n *recordingNotifier) Notify(ctx context.Context, snap model.WindowSnapshot) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.snaps = append(n.snaps, snap)
}

func (n *recordingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.snaps)
}

type fakeSlackWindowClient struct {
	err     error
	updated string
}

func (f *fakeSlackWindowClient) PostWindow(ctx context.Context, snap model.WindowSnapshot) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return "1700000000.000100", nil
}

func (f *fakeSlackWindowClient) UpdateWindow(ctx context.Context, ts string, snap model.WindowSnapshot) error {
	f.updated = ts
	return f.err
}

func TestFanoutSinkNotifiesRegardlessOfPrimary(t *testing.T) {
	primary := &fakeSink{failCreate: true}
	n1, n2 := &recordingNotifier{}, &recordingNotifier{}
	sink := NewFanoutSink(primary, n1, n2)

	snap := model.WindowSnapshot{WindowID: "w-1", Category: model.CategoryLogin, Count: 1}
	handle, err := sink.Create(context.Background(), snap)
	if !errors.Is(err, ErrSinkUnavailable) || handle != "" {
		t.Fatalf("Create() = %q, %v", handle, err)
	}
	sink.Wait()
	snap.Count = 2
	if err := sink.Update(context.Background(), "h-1", snap); err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	sink.Wait()

	if n1.count() != 2 || n2.count() != 2 {
		t.Fatalf("notifier calls = %d/%d, want 2/2", n1.count(), n2.count())
	}
}

// slowNotifier - 작은 Count일수록 늦게 끝나는 알림 대상
type slowNotifier struct {
	recordingNotifier
	inFlight atomic.Int32
	overlap  atomic.Bool
}

func (n *slowNotifier) Notify(ctx context.Context, snap model.WindowSnapshot) {
	if n.inFlight.Add(1) > 1 {
		n.overlap.Store(true)
	}
	defer n.inFlight.Add(-1)
	time.Sleep(time.Duration(10-snap.Count) * 5 * time.Millisecond)
	n.recordingNotifier.Notify(ctx, snap)
}

func TestFanoutSinkDeliversNewestSnapshotLast(t *testing.T) {
	notifier := &slowNotifier{}
	fanout := NewFanoutSink(&fakeSink{}, notifier)
	agg, _ := newTestAggregator(t, fanout, DefaultAggregatorConfig())

	for i := 0; i < 6; i++ {
		agg.Merge(context.Background(), model.CategoryLogin, testEvent("ff caiu", i), "")
	}
	agg.Wait()
	fanout.Wait()

	notifier.mu.Lock()
	defer notifier.mu.Unlock()
	if len(notifier.snaps) == 0 {
		t.Fatal("notifier received nothing")
	}
	for i := 1; i < len(notifier.snaps); i++ {
		if notifier.snaps[i].Count <= notifier.snaps[i-1].Count {
			t.Fatalf("delivery order = %v", counts(notifier.snaps))
		}
	}
	if last := notifier.snaps[len(notifier.snaps)-1]; last.Count != 6 {
		t.Fatalf("last delivered count = %d, want 6", last.Count)
	}
	if notifier.overlap.Load() {
		t.Fatal("notifier was called concurrently")
	}
}

func TestFanoutSinkKeepsOtherWindows(t *testing.T) {
	notifier := &recordingNotifier{}
	fanout := NewFanoutSink(&fakeSink{}, notifier)

	fanout.Update(context.Background(), "h-1", model.WindowSnapshot{WindowID: "w-1", Count: 3})
	fanout.Update(context.Background(), "h-2", model.WindowSnapshot{WindowID: "w-2", Count: 1})
	fanout.Update(context.Background(), "h-1", model.WindowSnapshot{WindowID: "w-1", Count: 2})
	fanout.Wait()

	seen := map[string]int{}
	for _, snap := range notifier.snaps {
		seen[snap.WindowID] = snap.Count
	}
	if seen["w-1"] != 3 || seen["w-2"] != 1 {
		t.Fatalf("final counts = %v, want w-1=3 w-2=1", seen)
	}
}

func counts(snaps []model.WindowSnapshot) []int {
	out := make([]int, len(snaps))
	for i, s := range snaps {
		out[i] = s.Count
	}
	return out
}

func TestLogSinkUsesWindowID(t *testing.T) {
	sink := NewLogSink(logging.Discard())
	handle, err := sink.Create(context.Background(), model.WindowSnapshot{WindowID: "w-42"})
	if err != nil || handle != "w-42" {
		t.Fatalf("Create() = %q, %v", handle, err)
	}
	if err := sink.Update(context.Background(), handle, model.WindowSnapshot{WindowID: "w-42"}); err != nil {
		t.Fatalf("Update() error = %v", err)
	}
}

func TestSlackSink(t *testing.T) {
	client := &fakeSlackWindowClient{}
	sink := NewSlackSink(client)

	handle, err := sink.Create(context.Background(), model.WindowSnapshot{})
	if err != nil || handle != "1700000000.000100" {
		t.Fatalf("Create() = %q, %v", handle, err)
	}
	if err := sink.Update(context.Background(), handle, model.WindowSnapshot{}); err != nil {
		t.Fatal(err)
	}
	if client.updated != "1700000000.000100" {
		t.Fatalf("updated ts = %q", client.updated)
	}

	client.err = errors.New("channel_not_found")
	if _, err := sink.Create(context.Background(), model.WindowSnapshot{}); !errors.Is(err, ErrSinkUnavailable) {
		t.Fatalf("Create() error = %v, want ErrSinkUnavailable", err)
	}
	if err := sink.Update(context.Background(), handle, model.WindowSnapshot{}); !errors.Is(err, ErrSinkUnavailable) {
		t.Fatalf("Update() error = %v, want ErrSinkUnavailable", err)
	}
}
