package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/ffnexus/incident-watch/internal/classifier"
	"github.com/ffnexus/incident-watch/internal/clock"
	"github.com/ffnexus/incident-watch/internal/logging"
)

type fakeKeywordRepo struct {
	mu        sync.Mutex
	keywords  []string
	listCalls int
	listErr   error

	// 설정되면 다음 목록 조회 한 번은 그 시점의 목록을 읽은 뒤 gate가 닫힐 때까지 대기
	listGate    chan struct{}
	listStarted chan struct{}
}

func (r *fakeKeywordRepo) ListIncidentKeywords(ctx context.Context) ([]string, error) {
	r.mu.Lock()
	r.listCalls++
	keywords := append([]string(nil), r.keywords...)
	err := r.listErr
	gate, started := r.listGate, r.listStarted
	r.listGate, r.listStarted = nil, nil
	r.mu.Unlock()

	if gate != nil {
		close(started)
		<-gate
	}
	if err != nil {
		return nil, err
	}
	return keywords, nil
}

func (r *fakeKeywordRepo) AddIncidentKeywords(ctx context.Context, keywords []string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	added := 0
	for _, kw := range keywords {
		exists := false
		for _, have := range r.keywords {
			if have == kw {
				exists = true
				break
			}
		}
		if !exists {
			r.keywords = append(r.keywords, kw)
			added++
		}
	}
	return added, nil
}

func (r *fakeKeywordRepo) DeleteIncidentKeyword(ctx context.Context, keyword string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, have := range r.keywords {
		if have == keyword {
			r.keywords = append(r.keywords[:i], r.keywords[i+1:]...)
			return nil
		}
	}
	return errors.New("keyword not found")
}

func (r *fakeKeywordRepo) calls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.listCalls
}

type guardRecorder struct {
	mu    sync.Mutex
	guard *classifier.Guard
}

func (g *guardRecorder) apply(guard *classifier.Guard) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.guard = guard
}

func (g *guardRecorder) current() *classifier.Guard {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.guard
}

func newTestKeywordService(t *testing.T, repo *fakeKeywordRepo) (*KeywordService, *guardRecorder, *clock.Fake) {
	t.Helper()
	lex, err := classifier.DefaultLexicon()
	if err != nil {
		t.Fatal(err)
	}
	rec := &guardRecorder{}
	fc := clock.NewFake(testStart)
	svc := NewKeywordService(repo, lex, classifier.GuardOptions{MinWords: 3, DomainRequired: true}, rec.apply, KeywordOptions{
		TTL:    time.Minute,
		Clock:  fc,
		Logger: logging.Discard(),
	})
	return svc, rec, fc
}

func TestKeywordAddRebuildsGuard(t *testing.T) {
	repo := &fakeKeywordRepo{}
	svc, rec, _ := newTestKeywordService(t, repo)

	added, err := svc.Add(context.Background(), []string{" Fila Enorme ", "fila enorme"})
	if err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	if added != 1 {
		t.Fatalf("Add() = %d, want 1", added)
	}
	g := rec.current()
	if g == nil {
		t.Fatal("guard was not applied")
	}
	if !g.Passes("o ff ta com fila enorme hoje") {
		t.Fatal("new guard does not know the added keyword")
	}

	if err := svc.Delete(context.Background(), "FILA ENORME"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if rec.current().Passes("o ff ta com fila enorme hoje") {
		t.Fatal("guard still accepts a deleted keyword")
	}
}

func TestKeywordRefreshesApplyInOrder(t *testing.T) {
	gate, started := make(chan struct{}), make(chan struct{})
	repo := &fakeKeywordRepo{listGate: gate, listStarted: started}
	svc, rec, _ := newTestKeywordService(t, repo)
	ctx := context.Background()

	// 추가 이전 목록을 읽은 갱신이 느리게 끝나는 상황
	stale := make(chan error, 1)
	go func() { stale <- svc.Refresh(ctx) }()
	<-started

	added := make(chan error, 1)
	go func() {
		_, err := svc.Add(ctx, []string{"fila enorme"})
		added <- err
	}()
	time.Sleep(20 * time.Millisecond)
	close(gate)

	if err := <-stale; err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}
	if err := <-added; err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	if !rec.current().Passes("o ff ta com fila enorme hoje") {
		t.Fatal("an older keyword list overwrote the newer guard")
	}
}

func TestKeywordAddInvalid(t *testing.T) {
	svc, rec, _ := newTestKeywordService(t, &fakeKeywordRepo{})

	for _, input := range [][]string{nil, {"   "}, {"fila", "  "}} {
		if _, err := svc.Add(context.Background(), input); !errors.Is(err, ErrInvalidKeyword) {
			t.Errorf("Add(%q) error = %v, want ErrInvalidKeyword", input, err)
		}
	}
	long := make([]rune, maxKeywordRunes+1)
	for i := range long {
		long[i] = 'a'
	}
	if _, err := svc.Add(context.Background(), []string{string(long)}); !errors.Is(err, ErrInvalidKeyword) {
		t.Errorf("Add(long) error = %v, want ErrInvalidKeyword", err)
	}
	if rec.current() != nil {
		t.Fatal("invalid input must not rebuild the guard")
	}
}

func TestKeywordListCachesForTTL(t *testing.T) {
	repo := &fakeKeywordRepo{keywords: []string{"fila enorme"}}
	svc, _, fc := newTestKeywordService(t, repo)
	ctx := context.Background()

	got, err := svc.List(ctx)
	if err != nil || len(got) != 1 || got[0] != "fila enorme" {
		t.Fatalf("List() = %v, %v", got, err)
	}
	if _, err := svc.List(ctx); err != nil {
		t.Fatal(err)
	}
	if repo.calls() != 1 {
		t.Fatalf("repo list calls = %d, want 1 within ttl", repo.calls())
	}

	fc.Advance(time.Minute)
	if _, err := svc.List(ctx); err != nil {
		t.Fatal(err)
	}
	if repo.calls() != 2 {
		t.Fatalf("repo list calls = %d, want 2 after ttl", repo.calls())
	}
}

func TestKeywordRefreshFailureKeepsGuard(t *testing.T) {
	repo := &fakeKeywordRepo{keywords: []string{"fila enorme"}}
	svc, rec, _ := newTestKeywordService(t, repo)

	if err := svc.Refresh(context.Background()); err != nil {
		t.Fatal(err)
	}
	before := rec.current()

	repo.mu.Lock()
	repo.listErr = errors.New("connection reset")
	repo.mu.Unlock()

	if err := svc.Refresh(context.Background()); err == nil {
		t.Fatal("Refresh() error = nil, want failure")
	}
	if rec.current() != before {
		t.Fatal("guard replaced after a failed refresh")
	}
}
