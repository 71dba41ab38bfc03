package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/ffnexus/incident-watch/internal/logging"
	"github.com/ffnexus/incident-watch/internal/model"
)

func newTestAdapter(c Classifier, timeout time.Duration) *AIAdapter {
	return NewAIAdapter(c, AIOptions{Timeout: timeout, MinScore: 0.6, Logger: logging.Discard()})
}

func TestAIAdapterClassify(t *testing.T) {
	tests := []struct {
		name    string
		fake    *fakeClassifier
		wantNil bool
	}{
		{name: "valid", fake: &fakeClassifier{body: `{"label":"login","score":0.9,"gameContext":true}`}},
		{name: "transport-error", fake: &fakeClassifier{err: errors.New("connection refused")}, wantNil: true},
		{name: "malformed", fake: &fakeClassifier{body: `{"label":"login","score":"high"}`}, wantNil: true},
		{name: "not-json", fake: &fakeClassifier{body: `<html>502</html>`}, wantNil: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			op := newTestAdapter(tt.fake, time.Second).Classify(context.Background(), "ff nao abre", aiHint, aiLang)
			if (op == nil) != tt.wantNil {
				t.Fatalf("Classify() = %+v, wantNil %v", op, tt.wantNil)
			}
		})
	}
}

func TestAIAdapterTimeoutIsFailOpen(t *testing.T) {
	fake := &fakeClassifier{block: make(chan struct{})}
	defer close(fake.block)

	a := newTestAdapter(fake, 20*time.Millisecond)
	start := time.Now()
	if op := a.Classify(context.Background(), "ff esta instavel hoje galera", aiHint, aiLang); op != nil {
		t.Fatalf("Classify() = %+v, want nil on timeout", op)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Fatalf("Classify() waited %v past its timeout", elapsed)
	}
}

func TestAIAdapterDisabled(t *testing.T) {
	a := NewAIAdapter(nil, AIOptions{})
	if a.Enabled() || a.ShouldConsult(model.ClassificationResult{Category: model.CategoryNone}) {
		t.Fatal("adapter without client must be disabled")
	}
	if op := a.Classify(context.Background(), "x", aiHint, aiLang); op != nil {
		t.Fatal("disabled adapter returned an opinion")
	}

	var nilAdapter *AIAdapter
	if nilAdapter.ShouldConsult(model.ClassificationResult{Category: model.CategoryNone}) {
		t.Fatal("nil adapter must not be consulted")
	}
}

func TestAIAdapterShouldConsult(t *testing.T) {
	a := newTestAdapter(&fakeClassifier{}, time.Second)
	cases := map[model.Category]bool{
		model.CategoryNone:  true,
		model.CategoryLogin: true,
		model.CategoryLag:   false,
		model.CategoryCrash: false,
	}
	for cat, want := range cases {
		if got := a.ShouldConsult(model.ClassificationResult{Category: cat}); got != want {
			t.Errorf("ShouldConsult(%s) = %v, want %v", cat, got, want)
		}
	}
}

func TestAIAdapterDecide(t *testing.T) {
	a := newTestAdapter(&fakeClassifier{}, time.Second)
	none := model.ClassificationResult{Category: model.CategoryNone, Source: model.SourceRule}
	login := model.ClassificationResult{Category: model.CategoryLogin, Confidence: 1, Source: model.SourceRule}
	lag := model.ClassificationResult{Category: model.CategoryLag, Confidence: 1, Source: model.SourceRule}

	good := &model.Opinion{Label: model.CategoryLogin, Score: 0.8, GameContext: true, Summary: "fila de login"}

	tests := []struct {
		name     string
		rule     model.ClassificationResult
		op       *model.Opinion
		mentions bool
		wantCat  model.Category
		wantNote string
		wantSrc  model.ClassificationSource
	}{
		{name: "no-opinion", rule: none, op: nil, wantCat: model.CategoryNone, wantSrc: model.SourceRule},
		{name: "upgrade", rule: none, op: good, wantCat: model.CategoryLogin, wantNote: "fila de login", wantSrc: model.SourceAI},
		{name: "low-score", rule: none, op: &model.Opinion{Label: model.CategoryLogin, Score: 0.59, GameContext: true}, wantCat: model.CategoryNone, wantSrc: model.SourceRule},
		{name: "score-at-threshold", rule: none, op: &model.Opinion{Label: model.CategoryLogin, Score: 0.6, GameContext: true}, wantCat: model.CategoryLogin, wantNote: defaultAnnotation, wantSrc: model.SourceAI},
		{name: "other-label", rule: none, op: &model.Opinion{Label: model.CategoryLag, Score: 0.99, GameContext: true}, wantCat: model.CategoryNone, wantSrc: model.SourceRule},
		{name: "no-game-context", rule: none, op: &model.Opinion{Label: model.CategoryLogin, Score: 0.9}, wantCat: model.CategoryNone, wantSrc: model.SourceRule},
		{name: "domain-from-text", rule: none, op: &model.Opinion{Label: model.CategoryLogin, Score: 0.9}, mentions: true, wantCat: model.CategoryLogin, wantNote: defaultAnnotation, wantSrc: model.SourceAI},
		{name: "annotate-login", rule: login, op: good, wantCat: model.CategoryLogin, wantNote: "fila de login", wantSrc: model.SourceRule},
		{name: "never-overrides-lag", rule: lag, op: good, wantCat: model.CategoryLag, wantSrc: model.SourceRule},
		{name: "reasons-joined", rule: none, op: &model.Opinion{Label: model.CategoryLogin, Score: 0.9, GameContext: true, Reasons: []string{"fila", "erro 500"}}, wantCat: model.CategoryLogin, wantNote: "fila; erro 500", wantSrc: model.SourceAI},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := a.Decide(tt.rule, tt.op, tt.mentions)
			if got.Category != tt.wantCat || got.Annotation != tt.wantNote || got.Source != tt.wantSrc {
				t.Fatalf("Decide() = %+v, want %s/%q/%s", got, tt.wantCat, tt.wantNote, tt.wantSrc)
			}
		})
	}

	upgraded := a.Decide(none, good, false)
	if upgraded.Confidence != 0.8 {
		t.Fatalf("upgraded confidence = %v, want opinion score", upgraded.Confidence)
	}
	kept := a.Decide(login, good, false)
	if kept.Confidence != 1 {
		t.Fatalf("rule confidence changed to %v", kept.Confidence)
	}
}

func TestAnnotationTruncated(t *testing.T) {
	long := strings.Repeat("ã", 500)
	note := annotation(&model.Opinion{Summary: long})
	if n := len([]rune(note)); n != maxAnnotationRunes {
		t.Fatalf("annotation length = %d, want %d", n, maxAnnotationRunes)
	}
}
