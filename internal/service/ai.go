// 외부 AI 분류 서비스 어댑터
//
// 타임아웃, 네트워크 실패, 스키마 불일치는 모두 "의견 없음"(nil)으로 처리 (fail-open)
// AI 의견은 규칙 결과를 Login으로 올리거나 메모를 붙일 수만 있고, 낮추거나 바꾸지 않음

package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/ffnexus/incident-watch/internal/classifier"
	"github.com/ffnexus/incident-watch/internal/metrics"
	"github.com/ffnexus/incident-watch/internal/model"
)

const (
	aiHint = "login"
	aiLang = "pt"

	maxAnnotationRunes = 240
	defaultAnnotation  = "Indícios de problema de login no jogo."
)

// ErrClassificationTimeout - AI 호출이 제한 시간을 넘김
var ErrClassificationTimeout = errors.New("classification timed out")

// Classifier - 외부 분류 서비스 클라이언트 (원본 응답 반환)
type Classifier interface {
	Classify(ctx context.Context, text, hint, lang string) ([]byte, error)
}

// AIAdapter 구조체 정의
type AIAdapter struct {
	client   Classifier
	timeout  time.Duration
	minScore float64
	logger   *slog.Logger
	metrics  *metrics.Metrics
}

// AIOptions - AIAdapter 설정
type AIOptions struct {
	Timeout  time.Duration
	MinScore float64
	Logger   *slog.Logger
	Metrics  *metrics.Metrics
}

// AIAdapter 객체 생성 (client가 nil이면 비활성)
func NewAIAdapter(client Classifier, opts AIOptions) *AIAdapter {
	if opts.Timeout <= 0 {
		opts.Timeout = 8 * time.Second
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &AIAdapter{
		client:   client,
		timeout:  opts.Timeout,
		minScore: opts.MinScore,
		logger:   opts.Logger,
		metrics:  opts.Metrics,
	}
}

func (a *AIAdapter) Enabled() bool {
	return a != nil && a.client != nil
}

// ShouldConsult - 규칙 결과가 None(승격 경로) 또는 Login(메모 경로)일 때만 AI 호출
func (a *AIAdapter) ShouldConsult(rule model.ClassificationResult) bool {
	if !a.Enabled() {
		return false
	}
	return rule.Category == model.CategoryNone || rule.Category == model.CategoryLogin
}

// Classify - 제한 시간 안에 검증된 의견을 반환, 실패 시 nil
//
// 클라이언트가 context를 무시하더라도 timeout 이후에는 기다리지 않음
func (a *AIAdapter) Classify(ctx context.Context, text, hint, lang string) *model.Opinion {
	if !a.Enabled() {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	type result struct {
		body []byte
		err  error
	}
	done := make(chan result, 1)
	start := time.Now()
	go func() {
		body, err := a.client.Classify(ctx, text, hint, lang)
		done <- result{body: body, err: err}
	}()

	var res result
	select {
	case res = <-done:
	case <-ctx.Done():
		res = result{err: ctx.Err()}
	}
	elapsed := time.Since(start).Seconds()

	if res.err != nil {
		if errors.Is(res.err, context.DeadlineExceeded) {
			a.metrics.AIRequest("timeout", elapsed)
			a.logger.Warn("ai classification timed out", "timeout", a.timeout, "error", ErrClassificationTimeout)
			return nil
		}
		a.metrics.AIRequest("error", elapsed)
		a.logger.Warn("ai classification failed", "error", res.err)
		return nil
	}

	op, err := classifier.ParseOpinion(res.body)
	if err != nil {
		a.metrics.AIRequest("malformed", elapsed)
		a.logger.Warn("ai classification response rejected", "error", err)
		return nil
	}
	a.metrics.AIRequest("ok", elapsed)
	a.logger.Debug("ai opinion",
		"label", op.Label,
		"score", op.Score,
		"game_context", op.GameContext,
	)
	return &op
}

// Decide - 규칙 결과와 AI 의견 결합
//
// 의견이 채택되는 조건: label이 login, score >= minScore,
// 그리고 의견의 gameContext 또는 원문에서 게임 언급이 확인될 것
//   - 규칙 결과 None: Login으로 승격 (source=ai, confidence=score)
//   - 규칙 결과 Login: 분류는 그대로 두고 메모만 추가
func (a *AIAdapter) Decide(rule model.ClassificationResult, op *model.Opinion, mentionsDomain bool) model.ClassificationResult {
	if op == nil || a == nil {
		return rule
	}
	if op.Label != model.CategoryLogin || op.Score < a.minScore {
		return rule
	}
	if !op.GameContext && !mentionsDomain {
		return rule
	}

	switch rule.Category {
	case model.CategoryNone, "":
		return model.ClassificationResult{
			Category:   model.CategoryLogin,
			Confidence: op.Score,
			Annotation: annotation(op),
			Source:     model.SourceAI,
		}
	case model.CategoryLogin:
		rule.Annotation = annotation(op)
		return rule
	default:
		return rule
	}
}

// annotation - summary 또는 reasons("; " 연결)로 만든 짧은 메모
func annotation(op *model.Opinion) string {
	note := op.Summary
	if note == "" {
		note = strings.Join(op.Reasons, "; ")
	}
	note = truncateRunes(strings.TrimSpace(note), maxAnnotationRunes)
	if note == "" {
		return defaultAnnotation
	}
	return note
}
