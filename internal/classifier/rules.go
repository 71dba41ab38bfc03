package classifier

import (
	"fmt"
	"regexp"

	"github.com/ffnexus/incident-watch/internal/model"
)

const defaultProximityTokens = 6

// Rules - 순서가 있는 패턴 분류기
//
// 평가 순서:
//  1. Login (최우선)
//  2. Lag, Crash (게임 언급 필요, 개인 기기 문제로 보이면 제외)
type Rules struct {
	login []*regexp.Regexp
	lag   []*regexp.Regexp
	crash []*regexp.Regexp

	domain  phraseSet
	anchors phraseSet
	device  phraseSet

	problemToken *regexp.Regexp
	strictToken  *regexp.Regexp
	window       int
}

// Rules 객체 생성
func NewRules(lex *Lexicon) (*Rules, error) {
	if lex == nil {
		return nil, fmt.Errorf("rules: lexicon is nil")
	}
	login, err := compileAll(lex.Rules.Login)
	if err != nil {
		return nil, fmt.Errorf("rules: login: %w", err)
	}
	lag, err := compileAll(lex.Rules.Lag)
	if err != nil {
		return nil, fmt.Errorf("rules: lag: %w", err)
	}
	crash, err := compileAll(lex.Rules.Crash)
	if err != nil {
		return nil, fmt.Errorf("rules: crash: %w", err)
	}
	problemToken, err := regexp.Compile(lex.ProximityPattern)
	if err != nil {
		return nil, fmt.Errorf("rules: proximity pattern: %w", err)
	}
	strictToken, err := regexp.Compile(lex.StrictProximityPattern)
	if err != nil {
		return nil, fmt.Errorf("rules: strict proximity pattern: %w", err)
	}

	window := lex.ProximityTokens
	if window <= 0 {
		window = defaultProximityTokens
	}

	return &Rules{
		login:        login,
		lag:          lag,
		crash:        crash,
		domain:       newPhraseSet(lex.DomainTerms),
		anchors:      newPhraseSet(lex.ProximityAnchors),
		device:       newPhraseSet(lex.DeviceTerms),
		problemToken: problemToken,
		strictToken:  strictToken,
		window:       window,
	}, nil
}

// Classify - 정규화된 텍스트를 유형으로 분류
// 규칙 매칭은 항상 신뢰도 1.0, 매칭이 없으면 CategoryNone / 0
func (r *Rules) Classify(normalized string) model.ClassificationResult {
	none := model.ClassificationResult{Category: model.CategoryNone, Source: model.SourceRule}
	if normalized == "" {
		return none
	}
	if matchAny(r.login, normalized) {
		return matched(model.CategoryLogin)
	}

	lag := matchAny(r.lag, normalized)
	if !lag && !matchAny(r.crash, normalized) {
		return none
	}

	t := analyze(normalized)
	if !r.domain.any(t) {
		return none
	}
	if r.device.any(t) && !r.near(t, r.problemToken) {
		return none
	}
	if hasToken(t, r.strictToken) && !r.near(t, r.strictToken) {
		return none
	}
	if lag {
		return matched(model.CategoryLag)
	}
	return matched(model.CategoryCrash)
}

// MentionsDomain - 게임 이름이나 별칭이 언급되었는지 여부
func (r *Rules) MentionsDomain(normalized string) bool {
	return r.domain.any(analyze(normalized))
}

// near - 장애 토큰이 기준 단어의 근접 범위 안에 있는지 여부
func (r *Rules) near(t text, problem *regexp.Regexp) bool {
	anchors := r.anchors.positions(t)
	if len(anchors) == 0 {
		return false
	}
	for i, tok := range t.tokens {
		if !problem.MatchString(tok) {
			continue
		}
		for _, a := range anchors {
			d := i - a
			if d < 0 {
				d = -d
			}
			if d > 0 && d <= r.window {
				return true
			}
		}
	}
	return false
}

func hasToken(t text, rx *regexp.Regexp) bool {
	for _, tok := range t.tokens {
		if rx.MatchString(tok) {
			return true
		}
	}
	return false
}

func matched(c model.Category) model.ClassificationResult {
	return model.ClassificationResult{Category: c, Confidence: 1.0, Source: model.SourceRule}
}
