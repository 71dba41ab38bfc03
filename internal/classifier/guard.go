package classifier

import (
	"fmt"
	"regexp"
	"strings"
)

// Reason - 메시지를 거부한 Guard 단계 (빈 값이면 통과)
type Reason string

const (
	ReasonPassed    Reason = ""
	ReasonEmpty     Reason = "empty"
	ReasonTooShort  Reason = "too_short"
	ReasonExcluded  Reason = "excluded"
	ReasonNoDomain  Reason = "no_domain"
	ReasonNoProblem Reason = "no_problem"
)

// GuardOptions - Guard 필터 설정
type GuardOptions struct {
	MinWords       int
	DomainRequired bool
	// 운영자가 등록한 장애 키워드 (lexicon의 problem 어휘에 추가)
	ExtraProblemTerms []string
}

// Guard - 분류 전에 잡담/광고/무관한 메시지를 걸러내는 필터
// 생성 후 변경 불가, 어휘가 바뀌면 새로 만들어 교체
type Guard struct {
	minWords       int
	domainRequired bool

	exclusions        phraseSet
	exclusionPatterns []*regexp.Regexp
	domain            phraseSet
	problem           phraseSet
}

// Guard 객체 생성
func NewGuard(lex *Lexicon, opts GuardOptions) (*Guard, error) {
	if lex == nil {
		return nil, fmt.Errorf("guard: lexicon is nil")
	}
	patterns, err := compileAll(lex.ExclusionPatterns)
	if err != nil {
		return nil, fmt.Errorf("guard: %w", err)
	}

	exclusions := make([]string, 0, len(lex.ExclusionPhrases)+len(lex.OtherGames)+len(lex.Bypass))
	exclusions = append(exclusions, lex.ExclusionPhrases...)
	exclusions = append(exclusions, lex.OtherGames...)
	exclusions = append(exclusions, lex.Bypass...)

	problem := make([]string, 0, len(lex.ProblemTerms)+len(opts.ExtraProblemTerms))
	problem = append(problem, lex.ProblemTerms...)
	problem = append(problem, opts.ExtraProblemTerms...)

	minWords := opts.MinWords
	if minWords < 1 {
		minWords = 1
	}

	return &Guard{
		minWords:          minWords,
		domainRequired:    opts.DomainRequired,
		exclusions:        newPhraseSet(exclusions),
		exclusionPatterns: patterns,
		domain:            newPhraseSet(lex.DomainTerms),
		problem:           newPhraseSet(problem),
	}, nil
}

// Passes - 모든 단계를 통과하는지 여부
func (g *Guard) Passes(raw string) bool {
	return g.Check(raw) == ReasonPassed
}

// Check - 단계를 순서대로 검사하고 처음 실패한 단계 반환
//
// 검사 순서:
//  1. 빈 메시지 / 최소 단어 수
//  2. 제외 어휘 및 초대 패턴
//  3. 게임 언급 (DomainRequired일 때)
//  4. 장애 어휘
func (g *Guard) Check(raw string) Reason {
	normalized := Normalize(raw)
	if normalized == "" {
		return ReasonEmpty
	}
	if len(strings.Fields(normalized)) < g.minWords {
		return ReasonTooShort
	}

	t := analyze(normalized)
	if g.exclusions.any(t) || matchAny(g.exclusionPatterns, normalized) {
		return ReasonExcluded
	}
	if g.domainRequired && !g.domain.any(t) {
		return ReasonNoDomain
	}
	if !g.problem.any(t) {
		return ReasonNoProblem
	}
	return ReasonPassed
}

// ProblemTermCount - 추가 키워드를 포함한 장애 어휘 수
func (g *Guard) ProblemTermCount() int { return g.problem.len() }
