package classifier

import (
	_ "embed"
	"fmt"
	"os"
	"regexp"
	"sort"

	"github.com/BurntSushi/toml"
)

//go:embed lexicon.toml
var defaultLexicon string

// Lexicon - Guard 필터와 규칙 분류기가 사용하는 어휘
// 내장 기본값을 TOML 파일의 키 단위로 덮어쓸 수 있음
type Lexicon struct {
	ProximityTokens        int      `toml:"proximity_tokens"`
	ExclusionPhrases       []string `toml:"exclusion_phrases"`
	ExclusionPatterns      []string `toml:"exclusion_patterns"`
	OtherGames             []string `toml:"other_games"`
	Bypass                 []string `toml:"bypass"`
	DomainTerms            []string `toml:"domain_terms"`
	ProximityAnchors       []string `toml:"proximity_anchors"`
	DeviceTerms            []string `toml:"device_terms"`
	ProblemTerms           []string `toml:"problem_terms"`
	ProximityPattern       string   `toml:"proximity_pattern"`
	StrictProximityPattern string   `toml:"strict_proximity_pattern"`
	Rules                  RuleSet  `toml:"rules"`
}

// RuleSet - 유형별 패턴 (평가 순서는 파일이 아니라 분류기가 결정)
type RuleSet struct {
	Login []string `toml:"login"`
	Lag   []string `toml:"lag"`
	Crash []string `toml:"crash"`
}

// DefaultLexicon - 내장 lexicon.toml 디코딩
func DefaultLexicon() (*Lexicon, error) {
	var lex Lexicon
	if _, err := toml.Decode(defaultLexicon, &lex); err != nil {
		return nil, fmt.Errorf("parsing default lexicon: %w", err)
	}
	return &lex, nil
}

// LoadLexicon - 기본 어휘에 path 파일의 키를 덮어쓴 결과
// path가 비어 있으면 기본값, 알 수 없는 키는 실패 대신 경고로 반환
func LoadLexicon(path string) (*Lexicon, []string, error) {
	lex, err := DefaultLexicon()
	if err != nil {
		return nil, nil, err
	}
	if path == "" {
		return lex, nil, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("reading lexicon file: %w", err)
	}
	md, err := toml.Decode(string(data), lex)
	if err != nil {
		return nil, nil, fmt.Errorf("parsing lexicon file: %w", err)
	}

	var warnings []string
	for _, key := range md.Undecoded() {
		warnings = append(warnings, fmt.Sprintf("unknown lexicon key: %q", key.String()))
	}
	sort.Strings(warnings)
	return lex, warnings, nil
}

func compileAll(patterns []string) ([]*regexp.Regexp, error) {
	out := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		rx, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("compiling pattern %q: %w", p, err)
		}
		out = append(out, rx)
	}
	return out, nil
}

func matchAny(rxs []*regexp.Regexp, s string) bool {
	for _, rx := range rxs {
		if rx.MatchString(s) {
			return true
		}
	}
	return false
}
