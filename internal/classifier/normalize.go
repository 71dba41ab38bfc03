package classifier

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Normalize - 소문자 변환, 발음 부호 제거, 공백 정리
// 예: "Não   CONSIGO entrar" -> "nao consigo entrar"
func Normalize(s string) string {
	// transform.Chain은 상태를 가지므로 호출마다 새로 생성
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return strings.Join(strings.Fields(strings.ToLower(out)), " ")
}

// text - 구문/토큰 매칭용으로 준비한 정규화 메시지
type text struct {
	normalized string
	tokens     []string
	// 양 끝에 공백을 붙인 토큰 나열 (구문이 토큰 경계에서만 매칭되도록)
	padded string
}

func analyze(normalized string) text {
	tokens := tokenize(normalized)
	return text{
		normalized: normalized,
		tokens:     tokens,
		padded:     " " + strings.Join(tokens, " ") + " ",
	}
}

func tokenize(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// phraseSet - 토큰 경계 기준 구문 집합
// "cla"는 "o cla todo"에는 매칭되지만 "declarar"에는 매칭되지 않음
type phraseSet struct {
	phrases [][]string
}

func newPhraseSet(raw []string) phraseSet {
	ps := phraseSet{}
	seen := make(map[string]struct{}, len(raw))
	for _, p := range raw {
		toks := tokenize(Normalize(p))
		if len(toks) == 0 {
			continue
		}
		key := strings.Join(toks, " ")
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		ps.phrases = append(ps.phrases, toks)
	}
	return ps
}

func (ps phraseSet) any(t text) bool {
	for _, p := range ps.phrases {
		if strings.Contains(t.padded, " "+strings.Join(p, " ")+" ") {
			return true
		}
	}
	return false
}

// positions - 구문이 차지하는 모든 토큰 위치
func (ps phraseSet) positions(t text) []int {
	var out []int
	for _, p := range ps.phrases {
		for i := 0; i+len(p) <= len(t.tokens); i++ {
			if equalTokens(t.tokens[i:i+len(p)], p) {
				for j := i; j < i+len(p); j++ {
					out = append(out, j)
				}
			}
		}
	}
	return out
}

func (ps phraseSet) len() int { return len(ps.phrases) }

func equalTokens(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
