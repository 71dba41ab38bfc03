package classifier

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/ffnexus/incident-watch/internal/model"
)

// ErrMalformedOpinion - 스키마에 맞지 않는 분류 응답 (호출자는 의견 없음으로 처리)
var ErrMalformedOpinion = errors.New("malformed classifier response")

// ParseOpinion - 느슨한 타입의 분류 응답 검증
//
//	{"label": "login", "score": 0.82, "gameContext": true,
//	 "summary": "...", "reasons": ["...", "..."]}
//
// label, score 필수 / score는 숫자 또는 숫자 문자열, 0~1 범위
// gameContext는 bool 또는 "true"/"false"
// 최상위가 배열이면 첫 원소 사용 (워크플로 웹훅 응답 형태)
// 알 수 없는 label은 CategoryNone
func ParseOpinion(body []byte) (model.Opinion, error) {
	var zero model.Opinion

	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var raw any
	if err := dec.Decode(&raw); err != nil {
		return zero, fmt.Errorf("%w: %v", ErrMalformedOpinion, err)
	}
	if list, ok := raw.([]any); ok {
		if len(list) == 0 {
			return zero, fmt.Errorf("%w: empty array", ErrMalformedOpinion)
		}
		raw = list[0]
	}
	obj, ok := raw.(map[string]any)
	if !ok {
		return zero, fmt.Errorf("%w: not an object", ErrMalformedOpinion)
	}

	label, ok := obj["label"].(string)
	if !ok {
		return zero, fmt.Errorf("%w: label missing or not a string", ErrMalformedOpinion)
	}

	score, err := coerceScore(obj["score"])
	if err != nil {
		return zero, err
	}

	gameContext, err := coerceBool(obj["gameContext"])
	if err != nil {
		return zero, err
	}

	op := model.Opinion{
		Label:       model.ParseCategory(strings.ToLower(strings.TrimSpace(label))),
		Score:       score,
		GameContext: gameContext,
	}

	if v, present := obj["summary"]; present && v != nil {
		s, ok := v.(string)
		if !ok {
			return zero, fmt.Errorf("%w: summary is not a string", ErrMalformedOpinion)
		}
		op.Summary = strings.TrimSpace(s)
	}

	if v, present := obj["reasons"]; present && v != nil {
		items, ok := v.([]any)
		if !ok {
			return zero, fmt.Errorf("%w: reasons is not an array", ErrMalformedOpinion)
		}
		for _, it := range items {
			s, ok := it.(string)
			if !ok {
				return zero, fmt.Errorf("%w: reasons must contain strings", ErrMalformedOpinion)
			}
			if s = strings.TrimSpace(s); s != "" {
				op.Reasons = append(op.Reasons, s)
			}
		}
	}
	return op, nil
}

func coerceScore(v any) (float64, error) {
	var f float64
	switch x := v.(type) {
	case json.Number:
		parsed, err := x.Float64()
		if err != nil {
			return 0, fmt.Errorf("%w: score: %v", ErrMalformedOpinion, err)
		}
		f = parsed
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil {
			return 0, fmt.Errorf("%w: score is not numeric", ErrMalformedOpinion)
		}
		f = parsed
	case nil:
		return 0, fmt.Errorf("%w: score missing", ErrMalformedOpinion)
	default:
		return 0, fmt.Errorf("%w: score has type %T", ErrMalformedOpinion, v)
	}
	if math.IsNaN(f) || f < 0 || f > 1 {
		return 0, fmt.Errorf("%w: score %v out of range", ErrMalformedOpinion, f)
	}
	return f, nil
}

func coerceBool(v any) (bool, error) {
	switch x := v.(type) {
	case nil:
		return false, nil
	case bool:
		return x, nil
	case string:
		switch strings.ToLower(strings.TrimSpace(x)) {
		case "true":
			return true, nil
		case "false", "":
			return false, nil
		}
	}
	return false, fmt.Errorf("%w: gameContext is not a boolean", ErrMalformedOpinion)
}
