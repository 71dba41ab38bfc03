// 외부 분류 서비스(워크플로 웹훅)와 HTTP 통신하는 클라이언트 정의
//
// 환경변수:
//   - CLASSIFIER_URL: 분류 웹훅 URL
//
// 요청: {"text": "...", "hint": "login", "lang": "pt"}
// 응답 본문은 검증하지 않고 그대로 반환 (스키마 검증은 service 레이어 담당)

package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// 응답 본문 최대 크기
const maxClassifierBody = 64 << 10

// HTTPClassifier 구조체 정의
type HTTPClassifier struct {
	url        string
	httpClient *http.Client
}

// ClassifyRequest - 분류 요청 페이로드
type ClassifyRequest struct {
	Text string `json:"text"`
	Hint string `json:"hint,omitempty"`
	Lang string `json:"lang,omitempty"`
}

// HTTPClassifier 객체 생성
// 타임아웃은 호출자의 context로 제어
func NewHTTPClassifier(url string) *HTTPClassifier {
	return &HTTPClassifier{
		url:        url,
		httpClient: &http.Client{},
	}
}

// 분류 요청 후 원본 응답 반환 (2xx 외에는 에러)
func (c *HTTPClassifier) Classify(ctx context.Context, text, hint, lang string) ([]byte, error) {
	payload, err := json.Marshal(ClassifyRequest{Text: text, Hint: hint, Lang: lang})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal classify request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request to classifier: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxClassifierBody))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("classifier returned status %d", resp.StatusCode)
	}
	return body, nil
}
