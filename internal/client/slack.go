// 외부 Slack API와 통신하는 클라이언트 정의
// Client 레이어에서만 사용하는 구조체 및 Slack 공통 메서드 정의
//
// 환경변수:
//   - SLACK_BOT_TOKEN: Slack Bot Token (xoxb-...)
//   - SLACK_CHANNEL_ID: Slack 채널 ID (C...)
//   - TIMEZONE: 메시지에 표시되는 시각의 기준 타임존
//
// Webhook 대신 Bot Token을 사용하는 이유:
//   - chat.postMessage가 ts를 반환하므로 윈도우의 알림 핸들로 사용 가능
//   - chat.update로 같은 메시지를 윈도우 상태에 맞게 다시 그릴 수 있음

package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ffnexus/incident-watch/internal/config"
)

const defaultSlackAPIURL = "https://slack.com/api"

// SlackClient 구조체 정의
type SlackClient struct {
	botToken   string
	channelID  string
	apiURL     string
	httpClient *http.Client
	loc        *time.Location
}

// SlackOption - SlackClient 생성 옵션
type SlackOption func(*SlackClient)

// WithSlackAPIURL - API 엔드포인트 교체 (테스트용)
func WithSlackAPIURL(url string) SlackOption {
	return func(c *SlackClient) { c.apiURL = strings.TrimRight(url, "/") }
}

// WithSlackHTTPClient - HTTP 클라이언트 교체
func WithSlackHTTPClient(hc *http.Client) SlackOption {
	return func(c *SlackClient) { c.httpClient = hc }
}

// SlackMessage(메시지 내용) 구조체 정의
type SlackMessage struct {
	Channel     string            `json:"channel"`               // 메시지를 보낼 채널 ID
	Text        string            `json:"text,omitempty"`        // 알림 미리보기용 본문
	Attachments []SlackAttachment `json:"attachments,omitempty"` // 색상, 필드
	TS          string            `json:"ts,omitempty"`          // chat.update 대상 메시지
}

// SlackAttachment(메시지 포맷) 구조체 정의
type SlackAttachment struct {
	// - high: #dc3545 (빨강)
	// - medium: #ffc107 (노랑)
	// - low: #36a64f (초록)
	Color  string       `json:"color"`
	Title  string       `json:"title"`
	Text   string       `json:"text"`
	Footer string       `json:"footer,omitempty"`
	Ts     int64        `json:"ts,omitempty"`
	Fields []SlackField `json:"fields,omitempty"`
}

// SlackField(메시지 포맷 필드) 구조체 정의
type SlackField struct {
	Title string `json:"title"`
	Value string `json:"value"`
	Short bool   `json:"short"` // true면 좁은 너비 (한 줄에 2개)
}

// SlackResponse(메시지 응답) 구조체 정의
type SlackResponse struct {
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
	TS    string `json:"ts,omitempty"`
}

// SlackClient 객체 생성
// 알 수 없는 타임존이면 UTC로 표시
func NewSlackClient(cfg config.SlackConfig, opts ...SlackOption) *SlackClient {
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil || cfg.Timezone == "" {
		loc = time.UTC
	}
	c := &SlackClient{
		botToken:  cfg.BotToken,
		channelID: cfg.ChannelID,
		apiURL:    defaultSlackAPIURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		loc: loc,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SlackClient에 Bot Token과 Channel ID가 모두 설정되어 있는지 체크
func (c *SlackClient) IsConfigured() bool {
	return c.botToken != "" && c.channelID != ""
}

// Slack Web API 호출 (method: chat.postMessage, chat.update)
func (c *SlackClient) call(ctx context.Context, method string, msg SlackMessage) (*SlackResponse, error) {
	// JSON 직렬화
	payload, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal message: %w", err)
	}

	// HTTP 요청 생성
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL+"/"+method, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	// 헤더 설정
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	req.Header.Set("Authorization", "Bearer "+c.botToken)

	// 요청 전송
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call %s: %w", method, err)
	}
	defer resp.Body.Close()

	// 응답 읽기
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("slack %s returned status %d", method, resp.StatusCode)
	}

	// JSON 파싱
	var slackResp SlackResponse
	if err := json.Unmarshal(body, &slackResp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	// 에러 확인
	if !slackResp.OK {
		return nil, fmt.Errorf("slack API error: %s", slackResp.Error)
	}

	return &slackResp, nil
}
