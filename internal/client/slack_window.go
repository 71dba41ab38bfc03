// Slack 윈도우 알림 메시지 관련 메서드 정의

package client

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ffnexus/incident-watch/internal/model"
)

const slackFooter = "FFNexus • Garena BR"

var slackEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")

// 새 윈도우 알림 전송 후 메시지 ts 반환
// ts는 이후 chat.update의 대상이 되는 핸들
func (c *SlackClient) PostWindow(ctx context.Context, snap model.WindowSnapshot) (string, error) {
	if !c.IsConfigured() {
		return "", fmt.Errorf("slack bot token or channel ID not configured")
	}
	resp, err := c.call(ctx, "chat.postMessage", c.BuildWindowMessage(snap))
	if err != nil {
		return "", err
	}
	if resp.TS == "" {
		return "", fmt.Errorf("slack API returned no ts")
	}
	return resp.TS, nil
}

// 기존 윈도우 알림을 현재 스냅샷으로 다시 그림
func (c *SlackClient) UpdateWindow(ctx context.Context, ts string, snap model.WindowSnapshot) error {
	if !c.IsConfigured() {
		return fmt.Errorf("slack bot token or channel ID not configured")
	}
	if ts == "" {
		return fmt.Errorf("missing message ts")
	}
	msg := c.BuildWindowMessage(snap)
	msg.TS = ts
	_, err := c.call(ctx, "chat.update", msg)
	return err
}

// 스냅샷을 Slack 메시지로 변환
//
// 구성:
//   - 제목: ⚠️ Alerta: {label}, 색상은 심각도 단계
//   - 본문: 윈도우 내 발생 횟수, 시작/마지막 시각, AI 메모(🧠)
//   - 필드: 심각도, 발생 횟수, 상황 요약, 최근 예시, 숨겨진 예시 수
func (c *SlackClient) BuildWindowMessage(snap model.WindowSnapshot) SlackMessage {
	title := fmt.Sprintf("⚠️ Alerta: %s", snap.Label)

	lines := []string{
		fmt.Sprintf("Ocorrências em %d min: %d", snap.WindowMinutes, snap.Count),
		fmt.Sprintf("Início: %s • Último: %s", c.clock(snap.OpenedAt), c.clock(snap.LastSeenAt)),
	}
	if snap.Annotation != "" {
		lines = append(lines, "", "🧠 "+slackEscaper.Replace(snap.Annotation))
	}

	fields := []SlackField{
		{Title: "Severidade", Value: severityText(snap.Severity), Short: true},
		{Title: "Ocorrências", Value: fmt.Sprintf("%d", snap.Count), Short: true},
		{Title: "Contexto", Value: slackEscaper.Replace(snap.ContextSummary()), Short: false},
	}

	if len(snap.Examples) > 0 {
		examples := make([]string, 0, len(snap.Examples))
		for _, ex := range snap.Examples {
			line := fmt.Sprintf("• %s - %s", c.clock(ex.OccurredAt), slackEscaper.Replace(ex.Text))
			if ex.SourceRef != "" {
				line += fmt.Sprintf(" (<%s|abrir>)", ex.SourceRef)
			}
			examples = append(examples, line)
		}
		fields = append(fields, SlackField{Title: "Exemplos", Value: strings.Join(examples, "\n"), Short: false})
	}

	if snap.HiddenExamples > 0 {
		fields = append(fields, SlackField{
			Title: "📊 Estatísticas",
			Value: fmt.Sprintf("Mostrando %d de %d mensagens. %d mensagens anteriores ocultas.",
				len(snap.Examples), snap.TotalExamples(), snap.HiddenExamples),
			Short: false,
		})
	}

	return SlackMessage{
		Channel: c.channelID,
		Text:    fmt.Sprintf("%s (%d)", title, snap.Count),
		Attachments: []SlackAttachment{
			{
				Color:  severityColor(snap.Severity),
				Title:  title,
				Text:   strings.Join(lines, "\n"),
				Fields: fields,
				Footer: slackFooter,
				Ts:     snap.LastSeenAt.Unix(),
			},
		},
	}
}

func (c *SlackClient) clock(t time.Time) string {
	return t.In(c.loc).Format("15:04:05")
}

// 심각도에 따른 메시지 색상 반환
func severityColor(s model.Severity) string {
	switch s {
	case model.SeverityHigh:
		return "#dc3545" // red
	case model.SeverityMedium:
		return "#ffc107" // yellow
	default:
		return "#36a64f" // green
	}
}

func severityText(s model.Severity) string {
	switch s {
	case model.SeverityHigh:
		return "🔴 Alta"
	case model.SeverityMedium:
		return "🟡 Média"
	default:
		return "🟢 Baixa"
	}
}
