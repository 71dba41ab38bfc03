// slog 기본 로거 초기화
//
// LOG_FORMAT=json 이면 JSON, 그 외에는 사람이 읽기 쉬운 text 핸들러 사용
// 출력은 항상 stderr

package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Init - 기본 slog 로거 교체
func Init(format string, level slog.Level) {
	slog.SetDefault(slog.New(NewHandler(os.Stderr, format, level)))
}

// NewHandler - format에 맞는 slog.Handler 생성
func NewHandler(w io.Writer, format string, level slog.Level) slog.Handler {
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(format, "json") {
		return slog.NewJSONHandler(w, opts)
	}
	return slog.NewTextHandler(w, opts)
}

// ParseLevel - 문자열("debug", "info", "warn", "error")을 slog.Level로 변환
// 알 수 없는 값은 LevelInfo
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Discard - 테스트용 무출력 로거
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
