package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata" // TIMEZONE 검증/표시용 (컨테이너에 zoneinfo가 없을 수 있음)

	"github.com/joho/godotenv"
)

type Config struct {
	Incident IncidentConfig
	Guard    GuardConfig
	AI       AIConfig
	Slack    SlackConfig
	Postgres PostgresConfig
	Kafka    KafkaConfig
	Server   ServerConfig
	Log      LogConfig
	Keywords KeywordsConfig

	// 파싱 단계에서 발견된 잘못된 값 (Validate에서 함께 보고)
	invalid []string
}

// IncidentConfig - 윈도우 집계 설정
type IncidentConfig struct {
	WindowDuration  time.Duration
	MediumAt        int
	HighAt          int
	ExampleCapacity int
	SweepInterval   time.Duration
	SinkTimeout     time.Duration
	Workers         int
}

// GuardConfig - 1차 필터 설정
type GuardConfig struct {
	MinWords       int
	DomainRequired bool
	LexiconPath    string
}

// AIConfig - 외부 분류 서비스 설정
// ClassifierURL이 있으면 HTTP 분류 서비스, 없고 APIKey가 있으면 Gemini 사용
type AIConfig struct {
	Enabled       bool
	MinScore      float64
	Timeout       time.Duration
	ClassifierURL string
	APIKey        string
	Model         string
}

type SlackConfig struct {
	BotToken  string
	ChannelID string
	Timezone  string
}

// Enabled - Slack 싱크 사용 여부
func (c SlackConfig) Enabled() bool {
	return c.BotToken != "" && c.ChannelID != ""
}

type PostgresConfig struct {
	DatabaseURL string
	Host        string
	Port        string
	User        string
	Password    string
	Database    string
	SSLMode     string
}

// Enabled - DB 연결 정보가 있는지 여부
func (c PostgresConfig) Enabled() bool {
	return c.DatabaseURL != "" || (c.User != "" && c.Database != "")
}

type KafkaConfig struct {
	Brokers []string
	Topic   string
	GroupID string
}

// Enabled - Kafka 수집 사용 여부
func (c KafkaConfig) Enabled() bool {
	return len(c.Brokers) > 0
}

type ServerConfig struct {
	Port            string
	IngestJWTSecret string
}

type LogConfig struct {
	Level  string
	Format string
}

type KeywordsConfig struct {
	CacheTTL time.Duration
}

// LoadEnvFile - .env 파일을 환경변수로 로드
// path가 비어 있으면 ./.env를 시도하고, 없으면 무시
func LoadEnvFile(path string) error {
	explicit := path != ""
	if !explicit {
		path = ".env"
	}
	if err := godotenv.Load(path); err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to load env file %s: %w", path, err)
	}
	return nil
}

func Load() Config {
	l := &loader{}
	cfg := Config{
		Incident: IncidentConfig{
			WindowDuration:  time.Duration(l.int("INCIDENT_WINDOW_MIN", 10)) * time.Minute,
			MediumAt:        l.int("INCIDENT_MEDIUM_AT", 2),
			HighAt:          l.int("INCIDENT_HIGH_AT", 6),
			ExampleCapacity: l.int("INCIDENT_EXAMPLE_CAPACITY", 12),
			SweepInterval:   l.duration("INCIDENT_SWEEP_INTERVAL", 5*time.Second),
			SinkTimeout:     l.duration("INCIDENT_SINK_TIMEOUT", 10*time.Second),
			Workers:         l.int("INCIDENT_WORKERS", 16),
		},
		Guard: GuardConfig{
			MinWords:       l.int("MIN_WORDS", 3),
			DomainRequired: l.bool("REQUIRE_DOMAIN", true),
			LexiconPath:    os.Getenv("INCIDENT_LEXICON_PATH"),
		},
		AI: AIConfig{
			Enabled:       l.bool("INCIDENT_AI_ENABLED", true),
			MinScore:      l.float("INCIDENT_AI_MIN_SCORE", 0.6),
			Timeout:       time.Duration(l.int("INCIDENT_AI_TIMEOUT_MS", 8000)) * time.Millisecond,
			ClassifierURL: os.Getenv("CLASSIFIER_URL"),
			APIKey:        os.Getenv("AI_API_KEY"),
			Model:         getenv("AI_MODEL", "gemini-2.5-flash"),
		},
		Slack: SlackConfig{
			BotToken:  os.Getenv("SLACK_BOT_TOKEN"),
			ChannelID: os.Getenv("SLACK_CHANNEL_ID"),
			Timezone:  getenv("TIMEZONE", "America/Sao_Paulo"),
		},
		Postgres: PostgresConfig{
			DatabaseURL: os.Getenv("DATABASE_URL"),
			Host:        getenv("PGHOST", "localhost"),
			Port:        getenv("PGPORT", "5432"),
			User:        os.Getenv("PGUSER"),
			Password:    os.Getenv("PGPASSWORD"),
			Database:    os.Getenv("PGDATABASE"),
			SSLMode:     getenv("PGSSLMODE", "disable"),
		},
		Kafka: KafkaConfig{
			Brokers: splitList(os.Getenv("KAFKA_BROKERS")),
			Topic:   getenv("KAFKA_TOPIC", "incident-events"),
			GroupID: getenv("KAFKA_GROUP_ID", "incident-watch"),
		},
		Server: ServerConfig{
			Port:            getenv("PORT", "8080"),
			IngestJWTSecret: os.Getenv("INGEST_JWT_SECRET"),
		},
		Log: LogConfig{
			Level:  getenv("LOG_LEVEL", "info"),
			Format: getenv("LOG_FORMAT", "text"),
		},
		Keywords: KeywordsConfig{
			CacheTTL: l.duration("KEYWORDS_CACHE_TTL", 300*time.Second),
		},
	}
	cfg.invalid = l.errs
	return cfg
}

// Validate - 기동 전 설정 검증
// 잘못된 항목을 모두 모아 하나의 에러로 반환
func (c Config) Validate() error {
	problems := append([]string(nil), c.invalid...)
	add := func(format string, args ...any) {
		problems = append(problems, fmt.Sprintf(format, args...))
	}

	inc := c.Incident
	if inc.WindowDuration <= 0 {
		add("INCIDENT_WINDOW_MIN must be positive")
	}
	if inc.MediumAt < 2 {
		add("INCIDENT_MEDIUM_AT must be at least 2, got %d", inc.MediumAt)
	}
	if inc.HighAt <= inc.MediumAt {
		add("INCIDENT_HIGH_AT (%d) must be greater than INCIDENT_MEDIUM_AT (%d)", inc.HighAt, inc.MediumAt)
	}
	if inc.ExampleCapacity < 1 {
		add("INCIDENT_EXAMPLE_CAPACITY must be at least 1, got %d", inc.ExampleCapacity)
	}
	if inc.SweepInterval <= 0 {
		add("INCIDENT_SWEEP_INTERVAL must be positive")
	}
	if inc.SinkTimeout <= 0 {
		add("INCIDENT_SINK_TIMEOUT must be positive")
	}
	if inc.Workers < 1 {
		add("INCIDENT_WORKERS must be at least 1, got %d", inc.Workers)
	}

	if c.Guard.MinWords < 1 {
		add("MIN_WORDS must be at least 1, got %d", c.Guard.MinWords)
	}

	if c.AI.MinScore < 0 || c.AI.MinScore > 1 {
		add("INCIDENT_AI_MIN_SCORE must be within [0,1], got %v", c.AI.MinScore)
	}
	if c.AI.Timeout <= 0 {
		add("INCIDENT_AI_TIMEOUT_MS must be positive")
	}

	if (c.Slack.BotToken == "") != (c.Slack.ChannelID == "") {
		add("SLACK_BOT_TOKEN and SLACK_CHANNEL_ID must be set together")
	}
	if _, err := time.LoadLocation(c.Slack.Timezone); err != nil {
		add("TIMEZONE %q is not a known location", c.Slack.Timezone)
	}

	if c.Kafka.Enabled() && c.Kafka.Topic == "" {
		add("KAFKA_TOPIC is required when KAFKA_BROKERS is set")
	}

	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		add("LOG_FORMAT must be text or json, got %q", c.Log.Format)
	}

	if c.Keywords.CacheTTL <= 0 {
		add("KEYWORDS_CACHE_TTL must be positive")
	}

	if len(problems) == 0 {
		return nil
	}
	return fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
}

type loader struct {
	errs []string
}

func (l *loader) int(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	n, err := strconv.Atoi(strings.TrimSpace(val))
	if err != nil {
		l.errs = append(l.errs, fmt.Sprintf("%s: %q is not an integer", key, val))
		return fallback
	}
	return n
}

func (l *loader) float(key string, fallback float64) float64 {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
	if err != nil {
		l.errs = append(l.errs, fmt.Sprintf("%s: %q is not a number", key, val))
		return fallback
	}
	return f
}

func (l *loader) bool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	b, err := strconv.ParseBool(strings.TrimSpace(val))
	if err != nil {
		l.errs = append(l.errs, fmt.Sprintf("%s: %q is not a boolean", key, val))
		return fallback
	}
	return b
}

// duration - "5s" 같은 Go duration 또는 초 단위 정수 허용
func (l *loader) duration(key string, fallback time.Duration) time.Duration {
	val := strings.TrimSpace(os.Getenv(key))
	if val == "" {
		return fallback
	}
	if secs, err := strconv.Atoi(val); err == nil {
		return time.Duration(secs) * time.Second
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		l.errs = append(l.errs, fmt.Sprintf("%s: %q is not a duration", key, val))
		return fallback
	}
	return d
}

func splitList(val string) []string {
	var out []string
	for _, part := range strings.Split(val, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func getenv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}
