package config

import (
	"fmt"
	"log"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// AppConfig описывает конфигурацию сервисов.
type AppConfig struct {
	AppEnv      string `envconfig:"APP_ENV" default:"dev"`
	TZ          string `envconfig:"TZ" default:"Asia/Shanghai"`
	Port        int    `envconfig:"PORT" default:"8080"`
	MetricsAddr string `envconfig:"METRICS_ADDR" default:":9090"`

	Chatlog struct {
		BaseURL     string        `envconfig:"CHATLOG_BASE_URL" default:"http://127.0.0.1:5030"`
		Timeout     time.Duration `envconfig:"CHATLOG_TIMEOUT" default:"15s"`
		MappingFile string        `envconfig:"CHATROOM_MAPPING_FILE"`
		CacheTTL    time.Duration `envconfig:"CHATROOM_CACHE_TTL" default:"10m"`
	} `envconfig:""`

	Analysis struct {
		Window        time.Duration `envconfig:"SESSION_WINDOW" default:"30m"`
		MinMessages   int           `envconfig:"TOPIC_MIN_MESSAGES" default:"2"`
		FixedTarget   int           `envconfig:"TOPIC_FIXED_TARGET" default:"0"`
		TargetDivisor int           `envconfig:"TOPIC_TARGET_DIVISOR" default:"50"`
		TargetMin     int           `envconfig:"TOPIC_TARGET_MIN" default:"5"`
		TargetMax     int           `envconfig:"TOPIC_TARGET_MAX" default:"20"`
	} `envconfig:""`

	Score struct {
		MessageAnchor      float64 `envconfig:"SCORE_MESSAGE_ANCHOR" default:"10"`
		MessageCap         float64 `envconfig:"SCORE_MESSAGE_CAP" default:"3"`
		MessageWeight      float64 `envconfig:"SCORE_MESSAGE_WEIGHT" default:"1"`
		LengthAnchor       float64 `envconfig:"SCORE_LENGTH_ANCHOR" default:"500"`
		LengthCap          float64 `envconfig:"SCORE_LENGTH_CAP" default:"2"`
		LengthWeight       float64 `envconfig:"SCORE_LENGTH_WEIGHT" default:"1"`
		ParticipantAnchor  float64 `envconfig:"SCORE_PARTICIPANT_ANCHOR" default:"5"`
		ParticipantCap     float64 `envconfig:"SCORE_PARTICIPANT_CAP" default:"2"`
		ParticipantWeight  float64 `envconfig:"SCORE_PARTICIPANT_WEIGHT" default:"1"`
		DiversityThreshold int     `envconfig:"SCORE_DIVERSITY_THRESHOLD" default:"2"`
		DiversityBonus     float64 `envconfig:"SCORE_DIVERSITY_BONUS" default:"1.5"`
		Max                float64 `envconfig:"SCORE_MAX" default:"10"`
	} `envconfig:""`

	RedisAddr string `envconfig:"REDIS_ADDR"`
	RabbitURL string `envconfig:"RABBITMQ_URL"`

	Queues struct {
		Analysis string `envconfig:"ANALYSIS_QUEUE_KEY" default:"analysis_jobs"`
	} `envconfig:""`

	APIToken string `envconfig:"API_TOKEN"`

	Telegram struct {
		Token string `envconfig:"TG_BOT_TOKEN"`
		Mode  string `envconfig:"TG_MODE" default:"polling"`
	} `envconfig:""`

	Batch struct {
		ReportDir    string        `envconfig:"REPORT_DIR" default:"reports"`
		Checklist    string        `envconfig:"BATCH_CHECKLIST" default:"群聊清单.md"`
		RequestDelay time.Duration `envconfig:"BATCH_REQUEST_DELAY" default:"500ms"`
	} `envconfig:""`

	Schedule struct {
		DailyAt      string `envconfig:"SCHEDULE_DAILY_AT" default:"08:00"`
		TelegramChat int64  `envconfig:"SCHEDULE_TELEGRAM_CHAT" default:"0"`
	} `envconfig:""`
}

// Location возвращает часовой пояс из конфигурации.
func (c AppConfig) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.TZ)
	if err != nil {
		return nil, fmt.Errorf("часовой пояс %q: %w", c.TZ, err)
	}
	return loc, nil
}

// Process читает конфиг из окружения.
func Process() (AppConfig, error) {
	var cfg AppConfig
	if err := envconfig.Process("", &cfg); err != nil {
		return AppConfig{}, err
	}
	return cfg, nil
}

// Load загружает конфиг из окружения.
func Load() AppConfig {
	cfg, err := Process()
	if err != nil {
		log.Fatalf("не удалось загрузить конфиг: %v", err)
	}
	return cfg
}
