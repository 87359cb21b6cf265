// Управление конфигурацией сервиса документов из переменных окружения.
//
// Основные возможности:
//   - Загрузка конфигурации из переменных окружения с использованием тегов struct.
//   - Значения по умолчанию для всех параметров.
//   - Валидация значений через go-playground/validator.
//   - Маскировка секретных значений в логах.
package config

import (
	"fmt"
	"log/slog"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator"
)

type Config struct {
	ListenAddr  string `env:"RICHDOC_LISTEN_ADDR" validate:"required"`
	MetricsAddr string `env:"RICHDOC_METRICS_ADDR"`

	DatabasePath string `env:"RICHDOC_DATABASE_PATH"`

	LogLevel string `env:"RICHDOC_LOG_LEVEL" validate:"oneof=debug info warn error"`

	MarkdownExtensions bool `env:"RICHDOC_MD_EXTENSIONS"`
	SanitizeHTML       bool `env:"RICHDOC_SANITIZE_HTML"`
	MinifyHTML         bool `env:"RICHDOC_MINIFY_HTML"`

	MaxBodyKB    int `env:"RICHDOC_MAX_BODY_KB" validate:"min=1,max=102400"`
	HistoryDepth int `env:"RICHDOC_HISTORY_DEPTH" validate:"min=1,max=10000"`

	// Сессия без обращений дольше SessionIdleTTL закрывается. 0 - не закрывать.
	SessionIdleTTL      time.Duration `env:"RICHDOC_SESSION_IDLE_TTL" validate:"min=0"`
	SessionReapSchedule string        `env:"RICHDOC_SESSION_REAP_SCHEDULE" validate:"required"`
}

// Default возвращает конфигурацию по умолчанию.
func Default() *Config {
	return &Config{
		ListenAddr:          ":8080",
		MetricsAddr:         ":2112",
		DatabasePath:        "richdoc.db",
		LogLevel:            "info",
		MarkdownExtensions:  true,
		SanitizeHTML:        true,
		MaxBodyKB:           5 * 1024,
		HistoryDepth:        100,
		SessionIdleTTL:      30 * time.Minute,
		SessionReapSchedule: "@every 1m",
	}
}

// ReadConfig загружает конфигурацию из переменных окружения поверх значений по умолчанию и проверяет ее.
func ReadConfig() (*Config, error) {
	config := Default()

	envConfig("env", config)

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// Validate проверяет значения конфигурации.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		if verrs, ok := err.(validator.ValidationErrors); ok {
			fields := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				fields = append(fields, fmt.Sprintf("%s(%s=%s)", fe.Field(), fe.Tag(), fe.Param()))
			}
			return fmt.Errorf("invalid config: %s", strings.Join(fields, ", "))
		}
		return err
	}
	return nil
}

// Level - уровень логирования slog.
func (c *Config) Level() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// MaxBody - лимит тела запроса в формате echo BodyLimit, например "5120K".
func (c *Config) MaxBody() string {
	return fmt.Sprintf("%dK", c.MaxBodyKB)
}

// Присваивает полям в переданной структуре значения переменных. Название переменной для каждого поля лежит в теге этого поля.
func envConfig(key string, s interface{}) {
	v := reflect.ValueOf(s).Elem()
	typeParam := v.Type()
	for i := 0; i < v.NumField(); i++ {
		fName := typeParam.Field(i).Name
		fEnvTag := typeParam.Field(i).Tag.Get(key)

		if fEnvTag == "" || !Exist(fEnvTag) {
			continue
		}

		value := GetEnv(fEnvTag)
		if value == "" {
			continue
		}

		slog.Info("Set config value",
			slog.String("key", typeParam.Name()+"."+fName),
			slog.String("value", maskSecret(fName, value)),
			slog.String("source", "ENVIRONMENT"),
		)

		switch v.Field(i).Interface().(type) {
		case string:
			v.Field(i).SetString(value)
		case time.Duration:
			v.Field(i).SetInt(int64(GetDurationEnv(fEnvTag)))
		case int:
			v.Field(i).SetInt(int64(GetIntEnv(fEnvTag)))
		case bool:
			v.Field(i).SetBool(GetBoolEnv(fEnvTag))
		}
	}
}

// maskSecret скрывает в логах все символы секретного значения, кроме первого и последнего.
func maskSecret(field, value string) string {
	name := strings.ToLower(field)
	if !strings.Contains(name, "pass") && !strings.Contains(name, "secret") && !strings.Contains(name, "token") {
		return value
	}
	runes := []rune(value)
	if len(runes) <= 2 {
		return strings.Repeat("*", len(runes))
	}
	return string(runes[0]) + strings.Repeat("*", len(runes)-2) + string(runes[len(runes)-1])
}
