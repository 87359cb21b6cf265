// Управление конфигурацией приложения через переменные окружения.
package config

import (
	"os"
	"strconv"
	"time"
)

// Exist - возвращает true, если глобальная переменная key существует, иначе false
func Exist(key string) bool {
	_, exist := os.LookupEnv(key)
	return exist
}

// GetEnv - возвращает содержимое глобальной строковой переменной.
func GetEnv(key string) string {
	val, _ := os.LookupEnv(key)
	return val
}

// GetIntEnv - возвращает содержимое глобальной числовой переменной. Если возникла ошибка при обработке, возвращается 0
func GetIntEnv(key string) int {
	val, _ := os.LookupEnv(key)
	v, err := strconv.Atoi(val)
	if err != nil {
		return 0
	}
	return v
}

// GetBoolEnv - возвращает содержимое глобальной логической переменной. Если возникла ошибка при обработке, возвращается false
func GetBoolEnv(key string) bool {
	val, _ := os.LookupEnv(key)
	v, err := strconv.ParseBool(val)
	if err != nil {
		return false
	}
	return v
}

// GetDurationEnv - возвращает содержимое глобальной переменной длительности в формате time.ParseDuration ("90s", "1h30m").
// Целое число без единиц читается как секунды. Если возникла ошибка при обработке, возвращается -1
func GetDurationEnv(key string) time.Duration {
	val, _ := os.LookupEnv(key)
	if secs, err := strconv.Atoi(val); err == nil {
		return time.Duration(secs) * time.Second
	}
	v, err := time.ParseDuration(val)
	if err != nil {
		return -1
	}
	return v
}
