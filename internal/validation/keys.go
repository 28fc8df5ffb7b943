package validation

import (
	"fmt"
	"regexp"
)

// KeyPattern определяет допустимый формат ключа перевода
// Сегменты из букв, цифр, _ и -, разделенные точками: "home.title", "btn_save"
// Длина: 1-256 символов
var KeyPattern = regexp.MustCompile(`^[a-zA-Z0-9_\-]+(\.[a-zA-Z0-9_\-]+)*$`)

// ConfigPathPattern определяет допустимый формат пути свойства конфигурации
// Те же сегменты через точку: "defaultLanguage", "workflow.minSyncStatus"
var ConfigPathPattern = regexp.MustCompile(`^[a-zA-Z0-9_\-]+(\.[a-zA-Z0-9_\-]+)*$`)

// LanguagePattern определяет допустимый код языка по образцу BCP 47:
// "en", "pt-BR", "zh-Hant"
var LanguagePattern = regexp.MustCompile(`^[a-zA-Z]{2,3}(-[a-zA-Z0-9]{2,8})*$`)

// ProjectIDPattern определяет допустимый идентификатор проекта
var ProjectIDPattern = regexp.MustCompile(`^[a-zA-Z0-9_\-]{1,64}$`)

const (
	// MaxKeyLen максимальная длина ключа перевода
	MaxKeyLen = 256
	// MaxConfigPathLen максимальная длина пути свойства конфигурации
	MaxConfigPathLen = 128
)

// ValidateKey проверяет, что ключ перевода соответствует требованиям.
func ValidateKey(key string) error {
	if key == "" {
		return fmt.Errorf("key cannot be empty")
	}

	if len(key) > MaxKeyLen {
		return fmt.Errorf("key must not exceed %d characters", MaxKeyLen)
	}

	if !KeyPattern.MatchString(key) {
		return fmt.Errorf("key can only contain dot-separated segments of letters, numbers, underscores and dashes")
	}

	return nil
}

// ValidateConfigPath проверяет путь свойства конфигурации.
func ValidateConfigPath(path string) error {
	if path == "" {
		return fmt.Errorf("config path cannot be empty")
	}

	if len(path) > MaxConfigPathLen {
		return fmt.Errorf("config path must not exceed %d characters", MaxConfigPathLen)
	}

	if !ConfigPathPattern.MatchString(path) {
		return fmt.Errorf("config path can only contain dot-separated segments of letters, numbers, underscores and dashes")
	}

	return nil
}

// ValidateLanguage проверяет код языка.
func ValidateLanguage(lang string) error {
	if lang == "" {
		return fmt.Errorf("language code cannot be empty")
	}

	if !LanguagePattern.MatchString(lang) {
		return fmt.Errorf("language code must look like a BCP 47 tag (en, pt-BR)")
	}

	return nil
}

// ValidateProjectID проверяет идентификатор проекта.
func ValidateProjectID(projectID string) error {
	if projectID == "" {
		return fmt.Errorf("project id cannot be empty")
	}

	if !ProjectIDPattern.MatchString(projectID) {
		return fmt.Errorf("project id can only contain letters, numbers, underscores and dashes (max 64 characters)")
	}

	return nil
}
