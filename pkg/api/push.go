// Package api содержит wire-типы протокола синхронизации.
// Хеши — hex-строки фиксированной длины (SHA-256), временные метки — UTC.
package api

import (
	"time"

	"github.com/loclate/loclate/internal/models"
)

// EntryChange одно намерение изменить перевод.
// BaseHash — хеш содержимого, которое клиент считает текущим на сервере
// (из последнего pull/push). Отсутствующий BaseHash означает "ключ новый";
// без него сервер не отличил бы осознанную перезапись от слепой.
type EntryChange struct {
	Key              string            `json:"key"`
	Lang             string            `json:"lang"`
	Value            *string           `json:"value"`
	Comment          string            `json:"comment,omitempty"`
	SourcePluralText string            `json:"source_plural_text,omitempty"`
	PluralForms      map[string]string `json:"plural_forms,omitempty"`
	BaseHash         *string           `json:"base_hash,omitempty"`
	Status           string            `json:"status,omitempty"`
	IsPlural         bool              `json:"is_plural,omitempty"`
}

// EntryDeletion намерение удалить ключ целиком (Lang пустой) или
// один его язык. BaseHash обязателен: удаление тоже проверяется на конфликт.
type EntryDeletion struct {
	Key      string  `json:"key"`
	Lang     string  `json:"lang,omitempty"`
	BaseHash *string `json:"base_hash,omitempty"`
}

// ConfigChange намерение изменить свойство конфигурации.
type ConfigChange struct {
	Path      string  `json:"path"`
	ValueType string  `json:"value_type"`
	Value     string  `json:"value"`
	BaseHash  *string `json:"base_hash,omitempty"`
}

// ConfigDeletion намерение удалить свойство конфигурации.
type ConfigDeletion struct {
	Path     string  `json:"path"`
	BaseHash *string `json:"base_hash,omitempty"`
}

// ConfigPush изменения конфигурации внутри push-запроса.
type ConfigPush struct {
	Changes   []ConfigChange   `json:"changes,omitempty"`
	Deletions []ConfigDeletion `json:"deletions,omitempty"`
}

// PushRequest пакет локальных изменений клиента.
type PushRequest struct {
	Message   string          `json:"message,omitempty"`
	Source    string          `json:"source,omitempty"`
	Entries   []EntryChange   `json:"entries,omitempty"`
	Deletions []EntryDeletion `json:"deletions,omitempty"`
	Config    ConfigPush      `json:"config"`
}

// ConflictRecord конфликт, обнаруженный сервером при применении push.
type ConflictRecord struct {
	RemoteUpdatedAt time.Time `json:"remote_updated_at"`
	Scope           string    `json:"scope"` // entry | config
	Type            string    `json:"type"`  // both_modified | deleted_remote | deleted_local
	Key             string    `json:"key"`
	Lang            string    `json:"lang,omitempty"`
	LocalValue      *string   `json:"local_value"`
	RemoteValue     *string   `json:"remote_value"`
	RemoteHash      string    `json:"remote_hash"`
	RemoteUpdatedBy string    `json:"remote_updated_by"`
}

// PushResponse результат применения пакета. Applied/Deleted и карты
// новых хешей покрывают только бесконфликтную часть пакета.
type PushResponse struct {
	NewEntryHashes  map[string]map[string]string `json:"new_entry_hashes,omitempty"` // key → lang → hash
	NewConfigHashes map[string]string            `json:"new_config_hashes,omitempty"`
	HistoryID       string                       `json:"history_id,omitempty"`
	Conflicts       []ConflictRecord             `json:"conflicts,omitempty"`
	Applied         int                          `json:"applied"`
	Deleted         int                          `json:"deleted"`
	ConfigApplied   bool                         `json:"config_applied"`
}

// ConflictFromModel конвертирует доменный конфликт в wire-формат.
func ConflictFromModel(c models.Conflict) ConflictRecord {
	return ConflictRecord{
		Scope:           string(c.Scope),
		Type:            string(c.Type),
		Key:             c.Key,
		Lang:            c.Lang,
		LocalValue:      c.LocalValue,
		RemoteValue:     c.RemoteValue,
		RemoteHash:      c.RemoteHash,
		RemoteUpdatedAt: c.RemoteUpdatedAt,
		RemoteUpdatedBy: c.RemoteUpdatedBy,
	}
}

// ConflictToModel конвертирует wire-конфликт обратно в доменный.
func ConflictToModel(c ConflictRecord) models.Conflict {
	return models.Conflict{
		Scope:           models.ConflictScope(c.Scope),
		Type:            models.ConflictType(c.Type),
		Key:             c.Key,
		Lang:            c.Lang,
		LocalValue:      c.LocalValue,
		RemoteValue:     c.RemoteValue,
		RemoteHash:      c.RemoteHash,
		RemoteUpdatedAt: c.RemoteUpdatedAt,
		RemoteUpdatedBy: c.RemoteUpdatedBy,
	}
}
