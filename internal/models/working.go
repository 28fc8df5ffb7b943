package models

import "time"

// WorkingEntry перевод в локальной рабочей копии клиента.
// До push существует только локально; после успешного push его
// содержимое совпадает с базовой линией.
type WorkingEntry struct {
	ModifiedAt       time.Time         `json:"modified_at"`
	PluralForms      map[string]string `json:"plural_forms,omitempty"`
	Value            *string           `json:"value"`
	Key              string            `json:"key"`
	Lang             string            `json:"lang"`
	Comment          string            `json:"comment,omitempty"`
	SourcePluralText string            `json:"source_plural_text,omitempty"`
	Status           TranslationStatus `json:"status"`
	IsPlural         bool              `json:"is_plural"`
}

// WorkingConfig свойство конфигурации в рабочей копии.
type WorkingConfig struct {
	ModifiedAt time.Time       `json:"modified_at"`
	Path       string          `json:"path"`
	ValueType  ConfigValueType `json:"value_type"`
	Value      string          `json:"value"`
}

// Baseline хеш последнего известного серверного состояния перевода.
// Отсутствие базовой линии означает, что сервер записи не видел.
type Baseline struct {
	Key  string `json:"key"`
	Lang string `json:"lang"`
	Hash string `json:"hash"`
}
