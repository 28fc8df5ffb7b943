package api

import "time"

// TranslationState состояние одного перевода внутри ключа.
type TranslationState struct {
	UpdatedAt   time.Time         `json:"updated_at"`
	Value       *string           `json:"value"`
	Comment     string            `json:"comment,omitempty"`
	Hash        string            `json:"hash"`
	Status      string            `json:"status"`
	UpdatedBy   string            `json:"updated_by,omitempty"`
	PluralForms map[string]string `json:"plural_forms,omitempty"`
}

// EntryState ключ со всеми его переводами.
// DeletedLangs перечисляет языки ключа, удаленные на сервере:
// их нет в Translations, и клиент обязан убрать их локально.
type EntryState struct {
	Key              string                      `json:"key"`
	Comment          string                      `json:"comment,omitempty"`
	SourcePluralText string                      `json:"source_plural_text,omitempty"`
	Translations     map[string]TranslationState `json:"translations"` // lang → state
	DeletedLangs     []string                    `json:"deleted_langs,omitempty"`
	IsPlural         bool                        `json:"is_plural,omitempty"`
}

// ConfigPropertyState свойство конфигурации с его хешем.
type ConfigPropertyState struct {
	ValueType string `json:"value_type"`
	Value     string `json:"value"`
	Hash      string `json:"hash"`
}

// ConfigState снимок конфигурации проекта.
type ConfigState struct {
	Properties map[string]ConfigPropertyState `json:"properties,omitempty"` // path → state
}

// PullResponse снимок состояния сервера, полный или инкрементальный.
// DeletedKeys перечисляет целиком удаленные ключи (при инкрементальном
// pull только попавшие в окно since): клиент обязан удалить их
// локально, иначе удаленные ключи "воскреснут".
type PullResponse struct {
	SyncTimestamp            time.Time    `json:"sync_timestamp"`
	Config                   ConfigState  `json:"config"`
	DefaultLanguage          string       `json:"default_language"`
	WorkflowMessage          string       `json:"workflow_message,omitempty"`
	Entries                  []EntryState `json:"entries"`
	DeletedKeys              []string     `json:"deleted_keys,omitempty"`
	Total                    int          `json:"total"`
	Page                     int          `json:"page"`
	PageSize                 int          `json:"page_size"`
	ExcludedTranslationCount int          `json:"excluded_translation_count,omitempty"`
	IsIncremental            bool         `json:"is_incremental"`
	HasMore                  bool         `json:"has_more"`
}
