package models

import "time"

// ConfigValueType помечает способ интерпретации сериализованного значения
// свойства конфигурации. Значение хранится как строка вместе с тегом,
// чтобы хеширование и сравнение были однозначными.
type ConfigValueType string

const (
	ConfigString ConfigValueType = "string"
	ConfigNumber ConfigValueType = "number"
	ConfigBool   ConfigValueType = "bool"
	ConfigJSON   ConfigValueType = "json"
)

// Valid reports whether t is a known config value type.
func (t ConfigValueType) Valid() bool {
	switch t {
	case ConfigString, ConfigNumber, ConfigBool, ConfigJSON:
		return true
	}
	return false
}

// Известные пути свойств конфигурации, которые читает сам движок.
const (
	ConfigPathDefaultLanguage = "defaultLanguage"
	ConfigPathMinSyncStatus   = "workflow.minSyncStatus"
)

// ConfigProperty представляет свойство конфигурации проекта.
// Идентифицируется парой (ProjectID, Path). Участвует в разрешении
// конфликтов по тем же правилам, что и Entry, но в своем пространстве имен.
type ConfigProperty struct {
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
	ProjectID string          `json:"project_id"`
	Path      string          `json:"path"`
	ValueType ConfigValueType `json:"value_type"`
	Value     string          `json:"value"`
	Hash      string          `json:"hash"`
	UpdatedBy string          `json:"updated_by"`
	Version   int64           `json:"version"`
	Deleted   bool            `json:"deleted"`
}
