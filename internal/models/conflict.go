package models

import "time"

// ConflictType классифицирует расхождение между клиентом и сервером.
type ConflictType string

const (
	// ConflictBothModified обе стороны изменили запись после общей базы.
	ConflictBothModified ConflictType = "both_modified"
	// ConflictDeletedRemote сервер удалил запись, клиент ее изменил.
	ConflictDeletedRemote ConflictType = "deleted_remote"
	// ConflictDeletedLocal клиент удалил запись, сервер ее изменил.
	ConflictDeletedLocal ConflictType = "deleted_local"
)

// ConflictScope различает пространство имен конфликтующего объекта.
type ConflictScope string

const (
	ScopeEntry  ConflictScope = "entry"
	ScopeConfig ConflictScope = "config"
)

// Conflict описывает одну отвергнутую операцию push.
// Запись транзиентная: живет только в ответе сервера, пока клиент
// не разрешит конфликт явным выбором.
type Conflict struct {
	RemoteUpdatedAt time.Time     `json:"remote_updated_at"`
	Scope           ConflictScope `json:"scope"`
	Type            ConflictType  `json:"type"`
	Key             string        `json:"key"` // для scope=config здесь путь свойства
	Lang            string        `json:"lang,omitempty"`
	LocalValue      *string       `json:"local_value"`
	RemoteValue     *string       `json:"remote_value"`
	RemoteHash      string        `json:"remote_hash"`
	RemoteUpdatedBy string        `json:"remote_updated_by"`
}
