package models

import "time"

// HistoryOperation тип операции, породившей запись истории.
type HistoryOperation string

const (
	OperationPush   HistoryOperation = "push"
	OperationRevert HistoryOperation = "revert"
)

// HistoryStatus статус записи истории для отображения.
// Содержимое записи при этом никогда не меняется.
type HistoryStatus string

const (
	HistoryCompleted HistoryStatus = "completed"
	HistoryReverted  HistoryStatus = "reverted"
)

// ChangeType классифицирует одно изменение внутри записи истории.
type ChangeType string

const (
	ChangeAdded    ChangeType = "added"
	ChangeModified ChangeType = "modified"
	ChangeDeleted  ChangeType = "deleted"
)

// Change одно изменение (key, lang) с состоянием до и после.
// Для scope=config в Key хранится путь свойства, Lang пустой.
type Change struct {
	Scope         ConflictScope `json:"scope"`
	Key           string        `json:"key"`
	Lang          string        `json:"lang,omitempty"`
	Type          ChangeType    `json:"type"`
	BeforeValue   *string       `json:"before_value"`
	AfterValue    *string       `json:"after_value"`
	BeforeComment string        `json:"before_comment,omitempty"`
	AfterComment  string        `json:"after_comment,omitempty"`
}

// HistoryEntry append-only запись о принятом push или revert.
// Список Changes неизменяем после создания; revert не трогает
// исходную запись, а добавляет новую со ссылкой RevertOf.
type HistoryEntry struct {
	CreatedAt time.Time        `json:"created_at"`
	ID        string           `json:"id"`
	ProjectID string           `json:"project_id"`
	Operation HistoryOperation `json:"operation"`
	Source    string           `json:"source"`
	Message   string           `json:"message,omitempty"`
	Status    HistoryStatus    `json:"status"`
	RevertOf  string           `json:"revert_of,omitempty"`
	CreatedBy string           `json:"created_by"`
	Changes   []Change         `json:"changes,omitempty"`
}

// Counts возвращает количество добавленных, измененных и удаленных
// изменений в записи.
func (h *HistoryEntry) Counts() (added, modified, deleted int) {
	for _, c := range h.Changes {
		switch c.Type {
		case ChangeAdded:
			added++
		case ChangeModified:
			modified++
		case ChangeDeleted:
			deleted++
		}
	}
	return added, modified, deleted
}
