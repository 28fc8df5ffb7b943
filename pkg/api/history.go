package api

import "time"

// HistoryItem сводка одной записи истории (без списка изменений).
type HistoryItem struct {
	CreatedAt       time.Time `json:"created_at"`
	HistoryID       string    `json:"history_id"`
	OperationType   string    `json:"operation_type"` // push | revert
	Source          string    `json:"source,omitempty"`
	Message         string    `json:"message,omitempty"`
	Status          string    `json:"status"` // completed | reverted
	RevertOf        string    `json:"revert_of,omitempty"`
	CreatedBy       string    `json:"created_by"`
	EntriesAdded    int       `json:"entries_added"`
	EntriesModified int       `json:"entries_modified"`
	EntriesDeleted  int       `json:"entries_deleted"`
}

// ChangeRecord одно изменение внутри записи истории.
type ChangeRecord struct {
	Scope         string  `json:"scope"` // entry | config
	Key           string  `json:"key"`
	Lang          string  `json:"lang,omitempty"`
	ChangeType    string  `json:"change_type"` // added | modified | deleted
	BeforeValue   *string `json:"before_value"`
	AfterValue    *string `json:"after_value"`
	BeforeComment string  `json:"before_comment,omitempty"`
	AfterComment  string  `json:"after_comment,omitempty"`
}

// HistoryListResponse постраничный список записей истории, новые первыми.
type HistoryListResponse struct {
	Items    []HistoryItem `json:"items"`
	Total    int           `json:"total"`
	Page     int           `json:"page"`
	PageSize int           `json:"page_size"`
	HasMore  bool          `json:"has_more"`
}

// HistoryDetailResponse запись истории с полным списком изменений.
type HistoryDetailResponse struct {
	HistoryItem
	Changes []ChangeRecord `json:"changes"`
}

// RevertRequest запрос на откат к состоянию записи истории.
type RevertRequest struct {
	Message string `json:"message,omitempty"`
	Source  string `json:"source,omitempty"`
}

// RevertResponse результат отката. History — сводка новой записи
// типа revert; откат сам проходит обычную проверку конфликтов.
type RevertResponse struct {
	History         HistoryItem      `json:"history"`
	Conflicts       []ConflictRecord `json:"conflicts,omitempty"`
	EntriesRestored int              `json:"entries_restored"`
	Success         bool             `json:"success"`
}
