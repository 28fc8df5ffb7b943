package models

import "time"

// TranslationStatus описывает положение перевода в рабочем процессе.
// Нормальный порядок: pending → translated → reviewed → approved.
// Отклонение перевода возвращает его в pending.
type TranslationStatus string

const (
	StatusPending    TranslationStatus = "pending"
	StatusTranslated TranslationStatus = "translated"
	StatusReviewed   TranslationStatus = "reviewed"
	StatusApproved   TranslationStatus = "approved"
)

// statusRank задает порядок статусов для фильтрации по workflow gate.
var statusRank = map[TranslationStatus]int{
	StatusPending:    0,
	StatusTranslated: 1,
	StatusReviewed:   2,
	StatusApproved:   3,
}

// Valid reports whether s is a known workflow status.
func (s TranslationStatus) Valid() bool {
	_, ok := statusRank[s]
	return ok
}

// AtLeast reports whether s is at or above min in workflow order.
func (s TranslationStatus) AtLeast(min TranslationStatus) bool {
	return statusRank[s] >= statusRank[min]
}

// Entry представляет один перевод: значение ключа на одном языке.
// Идентифицируется тройкой (ProjectID, Key, Lang). Плюральные формы
// хранятся внутри записи как отображение категория → текст.
//
// Hash — детерминированный отпечаток содержимого (Value, Comment,
// PluralForms); одинаковое содержимое на разных узлах всегда дает
// одинаковый Hash. Version растет на каждую принятую запись.
type Entry struct {
	CreatedAt        time.Time         `json:"created_at"`
	UpdatedAt        time.Time         `json:"updated_at"`
	PluralForms      map[string]string `json:"plural_forms,omitempty"`
	Value            *string           `json:"value"` // nil = перевод еще не сделан
	ProjectID        string            `json:"project_id"`
	Key              string            `json:"key"`
	Lang             string            `json:"lang"`
	Comment          string            `json:"comment,omitempty"`
	SourcePluralText string            `json:"source_plural_text,omitempty"`
	Status           TranslationStatus `json:"status"`
	Hash             string            `json:"hash"`
	UpdatedBy        string            `json:"updated_by"`
	Version          int64             `json:"version"`
	IsPlural         bool              `json:"is_plural"`
	Deleted          bool              `json:"deleted"` // tombstone, запись физически не удаляется
}

// Clone создает глубокую копию записи.
func (e *Entry) Clone() *Entry {
	c := *e
	if e.Value != nil {
		v := *e.Value
		c.Value = &v
	}
	if e.PluralForms != nil {
		c.PluralForms = make(map[string]string, len(e.PluralForms))
		for k, v := range e.PluralForms {
			c.PluralForms[k] = v
		}
	}
	return &c
}

// ValueOrEmpty возвращает значение или пустую строку для nil.
func (e *Entry) ValueOrEmpty() string {
	if e.Value == nil {
		return ""
	}
	return *e.Value
}
