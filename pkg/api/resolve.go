package api

// Resolution способы разрешить конфликт, выбранные человеком.
const (
	ResolutionLocal  = "local"  // применить отложенное локальное значение
	ResolutionRemote = "remote" // принять серверное значение, локальное отбросить
	ResolutionEdit   = "edit"   // применить значение, введенное оператором
	ResolutionSkip   = "skip"   // ничего не делать, конфликт останется
)

// ValidResolution reports whether r is a known resolution choice.
func ValidResolution(r string) bool {
	switch r {
	case ResolutionLocal, ResolutionRemote, ResolutionEdit, ResolutionSkip:
		return true
	}
	return false
}

// ResolutionItem решение по одному ранее обнаруженному конфликту.
// RemoteHash — хеш из записи конфликта: сервер перепроверяет, что
// состояние не уехало дальше между обнаружением и разрешением.
// LocalValue — отложенное значение клиента (для resolution=local),
// EditedValue — значение оператора (для resolution=edit).
// LocalDeleted = true означает, что локальная сторона конфликта — удаление:
// resolution=local тогда ставит надгробие вместо записи значения.
type ResolutionItem struct {
	Scope            string            `json:"scope"` // entry | config
	Key              string            `json:"key"`
	Lang             string            `json:"lang,omitempty"`
	Resolution       string            `json:"resolution"`
	RemoteHash       string            `json:"remote_hash"`
	LocalValue       *string           `json:"local_value,omitempty"`
	LocalComment     string            `json:"local_comment,omitempty"`
	LocalPluralForms map[string]string `json:"local_plural_forms,omitempty"`
	EditedValue      *string           `json:"edited_value,omitempty"`
	ConfigValueType  string            `json:"config_value_type,omitempty"`
	LocalDeleted     bool              `json:"local_deleted,omitempty"`
}

// ResolveRequest пакет решений по конфликтам.
type ResolveRequest struct {
	Message     string           `json:"message,omitempty"`
	Source      string           `json:"source,omitempty"`
	Resolutions []ResolutionItem `json:"resolutions"`
}

// ResolveResponse результат применения решений.
// Stale — конфликты, чей серверный хеш успел измениться снова;
// они не применены и должны быть разрешены заново.
type ResolveResponse struct {
	NewHashes       map[string]map[string]string `json:"new_hashes,omitempty"` // key → lang → hash
	NewConfigHashes map[string]string            `json:"new_config_hashes,omitempty"`
	HistoryID       string                       `json:"history_id,omitempty"`
	Stale           []ConflictRecord             `json:"stale,omitempty"`
	Applied         int                          `json:"applied"`
}
