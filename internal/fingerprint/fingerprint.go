// Package fingerprint вычисляет детерминированные отпечатки содержимого
// записей и свойств конфигурации. Отпечаток — чистая функция содержимого:
// одинаковое содержимое на любых узлах дает одинаковый hex-дайджест,
// независимо от порядка сериализации плюральных форм.
package fingerprint

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"hash"
	"sort"
)

// Size длина отпечатка в hex-символах (SHA-256).
const Size = sha256.Size * 2

// Entry хеширует содержимое перевода: значение, комментарий и плюральные
// формы. nil-значение ("не переведено") отличается от пустой строки.
// Плюральные формы сериализуются в порядке отсортированных категорий.
func Entry(value *string, comment string, pluralForms map[string]string) string {
	h := sha256.New()

	if value == nil {
		writeField(h, "value:nil", "")
	} else {
		writeField(h, "value", *value)
	}
	writeField(h, "comment", comment)

	categories := make([]string, 0, len(pluralForms))
	for cat := range pluralForms {
		categories = append(categories, cat)
	}
	sort.Strings(categories)
	for _, cat := range categories {
		writeField(h, "plural:"+cat, pluralForms[cat])
	}

	return hex.EncodeToString(h.Sum(nil))
}

// Config хеширует свойство конфигурации: тег типа и сериализованное значение.
func Config(valueType, value string) string {
	h := sha256.New()
	writeField(h, "type", valueType)
	writeField(h, "value", value)
	return hex.EncodeToString(h.Sum(nil))
}

// writeField записывает поле с длиной-префиксом, чтобы конкатенация
// соседних полей не давала коллизий.
func writeField(h hash.Hash, name, value string) {
	var lenBuf [8]byte

	binary.BigEndian.PutUint64(lenBuf[:], uint64(len(name)))
	h.Write(lenBuf[:])
	h.Write([]byte(name))

	binary.BigEndian.PutUint64(lenBuf[:], uint64(len(value)))
	h.Write(lenBuf[:])
	h.Write([]byte(value))
}
