// Package dye defines the dye catalog model: item identifiers, the fixed set
// of languages names are fetched in, and the per-item name records.
package dye

import "fmt"

// ItemID is the XIVAPI Item sheet row of a dye.
type ItemID int

// Language is an XIVAPI language code.
type Language string

const (
	// LanguageEnglish is the English client language.
	LanguageEnglish Language = "en"

	// LanguageJapanese is the Japanese client language.
	LanguageJapanese Language = "ja"

	// LanguageGerman is the German client language.
	LanguageGerman Language = "de"

	// LanguageFrench is the French client language.
	LanguageFrench Language = "fr"
)

// Languages is the fixed fetch order. The CSV columns follow the same order.
var Languages = []Language{
	LanguageEnglish,
	LanguageJapanese,
	LanguageGerman,
	LanguageFrench,
}

var displayNames = map[Language]string{
	LanguageEnglish:  "English",
	LanguageJapanese: "Japanese",
	LanguageGerman:   "German",
	LanguageFrench:   "French",
}

// DisplayName returns the human readable language name, e.g. "German".
func (l Language) DisplayName() string {
	if name, ok := displayNames[l]; ok {
		return name
	}
	return string(l)
}

// NameRecord holds the localized names of one dye.
// Names has an entry for every language in Languages; a name that could not
// be fetched is the empty string.
type NameRecord struct {
	ItemID ItemID
	Names  map[Language]string
}

// NewNameRecord returns a record with an empty entry for every language.
func NewNameRecord(id ItemID) NameRecord {
	names := make(map[Language]string, len(Languages))
	for _, lang := range Languages {
		names[lang] = ""
	}
	return NameRecord{ItemID: id, Names: names}
}

// Name returns the name for lang, or "" when it is absent.
func (r NameRecord) Name(lang Language) string {
	return r.Names[lang]
}

// Failure is one unrecoverable (item, language) fetch.
type Failure struct {
	ItemID   ItemID
	Language Language
	Reason   string
}

// String formats the failure the way the run summary lists it.
func (f Failure) String() string {
	return fmt.Sprintf("Item %d (%s): %s", f.ItemID, f.Language, f.Reason)
}
