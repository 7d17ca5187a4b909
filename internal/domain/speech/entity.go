package speech

import "strings"

// Language is the closed set of selectors accepted by the speech handler.
type Language string

const (
	LanguageUrdu    Language = "urdu"
	LanguageEnglish Language = "english"
)

// ParseLanguage normalises a selector; empty selects English.
func ParseLanguage(s string) (Language, bool) {
	switch Language(strings.ToLower(strings.TrimSpace(s))) {
	case "", LanguageEnglish:
		return LanguageEnglish, true
	case LanguageUrdu:
		return LanguageUrdu, true
	default:
		return "", false
	}
}

// Voice pairs a synthetic voice with its BCP-47 language tag.
type Voice struct {
	Name string `yaml:"name"`
	Lang string `yaml:"lang"`
}

// Request is one synthesis call.
type Request struct {
	Text  string
	Voice Voice
}

// Audio is the synthesised payload.
type Audio struct {
	Data        []byte
	ContentType string
}
