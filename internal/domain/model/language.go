package model

import (
	"errors"
	"strings"
)

// Language is a closed set of language tags a question may list.
type Language string

const (
	LanguageJavaScript Language = "javascript"
	LanguagePython     Language = "python"
	LanguageJava       Language = "java"
	LanguageCpp        Language = "cpp"
	LanguageC          Language = "c"
)

var ErrUnknownLanguage = errors.New("language not available")

// KnownLanguages lists every declared tag, in display order.
var KnownLanguages = []Language{LanguageJavaScript, LanguagePython, LanguageJava, LanguageCpp, LanguageC}

var languageAliases = map[string]Language{
	"javascript": LanguageJavaScript,
	"js":         LanguageJavaScript,
	"node":       LanguageJavaScript,
	"python":     LanguagePython,
	"python3":    LanguagePython,
	"py":         LanguagePython,
	"java":       LanguageJava,
	"cpp":        LanguageCpp,
	"c++":        LanguageCpp,
	"c":          LanguageC,
}

// ParseLanguage normalizes a client-supplied tag. Unknown tags are rejected
// instead of falling through to some default.
func ParseLanguage(tag string) (Language, error) {
	lang, ok := languageAliases[strings.ToLower(strings.TrimSpace(tag))]
	if !ok {
		return "", ErrUnknownLanguage
	}
	return lang, nil
}

func (l Language) String() string { return string(l) }
