// Package lang parses and renders the language tag sent with every
// recognition request.
package lang

import (
	"fmt"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// DefaultCode is the language used when none is configured.
const DefaultCode = "zh-CN"

// Default is the parsed DefaultCode.
var Default = MustParse(DefaultCode)

// Language is a validated BCP 47 language tag.
// The zero value means "not specified"; callers substitute Default.
type Language struct {
	tag language.Tag
	set bool
}

// Compile-time interface compliance check.
var _ fmt.Stringer = Language{}

// Normalize lowercases a code and converts underscores to hyphens.
// Accepts: "zh_CN", "ZH-cn", "zh-CN" -> "zh-cn"
func Normalize(code string) string {
	return strings.ToLower(strings.ReplaceAll(strings.TrimSpace(code), "_", "-"))
}

// Parse validates a language code such as "en", "pt-BR" or "zh_CN".
// An empty string returns the zero Language without error.
func Parse(code string) (Language, error) {
	normalized := Normalize(code)
	if normalized == "" {
		return Language{}, nil
	}

	tag, err := language.Parse(normalized)
	if err != nil {
		return Language{}, fmt.Errorf("invalid language code %q (use tags like 'en', 'fr', 'zh-CN'): %w",
			code, ErrInvalid)
	}
	if base, _ := tag.Base(); base.String() == "und" {
		return Language{}, fmt.Errorf("language code %q has no base language: %w", code, ErrInvalid)
	}

	return Language{tag: tag, set: true}, nil
}

// MustParse parses a language code, panicking if invalid.
// Use only for compile-time constants and tests.
func MustParse(code string) Language {
	l, err := Parse(code)
	if err != nil {
		panic(err)
	}
	return l
}

// IsZero returns true if no language was specified.
func (l Language) IsZero() bool {
	return !l.set
}

// OrDefault returns l, or Default if l is zero.
func (l Language) OrDefault() Language {
	if l.IsZero() {
		return Default
	}
	return l
}

// String returns the canonical tag ("zh-CN"), or "" for the zero value.
func (l Language) String() string {
	if l.IsZero() {
		return ""
	}
	return l.tag.String()
}

// BaseCode returns the ISO 639 base language ("zh-CN" -> "zh").
// OpenAI's transcription API only accepts base codes.
func (l Language) BaseCode() string {
	if l.IsZero() {
		return ""
	}
	base, _ := l.tag.Base()
	return base.String()
}

// HasTwoLetterCode reports whether the base language has an ISO 639-1
// code. Cantonese ("yue") and Filipino ("fil") do not.
func (l Language) HasTwoLetterCode() bool {
	return len(l.BaseCode()) == 2
}

// DisplayName returns the English name of the language, e.g. "Simplified Chinese"
// or "Chinese (China)". Falls back to the tag itself.
func (l Language) DisplayName() string {
	if l.IsZero() {
		return ""
	}
	if name := display.Tags(language.English).Name(l.tag); name != "" {
		return name
	}
	return l.tag.String()
}
