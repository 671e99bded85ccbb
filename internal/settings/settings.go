// Package settings holds the highlighter configuration and persists it as a
// small JSON file.
package settings

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Mode selects how the document is cut into candidate spans.
type Mode string

const (
	// ModeSentences measures sentences by word count.
	ModeSentences Mode = "sentences"
	// ModeLines measures whole lines by character count.
	ModeLines Mode = "lines"
)

const (
	DefaultMaxWords       = 10
	DefaultHighlightColor = "rgba(255,182,193,0.5)"
	DefaultMaxChars       = 100
)

// Setting keys, as written to the settings file.
const (
	KeyMaxWords       = "maxWords"
	KeyHighlightColor = "highlightColor"
	KeyMode           = "mode"
	KeyMaxChars       = "maxChars"
)

// ErrInvalidSettingValue is returned when user input cannot be applied.
var ErrInvalidSettingValue = errors.New("invalid setting value")

// Settings is a snapshot of the highlighter configuration. It is passed by
// value; a run never observes later edits.
type Settings struct {
	MaxWords       int    `koanf:"maxWords" json:"maxWords" validate:"gt=0"`
	HighlightColor string `koanf:"highlightColor" json:"highlightColor" validate:"required,color"`
	Mode           Mode   `koanf:"mode" json:"mode" validate:"oneof=sentences lines"`
	MaxChars       int    `koanf:"maxChars" json:"maxChars" validate:"gt=0"`
}

// fieldNames maps setting keys to struct fields for partial validation.
var fieldNames = map[string]string{
	KeyMaxWords:       "MaxWords",
	KeyHighlightColor: "HighlightColor",
	KeyMode:           "Mode",
	KeyMaxChars:       "MaxChars",
}

// Keys lists the setting keys in display order.
func Keys() []string {
	return []string{KeyMaxWords, KeyHighlightColor, KeyMode, KeyMaxChars}
}

// Defaults returns the built-in configuration.
func Defaults() Settings {
	return Settings{
		MaxWords:       DefaultMaxWords,
		HighlightColor: DefaultHighlightColor,
		Mode:           ModeSentences,
		MaxChars:       DefaultMaxChars,
	}
}

// Threshold returns the limit that applies to the current mode.
func (s Settings) Threshold() int {
	if s.Mode == ModeLines {
		return s.MaxChars
	}
	return s.MaxWords
}

// Get returns the value of key formatted for display.
func (s Settings) Get(key string) (string, error) {
	switch key {
	case KeyMaxWords:
		return strconv.Itoa(s.MaxWords), nil
	case KeyHighlightColor:
		return s.HighlightColor, nil
	case KeyMode:
		return string(s.Mode), nil
	case KeyMaxChars:
		return strconv.Itoa(s.MaxChars), nil
	}
	return "", fmt.Errorf("unknown setting %q", key)
}

// With returns a copy of s with key set from raw user input. Invalid input
// leaves s untouched and returns an error wrapping ErrInvalidSettingValue.
func (s Settings) With(key, raw string) (Settings, error) {
	raw = strings.TrimSpace(raw)
	switch key {
	case KeyMaxWords:
		n, err := ParsePositive(raw)
		if err != nil {
			return s, err
		}
		s.MaxWords = n
	case KeyMaxChars:
		n, err := ParsePositive(raw)
		if err != nil {
			return s, err
		}
		s.MaxChars = n
	case KeyHighlightColor:
		if _, err := ParseColor(raw); err != nil {
			return s, err
		}
		s.HighlightColor = raw
	case KeyMode:
		m := Mode(strings.ToLower(raw))
		if m != ModeSentences && m != ModeLines {
			return s, fmt.Errorf("%w: mode must be %q or %q", ErrInvalidSettingValue, ModeSentences, ModeLines)
		}
		s.Mode = m
	default:
		return s, fmt.Errorf("%w: unknown setting %q", ErrInvalidSettingValue, key)
	}
	return s, nil
}

// ToggleMode switches between sentence and line mode.
func (s Settings) ToggleMode() Settings {
	if s.Mode == ModeLines {
		s.Mode = ModeSentences
	} else {
		s.Mode = ModeLines
	}
	return s
}

// ParsePositive parses a strictly positive integer.
func ParsePositive(raw string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not a number", ErrInvalidSettingValue, raw)
	}
	if n <= 0 {
		return 0, fmt.Errorf("%w: %d must be greater than zero", ErrInvalidSettingValue, n)
	}
	return n, nil
}

// newValidator returns a validator that understands the color tag.
func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("color", func(fl validator.FieldLevel) bool {
		_, err := ParseColor(fl.Field().String())
		return err == nil
	})
	return v
}

var validate = newValidator()

// Validate checks every field of s.
func Validate(s Settings) error {
	if err := validate.Struct(s); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSettingValue, err)
	}
	return nil
}
