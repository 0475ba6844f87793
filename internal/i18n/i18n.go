// Package i18n localizes month names, digits and feed labels.
package i18n

import (
	"embed"
	"encoding/json"
	"log/slog"
	"strconv"
	"strings"

	"github.com/nicksnyder/go-i18n/v2/i18n"
	"github.com/tartampluch/go-sambat/internal/calendar"
	"github.com/tartampluch/go-sambat/internal/config"
	"golang.org/x/text/language"
)

//go:embed locales/*.json
var localeFS embed.FS

// Translator resolves messages for one display language.
type Translator struct {
	bundle    *i18n.Bundle
	localizer *i18n.Localizer
	lang      string
	digits    []rune

	// Languages lists the locale codes found in the embedded files.
	Languages []string
}

// New loads the embedded locales and selects the closest match to lang.
// Unknown languages fall back to English.
func New(lang string) *Translator {
	bundle := i18n.NewBundle(language.English)
	bundle.RegisterUnmarshalFunc("json", json.Unmarshal)

	t := &Translator{bundle: bundle}

	entries, err := localeFS.ReadDir("locales")
	if err != nil {
		slog.Error(config.ErrLocalesAccess,
			config.LogKeyComponent, config.CompI18n,
			config.LogKeyError, err,
		)
	}

	for _, entry := range entries {
		name := entry.Name()
		if !strings.HasPrefix(name, "active.") || !strings.HasSuffix(name, ".json") {
			slog.Debug(config.MsgLocaleSkip,
				config.LogKeyComponent, config.CompI18n,
				config.LogKeyFile, name,
			)
			continue
		}

		langCode := strings.TrimSuffix(strings.TrimPrefix(name, "active."), ".json")
		if langCode == "" {
			slog.Warn(config.MsgLocaleBadName,
				config.LogKeyComponent, config.CompI18n,
				config.LogKeyFile, name,
			)
			continue
		}

		if _, err := bundle.LoadMessageFileFS(localeFS, "locales/"+name); err != nil {
			slog.Error(config.ErrLocaleLoad,
				config.LogKeyComponent, config.CompI18n,
				config.LogKeyFile, name,
				config.LogKeyError, err,
			)
			continue
		}
		t.Languages = append(t.Languages, langCode)
		slog.Debug(config.MsgLocaleLoaded,
			config.LogKeyComponent, config.CompI18n,
			config.LogKeyLang, langCode,
		)
	}

	t.lang = t.match(lang)
	t.localizer = i18n.NewLocalizer(bundle, t.lang)
	t.digits = []rune(t.Msg(config.TKeyDigits))
	if len(t.digits) != 10 {
		t.digits = []rune("0123456789")
	}
	return t
}

// match picks the best loaded language for the requested one.
func (t *Translator) match(lang string) string {
	tags := t.bundle.LanguageTags()
	if len(tags) == 0 {
		return config.DefaultLanguage
	}
	_, idx, conf := language.NewMatcher(tags).Match(language.Make(lang))
	if conf == language.No {
		return config.DefaultLanguage
	}
	base, _ := tags[idx].Base()
	return base.String()
}

// Lang returns the resolved language code.
func (t *Translator) Lang() string {
	return t.lang
}

// Msg translates a key, returning the key itself when it is missing.
func (t *Translator) Msg(key string) string {
	return t.MsgWith(key, nil)
}

// MsgWith translates a templated key.
func (t *Translator) MsgWith(key string, data map[string]any) string {
	msg, err := t.localizer.Localize(&i18n.LocalizeConfig{
		MessageID:    key,
		TemplateData: data,
	})
	if err != nil || msg == "" {
		slog.Debug(config.MsgTransMissing,
			config.LogKeyComponent, config.CompI18n,
			config.LogKeyKey, key,
			config.LogKeyError, err,
		)
		return key
	}
	return msg
}

// BSMonth returns the localized Bikram Sambat month name.
func (t *Translator) BSMonth(month int) string {
	key := config.TKeyBSMonthPrefix + strconv.Itoa(month)
	if msg := t.Msg(key); msg != key {
		return msg
	}
	return calendar.MonthName(month)
}

// ADMonth returns the localized Gregorian month name.
func (t *Translator) ADMonth(month int) string {
	key := config.TKeyADMonthPrefix + strconv.Itoa(month)
	if msg := t.Msg(key); msg != key {
		return msg
	}
	return calendar.EnglishMonthName(month)
}

// Digits renders n with the language's numerals.
func (t *Translator) Digits(n int) string {
	s := strconv.Itoa(n)
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(t.digits[r-'0'])
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// FormatBS renders a BS date for display, e.g. "17 Poush 2081".
func (t *Translator) FormatBS(d calendar.BSDate) string {
	return t.MsgWith(config.TKeyBSLabel, map[string]any{
		"Day":   t.Digits(d.Day),
		"Month": t.BSMonth(d.Month),
		"Year":  t.Digits(d.Year),
	})
}

// Status returns the localized label of an IPO status tab.
func (t *Translator) Status(status string) string {
	switch status {
	case config.StatusOpen:
		return t.Msg(config.TKeyStatusOpen)
	case config.StatusUpcoming:
		return t.Msg(config.TKeyStatusUpcom)
	case config.StatusClosed:
		return t.Msg(config.TKeyStatusClosed)
	}
	return status
}
