// Package notify renders localized summaries of bulk operations.
package notify

import (
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"

	"github.com/nicksnyder/go-i18n/v2/i18n"
	"golang.org/x/text/language"
)

//go:embed locales/*.json
var locales embed.FS

type Notifier struct {
	bundle   *i18n.Bundle
	fallback string
}

// New loads the embedded locales. defaultLang is used when a request names
// no language or an unsupported one.
func New(defaultLang string) (*Notifier, error) {
	tag, err := language.Parse(defaultLang)
	if err != nil {
		tag = language.English
	}
	bundle := i18n.NewBundle(tag)
	bundle.RegisterUnmarshalFunc("json", json.Unmarshal)

	files, err := fs.Glob(locales, "locales/*.json")
	if err != nil {
		return nil, err
	}
	for _, f := range files {
		if _, err := bundle.LoadMessageFileFS(locales, f); err != nil {
			return nil, fmt.Errorf("load locale %s: %w", f, err)
		}
	}
	return &Notifier{bundle: bundle, fallback: tag.String()}, nil
}

// Languages lists the loaded language tags.
func (n *Notifier) Languages() []language.Tag {
	return n.bundle.LanguageTags()
}

// BatchSummary describes a bulk outcome. langs are Accept-Language style
// preferences, most preferred first.
func (n *Notifier) BatchSummary(succeeded, failed int, langs ...string) string {
	loc := i18n.NewLocalizer(n.bundle, append(langs, n.fallback)...)

	cfg := &i18n.LocalizeConfig{}
	switch total := succeeded + failed; {
	case total == 0:
		cfg.MessageID = "batch.empty"
	case failed == 0:
		cfg.MessageID = "batch.all_succeeded"
		cfg.PluralCount = succeeded
		cfg.TemplateData = map[string]any{"Count": succeeded}
	case succeeded == 0:
		cfg.MessageID = "batch.all_failed"
		cfg.PluralCount = failed
		cfg.TemplateData = map[string]any{"Count": failed}
	default:
		cfg.MessageID = "batch.partial"
		cfg.PluralCount = total
		cfg.TemplateData = map[string]any{"Succeeded": succeeded, "Failed": failed}
	}

	msg, err := loc.Localize(cfg)
	if err != nil {
		return fmt.Sprintf("%d succeeded, %d failed", succeeded, failed)
	}
	return msg
}
