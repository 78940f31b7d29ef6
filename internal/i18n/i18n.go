// Package i18n translates the user-facing messages of the front end.
package i18n

import (
	"embed"
	"fmt"
	"io/fs"

	"github.com/nicksnyder/go-i18n/v2/i18n"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

//go:embed locales/*.yaml
var localeFS embed.FS

// Translator resolves message IDs for one language.
type Translator struct {
	lang      string
	localizer *i18n.Localizer
}

// New loads the embedded locale files. Unsupported languages fall back to
// Spanish.
func New(lang string) (*Translator, error) {
	bundle := i18n.NewBundle(language.Spanish)
	bundle.RegisterUnmarshalFunc("yaml", yaml.Unmarshal)

	files, err := fs.ReadDir(localeFS, "locales")
	if err != nil {
		return nil, err
	}
	for _, f := range files {
		if f.IsDir() {
			continue
		}
		data, err := localeFS.ReadFile("locales/" + f.Name())
		if err != nil {
			return nil, err
		}
		if _, err := bundle.ParseMessageFileBytes(data, f.Name()); err != nil {
			return nil, fmt.Errorf("locale %s: %w", f.Name(), err)
		}
	}

	tag, err := language.Parse(lang)
	if err != nil {
		tag = language.Spanish
	}
	return &Translator{lang: tag.String(), localizer: i18n.NewLocalizer(bundle, tag.String())}, nil
}

func MustNew(lang string) *Translator {
	t, err := New(lang)
	if err != nil {
		panic(err)
	}
	return t
}

func (t *Translator) Lang() string { return t.lang }

// T translates messageID. The ID itself is returned when no translation exists.
func (t *Translator) T(messageID string, data ...map[string]any) string {
	cfg := &i18n.LocalizeConfig{MessageID: messageID}
	if len(data) > 0 {
		cfg.TemplateData = data[0]
	}
	msg, err := t.localizer.Localize(cfg)
	if err != nil {
		return messageID
	}
	return msg
}
