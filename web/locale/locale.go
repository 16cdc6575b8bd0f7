// Package locale translates page and response strings with go-i18n. The
// bundle is loaded once at startup; each request gets its own localizer
// picked from the "lang" cookie or the Accept-Language header.
package locale

import (
	"io/fs"
	"strings"

	"github.com/askboard/askboard/logger"

	"github.com/gin-gonic/gin"
	"github.com/nicksnyder/go-i18n/v2/i18n"
	"github.com/pelletier/go-toml/v2"
	"golang.org/x/text/language"
)

const (
	localizerKey = "localizer"
	langCookie   = "lang"
)

var i18nBundle *i18n.Bundle

// InitLocalizer parses every file under translation/ in i18nFS.
func InitLocalizer(i18nFS fs.FS) error {
	bundle := i18n.NewBundle(language.English)
	bundle.RegisterUnmarshalFunc("toml", toml.Unmarshal)

	if err := parseTranslationFiles(i18nFS, bundle); err != nil {
		return err
	}
	i18nBundle = bundle
	return nil
}

// templateData turns "name==value" pairs into message template data;
// malformed pairs are skipped.
func templateData(params []string) map[string]any {
	data := make(map[string]any, len(params))
	for _, param := range params {
		if name, value, ok := strings.Cut(param, "=="); ok {
			data[name] = value
		}
	}
	return data
}

// I18n localizes key. Params are "name==value" pairs for the message
// template. A nil localizer returns the key itself.
func I18n(localizer *i18n.Localizer, key string, params ...string) string {
	if localizer == nil {
		return key
	}

	msg, err := localizer.Localize(&i18n.LocalizeConfig{
		MessageID:    key,
		TemplateData: templateData(params),
	})
	if err != nil {
		logger.Warningf("localize %q: %v", key, err)
		return key
	}
	return msg
}

func LocalizerMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if i18nBundle == nil {
			c.Next()
			return
		}

		langs := []string{c.GetHeader("Accept-Language")}
		if cookie, err := c.Request.Cookie(langCookie); err == nil {
			langs = []string{cookie.Value}
		}
		c.Set(localizerKey, i18n.NewLocalizer(i18nBundle, langs...))
		c.Next()
	}
}

// GetLocalizer returns the request's localizer, or nil outside LocalizerMiddleware.
func GetLocalizer(c *gin.Context) *i18n.Localizer {
	if v, ok := c.Get(localizerKey); ok {
		if l, ok := v.(*i18n.Localizer); ok {
			return l
		}
	}
	return nil
}

func parseTranslationFiles(i18nFS fs.FS, bundle *i18n.Bundle) error {
	files, err := fs.Glob(i18nFS, "translation/*.toml")
	if err != nil {
		return err
	}
	for _, name := range files {
		data, err := fs.ReadFile(i18nFS, name)
		if err != nil {
			return err
		}
		if _, err := bundle.ParseMessageFileBytes(data, name); err != nil {
			return err
		}
	}
	return nil
}
