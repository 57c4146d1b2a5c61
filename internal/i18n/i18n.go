package i18n

import (
	"embed"
	"encoding/json"
	"fmt"
	"net/http"
	"path"
	"sort"
	"strings"
)

//go:embed resources/*.json
var resourceFS embed.FS

var translations = make(map[string]map[string]string)

// Init loads the embedded translation files, one per language.
func Init() error {
	entries, err := resourceFS.ReadDir("resources")
	if err != nil {
		return err
	}
	for _, e := range entries {
		if e.IsDir() || path.Ext(e.Name()) != ".json" {
			continue
		}
		lang := strings.TrimSuffix(e.Name(), ".json")
		data, err := resourceFS.ReadFile("resources/" + e.Name())
		if err != nil {
			return err
		}
		var t map[string]string
		if err := json.Unmarshal(data, &t); err != nil {
			return fmt.Errorf("invalid translation file %s: %w", e.Name(), err)
		}
		translations[lang] = t
	}
	return nil
}

func T(lang, key string) string {
	if t, ok := translations[lang]; ok {
		if val, ok := t[key]; ok {
			return val
		}
	}
	// Fallback to en
	if t, ok := translations["en"]; ok {
		if val, ok := t[key]; ok {
			return val
		}
	}
	return key
}

// GetLang picks the language from the ?lang= query, then the lang cookie.
func GetLang(r *http.Request) string {
	if l := r.URL.Query().Get("lang"); l != "" {
		if _, ok := translations[l]; ok {
			return l
		}
	}
	cookie, err := r.Cookie("lang")
	if err == nil {
		if _, ok := translations[cookie.Value]; ok {
			return cookie.Value
		}
	}
	return "en"
}

func GetAvailableLangs() []string {
	langs := []string{}
	for l := range translations {
		langs = append(langs, l)
	}
	if len(langs) == 0 {
		return []string{"en", "hu"}
	}
	sort.Strings(langs)
	return langs
}
