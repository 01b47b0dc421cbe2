// Package translations localizes the CLI's own messages. Strings passed to T
// are looked up in the catalog registered in catalog.go; anything without an
// entry is printed as written.
//
// To add a language, register its strings in catalog.go. The language is
// picked from $LANG.
package translations

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/samber/lo"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var T = setupLang()

func setupLang() func(key message.Reference, a ...interface{}) string {
	lang, _ := SetupLanguage()
	return lang
}

var notice = lipgloss.NewStyle().
	Align(lipgloss.Left).
	Bold(true).
	Foreground(lipgloss.Color("#CCCCCC")).
	Background(lipgloss.Color("#333300")).MarginBottom(1)

// Supported lists the languages with a registered catalog, English first.
func Supported() []string {
	have := lo.Map(cat.Languages(), func(t language.Tag, _ int) string {
		b, _ := t.Base()
		return b.String()
	})
	have = lo.Uniq(append([]string{"en"}, have...))
	sort.Strings(have[1:])
	return have
}

func SetupLanguage() (func(key message.Reference, a ...interface{}) string, func(style lipgloss.Style, key message.Reference, a ...interface{})) {
	lang := pick(os.Getenv("LANG"))
	return func(key message.Reference, a ...interface{}) string {
			return message.NewPrinter(lang, message.Catalog(cat)).Sprintf(key, a...)
		}, func(sty lipgloss.Style, key message.Reference, a ...interface{}) {
			msg := message.NewPrinter(lang, message.Catalog(cat)).Sprintf(key, a...)
			fmt.Println(sty.Render(msg))
		}
}

// pick maps a $LANG value such as "zh_CN.UTF-8" to a catalog language,
// falling back to English.
func pick(env string) language.Tag {
	if len(env) < 2 || env == "C" || strings.HasPrefix(env, "C.") || env == "POSIX" {
		return language.English
	}
	langText := env[:2]

	lang, err := language.Parse(langText)
	if err != nil {
		return language.English
	}
	if !lo.Contains(Supported(), lang.String()) {
		if os.Getenv("LOCALEPATCH_LANG_NOTICE") != "" {
			fmt.Fprintln(os.Stderr, notice.Copy().AlignHorizontal(lipgloss.Right).
				Render("$LANG="+langText+" unsupported. Available: "+strings.Join(Supported(), ", ")))
		}
		return language.English
	}
	return lang
}
