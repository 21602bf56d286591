package logging

import (
	"strings"

	"github.com/muesli/termenv"
	"github.com/sirupsen/logrus"
)

// MarkupChar introduces a colour or format code in a log message, e.g. "§c".
const MarkupChar = '§'

var markupColors = map[rune]string{
	'0': "#000000",
	'1': "#0000AA",
	'2': "#00AA00",
	'3': "#00AAAA",
	'4': "#AA0000",
	'5': "#AA00AA",
	'6': "#FFAA00",
	'7': "#AAAAAA",
	'8': "#555555",
	'9': "#5555FF",
	'a': "#55FF55",
	'b': "#55FFFF",
	'c': "#FF5555",
	'd': "#FF55FF",
	'e': "#FFFF55",
	'f': "#FFFFFF",
}

// MarkupFormatter renders "§x" codes in entry messages before handing the
// entry to the wrapped formatter. With the Ascii profile codes are stripped.
type MarkupFormatter struct {
	logrus.Formatter
	Profile termenv.Profile
}

// Format implements logrus.Formatter.
func (f *MarkupFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	e := *entry
	e.Message = Render(entry.Message, f.Profile)
	return f.Formatter.Format(&e)
}

// Strip removes every markup code from s.
func Strip(s string) string {
	return Render(s, termenv.Ascii)
}

// Render converts markup codes in s to escape sequences for profile.
// Codes persist until the next colour code or "§r"; a colour code clears
// formatting, matching the usual console semantics.
func Render(s string, profile termenv.Profile) string {
	if !strings.ContainsRune(s, MarkupChar) {
		return s
	}

	var b strings.Builder
	style := profile.String()
	runes := []rune(s)
	start := 0

	flush := func(end int) {
		if end > start {
			b.WriteString(style.Styled(string(runes[start:end])))
		}
	}

	for i := 0; i < len(runes); i++ {
		if runes[i] != MarkupChar || i+1 >= len(runes) {
			continue
		}
		code := toLower(runes[i+1])
		next, ok := applyCode(profile, style, code)
		if !ok {
			continue
		}
		flush(i)
		style = next
		i++
		start = i + 1
	}
	flush(len(runes))

	return b.String()
}

func applyCode(profile termenv.Profile, style termenv.Style, code rune) (termenv.Style, bool) {
	if hex, ok := markupColors[code]; ok {
		return profile.String().Foreground(profile.Color(hex)), true
	}
	switch code {
	case 'l':
		return style.Bold(), true
	case 'o':
		return style.Italic(), true
	case 'n':
		return style.Underline(), true
	case 'm':
		return style.CrossOut(), true
	case 'k':
		return style.Blink(), true
	case 'r':
		return profile.String(), true
	}
	return style, false
}

func toLower(r rune) rune {
	if r >= 'A' && r <= 'Z' {
		return r + ('a' - 'A')
	}
	return r
}
