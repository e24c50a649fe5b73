package core

import (
	"unicode"
	"unicode/utf8"
)

// DefaultCategoryEmoji is shown for categories outside the closed set.
const DefaultCategoryEmoji = "💰"

// categoryEmojis is the single source of category glyphs for every
// rendering surface.
var categoryEmojis = map[Category]string{
	Food:          "🍔",
	Transport:     "🚗",
	Entertainment: "🎬",
	Shopping:      "🛍️",
	Utilities:     "💡",
	Health:        "🏥",
	Education:     "📚",
	Travel:        "✈️",
	Other:         "📝",
}

// CategoryEmoji returns the glyph for c, or DefaultCategoryEmoji.
func CategoryEmoji(c Category) string {
	if e, ok := categoryEmojis[c]; ok {
		return e
	}
	return DefaultCategoryEmoji
}

// FormatCategory upper-cases the first letter of the category key and
// leaves the rest untouched: "food" -> "Food".
func FormatCategory(c Category) string {
	s := string(c)
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}

// Label is FormatCategory as a method.
func (c Category) Label() string {
	return FormatCategory(c)
}

func (c Category) String() string {
	return string(c)
}
