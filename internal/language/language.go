// Package language resolves configured language codes to the Unicode script
// used by the translated-content heuristic.
package language

import (
	"fmt"
	"unicode"

	"golang.org/x/text/language"
)

var scriptTables = map[string]*unicode.RangeTable{
	"Arab": unicode.Arabic,
	"Cyrl": unicode.Cyrillic,
	"Deva": unicode.Devanagari,
	"Grek": unicode.Greek,
	"Hans": unicode.Han,
	"Hant": unicode.Han,
	"Hebr": unicode.Hebrew,
	"Jpan": unicode.Han,
	"Kore": unicode.Hangul,
	"Latn": unicode.Latin,
	"Thai": unicode.Thai,
}

// Validate reports whether code parses as a BCP 47 language tag.
func Validate(code string) error {
	if _, err := language.Parse(code); err != nil {
		return fmt.Errorf("language %q: %w", code, err)
	}
	return nil
}

// ScriptFor returns the Unicode range table for the script a language is
// most likely written in. Unknown languages or scripts without a table entry
// return an error; the caller should treat the heuristic as unavailable.
func ScriptFor(code string) (*unicode.RangeTable, error) {
	tag, err := language.Parse(code)
	if err != nil {
		return nil, fmt.Errorf("language %q: %w", code, err)
	}
	script, conf := tag.Script()
	if conf == language.No {
		return nil, fmt.Errorf("language %q: no script known", code)
	}
	table, ok := scriptTables[script.String()]
	if !ok {
		return nil, fmt.Errorf("language %q: unsupported script %s", code, script)
	}
	return table, nil
}
