// Package village derives the display attributes of the village layer.
package village

import (
	"math"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"

	"sundarbanmap/pkg/table"
)

// UnknownName is used for villages without a name.
const UnknownName = "Unknown Village"

// nameReplacements expand administrative abbreviations. Order matters and the
// matching is plain substring replacement: published files depend on the
// exact output, including the overlapping Gp rules.
var nameReplacements = [][2]string{
	{" Ct", " (Census Town)"},
	{"Ct ", "(Census Town) "},
	{" Pt ", " Part "},
	{" Pt.", " Part"},
	{" No ", " No. "},
	{" No.", " No."},
	{"Gram Panchayat", "GP"},
	{" Gp", " GP"},
	{" Gp ", " GP "},
}

// CleanName standardizes a raw village name: trim, collapse whitespace,
// title-case each word, then expand the known abbreviations.
func CleanName(v any) string {
	if isBlank(v) {
		return UnknownName
	}
	name := nameText(v)
	if name == "" {
		return UnknownName
	}

	name = norm.NFC.String(name)
	name = strings.Join(strings.Fields(name), " ")
	name = titleWords(name)

	for _, r := range nameReplacements {
		name = strings.ReplaceAll(name, r[0], r[1])
	}
	return name
}

// nameText renders a raw name value as text. Floats keep a fractional part,
// so a numeric name of 12 stored as a float reads "12.0" like the published
// files always have.
func nameText(v any) string {
	x, ok := v.(float64)
	if !ok {
		return table.FormatValue(v)
	}
	abs := math.Abs(x)
	switch {
	case math.IsInf(x, 1):
		return "inf"
	case math.IsInf(x, -1):
		return "-inf"
	case abs >= 1e16 || abs < 1e-4:
		return strconv.FormatFloat(x, 'e', -1, 64)
	case x == math.Trunc(x):
		return strconv.FormatFloat(x, 'f', 1, 64)
	}
	return strconv.FormatFloat(x, 'f', -1, 64)
}

// titleWords upper-cases the first letter of every space-separated word and
// lower-cases the rest. Input is already whitespace-collapsed.
func titleWords(s string) string {
	lower := cases.Lower(language.Und)
	words := strings.Split(s, " ")
	for i, w := range words {
		if w == "" {
			continue
		}
		r, size := utf8.DecodeRuneInString(w)
		words[i] = string(unicode.ToTitle(r)) + lower.String(w[size:])
	}
	return strings.Join(words, " ")
}

// isBlank reports values that count as "no name": null, NaN and zero values.
func isBlank(v any) bool {
	switch x := v.(type) {
	case nil:
		return true
	case float64:
		return x == 0 || math.IsNaN(x)
	case int64:
		return x == 0
	case bool:
		return !x
	}
	return false
}
