package validation

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode"
)

// Kind selects the sanitization and validity rule applied to a field.
type Kind int

const (
	// PlainName keeps letters and whitespace and title-cases each word.
	PlainName Kind = iota
	// SuffixedName is a last name that may end in a generational suffix.
	SuffixedName
	// Phone is an 11 digit mobile number starting with 09.
	Phone
	// FreeText upper-cases the first letter of each word and accepts anything.
	FreeText
	// MiddleInitial is a single letter, optionally followed by a period.
	MiddleInitial
	// Numeric coerces input to a canonical integer, zero when unparseable.
	Numeric
	// Digits keeps digits only and flags anything else (ages).
	Digits
)

var kindNames = map[Kind]string{
	PlainName:     "plain-name",
	SuffixedName:  "suffixed-name",
	Phone:         "phone",
	FreeText:      "free-text",
	MiddleInitial: "middle-initial",
	Numeric:       "numeric",
	Digits:        "digits",
}

// String returns the kind's stable name.
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// ParseKind maps a kind name back to its Kind.
func ParseKind(name string) (Kind, error) {
	for k, n := range kindNames {
		if n == name {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown field kind %q", name)
}

// PhoneLength is the number of digits in a valid mobile number.
const PhoneLength = 11

// PhonePrefix is the required leading digits of a mobile number.
const PhonePrefix = "09"

var (
	periodRun     = regexp.MustCompile(`\.{2,}`)
	wordStart     = regexp.MustCompile(`\b\w`)
	middleInitial = regexp.MustCompile(`^[A-Z]\.?$`)
)

// suffixes are the generational suffixes recognised in last names, upper-cased.
var suffixes = map[string]bool{
	"JR": true, "SR": true, "JR.": true, "SR.": true,
	"II": true, "III": true, "IV": true, "V": true, "VI": true,
	"VII": true, "VIII": true, "IX": true, "X": true,
}

// dottedSuffixes are the only tokens allowed to carry a period.
var dottedSuffixes = map[string]bool{"JR.": true, "SR.": true}

// Validate sanitizes raw according to kind and reports whether the
// result is acceptable. Empty input is valid for every kind except Phone;
// required fields are enforced by the form store.
func Validate(kind Kind, raw string) (string, bool) {
	switch kind {
	case PlainName:
		return plainName(raw)
	case SuffixedName:
		return suffixedName(raw)
	case Phone:
		return phone(raw)
	case FreeText:
		return wordStart.ReplaceAllStringFunc(raw, strings.ToUpper), true
	case MiddleInitial:
		v := strings.ToUpper(strings.TrimSpace(raw))
		return v, v == "" || middleInitial.MatchString(v)
	case Numeric:
		return numeric(raw), true
	case Digits:
		v := keep(raw, isDigit)
		return v, v == raw
	default:
		return raw, false
	}
}

func plainName(raw string) (string, bool) {
	kept := keep(raw, func(r rune) bool { return isASCIILetter(r) || isSpace(r) })
	words := strings.Split(kept, " ")
	for i, w := range words {
		words[i] = titleWord(w)
	}
	return strings.Join(words, " "), kept == raw
}

func suffixedName(raw string) (string, bool) {
	kept := keep(raw, func(r rune) bool { return isASCIILetter(r) || isSpace(r) || r == '.' })
	collapsed := periodRun.ReplaceAllString(kept, ".")

	words := strings.Split(collapsed, " ")
	for i, w := range words {
		if i > 0 && suffixes[strings.ToUpper(w)] {
			words[i] = strings.ToUpper(w)
			continue
		}
		words[i] = titleWord(w)
	}
	out := strings.Join(words, " ")

	if kept != raw || strings.Count(raw, ".") > 1 {
		return out, false
	}
	for _, w := range words {
		if strings.Contains(w, ".") && !dottedSuffixes[strings.ToUpper(w)] {
			return out, false
		}
	}
	return out, true
}

func phone(raw string) (string, bool) {
	v := keep(raw, isDigit)
	return v, len(v) == PhoneLength && strings.HasPrefix(v, PhonePrefix)
}

func numeric(raw string) string {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return "0"
	}
	return strconv.Itoa(n)
}

// titleWord upper-cases the first rune and lower-cases the rest.
func titleWord(w string) string {
	if w == "" {
		return w
	}
	runes := []rune(strings.ToLower(w))
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}

func keep(s string, allow func(rune) bool) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if allow(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func isASCIILetter(r rune) bool {
	return (r >= 'A' && r <= 'Z') || (r >= 'a' && r <= 'z')
}

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}

func isSpace(r rune) bool {
	switch r {
	case ' ', '\t', '\n', '\r', '\f', '\v':
		return true
	}
	return false
}
