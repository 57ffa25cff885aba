package interview

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/gokatarajesh/mock-interview/internal/candidate"
)

// RequiredFields lists profile fields in the order they are requested.
var RequiredFields = []string{candidate.FieldName, candidate.FieldEmail, candidate.FieldPhone}

var (
	emailPattern = regexp.MustCompile(`[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}`)
	phonePattern = regexp.MustCompile(`\+?[\d(][\d\s().-]*\d`)
)

const minPhoneDigits = 7

// Decision is the outcome of classifying one user turn.
type Decision struct {
	Field   string
	Value   string
	Matched bool
}

type fieldPredicate struct {
	field   string
	extract func(text string) (string, bool)
}

// predicates is consulted in RequiredFields order.
var predicates = []fieldPredicate{
	{field: candidate.FieldName, extract: extractName},
	{field: candidate.FieldEmail, extract: extractEmail},
	{field: candidate.FieldPhone, extract: extractPhone},
}

// MissingFields returns the empty profile fields in request order.
func MissingFields(p candidate.Profile) []string {
	var missing []string
	for _, f := range RequiredFields {
		if strings.TrimSpace(fieldValue(p, f)) == "" {
			missing = append(missing, f)
		}
	}
	return missing
}

// NextMissing returns the first missing field, or "" when complete.
func NextMissing(p candidate.Profile) string {
	if missing := MissingFields(p); len(missing) > 0 {
		return missing[0]
	}
	return ""
}

// Classify decides whether text supplies the first missing field. Later
// missing fields are never considered, so an email typed while the name is
// still missing does not match.
func Classify(p candidate.Profile, text string) Decision {
	next := NextMissing(p)
	if next == "" {
		return Decision{}
	}
	for _, pred := range predicates {
		if pred.field != next {
			continue
		}
		if value, ok := pred.extract(text); ok {
			return Decision{Field: next, Value: value, Matched: true}
		}
		return Decision{Field: next}
	}
	return Decision{Field: next}
}

// PromptFor is the request sent when a field is missing.
func PromptFor(field string) string {
	switch field {
	case candidate.FieldName:
		return "I could not find your name in the resume. What is your full name?"
	case candidate.FieldEmail:
		return "I could not find your email in the resume. Please provide your email address."
	case candidate.FieldPhone:
		return "I could not find your phone number in the resume. Please provide your phone number."
	default:
		return ""
	}
}

func extractEmail(text string) (string, bool) {
	m := emailPattern.FindString(text)
	return m, m != ""
}

func extractPhone(text string) (string, bool) {
	for _, m := range phonePattern.FindAllString(text, -1) {
		if countDigits(m) >= minPhoneDigits {
			return strings.TrimSpace(m), true
		}
	}
	return "", false
}

func extractName(text string) (string, bool) {
	tokens := strings.Fields(text)
	if len(tokens) < 2 {
		return "", false
	}
	first, _ := utf8.DecodeRuneInString(tokens[0])
	if !unicode.IsUpper(first) {
		return "", false
	}
	return strings.Join(tokens, " "), true
}

func countDigits(s string) int {
	n := 0
	for _, r := range s {
		if r >= '0' && r <= '9' {
			n++
		}
	}
	return n
}

func fieldValue(p candidate.Profile, field string) string {
	switch field {
	case candidate.FieldName:
		return p.Name
	case candidate.FieldEmail:
		return p.Email
	case candidate.FieldPhone:
		return p.Phone
	default:
		return ""
	}
}
