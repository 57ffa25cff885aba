package interview

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/gokatarajesh/mock-interview/internal/candidate"
)

func TestMissingFieldsOrder(t *testing.T) {
	assert.Equal(t, []string{"name", "email", "phone"}, MissingFields(candidate.Profile{}))
	assert.Equal(t, []string{"phone"}, MissingFields(candidate.Profile{Name: "A B", Email: "a@b.co"}))
	assert.Empty(t, MissingFields(candidate.Profile{Name: "A B", Email: "a@b.co", Phone: "5551234"}))
	assert.Equal(t, "email", NextMissing(candidate.Profile{Name: "A B", Phone: "5551234"}))
}

func TestClassifyOnlyConsidersFirstMissing(t *testing.T) {
	// Name missing: a valid email is not accepted.
	d := Classify(candidate.Profile{}, "jane@example.com")
	assert.False(t, d.Matched)
	assert.Equal(t, "name", d.Field)

	// Email missing: a name-like phrase is not accepted.
	d = Classify(candidate.Profile{Name: "Jane Doe"}, "John Smith")
	assert.False(t, d.Matched)
	assert.Equal(t, "email", d.Field)
}

func TestClassifyName(t *testing.T) {
	cases := []struct {
		text    string
		matched bool
		value   string
	}{
		{"Jane   Doe", true, "Jane Doe"},
		{"Ada King Lovelace", true, "Ada King Lovelace"},
		{"jane doe", false, ""},
		{"Jane", false, ""},
		{"", false, ""},
	}
	for _, tc := range cases {
		d := Classify(candidate.Profile{}, tc.text)
		assert.Equal(t, tc.matched, d.Matched, tc.text)
		assert.Equal(t, tc.value, d.Value, tc.text)
	}
}

func TestClassifyEmailStoresMatchedAddress(t *testing.T) {
	p := candidate.Profile{Name: "Jane Doe"}

	d := Classify(p, "sure, it's jane.doe+work@mail.example.org thanks")
	assert.True(t, d.Matched)
	assert.Equal(t, "email", d.Field)
	assert.Equal(t, "jane.doe+work@mail.example.org", d.Value)

	assert.False(t, Classify(p, "jane at example dot com").Matched)
}

func TestClassifyPhone(t *testing.T) {
	p := candidate.Profile{Name: "Jane Doe", Email: "jane@example.com"}

	cases := []struct {
		text    string
		matched bool
		value   string
	}{
		{"+1 (555) 123-4567", true, "+1 (555) 123-4567"},
		{"call me on 555.123.4567 anytime", true, "555.123.4567"},
		{"9876543210", true, "9876543210"},
		{"12345", false, ""},
		{"no digits here", false, ""},
	}
	for _, tc := range cases {
		d := Classify(p, tc.text)
		assert.Equal(t, tc.matched, d.Matched, tc.text)
		assert.Equal(t, tc.value, d.Value, tc.text)
	}
}

func TestClassifyInertWhenComplete(t *testing.T) {
	d := Classify(candidate.Profile{Name: "Jane Doe", Email: "j@e.co", Phone: "5551234"}, "Another Name")
	assert.Equal(t, Decision{}, d)
}

func TestPromptForEveryField(t *testing.T) {
	for _, f := range RequiredFields {
		assert.NotEmpty(t, PromptFor(f), f)
	}
	assert.Empty(t, PromptFor("age"))
}
