package resume

import (
	"regexp"
	"strings"
)

// Sections holds the free text under the common resume headings.
type Sections struct {
	Education  string `json:"education"`
	Experience string `json:"experience"`
	Skills     string `json:"skills"`
}

// Extraction is the structured view of an uploaded resume. Any field may be
// empty; the interview collects missing profile fields in chat.
type Extraction struct {
	Name      string   `json:"name"`
	Email     string   `json:"email"`
	Phone     string   `json:"phone"`
	Sections  Sections `json:"sections"`
	AllEmails []string `json:"allEmails,omitempty"`
	RawText   string   `json:"rawText"`
}

var (
	emailPattern   = regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`)
	phonePattern   = regexp.MustCompile(`\+?\d[\d \-()]{8,}\d`)
	blankRuns      = regexp.MustCompile(`\n{2,}`)
	sectionHeading = regexp.MustCompile(`\n[A-Za-z]+:`)
)

// Lines containing these words are treated as a title rather than a name.
var jobTitles = []string{"engineer", "developer", "designer", "manager", "resume"}

const (
	minPhoneDigits = 10
	maxPhoneDigits = 15
)

// Parse pulls contact fields and sections out of plain resume text.
func Parse(text string) Extraction {
	text = normalize(text)
	out := Extraction{RawText: text}
	if text == "" {
		return out
	}

	out.AllEmails = emailPattern.FindAllString(text, -1)
	if len(out.AllEmails) > 0 {
		out.Email = out.AllEmails[0]
	}
	out.Phone = findPhone(text)
	out.Name = findName(text)
	out.Sections = Sections{
		Education:  section(text, "Education"),
		Experience: section(text, "Experience"),
		Skills:     section(text, "Skills"),
	}
	return out
}

// fillMissing copies locally parsed fields into gaps left by a remote
// extractor.
func (e *Extraction) fillMissing() {
	if e.RawText == "" {
		return
	}
	local := Parse(e.RawText)
	if strings.TrimSpace(e.Name) == "" {
		e.Name = local.Name
	}
	if strings.TrimSpace(e.Email) == "" {
		e.Email = local.Email
	}
	if strings.TrimSpace(e.Phone) == "" {
		e.Phone = local.Phone
	}
	if e.Sections == (Sections{}) {
		e.Sections = local.Sections
	}
	if len(e.AllEmails) == 0 {
		e.AllEmails = local.AllEmails
	}
}

func normalize(text string) string {
	text = strings.ReplaceAll(text, "\r", "")
	text = blankRuns.ReplaceAllString(text, "\n")
	return strings.TrimSpace(text)
}

func findPhone(text string) string {
	for _, m := range phonePattern.FindAllString(text, -1) {
		digits := 0
		for _, r := range m {
			if r >= '0' && r <= '9' {
				digits++
			}
		}
		if digits >= minPhoneDigits && digits <= maxPhoneDigits {
			return strings.TrimSpace(m)
		}
	}
	return ""
}

func findName(text string) string {
	var lines []string
	for _, l := range strings.Split(text, "\n") {
		if l = strings.TrimSpace(l); l != "" {
			lines = append(lines, l)
		}
	}
	if len(lines) == 0 {
		return ""
	}

	name := lines[0]
	lower := strings.ToLower(name)
	for _, title := range jobTitles {
		if strings.Contains(lower, title) {
			if len(lines) > 1 {
				name = lines[1]
			}
			break
		}
	}
	return name
}

// section returns the text from keyword up to the next "Heading:" line.
func section(text, keyword string) string {
	at := regexp.MustCompile(`(?i)` + regexp.QuoteMeta(keyword)).FindStringIndex(text)
	if at == nil {
		return ""
	}
	rest := text[at[0]:]
	head := at[1] - at[0]
	if loc := sectionHeading.FindStringIndex(rest[head:]); loc != nil {
		return rest[:head+loc[0]]
	}
	return rest
}
