// Package leads holds the best-effort heuristics that pull customer contact
// details out of free-form Vietnamese chat text, plus the lead-quality scale.
//
// Extraction is a supplement to the model-driven analysis: false negatives are
// expected and nothing here is a validated parser.
package leads

import (
	"regexp"
	"strings"
)

const (
	FieldEmail   = "email"
	FieldPhone   = "phone"
	FieldName    = "name"
	FieldCompany = "company"
)

var (
	emailPattern = regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`)
	phonePattern = regexp.MustCompile(`(0|\+84)[35789][0-9]{8}`)
	namePattern  = regexp.MustCompile(`(tôi là|tên tôi|gọi tôi|tên của tôi|tôi tên)\s+([a-zA-ZÀ-ỹ\s]{2,20})`)
	nameCue      = regexp.MustCompile(`(tôi là|tên tôi|gọi tôi|tên của tôi|tôi tên)\s+([a-zA-ZÀ-ỹ\s]+)`)

	companyPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(công ty|cty|company)\s+([a-zA-ZÀ-ỹ\s]{2,30})`),
		regexp.MustCompile(`(làm việc tại|làm tại)\s+([a-zA-ZÀ-ỹ\s]{2,30})`),
		regexp.MustCompile(`(ngành|industry)\s+([a-zA-ZÀ-ỹ\s]{2,30})`),
	}

	emailCues   = []string{"email", "gmail", "yahoo", "hotmail"}
	phoneCues   = []string{"số điện thoại", "sdt", "phone"}
	nameCues    = []string{"tên", "gọi"}
	companyCues = []string{"công ty", "ngành", "làm việc", "công việc", "văn phòng", "doanh nghiệp"}
)

// Fields are the contact details a lead record can carry.
type Fields struct {
	Name        string `json:"name,omitempty"`
	Email       string `json:"email,omitempty"`
	PhoneNumber string `json:"phone_number,omitempty"`
	Company     string `json:"company,omitempty"`
	Position    string `json:"position,omitempty"`
}

// IsEmpty reports whether no field is set.
func (f Fields) IsEmpty() bool {
	return f == Fields{}
}

// ConversationText joins message bodies with a space and lowercases the result.
func ConversationText(contents []string) string {
	return strings.ToLower(strings.Join(contents, " "))
}

// Extract scans lowercase conversation text for contact details.
// Each field is the first match of its pattern; company takes the first
// pattern that matches at all.
func Extract(text string) Fields {
	var f Fields
	f.Email = emailPattern.FindString(text)
	f.PhoneNumber = phonePattern.FindString(text)
	if m := namePattern.FindStringSubmatch(text); m != nil {
		f.Name = strings.TrimSpace(m[2])
	}
	for _, p := range companyPatterns {
		if m := p.FindStringSubmatch(text); m != nil {
			f.Company = strings.TrimSpace(m[2])
			break
		}
	}
	return f
}

// MissingFields lists the contact fields with no evidence in text. Besides the
// extraction patterns it accepts weaker keyword cues, so a conversation that
// merely talks about an email counts as having one.
func MissingFields(text string) []string {
	var missing []string
	if !emailPattern.MatchString(text) && !containsAny(text, emailCues) {
		missing = append(missing, FieldEmail)
	}
	if !phonePattern.MatchString(text) && !containsAny(text, phoneCues) {
		missing = append(missing, FieldPhone)
	}
	if !nameCue.MatchString(text) && !containsAny(text, nameCues) {
		missing = append(missing, FieldName)
	}
	if !containsAny(text, companyCues) {
		missing = append(missing, FieldCompany)
	}
	return missing
}

// Merge overlays update on base. Empty values in update never erase a value
// already present in base.
func Merge(base, update Fields) Fields {
	out := base
	if update.Name != "" {
		out.Name = update.Name
	}
	if update.Email != "" {
		out.Email = update.Email
	}
	if update.PhoneNumber != "" {
		out.PhoneNumber = update.PhoneNumber
	}
	if update.Company != "" {
		out.Company = update.Company
	}
	if update.Position != "" {
		out.Position = update.Position
	}
	return out
}

func containsAny(text string, cues []string) bool {
	for _, c := range cues {
		if strings.Contains(text, c) {
			return true
		}
	}
	return false
}
