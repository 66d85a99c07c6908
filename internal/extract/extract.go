// Package extract recovers structured patient fields from free-form
// conversation turns. It is a fallback: the registration flow consults it only
// when a structured collection step produced an empty value, and its results
// never override explicitly collected data.
package extract

import (
	"regexp"
	"strings"
)

// Turn roles as delivered by the conversational transport.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Turn is one utterance in the conversation history feed.
type Turn struct {
	Role string `json:"role"`
	Text string `json:"text"`
}

// Field identifies one recoverable patient attribute.
type Field string

const (
	FieldName        Field = "name"
	FieldDOB         Field = "dob"
	FieldPhone       Field = "phone"
	FieldEmail       Field = "email"
	FieldInsurance   Field = "insurance"
	FieldInsuranceID Field = "insurance_id"
	FieldComplaint   Field = "medical_complaint"
	FieldAddress     Field = "address"
)

// patterns maps each field to its prioritized parser table. Evaluation is
// first-match-wins: patterns earlier in a table are more precise, later ones
// trade precision for recall.
var patterns = map[Field][]*regexp.Regexp{
	FieldName: {
		regexp.MustCompile(`(?i)my name is ([A-Za-z\s.',-]+)`),
		regexp.MustCompile(`(?i)\bname is ([A-Za-z\s.',-]+)`),
		regexp.MustCompile(`(?i)\bname:\s*([A-Za-z\s.',-]+)`),
		regexp.MustCompile(`(?i)call me ([A-Za-z\s.',-]+)`),
		regexp.MustCompile(`(?i)this is ([A-Za-z\s.',-]+)`),
		regexp.MustCompile(`(?i)i'm ([A-Za-z\s.',-]+)`),
	},
	FieldDOB: {
		regexp.MustCompile(`(?i)born on (\d{1,2}[/-]\d{1,2}[/-]\d{2,4})`),
		regexp.MustCompile(`(?i)birthday is (\d{1,2}[/-]\d{1,2}[/-]\d{2,4})`),
		regexp.MustCompile(`(?i)date of birth:?\s*(\d{1,2}[/-]\d{1,2}[/-]\d{2,4})`),
		regexp.MustCompile(`(?i)birth date:?\s*(\d{1,2}[/-]\d{1,2}[/-]\d{2,4})`),
		regexp.MustCompile(`(?i)dob:?\s*(\d{1,2}[/-]\d{1,2}[/-]\d{2,4})`),
		regexp.MustCompile(`(?i)born (?:on|in) ([A-Za-z]+ \d{1,2}(?:st|nd|rd|th)?,? \d{4})`),
	},
	FieldPhone: {
		regexp.MustCompile(`(?i)phone(?:\s+number)? is (\(?\d{3}\)?[-.\s]?\d{3}[-.\s]?\d{4})`),
		regexp.MustCompile(`(?i)phone(?:\s+number)?:?\s*(\(?\d{3}\)?[-.\s]?\d{3}[-.\s]?\d{4})`),
		regexp.MustCompile(`(?i)call me at (\(?\d{3}\)?[-.\s]?\d{3}[-.\s]?\d{4})`),
		regexp.MustCompile(`(?i)my number is (\(?\d{3}\)?[-.\s]?\d{3}[-.\s]?\d{4})`),
	},
	FieldEmail: {
		regexp.MustCompile(`(?i)email is ([\w.-]+@[\w.-]+\.\w+)`),
		regexp.MustCompile(`(?i)email:?\s*([\w.-]+@[\w.-]+\.\w+)`),
		regexp.MustCompile(`(?i)contact me at ([\w.-]+@[\w.-]+\.\w+)`),
	},
	FieldInsurance: {
		regexp.MustCompile(`(?i)insurance(?:\s+provider)? is ([A-Za-z\s&.,-]+)`),
		regexp.MustCompile(`(?i)insurance(?:\s+provider)?:?\s+([A-Za-z\s&.,-]+)`),
		regexp.MustCompile(`(?i)i have ([A-Za-z\s&.,-]+) insurance`),
		regexp.MustCompile(`(?i)covered by ([A-Za-z\s&.,-]+)`),
	},
	FieldInsuranceID: {
		regexp.MustCompile(`(?i)insurance id(?:\s+number)? is ([A-Za-z0-9\s-]+)`),
		regexp.MustCompile(`(?i)insurance id(?:\s+number)?:?\s+([A-Za-z0-9\s-]+)`),
		regexp.MustCompile(`(?i)id number is ([A-Za-z0-9\s-]+)`),
		regexp.MustCompile(`(?i)policy number:?\s*([A-Za-z0-9\s-]+)`),
	},
	FieldComplaint: {
		regexp.MustCompile(`(?i)here because of ([^.!?]+)`),
		regexp.MustCompile(`(?i)problem is ([^.!?]+)`),
		regexp.MustCompile(`(?i)issue is ([^.!?]+)`),
		regexp.MustCompile(`(?i)complaint is ([^.!?]+)`),
		regexp.MustCompile(`(?i)suffering from ([^.!?]+)`),
		regexp.MustCompile(`(?i)having ([^.!?]+)`),
	},
	FieldAddress: {
		regexp.MustCompile(`(?i)address is ([A-Za-z0-9\s.,#-]+)`),
		regexp.MustCompile(`(?i)address:?\s+([A-Za-z0-9\s.,#-]+)`),
		regexp.MustCompile(`(?i)live at ([A-Za-z0-9\s.,#-]+)`),
		regexp.MustCompile(`(?i)reside at ([A-Za-z0-9\s.,#-]+)`),
	},
}

// Extract scans the user turns in chronological order and returns the first
// capture of the first matching pattern for field, trimmed. The second return
// is false when no pattern matched or the field is unknown.
func Extract(turns []Turn, field Field) (string, bool) {
	table, ok := patterns[field]
	if !ok {
		return "", false
	}
	for _, turn := range turns {
		if turn.Role != RoleUser {
			continue
		}
		for _, re := range table {
			if m := re.FindStringSubmatch(turn.Text); len(m) > 1 {
				value := strings.TrimSpace(m[1])
				if value != "" {
					return value, true
				}
			}
		}
	}
	return "", false
}

var nonDigits = regexp.MustCompile(`\D`)

// Normalize canonicalizes an extracted value. Callers opt in explicitly; the
// extraction path never normalizes on its own.
func Normalize(value string, field Field) string {
	if value == "" {
		return value
	}
	switch field {
	case FieldPhone:
		digits := nonDigits.ReplaceAllString(value, "")
		if len(digits) == 10 {
			return "(" + digits[0:3] + ") " + digits[3:6] + "-" + digits[6:10]
		}
		return value
	case FieldEmail:
		return strings.ToLower(value)
	case FieldName, FieldInsurance, FieldComplaint:
		return titleCase(value)
	default:
		return value
	}
}

func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + strings.ToLower(w[1:])
	}
	return strings.Join(words, " ")
}
