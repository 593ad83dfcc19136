package quote

import (
	"regexp"
	"strconv"
	"strings"
)

// quotePattern matches peer replies such as "The current price of SOL is $150.23".
// The number may use exponent notation and thousands separators.
var quotePattern = regexp.MustCompile(`(?i)price of (.*?) is \$?([\d.,eE+-]+)`)

// Quote is a price parsed from a peer's free-text reply
type Quote struct {
	// Token is the subject named in the reply, upper-cased. Informational:
	// pending requests are matched against Text, not Token.
	Token string
	Price float64
	Text  string
}

// Parse extracts a quote from text. ok is false when text carries no quote.
func Parse(text string) (q Quote, ok bool) {
	m := quotePattern.FindStringSubmatch(text)
	if m == nil {
		return Quote{}, false
	}

	price, ok := parseNumber(m[2])
	if !ok {
		return Quote{}, false
	}

	return Quote{
		Token: impliedToken(m[1]),
		Price: price,
		Text:  text,
	}, true
}

// Mentions reports whether token occurs anywhere in the reply, ignoring case
func (q Quote) Mentions(token string) bool {
	if token == "" {
		return false
	}
	return strings.Contains(strings.ToLower(q.Text), strings.ToLower(token))
}

func parseNumber(raw string) (float64, bool) {
	raw = strings.ReplaceAll(raw, ",", "")
	// sentence punctuation directly after the number
	raw = strings.TrimRight(raw, ".")
	if raw == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

func impliedToken(subject string) string {
	fields := strings.Fields(subject)
	if len(fields) == 0 {
		return ""
	}
	return strings.ToUpper(strings.Trim(fields[0], "()\"'"))
}
