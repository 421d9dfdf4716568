package questions

import "strings"

// Check reports whether a generated question is fit to print.
type Check func(question string) bool

const maxQuestionLen = 120

var metaPhrases = []string{
	"as an ai",
	"i cannot",
	"i can't",
	"i'm sorry",
	"i am sorry",
	"here are",
	"here is",
	"sure,",
	"certainly",
	"keyword:",
	"question:",
	"definition:",
	"no definition",
}

// MetaAnswer reports whether text looks like commentary from the model
// rather than a question: empty, too long, a stock assistant phrase, or
// a long statement ending in a full stop.
func MetaAnswer(text string) bool {
	t := strings.TrimSpace(text)
	if t == "" || len(t) > maxQuestionLen {
		return true
	}
	lower := strings.ToLower(t)
	for _, p := range metaPhrases {
		if strings.Contains(lower, p) {
			return true
		}
	}
	return strings.HasSuffix(t, ".") && len(t) > 40
}

// Acceptable is the default Check.
func Acceptable(question string) bool {
	return !MetaAnswer(question)
}
