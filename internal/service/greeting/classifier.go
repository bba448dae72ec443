package greeting

import (
	"strings"
)

// Classifier matches inbound text against a fixed set of greeting phrases.
// A message is a greeting when it contains any phrase as a substring.
type Classifier struct {
	phrases []string
}

func NewClassifier(phrases []string) *Classifier {
	normalized := make([]string, 0, len(phrases))
	for _, p := range phrases {
		p = Normalize(p)
		if p != "" {
			normalized = append(normalized, p)
		}
	}
	return &Classifier{phrases: normalized}
}

// Normalize lower-cases and trims text before matching.
func Normalize(text string) string {
	return strings.ToLower(strings.TrimSpace(text))
}

// Match reports whether already normalized text contains a greeting phrase.
func (c *Classifier) Match(text string) (string, bool) {
	for _, p := range c.phrases {
		if strings.Contains(text, p) {
			return p, true
		}
	}
	return "", false
}
