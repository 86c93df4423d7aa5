// Package matching pairs cluewords across the two annotated timelines.
package matching

import (
	"errors"
	"strings"

	"github.com/forensiclab/cluewords/internal/models"
)

// ErrNoMatches is returned when no question label has a control counterpart.
// It is the only hard stop in the processing pipeline.
var ErrNoMatches = errors.New("no matching annotations found between question and control files")

// Normalize reduces a label to its comparison key: lowercase, surrounding
// whitespace trimmed. An empty result is a legal key.
func Normalize(label string) string {
	return strings.ToLower(strings.TrimSpace(label))
}

// Match pairs question annotations with control annotations whose normalized
// labels are equal. The control lookup is built in list order, so a duplicate
// control label overwrites the earlier entry (last-write-wins). Results keep
// question iteration order.
func Match(question, control models.AnnotationSet) ([]models.Match, error) {
	lookup := make(map[string]models.Annotation, len(control))
	for _, c := range control {
		lookup[Normalize(c.Label)] = c
	}

	var matches []models.Match
	for _, q := range question {
		if c, ok := lookup[Normalize(q.Label)]; ok {
			matches = append(matches, models.Match{Question: q, Control: c})
		}
	}
	if len(matches) == 0 {
		return nil, ErrNoMatches
	}
	return matches, nil
}
