// Package roster defines the enrollment side of the attendance domain: classes,
// their enrolled students, and the provider contract the workflow reads from.
// The roster is owned by an external system of record and is immutable within
// a recording session.
package roster

import (
	"context"
	"strings"
	"unicode"

	"github.com/sklabubesar/kehadiran-bot/internal/domain/shared"
)

// Student is one enrolled pupil. Identity is the display name - the source
// sheet carries no stable numeric ID.
type Student struct {
	// Name is the display name, e.g. "Nur Aisyah binti Kamal".
	Name string

	// Note is an optional annotation column, e.g. the meal-subsidy tag "RMT".
	Note string
}

// RMTRule selects how subsidized-meal (RMT) membership is derived.
// Historical revisions of the source sheet disagree on the encoding, so the
// rule is configuration rather than a hardcoded guess.
type RMTRule string

const (
	// RMTRuleNote matches when the note column equals the tag (default).
	RMTRuleNote RMTRule = "note-column"

	// RMTRuleNameSuffix matches when the student name ends with the tag.
	RMTRuleNameSuffix RMTRule = "name-suffix"

	// RMTRuleFlag matches when the note column holds a truthy flag.
	RMTRuleFlag RMTRule = "flag-column"
)

// RMTTag is the marker used by the note and suffix rules.
const RMTTag = "RMT"

// IsRMT reports whether the student is in the subsidized-meal programme
// under the given matching rule.
func (s Student) IsRMT(rule RMTRule) bool {
	switch rule {
	case RMTRuleNameSuffix:
		return strings.HasSuffix(strings.TrimSpace(s.Name), RMTTag)
	case RMTRuleFlag:
		switch strings.ToLower(strings.TrimSpace(s.Note)) {
		case "1", "ya", "yes", "true":
			return true
		}
		return false
	default:
		return strings.EqualFold(strings.TrimSpace(s.Note), RMTTag)
	}
}

// Provider is the external roster source.
type Provider interface {
	// ListClasses returns all known class names, deduplicated and sorted.
	ListClasses(ctx context.Context) ([]string, error)

	// ListStudents returns the ordered enrollment of one class.
	// Returns ErrClassNotFound when the class is unknown.
	ListStudents(ctx context.Context, classID string) ([]Student, error)
}

// Domain errors.
var (
	ErrClassNotFound = shared.NewDomainError("roster", "ListStudents", shared.ErrNotFound, "class not found")
)

// Names returns just the display names of the given students, in order.
func Names(students []Student) []string {
	names := make([]string, len(students))
	for i, s := range students {
		names[i] = s.Name
	}
	return names
}

// NormalizeClass canonicalizes a class name for comparisons: lowercase with
// runs of whitespace collapsed to single spaces. "4  Amber " and "4 amber"
// refer to the same class.
func NormalizeClass(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), " "))
}

// YearLabel extracts the leading numeric token of a class name ("4" from
// "4 Amber"). Classes without a leading digit, such as preschool classes,
// return an empty label.
func YearLabel(classID string) string {
	trimmed := strings.TrimSpace(classID)
	end := 0
	for end < len(trimmed) && unicode.IsDigit(rune(trimmed[end])) {
		end++
	}
	return trimmed[:end]
}
