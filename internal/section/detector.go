// Package section groups a document's spans into header-anchored sections.
package section

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/dgallion1/docrank/internal/profile"
)

// HeaderDetector decides whether one span's text is a section header.
type HeaderDetector interface {
	IsHeader(text string) bool
}

// RuleDetector applies a profile's header table. Rules are checked in
// order and any match makes the text a header:
//
//  1. lowercase text contains a vocabulary term
//  2. text matches the numbered pattern
//  3. fewer than MaxWords words and all-uppercase or title-cased
//
// Empty text and text longer than MaxLength runes are never headers.
type RuleDetector struct {
	h profile.Headers
}

// NewRuleDetector returns a detector for the given header table.
func NewRuleDetector(h profile.Headers) *RuleDetector {
	return &RuleDetector{h: h}
}

func (d *RuleDetector) IsHeader(text string) bool {
	text = strings.TrimSpace(text)
	if text == "" || utf8.RuneCountInString(text) > d.h.MaxLength {
		return false
	}

	lower := strings.ToLower(text)
	for _, term := range d.h.Vocabulary {
		if strings.Contains(lower, term) {
			return true
		}
	}

	if re := d.h.Numbered(); re != nil && re.MatchString(text) {
		return true
	}

	if len(strings.Fields(text)) < d.h.MaxWords && (isUpper(text) || isTitle(text)) {
		return true
	}
	return false
}

// isUpper reports whether s has at least one cased letter and every cased
// letter is uppercase.
func isUpper(s string) bool {
	cased := false
	for _, r := range s {
		switch {
		case unicode.IsLower(r), unicode.IsTitle(r):
			return false
		case unicode.IsUpper(r):
			cased = true
		}
	}
	return cased
}

// isTitle reports whether s has at least one cased letter, uppercase letters
// only follow uncased characters, and lowercase letters only follow cased ones.
func isTitle(s string) bool {
	cased, prevCased := false, false
	for _, r := range s {
		switch {
		case unicode.IsUpper(r), unicode.IsTitle(r):
			if prevCased {
				return false
			}
			prevCased, cased = true, true
		case unicode.IsLower(r):
			if !prevCased {
				return false
			}
			prevCased, cased = true, true
		default:
			prevCased = false
		}
	}
	return cased
}
