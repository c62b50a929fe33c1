package rank

import (
	"strings"

	"github.com/dgallion1/docrank/internal/profile"
)

// Booster returns a multiplicative adjustment of at least 1 for a candidate.
type Booster interface {
	Factor(c Candidate) float64
}

// NoBoost leaves every base score unchanged.
type NoBoost struct{}

func (NoBoost) Factor(Candidate) float64 { return 1 }

// ProfileBooster applies a profile's boost table:
//
//   - TitleFactor once per distinct keyword found in the lowercase title
//   - PatternFactor if the text matches the pattern
//   - PhraseFactor if the lowercase text contains any phrase
//
// The product is capped at Max.
type ProfileBooster struct {
	b profile.Boost
}

func NewBooster(b profile.Boost) *ProfileBooster {
	return &ProfileBooster{b: b}
}

func (p *ProfileBooster) Factor(c Candidate) float64 {
	f := 1.0

	title := strings.ToLower(c.Title)
	for _, kw := range p.b.TitleKeywords {
		if strings.Contains(title, kw) {
			f *= p.b.TitleFactor
		}
	}

	if re := p.b.TextPattern(); re != nil && re.MatchString(c.Text) {
		f *= p.b.PatternFactor
	}

	text := strings.ToLower(c.Text)
	for _, ph := range p.b.Phrases {
		if strings.Contains(text, ph) {
			f *= p.b.PhraseFactor
			break
		}
	}

	return min(f, p.b.Max)
}
