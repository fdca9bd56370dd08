// Package filter narrows the cached listings down to what the user asked
// for. Apply is pure: it never touches its input and keeps the input order.
package filter

import (
	"math"
	"strconv"
	"strings"

	"golang.org/x/text/cases"

	"github.com/dcode-github/imovel_listing_system/models"
)

// Criteria holds raw user input. Empty fields do not constrain anything.
type Criteria struct {
	Term     string
	Purpose  string
	MinPrice string
	MaxPrice string
}

func (c Criteria) IsZero() bool {
	return c == Criteria{}
}

// purpose values that disable the purpose filter
var allPurposes = map[string]bool{
	"":      true,
	"all":   true,
	"todas": true,
	"todos": true,
}

// Apply returns the listings matching every criterion.
func Apply(listings []models.Imovel, c Criteria) []models.Imovel {
	m := newMatcher(c)
	out := make([]models.Imovel, 0, len(listings))
	for _, im := range listings {
		if m.match(im) {
			out = append(out, im)
		}
	}
	return out
}

type matcher struct {
	fold     cases.Caser
	term     string
	purpose  string
	min, max float64
	hasMin   bool
	hasMax   bool
}

func newMatcher(c Criteria) *matcher {
	m := &matcher{fold: cases.Fold()}
	m.term = m.foldString(strings.TrimSpace(c.Term))

	p := strings.TrimSpace(c.Purpose)
	if !allPurposes[strings.ToLower(p)] {
		if parsed, err := models.ParsePurpose(p); err == nil {
			p = parsed.String()
		}
		m.purpose = m.foldString(p)
	}

	m.min, m.hasMin = parseBound(c.MinPrice)
	m.max, m.hasMax = parseBound(c.MaxPrice)
	return m
}

// parseBound accepts "3000", "3000.50" and the Brazilian "3000,50".
// Anything else leaves the bound unset.
func parseBound(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	if strings.Count(s, ",") == 1 && !strings.Contains(s, ".") {
		s = strings.Replace(s, ",", ".", 1)
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

func (m *matcher) foldString(s string) string {
	m.fold.Reset()
	return m.fold.String(s)
}

func (m *matcher) match(im models.Imovel) bool {
	if m.term != "" &&
		!strings.Contains(m.foldString(im.Title), m.term) &&
		!strings.Contains(m.foldString(im.Address), m.term) &&
		!strings.Contains(m.foldString(im.Agent), m.term) {
		return false
	}
	if m.purpose != "" && m.foldString(im.Purpose.String()) != m.purpose {
		return false
	}
	if m.hasMin && im.Price < m.min {
		return false
	}
	if m.hasMax && im.Price > m.max {
		return false
	}
	return true
}
