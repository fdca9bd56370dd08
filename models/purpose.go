package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Purpose tells whether a listing is for sale or for rent. Only the two
// constants below are valid; every other spelling is folded into them by
// ParsePurpose.
type Purpose string

const (
	PurposeSale Purpose = "Venda"
	PurposeRent Purpose = "Locação"
)

var ErrInvalidPurpose = errors.New("invalid purpose")

// keys are lower-cased and stripped of diacritics
var purposeAliases = map[string]Purpose{
	"venda":    PurposeSale,
	"for-sale": PurposeSale,
	"sale":     PurposeSale,
	"locacao":  PurposeRent,
	"for-rent": PurposeRent,
	"rent":     PurposeRent,
	"aluguel":  PurposeRent,
}

func purposeKey(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, strings.TrimSpace(s))
	if err != nil {
		folded = strings.TrimSpace(s)
	}
	return strings.ToLower(folded)
}

func ParsePurpose(s string) (Purpose, error) {
	if p, ok := purposeAliases[purposeKey(s)]; ok {
		return p, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidPurpose, s)
}

func (p Purpose) Valid() bool {
	return p == PurposeSale || p == PurposeRent
}

func (p Purpose) String() string {
	return string(p)
}

// UnmarshalJSON normalizes known spellings ("venda", "Locacao", ...) into the
// canonical values. Unknown values are kept verbatim so validation can report
// them as a field error instead of a decoding failure.
func (p *Purpose) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	if parsed, err := ParsePurpose(s); err == nil {
		*p = parsed
		return nil
	}
	*p = Purpose(s)
	return nil
}
