package consignment

import "fmt"

// Disclosure selects how much of an assignment's seal the recipient sees.
type Disclosure uint8

const (
	// DisclosureExplicit reveals the outpoint but not the blinding factor.
	DisclosureExplicit Disclosure = iota + 1
	// DisclosureBlind reveals the outpoint and the blinding factor, so the
	// recipient can check the seal against a commitment it already holds.
	DisclosureBlind
	// DisclosureConcealed sends only the commitment. The recipient opens it
	// from its own reveal book.
	DisclosureConcealed
)

func (d Disclosure) String() string {
	switch d {
	case DisclosureExplicit:
		return "explicit"
	case DisclosureBlind:
		return "blind"
	case DisclosureConcealed:
		return "concealed"
	default:
		return fmt.Sprintf("disclosure(%d)", uint8(d))
	}
}

// Valid reports whether d is a known disclosure.
func (d Disclosure) Valid() bool {
	return d >= DisclosureExplicit && d <= DisclosureConcealed
}

// ParseDisclosure is the inverse of Disclosure.String.
func ParseDisclosure(s string) (Disclosure, error) {
	for d := DisclosureExplicit; d <= DisclosureConcealed; d++ {
		if d.String() == s {
			return d, nil
		}
	}
	return 0, fmt.Errorf("%w: unknown disclosure %q", ErrMalformedConsignment, s)
}

// MarshalText implements encoding.TextMarshaler.
func (d Disclosure) MarshalText() ([]byte, error) {
	if !d.Valid() {
		return nil, fmt.Errorf("%w: unknown disclosure %d", ErrMalformedConsignment, uint8(d))
	}
	return []byte(d.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Disclosure) UnmarshalText(text []byte) error {
	parsed, err := ParseDisclosure(string(text))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
