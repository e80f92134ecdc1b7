package seal

import "fmt"

// Envelope is the kind-tagged text form of a seal used wherever seals are
// persisted or transferred.
type Envelope struct {
	Kind Kind   `json:"kind" cbor:"1,keyasint"`
	Text string `json:"seal" cbor:"2,keyasint"`
}

// Wrap returns the envelope of s.
func Wrap(s Seal) Envelope {
	return Envelope{Kind: s.Kind(), Text: s.String()}
}

// Open decodes the wrapped seal.
func (e Envelope) Open() (Seal, error) {
	s, err := Parse(e.Kind, e.Text)
	if err != nil {
		return nil, fmt.Errorf("opening %s envelope: %w", e.Kind, err)
	}
	return s, nil
}
