package seal

import (
	"fmt"
	"strings"
)

// TerminalSeal is the consignment wrapper for the seal an assignment ends on:
// either a SecretSeal or a VoutSeal.
type TerminalSeal struct {
	concealed bool
	secret    SecretSeal
	vout      VoutSeal
}

// TerminalFromSecret wraps a concealed seal.
func TerminalFromSecret(s SecretSeal) TerminalSeal {
	return TerminalSeal{concealed: true, secret: s}
}

// TerminalFromVout wraps an endpoint seal.
func TerminalFromVout(v VoutSeal) TerminalSeal {
	return TerminalSeal{vout: v}
}

func (TerminalSeal) Kind() Kind { return KindTerminal }
func (TerminalSeal) HasTxid() bool { return false }
func (t TerminalSeal) HasBlinding() bool { return !t.concealed }
func (t TerminalSeal) IsConcealed() bool { return t.concealed }
func (TerminalSeal) sealVariant() {}

// Secret returns the wrapped SecretSeal, if any.
func (t TerminalSeal) Secret() (SecretSeal, bool) {
	return t.secret, t.concealed
}

// Vout returns the wrapped VoutSeal, if any.
func (t TerminalSeal) Vout() (VoutSeal, bool) {
	return t.vout, !t.concealed
}

// Conceal returns the concealed form of the wrapped seal.
func (t TerminalSeal) Conceal() SecretSeal {
	if t.concealed {
		return t.secret
	}
	return t.vout.Conceal()
}

func (t TerminalSeal) String() string {
	if t.concealed {
		return t.secret.String()
	}
	return t.vout.String()
}

// ParseTerminalSeal decodes a SecretSeal or a VoutSeal, told apart by the
// txob: prefix.
func ParseTerminalSeal(s string) (TerminalSeal, error) {
	if strings.HasPrefix(s, secretPrefix) {
		secret, err := ParseSecretSeal(s)
		if err != nil {
			return TerminalSeal{}, err
		}
		return TerminalFromSecret(secret), nil
	}
	vout, err := ParseVoutSeal(s)
	if err != nil {
		return TerminalSeal{}, fmt.Errorf("terminal seal: %w", err)
	}
	return TerminalFromVout(vout), nil
}

// MarshalText implements encoding.TextMarshaler.
func (t TerminalSeal) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *TerminalSeal) UnmarshalText(text []byte) error {
	parsed, err := ParseTerminalSeal(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}
