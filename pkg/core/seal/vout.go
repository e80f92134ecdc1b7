package seal

import (
	"fmt"
	"strconv"

	"github.com/bsv-blockchain/go-sdk/chainhash"
)

// VoutSeal is an endpoint seal: it names an output index of a transaction that
// does not exist yet.
type VoutSeal struct {
	Method   Method
	Vout     uint32
	Blinding uint64
}

// NewVoutSeal returns an endpoint seal for the given output index.
func NewVoutSeal(method Method, vout uint32, blinding uint64) VoutSeal {
	return VoutSeal{Method: method, Vout: vout, Blinding: blinding}
}

func (VoutSeal) Kind() Kind { return KindVout }
func (VoutSeal) HasTxid() bool { return false }
func (VoutSeal) HasBlinding() bool { return true }
func (VoutSeal) IsConcealed() bool { return false }
func (VoutSeal) sealVariant() {}

func (s VoutSeal) String() string {
	return s.Method.String() + ":" + noTxid + ":" + strconv.FormatUint(uint64(s.Vout), 10) +
		"#" + strconv.FormatUint(s.Blinding, 10)
}

// Anchor promotes the endpoint to a BlindSeal once its transaction is known.
func (s VoutSeal) Anchor(txid chainhash.Hash) BlindSeal {
	return BlindSeal{Method: s.Method, Txid: &txid, Vout: s.Vout, Blinding: s.Blinding}
}

// Blind returns the unanchored BlindSeal carrying the same data.
func (s VoutSeal) Blind() BlindSeal {
	return BlindSeal{Method: s.Method, Vout: s.Vout, Blinding: s.Blinding}
}

// Conceal commits to the endpoint. The result equals the concealment of the
// unanchored BlindSeal with the same data.
func (s VoutSeal) Conceal() SecretSeal {
	return s.Blind().Conceal()
}

// ParseVoutSeal decodes "<method>:~:<vout>#<blinding>".
func ParseVoutSeal(s string) (VoutSeal, error) {
	blind, err := ParseBlindSeal(s)
	if err != nil {
		return VoutSeal{}, err
	}
	if blind.Txid != nil {
		return VoutSeal{}, fmt.Errorf("%w: vout seal %q must not carry a txid", ErrMalformedSeal, s)
	}
	return VoutSeal{Method: blind.Method, Vout: blind.Vout, Blinding: blind.Blinding}, nil
}

// MarshalText implements encoding.TextMarshaler.
func (s VoutSeal) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *VoutSeal) UnmarshalText(text []byte) error {
	parsed, err := ParseVoutSeal(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}
