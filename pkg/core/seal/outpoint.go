package seal

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/bsv-blockchain/go-sdk/chainhash"
)

// Outpoint is a plain transaction output reference. It is the seal used to
// anchor genesis state.
type Outpoint struct {
	Txid chainhash.Hash
	Vout uint32
}

// NewOutpoint returns the outpoint txid:vout.
func NewOutpoint(txid chainhash.Hash, vout uint32) Outpoint {
	return Outpoint{Txid: txid, Vout: vout}
}

func (Outpoint) Kind() Kind { return KindOutpoint }
func (Outpoint) HasTxid() bool { return true }
func (Outpoint) HasBlinding() bool { return false }
func (Outpoint) IsConcealed() bool { return false }
func (Outpoint) sealVariant() {}

func (o Outpoint) String() string {
	return o.Txid.String() + ":" + strconv.FormatUint(uint64(o.Vout), 10)
}

// Blind turns the outpoint into a BlindSeal using the given method and blinding.
func (o Outpoint) Blind(method Method, blinding uint64) BlindSeal {
	txid := o.Txid
	return BlindSeal{Method: method, Txid: &txid, Vout: o.Vout, Blinding: blinding}
}

// Explicit turns the outpoint into an ExplicitSeal using the given method.
func (o Outpoint) Explicit(method Method) ExplicitSeal {
	txid := o.Txid
	return ExplicitSeal{Method: method, Txid: &txid, Vout: o.Vout}
}

// ParseOutpoint decodes "<txid>:<vout>".
func ParseOutpoint(s string) (Outpoint, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 2 {
		return Outpoint{}, fmt.Errorf("%w: outpoint %q must be <txid>:<vout>", ErrMalformedSeal, s)
	}
	txid, err := parseTxid(parts[0])
	if err != nil {
		return Outpoint{}, err
	}
	vout, err := parseVout(parts[1])
	if err != nil {
		return Outpoint{}, err
	}
	return Outpoint{Txid: txid, Vout: vout}, nil
}

// MarshalText implements encoding.TextMarshaler.
func (o Outpoint) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (o *Outpoint) UnmarshalText(text []byte) error {
	parsed, err := ParseOutpoint(string(text))
	if err != nil {
		return err
	}
	*o = parsed
	return nil
}
