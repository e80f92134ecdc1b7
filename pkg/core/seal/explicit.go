package seal

import (
	"fmt"
	"strconv"

	"github.com/bsv-blockchain/go-sdk/chainhash"
)

// ExplicitSeal is an unblinded seal used for internal bookkeeping. Txid is nil
// until the seal is anchored.
type ExplicitSeal struct {
	Method Method
	Txid   *chainhash.Hash
	Vout   uint32
}

func (ExplicitSeal) Kind() Kind { return KindExplicit }
func (s ExplicitSeal) HasTxid() bool { return s.Txid != nil }
func (ExplicitSeal) HasBlinding() bool { return false }
func (ExplicitSeal) IsConcealed() bool { return false }
func (ExplicitSeal) sealVariant() {}

func (s ExplicitSeal) String() string {
	return s.Method.String() + ":" + formatOptionalTxid(s.Txid) + ":" + strconv.FormatUint(uint64(s.Vout), 10)
}

// Outpoint returns the anchored outpoint, if the seal is anchored.
func (s ExplicitSeal) Outpoint() (Outpoint, bool) {
	if s.Txid == nil {
		return Outpoint{}, false
	}
	return Outpoint{Txid: *s.Txid, Vout: s.Vout}, true
}

// Anchor binds the seal to txid, failing with ErrAlreadyAnchored if it is
// already bound to another transaction.
func (s ExplicitSeal) Anchor(txid chainhash.Hash) (ExplicitSeal, error) {
	if s.Txid != nil {
		if s.Txid.IsEqual(&txid) {
			return s, nil
		}
		return s, fmt.Errorf("%w: %s is bound to %s, not %s", ErrAlreadyAnchored, s, s.Txid, &txid)
	}
	s.Txid = &txid
	return s, nil
}

// ParseExplicitSeal decodes "<method>:<txid-or-~>:<vout>".
func ParseExplicitSeal(s string) (ExplicitSeal, error) {
	method, txid, vout, err := parseMethodTxidVout(s)
	if err != nil {
		return ExplicitSeal{}, err
	}
	return ExplicitSeal{Method: method, Txid: txid, Vout: vout}, nil
}

// MarshalText implements encoding.TextMarshaler.
func (s ExplicitSeal) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *ExplicitSeal) UnmarshalText(text []byte) error {
	parsed, err := ParseExplicitSeal(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}
