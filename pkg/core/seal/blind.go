package seal

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/bsv-blockchain/go-sdk/chainhash"
)

// BlindSeal is the long-term stash record of a seal: full outpoint plus the
// blinding factor needed to reproduce its commitment. A nil Txid stands for
// the witness transaction that will carry the seal.
type BlindSeal struct {
	Method   Method
	Txid     *chainhash.Hash
	Vout     uint32
	Blinding uint64
}

// NewBlindSeal returns a BlindSeal anchored to txid:vout.
func NewBlindSeal(method Method, txid chainhash.Hash, vout uint32, blinding uint64) BlindSeal {
	return BlindSeal{Method: method, Txid: &txid, Vout: vout, Blinding: blinding}
}

func (BlindSeal) Kind() Kind { return KindBlind }
func (s BlindSeal) HasTxid() bool { return s.Txid != nil }
func (BlindSeal) HasBlinding() bool { return true }
func (BlindSeal) IsConcealed() bool { return false }
func (BlindSeal) sealVariant() {}

func (s BlindSeal) String() string {
	return s.Method.String() + ":" + formatOptionalTxid(s.Txid) + ":" +
		strconv.FormatUint(uint64(s.Vout), 10) + "#" + strconv.FormatUint(s.Blinding, 10)
}

// Outpoint returns the anchored outpoint, if the seal is anchored.
func (s BlindSeal) Outpoint() (Outpoint, bool) {
	if s.Txid == nil {
		return Outpoint{}, false
	}
	return Outpoint{Txid: *s.Txid, Vout: s.Vout}, true
}

// Anchor binds the seal to txid. Anchoring again to the same txid is a no-op;
// anchoring to a different one fails with ErrAlreadyAnchored.
func (s BlindSeal) Anchor(txid chainhash.Hash) (BlindSeal, error) {
	if s.Txid != nil {
		if s.Txid.IsEqual(&txid) {
			return s, nil
		}
		return s, fmt.Errorf("%w: %s is bound to %s, not %s", ErrAlreadyAnchored, s, s.Txid, &txid)
	}
	s.Txid = &txid
	return s, nil
}

// Conceal returns the SecretSeal committing to this seal.
func (s BlindSeal) Conceal() SecretSeal {
	return SecretSeal{commitment: Commit(s.Method, s.Txid, s.Vout, s.Blinding)}
}

// Explicit drops the blinding factor.
func (s BlindSeal) Explicit() ExplicitSeal {
	return ExplicitSeal{Method: s.Method, Txid: s.Txid, Vout: s.Vout}
}

// Equal reports whether both seals carry the same data.
func (s BlindSeal) Equal(other BlindSeal) bool {
	return s.Method == other.Method && sameTxid(s.Txid, other.Txid) &&
		s.Vout == other.Vout && s.Blinding == other.Blinding
}

// ParseBlindSeal decodes "<method>:<txid-or-~>:<vout>#<blinding>".
func ParseBlindSeal(s string) (BlindSeal, error) {
	body, blindingPart, ok := strings.Cut(s, "#")
	if !ok || strings.Contains(blindingPart, "#") {
		return BlindSeal{}, fmt.Errorf("%w: blind seal %q must carry exactly one #<blinding>", ErrMalformedSeal, s)
	}
	method, txid, vout, err := parseMethodTxidVout(body)
	if err != nil {
		return BlindSeal{}, err
	}
	blinding, err := parseBlinding(blindingPart)
	if err != nil {
		return BlindSeal{}, err
	}
	return BlindSeal{Method: method, Txid: txid, Vout: vout, Blinding: blinding}, nil
}

// MarshalText implements encoding.TextMarshaler.
func (s BlindSeal) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *BlindSeal) UnmarshalText(text []byte) error {
	parsed, err := ParseBlindSeal(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

func parseMethodTxidVout(s string) (Method, *chainhash.Hash, uint32, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 3 {
		return 0, nil, 0, fmt.Errorf("%w: %q must be <method>:<txid-or-~>:<vout>", ErrMalformedSeal, s)
	}
	method, err := ParseMethod(parts[0])
	if err != nil {
		return 0, nil, 0, err
	}
	txid, err := parseOptionalTxid(parts[1])
	if err != nil {
		return 0, nil, 0, err
	}
	vout, err := parseVout(parts[2])
	if err != nil {
		return 0, nil, 0, err
	}
	return method, txid, vout, nil
}
