package consignment

import (
	"encoding/base64"
	"fmt"
	"slices"
	"strings"

	"github.com/4chain-ag/go-seal-services/pkg/core/seal"
	"github.com/4chain-ag/go-seal-services/pkg/internal/codec"
	"github.com/bsv-blockchain/go-sdk/chainhash"
	"github.com/zeebo/blake3"
)

// IDSize is the size of a consignment id in bytes.
const IDSize = 32

const idPrefix = "consign:"

// idDomainKey is the zero-padded ASCII domain of consignment ids.
var idDomainKey = [32]byte{
	's', 'e', 'a', 'l', 's', '.', 'c', 'o', 'n', 's', 'i', 'g', 'n', '.', 'v', '1',
	0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
}

// ID identifies a consignment by what it transfers: its type, the witnesses
// of its history and its terminal seals.
type ID [IDSize]byte

// idPreimage is hashed in its deterministic CBOR encoding.
type idPreimage struct {
	Transfer  bool     `cbor:"1,keyasint"`
	Witnesses [][]byte `cbor:"2,keyasint"`
	Terminals []string `cbor:"3,keyasint"`
}

// ComputeID derives the id of c from its content. Terminal seals enter in
// concealed form when they have one, sorted, so the id neither reveals them
// nor depends on their order.
func (c *Consignment) ComputeID() (ID, error) {
	terminals, err := c.TerminalSeals()
	if err != nil {
		return ID{}, err
	}
	pre := idPreimage{Transfer: c.Transfer, Terminals: slices.Sorted(slices.Values(terminals))}
	for _, w := range c.Witnesses {
		txid := chainhash.DoubleHashH(w.RawTx)
		pre.Witnesses = append(pre.Witnesses, txid[:])
	}

	data, err := codec.Marshal(pre)
	if err != nil {
		return ID{}, fmt.Errorf("encoding consignment id preimage: %w", err)
	}
	// NewKeyed only fails on a key that is not 32 bytes long.
	hasher, err := blake3.NewKeyed(idDomainKey[:])
	if err != nil {
		panic("consignment: BLAKE3 keyed hash initialization failed: " + err.Error())
	}
	_, _ = hasher.Write(data)
	var id ID
	copy(id[:], hasher.Sum(nil))
	return id, nil
}

// TerminalSeals returns the terminal seals of c in Terminals order, each in
// concealed form when it has one and in its own form otherwise.
func (c *Consignment) TerminalSeals() ([]string, error) {
	terminals := make([]string, 0, len(c.Terminals))
	for _, idx := range c.Terminals {
		if int(idx) >= len(c.Seals) {
			return nil, fmt.Errorf("%w: terminal refers to unknown seal %d", ErrMalformedConsignment, idx)
		}
		s, err := c.Seals[idx].Seal.Open()
		if err != nil {
			return nil, fmt.Errorf("%w: terminal %d: %v", ErrMalformedConsignment, idx, err)
		}
		if secret, err := seal.Conceal(s); err == nil {
			terminals = append(terminals, secret.String())
			continue
		}
		terminals = append(terminals, s.String())
	}
	return terminals, nil
}

// String returns "consign:" followed by the unpadded base64url id.
func (id ID) String() string {
	return idPrefix + base64.RawURLEncoding.EncodeToString(id[:])
}

// ParseID decodes the form returned by String.
func ParseID(s string) (ID, error) {
	var id ID
	rest, ok := strings.CutPrefix(s, idPrefix)
	if !ok || len(rest) != base64.RawURLEncoding.EncodedLen(IDSize) {
		return id, fmt.Errorf("%w: consignment id %q", ErrMalformedConsignment, s)
	}
	raw, err := base64.RawURLEncoding.Strict().DecodeString(rest)
	if err != nil {
		return id, fmt.Errorf("%w: consignment id %q: %v", ErrMalformedConsignment, s, err)
	}
	copy(id[:], raw)
	return id, nil
}

// MarshalText implements encoding.TextMarshaler.
func (id ID) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (id *ID) UnmarshalText(text []byte) error {
	parsed, err := ParseID(string(text))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}
