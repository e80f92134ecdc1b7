// Package seal defines the single-use seal variants, their textual grammars
// and the commitment scheme used to conceal them.
//
// A seal points at a transaction output. Spending that output closes the seal,
// which happens at most once. The six variants differ only in how much of the
// outpoint and blinding they carry:
//
//	Outpoint      <txid>:<vout>
//	BlindSeal     <method>:<txid-or-~>:<vout>#<blinding>
//	SecretSeal    txob:<id>#<checksum>
//	ExplicitSeal  <method>:<txid-or-~>:<vout>
//	VoutSeal      <method>:~:<vout>#<blinding>
//	TerminalSeal  <SecretSeal> or <VoutSeal>
package seal

import (
	"fmt"
	"strconv"

	"github.com/bsv-blockchain/go-sdk/chainhash"
)

// Kind enumerates the seal variants.
type Kind uint8

const (
	KindOutpoint Kind = iota + 1
	KindBlind
	KindSecret
	KindExplicit
	KindVout
	KindTerminal
)

func (k Kind) String() string {
	switch k {
	case KindOutpoint:
		return "outpoint"
	case KindBlind:
		return "blind"
	case KindSecret:
		return "secret"
	case KindExplicit:
		return "explicit"
	case KindVout:
		return "vout"
	case KindTerminal:
		return "terminal"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// ParseKind is the inverse of Kind.String.
func ParseKind(s string) (Kind, error) {
	for k := KindOutpoint; k <= KindTerminal; k++ {
		if k.String() == s {
			return k, nil
		}
	}
	return 0, fmt.Errorf("%w: unknown seal kind %q", ErrMalformedSeal, s)
}

// MarshalText implements encoding.TextMarshaler.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *Kind) UnmarshalText(text []byte) error {
	parsed, err := ParseKind(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// Seal is the closed sum over the six seal variants. Only types in this
// package implement it.
type Seal interface {
	Kind() Kind
	HasTxid() bool
	HasBlinding() bool
	IsConcealed() bool
	String() string

	sealVariant()
}

// PrivacyClass describes how much of a seal is visible.
type PrivacyClass uint8

const (
	// ClassPublic seals expose their outpoint and carry no blinding.
	ClassPublic PrivacyClass = iota
	// ClassBlinded seals expose their outpoint and carry a blinding factor.
	ClassBlinded
	// ClassEndpoint seals carry a blinding factor but are not anchored to a transaction yet.
	ClassEndpoint
	// ClassConcealed seals expose only their commitment.
	ClassConcealed
)

func (c PrivacyClass) String() string {
	switch c {
	case ClassPublic:
		return "public"
	case ClassBlinded:
		return "blinded"
	case ClassEndpoint:
		return "endpoint"
	case ClassConcealed:
		return "concealed"
	default:
		return fmt.Sprintf("class(%d)", uint8(c))
	}
}

// PrivacyClassOf derives the privacy class from the capabilities of s.
func PrivacyClassOf(s Seal) PrivacyClass {
	switch {
	case s.IsConcealed():
		return ClassConcealed
	case s.HasBlinding() && s.HasTxid():
		return ClassBlinded
	case s.HasBlinding():
		return ClassEndpoint
	default:
		return ClassPublic
	}
}

// Parse decodes s using the grammar of the given variant.
func Parse(kind Kind, s string) (Seal, error) {
	switch kind {
	case KindOutpoint:
		return ParseOutpoint(s)
	case KindBlind:
		return ParseBlindSeal(s)
	case KindSecret:
		return ParseSecretSeal(s)
	case KindExplicit:
		return ParseExplicitSeal(s)
	case KindVout:
		return ParseVoutSeal(s)
	case KindTerminal:
		return ParseTerminalSeal(s)
	default:
		return nil, fmt.Errorf("%w: unknown seal kind %d", ErrMalformedSeal, uint8(kind))
	}
}

// Conceal returns the concealed form of s. Outpoint and ExplicitSeal carry no
// blinding and cannot be concealed.
func Conceal(s Seal) (SecretSeal, error) {
	switch v := s.(type) {
	case BlindSeal:
		return v.Conceal(), nil
	case SecretSeal:
		return v, nil
	case VoutSeal:
		return v.Conceal(), nil
	case TerminalSeal:
		return v.Conceal(), nil
	case Outpoint, ExplicitSeal:
		return SecretSeal{}, fmt.Errorf("%w: %s seal has no blinding to conceal with", ErrSealNotRevealed, s.Kind())
	default:
		return SecretSeal{}, fmt.Errorf("%w: unsupported seal type %T", ErrMalformedSeal, s)
	}
}

// OutpointOf returns the outpoint a seal is anchored to. It fails with
// ErrSealNotRevealed for concealed seals and for seals not anchored yet.
func OutpointOf(s Seal) (Outpoint, error) {
	var (
		op Outpoint
		ok bool
	)
	switch v := s.(type) {
	case Outpoint:
		op, ok = v, true
	case BlindSeal:
		op, ok = v.Outpoint()
	case ExplicitSeal:
		op, ok = v.Outpoint()
	case SecretSeal, VoutSeal, TerminalSeal:
	default:
		return Outpoint{}, fmt.Errorf("%w: unsupported seal type %T", ErrMalformedSeal, s)
	}
	if !ok {
		return Outpoint{}, fmt.Errorf("%w: %s seal %s has no known outpoint", ErrSealNotRevealed, s.Kind(), s)
	}
	return op, nil
}

const (
	noTxid    = "~"
	txidChars = chainhash.HashSize * 2
)

func formatOptionalTxid(txid *chainhash.Hash) string {
	if txid == nil {
		return noTxid
	}
	return txid.String()
}

func parseTxid(s string) (chainhash.Hash, error) {
	if len(s) != txidChars {
		return chainhash.Hash{}, fmt.Errorf("%w: txid %q must be %d hex characters", ErrMalformedSeal, s, txidChars)
	}
	hash, err := chainhash.NewHashFromHex(s)
	if err != nil {
		return chainhash.Hash{}, fmt.Errorf("%w: txid %q: %v", ErrMalformedSeal, s, err)
	}
	return *hash, nil
}

func parseOptionalTxid(s string) (*chainhash.Hash, error) {
	if s == noTxid {
		return nil, nil
	}
	hash, err := parseTxid(s)
	if err != nil {
		return nil, err
	}
	return &hash, nil
}

func parseVout(s string) (uint32, error) {
	if s == "" {
		return 0, fmt.Errorf("%w: empty vout", ErrMalformedSeal)
	}
	v, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("%w: vout %q: %v", ErrMalformedSeal, s, err)
	}
	return uint32(v), nil
}

func parseBlinding(s string) (uint64, error) {
	if s == "" {
		return 0, fmt.Errorf("%w: empty blinding", ErrMalformedSeal)
	}
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: blinding %q: %v", ErrMalformedSeal, s, err)
	}
	return v, nil
}

func sameTxid(a, b *chainhash.Hash) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.IsEqual(b)
}
