package seal

import (
	"encoding/hex"
	"fmt"
	"strings"
)

const secretPrefix = "txob:"

// SecretSeal is the concealed form of a seal. Only the commitment travels;
// txid, vout and blinding cannot be recovered from it.
type SecretSeal struct {
	commitment Commitment
}

// NewSecretSeal wraps an existing commitment.
func NewSecretSeal(c Commitment) SecretSeal {
	return SecretSeal{commitment: c}
}

func (SecretSeal) Kind() Kind { return KindSecret }
func (SecretSeal) HasTxid() bool { return false }
func (SecretSeal) HasBlinding() bool { return false }
func (SecretSeal) IsConcealed() bool { return true }
func (SecretSeal) sealVariant() {}

// Commitment returns the commitment hash standing in for the seal.
func (s SecretSeal) Commitment() Commitment {
	return s.commitment
}

func (s SecretSeal) String() string {
	sum := checksum(s.commitment)
	return secretPrefix + s.commitment.String() + "#" + hex.EncodeToString(sum[:])
}

// Reveal checks that material opens the commitment and returns it.
func (s SecretSeal) Reveal(material BlindSeal) (BlindSeal, error) {
	if err := Verify(s.commitment, material); err != nil {
		return BlindSeal{}, err
	}
	return material, nil
}

// ParseSecretSeal decodes "txob:<id>#<checksum>". A well-formed string whose
// checksum does not match its id fails with ErrChecksumMismatch.
func ParseSecretSeal(s string) (SecretSeal, error) {
	rest, ok := strings.CutPrefix(s, secretPrefix)
	if !ok {
		return SecretSeal{}, fmt.Errorf("%w: secret seal %q must start with %q", ErrMalformedSeal, s, secretPrefix)
	}
	id, sumPart, ok := strings.Cut(rest, "#")
	if !ok {
		return SecretSeal{}, fmt.Errorf("%w: secret seal %q has no checksum", ErrMalformedSeal, s)
	}
	commitment, err := ParseCommitment(id)
	if err != nil {
		return SecretSeal{}, err
	}
	if len(sumPart) != hex.EncodedLen(checksumSize) || strings.ToLower(sumPart) != sumPart {
		return SecretSeal{}, fmt.Errorf("%w: secret seal checksum %q must be %d lowercase hex characters", ErrMalformedSeal, sumPart, hex.EncodedLen(checksumSize))
	}
	got, err := hex.DecodeString(sumPart)
	if err != nil {
		return SecretSeal{}, fmt.Errorf("%w: secret seal checksum %q: %v", ErrMalformedSeal, sumPart, err)
	}
	want := checksum(commitment)
	if string(got) != string(want[:]) {
		return SecretSeal{}, fmt.Errorf("%w: secret seal %q", ErrChecksumMismatch, s)
	}
	return SecretSeal{commitment: commitment}, nil
}

// MarshalText implements encoding.TextMarshaler.
func (s SecretSeal) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *SecretSeal) UnmarshalText(text []byte) error {
	parsed, err := ParseSecretSeal(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}
