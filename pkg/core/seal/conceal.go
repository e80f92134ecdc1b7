package seal

import (
	"encoding/base64"
	"encoding/binary"
	"fmt"

	"github.com/bsv-blockchain/go-sdk/chainhash"
	"github.com/zeebo/blake3"
)

// CommitmentVersion is the version byte mixed into every commitment preimage.
// Changing the preimage layout requires bumping it.
const CommitmentVersion byte = 1

// CommitmentSize is the size of a seal commitment in bytes.
const CommitmentSize = 32

// Commitment is the BLAKE3 keyed digest standing in for a concealed seal.
type Commitment [CommitmentSize]byte

// domainKey is a 32-byte BLAKE3 key. The bytes are the ASCII domain name,
// zero-padded, so that commitments and checksums never collide.
type domainKey [32]byte

var (
	concealDomainKey = domainKey{
		's', 'e', 'a', 'l', 's', '.', 'c', 'o', 'n', 'c', 'e', 'a', 'l', '.', 'v', '1',
		0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
	}

	checksumDomainKey = domainKey{
		's', 'e', 'a', 'l', 's', '.', 'c', 'h', 'e', 'c', 'k', 's', 'u', 'm', '.', 'v',
		'1', 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
	}
)

// preimage layout:
//
//	version(1) | method(1) | has_txid(1) | txid(32, zero when absent) | vout(4 LE) | blinding(8 LE)
const preimageSize = 1 + 1 + 1 + chainhash.HashSize + 4 + 8

// Commit computes the commitment to a seal's method, anchor and blinding.
// It is deterministic: identical inputs always yield the same commitment.
func Commit(method Method, txid *chainhash.Hash, vout uint32, blinding uint64) Commitment {
	var buf [preimageSize]byte
	buf[0] = CommitmentVersion
	buf[1] = byte(method)
	if txid != nil {
		buf[2] = 1
		copy(buf[3:3+chainhash.HashSize], txid[:])
	}
	offset := 3 + chainhash.HashSize
	binary.LittleEndian.PutUint32(buf[offset:], vout)
	binary.LittleEndian.PutUint64(buf[offset+4:], blinding)
	return Commitment(keyedHash(concealDomainKey, buf[:]))
}

// Verify recomputes the commitment of material and compares it with c.
func Verify(c Commitment, material BlindSeal) error {
	if Commit(material.Method, material.Txid, material.Vout, material.Blinding) != c {
		return fmt.Errorf("%w: %s does not open commitment %s", ErrRevealMismatch, material, c)
	}
	return nil
}

// String returns the unpadded base64url form of the commitment.
func (c Commitment) String() string {
	return base64.RawURLEncoding.EncodeToString(c[:])
}

// ParseCommitment decodes the unpadded base64url form of a commitment. Only
// the canonical encoding is accepted: the unused low bits of the last
// character must be zero.
func ParseCommitment(s string) (Commitment, error) {
	var c Commitment
	if base64.RawURLEncoding.EncodedLen(CommitmentSize) != len(s) {
		return c, fmt.Errorf("%w: commitment %q has wrong length", ErrMalformedSeal, s)
	}
	raw, err := base64.RawURLEncoding.Strict().DecodeString(s)
	if err != nil {
		return c, fmt.Errorf("%w: commitment %q: %v", ErrMalformedSeal, s, err)
	}
	copy(c[:], raw)
	return c, nil
}

// MarshalText implements encoding.TextMarshaler.
func (c Commitment) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (c *Commitment) UnmarshalText(text []byte) error {
	parsed, err := ParseCommitment(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

const checksumSize = 4

// checksum is the first four bytes of the checksum-domain hash of c.
func checksum(c Commitment) [checksumSize]byte {
	digest := keyedHash(checksumDomainKey, c[:])
	var sum [checksumSize]byte
	copy(sum[:], digest[:checksumSize])
	return sum
}

func keyedHash(key domainKey, data []byte) [32]byte {
	// NewKeyed only fails on a key that is not 32 bytes long.
	hasher, err := blake3.NewKeyed(key[:])
	if err != nil {
		panic("seal: BLAKE3 keyed hash initialization failed: " + err.Error())
	}
	_, _ = hasher.Write(data)
	var digest [32]byte
	copy(digest[:], hasher.Sum(nil))
	return digest
}
