package seal

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"
)

// NewBlinding draws a fresh blinding factor from the system CSPRNG. Zero is
// never returned.
func NewBlinding() (uint64, error) {
	var buf [8]byte
	for {
		if _, err := rand.Read(buf[:]); err != nil {
			return 0, fmt.Errorf("reading blinding entropy: %w", err)
		}
		if v := binary.LittleEndian.Uint64(buf[:]); v != 0 {
			return v, nil
		}
	}
}

// NewEndpoint returns a VoutSeal with a fresh blinding factor.
func NewEndpoint(method Method, vout uint32) (VoutSeal, error) {
	blinding, err := NewBlinding()
	if err != nil {
		return VoutSeal{}, err
	}
	return NewVoutSeal(method, vout, blinding), nil
}
