package codec_test

import (
	"testing"

	"github.com/4chain-ag/go-seal-services/pkg/core/seal"
	"github.com/4chain-ag/go-seal-services/pkg/internal/codec"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Envelope   seal.Envelope   `cbor:"1,keyasint"`
	Commitment seal.Commitment `cbor:"2,keyasint"`
	Count      int             `cbor:"3,keyasint"`
}

func TestMarshal_ShouldBeDeterministicAndRoundTrip(t *testing.T) {
	// given:
	endpoint := seal.NewVoutSeal(seal.MethodOpret, 1, 999)
	value := sample{
		Envelope:   seal.Wrap(endpoint),
		Commitment: endpoint.Conceal().Commitment(),
		Count:      42,
	}

	// when:
	first, err := codec.Marshal(value)
	require.NoError(t, err)
	second, err := codec.Marshal(value)
	require.NoError(t, err)

	var decoded sample
	require.NoError(t, codec.Unmarshal(first, &decoded))

	// then:
	require.Equal(t, first, second)
	require.Equal(t, value, decoded)
}
