package types

import (
	"testing"

	"github.com/blocto/solana-go-sdk/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPubkeyBase58RoundTrip(t *testing.T) {
	const tokenProgram = "TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA"

	p, err := TryPubkeyFromBase58(tokenProgram)
	require.NoError(t, err)
	assert.Equal(t, tokenProgram, p.String())
	assert.Equal(t, common.TokenProgramID, p.ToCommon())
	assert.True(t, PubkeyFromCommon(common.TokenProgramID).Equals(p))
}

func TestPubkeyInvalidInput(t *testing.T) {
	_, err := TryPubkeyFromBase58("0OIl")
	assert.Error(t, err)

	// 合法 base58，但长度不是 32
	_, err = TryPubkeyFromBase58("3yZe7d")
	assert.Error(t, err)

	assert.Panics(t, func() { PubkeyFromBase58("not-a-key") })
}

func TestPubkeyFromBytes(t *testing.T) {
	raw := make([]byte, PubkeyLen)
	raw[0], raw[31] = 1, 2

	p, err := PubkeyFromBytes(raw)
	require.NoError(t, err)
	assert.Equal(t, byte(1), p[0])
	assert.Equal(t, byte(2), p[31])
	assert.False(t, p.IsZero())

	_, err = PubkeyFromBytes(raw[:31])
	assert.Error(t, err)

	assert.True(t, Pubkey{}.IsZero())
}
