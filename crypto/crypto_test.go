package crypto

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignVerify(t *testing.T) {
	priv, pub, err := GenerateKeyPair()
	require.NoError(t, err)
	assert.Equal(t, pub, priv.Public())

	sig := Sign(priv, []byte("msg"))
	require.NoError(t, Verify(pub, []byte("msg"), sig))
	assert.ErrorIs(t, Verify(pub, []byte("other"), sig), ErrBadSignature)
	assert.Error(t, Verify(pub, []byte("msg"), "zz"))
}

func TestKeyHex(t *testing.T) {
	priv, pub, err := GenerateKeyPair()
	require.NoError(t, err)

	gotPub, err := PubKeyFromHex(pub.Hex())
	require.NoError(t, err)
	assert.Equal(t, pub, gotPub)
	gotPriv, err := PrivKeyFromHex(priv.Hex())
	require.NoError(t, err)
	assert.Equal(t, priv, gotPriv)

	assert.True(t, IsPubKeyHex(pub.Hex()))
	assert.False(t, IsPubKeyHex(priv.Hex()), "wrong length")
	assert.False(t, IsPubKeyHex("alice"))
	assert.Len(t, Hash([]byte("x")), 64)
}
