package signer

import (
	"testing"

	"github.com/btcsuite/btcd/btcec/v2"
	bip39 "github.com/tyler-smith/go-bip39"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeriveMasterBlindingKey(t *testing.T) {
	seed := bip39.NewSeed(testMnemonic, "")

	key := deriveMasterBlindingKey(seed)
	require.Len(t, key, blindingKeyLen)

	again := deriveMasterBlindingKey(seed)
	assert.Equal(t, key, again, "derivation must be deterministic")

	otherSeed := bip39.NewSeed(testMnemonic, "passphrase")
	other := deriveMasterBlindingKey(otherSeed)
	assert.NotEqual(t, key, other, "distinct seeds must yield distinct keys")
}

func TestBlindingKeyFromScript(t *testing.T) {
	master := bytes32(0x5a)
	scriptA := []byte{0x00, 0x14, 0xaa}
	scriptB := []byte{0x00, 0x14, 0xbb}

	keyA := blindingKeyFromScript(master, scriptA)
	keyA2 := blindingKeyFromScript(master, scriptA)
	keyB := blindingKeyFromScript(master, scriptB)

	require.Len(t, keyA, blindingKeyLen)
	assert.Equal(t, keyA, keyA2)
	assert.NotEqual(t, keyA, keyB)

	otherMaster := blindingKeyFromScript(bytes32(0xa5), scriptA)
	assert.NotEqual(t, keyA, otherMaster)
}

// 盲化公钥必须是对应私钥的压缩公钥
func TestBlindingState_ScriptPubkeyMatchesKey(t *testing.T) {
	var state blindingState
	state.setRaw(bytes32(0x33))

	script := []byte{0x51}
	priv, err := state.scriptKey(script)
	require.NoError(t, err)
	pub, err := state.scriptPubkey(script)
	require.NoError(t, err)

	key, _ := btcec.PrivKeyFromBytes(priv)
	assert.Equal(t, key.PubKey().SerializeCompressed(), pub)
}

func TestBlindingState_Lifecycle(t *testing.T) {
	var state blindingState

	assert.False(t, state.available())
	_, err := state.get()
	assert.ErrorIs(t, err, ErrUnavailable)
	_, err = state.scriptKey([]byte{0x51})
	assert.ErrorIs(t, err, ErrNotSupported)

	state.setRaw(bytes32(0x01))
	assert.True(t, state.available())

	got, err := state.get()
	require.NoError(t, err)
	assert.Equal(t, bytes32(0x01), got)

	state.clear()
	assert.False(t, state.available())
}
