package merkle

import (
	"crypto/sha256"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
)

func sha(data []byte) []byte {
	sum := sha256.Sum256(data)
	return sum[:]
}

func TestComputeTransferRootHashDeterminism(t *testing.T) {
	ids := []string{"0xaa11", "0xbb22", "0xcc33"}
	first, err := ComputeTransferRootHash(ids)
	assert.Nil(t, err)
	for i := 0; i < 10; i++ {
		again, err := ComputeTransferRootHash(ids)
		assert.Nil(t, err)
		assert.Equal(t, first, again, "same ordered input must always yield the same root")
	}
}

func TestComputeTransferRootHashOrderSensitive(t *testing.T) {
	forward, _ := ComputeTransferRootHash([]string{"0xaa11", "0xbb22"})
	reversed, _ := ComputeTransferRootHash([]string{"0xbb22", "0xaa11"})
	assert.NotEqual(t, forward, reversed, "leaf order is part of the commitment")
}

func TestComputeTransferRootHashCaseNormalized(t *testing.T) {
	lower, _ := ComputeTransferRootHash([]string{"0xabcdef"})
	upper, _ := ComputeTransferRootHash([]string{"0xABCDEF"})
	assert.Equal(t, lower, upper, "transfer ids are case-normalized before hashing")
}

func TestComputeTransferRootHashPairingRule(t *testing.T) {
	// two leaves: root = sha256(leaf(a) || leaf(b))
	leafA := sha([]byte("0xaa11"))
	leafB := sha([]byte("0xbb22"))
	expected := hex.EncodeToString(sha(append(append([]byte{}, leafA...), leafB...)))
	computed, err := ComputeTransferRootHash([]string{"0xaa11", "0xbb22"})
	assert.Nil(t, err)
	assert.Equal(t, expected, computed)
}

func TestComputeTransferRootHashOddNodeCarried(t *testing.T) {
	// three leaves: the lone third leaf is carried up unhashed, so
	// root = sha256(sha256(leaf(a) || leaf(b)) || leaf(c))
	leafA := sha([]byte("0xaa11"))
	leafB := sha([]byte("0xbb22"))
	leafC := sha([]byte("0xcc33"))
	level1 := sha(append(append([]byte{}, leafA...), leafB...))
	expected := hex.EncodeToString(sha(append(append([]byte{}, level1...), leafC...)))
	computed, err := ComputeTransferRootHash([]string{"0xaa11", "0xbb22", "0xcc33"})
	assert.Nil(t, err)
	assert.Equal(t, expected, computed)
}

func TestComputeTransferRootHashSingleLeaf(t *testing.T) {
	expected := hex.EncodeToString(sha([]byte("0xaa11")))
	computed, err := ComputeTransferRootHash([]string{"0xaa11"})
	assert.Nil(t, err)
	assert.Equal(t, expected, computed)
}

func TestComputeTransferRootHashEmpty(t *testing.T) {
	_, err := ComputeTransferRootHash([]string{})
	assert.NotNil(t, err, "empty id set has no commitment")
}

func TestVerifyTransferRootHash(t *testing.T) {
	ids := []string{"0xaa11", "0xbb22", "0xcc33"}
	root, err := ComputeTransferRootHash(ids)
	assert.Nil(t, err)

	matches, err := VerifyTransferRootHash(root, ids)
	assert.Nil(t, err)
	assert.True(t, matches)

	matches, err = VerifyTransferRootHash("0x"+root, ids)
	assert.Nil(t, err)
	assert.True(t, matches, "0x prefix on the stored hash must not matter")

	matches, err = VerifyTransferRootHash(root, []string{"0xaa11", "0xbb22", "0xdd44"})
	assert.Nil(t, err)
	assert.False(t, matches, "different membership must not verify")

	matches, err = VerifyTransferRootHash("not-hex", ids)
	assert.Nil(t, err)
	assert.False(t, matches, "an undecodable stored hash is a mismatch, not an error")
}
