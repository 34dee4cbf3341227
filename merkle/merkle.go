package merkle

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"

	merkletools "github.com/chainpoint/merkletools-go"
)

// ComputeTransferRootHash recomputes the commitment hash for an ordered set
// of transfer ids. Each id is lower-cased and hashed with sha-256 to form a
// leaf; adjacent nodes are then paired and sha-256 hashed level by level.
// A lone odd node on a level is carried up to the next level unhashed. This
// pairing and odd-node rule must match the source chain's construction, so
// the output can be compared byte-for-byte against the on-chain root.
func ComputeTransferRootHash(transferIds []string) (string, error) {
	if len(transferIds) == 0 {
		return "", errors.New("cannot compute transfer root of empty id set")
	}
	leaves := make([][]byte, 0, len(transferIds))
	for _, id := range transferIds {
		leaf := sha256.Sum256([]byte(strings.ToLower(strings.TrimSpace(id))))
		leaves = append(leaves, leaf[:])
	}
	var tree merkletools.MerkleTree
	tree.AddLeaves(leaves)
	tree.MakeTree()
	return hex.EncodeToString(tree.GetMerkleRoot()), nil
}

// VerifyTransferRootHash recomputes the root over transferIds and compares
// it byte-for-byte against the expected hash. A hex-decoding failure of the
// expected value counts as a mismatch, not an error.
func VerifyTransferRootHash(expectedHash string, transferIds []string) (bool, error) {
	computed, err := ComputeTransferRootHash(transferIds)
	if err != nil {
		return false, err
	}
	computedBytes, err := hex.DecodeString(computed)
	if err != nil {
		return false, err
	}
	expectedBytes, err := hex.DecodeString(strings.TrimPrefix(strings.ToLower(expectedHash), "0x"))
	if err != nil {
		return false, nil
	}
	return bytes.Equal(computedBytes, expectedBytes), nil
}
