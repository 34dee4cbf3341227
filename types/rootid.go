package types

import (
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// GetTransferRootId derives the content-addressed id for a transfer root:
// keccak256(abi.encode(rootHash, totalAmount)). This must match the hub
// bridge contract's derivation exactly, since the id is used for on-chain
// bond lookups.
func GetTransferRootId(rootHash string, totalAmount *big.Int) string {
	hashBytes := common.HexToHash(rootHash).Bytes()
	amountBytes := common.LeftPadBytes(totalAmount.Bytes(), 32)
	id := crypto.Keccak256Hash(append(hashBytes, amountBytes...))
	return id.Hex()
}

// SameRootId compares two root ids, tolerating 0x prefix and case drift
func SameRootId(a string, b string) bool {
	trim := func(s string) string {
		return strings.TrimPrefix(strings.ToLower(s), "0x")
	}
	return trim(a) == trim(b)
}
