package usecases

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// SubscriptionHash mirrors the router's authoritative encoding for
// deriving a subscription's identifying hash from the fields that make
// one user's instantiation of a product unique: keccak256(productHash ||
// user || start), using solidity's abi.encodePacked layout (bytes32,
// 20-byte address, 32-byte big-endian uint256 — no left-padding of the
// address, unlike standard ABI encoding). Offered by the Query
// Interface's /subscriptions/hash helper so callers can compute the same
// hash the router emits in SubscriptionStarted without re-deriving it ad
// hoc (spec.md §9).
func SubscriptionHash(productHash string, user string, start int64) string {
	var packed []byte
	packed = append(packed, common.HexToHash(productHash).Bytes()...)
	packed = append(packed, common.HexToAddress(user).Bytes()...)
	packed = append(packed, common.LeftPadBytes(big.NewInt(start).Bytes(), 32)...)
	return crypto.Keccak256Hash(packed).Hex()
}
