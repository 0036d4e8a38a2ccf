package types

import (
	"bytes"
	"sort"

	"github.com/cometbft/cometbft/crypto/tmhash"
	sdk "github.com/cosmos/cosmos-sdk/types"
)

// Allowlist membership is committed as a Merkle root over hashed member
// addresses. Leaves are tmhash(address bytes). Sibling digests are combined
// in ascending byte order (sorted pairs), so proofs carry no position bits
// and any proof generator must follow the same rule. AllowlistTree below is
// the canonical generator.

// AllowlistLeaf returns the leaf commitment for a member address.
func AllowlistLeaf(member sdk.AccAddress) []byte {
	return tmhash.Sum(member.Bytes())
}

// VerifyAllowlistProof folds the proof into the leaf and compares the result
// against the committed root. An empty proof verifies only a single-member
// tree where the leaf is the root itself.
func VerifyAllowlistProof(root, leaf []byte, proof [][]byte) bool {
	if len(root) == 0 {
		return false
	}
	computed := leaf
	for _, sibling := range proof {
		computed = hashPair(computed, sibling)
	}
	return bytes.Equal(computed, root)
}

func hashPair(a, b []byte) []byte {
	if bytes.Compare(a, b) > 0 {
		a, b = b, a
	}
	buf := make([]byte, 0, len(a)+len(b))
	buf = append(buf, a...)
	buf = append(buf, b...)
	return tmhash.Sum(buf)
}

// AllowlistTree builds the membership tree for a set of addresses and hands
// out the root plus per-member proofs. Leaves are sorted and deduplicated so
// the same member set always commits to the same root. An odd node on a
// level is promoted unchanged to the next level.
type AllowlistTree struct {
	layers [][][]byte
}

// NewAllowlistTree hashes and orders the member set and builds all tree
// levels up to the root.
func NewAllowlistTree(members []sdk.AccAddress) *AllowlistTree {
	leaves := make([][]byte, 0, len(members))
	for _, m := range members {
		leaves = append(leaves, AllowlistLeaf(m))
	}
	sort.Slice(leaves, func(i, j int) bool {
		return bytes.Compare(leaves[i], leaves[j]) < 0
	})
	deduped := leaves[:0]
	for i, leaf := range leaves {
		if i == 0 || !bytes.Equal(leaf, leaves[i-1]) {
			deduped = append(deduped, leaf)
		}
	}
	layers := [][][]byte{deduped}
	for len(layers[len(layers)-1]) > 1 {
		prev := layers[len(layers)-1]
		next := make([][]byte, 0, (len(prev)+1)/2)
		for i := 0; i < len(prev); i += 2 {
			if i+1 < len(prev) {
				next = append(next, hashPair(prev[i], prev[i+1]))
			} else {
				next = append(next, prev[i])
			}
		}
		layers = append(layers, next)
	}
	return &AllowlistTree{layers: layers}
}

// Root returns the committed root, or nil for an empty member set.
func (t *AllowlistTree) Root() []byte {
	top := t.layers[len(t.layers)-1]
	if len(top) == 0 {
		return nil
	}
	return top[0]
}

// Proof returns the sibling path for a member, or false if the member is not
// in the tree.
func (t *AllowlistTree) Proof(member sdk.AccAddress) ([][]byte, bool) {
	target := AllowlistLeaf(member)
	idx := -1
	for i, leaf := range t.layers[0] {
		if bytes.Equal(leaf, target) {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, false
	}
	proof := make([][]byte, 0, len(t.layers)-1)
	for _, layer := range t.layers[:len(t.layers)-1] {
		sibling := idx ^ 1
		if sibling < len(layer) {
			proof = append(proof, layer[sibling])
		}
		idx /= 2
	}
	return proof, true
}

// Size returns the number of distinct members committed to the tree.
func (t *AllowlistTree) Size() int {
	return len(t.layers[0])
}
