package frost

import (
	"encoding/binary"
	"math/big"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/pkg/errors"

	"github.com/arcana-network/roastnode/common"
)

// Derive walks an HD path over the aggregate key info: every step tweaks
// the group key and all verification shares by the same scalar, so the
// derived info stays a consistent FROST key-share view. Derivation is
// non-hardened; only public data is involved.
func (k AggregateKeyInfo) Derive(path HDPath) (AggregateKeyInfo, error) {
	current := k
	for _, index := range path {
		next, err := current.deriveChild(index)
		if err != nil {
			return AggregateKeyInfo{}, err
		}
		current = next
	}
	return current, nil
}

func (k AggregateKeyInfo) deriveChild(index uint32) (AggregateKeyInfo, error) {
	px, py, err := liftGroupKey(k.GroupKey)
	if err != nil {
		return AggregateKeyInfo{}, err
	}

	tweak := childTweak(k.GroupKey, index)
	tx, ty := btcec.S256().ScalarBaseMult(tweak.Bytes())
	cx, _ := btcec.S256().Add(px, py, tx, ty)

	child := AggregateKeyInfo{
		GroupKey:           common.GroupKeyFromBytes(pad32(cx)),
		Threshold:          k.Threshold,
		VerificationShares: make(map[common.Identifier]HexedPoint, len(k.VerificationShares)),
	}
	for id, share := range k.VerificationShares {
		sx, sy, err := parsePoint(share)
		if err != nil {
			return AggregateKeyInfo{}, errors.Wrapf(err, "verification share of %s", id)
		}
		csx, csy := btcec.S256().Add(sx, sy, tx, ty)
		child.VerificationShares[id] = compressPoint(csx, csy)
	}
	return child, nil
}

func childTweak(parent common.GroupKey, index uint32) *big.Int {
	var idx [4]byte
	binary.BigEndian.PutUint32(idx[:], index)
	t := new(big.Int).SetBytes(common.Keccak256([]byte("roast/hd"), []byte(parent), idx[:]))
	t.Mod(t, curveN)
	return t
}

// liftGroupKey interprets the x-only key as the even-Y point, per BIP340.
func liftGroupKey(groupKey common.GroupKey) (*big.Int, *big.Int, error) {
	raw, err := groupKeyX(groupKey)
	if err != nil {
		return nil, nil, err
	}
	compressed := make([]byte, 33)
	compressed[0] = 0x02
	copy(compressed[1:], raw)
	return parsePoint(compressed)
}

func compressPoint(x, y *big.Int) HexedPoint {
	out := make([]byte, 33)
	if y.Bit(0) == 1 {
		out[0] = 0x03
	} else {
		out[0] = 0x02
	}
	copy(out[1:], pad32(x))
	return out
}
