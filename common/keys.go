package common

import "encoding/hex"

// PublicKey is a 33-byte compressed secp256k1 point: the long-term key a
// participant authenticates with. Parsing lives in the frost package.
type PublicKey []byte

func (p PublicKey) Hex() string {
	return hex.EncodeToString(p)
}

// GroupKey is the hex encoding of a 32-byte x-only aggregated public key
// produced by a completed DKG. Used as a map key throughout the node.
type GroupKey string

func (g GroupKey) String() string {
	return string(g)
}

func (g GroupKey) Bytes() ([]byte, error) {
	return hex.DecodeString(string(g))
}

func GroupKeyFromBytes(b []byte) GroupKey {
	return GroupKey(hex.EncodeToString(b))
}

// Signature is a 64-byte BIP340 Schnorr signature.
type Signature []byte

// Signed pairs a protocol object with the BIP340 signature its author made
// over the object's canonical digest.
type Signed[T any] struct {
	Obj       T         `json:"obj"`
	Signature Signature `json:"signature"`
}
