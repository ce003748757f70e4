package frost

import (
	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/schnorr"
	"github.com/torusresearch/bijson"

	"github.com/arcana-network/roastnode/common"
)

// ObjectDigest is the canonical digest every long-term-key signature in the
// protocol is made over: Keccak256 of the bijson serialization.
func ObjectDigest(obj interface{}) ([]byte, error) {
	serialized, err := bijson.Marshal(obj)
	if err != nil {
		return nil, err
	}
	return common.Keccak256(serialized), nil
}

// SignObject signs obj with a participant's long-term key, producing the
// Signed wrapper the coordination protocol exchanges. Schnorr signatures
// require a 32-byte digest; BIP340 over Keccak256 keeps the keys Taproot
// compatible.
func SignObject[T any](obj T, priv *btcec.PrivateKey) (common.Signed[T], error) {
	digest, err := ObjectDigest(obj)
	if err != nil {
		return common.Signed[T]{}, err
	}
	sig, err := schnorr.Sign(priv, digest)
	if err != nil {
		return common.Signed[T]{}, err
	}
	return common.Signed[T]{Obj: obj, Signature: sig.Serialize()}, nil
}

// VerifySigned checks a Signed wrapper under the given long-term public key.
func VerifySigned[T any](s common.Signed[T], pub common.PublicKey) bool {
	return VerifyBytes(s.Obj, s.Signature, pub)
}

// VerifyBytes checks a detached signature over an arbitrary protocol object.
func VerifyBytes(obj interface{}, signature common.Signature, pub common.PublicKey) bool {
	digest, err := ObjectDigest(obj)
	if err != nil {
		return false
	}
	return VerifyDigest(digest, signature, pub)
}

// VerifyDigest checks a detached signature over a precomputed 32-byte digest.
func VerifyDigest(digest []byte, signature common.Signature, pub common.PublicKey) bool {
	parsedPub, err := btcec.ParsePubKey(pub)
	if err != nil {
		return false
	}
	parsedSig, err := schnorr.ParseSignature(signature)
	if err != nil {
		return false
	}
	return parsedSig.Verify(digest, parsedPub)
}

// GenerateKeypair returns a fresh long-term participant keypair. Test and
// client tooling helper; the server itself holds no participant keys.
func GenerateKeypair() (*btcec.PrivateKey, common.PublicKey, error) {
	priv, err := btcec.NewPrivateKey()
	if err != nil {
		return nil, nil, err
	}
	return priv, priv.PubKey().SerializeCompressed(), nil
}
