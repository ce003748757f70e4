package frost

import (
	eciesgo "github.com/ecies/go/v2"

	"github.com/arcana-network/roastnode/common"
)

// EncryptKeyShare seals a secret share for a recipient's long-term key.
// Client-side capability: the server only routes the resulting blobs.
func EncryptKeyShare(share []byte, recipient common.PublicKey) (EncryptedKeyShare, error) {
	pub, err := eciesgo.NewPublicKeyFromBytes(recipient)
	if err != nil {
		return nil, err
	}
	sealed, err := eciesgo.Encrypt(pub, share)
	if err != nil {
		return nil, err
	}
	return EncryptedKeyShare(sealed), nil
}

// DecryptKeyShare opens a sealed share with the recipient's long-term
// private key bytes.
func DecryptKeyShare(sealed EncryptedKeyShare, privKey []byte) ([]byte, error) {
	return eciesgo.Decrypt(eciesgo.NewPrivateKeyFromBytes(privKey), sealed)
}

// EncryptDkgSecret seals a DKG round-2 secret for a recipient. Same ECDH
// construction as recovery shares; kept separate for the distinct wire type.
func EncryptDkgSecret(secret []byte, recipient common.PublicKey) (EncryptedSecret, error) {
	sealed, err := EncryptKeyShare(secret, recipient)
	if err != nil {
		return nil, err
	}
	return EncryptedSecret(sealed), nil
}
