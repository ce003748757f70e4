package frost

import (
	"crypto/sha256"
	"encoding/binary"
	"math/big"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/pkg/errors"

	"github.com/arcana-network/roastnode/common"
)

// Suite is the FROST capability surface the coordinator consumes. The
// coordinator never produces key material or signatures itself; it only
// hashes commitment sets, checks submitted signature shares and aggregates
// the final Schnorr signature out of verified shares.
type Suite interface {
	// HashWithCommitments binds serialized DKG details to a complete
	// round-1 commitment set. Returns a 32-byte digest.
	HashWithCommitments(details []byte, set DkgCommitmentSet) []byte

	// VerifySignatureShare checks one participant's share against the
	// round's commitment set, the sign details and the participant's
	// verification share under the (derived) signing key.
	VerifySignatureShare(
		commitments SigningCommitmentSet,
		details SignDetails,
		id common.Identifier,
		share SignatureShare,
		publicShare HexedPoint,
		groupKey common.GroupKey,
	) bool

	// Aggregate combines a threshold of verified shares into the final
	// Schnorr signature for the derived group key.
	Aggregate(
		commitments SigningCommitmentSet,
		details SignDetails,
		shares []NamedSignatureShare,
		key AggregateKeyInfo,
	) (common.Signature, error)
}

// Secp256k1Suite is the concrete Taproot-compatible binding over secp256k1.
type Secp256k1Suite struct{}

func NewSecp256k1Suite() *Secp256k1Suite {
	return &Secp256k1Suite{}
}

var curveN = btcec.S256().N

func (s *Secp256k1Suite) HashWithCommitments(details []byte, set DkgCommitmentSet) []byte {
	chunks := [][]byte{details}
	for _, c := range set.Commitments {
		chunks = append(chunks, []byte(c.ID), c.Commitment)
	}
	return common.Keccak256(chunks...)
}

func (s *Secp256k1Suite) VerifySignatureShare(
	commitments SigningCommitmentSet,
	details SignDetails,
	id common.Identifier,
	share SignatureShare,
	publicShare HexedPoint,
	groupKey common.GroupKey,
) bool {
	z := new(big.Int).SetBytes(share)
	if z.Sign() == 0 || z.Cmp(curveN) >= 0 {
		return false
	}

	digest := signDigest(details)
	groupRx, groupRy, perRx, perRy, err := groupNonce(commitments, digest, groupKey)
	if err != nil {
		return false
	}

	yx, yy, err := parsePoint(publicShare)
	if err != nil {
		return false
	}

	c, err := challengeScalar(groupRx, groupRy, groupKey, digest)
	if err != nil {
		return false
	}
	lambda, err := lagrangeCoefficient(id, commitments.Identifiers())
	if err != nil {
		return false
	}

	// z_i*G == R_i + (c * lambda_i) * Y_i
	lhsX, lhsY := btcec.S256().ScalarBaseMult(z.Bytes())

	cl := new(big.Int).Mul(c, lambda)
	cl.Mod(cl, curveN)
	clyX, clyY := btcec.S256().ScalarMult(yx, yy, cl.Bytes())

	rix, riy := perRx[id], perRy[id]
	if rix == nil {
		return false
	}
	rhsX, rhsY := btcec.S256().Add(rix, riy, clyX, clyY)

	return lhsX.Cmp(rhsX) == 0 && lhsY.Cmp(rhsY) == 0
}

func (s *Secp256k1Suite) Aggregate(
	commitments SigningCommitmentSet,
	details SignDetails,
	shares []NamedSignatureShare,
	key AggregateKeyInfo,
) (common.Signature, error) {
	digest := signDigest(details)
	groupRx, _, _, _, err := groupNonce(commitments, digest, key.GroupKey)
	if err != nil {
		return nil, err
	}

	z := new(big.Int)
	for _, share := range shares {
		zi := new(big.Int).SetBytes(share.Share)
		if zi.Cmp(curveN) >= 0 {
			return nil, errors.Errorf("share of %s out of range", share.ID)
		}
		z.Add(z, zi)
	}
	z.Mod(z, curveN)

	sig := make(common.Signature, 64)
	copy(sig[:32], pad32(groupRx))
	copy(sig[32:], pad32(z))
	return sig, nil
}

// signDigest folds the message and sighash type into the 32-byte digest
// every commitment binding and challenge hash runs over.
func signDigest(details SignDetails) []byte {
	var sighash [4]byte
	binary.LittleEndian.PutUint32(sighash[:], details.SighashType)
	return common.Keccak256(details.Message, sighash[:])
}

// groupNonce computes the per-participant effective nonces R_i = D_i +
// rho_i*E_i and the even-Y normalized group nonce R. When R needs the BIP340
// parity flip every R_i flips with it so share checks stay consistent.
func groupNonce(
	set SigningCommitmentSet,
	digest []byte,
	groupKey common.GroupKey,
) (*big.Int, *big.Int, map[common.Identifier]*big.Int, map[common.Identifier]*big.Int, error) {
	perRx := make(map[common.Identifier]*big.Int, len(set.Commitments))
	perRy := make(map[common.Identifier]*big.Int, len(set.Commitments))

	var rx, ry *big.Int
	for _, named := range set.Commitments {
		dx, dy, err := parsePoint(named.Commitment.Hiding)
		if err != nil {
			return nil, nil, nil, nil, err
		}
		ex, ey, err := parsePoint(named.Commitment.Binding)
		if err != nil {
			return nil, nil, nil, nil, err
		}

		rho := bindingFactor(groupKey, digest, set, named.ID)
		bx, by := btcec.S256().ScalarMult(ex, ey, rho.Bytes())
		rix, riy := btcec.S256().Add(dx, dy, bx, by)
		perRx[named.ID], perRy[named.ID] = rix, riy

		if rx == nil {
			rx, ry = rix, riy
		} else {
			rx, ry = btcec.S256().Add(rx, ry, rix, riy)
		}
	}
	if rx == nil {
		return nil, nil, nil, nil, errors.New("empty commitment set")
	}

	if ry.Bit(0) == 1 {
		ry = negateY(ry)
		for id := range perRy {
			perRy[id] = negateY(perRy[id])
		}
	}
	return rx, ry, perRx, perRy, nil
}

func bindingFactor(groupKey common.GroupKey, digest []byte, set SigningCommitmentSet, id common.Identifier) *big.Int {
	chunks := [][]byte{[]byte("roast/binding"), []byte(groupKey), digest}
	for _, c := range set.Commitments {
		chunks = append(chunks, []byte(c.ID), c.Commitment.Hiding, c.Commitment.Binding)
	}
	chunks = append(chunks, []byte(id))
	rho := new(big.Int).SetBytes(common.Keccak256(chunks...))
	rho.Mod(rho, curveN)
	if rho.Sign() == 0 {
		rho.SetInt64(1)
	}
	return rho
}

// challengeScalar is the BIP340 challenge e = H_tag(R.x || P.x || m).
func challengeScalar(rx, _ *big.Int, groupKey common.GroupKey, digest []byte) (*big.Int, error) {
	keyX, err := groupKeyX(groupKey)
	if err != nil {
		return nil, err
	}
	tag := sha256.Sum256([]byte("BIP0340/challenge"))
	h := sha256.New()
	h.Write(tag[:])
	h.Write(tag[:])
	h.Write(pad32(rx))
	h.Write(keyX)
	h.Write(digest)
	c := new(big.Int).SetBytes(h.Sum(nil))
	c.Mod(c, curveN)
	return c, nil
}

// identifierScalar maps an opaque identifier onto a nonzero field element.
// The same mapping is used on the client side when shares are dealt.
func identifierScalar(id common.Identifier) (*big.Int, error) {
	x := new(big.Int).SetBytes(common.Keccak256([]byte("roast/id"), []byte(id)))
	x.Mod(x, curveN)
	if x.Sign() == 0 {
		return nil, errors.Errorf("identifier %s maps to zero scalar", id)
	}
	return x, nil
}

func lagrangeCoefficient(id common.Identifier, signers []common.Identifier) (*big.Int, error) {
	xi, err := identifierScalar(id)
	if err != nil {
		return nil, err
	}

	num := big.NewInt(1)
	den := big.NewInt(1)
	for _, other := range signers {
		if other == id {
			continue
		}
		xj, err := identifierScalar(other)
		if err != nil {
			return nil, err
		}
		num.Mul(num, xj)
		num.Mod(num, curveN)

		diff := new(big.Int).Sub(xj, xi)
		diff.Mod(diff, curveN)
		if diff.Sign() == 0 {
			return nil, errors.Errorf("duplicate signer scalar for %s", other)
		}
		den.Mul(den, diff)
		den.Mod(den, curveN)
	}

	den.ModInverse(den, curveN)
	num.Mul(num, den)
	num.Mod(num, curveN)
	return num, nil
}

func parsePoint(b []byte) (*big.Int, *big.Int, error) {
	pk, err := btcec.ParsePubKey(b)
	if err != nil {
		return nil, nil, err
	}
	return pk.X(), pk.Y(), nil
}

func groupKeyX(groupKey common.GroupKey) ([]byte, error) {
	raw, err := groupKey.Bytes()
	if err != nil {
		return nil, err
	}
	if len(raw) != 32 {
		return nil, errors.New("group key must be a 32-byte x-only key")
	}
	return raw, nil
}

func negateY(y *big.Int) *big.Int {
	out := new(big.Int).Sub(btcec.S256().P, y)
	out.Mod(out, btcec.S256().P)
	return out
}

func pad32(x *big.Int) []byte {
	out := make([]byte, 32)
	x.FillBytes(out)
	return out
}
