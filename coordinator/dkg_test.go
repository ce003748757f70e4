package coordinator

import (
	"fmt"
	"testing"
	"time"

	"github.com/btcsuite/btcd/btcec/v2/schnorr"
	"github.com/stretchr/testify/assert"

	"github.com/arcana-network/roastnode/common"
	"github.com/arcana-network/roastnode/frost"
	"github.com/arcana-network/roastnode/messages"
)

func tenIDs() []common.Identifier {
	ids := make([]common.Identifier, 10)
	for i := range ids {
		ids[i] = common.Identifier(fmt.Sprintf("id%d", i+1))
	}
	return ids
}

func dkgCommitmentOf(id common.Identifier) frost.DkgCommitment {
	return frost.DkgCommitment("commitment:" + string(id))
}

func (e *testEnv) runRound1(name string, ids []common.Identifier) {
	e.t.Helper()
	assert.NoError(e.t, e.coord.RequestNewDkg(e.sid(ids[0]), e.signedDkgDetails(ids[0], name, 2), dkgCommitmentOf(ids[0])))
	for _, id := range ids[1:] {
		assert.NoError(e.t, e.coord.SubmitDkgCommitment(e.sid(id), name, dkgCommitmentOf(id)))
	}
}

func (e *testEnv) expectedHash(name string) []byte {
	e.t.Helper()
	dkg, ok := e.coord.state.Dkgs.Get(name)
	assert.True(e.t, ok)
	round, ok := dkg.Round.(*DkgRound2)
	assert.True(e.t, ok)
	return round.ExpectedHash
}

func (e *testEnv) submitRound2(name string, sender common.Identifier, hash []byte, ids []common.Identifier) error {
	e.t.Helper()
	sig, err := schnorr.Sign(e.keys[sender], hash)
	assert.NoError(e.t, err)
	secrets := make(map[common.Identifier]frost.EncryptedSecret)
	for _, id := range ids {
		if id != sender {
			secrets[id] = frost.EncryptedSecret("secret:" + string(sender) + ":" + string(id))
		}
	}
	return e.coord.SubmitDkgRound2(e.sid(sender), name, sig.Serialize(), secrets)
}

func TestDkg_HappyPath(t *testing.T) {
	e := newTestEnv(t, 10)
	ids := tenIDs()
	e.loginAll(ids...)
	e.runRound1("k", ids)

	// Everyone but the creator saw the request; every peer saw the other
	// commitments.
	newDkgs := e.eventsOfKind("id10", messages.NewDkgEventKind)
	assert.Len(t, newDkgs, 1)
	assert.Equal(t, common.Identifier("id1"), newDkgs[0].(messages.NewDkgEvent).Creator)
	assert.Empty(t, e.eventsOfKind("id1", messages.NewDkgEventKind))

	hash := e.expectedHash("k")
	for _, id := range ids {
		assert.NoError(t, e.submitRound2("k", id, hash, ids))
	}

	// The server retains nothing once the last round-2 secrets went out.
	assert.False(t, e.coord.state.Dkgs.Contains("k"))

	// Every participant received 9 secrets, one per peer.
	for _, id := range ids {
		shares := e.eventsOfKind(id, messages.DkgRound2ShareEventKind)
		assert.Len(t, shares, 9)
	}
}

func TestDkg_ThresholdBounds(t *testing.T) {
	e := newTestEnv(t, 10)
	ids := tenIDs()
	e.loginAll(ids...)

	// threshold == n is legal
	assert.NoError(t, e.coord.RequestNewDkg(e.sid("id1"), e.signedDkgDetails("id1", "full", 10), dkgCommitmentOf("id1")))

	err := e.coord.RequestNewDkg(e.sid("id1"), e.signedDkgDetails("id1", "over", 11), dkgCommitmentOf("id1"))
	assert.Equal(t, common.ErrInvalidThreshold, common.RequestErrorKindOf(err))

	err = e.coord.RequestNewDkg(e.sid("id1"), e.signedDkgDetails("id1", "zero", 0), dkgCommitmentOf("id1"))
	assert.Equal(t, common.ErrInvalidThreshold, common.RequestErrorKindOf(err))
}

func TestDkg_ExpiryBounds(t *testing.T) {
	e := newTestEnv(t, 3)
	e.loginAll("id1")

	details := messages.NewDkgDetails{Name: "soon", Threshold: 2, Expiry: common.ExpiresIn(time.Minute)}
	signed, err := frost.SignObject(details, e.keys["id1"])
	assert.NoError(t, err)
	reqErr := e.coord.RequestNewDkg(e.sid("id1"), signed, dkgCommitmentOf("id1"))
	assert.Equal(t, common.ErrExpiryTooSoon, common.RequestErrorKindOf(reqErr))

	details = messages.NewDkgDetails{Name: "late", Threshold: 2, Expiry: common.ExpiresIn(8 * 24 * time.Hour)}
	signed, err = frost.SignObject(details, e.keys["id1"])
	assert.NoError(t, err)
	reqErr = e.coord.RequestNewDkg(e.sid("id1"), signed, dkgCommitmentOf("id1"))
	assert.Equal(t, common.ErrExpiryTooLate, common.RequestErrorKindOf(reqErr))
}

func TestDkg_DuplicateName(t *testing.T) {
	e := newTestEnv(t, 3)
	e.loginAll("id1", "id2")

	assert.NoError(t, e.coord.RequestNewDkg(e.sid("id1"), e.signedDkgDetails("id1", "k", 2), dkgCommitmentOf("id1")))
	err := e.coord.RequestNewDkg(e.sid("id2"), e.signedDkgDetails("id2", "k", 2), dkgCommitmentOf("id2"))
	assert.Equal(t, common.ErrDkgRequestExists, common.RequestErrorKindOf(err))
}

func TestDkg_SignatureMustMatchCaller(t *testing.T) {
	e := newTestEnv(t, 3)
	e.loginAll("id1")

	// Signed by id2, submitted by id1.
	err := e.coord.RequestNewDkg(e.sid("id1"), e.signedDkgDetails("id2", "k", 2), dkgCommitmentOf("id1"))
	assert.Equal(t, common.ErrInvalidDkgReqSig, common.RequestErrorKindOf(err))
}

func TestDkg_DuplicateCommitment(t *testing.T) {
	e := newTestEnv(t, 3)
	e.loginAll("id1", "id2")

	assert.NoError(t, e.coord.RequestNewDkg(e.sid("id1"), e.signedDkgDetails("id1", "k", 2), dkgCommitmentOf("id1")))
	assert.NoError(t, e.coord.SubmitDkgCommitment(e.sid("id2"), "k", dkgCommitmentOf("id2")))

	err := e.coord.SubmitDkgCommitment(e.sid("id2"), "k", dkgCommitmentOf("id2"))
	assert.Equal(t, common.ErrDkgCommitmentExists, common.RequestErrorKindOf(err))
}

func TestDkg_CommitmentToUnknownDkg(t *testing.T) {
	e := newTestEnv(t, 3)
	e.loginAll("id1")
	err := e.coord.SubmitDkgCommitment(e.sid("id1"), "nope", dkgCommitmentOf("id1"))
	assert.Equal(t, common.ErrNoDkg, common.RequestErrorKindOf(err))
}

func TestDkg_Round2RequiresRound2(t *testing.T) {
	e := newTestEnv(t, 3)
	e.loginAll("id1", "id2", "id3")
	assert.NoError(t, e.coord.RequestNewDkg(e.sid("id1"), e.signedDkgDetails("id1", "k", 2), dkgCommitmentOf("id1")))

	err := e.submitRound2("k", "id1", common.Keccak256([]byte("bogus")), []common.Identifier{"id1", "id2", "id3"})
	assert.Equal(t, common.ErrNotRound2Dkg, common.RequestErrorKindOf(err))

	// And round 1 submissions are refused once round 2 began.
	assert.NoError(t, e.coord.SubmitDkgCommitment(e.sid("id2"), "k", dkgCommitmentOf("id2")))
	assert.NoError(t, e.coord.SubmitDkgCommitment(e.sid("id3"), "k", dkgCommitmentOf("id3")))
	err = e.coord.SubmitDkgCommitment(e.sid("id3"), "k", dkgCommitmentOf("id3"))
	assert.Equal(t, common.ErrNotRound1Dkg, common.RequestErrorKindOf(err))
}

func TestDkg_Round2ChecksSecretMap(t *testing.T) {
	e := newTestEnv(t, 3)
	ids := []common.Identifier{"id1", "id2", "id3"}
	e.loginAll(ids...)
	e.runRound1("k", ids)
	hash := e.expectedHash("k")

	sig, err := schnorr.Sign(e.keys["id1"], hash)
	assert.NoError(t, err)

	// Missing one recipient.
	reqErr := e.coord.SubmitDkgRound2(e.sid("id1"), "k", sig.Serialize(), map[common.Identifier]frost.EncryptedSecret{
		"id2": frost.EncryptedSecret("x"),
	})
	assert.Equal(t, common.ErrInvalidSecretMap, common.RequestErrorKindOf(reqErr))

	// Including the sender itself.
	reqErr = e.coord.SubmitDkgRound2(e.sid("id1"), "k", sig.Serialize(), map[common.Identifier]frost.EncryptedSecret{
		"id1": frost.EncryptedSecret("x"),
		"id2": frost.EncryptedSecret("y"),
	})
	assert.Equal(t, common.ErrInvalidSecretMap, common.RequestErrorKindOf(reqErr))
}

func TestDkg_Round2RejectsBadSetSignature(t *testing.T) {
	e := newTestEnv(t, 3)
	ids := []common.Identifier{"id1", "id2", "id3"}
	e.loginAll(ids...)
	e.runRound1("k", ids)

	err := e.submitRound2("k", "id1", common.Keccak256([]byte("wrong hash")), ids)
	assert.Equal(t, common.ErrInvalidDkgCommitmentSetSignature, common.RequestErrorKindOf(err))
}

func TestDkg_Round2DuplicateSubmission(t *testing.T) {
	e := newTestEnv(t, 3)
	ids := []common.Identifier{"id1", "id2", "id3"}
	e.loginAll(ids...)
	e.runRound1("k", ids)
	hash := e.expectedHash("k")

	assert.NoError(t, e.submitRound2("k", "id1", hash, ids))
	err := e.submitRound2("k", "id1", hash, ids)
	assert.Equal(t, common.ErrDkgRound2Sent, common.RequestErrorKindOf(err))
}

func TestDkg_RejectRemovesAndIsIdempotent(t *testing.T) {
	e := newTestEnv(t, 3)
	e.loginAll("id1", "id2")
	assert.NoError(t, e.coord.RequestNewDkg(e.sid("id1"), e.signedDkgDetails("id1", "k", 2), dkgCommitmentOf("id1")))
	e.events("id1")

	assert.NoError(t, e.coord.RejectDkg(e.sid("id2"), "k"))
	assert.False(t, e.coord.state.Dkgs.Contains("k"))

	rejects := e.eventsOfKind("id1", messages.DkgRejectEventKind)
	assert.Len(t, rejects, 1)
	assert.Equal(t, common.Identifier("id2"), rejects[0].(messages.DkgRejectEvent).Participant)

	// Duplicate reject of a removed DKG is a no-op.
	assert.NoError(t, e.coord.RejectDkg(e.sid("id2"), "k"))
	assert.Empty(t, e.eventsOfKind("id1", messages.DkgRejectEventKind))
}

func TestDkg_LogoutDemotesRound2(t *testing.T) {
	e := newTestEnv(t, 10)
	ids := tenIDs()
	e.loginAll(ids...)
	e.runRound1("k", ids)
	assert.NotNil(t, e.expectedHash("k"))

	// Creator drops mid round 2: back to round 1 with no commitments.
	assert.NoError(t, e.coord.Logout(e.sid("id1")))

	dkg, ok := e.coord.state.Dkgs.Get("k")
	assert.True(t, ok)
	round, isRound1 := dkg.Round.(*DkgRound1)
	assert.True(t, isRound1)
	assert.Empty(t, round.Commitments)

	// Creator returns, everyone recommits, the DKG completes.
	e.login("id1")
	for _, id := range ids {
		assert.NoError(t, e.coord.SubmitDkgCommitment(e.sid(id), "k", dkgCommitmentOf(id)))
	}
	hash := e.expectedHash("k")
	for _, id := range ids {
		assert.NoError(t, e.submitRound2("k", id, hash, ids))
	}
	assert.False(t, e.coord.state.Dkgs.Contains("k"))
}

func TestDkg_LogoutRemovesRound1Commitment(t *testing.T) {
	e := newTestEnv(t, 10)
	ids := tenIDs()
	e.loginAll(ids...)
	assert.NoError(t, e.coord.RequestNewDkg(e.sid("id1"), e.signedDkgDetails("id1", "k", 2), dkgCommitmentOf("id1")))
	assert.NoError(t, e.coord.SubmitDkgCommitment(e.sid("id2"), "k", dkgCommitmentOf("id2")))

	assert.NoError(t, e.coord.Logout(e.sid("id2")))

	dkg, _ := e.coord.state.Dkgs.Get("k")
	round := dkg.Round.(*DkgRound1)
	assert.Len(t, round.Commitments, 1)
	assert.Equal(t, common.Identifier("id1"), round.Commitments[0].ID)
}

func TestDkg_LoginSnapshotListsRound1Dkgs(t *testing.T) {
	e := newTestEnv(t, 3)
	e.loginAll("id1")
	assert.NoError(t, e.coord.RequestNewDkg(e.sid("id1"), e.signedDkgDetails("id1", "k", 2), dkgCommitmentOf("id1")))

	resp := e.login("id2")
	assert.Len(t, resp.NewDkgs, 1)
	assert.Equal(t, "k", resp.NewDkgs[0].Details.Obj.Name)
	assert.Len(t, resp.NewDkgs[0].Commitments, 1)
}
