package coordinator

import (
	"bytes"
	"fmt"
	"testing"
	"time"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/stretchr/testify/assert"

	"github.com/arcana-network/roastnode/common"
	"github.com/arcana-network/roastnode/config"
	"github.com/arcana-network/roastnode/frost"
	"github.com/arcana-network/roastnode/messages"
)

// fakeSuite stands in for the external FROST primitives: shares are valid
// iff they spell out their author, aggregation hashes the transcript.
type fakeSuite struct{}

func (fakeSuite) HashWithCommitments(details []byte, set frost.DkgCommitmentSet) []byte {
	chunks := [][]byte{details}
	for _, c := range set.Commitments {
		chunks = append(chunks, []byte(c.ID), c.Commitment)
	}
	return common.Keccak256(chunks...)
}

func (fakeSuite) VerifySignatureShare(
	_ frost.SigningCommitmentSet,
	_ frost.SignDetails,
	id common.Identifier,
	share frost.SignatureShare,
	_ frost.HexedPoint,
	_ common.GroupKey,
) bool {
	return bytes.Equal(share, validShare(id))
}

func (fakeSuite) Aggregate(
	set frost.SigningCommitmentSet,
	details frost.SignDetails,
	shares []frost.NamedSignatureShare,
	_ frost.AggregateKeyInfo,
) (common.Signature, error) {
	chunks := [][]byte{details.Message}
	for _, s := range shares {
		chunks = append(chunks, []byte(s.ID), s.Share)
	}
	digest := common.Keccak256(chunks...)
	return common.Signature(append(digest, digest...)), nil
}

func validShare(id common.Identifier) frost.SignatureShare {
	return frost.SignatureShare("share:" + string(id))
}

func fakeCommitment(tag string) frost.SigningCommitment {
	return frost.SigningCommitment{
		Hiding:  []byte("hiding:" + tag),
		Binding: []byte("binding:" + tag),
	}
}

// testEnv is a coordinator with a real keyed group and drained per-session
// event streams.
type testEnv struct {
	t     *testing.T
	conf  *config.Config
	coord *Coordinator
	keys  map[common.Identifier]*btcec.PrivateKey
	sids  map[common.Identifier]string
	chans map[common.Identifier]<-chan messages.Event
}

func newTestEnv(t *testing.T, n int) *testEnv {
	t.Helper()
	conf := config.GetDefaultConfig()
	conf.Group = common.GroupConfig{
		ID:           "testgroup",
		Participants: make(map[common.Identifier]common.PublicKey, n),
	}

	keys := make(map[common.Identifier]*btcec.PrivateKey, n)
	for i := 1; i <= n; i++ {
		id := common.Identifier(fmt.Sprintf("id%d", i))
		priv, pub, err := frost.GenerateKeypair()
		assert.NoError(t, err)
		keys[id] = priv
		conf.Group.Participants[id] = pub
	}

	return &testEnv{
		t:     t,
		conf:  conf,
		coord: New(conf, fakeSuite{}),
		keys:  keys,
		sids:  make(map[common.Identifier]string),
		chans: make(map[common.Identifier]<-chan messages.Event),
	}
}

func (e *testEnv) login(id common.Identifier) *messages.LoginResponse {
	e.t.Helper()
	challenge, err := e.coord.Login(e.conf.Group.Fingerprint(), id, ProtocolVersion)
	assert.NoError(e.t, err)

	signed, err := frost.SignObject(challenge.Challenge, e.keys[id])
	assert.NoError(e.t, err)

	resp, err := e.coord.RespondToChallenge(signed)
	assert.NoError(e.t, err)

	e.sids[id] = resp.SessionID
	sess, ok := e.coord.SessionByID(resp.SessionID)
	assert.True(e.t, ok)
	e.chans[id] = sess.Attach()
	return resp
}

func (e *testEnv) loginAll(ids ...common.Identifier) {
	for _, id := range ids {
		e.login(id)
	}
}

func (e *testEnv) sid(id common.Identifier) string {
	return e.sids[id]
}

// events drains everything currently queued on a participant's stream.
func (e *testEnv) events(id common.Identifier) []messages.Event {
	var out []messages.Event
	ch := e.chans[id]
	for {
		select {
		case ev, ok := <-ch:
			if !ok {
				return out
			}
			out = append(out, ev)
		default:
			return out
		}
	}
}

func (e *testEnv) eventsOfKind(id common.Identifier, kind string) []messages.Event {
	var out []messages.Event
	for _, ev := range e.events(id) {
		if ev.EventKind() == kind {
			out = append(out, ev)
		}
	}
	return out
}

func (e *testEnv) signedDkgDetails(creator common.Identifier, name string, threshold int) common.Signed[messages.NewDkgDetails] {
	e.t.Helper()
	details := messages.NewDkgDetails{
		Name:      name,
		Threshold: threshold,
		Expiry:    common.ExpiresIn(time.Hour),
	}
	signed, err := frost.SignObject(details, e.keys[creator])
	assert.NoError(e.t, err)
	return signed
}

func (e *testEnv) signedSigDetails(
	creator common.Identifier,
	expiry common.Expiry,
	groupKeys ...common.GroupKey,
) common.Signed[messages.SignaturesRequestDetails] {
	e.t.Helper()
	details := messages.SignaturesRequestDetails{Expiry: expiry}
	for i, groupKey := range groupKeys {
		details.RequiredSigs = append(details.RequiredSigs, messages.SingleSignatureDetails{
			SignDetails: frost.SignDetails{Message: []byte(fmt.Sprintf("msg-%d", i))},
			GroupKey:    groupKey,
		})
	}
	signed, err := frost.SignObject(details, e.keys[creator])
	assert.NoError(e.t, err)
	return signed
}

func keyInfo(groupKey common.GroupKey, threshold int) frost.AggregateKeyInfo {
	return frost.AggregateKeyInfo{GroupKey: groupKey, Threshold: threshold}
}
