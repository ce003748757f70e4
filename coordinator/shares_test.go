package coordinator

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/arcana-network/roastnode/common"
	"github.com/arcana-network/roastnode/frost"
	"github.com/arcana-network/roastnode/messages"
)

func shareFor(sender, receiver common.Identifier) frost.EncryptedKeyShare {
	return frost.EncryptedKeyShare("keyshare:" + string(sender) + ":" + string(receiver))
}

func TestShares_FanOutOnlineAndSnapshotOffline(t *testing.T) {
	e := newTestEnv(t, 10)
	ids := tenIDs()
	// id3 stays offline.
	for _, id := range ids {
		if id != "id3" {
			e.login(id)
		}
	}
	e.events("id2")

	shares := make(map[common.Identifier]frost.EncryptedKeyShare)
	for _, id := range ids[1:] {
		shares[id] = shareFor("id1", id)
	}
	assert.NoError(t, e.coord.ShareSecretShare(e.sid("id1"), testGroupKey, shares))

	// Online receiver gets the event immediately.
	got := e.eventsOfKind("id2", messages.SecretShareEventKind)
	assert.Len(t, got, 1)
	ev := got[0].(messages.SecretShareEvent)
	assert.Equal(t, common.Identifier("id1"), ev.Sender)
	assert.Equal(t, testGroupKey, ev.GroupKey)
	assert.Equal(t, shareFor("id1", "id2"), ev.KeyShare)

	// Offline receiver picks it up from the login snapshot.
	resp := e.login("id3")
	assert.Len(t, resp.SecretShares, 1)
	assert.Equal(t, shareFor("id1", "id3"), resp.SecretShares[0].KeyShare)
}

func TestShares_SecondPostFromSameSenderIsDropped(t *testing.T) {
	e := newTestEnv(t, 3)
	e.loginAll("id1", "id2")

	first := map[common.Identifier]frost.EncryptedKeyShare{"id2": shareFor("id1", "id2")}
	assert.NoError(t, e.coord.ShareSecretShare(e.sid("id1"), testGroupKey, first))
	e.events("id2")

	second := map[common.Identifier]frost.EncryptedKeyShare{"id2": frost.EncryptedKeyShare("replacement")}
	assert.NoError(t, e.coord.ShareSecretShare(e.sid("id1"), testGroupKey, second))

	// Dropped silently: no event, original share kept.
	assert.Empty(t, e.eventsOfKind("id2", messages.SecretShareEventKind))
	sharing, _ := e.coord.state.KeySharing.Get(testGroupKey)
	pending := sharing.ReceiverShares["id2"].(*ReceiverPending)
	assert.Equal(t, shareFor("id1", "id2"), pending.PendingForSender["id1"])
}

func TestShares_DifferentSendersBothKept(t *testing.T) {
	e := newTestEnv(t, 3)
	e.loginAll("id1", "id2", "id3")
	e.events("id3")

	assert.NoError(t, e.coord.ShareSecretShare(e.sid("id1"), testGroupKey,
		map[common.Identifier]frost.EncryptedKeyShare{"id3": shareFor("id1", "id3")}))
	assert.NoError(t, e.coord.ShareSecretShare(e.sid("id2"), testGroupKey,
		map[common.Identifier]frost.EncryptedKeyShare{"id3": shareFor("id2", "id3")}))

	assert.Len(t, e.eventsOfKind("id3", messages.SecretShareEventKind), 2)
}

func TestShares_DoneReceiverDropsEverything(t *testing.T) {
	e := newTestEnv(t, 3)
	e.loginAll("id1", "id2")

	assert.NoError(t, e.coord.ShareSecretShare(e.sid("id1"), testGroupKey,
		map[common.Identifier]frost.EncryptedKeyShare{"id2": shareFor("id1", "id2")}))
	e.events("id2")

	sharing, _ := e.coord.state.KeySharing.Get(testGroupKey)
	sharing.markReceiverDone("id2")

	// A done receiver silently absorbs further posts, from anyone.
	assert.NoError(t, e.coord.ShareSecretShare(e.sid("id1"), testGroupKey,
		map[common.Identifier]frost.EncryptedKeyShare{"id2": shareFor("id1", "id2")}))
	assert.Empty(t, e.eventsOfKind("id2", messages.SecretShareEventKind))

	// And the done receiver gets nothing in its login snapshot.
	resp := e.login("id2")
	assert.Empty(t, resp.SecretShares)
}

func TestShares_Validation(t *testing.T) {
	e := newTestEnv(t, 3)
	e.loginAll("id1")

	err := e.coord.ShareSecretShare(e.sid("id1"), testGroupKey, nil)
	assert.Equal(t, common.ErrInvalidKeyShareMap, common.RequestErrorKindOf(err))

	err = e.coord.ShareSecretShare(e.sid("id1"), testGroupKey,
		map[common.Identifier]frost.EncryptedKeyShare{"id1": shareFor("id1", "id1")})
	assert.Equal(t, common.ErrInvalidKeyShareMap, common.RequestErrorKindOf(err))

	err = e.coord.ShareSecretShare(e.sid("id1"), testGroupKey,
		map[common.Identifier]frost.EncryptedKeyShare{"id9": shareFor("id1", "id9")})
	assert.Equal(t, common.ErrInvalidKeyShareMap, common.RequestErrorKindOf(err))
}
