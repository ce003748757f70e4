package coordinator

import (
	log "github.com/sirupsen/logrus"

	"github.com/arcana-network/roastnode/common"
	"github.com/arcana-network/roastnode/frost"
	"github.com/arcana-network/roastnode/messages"
)

// ShareSecretShare routes encrypted recovery shares toward their receivers.
// A receiver keeps at most one pending share per sender; duplicates from the
// same sender are dropped silently. Offline receivers pick their shares up
// from the next login snapshot.
func (c *Coordinator) ShareSecretShare(
	sid string,
	groupKey common.GroupKey,
	encryptedSecrets map[common.Identifier]frost.EncryptedKeyShare,
) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	sess, err := c.sessionLocked(sid)
	if err != nil {
		return err
	}
	if len(encryptedSecrets) == 0 {
		return common.NewInvalidRequest(common.ErrInvalidKeyShareMap)
	}
	for id := range encryptedSecrets {
		if id == sess.Participant {
			return common.NewInvalidRequestf(common.ErrInvalidKeyShareMap, "share addressed to sender")
		}
		if !c.group.Has(id) {
			return common.NewInvalidRequestf(common.ErrInvalidKeyShareMap, "unknown receiver %s", id)
		}
	}

	sharing, ok := c.state.KeySharing.Get(groupKey)
	if !ok {
		sharing = &KeySharingState{ReceiverShares: make(map[common.Identifier]ReceiverState)}
	}
	// Posting refreshes the table's retention window.
	sharing.Expiry = common.ExpiresIn(c.conf.MinCompletedSignaturesTTL)
	c.state.KeySharing.Put(groupKey, sharing)

	kept := make(map[common.Identifier]frost.EncryptedKeyShare)
	for receiver, share := range encryptedSecrets {
		state, ok := sharing.ReceiverShares[receiver]
		if !ok {
			state = &ReceiverPending{
				PendingForSender:      make(map[common.Identifier]frost.EncryptedKeyShare),
				AcknowledgedForSender: common.NewIdentifierSet(),
			}
			sharing.ReceiverShares[receiver] = state
		}
		pending, isPending := state.(*ReceiverPending)
		if !isPending {
			continue
		}
		if _, dup := pending.PendingForSender[sess.Participant]; dup {
			continue
		}
		if pending.AcknowledgedForSender.Has(sess.Participant) {
			continue
		}
		pending.PendingForSender[sess.Participant] = share
		kept[receiver] = share
	}

	log.WithFields(log.Fields{
		"GroupKey": groupKey,
		"Sender":   sess.Participant,
		"Kept":     len(kept),
	}).Debug("recovery shares routed")

	for receiver, share := range kept {
		c.sendToParticipantLocked(receiver, messages.SecretShareEvent{
			Sender:   sess.Participant,
			GroupKey: groupKey,
			KeyShare: share,
		})
	}
	return nil
}
