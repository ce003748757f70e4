package coordinator

import (
	"github.com/arcana-network/roastnode/common"
	"github.com/arcana-network/roastnode/frost"
	"github.com/arcana-network/roastnode/messages"
)

// SendDkgAcks stores signed acknowledgements in the per-group-key cache and
// fans the fresh ones out. An existing ACK is only ever upgraded from
// rejected to accepted, never downgraded.
func (c *Coordinator) SendDkgAcks(sid string, acks []messages.SignedDkgAck) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	sess, err := c.sessionLocked(sid)
	if err != nil {
		return err
	}

	for _, ack := range acks {
		pubKey, ok := c.group.PublicKey(ack.Signer)
		if !ok {
			return common.NewInvalidRequestf(common.ErrInvalidDkgAckSignature, "unknown signer %s", ack.Signer)
		}
		if !frost.VerifySigned(ack.Signed, pubKey) {
			return common.NewInvalidRequestf(common.ErrInvalidDkgAckSignature, "signer %s", ack.Signer)
		}
	}

	var newAcks []messages.SignedDkgAck
	for _, ack := range acks {
		groupKey := ack.Signed.Obj.GroupKey
		entry, ok := c.state.AckCaches.Get(groupKey)
		if !ok {
			entry = &AckCache{
				Acks:   make(map[common.Identifier]messages.SignedDkgAck),
				Expiry: common.ExpiresIn(c.conf.AckCacheTTL),
			}
		}
		existing, seen := entry.Acks[ack.Signer]
		if seen && (existing.Signed.Obj.Accepted || !ack.Signed.Obj.Accepted) {
			continue
		}
		entry.Acks[ack.Signer] = ack
		entry.Expiry = common.ExpiresIn(c.conf.AckCacheTTL)
		c.state.AckCaches.Put(groupKey, entry)
		newAcks = append(newAcks, ack)
	}
	if len(newAcks) == 0 {
		return nil
	}

	for _, peer := range c.state.Sessions.Values() {
		if peer.Participant == sess.Participant {
			continue
		}
		var forPeer []messages.SignedDkgAck
		for _, ack := range newAcks {
			if ack.Signer != peer.Participant {
				forPeer = append(forPeer, ack)
			}
		}
		if len(forPeer) > 0 {
			peer.SendEvent(messages.DkgAckEvent{Acks: forPeer})
		}
	}
	return nil
}

// RequestDkgAcks serves cached acknowledgements and asks the rest of the
// group for the ones missing.
func (c *Coordinator) RequestDkgAcks(
	sid string,
	requests []messages.DkgAckRequest,
) ([]messages.SignedDkgAck, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	sess, err := c.sessionLocked(sid)
	if err != nil {
		return nil, err
	}
	for _, req := range requests {
		for _, id := range req.IDs {
			if !c.group.Has(id) {
				return nil, common.NewInvalidRequestf(common.ErrNoParticipant, "%s", id)
			}
			if id == sess.Participant {
				return nil, common.NewInvalidRequest(common.ErrCannotRequestSelfAck)
			}
		}
	}

	var have []messages.SignedDkgAck
	var remaining []messages.DkgAckRequest
	for _, req := range requests {
		entry, cached := c.state.AckCaches.Get(req.GroupPublicKey)
		var need []common.Identifier
		for _, id := range req.IDs {
			if cached {
				if ack, ok := entry.Acks[id]; ok {
					have = append(have, ack)
					continue
				}
			}
			need = append(need, id)
		}
		if len(need) > 0 {
			remaining = append(remaining, messages.DkgAckRequest{
				IDs:            need,
				GroupPublicKey: req.GroupPublicKey,
			})
		}
	}

	if len(remaining) > 0 {
		c.broadcastLocked(messages.DkgAckRequestEvent{Requests: remaining}, sess.Participant)
	}
	return have, nil
}
