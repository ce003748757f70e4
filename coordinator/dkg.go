package coordinator

import (
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/torusresearch/bijson"

	"github.com/arcana-network/roastnode/common"
	"github.com/arcana-network/roastnode/frost"
	"github.com/arcana-network/roastnode/messages"
)

// RequestNewDkg starts a named DKG with the caller's signed details and its
// own round-1 commitment.
func (c *Coordinator) RequestNewDkg(
	sid string,
	signedDetails common.Signed[messages.NewDkgDetails],
	commitment frost.DkgCommitment,
) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	sess, err := c.sessionLocked(sid)
	if err != nil {
		return err
	}
	details := signedDetails.Obj
	if details.Threshold < 1 || details.Threshold > c.group.Size() {
		return common.NewInvalidRequestf(common.ErrInvalidThreshold, "threshold %d of %d", details.Threshold, c.group.Size())
	}
	if err := c.checkExpiryBounds(details.Expiry, c.conf.MinDkgRequestTTL, c.conf.MaxDkgRequestTTL); err != nil {
		return err
	}
	if c.state.Dkgs.Contains(details.Name) {
		return common.NewInvalidRequestf(common.ErrDkgRequestExists, "%s", details.Name)
	}
	pubKey, _ := c.group.PublicKey(sess.Participant)
	if !frost.VerifySigned(signedDetails, pubKey) {
		return common.NewInvalidRequest(common.ErrInvalidDkgReqSig)
	}

	dkg := &DkgState{
		SignedDetails: signedDetails,
		Creator:       sess.Participant,
		Round: &DkgRound1{Commitments: []frost.NamedDkgCommitment{
			{ID: sess.Participant, Commitment: commitment},
		}},
	}
	c.state.Dkgs.Put(details.Name, dkg)

	log.WithFields(log.Fields{
		"Dkg":       details.Name,
		"Threshold": details.Threshold,
		"Creator":   sess.Participant,
	}).Info("new DKG requested")
	c.metrics.CountDkgRequested()

	c.broadcastLocked(messages.NewDkgEvent{
		Details:     signedDetails,
		Creator:     dkg.Creator,
		Commitments: dkg.Round.(*DkgRound1).Commitments,
	}, sess.Participant)
	return nil
}

// RejectDkg removes a DKG on a participant's veto. Rejecting a DKG that is
// already gone is a no-op; the call never fails once the session checks out.
func (c *Coordinator) RejectDkg(sid string, name string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	sess, err := c.sessionLocked(sid)
	if err != nil {
		return err
	}
	if !c.state.Dkgs.Contains(name) {
		return nil
	}
	c.state.Dkgs.Remove(name)
	c.metrics.CountDkgRejected()
	c.broadcastLocked(messages.DkgRejectEvent{Name: name, Participant: sess.Participant}, sess.Participant)
	return nil
}

// SubmitDkgCommitment records a round-1 commitment; the last one moves the
// DKG to round 2 with the commitment-set hash frozen.
func (c *Coordinator) SubmitDkgCommitment(
	sid string,
	name string,
	commitment frost.DkgCommitment,
) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	sess, err := c.sessionLocked(sid)
	if err != nil {
		return err
	}
	dkg, ok := c.state.Dkgs.Get(name)
	if !ok {
		return common.NewInvalidRequestf(common.ErrNoDkg, "%s", name)
	}
	round, ok := dkg.Round.(*DkgRound1)
	if !ok {
		return common.NewInvalidRequest(common.ErrNotRound1Dkg)
	}
	if round.HasCommitmentFrom(sess.Participant) {
		return common.NewInvalidRequest(common.ErrDkgCommitmentExists)
	}

	round.Commitments = append(round.Commitments, frost.NamedDkgCommitment{
		ID:         sess.Participant,
		Commitment: commitment,
	})

	if len(round.Commitments) == c.group.Size() {
		serializedDetails, err := bijson.Marshal(dkg.SignedDetails.Obj)
		if err != nil {
			return err
		}
		dkg.Round = &DkgRound2{
			ExpectedHash:         c.suite.HashWithCommitments(serializedDetails, frost.NewDkgCommitmentSet(round.Commitments)),
			ParticipantsProvided: common.NewIdentifierSet(),
		}
		log.WithField("Dkg", name).Info("DKG advanced to round 2")
	}

	c.broadcastLocked(messages.DkgCommitmentEvent{
		Name:        name,
		Participant: sess.Participant,
		Commitment:  commitment,
	}, sess.Participant)
	return nil
}

// SubmitDkgRound2 routes a participant's encrypted round-2 secrets to every
// peer. The last submission completes the DKG and drops it: the server
// retains no key material.
func (c *Coordinator) SubmitDkgRound2(
	sid string,
	name string,
	commitmentSetSignature common.Signature,
	secrets map[common.Identifier]frost.EncryptedSecret,
) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	sess, err := c.sessionLocked(sid)
	if err != nil {
		return err
	}
	dkg, ok := c.state.Dkgs.Get(name)
	if !ok {
		return common.NewInvalidRequestf(common.ErrNoDkg, "%s", name)
	}
	round, ok := dkg.Round.(*DkgRound2)
	if !ok {
		return common.NewInvalidRequest(common.ErrNotRound2Dkg)
	}

	pubKey, _ := c.group.PublicKey(sess.Participant)
	if !frost.VerifyDigest(round.ExpectedHash, commitmentSetSignature, pubKey) {
		return common.NewInvalidRequest(common.ErrInvalidDkgCommitmentSetSignature)
	}
	if round.ParticipantsProvided.Has(sess.Participant) {
		return common.NewInvalidRequest(common.ErrDkgRound2Sent)
	}
	if len(secrets) != c.group.Size()-1 {
		return common.NewInvalidRequestf(common.ErrInvalidSecretMap, "got %d secrets", len(secrets))
	}
	for id := range secrets {
		if id == sess.Participant || !c.group.Has(id) {
			return common.NewInvalidRequestf(common.ErrInvalidSecretMap, "unexpected recipient %s", id)
		}
	}

	// Offline recipients lose their secret; the logout demotion rule
	// guarantees the round restarts in that case anyway.
	for id, secret := range secrets {
		c.sendToParticipantLocked(id, messages.DkgRound2ShareEvent{
			Name:                   name,
			CommitmentSetSignature: commitmentSetSignature,
			Sender:                 sess.Participant,
			Secret:                 secret,
		})
	}

	if round.ParticipantsProvided.Len()+1 == c.group.Size() {
		c.state.Dkgs.Remove(name)
		log.WithField("Dkg", name).Info("DKG round 2 complete")
		c.metrics.CountDkgCompleted()
		return nil
	}
	round.ParticipantsProvided.Add(sess.Participant)
	return nil
}

func (c *Coordinator) checkExpiryBounds(expiry common.Expiry, min, max time.Duration) error {
	ttl := expiry.TTL()
	if ttl < min {
		return common.NewInvalidRequestf(common.ErrExpiryTooSoon, "ttl %s", ttl)
	}
	if ttl > max {
		return common.NewInvalidRequestf(common.ErrExpiryTooLate, "ttl %s", ttl)
	}
	return nil
}
