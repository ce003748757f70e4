package coordinator

import (
	log "github.com/sirupsen/logrus"

	"github.com/arcana-network/roastnode/common"
	"github.com/arcana-network/roastnode/frost"
	"github.com/arcana-network/roastnode/messages"
)

// RequestSignatures opens a ROAST coordination for the signed request
// details, seeding every required signature with the creator's first
// commitment.
func (c *Coordinator) RequestSignatures(
	sid string,
	keys []frost.AggregateKeyInfo,
	signedDetails common.Signed[messages.SignaturesRequestDetails],
	commitments []frost.SigningCommitment,
) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	sess, err := c.sessionLocked(sid)
	if err != nil {
		return err
	}
	details := signedDetails.Obj
	if len(commitments) != len(details.RequiredSigs) {
		return common.NewInvalidRequestf(common.ErrWrongCommitmentNum,
			"%d commitments for %d sigs", len(commitments), len(details.RequiredSigs))
	}
	if !sameGroupKeySets(keys, details.RequestedGroupKeys()) {
		return common.NewInvalidRequest(common.ErrWrongSigKeys)
	}
	if err := c.checkExpiryBounds(details.Expiry, c.conf.MinSignaturesRequestTTL, c.conf.MaxSignaturesRequestTTL); err != nil {
		return err
	}
	reqID := details.ID()
	if c.state.SigRequests.Contains(reqID) || c.state.CompletedSigs.Contains(reqID) {
		return common.NewInvalidRequestf(common.ErrSigRequestExists, "%s", reqID)
	}
	pubKey, _ := c.group.PublicKey(sess.Participant)
	if !frost.VerifySigned(signedDetails, pubKey) {
		return common.NewInvalidRequest(common.ErrInvalidSigReqSignature)
	}

	st := &SignaturesCoordinationState{
		SignedDetails: signedDetails,
		Creator:       sess.Participant,
		Keys:          keys,
		Malicious:     common.NewIdentifierSet(),
		Rejectors:     common.NewIdentifierSet(),
	}
	for i, required := range details.RequiredSigs {
		key, ok := keyInfoFor(keys, required.GroupKey)
		if !ok {
			return common.NewInvalidRequest(common.ErrWrongSigKeys)
		}
		st.Sigs = append(st.Sigs, &SigInProgress{
			Key: key,
			NextCommitments: map[common.Identifier]frost.SigningCommitment{
				sess.Participant: commitments[i],
			},
			RoundForID: make(map[common.Identifier]*RoundState),
		})
	}
	c.state.SigRequests.Put(reqID, st)

	log.WithFields(log.Fields{
		"RequestID": reqID,
		"Sigs":      len(st.Sigs),
		"Creator":   sess.Participant,
	}).Info("signature coordination started")
	c.metrics.CountSigRequested()

	c.broadcastLocked(messages.SignaturesRequestEvent{
		Details: signedDetails,
		Creator: sess.Participant,
	}, sess.Participant)
	return nil
}

// RejectSignaturesRequest records a participant's refusal. A request that
// is already gone is a tolerated race; a malicious participant's rejection
// changes nothing. The creator may reject their own request.
func (c *Coordinator) RejectSignaturesRequest(sid string, reqID messages.RequestID) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	sess, err := c.sessionLocked(sid)
	if err != nil {
		return err
	}
	st, ok := c.state.SigRequests.Get(reqID)
	if !ok {
		return nil
	}
	if st.Malicious.Has(sess.Participant) {
		return nil
	}
	st.Rejectors.Add(sess.Participant)
	c.failureCheckLocked(reqID, st)
	return nil
}

// SubmitSignatureReplies processes a batch of per-signature replies per the
// ROAST progress rule: verified shares fill the live round, commitments for
// the next round pipeline one ahead, and any protocol violation marks the
// caller malicious before the call fails.
func (c *Coordinator) SubmitSignatureReplies(
	sid string,
	reqID messages.RequestID,
	replies []messages.SignatureReply,
) (*messages.SignatureRepliesResponse, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	sess, err := c.sessionLocked(sid)
	if err != nil {
		return nil, err
	}
	st, ok := c.state.SigRequests.Get(reqID)
	if !ok {
		// Tolerated race with completion or failure.
		return nil, nil
	}
	caller := sess.Participant
	if st.Malicious.Has(caller) {
		return nil, common.NewInvalidRequest(common.ErrMarkedMalicious)
	}

	// Submitting replies is re-acceptance; it counts immediately.
	st.Rejectors.Remove(caller)

	punish := func(kind common.RequestErrorKind) error {
		st.Malicious.Add(caller)
		st.Rejectors.Remove(caller)
		log.WithFields(log.Fields{
			"RequestID":   reqID,
			"Participant": caller,
			"Reason":      kind,
		}).Warn("participant marked malicious")
		c.failureCheckLocked(reqID, st)
		return common.NewInvalidRequest(kind)
	}

	if len(replies) == 0 {
		return nil, punish(common.ErrEmptySigReply)
	}
	seen := make(map[int]struct{}, len(replies))
	for _, reply := range replies {
		if _, dup := seen[reply.SigIndex]; dup {
			return nil, punish(common.ErrDuplicateSigReply)
		}
		seen[reply.SigIndex] = struct{}{}
	}

	details := st.SignedDetails.Obj
	newRoundsFor := make(map[common.Identifier][]messages.RoundStart)

	for _, reply := range replies {
		if reply.SigIndex < 0 || reply.SigIndex >= len(st.Sigs) {
			return nil, punish(common.ErrInvalidSigIndex)
		}
		ip, inProgress := st.Sigs[reply.SigIndex].(*SigInProgress)
		if !inProgress {
			continue
		}
		if _, exists := ip.NextCommitments[caller]; exists {
			return nil, punish(common.ErrNextCommitmentExists)
		}

		required := details.RequiredSigs[reply.SigIndex]
		round, inRound := ip.RoundForID[caller]
		if !inRound {
			if reply.Share != nil {
				return nil, punish(common.ErrUnsolicitedShare)
			}
		} else {
			if reply.Share == nil {
				return nil, punish(common.ErrMissingShare)
			}
			derived, err := ip.Key.Derive(required.HDDerivation)
			if err != nil {
				return nil, punish(common.ErrInvalidShare)
			}
			if !c.suite.VerifySignatureShare(
				round.Commitments,
				required.SignDetails,
				caller,
				reply.Share,
				derived.VerificationShares[caller],
				derived.GroupKey,
			) {
				return nil, punish(common.ErrInvalidShare)
			}
			round.Shares = append(round.Shares, frost.NamedSignatureShare{ID: caller, Share: reply.Share})

			if len(round.Shares) == ip.Key.Threshold {
				signature, err := c.suite.Aggregate(round.Commitments, required.SignDetails, round.Shares, derived)
				if err != nil {
					// Every share in the round verified; aggregation over
					// them is infallible short of a suite bug.
					log.WithError(err).WithField("RequestID", reqID).Error("share aggregation failed")
					return nil, err
				}
				st.Sigs[reply.SigIndex] = &SigFinished{Signature: signature}
			}
		}

		ip, inProgress = st.Sigs[reply.SigIndex].(*SigInProgress)
		if !inProgress {
			continue
		}
		ip.NextCommitments[caller] = reply.NextCommitment

		if len(ip.NextCommitments) == ip.Key.Threshold {
			set := frost.NewSigningCommitmentSet(ip.NextCommitments)
			fresh := &RoundState{Commitments: set}
			for _, id := range set.Identifiers() {
				ip.RoundForID[id] = fresh
			}
			ip.NextCommitments = make(map[common.Identifier]frost.SigningCommitment)
			start := messages.RoundStart{SigIndex: reply.SigIndex, Commitments: set}
			for _, id := range set.Identifiers() {
				newRoundsFor[id] = append(newRoundsFor[id], start)
			}
		}
	}

	if st.AllFinished() {
		return c.completeCoordinationLocked(reqID, st, caller), nil
	}

	if len(newRoundsFor) > 0 {
		for id, rounds := range newRoundsFor {
			if id == caller {
				continue
			}
			c.sendToParticipantLocked(id, messages.SignatureNewRoundsEvent{
				RequestID: reqID,
				Rounds:    rounds,
			})
		}
		if rounds, ok := newRoundsFor[caller]; ok {
			return messages.NewRoundsResponse(rounds), nil
		}
	}
	return nil, nil
}

// completeCoordinationLocked promotes a fully finished coordination into the
// completed-signatures table and announces the result.
func (c *Coordinator) completeCoordinationLocked(
	reqID messages.RequestID,
	st *SignaturesCoordinationState,
	caller common.Identifier,
) *messages.SignatureRepliesResponse {
	signatures := make([]common.Signature, 0, len(st.Sigs))
	for _, sig := range st.Sigs {
		signatures = append(signatures, sig.(*SigFinished).Signature)
	}

	expiry := common.ExpiresIn(c.conf.MinCompletedSignaturesTTL)
	if requestExpiry := st.SignedDetails.Obj.Expiry; requestExpiry.Deadline.After(expiry.Deadline) {
		expiry = requestExpiry
	}
	c.state.CompletedSigs.Put(reqID, &CompletedSignatures{
		SignedDetails: st.SignedDetails,
		Signatures:    signatures,
		Creator:       st.Creator,
		Acks:          common.NewIdentifierSet(),
		Expiry:        expiry,
	})
	c.state.SigRequests.Remove(reqID)

	log.WithFields(log.Fields{
		"RequestID":  reqID,
		"Signatures": len(signatures),
	}).Info("signature coordination complete")
	c.metrics.CountSigCompleted()

	c.broadcastLocked(messages.SignaturesCompleteEvent{
		RequestID:  reqID,
		Signatures: signatures,
	}, caller)
	return messages.CompleteResponse(signatures)
}

// failureCheckLocked aborts the coordination as soon as the remaining pool
// cannot meet the highest threshold still in play.
func (c *Coordinator) failureCheckLocked(reqID messages.RequestID, st *SignaturesCoordinationState) {
	unavailable := st.Malicious.Len() + st.Rejectors.Len()
	available := c.group.Size() - unavailable
	maxThreshold := st.MaxThreshold()
	if available >= maxThreshold {
		return
	}

	c.state.SigRequests.Remove(reqID)
	log.WithFields(log.Fields{
		"RequestID":    reqID,
		"Available":    available,
		"MaxThreshold": maxThreshold,
	}).Warn("signature coordination failed")
	c.metrics.CountSigFailed()
	c.broadcastLocked(messages.SignaturesFailureEvent{RequestID: reqID})
}

func keyInfoFor(keys []frost.AggregateKeyInfo, groupKey common.GroupKey) (frost.AggregateKeyInfo, bool) {
	for _, key := range keys {
		if key.GroupKey == groupKey {
			return key, true
		}
	}
	return frost.AggregateKeyInfo{}, false
}

func sameGroupKeySets(keys []frost.AggregateKeyInfo, wanted map[common.GroupKey]struct{}) bool {
	provided := make(map[common.GroupKey]struct{}, len(keys))
	for _, key := range keys {
		provided[key.GroupKey] = struct{}{}
	}
	if len(provided) != len(wanted) {
		return false
	}
	for groupKey := range wanted {
		if _, ok := provided[groupKey]; !ok {
			return false
		}
	}
	return true
}
