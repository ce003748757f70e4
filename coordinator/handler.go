package coordinator

import (
	"crypto/rand"
	"sync"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/arcana-network/roastnode/common"
	"github.com/arcana-network/roastnode/config"
	"github.com/arcana-network/roastnode/frost"
	"github.com/arcana-network/roastnode/messages"
	"github.com/arcana-network/roastnode/session"
	"github.com/arcana-network/roastnode/telemetry"
)

// ProtocolVersion is the only client protocol version this node speaks.
const ProtocolVersion = 1

// Coordinator is the sequential request handler: it owns the ServerState,
// validates every client request against it, mutates it and fans events out
// to the affected sessions. One request mutates state at a time; the mutex
// is the whole concurrency story, per the data model's contract.
type Coordinator struct {
	mu sync.Mutex

	conf        *config.Config
	group       common.GroupConfig
	fingerprint common.GroupFingerprint
	suite       frost.Suite
	state       *ServerState
	metrics     *telemetry.CoordinatorMetrics
}

func New(conf *config.Config, suite frost.Suite) *Coordinator {
	c := &Coordinator{
		conf:        conf,
		group:       conf.Group,
		fingerprint: conf.Group.Fingerprint(),
		suite:       suite,
		metrics:     telemetry.NewCoordinatorMetrics(),
	}
	c.state = NewServerState(c.onSessionExpired)
	return c
}

// Login starts authentication: the caller names itself and receives a fresh
// nonce to sign.
func (c *Coordinator) Login(
	groupFingerprint common.GroupFingerprint,
	participant common.Identifier,
	protocolVersion int,
) (*messages.ChallengeResponse, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if protocolVersion != ProtocolVersion {
		return nil, common.NewInvalidRequestf(common.ErrInvalidProtoVersion, "got %d", protocolVersion)
	}
	if groupFingerprint != c.fingerprint {
		return nil, common.NewInvalidRequest(common.ErrGroupMismatch)
	}
	if !c.group.Has(participant) {
		return nil, common.NewInvalidRequestf(common.ErrNoParticipant, "%s", participant)
	}

	nonce := make([]byte, 16)
	if _, err := rand.Read(nonce); err != nil {
		return nil, err
	}
	challenge := messages.AuthChallenge{Nonce: nonce}
	state := &ChallengeState{
		Challenge:   challenge,
		Participant: participant,
		Expiry:      common.ExpiresIn(c.conf.ChallengeTTL),
	}
	c.state.Challenges.Put(challenge.Key(), state)

	c.metrics.CountLoginStarted()
	return &messages.ChallengeResponse{Challenge: challenge, Expiry: state.Expiry}, nil
}

// RespondToChallenge turns a signed nonce into a session and returns the
// full re-hydration snapshot. A previous session of the same participant is
// ended first, so peers observe the logout before the login.
func (c *Coordinator) RespondToChallenge(
	signed common.Signed[messages.AuthChallenge],
) (*messages.LoginResponse, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := signed.Obj.Key()
	challenge, ok := c.state.Challenges.Get(key)
	if !ok {
		return nil, common.NewInvalidRequest(common.ErrNoChallenge)
	}
	pubKey, _ := c.group.PublicKey(challenge.Participant)
	if !frost.VerifySigned(signed, pubKey) {
		return nil, common.NewInvalidRequest(common.ErrInvalidChallengeSig)
	}
	c.state.Challenges.Remove(key)

	participant := challenge.Participant
	if oldSid, ok := c.state.ParticipantSessions[participant]; ok {
		if old, ok := c.state.Sessions.Get(oldSid); ok {
			c.endSessionLocked(old)
		}
	}

	online := c.onlineParticipantsLocked()
	c.broadcastLocked(messages.ParticipantStatusEvent{ID: participant, LoggedIn: true})

	sess := session.New(participant, uuid.NewString(), common.ExpiresIn(c.conf.SessionTTL))
	sess.OnLostStream(c.sessionLost)
	sess.OnDroppedEvent(c.metrics.CountDroppedEvent)
	c.state.Sessions.Put(sess.ID, sess)
	c.state.ParticipantSessions[participant] = sess.ID
	if c.conf.KeepAliveFreq > 0 {
		sess.StartKeepalive(c.conf.KeepAliveFreq)
	}

	log.WithFields(log.Fields{
		"Participant": participant,
		"SessionID":   sess.ID,
	}).Info("participant logged in")
	c.metrics.CountLogin()

	return c.loginSnapshotLocked(sess, online), nil
}

// ExtendSession refreshes the caller's session expiry.
func (c *Coordinator) ExtendSession(sid string) (*messages.ExtendSessionResponse, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	sess, err := c.sessionLocked(sid)
	if err != nil {
		return nil, err
	}
	expiry := common.ExpiresIn(c.conf.SessionTTL)
	sess.SetExpiry(expiry)
	// Reinstall so the backing TTL follows the refreshed expiry.
	c.state.Sessions.Put(sess.ID, sess)
	return &messages.ExtendSessionResponse{Expiry: expiry}, nil
}

// Logout ends the caller's session explicitly. Same side effects as a lost
// stream or an expiry.
func (c *Coordinator) Logout(sid string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	sess, err := c.sessionLocked(sid)
	if err != nil {
		return err
	}
	c.endSessionLocked(sess)
	return nil
}

// sessionLost is the stream-loss hook: invoked from transport goroutines
// when a subscriber departs.
func (c *Coordinator) sessionLost(sess *session.ClientSession) {
	c.mu.Lock()
	defer c.mu.Unlock()

	// Only end the session if it is still the live one for the participant;
	// a re-login may already have replaced it.
	if sid, ok := c.state.ParticipantSessions[sess.Participant]; !ok || sid != sess.ID {
		return
	}
	log.WithField("Participant", sess.Participant).Info("event stream lost")
	c.endSessionLocked(sess)
}

// onSessionExpired is the ExpirableMap eviction hook; the entry itself is
// already gone from the session table.
func (c *Coordinator) onSessionExpired(sid string, sess *session.ClientSession) {
	log.WithField("Participant", sess.Participant).Info("session expired")
	c.finishSessionLocked(sess, sid)
}

// endSessionLocked removes the session and runs the end-session side
// effects.
func (c *Coordinator) endSessionLocked(sess *session.ClientSession) {
	c.state.Sessions.Remove(sess.ID)
	c.finishSessionLocked(sess, sess.ID)
}

// finishSessionLocked runs the side effects shared by every session-ending
// route: index cleanup, DKG demotion, sink close and the logout broadcast.
func (c *Coordinator) finishSessionLocked(sess *session.ClientSession, sid string) {
	if current, ok := c.state.ParticipantSessions[sess.Participant]; ok && current == sid {
		delete(c.state.ParticipantSessions, sess.Participant)
	}

	// Both DKG rounds require everyone online: a departure invalidates a
	// round-2 commitment set entirely and removes the participant's own
	// round-1 commitment.
	c.state.Dkgs.Range(func(name string, dkg *DkgState) bool {
		switch round := dkg.Round.(type) {
		case *DkgRound2:
			dkg.Round = &DkgRound1{}
			log.WithFields(log.Fields{
				"Dkg":         name,
				"Participant": sess.Participant,
			}).Info("participant left, DKG demoted to round 1")
		case *DkgRound1:
			for i, commitment := range round.Commitments {
				if commitment.ID == sess.Participant {
					round.Commitments = append(round.Commitments[:i], round.Commitments[i+1:]...)
					break
				}
			}
		}
		return true
	})

	sess.Close()
	c.broadcastLocked(messages.ParticipantStatusEvent{ID: sess.Participant, LoggedIn: false})
}

// sessionLocked resolves a session id, observing expiry lazily.
func (c *Coordinator) sessionLocked(sid string) (*session.ClientSession, error) {
	sess, ok := c.state.Sessions.Get(sid)
	if !ok {
		return nil, common.NewInvalidRequest(common.ErrNoSession)
	}
	return sess, nil
}

// SessionByID is the transport hook for attaching an event stream.
func (c *Coordinator) SessionByID(sid string) (*session.ClientSession, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	sess, ok := c.state.Sessions.Get(sid)
	return sess, ok
}

func (c *Coordinator) onlineParticipantsLocked() []common.Identifier {
	ids := make([]common.Identifier, 0, len(c.state.ParticipantSessions))
	for _, sess := range c.state.Sessions.Values() {
		ids = append(ids, sess.Participant)
	}
	common.SortIdentifiers(ids)
	return ids
}

// broadcastLocked fans an event out to every live session except the
// excluded participants. Delivery never blocks the request.
func (c *Coordinator) broadcastLocked(ev messages.Event, exclude ...common.Identifier) {
	excluded := common.NewIdentifierSet(exclude...)
	for _, sess := range c.state.Sessions.Values() {
		if excluded.Has(sess.Participant) {
			continue
		}
		sess.SendEvent(ev)
	}
}

// sendToParticipantLocked delivers an event to one participant when online.
func (c *Coordinator) sendToParticipantLocked(id common.Identifier, ev messages.Event) {
	sid, ok := c.state.ParticipantSessions[id]
	if !ok {
		return
	}
	if sess, ok := c.state.Sessions.Get(sid); ok {
		sess.SendEvent(ev)
	}
}

// loginSnapshotLocked builds the re-hydration snapshot for a fresh session.
func (c *Coordinator) loginSnapshotLocked(
	sess *session.ClientSession,
	online []common.Identifier,
) *messages.LoginResponse {
	resp := &messages.LoginResponse{
		SessionID:          sess.ID,
		Expiry:             sess.GetExpiry(),
		OnlineParticipants: online,
	}

	c.state.Dkgs.Range(func(name string, dkg *DkgState) bool {
		if round, ok := dkg.Round.(*DkgRound1); ok {
			resp.NewDkgs = append(resp.NewDkgs, messages.NewDkgEvent{
				Details:     dkg.SignedDetails,
				Creator:     dkg.Creator,
				Commitments: round.Commitments,
			})
		}
		return true
	})

	c.state.SigRequests.Range(func(id messages.RequestID, st *SignaturesCoordinationState) bool {
		resp.SigRequests = append(resp.SigRequests, messages.SignaturesRequestEvent{
			Details: st.SignedDetails,
			Creator: st.Creator,
		})
		var owed []messages.RoundStart
		for sigI, sig := range st.Sigs {
			ip, ok := sig.(*SigInProgress)
			if !ok {
				continue
			}
			round, ok := ip.RoundForID[sess.Participant]
			if !ok || round.HasShareFrom(sess.Participant) {
				continue
			}
			owed = append(owed, messages.RoundStart{SigIndex: sigI, Commitments: round.Commitments})
		}
		if len(owed) > 0 {
			resp.SigRounds = append(resp.SigRounds, messages.SignatureNewRoundsEvent{
				RequestID: id,
				Rounds:    owed,
			})
		}
		return true
	})

	c.state.CompletedSigs.Range(func(id messages.RequestID, done *CompletedSignatures) bool {
		if !done.Acks.Has(sess.Participant) {
			resp.CompletedSigs = append(resp.CompletedSigs, messages.SignaturesCompleteEvent{
				RequestID:  id,
				Signatures: done.Signatures,
			})
		}
		return true
	})

	c.state.KeySharing.Range(func(groupKey common.GroupKey, sharing *KeySharingState) bool {
		pending, ok := sharing.ReceiverShares[sess.Participant].(*ReceiverPending)
		if !ok {
			return true
		}
		for sender, share := range pending.PendingForSender {
			resp.SecretShares = append(resp.SecretShares, messages.SecretShareEvent{
				Sender:   sender,
				GroupKey: groupKey,
				KeyShare: share,
			})
		}
		return true
	})

	return resp
}
