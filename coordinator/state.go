package coordinator

import (
	"github.com/arcana-network/roastnode/cache"
	"github.com/arcana-network/roastnode/common"
	"github.com/arcana-network/roastnode/frost"
	"github.com/arcana-network/roastnode/messages"
	"github.com/arcana-network/roastnode/session"
)

// ChallengeState is a pending login: the nonce handed out and the
// participant who asked for it.
type ChallengeState struct {
	Challenge   messages.AuthChallenge
	Participant common.Identifier
	Expiry      common.Expiry
}

func (c *ChallengeState) GetExpiry() common.Expiry {
	return c.Expiry
}

// DkgRound is the per-named-DKG round state: collecting round-1 commitments
// or routing round-2 secrets.
type DkgRound interface {
	isDkgRound()
}

type DkgRound1 struct {
	Commitments []frost.NamedDkgCommitment
}

func (*DkgRound1) isDkgRound() {}

func (r *DkgRound1) HasCommitmentFrom(id common.Identifier) bool {
	for _, c := range r.Commitments {
		if c.ID == id {
			return true
		}
	}
	return false
}

type DkgRound2 struct {
	ExpectedHash         []byte
	ParticipantsProvided common.IdentifierSet
}

func (*DkgRound2) isDkgRound() {}

// DkgState is one named DKG: the signed request, its creator and the
// current round. The expiry is the one the creator signed into the details.
type DkgState struct {
	SignedDetails common.Signed[messages.NewDkgDetails]
	Creator       common.Identifier
	Round         DkgRound
}

func (d *DkgState) GetExpiry() common.Expiry {
	return d.SignedDetails.Obj.Expiry
}

// AckCache holds the signed accept/reject acknowledgements seen for one
// group key.
type AckCache struct {
	Acks   map[common.Identifier]messages.SignedDkgAck
	Expiry common.Expiry
}

func (a *AckCache) GetExpiry() common.Expiry {
	return a.Expiry
}

// RoundState is one live signing round: the frozen commitment set plus the
// shares collected so far.
type RoundState struct {
	Commitments frost.SigningCommitmentSet
	Shares      []frost.NamedSignatureShare
}

func (r *RoundState) HasShareFrom(id common.Identifier) bool {
	for _, s := range r.Shares {
		if s.ID == id {
			return true
		}
	}
	return false
}

// SingleSignatureState is one required signature of a coordination: still
// collecting rounds or finished with its aggregate.
type SingleSignatureState interface {
	isSingleSignatureState()
}

type SigInProgress struct {
	Key             frost.AggregateKeyInfo
	NextCommitments map[common.Identifier]frost.SigningCommitment
	RoundForID      map[common.Identifier]*RoundState
}

func (*SigInProgress) isSingleSignatureState() {}

type SigFinished struct {
	Signature common.Signature
}

func (*SigFinished) isSingleSignatureState() {}

// SignaturesCoordinationState drives the ROAST progress rule for one
// signatures request. Malicious is permanent; Rejectors is revocable; the
// two sets stay disjoint because marking malicious absorbs the rejection.
type SignaturesCoordinationState struct {
	SignedDetails common.Signed[messages.SignaturesRequestDetails]
	Creator       common.Identifier
	Keys          []frost.AggregateKeyInfo
	Sigs          []SingleSignatureState
	Malicious     common.IdentifierSet
	Rejectors     common.IdentifierSet
}

func (s *SignaturesCoordinationState) GetExpiry() common.Expiry {
	return s.SignedDetails.Obj.Expiry
}

// MaxThreshold is the highest threshold among still-unfinished signatures.
func (s *SignaturesCoordinationState) MaxThreshold() int {
	max := 0
	for _, sig := range s.Sigs {
		if ip, ok := sig.(*SigInProgress); ok && ip.Key.Threshold > max {
			max = ip.Key.Threshold
		}
	}
	return max
}

func (s *SignaturesCoordinationState) AllFinished() bool {
	for _, sig := range s.Sigs {
		if _, ok := sig.(*SigFinished); !ok {
			return false
		}
	}
	return true
}

// CompletedSignatures retains a fully resolved request. Acks records which
// participants confirmed receipt; the login snapshot skips those. No API
// path populates it today.
type CompletedSignatures struct {
	SignedDetails common.Signed[messages.SignaturesRequestDetails]
	Signatures    []common.Signature
	Creator       common.Identifier
	Acks          common.IdentifierSet
	Expiry        common.Expiry
}

func (c *CompletedSignatures) GetExpiry() common.Expiry {
	return c.Expiry
}

// ReceiverState tracks recovery-share delivery toward one receiver.
type ReceiverState interface {
	isReceiverState()
}

type ReceiverPending struct {
	PendingForSender      map[common.Identifier]frost.EncryptedKeyShare
	AcknowledgedForSender common.IdentifierSet
}

func (*ReceiverPending) isReceiverState() {}

type ReceiverDone struct{}

func (*ReceiverDone) isReceiverState() {}

// KeySharingState is the per-group-key recovery-share routing table.
type KeySharingState struct {
	ReceiverShares map[common.Identifier]ReceiverState
	Expiry         common.Expiry
}

func (k *KeySharingState) GetExpiry() common.Expiry {
	return k.Expiry
}

// markReceiverDone collapses a receiver's pending state. No request op
// reaches this today; clients signal receipt out of band.
func (k *KeySharingState) markReceiverDone(receiver common.Identifier) {
	k.ReceiverShares[receiver] = &ReceiverDone{}
}

// ServerState aggregates every expirable table the coordinator owns. All
// access happens under the coordinator's request lock.
type ServerState struct {
	Challenges          *cache.ExpirableMap[string, *ChallengeState]
	Sessions            *cache.ExpirableMap[string, *session.ClientSession]
	ParticipantSessions map[common.Identifier]string
	Dkgs                *cache.ExpirableMap[string, *DkgState]
	AckCaches           *cache.ExpirableMap[common.GroupKey, *AckCache]
	SigRequests         *cache.ExpirableMap[messages.RequestID, *SignaturesCoordinationState]
	CompletedSigs       *cache.ExpirableMap[messages.RequestID, *CompletedSignatures]
	KeySharing          *cache.ExpirableMap[common.GroupKey, *KeySharingState]
}

// NewServerState wires the tables; session expiry runs the end-session side
// effects through onSessionExpired.
func NewServerState(onSessionExpired func(string, *session.ClientSession)) *ServerState {
	return &ServerState{
		Challenges:          cache.NewExpirableMap[string, *ChallengeState](nil),
		Sessions:            cache.NewExpirableMap[string, *session.ClientSession](onSessionExpired),
		ParticipantSessions: make(map[common.Identifier]string),
		Dkgs:                cache.NewExpirableMap[string, *DkgState](nil),
		AckCaches:           cache.NewExpirableMap[common.GroupKey, *AckCache](nil),
		SigRequests:         cache.NewExpirableMap[messages.RequestID, *SignaturesCoordinationState](nil),
		CompletedSigs:       cache.NewExpirableMap[messages.RequestID, *CompletedSignatures](nil),
		KeySharing:          cache.NewExpirableMap[common.GroupKey, *KeySharingState](nil),
	}
}
