package messages

import (
	"github.com/pkg/errors"
	"github.com/torusresearch/bijson"

	"github.com/arcana-network/roastnode/common"
	"github.com/arcana-network/roastnode/frost"
)

// Event is the tagged union pushed over a session's one-way stream.
// Dispatch is by Kind, never by reflection.
type Event interface {
	EventKind() string
}

const (
	ParticipantStatusEventKind  = "participantStatus"
	NewDkgEventKind             = "newDkg"
	DkgCommitmentEventKind      = "dkgCommitment"
	DkgRejectEventKind          = "dkgReject"
	DkgRound2ShareEventKind     = "dkgRound2Share"
	DkgAckEventKind             = "dkgAck"
	DkgAckRequestEventKind      = "dkgAckRequest"
	SignaturesRequestEventKind  = "signaturesRequest"
	SignatureNewRoundsEventKind = "signatureNewRounds"
	SignaturesCompleteEventKind = "signaturesComplete"
	SignaturesFailureEventKind  = "signaturesFailure"
	SecretShareEventKind        = "secretShare"
	KeepaliveEventKind          = "keepalive"
)

type ParticipantStatusEvent struct {
	ID       common.Identifier `json:"id"`
	LoggedIn bool              `json:"logged_in"`
}

func (ParticipantStatusEvent) EventKind() string { return ParticipantStatusEventKind }

type NewDkgEvent struct {
	Details     common.Signed[NewDkgDetails] `json:"details"`
	Creator     common.Identifier            `json:"creator"`
	Commitments []frost.NamedDkgCommitment   `json:"commitments"`
}

func (NewDkgEvent) EventKind() string { return NewDkgEventKind }

type DkgCommitmentEvent struct {
	Name        string              `json:"name"`
	Participant common.Identifier   `json:"participant"`
	Commitment  frost.DkgCommitment `json:"commitment"`
}

func (DkgCommitmentEvent) EventKind() string { return DkgCommitmentEventKind }

type DkgRejectEvent struct {
	Name        string            `json:"name"`
	Participant common.Identifier `json:"participant"`
}

func (DkgRejectEvent) EventKind() string { return DkgRejectEventKind }

type DkgRound2ShareEvent struct {
	Name                   string                `json:"name"`
	CommitmentSetSignature common.Signature      `json:"commitment_set_signature"`
	Sender                 common.Identifier     `json:"sender"`
	Secret                 frost.EncryptedSecret `json:"secret"`
}

func (DkgRound2ShareEvent) EventKind() string { return DkgRound2ShareEventKind }

type DkgAckEvent struct {
	Acks []SignedDkgAck `json:"acks"`
}

func (DkgAckEvent) EventKind() string { return DkgAckEventKind }

type DkgAckRequestEvent struct {
	Requests []DkgAckRequest `json:"requests"`
}

func (DkgAckRequestEvent) EventKind() string { return DkgAckRequestEventKind }

type SignaturesRequestEvent struct {
	Details common.Signed[SignaturesRequestDetails] `json:"details"`
	Creator common.Identifier                       `json:"creator"`
}

func (SignaturesRequestEvent) EventKind() string { return SignaturesRequestEventKind }

type SignatureNewRoundsEvent struct {
	RequestID RequestID    `json:"request_id"`
	Rounds    []RoundStart `json:"rounds"`
}

func (SignatureNewRoundsEvent) EventKind() string { return SignatureNewRoundsEventKind }

type SignaturesCompleteEvent struct {
	RequestID  RequestID          `json:"request_id"`
	Signatures []common.Signature `json:"signatures"`
}

func (SignaturesCompleteEvent) EventKind() string { return SignaturesCompleteEventKind }

type SignaturesFailureEvent struct {
	RequestID RequestID `json:"request_id"`
}

func (SignaturesFailureEvent) EventKind() string { return SignaturesFailureEventKind }

type SecretShareEvent struct {
	Sender   common.Identifier       `json:"sender"`
	GroupKey common.GroupKey         `json:"group_key"`
	KeyShare frost.EncryptedKeyShare `json:"key_share"`
}

func (SecretShareEvent) EventKind() string { return SecretShareEventKind }

type KeepaliveEvent struct{}

func (KeepaliveEvent) EventKind() string { return KeepaliveEventKind }

// Envelope is the wire form of an event: the kind tag plus the event body.
type Envelope struct {
	Kind    string            `json:"kind"`
	Payload bijson.RawMessage `json:"payload"`
}

func WrapEvent(ev Event) (Envelope, error) {
	payload, err := bijson.Marshal(ev)
	if err != nil {
		return Envelope{}, err
	}
	return Envelope{Kind: ev.EventKind(), Payload: payload}, nil
}

func (e Envelope) Decode() (Event, error) {
	var target Event
	switch e.Kind {
	case ParticipantStatusEventKind:
		target = &ParticipantStatusEvent{}
	case NewDkgEventKind:
		target = &NewDkgEvent{}
	case DkgCommitmentEventKind:
		target = &DkgCommitmentEvent{}
	case DkgRejectEventKind:
		target = &DkgRejectEvent{}
	case DkgRound2ShareEventKind:
		target = &DkgRound2ShareEvent{}
	case DkgAckEventKind:
		target = &DkgAckEvent{}
	case DkgAckRequestEventKind:
		target = &DkgAckRequestEvent{}
	case SignaturesRequestEventKind:
		target = &SignaturesRequestEvent{}
	case SignatureNewRoundsEventKind:
		target = &SignatureNewRoundsEvent{}
	case SignaturesCompleteEventKind:
		target = &SignaturesCompleteEvent{}
	case SignaturesFailureEventKind:
		target = &SignaturesFailureEvent{}
	case SecretShareEventKind:
		target = &SecretShareEvent{}
	case KeepaliveEventKind:
		target = &KeepaliveEvent{}
	default:
		return nil, errors.Errorf("unknown event kind %q", e.Kind)
	}
	if err := bijson.Unmarshal(e.Payload, target); err != nil {
		return nil, err
	}
	return target, nil
}
