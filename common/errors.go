package common

import "fmt"

// RequestErrorKind enumerates every protocol-level rule a client request can
// violate. The kind is what goes over the wire; the server keeps no other
// error state for the caller.
type RequestErrorKind string

const (
	ErrInvalidProtoVersion              RequestErrorKind = "invalidProtoVersion"
	ErrGroupMismatch                    RequestErrorKind = "groupMismatch"
	ErrNoParticipant                    RequestErrorKind = "noParticipant"
	ErrNoSession                        RequestErrorKind = "noSession"
	ErrNoChallenge                      RequestErrorKind = "noChallenge"
	ErrInvalidChallengeSig              RequestErrorKind = "invalidChallengeSig"
	ErrNoDkg                            RequestErrorKind = "noDkg"
	ErrNotRound1Dkg                     RequestErrorKind = "notRound1Dkg"
	ErrNotRound2Dkg                     RequestErrorKind = "notRound2Dkg"
	ErrDkgRequestExists                 RequestErrorKind = "dkgRequestExists"
	ErrDkgCommitmentExists              RequestErrorKind = "dkgCommitmentExists"
	ErrDkgRound2Sent                    RequestErrorKind = "dkgRound2Sent"
	ErrInvalidThreshold                 RequestErrorKind = "invalidThreshold"
	ErrInvalidDkgReqSig                 RequestErrorKind = "invalidDkgReqSig"
	ErrInvalidDkgCommitmentSetSignature RequestErrorKind = "invalidDkgCommitmentSetSignature"
	ErrInvalidSecretMap                 RequestErrorKind = "invalidSecretMap"
	ErrInvalidDkgAckSignature           RequestErrorKind = "invalidDkgAckSignature"
	ErrCannotRequestSelfAck             RequestErrorKind = "cannotRequestSelfAck"
	ErrWrongCommitmentNum               RequestErrorKind = "wrongCommitmentNum"
	ErrWrongSigKeys                     RequestErrorKind = "wrongSigKeys"
	ErrSigRequestExists                 RequestErrorKind = "sigRequestExists"
	ErrInvalidSigReqSignature           RequestErrorKind = "invalidSigReqSignature"
	ErrExpiryTooSoon                    RequestErrorKind = "expiryTooSoon"
	ErrExpiryTooLate                    RequestErrorKind = "expiryTooLate"
	ErrMarkedMalicious                  RequestErrorKind = "markedMalicious"
	ErrEmptySigReply                    RequestErrorKind = "emptySigReply"
	ErrDuplicateSigReply                RequestErrorKind = "duplicateSigReply"
	ErrInvalidSigIndex                  RequestErrorKind = "invalidSigIndex"
	ErrNextCommitmentExists             RequestErrorKind = "nextCommitmentExists"
	ErrUnsolicitedShare                 RequestErrorKind = "unsolicitedShare"
	ErrMissingShare                     RequestErrorKind = "missingShare"
	ErrInvalidShare                     RequestErrorKind = "invalidShare"
	ErrInvalidKeyShareMap               RequestErrorKind = "invalidKeyShareMap"
)

// InvalidRequest is returned synchronously to the calling client whenever a
// request violates a protocol rule. It never indicates server damage: every
// kind is recoverable at the caller.
type InvalidRequest struct {
	Kind RequestErrorKind `json:"kind"`
	Info string           `json:"info,omitempty"`
}

func (e *InvalidRequest) Error() string {
	if e.Info == "" {
		return fmt.Sprintf("invalid request: %s", e.Kind)
	}
	return fmt.Sprintf("invalid request: %s (%s)", e.Kind, e.Info)
}

func NewInvalidRequest(kind RequestErrorKind) *InvalidRequest {
	return &InvalidRequest{Kind: kind}
}

func NewInvalidRequestf(kind RequestErrorKind, format string, args ...interface{}) *InvalidRequest {
	return &InvalidRequest{Kind: kind, Info: fmt.Sprintf(format, args...)}
}

// RequestErrorKindOf extracts the taxonomy kind from an error, empty when the
// error is not an InvalidRequest.
func RequestErrorKindOf(err error) RequestErrorKind {
	if ir, ok := err.(*InvalidRequest); ok {
		return ir.Kind
	}
	return ""
}
