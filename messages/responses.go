package messages

import (
	"github.com/arcana-network/roastnode/common"
)

// LoginResponse is the re-hydration snapshot returned when a challenge
// response succeeds. It reflects the server's view at the instant the
// session was installed; everything later arrives over the event stream.
type LoginResponse struct {
	SessionID          string                    `json:"session_id"`
	Expiry             common.Expiry             `json:"expiry"`
	OnlineParticipants []common.Identifier       `json:"online_participants"`
	NewDkgs            []NewDkgEvent             `json:"new_dkgs"`
	SigRequests        []SignaturesRequestEvent  `json:"sig_requests"`
	SigRounds          []SignatureNewRoundsEvent `json:"sig_rounds"`
	CompletedSigs      []SignaturesCompleteEvent `json:"completed_sigs"`
	SecretShares       []SecretShareEvent        `json:"secret_shares"`
}

// ChallengeResponse is what Login hands back: the nonce to sign.
type ChallengeResponse struct {
	Challenge AuthChallenge `json:"challenge"`
	Expiry    common.Expiry `json:"expiry"`
}

// ExtendSessionResponse carries the refreshed session expiry.
type ExtendSessionResponse struct {
	Expiry common.Expiry `json:"expiry"`
}

const (
	SignatureRepliesNewRounds = "newRounds"
	SignatureRepliesComplete  = "complete"
)

// SignatureRepliesResponse is the tagged result of SubmitSignatureReplies.
// A nil response means neither completion nor a new round concerning the
// caller.
type SignatureRepliesResponse struct {
	Kind       string             `json:"kind"`
	Rounds     []RoundStart       `json:"rounds,omitempty"`
	Signatures []common.Signature `json:"signatures,omitempty"`
}

func NewRoundsResponse(rounds []RoundStart) *SignatureRepliesResponse {
	return &SignatureRepliesResponse{Kind: SignatureRepliesNewRounds, Rounds: rounds}
}

func CompleteResponse(signatures []common.Signature) *SignatureRepliesResponse {
	return &SignatureRepliesResponse{Kind: SignatureRepliesComplete, Signatures: signatures}
}
