package messages

import (
	"encoding/hex"

	"github.com/torusresearch/bijson"

	"github.com/arcana-network/roastnode/common"
	"github.com/arcana-network/roastnode/frost"
)

// AuthChallenge is the fresh 16-byte nonce a participant must sign to turn
// a login attempt into a session.
type AuthChallenge struct {
	Nonce []byte `json:"nonce"`
}

func (c AuthChallenge) Key() string {
	return hex.EncodeToString(c.Nonce)
}

// NewDkgDetails describes a requested distributed key generation, signed by
// its creator.
type NewDkgDetails struct {
	Name        string        `json:"name"`
	Description string        `json:"description"`
	Threshold   int           `json:"threshold"`
	Expiry      common.Expiry `json:"expiry"`
}

// DkgAck is one participant's signed statement that they do or do not hold
// a valid share for the given group key.
type DkgAck struct {
	GroupKey common.GroupKey `json:"group_key"`
	Accepted bool            `json:"accepted"`
}

// SignedDkgAck carries a DkgAck together with its claimed signer; the
// signature is checked against the signer's long-term key.
type SignedDkgAck struct {
	Signer common.Identifier     `json:"signer"`
	Signed common.Signed[DkgAck] `json:"signed"`
}

// DkgAckRequest asks for cached acknowledgements of the given participants
// for one group key.
type DkgAckRequest struct {
	IDs            []common.Identifier `json:"ids"`
	GroupPublicKey common.GroupKey     `json:"group_public_key"`
}

// SingleSignatureDetails names one signature a request wants: the message
// plus sighash type, the master group key and the HD path to the actual
// signing key.
type SingleSignatureDetails struct {
	SignDetails  frost.SignDetails `json:"sign_details"`
	GroupKey     common.GroupKey   `json:"group_key"`
	HDDerivation frost.HDPath      `json:"hd_derivation"`
}

// RequestID is the 16-byte fingerprint identifying a signatures request,
// hex encoded.
type RequestID string

// SignaturesRequestDetails is the signed body of a signatures request.
type SignaturesRequestDetails struct {
	RequiredSigs []SingleSignatureDetails `json:"required_sigs"`
	Expiry       common.Expiry            `json:"expiry"`
}

// RequestedGroupKeys is the key set the request spans, for set comparison
// against the caller-supplied AggregateKeyInfos.
func (d SignaturesRequestDetails) RequestedGroupKeys() map[common.GroupKey]struct{} {
	keys := make(map[common.GroupKey]struct{}, len(d.RequiredSigs))
	for _, sig := range d.RequiredSigs {
		keys[sig.GroupKey] = struct{}{}
	}
	return keys
}

// ID derives the request fingerprint from the struct itself, so the same
// request body always names the same coordination.
func (d SignaturesRequestDetails) ID() RequestID {
	serialized, err := bijson.Marshal(d)
	if err != nil {
		// Details are plain data; marshalling cannot fail.
		panic(err)
	}
	return RequestID(hex.EncodeToString(common.Keccak256(serialized)[:16]))
}

// SignatureReply is one entry of a SubmitSignatureReplies call: the index of
// the signature it concerns, the commitment for the next round and, when the
// caller is part of a live round, the share for the current one.
type SignatureReply struct {
	SigIndex       int                     `json:"sig_index"`
	NextCommitment frost.SigningCommitment `json:"next_commitment"`
	Share          frost.SignatureShare    `json:"share,omitempty"`
}

// RoundStart describes a freshly opened signing round to one of its
// commitment holders.
type RoundStart struct {
	SigIndex    int                        `json:"sig_index"`
	Commitments frost.SigningCommitmentSet `json:"commitments"`
}
