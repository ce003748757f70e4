package rpc

import (
	"github.com/osamingo/jsonrpc/v2"

	"github.com/arcana-network/roastnode/common"
	"github.com/arcana-network/roastnode/coordinator"
	"github.com/arcana-network/roastnode/frost"
	"github.com/arcana-network/roastnode/messages"
)

const (
	LoginMethod                   = "Login"
	RespondToChallengeMethod      = "RespondToChallenge"
	ExtendSessionMethod           = "ExtendSession"
	LogoutMethod                  = "Logout"
	RequestNewDkgMethod           = "RequestNewDkg"
	RejectDkgMethod               = "RejectDkg"
	SubmitDkgCommitmentMethod     = "SubmitDkgCommitment"
	SubmitDkgRound2Method         = "SubmitDkgRound2"
	SendDkgAcksMethod             = "SendDkgAcks"
	RequestDkgAcksMethod          = "RequestDkgAcks"
	RequestSignaturesMethod       = "RequestSignatures"
	RejectSignaturesRequestMethod = "RejectSignaturesRequest"
	SubmitSignatureRepliesMethod  = "SubmitSignatureReplies"
	ShareSecretShareMethod        = "ShareSecretShare"
	HealthMethod                  = "HealthCheck"
)

type (
	LoginParams struct {
		GroupFingerprint common.GroupFingerprint `json:"group_fingerprint"`
		ParticipantID    common.Identifier       `json:"participant_id"`
		ProtocolVersion  int                     `json:"protocol_version"`
	}
	RespondToChallengeParams struct {
		Signed common.Signed[messages.AuthChallenge] `json:"signed"`
	}
	SessionParams struct {
		SessionID string `json:"session_id"`
	}
	RequestNewDkgParams struct {
		SessionID     string                                `json:"session_id"`
		SignedDetails common.Signed[messages.NewDkgDetails] `json:"signed_details"`
		Commitment    frost.DkgCommitment                   `json:"commitment"`
	}
	RejectDkgParams struct {
		SessionID string `json:"session_id"`
		Name      string `json:"name"`
	}
	SubmitDkgCommitmentParams struct {
		SessionID  string              `json:"session_id"`
		Name       string              `json:"name"`
		Commitment frost.DkgCommitment `json:"commitment"`
	}
	SubmitDkgRound2Params struct {
		SessionID              string                                      `json:"session_id"`
		Name                   string                                      `json:"name"`
		CommitmentSetSignature common.Signature                            `json:"commitment_set_signature"`
		Secrets                map[common.Identifier]frost.EncryptedSecret `json:"secrets"`
	}
	SendDkgAcksParams struct {
		SessionID string                  `json:"session_id"`
		Acks      []messages.SignedDkgAck `json:"acks"`
	}
	RequestDkgAcksParams struct {
		SessionID string                   `json:"session_id"`
		Requests  []messages.DkgAckRequest `json:"requests"`
	}
	RequestDkgAcksResult struct {
		Acks []messages.SignedDkgAck `json:"acks"`
	}
	RequestSignaturesParams struct {
		SessionID     string                                           `json:"session_id"`
		Keys          []frost.AggregateKeyInfo                         `json:"keys"`
		SignedDetails common.Signed[messages.SignaturesRequestDetails] `json:"signed_details"`
		Commitments   []frost.SigningCommitment                        `json:"commitments"`
	}
	RejectSignaturesRequestParams struct {
		SessionID string             `json:"session_id"`
		RequestID messages.RequestID `json:"request_id"`
	}
	SubmitSignatureRepliesParams struct {
		SessionID string                    `json:"session_id"`
		RequestID messages.RequestID        `json:"request_id"`
		Replies   []messages.SignatureReply `json:"replies"`
	}
	ShareSecretShareParams struct {
		SessionID        string                                        `json:"session_id"`
		GroupKey         common.GroupKey                               `json:"group_key"`
		EncryptedSecrets map[common.Identifier]frost.EncryptedKeyShare `json:"encrypted_secrets"`
	}
	EmptyResult struct{}
	HealthParams struct{}
	HealthResult struct {
		Status string `json:"status"`
	}
)

// SetUpJRPCHandler registers every coordination operation as a JSON-RPC
// method over the shared coordinator.
func SetUpJRPCHandler(core *coordinator.Coordinator) (*jsonrpc.MethodRepository, error) {
	mr := jsonrpc.NewMethodRepository()

	type method struct {
		name    string
		handler jsonrpc.Handler
		params  interface{}
		result  interface{}
	}
	methods := []method{
		{HealthMethod, HealthHandler{}, HealthParams{}, HealthResult{}},
		{LoginMethod, LoginHandler{core}, LoginParams{}, messages.ChallengeResponse{}},
		{RespondToChallengeMethod, RespondToChallengeHandler{core}, RespondToChallengeParams{}, messages.LoginResponse{}},
		{ExtendSessionMethod, ExtendSessionHandler{core}, SessionParams{}, messages.ExtendSessionResponse{}},
		{LogoutMethod, LogoutHandler{core}, SessionParams{}, EmptyResult{}},
		{RequestNewDkgMethod, RequestNewDkgHandler{core}, RequestNewDkgParams{}, EmptyResult{}},
		{RejectDkgMethod, RejectDkgHandler{core}, RejectDkgParams{}, EmptyResult{}},
		{SubmitDkgCommitmentMethod, SubmitDkgCommitmentHandler{core}, SubmitDkgCommitmentParams{}, EmptyResult{}},
		{SubmitDkgRound2Method, SubmitDkgRound2Handler{core}, SubmitDkgRound2Params{}, EmptyResult{}},
		{SendDkgAcksMethod, SendDkgAcksHandler{core}, SendDkgAcksParams{}, EmptyResult{}},
		{RequestDkgAcksMethod, RequestDkgAcksHandler{core}, RequestDkgAcksParams{}, RequestDkgAcksResult{}},
		{RequestSignaturesMethod, RequestSignaturesHandler{core}, RequestSignaturesParams{}, EmptyResult{}},
		{RejectSignaturesRequestMethod, RejectSignaturesRequestHandler{core}, RejectSignaturesRequestParams{}, EmptyResult{}},
		{SubmitSignatureRepliesMethod, SubmitSignatureRepliesHandler{core}, SubmitSignatureRepliesParams{}, messages.SignatureRepliesResponse{}},
		{ShareSecretShareMethod, ShareSecretShareHandler{core}, ShareSecretShareParams{}, EmptyResult{}},
	}
	for _, m := range methods {
		if err := mr.RegisterMethod(m.name, m.handler, m.params, m.result); err != nil {
			return nil, err
		}
	}
	return mr, nil
}

// requestError maps coordinator failures onto JSON-RPC errors; InvalidRequest
// kinds travel in the error data so clients can dispatch on them.
func requestError(err error) *jsonrpc.Error {
	if kind := common.RequestErrorKindOf(err); kind != "" {
		return &jsonrpc.Error{Code: -32001, Message: "InvalidRequest", Data: string(kind)}
	}
	return &jsonrpc.Error{Code: jsonrpc.ErrorCodeInternal, Message: err.Error()}
}
