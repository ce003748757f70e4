package rpc

import (
	"context"

	fastjson "github.com/goccy/go-json"
	"github.com/osamingo/jsonrpc/v2"

	"github.com/arcana-network/roastnode/coordinator"
)

type (
	HealthHandler                  struct{}
	LoginHandler                   struct{ core *coordinator.Coordinator }
	RespondToChallengeHandler      struct{ core *coordinator.Coordinator }
	ExtendSessionHandler           struct{ core *coordinator.Coordinator }
	LogoutHandler                  struct{ core *coordinator.Coordinator }
	RequestNewDkgHandler           struct{ core *coordinator.Coordinator }
	RejectDkgHandler               struct{ core *coordinator.Coordinator }
	SubmitDkgCommitmentHandler     struct{ core *coordinator.Coordinator }
	SubmitDkgRound2Handler         struct{ core *coordinator.Coordinator }
	SendDkgAcksHandler             struct{ core *coordinator.Coordinator }
	RequestDkgAcksHandler          struct{ core *coordinator.Coordinator }
	RequestSignaturesHandler       struct{ core *coordinator.Coordinator }
	RejectSignaturesRequestHandler struct{ core *coordinator.Coordinator }
	SubmitSignatureRepliesHandler  struct{ core *coordinator.Coordinator }
	ShareSecretShareHandler        struct{ core *coordinator.Coordinator }
)

func (HealthHandler) ServeJSONRPC(_ context.Context, _ *fastjson.RawMessage) (interface{}, *jsonrpc.Error) {
	return HealthResult{Status: "Ok"}, nil
}

func (h LoginHandler) ServeJSONRPC(_ context.Context, params *fastjson.RawMessage) (interface{}, *jsonrpc.Error) {
	var p LoginParams
	if err := jsonrpc.Unmarshal(params, &p); err != nil {
		return nil, err
	}
	resp, err := h.core.Login(p.GroupFingerprint, p.ParticipantID, p.ProtocolVersion)
	if err != nil {
		return nil, requestError(err)
	}
	return resp, nil
}

func (h RespondToChallengeHandler) ServeJSONRPC(_ context.Context, params *fastjson.RawMessage) (interface{}, *jsonrpc.Error) {
	var p RespondToChallengeParams
	if err := jsonrpc.Unmarshal(params, &p); err != nil {
		return nil, err
	}
	resp, err := h.core.RespondToChallenge(p.Signed)
	if err != nil {
		return nil, requestError(err)
	}
	return resp, nil
}

func (h ExtendSessionHandler) ServeJSONRPC(_ context.Context, params *fastjson.RawMessage) (interface{}, *jsonrpc.Error) {
	var p SessionParams
	if err := jsonrpc.Unmarshal(params, &p); err != nil {
		return nil, err
	}
	resp, err := h.core.ExtendSession(p.SessionID)
	if err != nil {
		return nil, requestError(err)
	}
	return resp, nil
}

func (h LogoutHandler) ServeJSONRPC(_ context.Context, params *fastjson.RawMessage) (interface{}, *jsonrpc.Error) {
	var p SessionParams
	if err := jsonrpc.Unmarshal(params, &p); err != nil {
		return nil, err
	}
	if err := h.core.Logout(p.SessionID); err != nil {
		return nil, requestError(err)
	}
	return EmptyResult{}, nil
}

func (h RequestNewDkgHandler) ServeJSONRPC(_ context.Context, params *fastjson.RawMessage) (interface{}, *jsonrpc.Error) {
	var p RequestNewDkgParams
	if err := jsonrpc.Unmarshal(params, &p); err != nil {
		return nil, err
	}
	if err := h.core.RequestNewDkg(p.SessionID, p.SignedDetails, p.Commitment); err != nil {
		return nil, requestError(err)
	}
	return EmptyResult{}, nil
}

func (h RejectDkgHandler) ServeJSONRPC(_ context.Context, params *fastjson.RawMessage) (interface{}, *jsonrpc.Error) {
	var p RejectDkgParams
	if err := jsonrpc.Unmarshal(params, &p); err != nil {
		return nil, err
	}
	if err := h.core.RejectDkg(p.SessionID, p.Name); err != nil {
		return nil, requestError(err)
	}
	return EmptyResult{}, nil
}

func (h SubmitDkgCommitmentHandler) ServeJSONRPC(_ context.Context, params *fastjson.RawMessage) (interface{}, *jsonrpc.Error) {
	var p SubmitDkgCommitmentParams
	if err := jsonrpc.Unmarshal(params, &p); err != nil {
		return nil, err
	}
	if err := h.core.SubmitDkgCommitment(p.SessionID, p.Name, p.Commitment); err != nil {
		return nil, requestError(err)
	}
	return EmptyResult{}, nil
}

func (h SubmitDkgRound2Handler) ServeJSONRPC(_ context.Context, params *fastjson.RawMessage) (interface{}, *jsonrpc.Error) {
	var p SubmitDkgRound2Params
	if err := jsonrpc.Unmarshal(params, &p); err != nil {
		return nil, err
	}
	if err := h.core.SubmitDkgRound2(p.SessionID, p.Name, p.CommitmentSetSignature, p.Secrets); err != nil {
		return nil, requestError(err)
	}
	return EmptyResult{}, nil
}

func (h SendDkgAcksHandler) ServeJSONRPC(_ context.Context, params *fastjson.RawMessage) (interface{}, *jsonrpc.Error) {
	var p SendDkgAcksParams
	if err := jsonrpc.Unmarshal(params, &p); err != nil {
		return nil, err
	}
	if err := h.core.SendDkgAcks(p.SessionID, p.Acks); err != nil {
		return nil, requestError(err)
	}
	return EmptyResult{}, nil
}

func (h RequestDkgAcksHandler) ServeJSONRPC(_ context.Context, params *fastjson.RawMessage) (interface{}, *jsonrpc.Error) {
	var p RequestDkgAcksParams
	if err := jsonrpc.Unmarshal(params, &p); err != nil {
		return nil, err
	}
	acks, err := h.core.RequestDkgAcks(p.SessionID, p.Requests)
	if err != nil {
		return nil, requestError(err)
	}
	return RequestDkgAcksResult{Acks: acks}, nil
}

func (h RequestSignaturesHandler) ServeJSONRPC(_ context.Context, params *fastjson.RawMessage) (interface{}, *jsonrpc.Error) {
	var p RequestSignaturesParams
	if err := jsonrpc.Unmarshal(params, &p); err != nil {
		return nil, err
	}
	if err := h.core.RequestSignatures(p.SessionID, p.Keys, p.SignedDetails, p.Commitments); err != nil {
		return nil, requestError(err)
	}
	return EmptyResult{}, nil
}

func (h RejectSignaturesRequestHandler) ServeJSONRPC(_ context.Context, params *fastjson.RawMessage) (interface{}, *jsonrpc.Error) {
	var p RejectSignaturesRequestParams
	if err := jsonrpc.Unmarshal(params, &p); err != nil {
		return nil, err
	}
	if err := h.core.RejectSignaturesRequest(p.SessionID, p.RequestID); err != nil {
		return nil, requestError(err)
	}
	return EmptyResult{}, nil
}

func (h SubmitSignatureRepliesHandler) ServeJSONRPC(_ context.Context, params *fastjson.RawMessage) (interface{}, *jsonrpc.Error) {
	var p SubmitSignatureRepliesParams
	if err := jsonrpc.Unmarshal(params, &p); err != nil {
		return nil, err
	}
	resp, err := h.core.SubmitSignatureReplies(p.SessionID, p.RequestID, p.Replies)
	if err != nil {
		return nil, requestError(err)
	}
	if resp == nil {
		return nil, nil
	}
	return resp, nil
}

func (h ShareSecretShareHandler) ServeJSONRPC(_ context.Context, params *fastjson.RawMessage) (interface{}, *jsonrpc.Error) {
	var p ShareSecretShareParams
	if err := jsonrpc.Unmarshal(params, &p); err != nil {
		return nil, err
	}
	if err := h.core.ShareSecretShare(p.SessionID, p.GroupKey, p.EncryptedSecrets); err != nil {
		return nil, requestError(err)
	}
	return EmptyResult{}, nil
}
