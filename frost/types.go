package frost

import (
	"bytes"

	"github.com/arcana-network/roastnode/common"
)

// SigningCommitment is one participant's pair of nonce commitments for a
// single FROST signing round: two compressed secp256k1 points.
type SigningCommitment struct {
	Hiding  []byte `json:"hiding"`
	Binding []byte `json:"binding"`
}

func (c SigningCommitment) Equal(other SigningCommitment) bool {
	return bytes.Equal(c.Hiding, other.Hiding) && bytes.Equal(c.Binding, other.Binding)
}

// NamedSigningCommitment ties a commitment to its author.
type NamedSigningCommitment struct {
	ID         common.Identifier `json:"id"`
	Commitment SigningCommitment `json:"commitment"`
}

// SigningCommitmentSet is the totally ordered commitment collection for one
// signing round, sorted by identifier.
type SigningCommitmentSet struct {
	Commitments []NamedSigningCommitment `json:"commitments"`
}

// NewSigningCommitmentSet snapshots a commitment map into its canonical
// ordered form.
func NewSigningCommitmentSet(m map[common.Identifier]SigningCommitment) SigningCommitmentSet {
	ids := make([]common.Identifier, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	common.SortIdentifiers(ids)
	set := SigningCommitmentSet{Commitments: make([]NamedSigningCommitment, 0, len(ids))}
	for _, id := range ids {
		set.Commitments = append(set.Commitments, NamedSigningCommitment{ID: id, Commitment: m[id]})
	}
	return set
}

func (s SigningCommitmentSet) Identifiers() []common.Identifier {
	ids := make([]common.Identifier, 0, len(s.Commitments))
	for _, c := range s.Commitments {
		ids = append(ids, c.ID)
	}
	return ids
}

// DkgCommitment is a participant's serialized round-1 commitment vector:
// the public output of DKG part 1. The server never interprets it.
type DkgCommitment []byte

// NamedDkgCommitment ties a DKG commitment to its author. Round 1 keeps
// these in arrival order; the hash input orders them by identifier.
type NamedDkgCommitment struct {
	ID         common.Identifier `json:"id"`
	Commitment DkgCommitment     `json:"commitment"`
}

// DkgCommitmentSet is the canonical ordered form of a complete round-1
// commitment collection.
type DkgCommitmentSet struct {
	Commitments []NamedDkgCommitment `json:"commitments"`
}

func NewDkgCommitmentSet(list []NamedDkgCommitment) DkgCommitmentSet {
	sorted := make([]NamedDkgCommitment, len(list))
	copy(sorted, list)
	for i := 1; i < len(sorted); i++ {
		for j := i; j > 0 && sorted[j].ID < sorted[j-1].ID; j-- {
			sorted[j], sorted[j-1] = sorted[j-1], sorted[j]
		}
	}
	return DkgCommitmentSet{Commitments: sorted}
}

// EncryptedSecret is an ECDH-encrypted DKG round-2 secret addressed to a
// single recipient. Opaque to the server.
type EncryptedSecret []byte

// EncryptedKeyShare is an ECDH-encrypted long-term recovery share. Opaque
// to the server.
type EncryptedKeyShare []byte

// SignatureShare is a participant's 32-byte scalar contribution to one
// threshold signature.
type SignatureShare []byte

// NamedSignatureShare ties a share to its author.
type NamedSignatureShare struct {
	ID    common.Identifier `json:"id"`
	Share SignatureShare    `json:"share"`
}

// SignDetails is the message under signature plus its sighash type, as
// requested by a signatures request.
type SignDetails struct {
	Message     []byte `json:"message"`
	SighashType uint32 `json:"sighash_type"`
}

// HDPath is a hierarchical derivation path of child indices applied against
// a master key info.
type HDPath []uint32

// AggregateKeyInfo is the public face of a FROST key-share set: the group
// key, its threshold and the per-participant verification shares. Derive
// walks an HD path over it.
type AggregateKeyInfo struct {
	GroupKey           common.GroupKey                  `json:"group_key"`
	Threshold          int                              `json:"threshold"`
	VerificationShares map[common.Identifier]HexedPoint `json:"verification_shares"`
}

// HexedPoint is a compressed secp256k1 point as carried on the wire.
type HexedPoint []byte
