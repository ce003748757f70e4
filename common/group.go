package common

import (
	"encoding/hex"

	"github.com/torusresearch/bijson"
	"golang.org/x/crypto/sha3"
)

// GroupConfig is the immutable participant roster the node is configured
// with: a group id plus the identifier to long-term public key mapping.
type GroupConfig struct {
	ID           string                   `json:"id"`
	Participants map[Identifier]PublicKey `json:"participants"`
}

type GroupFingerprint string

func (g GroupConfig) Size() int {
	return len(g.Participants)
}

func (g GroupConfig) Has(id Identifier) bool {
	_, ok := g.Participants[id]
	return ok
}

func (g GroupConfig) PublicKey(id Identifier) (PublicKey, bool) {
	pk, ok := g.Participants[id]
	return pk, ok
}

func (g GroupConfig) SortedIdentifiers() []Identifier {
	ids := make([]Identifier, 0, len(g.Participants))
	for id := range g.Participants {
		ids = append(ids, id)
	}
	SortIdentifiers(ids)
	return ids
}

// Fingerprint is a stable Keccak256 over the id and the ordered
// (identifier, public key) pairs. Both sides of a login must agree on it.
func (g GroupConfig) Fingerprint() GroupFingerprint {
	type entry struct {
		ID     Identifier `json:"id"`
		PubKey PublicKey  `json:"pubkey"`
	}
	entries := make([]entry, 0, len(g.Participants))
	for _, id := range g.SortedIdentifiers() {
		entries = append(entries, entry{ID: id, PubKey: g.Participants[id]})
	}
	payload := struct {
		GroupID string  `json:"group_id"`
		Entries []entry `json:"entries"`
	}{GroupID: g.ID, Entries: entries}

	serialized, err := bijson.Marshal(payload)
	if err != nil {
		// The roster is plain data; marshalling it cannot fail.
		panic(err)
	}
	return GroupFingerprint(hex.EncodeToString(Keccak256(serialized)))
}

func Keccak256(data ...[]byte) []byte {
	d := sha3.NewLegacyKeccak256()
	for _, b := range data {
		d.Write(b)
	}
	return d.Sum(nil)
}
