package audit

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"
)

// GenesisHash is the PrevHash of the first event in a chain.
const GenesisHash = "0000000000000000000000000000000000000000000000000000000000000000"

// ComputeHash returns SHA-256(prev_hash || canonical event) in hex.
// The Hash field itself is excluded from the input.
func ComputeHash(e Event) string {
	canonical := struct {
		ID           string         `json:"id"`
		Seq          int64          `json:"seq"`
		Timestamp    string         `json:"timestamp"`
		Type         string         `json:"type"`
		KeyID        string         `json:"key_id"`
		Actor        string         `json:"actor"`
		Action       string         `json:"action"`
		ResourceType string         `json:"resource_type"`
		ResourceID   string         `json:"resource_id"`
		Outcome      Outcome        `json:"outcome"`
		Reason       string         `json:"reason"`
		IP           string         `json:"ip"`
		RequestID    string         `json:"request_id"`
		Metadata     map[string]any `json:"metadata"`
	}{
		ID:           e.ID,
		Seq:          e.Seq,
		Timestamp:    e.Timestamp.UTC().Format(time.RFC3339Nano),
		Type:         e.Type,
		KeyID:        e.KeyID,
		Actor:        e.Actor,
		Action:       e.Action,
		ResourceType: e.ResourceType,
		ResourceID:   e.ResourceID,
		Outcome:      e.Outcome,
		Reason:       e.Reason,
		IP:           e.IP,
		RequestID:    e.RequestID,
		Metadata:     e.Metadata,
	}
	// json.Marshal sorts map keys, so the encoding is stable.
	data, err := json.Marshal(canonical)
	if err != nil {
		data = fmt.Appendf(nil, "%+v", canonical)
	}

	h := sha256.New()
	h.Write([]byte(e.PrevHash))
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// chain links events in emission order.
type chain struct {
	last string
	seq  int64
}

func newChain(last string) *chain {
	if last == "" {
		last = GenesisHash
	}
	return &chain{last: last}
}

func (c *chain) link(e *Event) {
	c.seq++
	e.Seq = c.seq
	e.PrevHash = c.last
	e.Hash = ComputeHash(*e)
	c.last = e.Hash
}

// VerifyChain checks that events, in emission order, form an unbroken chain.
// The first event may link to any predecessor, so a window of a longer log verifies too.
func VerifyChain(events []Event) error {
	for i, e := range events {
		if got := ComputeHash(e); got != e.Hash {
			return fmt.Errorf("%w: event %d (%s) hash mismatch", ErrChainBroken, i, e.ID)
		}
		if i > 0 && e.PrevHash != events[i-1].Hash {
			return fmt.Errorf("%w: event %d (%s) does not link to its predecessor", ErrChainBroken, i, e.ID)
		}
	}
	return nil
}
