package photo

import (
	"encoding/json"
	"fmt"
)

// History keeps serialized document snapshots. index points at the snapshot
// matching the live document; -1 means empty.
type History struct {
	entries [][]byte
	index   int
	limit   int
}

func NewHistory(limit int) *History {
	if limit <= 0 {
		limit = MaxHistory
	}
	return &History{index: -1, limit: limit}
}

// Save drops any redo tail, appends doc and evicts the oldest entry past the
// limit.
func (h *History) Save(doc Document) error {
	b, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}

	h.entries = append(h.entries[:h.index+1], b)
	h.index++

	if len(h.entries) > h.limit {
		h.entries = h.entries[1:]
		h.index--
	}
	return nil
}

func (h *History) CanUndo() bool { return h.index > 0 }

func (h *History) CanRedo() bool { return h.index < len(h.entries)-1 }

func (h *History) Len() int { return len(h.entries) }

func (h *History) Undo() (Document, bool, error) {
	if !h.CanUndo() {
		return Document{}, false, nil
	}
	h.index--
	doc, err := h.current()
	return doc, err == nil, err
}

func (h *History) Redo() (Document, bool, error) {
	if !h.CanRedo() {
		return Document{}, false, nil
	}
	h.index++
	doc, err := h.current()
	return doc, err == nil, err
}

// Clear empties the history.
func (h *History) Clear() {
	h.entries = nil
	h.index = -1
}

func (h *History) current() (Document, error) {
	var doc Document
	if err := json.Unmarshal(h.entries[h.index], &doc); err != nil {
		return Document{}, fmt.Errorf("decode snapshot: %w", err)
	}
	return doc, nil
}
