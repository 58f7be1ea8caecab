package patch

// txRecord is one committed transaction as remembered by the history.
type txRecord struct {
	label string
	ops   []op
}

// inverted returns the record that reverses this one: ops in reverse order,
// each inverted.
func (r txRecord) inverted() txRecord {
	inv := txRecord{label: r.label, ops: make([]op, 0, len(r.ops))}
	for i := len(r.ops) - 1; i >= 0; i-- {
		inv.ops = append(inv.ops, r.ops[i].invert())
	}
	return inv
}

// history holds the undo and redo stacks. Transactions are the only unit of
// undo: one Undo reverses exactly one committed transaction.
type history struct {
	limit int
	undo  []txRecord
	redo  []txRecord
}

func newHistory(limit int) *history {
	return &history{limit: limit}
}

// record remembers a freshly committed transaction and clears the redo
// stack (a new edit forks away from whatever was undone).
func (h *history) record(r txRecord) {
	h.undo = append(h.undo, r)
	if h.limit > 0 && len(h.undo) > h.limit {
		h.undo = h.undo[len(h.undo)-h.limit:]
	}
	h.redo = h.redo[:0]
}

func (h *history) popUndo() (txRecord, bool) {
	if len(h.undo) == 0 {
		return txRecord{}, false
	}
	r := h.undo[len(h.undo)-1]
	h.undo = h.undo[:len(h.undo)-1]
	return r, true
}

func (h *history) popRedo() (txRecord, bool) {
	if len(h.redo) == 0 {
		return txRecord{}, false
	}
	r := h.redo[len(h.redo)-1]
	h.redo = h.redo[:len(h.redo)-1]
	return r, true
}

// CanUndo reports whether an Undo would succeed.
func (s *Store) CanUndo() bool { return len(s.hist.undo) > 0 }

// CanRedo reports whether a Redo would succeed.
func (s *Store) CanRedo() bool { return len(s.hist.redo) > 0 }

// Undo reverses the most recently committed transaction by replaying its
// inverse as a new transaction: the patch revision still increases and a
// GraphCommitted is still published, because observers cache against the
// revision counter, not against edit direction.
func (s *Store) Undo() error {
	r, ok := s.hist.popUndo()
	if !ok {
		return ErrNothingToUndo
	}

	t := s.begin("undo:" + r.label)
	t.replay = true
	t.ops = r.inverted().ops
	t.commit()

	s.hist.redo = append(s.hist.redo, r)
	return nil
}

// Redo re-applies the most recently undone transaction.
func (s *Store) Redo() error {
	r, ok := s.hist.popRedo()
	if !ok {
		return ErrNothingToRedo
	}

	t := s.begin("redo:" + r.label)
	t.replay = true
	t.ops = r.ops
	t.commit()

	s.hist.undo = append(s.hist.undo, r)
	return nil
}
