package session

import (
	"github.com/rotisserie/eris"

	"github.com/sells-group/curation-cli/internal/model"
)

// CommandType enumerates the discrete curator actions. The former DOM
// event handlers become messages dispatched into the state machines.
type CommandType string

const (
	// CmdChooseSource selects a source's value for a scalar field.
	CmdChooseSource CommandType = "choose_source"
	// CmdSetManual sets a manual override for a scalar field; typing into
	// the manual control dispatches this, implicitly promoting the field.
	CmdSetManual CommandType = "set_manual"
	// CmdToggleCandidate flips one list candidate's checked state.
	CmdToggleCandidate CommandType = "toggle_candidate"
	// CmdReorderRank splices a saliency item to a new position.
	CmdReorderRank CommandType = "reorder_rank"
	// CmdAddRank appends a saliency label.
	CmdAddRank CommandType = "add_rank"
	// CmdRemoveRank deletes a saliency label by index.
	CmdRemoveRank CommandType = "remove_rank"
	// CmdResetRank abandons manual saliency edits and re-derives from a
	// chosen source.
	CmdResetRank CommandType = "reset_rank_from_source"
	// CmdLeaveSection snapshots a wizard section's field state.
	CmdLeaveSection CommandType = "leave_section"
	// CmdEnterSection restores a wizard section's cached field state.
	CmdEnterSection CommandType = "enter_section"
)

// Command is one curator action. Fields are interpreted per Type.
type Command struct {
	Type        CommandType `json:"type"`
	FieldKey    string      `json:"field_key,omitempty"`
	SourceIndex int         `json:"source_index,omitempty"`
	Value       string      `json:"value,omitempty"`
	Key         string      `json:"key,omitempty"`
	Checked     bool        `json:"checked"`
	From        int         `json:"from,omitempty"`
	To          int         `json:"to,omitempty"`
	Section     string      `json:"section,omitempty"`
}

// Apply dispatches a command into the session's state machines. Commands
// on a closed session are rejected.
func (s *Session) Apply(cmd Command) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return eris.New("session: closed")
	}

	switch cmd.Type {
	case CmdChooseSource:
		f, ok := s.fields[cmd.FieldKey]
		if !ok {
			return eris.Errorf("session: unknown scalar field %q", cmd.FieldKey)
		}
		f.ChooseSource(cmd.SourceIndex)
		if cmd.FieldKey == model.FieldExtractedText {
			s.saliency.DriveFrom(s.drivingSelection())
		}
		return nil

	case CmdSetManual:
		f, ok := s.fields[cmd.FieldKey]
		if !ok {
			return eris.Errorf("session: unknown scalar field %q", cmd.FieldKey)
		}
		f.ChooseManual(cmd.Value)
		if cmd.FieldKey == model.FieldExtractedText {
			// Manual extracted text leaves no driving source: fall back to
			// the aggregated saliency view (unless manually edited).
			s.saliency.DriveFrom(nil)
		}
		return nil

	case CmdToggleCandidate:
		cs, ok := s.lists[cmd.FieldKey]
		if !ok {
			return eris.Errorf("session: unknown list field %q", cmd.FieldKey)
		}
		cs.SetChecked(cmd.Key, cmd.Checked)
		return nil

	case CmdReorderRank:
		return s.saliency.Reorder(cmd.From, cmd.To)

	case CmdAddRank:
		return s.saliency.Add(cmd.Value)

	case CmdRemoveRank:
		return s.saliency.Remove(cmd.From)

	case CmdResetRank:
		return s.saliency.ResetFromSource(cmd.SourceIndex)

	case CmdLeaveSection:
		return s.leaveSection(cmd.Section)

	case CmdEnterSection:
		return s.enterSection(cmd.Section)
	}

	return eris.Errorf("session: unknown command %q", cmd.Type)
}

// leaveSection snapshots every field state within the section. Other
// sections' snapshots are untouched.
func (s *Session) leaveSection(section string) error {
	specs := s.registry.Section(section)
	if specs == nil {
		return eris.Errorf("session: unknown section %q", section)
	}

	snap := model.SectionSnapshot{
		Selections: make(map[string]model.FieldSelection),
		Checks:     make(map[string]map[string]bool),
	}
	for _, spec := range specs {
		switch spec.Kind {
		case model.KindScalar:
			snap.Selections[spec.Key] = s.fields[spec.Key].Selection()
		case model.KindList:
			cs := s.lists[spec.Key]
			checks := make(map[string]bool, len(cs.Candidates))
			for _, c := range cs.Candidates {
				checks[c.Key] = c.Checked
			}
			snap.Checks[spec.Key] = checks
		case model.KindRanked:
			list := s.saliency.List()
			snap.Ranked = &list
		}
	}
	s.sections.Put(section, snap)
	return nil
}

// enterSection re-applies the section's cached state. A first visit (no
// snapshot) leaves the freshly-populated defaults alone.
func (s *Session) enterSection(section string) error {
	specs := s.registry.Section(section)
	if specs == nil {
		return eris.Errorf("session: unknown section %q", section)
	}
	snap, ok := s.sections.Get(section)
	if !ok {
		return nil
	}

	for _, spec := range specs {
		switch spec.Kind {
		case model.KindScalar:
			if sel, ok := snap.Selections[spec.Key]; ok {
				s.fields[spec.Key].setSelection(sel)
			}
		case model.KindList:
			checks, ok := snap.Checks[spec.Key]
			if !ok {
				continue
			}
			cs := s.lists[spec.Key]
			for i := range cs.Candidates {
				if checked, ok := checks[cs.Candidates[i].Key]; ok {
					cs.Candidates[i].Checked = checked
				}
			}
		case model.KindRanked:
			if snap.Ranked != nil {
				s.saliency.restore(*snap.Ranked)
			}
		}
	}
	return nil
}
