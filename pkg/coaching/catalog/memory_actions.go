package catalog

import (
	"fmt"
	"strings"

	"identity-coach-be/pkg/coaching/state"
)

type memoryNoteParams struct {
	Key  string `json:"key" jsonschema:"Short key for the note" validate:"required,max=64"`
	Note string `json:"note" jsonschema:"What to remember about the user" validate:"required"`
}

type memoryKeyParams struct {
	Key string `json:"key" jsonschema:"Key of the note to forget" validate:"required"`
}

type emptyParams struct{}

func memoryActions() []Action {
	return []Action{
		Define(ActionSaveMemoryNote,
			"Remember something about the user across turns.",
			func(hc *HandlerContext, p *memoryNoteParams) (*Outcome, error) {
				key := strings.TrimSpace(p.Key)
				state.SetMemoryNote(hc.Session, key, strings.TrimSpace(p.Note))
				if err := hc.SaveSession(); err != nil {
					return nil, err
				}
				return &Outcome{Summary: "memory note " + key + " saved"}, nil
			},
			Silent(),
		),
		Define(ActionDeleteMemoryNote,
			"Forget one memory note.",
			func(hc *HandlerContext, p *memoryKeyParams) (*Outcome, error) {
				key := strings.TrimSpace(p.Key)
				if !state.DeleteMemoryNote(hc.Session, key) {
					return &Outcome{Summary: "memory note " + key + " not found"}, nil
				}
				if err := hc.SaveSession(); err != nil {
					return nil, err
				}
				return &Outcome{Summary: "memory note " + key + " deleted"}, nil
			},
			Silent(),
		),
		Define(ActionClearMemoryNotes,
			"Forget every memory note.",
			func(hc *HandlerContext, _ *emptyParams) (*Outcome, error) {
				n := state.ClearMemoryNotes(hc.Session)
				if err := hc.SaveSession(); err != nil {
					return nil, err
				}
				return &Outcome{Summary: fmt.Sprintf("cleared %d memory notes", n)}, nil
			},
			Silent(),
		),
	}
}
