package catalog

import (
	"sync"

	"identity-coach-be/internal/constant"

	"github.com/google/jsonschema-go/jsonschema"
)

const (
	// Session
	ActionTransitionPhase    ActionID = "transition_phase"
	ActionSetFocusCategory   ActionID = "set_focus_category"
	ActionSkipCategory       ActionID = "skip_category"
	ActionUpdateWhoIAm       ActionID = "update_who_i_am"
	ActionUpdateWhoIWantToBe ActionID = "update_who_i_want_to_be"
	ActionRecordAskedTopic   ActionID = "record_asked_topic"
	ActionSetCurrentRecord   ActionID = "set_current_record"
	ActionFocusNextPending   ActionID = "focus_next_pending"

	// Identity lifecycle
	ActionCreateRecord          ActionID = "create_record"
	ActionCreateMultipleRecords ActionID = "create_multiple_records"
	ActionUpdateRecord          ActionID = "update_record"
	ActionAddRecordNote         ActionID = "add_record_note"
	ActionAcceptRecord          ActionID = "accept_record"
	ActionAcceptRefinement      ActionID = "accept_refinement"
	ActionAcceptCommitment      ActionID = "accept_commitment"
	ActionSetStatement          ActionID = "set_statement"
	ActionAcceptStatement       ActionID = "accept_statement"
	ActionSetVisualization      ActionID = "set_visualization"
	ActionAcceptVisualization   ActionID = "accept_visualization"
	ActionArchiveRecord         ActionID = "archive_record"
	ActionCombineRecords        ActionID = "combine_records"
	ActionNestRecord            ActionID = "nest_record"

	// Directives
	ActionShowRecordSummaries  ActionID = "show_record_summaries"
	ActionOfferRecordChoices   ActionID = "offer_record_choices"
	ActionOfferCategories      ActionID = "offer_categories"
	ActionOfferPhaseTransition ActionID = "offer_phase_transition"
	ActionConfirmCombine       ActionID = "confirm_combine"
	ActionConfirmNest          ActionID = "confirm_nest"
	ActionConfirmArchive       ActionID = "confirm_archive"

	// Memory notes (silent)
	ActionSaveMemoryNote   ActionID = "save_memory_note"
	ActionDeleteMemoryNote ActionID = "delete_memory_note"
	ActionClearMemoryNotes ActionID = "clear_memory_notes"
)

// destructive actions delete, rename or archive identities. Snapshot-taking actions must run first.
var destructive = []ActionID{
	ActionUpdateRecord,
	ActionArchiveRecord,
	ActionCombineRecords,
	ActionNestRecord,
}

var (
	defaultCatalog *Catalog
	defaultOnce    sync.Once
)

// Default returns the coaching catalog. It is built once; an invalid table is a programming
// error and panics at startup.
func Default() *Catalog {
	defaultOnce.Do(func() {
		c, err := New(Actions()...)
		if err != nil {
			panic("coaching catalog: " + err.Error())
		}
		defaultCatalog = c
	})
	return defaultCatalog
}

// Actions returns every coaching action definition.
func Actions() []Action {
	actions := make([]Action, 0, 40)
	actions = append(actions, sessionActions()...)
	actions = append(actions, identityActions()...)
	actions = append(actions, compoundActions()...)
	actions = append(actions, directiveActions()...)
	actions = append(actions, memoryActions()...)
	return actions
}

// enumProperty constrains a string property, or the items of an array property, to values.
func enumProperty(name string, values []interface{}) Option {
	return WithSchema(func(s *jsonschema.Schema) {
		prop, ok := s.Properties[name]
		if !ok {
			return
		}
		if prop.Items != nil {
			prop.Items.Enum = values
			return
		}
		prop.Enum = values
	})
}

var (
	phaseEnum    = enumOf(constant.Phases)
	categoryEnum = enumOf(constant.Categories)
	topicEnum    = enumOf(constant.Topics)
)
