package constant

// Phase is the stage of a coaching session. Exactly one phase is active per session.
type Phase string

const (
	PhaseIntroduction  Phase = "introduction"
	PhaseWarmUp        Phase = "warm_up"
	PhaseBrainstorming Phase = "brainstorming"
	PhaseRefinement    Phase = "refinement"
	PhaseCommitment    Phase = "commitment"
	PhaseStatement     Phase = "statement"
	PhaseVisualization Phase = "visualization"

	// PhaseSystemContext is not a conversational phase; it only carries shared prompt context.
	PhaseSystemContext Phase = "system_context"
)

// Phases lists the conversational phases in coaching order.
var Phases = []Phase{
	PhaseIntroduction,
	PhaseWarmUp,
	PhaseBrainstorming,
	PhaseRefinement,
	PhaseCommitment,
	PhaseStatement,
	PhaseVisualization,
}

func (p Phase) Valid() bool {
	if p == PhaseSystemContext {
		return true
	}
	for _, phase := range Phases {
		if phase == p {
			return true
		}
	}
	return false
}

// Conversational reports whether the phase can be the active phase of a session.
func (p Phase) Conversational() bool {
	return p.Valid() && p != PhaseSystemContext
}

// Category is the area of life an identity belongs to.
type Category string

const (
	CategoryPassions      Category = "passions"
	CategoryRelationships Category = "relationships"
	CategoryHealth        Category = "health"
	CategoryCareer        Category = "career"
	CategoryFinances      Category = "finances"
	CategoryCreativity    Category = "creativity"
	CategorySpirituality  Category = "spirituality"
	CategoryCommunity     Category = "community"

	// CategoryGeneral is the catch-all category.
	CategoryGeneral Category = "general"
)

var Categories = []Category{
	CategoryPassions,
	CategoryRelationships,
	CategoryHealth,
	CategoryCareer,
	CategoryFinances,
	CategoryCreativity,
	CategorySpirituality,
	CategoryCommunity,
	CategoryGeneral,
}

func (c Category) Valid() bool {
	for _, category := range Categories {
		if category == c {
			return true
		}
	}
	return false
}

// LifecycleState is the progress marker of a single identity.
type LifecycleState string

const (
	StateProposed              LifecycleState = "proposed"
	StateAccepted              LifecycleState = "accepted"
	StateRefinementComplete    LifecycleState = "refinement_complete"
	StateCommitmentComplete    LifecycleState = "commitment_complete"
	StateStatementComplete     LifecycleState = "statement_complete"
	StateVisualizationComplete LifecycleState = "visualization_complete"
	StateArchived              LifecycleState = "archived"
)

// LifecycleOrder is the forward order of non-terminal lifecycle states.
var LifecycleOrder = []LifecycleState{
	StateProposed,
	StateAccepted,
	StateRefinementComplete,
	StateCommitmentComplete,
	StateStatementComplete,
	StateVisualizationComplete,
}

// Topic is a warm-up conversation topic the coach has already asked about.
type Topic string

const (
	TopicName       Topic = "name"
	TopicValues     Topic = "values"
	TopicHobbies    Topic = "hobbies"
	TopicWork       Topic = "work"
	TopicFamily     Topic = "family"
	TopicGoals      Topic = "goals"
	TopicChallenges Topic = "challenges"
	TopicRoutines   Topic = "routines"
)

var Topics = []Topic{
	TopicName,
	TopicValues,
	TopicHobbies,
	TopicWork,
	TopicFamily,
	TopicGoals,
	TopicChallenges,
	TopicRoutines,
}

func (t Topic) Valid() bool {
	for _, topic := range Topics {
		if topic == t {
			return true
		}
	}
	return false
}

const (
	// MetadataMemoryNotes is the session metadata key holding coach memory notes.
	MetadataMemoryNotes = "memory_notes"

	AuditTopicCoachingAction = "coaching.action"
)
