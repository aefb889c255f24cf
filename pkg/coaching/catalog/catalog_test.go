package catalog

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type noParams struct{}

func noop(id ActionID, opts ...Option) Action {
	return Define(id, "test action", func(*HandlerContext, *noParams) (*Outcome, error) {
		return nil, nil
	}, opts...)
}

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		actions []Action
		wantErr error
	}{
		{
			name:    "valid table",
			actions: []Action{noop("a", RunsBefore("b")), noop("b")},
		},
		{
			name:    "duplicate identifier",
			actions: []Action{noop("a"), noop("a")},
			wantErr: ErrDuplicateAction,
		},
		{
			name:    "constraint names an undefined action",
			actions: []Action{noop("a", RunsBefore("ghost"))},
			wantErr: ErrUnknownAction,
		},
		{
			name:    "cyclic constraints",
			actions: []Action{noop("a", RunsBefore("b")), noop("b", RunsBefore("c")), noop("c", RunsBefore("a"))},
			wantErr: ErrOrderingCycle,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := New(tt.actions...)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, c)
				return
			}
			require.NoError(t, err)
			assert.Len(t, c.IDs(), len(tt.actions))
		})
	}
}

func TestDefaultCatalog(t *testing.T) {
	c := Default()
	assert.Same(t, c, Default())

	for _, id := range c.IDs() {
		action, ok := c.Lookup(id)
		require.True(t, ok)
		schema, err := action.Schema()
		require.NoError(t, err, "schema for %s", id)
		assert.NotEmpty(t, schema.Description, "description for %s", id)
	}

	for _, id := range []ActionID{ActionSaveMemoryNote, ActionDeleteMemoryNote, ActionClearMemoryNotes} {
		action, _ := c.Lookup(id)
		assert.True(t, action.Silent, "%s should be silent", id)
	}
	action, _ := c.Lookup(ActionCreateRecord)
	assert.False(t, action.Silent)
}

func TestOrder(t *testing.T) {
	c := Default()

	tests := []struct {
		name string
		in   []ActionID
		want []ActionID
	}{
		{
			name: "unconstrained keeps given order",
			in:   []ActionID{ActionTransitionPhase, ActionCreateRecord, ActionSaveMemoryNote},
			want: []ActionID{ActionTransitionPhase, ActionCreateRecord, ActionSaveMemoryNote},
		},
		{
			name: "summaries move ahead of combine",
			in:   []ActionID{ActionCreateRecord, ActionCombineRecords, ActionShowRecordSummaries},
			want: []ActionID{ActionCreateRecord, ActionShowRecordSummaries, ActionCombineRecords},
		},
		{
			name: "confirm archive runs before archive and update",
			in:   []ActionID{ActionArchiveRecord, ActionUpdateRecord, ActionConfirmArchive},
			want: []ActionID{ActionConfirmArchive, ActionArchiveRecord, ActionUpdateRecord},
		},
		{
			name: "already ordered is untouched",
			in:   []ActionID{ActionConfirmNest, ActionNestRecord},
			want: []ActionID{ActionConfirmNest, ActionNestRecord},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := c.Order(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestOrderCommands(t *testing.T) {
	c := Default()
	commands := []Command{
		{Action: ActionArchiveRecord, Raw: map[string]interface{}{"record": "a"}},
		{Action: ActionShowRecordSummaries, Raw: map[string]interface{}{"records": []interface{}{"a"}}},
		{Action: ActionArchiveRecord, Raw: map[string]interface{}{"record": "b"}},
	}

	got, err := c.OrderCommands(commands)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, ActionShowRecordSummaries, got[0].Action)
	assert.Equal(t, "a", got[1].Raw["record"])
	assert.Equal(t, "b", got[2].Raw["record"])
}

func TestDecode(t *testing.T) {
	c := Default()

	tests := []struct {
		name    string
		action  ActionID
		raw     string
		wantErr bool
	}{
		{"valid create", ActionCreateRecord, `{"label":"Runner","category":"health"}`, false},
		{"unknown category", ActionCreateRecord, `{"label":"Runner","category":"sports"}`, true},
		{"missing label", ActionCreateRecord, `{"category":"health"}`, true},
		{"unknown field", ActionCreateRecord, `{"label":"Runner","category":"health","mood":"good"}`, true},
		{"wrong type", ActionTransitionPhase, `{"to_phase":3}`, true},
		{"system context is not a phase target", ActionTransitionPhase, `{"to_phase":"system_context"}`, true},
		{"batch create validates every item", ActionCreateMultipleRecords, `{"records":[{"label":"A","category":"health"},{"label":"","category":"health"}]}`, true},
		{"empty params for clear", ActionClearMemoryNotes, `{}`, false},
		{"null params for clear", ActionClearMemoryNotes, `null`, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			action, ok := c.Lookup(tt.action)
			require.True(t, ok)
			params, err := action.Decode(json.RawMessage(tt.raw))
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidParams)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, params)
		})
	}
}

func TestDecodeLoose(t *testing.T) {
	c := Default()

	t.Run("coerces scalar types", func(t *testing.T) {
		action, _ := c.Lookup(ActionSetCurrentRecord)
		params, err := action.DecodeLoose(map[string]interface{}{"record": 42})
		require.NoError(t, err)
		assert.Equal(t, "42", params.(*recordRefParams).Record)
	})

	t.Run("rejects unused keys", func(t *testing.T) {
		action, _ := c.Lookup(ActionSetFocusCategory)
		_, err := action.DecodeLoose(map[string]interface{}{"category": "health", "extra": true})
		assert.ErrorIs(t, err, ErrInvalidParams)
	})

	t.Run("still validates", func(t *testing.T) {
		action, _ := c.Lookup(ActionSetFocusCategory)
		_, err := action.DecodeLoose(map[string]interface{}{"category": "weather"})
		assert.ErrorIs(t, err, ErrInvalidParams)
	})

	t.Run("empty map for parameterless action", func(t *testing.T) {
		action, _ := c.Lookup(ActionClearMemoryNotes)
		_, err := action.DecodeLoose(map[string]interface{}{})
		assert.NoError(t, err)
	})
}

func TestHandleRejectsForeignParams(t *testing.T) {
	action, _ := Default().Lookup(ActionCreateRecord)
	_, err := action.Handle(&HandlerContext{Ctx: context.Background()}, &recordRefParams{Record: "x"})
	assert.ErrorIs(t, err, ErrInvalidParams)
}
