package contract

import (
	"encoding/json"
	"sort"
	"testing"

	"identity-coach-be/internal/pkg/logger"
	"identity-coach-be/pkg/coaching/catalog"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBuilder() *Builder {
	return NewBuilder(catalog.Default(), logger.NewNopLogger())
}

func TestBuild(t *testing.T) {
	tests := []struct {
		name    string
		allowed []catalog.ActionID
		wantErr error
	}{
		{"empty list", nil, nil},
		{"known actions", []catalog.ActionID{catalog.ActionCreateRecord, catalog.ActionTransitionPhase}, nil},
		{"unknown action", []catalog.ActionID{catalog.ActionCreateRecord, "fly_to_moon"}, catalog.ErrUnknownAction},
		{"duplicate action", []catalog.ActionID{catalog.ActionCreateRecord, catalog.ActionCreateRecord}, catalog.ErrDuplicateAction},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := newBuilder().Build(tt.allowed)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)

			props := make([]string, 0, len(c.Schema().Properties))
			for name := range c.Schema().Properties {
				props = append(props, name)
			}
			want := []string{MessageField}
			for _, id := range tt.allowed {
				want = append(want, string(id))
			}
			sort.Strings(props)
			sort.Strings(want)
			assert.Equal(t, want, props)
			assert.Equal(t, []string{MessageField}, c.Schema().Required)
		})
	}
}

func TestBuildOrdersAndCaches(t *testing.T) {
	b := newBuilder()
	allowed := []catalog.ActionID{catalog.ActionCombineRecords, catalog.ActionShowRecordSummaries}

	c, err := b.Build(allowed)
	require.NoError(t, err)
	assert.Equal(t, allowed, c.Allowed)
	assert.Equal(t, []catalog.ActionID{catalog.ActionShowRecordSummaries, catalog.ActionCombineRecords}, c.Order)

	again, err := b.Build([]catalog.ActionID{catalog.ActionCombineRecords, catalog.ActionShowRecordSummaries})
	require.NoError(t, err)
	assert.Same(t, c, again)

	other, err := b.Build([]catalog.ActionID{catalog.ActionCombineRecords})
	require.NoError(t, err)
	assert.NotSame(t, c, other)
}

func TestDecode(t *testing.T) {
	c, err := newBuilder().Build([]catalog.ActionID{
		catalog.ActionCreateRecord,
		catalog.ActionSaveMemoryNote,
		catalog.ActionShowRecordSummaries,
		catalog.ActionArchiveRecord,
	})
	require.NoError(t, err)

	tests := []struct {
		name        string
		raw         string
		wantErr     bool
		wantMessage string
		wantActions []catalog.ActionID
	}{
		{
			name:        "message only",
			raw:         `{"message":"Hi there"}`,
			wantMessage: "Hi there",
		},
		{
			name:        "null action is not issued",
			raw:         `{"message":"ok","create_record":null}`,
			wantMessage: "ok",
		},
		{
			name:        "commands follow contract order",
			raw:         `{"archive_record":{"record":"Runner"},"message":"ok","show_record_summaries":{"records":["Runner"]},"create_record":{"label":"Saver","category":"finances"}}`,
			wantMessage: "ok",
			wantActions: []catalog.ActionID{catalog.ActionCreateRecord, catalog.ActionShowRecordSummaries, catalog.ActionArchiveRecord},
		},
		{name: "missing message", raw: `{"create_record":{"label":"Saver","category":"finances"}}`, wantErr: true},
		{name: "message not a string", raw: `{"message":7}`, wantErr: true},
		{name: "action outside allowed list", raw: `{"message":"ok","transition_phase":{"to_phase":"refinement"}}`, wantErr: true},
		{name: "invalid params", raw: `{"message":"ok","create_record":{"label":"Saver","category":"gold"}}`, wantErr: true},
		{name: "unknown param field", raw: `{"message":"ok","save_memory_note":{"key":"k","note":"n","ttl":3}}`, wantErr: true},
		{name: "params not an object", raw: `{"message":"ok","archive_record":"Runner"}`, wantErr: true},
		{name: "malformed json", raw: `{"message":`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := c.Decode([]byte(tt.raw))
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrContractViolation)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantMessage, resp.Message)

			actions := make([]catalog.ActionID, 0, len(resp.Commands))
			for _, cmd := range resp.Commands {
				actions = append(actions, cmd.Action)
				assert.NotNil(t, cmd.Params)
				assert.NotNil(t, cmd.Raw)
			}
			if tt.wantActions == nil {
				assert.Empty(t, actions)
			} else {
				assert.Equal(t, tt.wantActions, actions)
			}
		})
	}
}

func TestDescribeAndJSONSchema(t *testing.T) {
	c, err := newBuilder().Build([]catalog.ActionID{catalog.ActionTransitionPhase, catalog.ActionSaveMemoryNote})
	require.NoError(t, err)

	desc := c.Describe()
	assert.Contains(t, desc, "- transition_phase: ")
	assert.Contains(t, desc, "- save_memory_note (silent): ")

	raw, err := c.JSONSchema()
	require.NoError(t, err)
	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, "object", decoded["type"])
	props := decoded["properties"].(map[string]interface{})
	assert.Contains(t, props, MessageField)
	assert.Contains(t, props, string(catalog.ActionTransitionPhase))
}
