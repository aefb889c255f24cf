package catalog

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/go-viper/mapstructure/v2"
	"github.com/google/jsonschema-go/jsonschema"
)

var (
	ErrUnknownAction   = errors.New("unknown action")
	ErrDuplicateAction = errors.New("duplicate action")
	ErrInvalidParams   = errors.New("invalid params")
	ErrOrderingCycle   = errors.New("ordering constraints form a cycle")
)

// ActionID names one command the coaching model may issue.
type ActionID string

// Action is one catalog entry: the params shape and the handler that consumes it.
type Action struct {
	ID          ActionID
	Description string
	// Silent actions never see the triggering message reference.
	Silent bool
	// RunsBefore lists actions that must execute after this one when both occur in one dispatch.
	RunsBefore []ActionID

	schema      func() (*jsonschema.Schema, error)
	decode      func(raw json.RawMessage) (interface{}, error)
	decodeLoose func(params map[string]interface{}) (interface{}, error)
	handle      func(hc *HandlerContext, params interface{}) (*Outcome, error)
}

// Schema returns a freshly built JSON schema for the action's params.
func (a Action) Schema() (*jsonschema.Schema, error) {
	return a.schema()
}

// Decode strictly decodes already schema-checked JSON params and validates them.
func (a Action) Decode(raw json.RawMessage) (interface{}, error) {
	return a.decode(raw)
}

// DecodeLoose coerces loosely typed params (strings for numbers and the like) into the
// declared shape and validates them.
func (a Action) DecodeLoose(params map[string]interface{}) (interface{}, error) {
	return a.decodeLoose(params)
}

// Handle runs the action's handler with params produced by Decode or DecodeLoose.
func (a Action) Handle(hc *HandlerContext, params interface{}) (*Outcome, error) {
	return a.handle(hc, params)
}

// Option customises an action built with Define.
type Option func(*Action, *[]func(*jsonschema.Schema))

// Silent marks the action as never receiving the trigger reference.
func Silent() Option {
	return func(a *Action, _ *[]func(*jsonschema.Schema)) {
		a.Silent = true
	}
}

// RunsBefore declares that the action must run before the given actions within one dispatch.
func RunsBefore(ids ...ActionID) Option {
	return func(a *Action, _ *[]func(*jsonschema.Schema)) {
		a.RunsBefore = append(a.RunsBefore, ids...)
	}
}

// WithSchema patches the inferred params schema, typically to add enums.
func WithSchema(patch func(*jsonschema.Schema)) Option {
	return func(_ *Action, patches *[]func(*jsonschema.Schema)) {
		*patches = append(*patches, patch)
	}
}

// Define builds an action whose params decode into P.
func Define[P any](id ActionID, description string, fn func(hc *HandlerContext, params *P) (*Outcome, error), opts ...Option) Action {
	a := Action{ID: id, Description: description}
	var patches []func(*jsonschema.Schema)
	for _, opt := range opts {
		opt(&a, &patches)
	}

	a.schema = func() (*jsonschema.Schema, error) {
		s, err := jsonschema.For[P](nil)
		if err != nil {
			return nil, fmt.Errorf("infer schema for %s: %w", id, err)
		}
		s.Description = description
		for _, patch := range patches {
			patch(s)
		}
		return s, nil
	}

	a.decode = func(raw json.RawMessage) (interface{}, error) {
		p := new(P)
		if len(raw) > 0 && !bytes.Equal(raw, []byte("null")) {
			dec := json.NewDecoder(bytes.NewReader(raw))
			dec.DisallowUnknownFields()
			if err := dec.Decode(p); err != nil {
				return nil, fmt.Errorf("%w: %s: %v", ErrInvalidParams, id, err)
			}
		}
		if err := validateParams(p); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrInvalidParams, id, err)
		}
		return p, nil
	}

	a.decodeLoose = func(params map[string]interface{}) (interface{}, error) {
		p := new(P)
		decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
			TagName:          "json",
			WeaklyTypedInput: true,
			ErrorUnused:      true,
			Result:           p,
		})
		if err != nil {
			return nil, err
		}
		if err := decoder.Decode(params); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrInvalidParams, id, err)
		}
		if err := validateParams(p); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrInvalidParams, id, err)
		}
		return p, nil
	}

	a.handle = func(hc *HandlerContext, params interface{}) (*Outcome, error) {
		p, ok := params.(*P)
		if !ok {
			return nil, fmt.Errorf("%w: %s: unexpected params type %T", ErrInvalidParams, id, params)
		}
		return fn(hc, p)
	}

	return a
}

// Catalog is the immutable table of actions, built once at startup.
type Catalog struct {
	actions map[ActionID]Action
	ids     []ActionID
}

// New builds a catalog. Duplicate identifiers, constraints naming unknown actions and
// cyclic constraints are errors.
func New(actions ...Action) (*Catalog, error) {
	c := &Catalog{actions: make(map[ActionID]Action, len(actions))}
	for _, a := range actions {
		if _, exists := c.actions[a.ID]; exists {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateAction, a.ID)
		}
		c.actions[a.ID] = a
		c.ids = append(c.ids, a.ID)
	}
	for _, a := range actions {
		for _, after := range a.RunsBefore {
			if _, ok := c.actions[after]; !ok {
				return nil, fmt.Errorf("%w: %s runs before undefined action %s", ErrUnknownAction, a.ID, after)
			}
		}
	}
	if _, err := c.Order(c.ids); err != nil {
		return nil, err
	}
	return c, nil
}

// Lookup returns the action registered under id.
func (c *Catalog) Lookup(id ActionID) (Action, bool) {
	a, ok := c.actions[id]
	return a, ok
}

// IDs returns every registered action in registration order.
func (c *Catalog) IDs() []ActionID {
	return append([]ActionID(nil), c.ids...)
}

func (c *Catalog) mustPrecede(a, b ActionID) bool {
	for _, after := range c.actions[a].RunsBefore {
		if after == b {
			return true
		}
	}
	return false
}

// Order sorts ids so every RunsBefore constraint between them holds, keeping the given order
// wherever no constraint applies.
func (c *Catalog) Order(ids []ActionID) ([]ActionID, error) {
	idx, err := stableTopological(len(ids), func(i, j int) bool {
		return c.mustPrecede(ids[i], ids[j])
	})
	if err != nil {
		return nil, err
	}
	ordered := make([]ActionID, len(ids))
	for i, k := range idx {
		ordered[i] = ids[k]
	}
	return ordered, nil
}

// OrderCommands applies Order to a command sequence that may repeat actions.
func (c *Catalog) OrderCommands(commands []Command) ([]Command, error) {
	idx, err := stableTopological(len(commands), func(i, j int) bool {
		return c.mustPrecede(commands[i].Action, commands[j].Action)
	})
	if err != nil {
		return nil, err
	}
	ordered := make([]Command, len(commands))
	for i, k := range idx {
		ordered[i] = commands[k]
	}
	return ordered, nil
}

// stableTopological returns the indexes 0..n-1 ordered so that before(i, j) implies i comes
// first; among unconstrained items the lowest original index is emitted first.
func stableTopological(n int, before func(i, j int) bool) ([]int, error) {
	indegree := make([]int, n)
	edges := make([][]int, n)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if i != j && before(i, j) {
				edges[i] = append(edges[i], j)
				indegree[j]++
			}
		}
	}

	ready := make([]int, 0, n)
	for i := 0; i < n; i++ {
		if indegree[i] == 0 {
			ready = append(ready, i)
		}
	}

	result := make([]int, 0, n)
	for len(ready) > 0 {
		sort.Ints(ready)
		next := ready[0]
		ready = ready[1:]
		result = append(result, next)
		for _, j := range edges[next] {
			indegree[j]--
			if indegree[j] == 0 {
				ready = append(ready, j)
			}
		}
	}

	if len(result) != n {
		return nil, ErrOrderingCycle
	}
	return result, nil
}
