package contract

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"identity-coach-be/internal/pkg/logger"
	"identity-coach-be/pkg/coaching/catalog"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/patrickmn/go-cache"
)

var ErrContractViolation = errors.New("response violates contract")

// MessageField is the one property every response must carry.
const MessageField = "message"

// Response is a decoded model response. Commands are in contract order.
type Response struct {
	Message  string
	Commands []catalog.Command
}

// Contract is the output schema for one allowed list of actions.
type Contract struct {
	// Allowed is the list as requested.
	Allowed []catalog.ActionID
	// Order is Allowed sorted so every RunsBefore constraint holds.
	Order []catalog.ActionID

	catalog  *catalog.Catalog
	schema   *jsonschema.Schema
	resolved *jsonschema.Resolved
}

// Builder builds contracts against a catalog and memoises them per allowed list.
type Builder struct {
	catalog *catalog.Catalog
	cache   *cache.Cache
	logger  logger.ILogger
}

func NewBuilder(c *catalog.Catalog, logger logger.ILogger) *Builder {
	return &Builder{
		catalog: c,
		cache:   cache.New(cache.NoExpiration, 0),
		logger:  logger,
	}
}

// Build returns the contract for allowed. Unknown or repeated actions and cyclic ordering
// constraints are errors.
func (b *Builder) Build(allowed []catalog.ActionID) (*Contract, error) {
	key := cacheKey(allowed)
	if x, found := b.cache.Get(key); found {
		return x.(*Contract), nil
	}

	seen := make(map[catalog.ActionID]bool, len(allowed))
	for _, id := range allowed {
		if _, ok := b.catalog.Lookup(id); !ok {
			return nil, fmt.Errorf("%w: %s", catalog.ErrUnknownAction, id)
		}
		if seen[id] {
			return nil, fmt.Errorf("%w: %s listed twice", catalog.ErrDuplicateAction, id)
		}
		seen[id] = true
	}

	order, err := b.catalog.Order(allowed)
	if err != nil {
		return nil, err
	}

	schema, err := b.schemaFor(order)
	if err != nil {
		return nil, err
	}
	resolved, err := schema.Resolve(nil)
	if err != nil {
		return nil, fmt.Errorf("resolve contract schema: %w", err)
	}

	c := &Contract{
		Allowed:  append([]catalog.ActionID(nil), allowed...),
		Order:    order,
		catalog:  b.catalog,
		schema:   schema,
		resolved: resolved,
	}
	b.cache.Set(key, c, cache.NoExpiration)

	b.logger.Debug("CONTRACT", "Contract built", map[string]interface{}{
		"allowed": key,
		"order":   cacheKey(order),
	})
	return c, nil
}

func (b *Builder) schemaFor(order []catalog.ActionID) (*jsonschema.Schema, error) {
	properties := map[string]*jsonschema.Schema{
		MessageField: {
			Type:        "string",
			Description: "What to say to the user",
		},
	}

	for _, id := range order {
		action, _ := b.catalog.Lookup(id)
		params, err := action.Schema()
		if err != nil {
			return nil, err
		}
		// An action property may be omitted or null; both mean "not issued".
		params.Type = ""
		params.Types = []string{"null", "object"}
		properties[string(id)] = params
	}

	return &jsonschema.Schema{
		Type:                 "object",
		Properties:           properties,
		Required:             []string{MessageField},
		AdditionalProperties: &jsonschema.Schema{Not: &jsonschema.Schema{}},
	}, nil
}

// Decode checks raw against the contract and turns it into commands in contract order.
func (c *Contract) Decode(raw []byte) (*Response, error) {
	var instance interface{}
	if err := json.Unmarshal(raw, &instance); err != nil {
		return nil, fmt.Errorf("%w: malformed JSON: %v", ErrContractViolation, err)
	}
	if err := c.resolved.Validate(instance); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrContractViolation, err)
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrContractViolation, err)
	}

	resp := &Response{}
	if err := json.Unmarshal(fields[MessageField], &resp.Message); err != nil {
		return nil, fmt.Errorf("%w: message: %v", ErrContractViolation, err)
	}

	for _, id := range c.Order {
		rawParams, ok := fields[string(id)]
		if !ok || bytes.Equal(bytes.TrimSpace(rawParams), []byte("null")) {
			continue
		}
		action, _ := c.catalog.Lookup(id)
		params, err := action.Decode(rawParams)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrContractViolation, err)
		}
		var rawMap map[string]interface{}
		_ = json.Unmarshal(rawParams, &rawMap)
		resp.Commands = append(resp.Commands, catalog.Command{
			Action: id,
			Params: params,
			Raw:    rawMap,
		})
	}
	return resp, nil
}

// Schema returns the contract's JSON schema.
func (c *Contract) Schema() *jsonschema.Schema {
	return c.schema
}

// JSONSchema marshals the schema for the AI collaborator.
func (c *Contract) JSONSchema() (json.RawMessage, error) {
	data, err := json.Marshal(c.schema)
	if err != nil {
		return nil, fmt.Errorf("marshal contract schema: %w", err)
	}
	return data, nil
}

// Describe lists each allowed action with its description, in contract order.
func (c *Contract) Describe() string {
	var sb strings.Builder
	for _, id := range c.Order {
		action, _ := c.catalog.Lookup(id)
		sb.WriteString("- ")
		sb.WriteString(string(id))
		if action.Silent {
			sb.WriteString(" (silent)")
		}
		sb.WriteString(": ")
		sb.WriteString(action.Description)
		sb.WriteString("\n")
	}
	return sb.String()
}

func cacheKey(ids []catalog.ActionID) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = string(id)
	}
	return strings.Join(parts, ",")
}
