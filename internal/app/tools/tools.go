package tools

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/taskdeck/taskdeck/internal/domain"
)

// Registry errors.
var (
	// ErrToolNotFound is returned when a tool is not registered.
	ErrToolNotFound = errors.New("tool not found")

	// ErrToolAlreadyRegistered is returned when registering a duplicate.
	ErrToolAlreadyRegistered = errors.New("tool already registered")
)

// ExecuteFunc runs a tool with validated arguments. The returned value is
// serialized as the tool-result payload fed back to the model.
type ExecuteFunc func(ctx context.Context, args map[string]any) (any, error)

// Tool is a named, schema-validated capability the model may invoke, backed
// by a concrete data-mutating or data-reading function.
type Tool struct {
	domain.ToolDefinition
	Execute ExecuteFunc
}

// Registry holds the fixed catalog of tools exposed to the model.
// It is thread-safe; registration happens once at startup.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]*Tool
}

func NewRegistry() *Registry {
	return &Registry{
		tools: make(map[string]*Tool),
	}
}

// Register adds a tool. Returns an error on duplicate or invalid tools.
func (r *Registry) Register(tool *Tool) error {
	if tool.Name == "" {
		return errors.New("tool name cannot be empty")
	}
	if tool.Execute == nil {
		return errors.New("tool execute function cannot be nil")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.tools[tool.Name]; exists {
		return fmt.Errorf("%w: %s", ErrToolAlreadyRegistered, tool.Name)
	}
	r.tools[tool.Name] = tool
	return nil
}

// MustRegister registers a tool and panics on error. Use for static
// registration at startup.
func (r *Registry) MustRegister(tool *Tool) {
	if err := r.Register(tool); err != nil {
		panic(fmt.Sprintf("failed to register tool %s: %v", tool.Name, err))
	}
}

// Get returns a tool by name, or nil if not found.
func (r *Registry) Get(name string) *Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.tools[name]
}

// Count returns the number of registered tools.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tools)
}

// Declarations returns the model-facing definitions, sorted by name so the
// model sees a stable catalog.
func (r *Registry) Declarations() []domain.ToolDefinition {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.ToolDefinition, 0, len(r.tools))
	for _, t := range r.tools {
		out = append(out, t.ToolDefinition)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Call validates args against the tool's schema and executes it. Validation
// failures reject the call before any effect. Each invocation is a direct,
// unconditional effect; the registry performs no deduplication.
func (r *Registry) Call(ctx context.Context, name string, args map[string]any) (any, error) {
	tool := r.Get(name)
	if tool == nil {
		return nil, fmt.Errorf("%w: %s", ErrToolNotFound, name)
	}
	if err := validateArgs(tool.Schema, args); err != nil {
		return nil, err
	}
	return tool.Execute(ctx, args)
}

// validateArgs enforces required fields, declared types and enum membership.
func validateArgs(schema domain.ToolSchema, args map[string]any) error {
	for _, req := range schema.Required {
		v, ok := args[req]
		if !ok || v == nil {
			return domain.NewValidationError(req, "is required")
		}
		if s, isStr := v.(string); isStr && s == "" {
			return domain.NewValidationError(req, "is required")
		}
	}
	for name, prop := range schema.Properties {
		v, ok := args[name]
		if !ok || v == nil {
			continue
		}
		if prop.Type == "string" {
			s, isStr := v.(string)
			if !isStr {
				return domain.NewValidationError(name, "must be a string")
			}
			if len(prop.Enum) > 0 && s != "" && !contains(prop.Enum, s) {
				return domain.NewValidationError(name, fmt.Sprintf("must be one of %v", prop.Enum))
			}
		}
	}
	return nil
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}

// --- argument helpers shared by the tool files --- //

func stringArg(args map[string]any, key string) string {
	if v, ok := args[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}
