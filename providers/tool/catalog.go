package tool

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/leofalp/agentloop/providers/ai"
)

// ErrDuplicateTool is returned when a name is registered twice.
var ErrDuplicateTool = errors.New("tool: duplicate tool name")

// Catalog is a registry of tools keyed by case-insensitive name. Tools keep
// their registration order when listed.
type Catalog struct {
	mu    sync.RWMutex
	tools map[string]GenericTool
	order []string
}

// NewCatalog creates an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{tools: make(map[string]GenericTool)}
}

// AddTools registers tools. Nothing is added when any name is empty or
// already taken, including duplicates within the arguments.
func (c *Catalog) AddTools(tools ...GenericTool) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	seen := make(map[string]bool, len(tools))
	for _, t := range tools {
		name := t.ToolInfo().Name
		key := strings.ToLower(name)
		if key == "" {
			return errors.New("tool: empty tool name")
		}
		if _, exists := c.tools[key]; exists || seen[key] {
			return fmt.Errorf("%w: %q", ErrDuplicateTool, name)
		}
		seen[key] = true
	}

	for _, t := range tools {
		key := strings.ToLower(t.ToolInfo().Name)
		c.tools[key] = t
		c.order = append(c.order, key)
	}
	return nil
}

// Get looks a tool up by name, ignoring case.
func (c *Catalog) Get(name string) (GenericTool, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	t, ok := c.tools[strings.ToLower(name)]
	return t, ok
}

// Has reports whether a tool is registered under name, ignoring case.
func (c *Catalog) Has(name string) bool {
	_, ok := c.Get(name)
	return ok
}

// Tools returns the registered tools in registration order.
func (c *Catalog) Tools() []GenericTool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]GenericTool, 0, len(c.order))
	for _, key := range c.order {
		out = append(out, c.tools[key])
	}
	return out
}

// Descriptions returns the tool descriptions sent to the model, in
// registration order.
func (c *Catalog) Descriptions() []ai.ToolDescription {
	tools := c.Tools()
	out := make([]ai.ToolDescription, 0, len(tools))
	for _, t := range tools {
		out = append(out, t.ToolInfo())
	}
	return out
}
