// Package agent contains the orchestration engine: the reasoning/acting
// loop, the sub-agent delegator, and the programmatic run entry point. The
// top level and every delegated sub-agent run the exact same Loop code,
// parameterized only by instructions and an allowed tool subset.
package agent

import "fmt"

// Definition registers a sub-agent: who it is, what it is for, and which
// tools from the parent surface it may use.
type Definition struct {
	Name         string   `yaml:"name"`
	Description  string   `yaml:"description"`
	Instructions string   `yaml:"instructions"`
	Tools        []string `yaml:"tools"`
}

// Validate checks the definition is registrable.
func (d Definition) Validate() error {
	if d.Name == "" {
		return fmt.Errorf("sub-agent definition has no name")
	}
	if d.Instructions == "" {
		return fmt.Errorf("sub-agent %q has no instructions", d.Name)
	}
	return nil
}
