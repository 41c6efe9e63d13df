// pkg/registry/registry.go
package registry

import (
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"time"
)

// LoadRegistry reads and decodes an intent registry file.
func LoadRegistry(path string) (*IntentRegistry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var reg IntentRegistry
	err = json.Unmarshal(data, &reg)
	return &reg, err
}

// SaveRegistry writes the registry back, stamping LastUpdated.
func SaveRegistry(path string, reg *IntentRegistry) error {
	reg.LastUpdated = time.Now().UTC().Format(time.RFC3339)
	data, err := json.MarshalIndent(reg, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// Find returns the definition with the given intent name.
func (r *IntentRegistry) Find(name string) (*IntentDefinition, bool) {
	for i := range r.Intents {
		if r.Intents[i].Name == name {
			return &r.Intents[i], true
		}
	}
	return nil, false
}

// Upsert replaces the definition with the same name or appends a new one.
func (r *IntentRegistry) Upsert(def IntentDefinition) {
	for i := range r.Intents {
		if r.Intents[i].Name == def.Name {
			r.Intents[i] = def
			return
		}
	}
	r.Intents = append(r.Intents, def)
}

var intentNamePattern = regexp.MustCompile(`^[a-z]+(_[a-z]+)*$`)

// Validate checks the registry for duplicate names, malformed intent names,
// uncompilable patterns and unknown trigger backends.
func (r *IntentRegistry) Validate() error {
	if r.Version == "" {
		return fmt.Errorf("registry version is required")
	}
	seen := make(map[string]bool, len(r.Intents))
	for _, def := range r.Intents {
		if !intentNamePattern.MatchString(def.Name) {
			return fmt.Errorf("intent %q: name must be snake_case", def.Name)
		}
		if seen[def.Name] {
			return fmt.Errorf("intent %q: duplicate definition", def.Name)
		}
		seen[def.Name] = true

		if len(def.Patterns) == 0 {
			return fmt.Errorf("intent %q: at least one pattern is required", def.Name)
		}
		for _, p := range def.Patterns {
			if _, err := regexp.Compile(p); err != nil {
				return fmt.Errorf("intent %q: pattern %q does not compile: %w", def.Name, p, err)
			}
		}

		switch def.TriggerBinding.Backend {
		case BackendWebhook, BackendZeebe, BackendNone, "":
		default:
			return fmt.Errorf("intent %q: unknown trigger backend %q", def.Name, def.TriggerBinding.Backend)
		}
		if def.TriggerBinding.Timeout != "" {
			if _, err := time.ParseDuration(def.TriggerBinding.Timeout); err != nil {
				return fmt.Errorf("intent %q: invalid trigger timeout %q", def.Name, def.TriggerBinding.Timeout)
			}
		}
	}
	return nil
}
