// pkg/registry/schema.go
package registry

// IntentRegistry is the versioned catalog of intent definitions the chat
// platform recognizes, with their trigger bindings. The file is maintained
// by the parse-debug and catalog-seeder tools and consumed at startup.
type IntentRegistry struct {
	Version     string             `json:"version"`
	LastUpdated string             `json:"lastUpdated"`
	Intents     []IntentDefinition `json:"intents"`
}

// IntentDefinition describes one recognized intent: how it is phrased, what
// it triggers and which parameters the bound workflows accept.
type IntentDefinition struct {
	Name            string                 `json:"name"`
	DisplayName     string                 `json:"displayName"`
	Description     string                 `json:"description"`
	Patterns        []string               `json:"patterns"`
	Examples        []string               `json:"examples"`
	TriggerBinding  TriggerBinding         `json:"triggerBinding"`
	ParameterSchema map[string]interface{} `json:"parameterSchema,omitempty"`
	Workflows       []string               `json:"workflows,omitempty"`
	Tags            []string               `json:"tags,omitempty"`
}

// TriggerBinding names the execution backend an intent routes to.
type TriggerBinding struct {
	Backend string `json:"backend"` // webhook, zeebe, or none
	Target  string `json:"target,omitempty"`
	Timeout string `json:"timeout,omitempty"`
	Retries int    `json:"retries"`
}

// Recognized trigger backends.
const (
	BackendWebhook = "webhook"
	BackendZeebe   = "zeebe"
	BackendNone    = "none"
)
