package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/diogo/supportchat/internal/models"
)

// DefaultPersonaName is the persona used when none is selected
const DefaultPersonaName = "support"

// Persona is a named system instruction preset
type Persona struct {
	Name         string `json:"name"`
	Description  string `json:"description"`
	SystemPrompt string `json:"system_prompt"`
}

// PersonaConfig stores all personas
type PersonaConfig struct {
	Personas       []Persona `json:"personas"`
	DefaultPersona string    `json:"default_persona,omitempty"`
}

// DefaultPersonas returns pre-configured personas
func DefaultPersonas() []Persona {
	return []Persona{
		{
			Name:         DefaultPersonaName,
			Description:  "Customer support agent",
			SystemPrompt: models.DefaultSystemInstruction,
		},
		{
			Name:         "concise",
			Description:  "Short, direct answers",
			SystemPrompt: "You are a customer support agent. Answer in at most three sentences. Skip pleasantries.",
		},
		{
			Name:        "technical",
			Description: "Troubleshooting specialist",
			SystemPrompt: `You are a technical support specialist. When helping:
- Ask for error messages and versions when they are missing
- Give numbered troubleshooting steps
- Explain what each step checks`,
		},
		{
			Name:         "friendly",
			Description:  "Warm and patient helper",
			SystemPrompt: "You are a warm, patient customer support agent. Use plain language and reassure the user when something goes wrong.",
		},
	}
}

// GetPersonasPath returns the path to the personas file
func GetPersonasPath() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "personas.json"), nil
}

// LoadPersonas loads the persona configuration
func LoadPersonas() (*PersonaConfig, error) {
	path, err := GetPersonasPath()
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &PersonaConfig{
				Personas:       DefaultPersonas(),
				DefaultPersona: DefaultPersonaName,
			}, nil
		}
		return nil, fmt.Errorf("failed to read personas: %w", err)
	}

	var config PersonaConfig
	if err := json.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse personas: %w", err)
	}

	// Merge with defaults (keep user customizations)
	config.Personas = mergePersonas(DefaultPersonas(), config.Personas)

	return &config, nil
}

// SavePersonas saves the persona configuration
func SavePersonas(config *PersonaConfig) error {
	path, err := GetPersonasPath()
	if err != nil {
		return err
	}

	if _, err := EnsureConfigDir(); err != nil {
		return err
	}

	data, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal personas: %w", err)
	}

	return os.WriteFile(path, data, 0o600)
}

// GetPersona returns a persona by name
func GetPersona(name string) (*Persona, error) {
	config, err := LoadPersonas()
	if err != nil {
		return nil, err
	}

	for _, p := range config.Personas {
		if p.Name == name {
			return &p, nil
		}
	}

	return nil, fmt.Errorf("persona '%s' not found", name)
}

// AddPersona adds a new persona
func AddPersona(persona Persona) error {
	if err := ValidatePersona(persona); err != nil {
		return err
	}

	config, err := LoadPersonas()
	if err != nil {
		return err
	}

	for _, p := range config.Personas {
		if p.Name == persona.Name {
			return fmt.Errorf("persona '%s' already exists", persona.Name)
		}
	}

	config.Personas = append(config.Personas, persona)
	return SavePersonas(config)
}

// DeletePersona removes a persona by name. The built-in support persona
// cannot be deleted.
func DeletePersona(name string) error {
	if name == DefaultPersonaName {
		return fmt.Errorf("cannot delete the %s persona", DefaultPersonaName)
	}

	config, err := LoadPersonas()
	if err != nil {
		return err
	}

	kept := make([]Persona, 0, len(config.Personas))
	found := false
	for _, p := range config.Personas {
		if p.Name == name {
			found = true
			continue
		}
		kept = append(kept, p)
	}

	if !found {
		return fmt.Errorf("persona '%s' not found", name)
	}

	config.Personas = kept

	if config.DefaultPersona == name {
		config.DefaultPersona = DefaultPersonaName
	}

	return SavePersonas(config)
}

// SetDefaultPersona sets the default persona
func SetDefaultPersona(name string) error {
	if _, err := GetPersona(name); err != nil {
		return err
	}

	config, err := LoadPersonas()
	if err != nil {
		return err
	}

	config.DefaultPersona = name
	return SavePersonas(config)
}

// GetDefaultPersona returns the default persona
func GetDefaultPersona() (*Persona, error) {
	config, err := LoadPersonas()
	if err != nil {
		return nil, err
	}

	name := config.DefaultPersona
	if name == "" {
		name = DefaultPersonaName
	}

	return GetPersona(name)
}

// ResolveSystemInstruction returns the instruction a session should start
// with. Precedence: persona, cfg.Persona, a default persona other than
// support chosen with SetDefaultPersona, then cfg.SystemInstruction.
func ResolveSystemInstruction(cfg Config, persona string) (string, error) {
	if persona == "" {
		persona = cfg.Persona
	}
	if persona == "" {
		pc, err := LoadPersonas()
		if err != nil {
			return "", err
		}
		if pc.DefaultPersona != "" && pc.DefaultPersona != DefaultPersonaName {
			persona = pc.DefaultPersona
		}
	}
	if persona == "" {
		return cfg.SystemInstruction, nil
	}
	p, err := GetPersona(persona)
	if err != nil {
		return "", err
	}
	return p.SystemPrompt, nil
}

func mergePersonas(defaults, custom []Persona) []Persona {
	result := make([]Persona, len(defaults))
	copy(result, defaults)

	for _, cp := range custom {
		found := false
		for i, dp := range result {
			if dp.Name == cp.Name {
				result[i] = cp
				found = true
				break
			}
		}
		if !found {
			result = append(result, cp)
		}
	}

	return result
}

// Validation constants
const (
	MaxNameLength        = 50
	MaxDescriptionLength = 200
	MaxPromptLength      = 32 * 1024 // 32KB
)

// ValidatePersona validates a persona's fields
func ValidatePersona(p Persona) error {
	fieldErrors := make(map[string]string)

	if p.Name == "" {
		fieldErrors["name"] = "name is required"
	} else if len(p.Name) > MaxNameLength {
		fieldErrors["name"] = fmt.Sprintf("name too long (max %d characters)", MaxNameLength)
	} else if !isValidPersonaName(p.Name) {
		fieldErrors["name"] = "name must contain only alphanumeric characters, underscores, and hyphens"
	}

	if len(p.Description) > MaxDescriptionLength {
		fieldErrors["description"] = fmt.Sprintf("description too long (max %d characters)", MaxDescriptionLength)
	}

	if len(p.SystemPrompt) > MaxPromptLength {
		fieldErrors["system_prompt"] = fmt.Sprintf("system prompt too long (max %d characters)", MaxPromptLength)
	}

	if len(fieldErrors) > 0 {
		return fmt.Errorf("validation failed: %v", fieldErrors)
	}

	return nil
}

func isValidPersonaName(name string) bool {
	for _, c := range name {
		if !((c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') || c == '_' || c == '-') {
			return false
		}
	}
	return true
}
