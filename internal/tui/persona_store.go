package tui

import "github.com/diogo/supportchat/internal/config"

// PersonaStore lists the personas offered by the settings panel picker.
// This abstraction enables testing with mock implementations.
type PersonaStore interface {
	// List returns all available personas
	List() ([]config.Persona, error)
}

// personaStoreAdapter wraps the config functions to implement PersonaStore
type personaStoreAdapter struct{}

// NewPersonaStore creates a new PersonaStore backed by the config package
func NewPersonaStore() PersonaStore {
	return &personaStoreAdapter{}
}

// List returns all personas
func (s *personaStoreAdapter) List() ([]config.Persona, error) {
	cfg, err := config.LoadPersonas()
	if err != nil {
		return nil, err
	}
	return cfg.Personas, nil
}
