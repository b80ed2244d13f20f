package config

import (
	"os"
	"testing"

	"github.com/diogo/supportchat/internal/models"
)

func TestDefaultPersonas(t *testing.T) {
	personas := DefaultPersonas()

	if len(personas) == 0 {
		t.Fatal("DefaultPersonas should return at least one persona")
	}
	if personas[0].Name != DefaultPersonaName {
		t.Errorf("first persona = %s, want %s", personas[0].Name, DefaultPersonaName)
	}
	if personas[0].SystemPrompt != models.DefaultSystemInstruction {
		t.Error("support persona should carry the default instruction")
	}

	seen := make(map[string]bool)
	for _, p := range personas {
		if err := ValidatePersona(p); err != nil {
			t.Errorf("built-in persona %s invalid: %v", p.Name, err)
		}
		if seen[p.Name] {
			t.Errorf("duplicate persona %s", p.Name)
		}
		seen[p.Name] = true
	}
}

func TestMergePersonas(t *testing.T) {
	defaults := []Persona{
		{Name: "a", SystemPrompt: "A"},
		{Name: "b", SystemPrompt: "B"},
	}
	custom := []Persona{
		{Name: "b", SystemPrompt: "custom B"},
		{Name: "c", SystemPrompt: "C"},
	}

	result := mergePersonas(defaults, custom)

	if len(result) != 3 {
		t.Fatalf("len = %d, want 3", len(result))
	}
	if result[1].SystemPrompt != "custom B" {
		t.Error("custom persona should replace the default with the same name")
	}
	if result[2].Name != "c" {
		t.Error("new custom persona should be appended")
	}
}

func TestLoadPersonas_NoFile(t *testing.T) {
	setupHome(t)

	config, err := LoadPersonas()
	if err != nil {
		t.Fatalf("LoadPersonas failed: %v", err)
	}
	if len(config.Personas) != len(DefaultPersonas()) {
		t.Error("should return default personas")
	}
	if config.DefaultPersona != DefaultPersonaName {
		t.Errorf("DefaultPersona = %s, want %s", config.DefaultPersona, DefaultPersonaName)
	}

	path, _ := GetPersonasPath()
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("loading defaults must not create the file")
	}
}

func TestAddAndGetPersona(t *testing.T) {
	setupHome(t)

	p := Persona{Name: "billing", Description: "Billing questions", SystemPrompt: "You handle invoices."}
	if err := AddPersona(p); err != nil {
		t.Fatalf("AddPersona failed: %v", err)
	}

	got, err := GetPersona("billing")
	if err != nil {
		t.Fatalf("GetPersona failed: %v", err)
	}
	if got.SystemPrompt != "You handle invoices." {
		t.Errorf("SystemPrompt = %q", got.SystemPrompt)
	}

	if err := AddPersona(p); err == nil {
		t.Error("adding a duplicate should fail")
	}
}

func TestAddPersona_Invalid(t *testing.T) {
	setupHome(t)

	if err := AddPersona(Persona{Name: "has space"}); err == nil {
		t.Error("invalid name should be rejected")
	}
}

func TestGetPersona_NotFound(t *testing.T) {
	setupHome(t)

	if _, err := GetPersona("nonexistent"); err == nil {
		t.Error("should return error for a missing persona")
	}
}

func TestDeletePersona(t *testing.T) {
	setupHome(t)

	if err := AddPersona(Persona{Name: "temp", SystemPrompt: "x"}); err != nil {
		t.Fatal(err)
	}
	if err := SetDefaultPersona("temp"); err != nil {
		t.Fatal(err)
	}
	if err := DeletePersona("temp"); err != nil {
		t.Fatalf("DeletePersona failed: %v", err)
	}
	if _, err := GetPersona("temp"); err == nil {
		t.Error("persona should be gone")
	}

	def, err := GetDefaultPersona()
	if err != nil {
		t.Fatal(err)
	}
	if def.Name != DefaultPersonaName {
		t.Errorf("default should fall back to %s, got %s", DefaultPersonaName, def.Name)
	}
}

func TestDeletePersona_Protected(t *testing.T) {
	setupHome(t)

	if err := DeletePersona(DefaultPersonaName); err == nil {
		t.Error("the support persona must not be deletable")
	}
	if err := DeletePersona("missing"); err == nil {
		t.Error("deleting an unknown persona should fail")
	}
}

func TestSetDefaultPersona_NotFound(t *testing.T) {
	setupHome(t)

	if err := SetDefaultPersona("nonexistent"); err == nil {
		t.Error("should fail for a missing persona")
	}
}

func TestResolveSystemInstruction(t *testing.T) {
	setupHome(t)

	cfg := DefaultConfig()
	cfg.SystemInstruction = "From config."

	got, err := ResolveSystemInstruction(cfg, "")
	if err != nil || got != "From config." {
		t.Errorf("no persona: got %q, %v", got, err)
	}

	got, err = ResolveSystemInstruction(cfg, "concise")
	if err != nil {
		t.Fatal(err)
	}
	if got == "From config." || got == "" {
		t.Errorf("persona prompt should win, got %q", got)
	}

	cfg.Persona = "friendly"
	got, _ = ResolveSystemInstruction(cfg, "")
	friendly, _ := GetPersona("friendly")
	if got != friendly.SystemPrompt {
		t.Error("configured persona should be used when no flag is given")
	}

	if _, err := ResolveSystemInstruction(cfg, "ghost"); err == nil {
		t.Error("unknown persona should error")
	}
}

func TestResolveSystemInstruction_DefaultPersona(t *testing.T) {
	setupHome(t)

	cfg := DefaultConfig()
	cfg.SystemInstruction = "Custom."

	if err := SetDefaultPersona(DefaultPersonaName); err != nil {
		t.Fatal(err)
	}
	got, _ := ResolveSystemInstruction(cfg, "")
	if got != "Custom." {
		t.Errorf("support default must not override the configured instruction, got %q", got)
	}

	if err := SetDefaultPersona("technical"); err != nil {
		t.Fatal(err)
	}
	got, _ = ResolveSystemInstruction(cfg, "")
	technical, _ := GetPersona("technical")
	if got != technical.SystemPrompt {
		t.Errorf("default persona should apply, got %q", got)
	}
}
