package commands

import (
	"bufio"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/diogo/supportchat/internal/config"
)

// NewPersonaCmd creates the persona command and its subcommands
func NewPersonaCmd() *cobra.Command {
	personaCmd := &cobra.Command{
		Use:   "persona",
		Short: "Manage system instruction personas",
		Long: `View and manage personas: named system instructions that can be
selected with --persona or made the default.`,
	}

	personaCmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List available personas",
		Args:  cobra.NoArgs,
		RunE:  runPersonaList,
	})
	personaCmd.AddCommand(&cobra.Command{
		Use:   "show <name>",
		Short: "Show persona details",
		Args:  cobra.ExactArgs(1),
		RunE:  runPersonaShow,
	})
	personaCmd.AddCommand(&cobra.Command{
		Use:   "add <name>",
		Short: "Add a new persona",
		Args:  cobra.ExactArgs(1),
		RunE:  runPersonaAdd,
	})
	personaCmd.AddCommand(&cobra.Command{
		Use:   "delete <name>",
		Short: "Delete a persona",
		Args:  cobra.ExactArgs(1),
		RunE:  runPersonaDelete,
	})
	personaCmd.AddCommand(&cobra.Command{
		Use:   "default <name>",
		Short: "Set default persona",
		Args:  cobra.ExactArgs(1),
		RunE:  runPersonaSetDefault,
	})

	return personaCmd
}

func runPersonaList(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadPersonas()
	if err != nil {
		return fmt.Errorf("failed to load personas: %w", err)
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "NAME\tDESCRIPTION\tDEFAULT")
	_, _ = fmt.Fprintln(w, "----\t-----------\t-------")

	for _, p := range cfg.Personas {
		isDefault := ""
		if p.Name == cfg.DefaultPersona {
			isDefault = "✓"
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\n", p.Name, p.Description, isDefault)
	}

	return w.Flush()
}

func runPersonaShow(cmd *cobra.Command, args []string) error {
	persona, err := config.GetPersona(args[0])
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Name: %s\n", persona.Name)
	fmt.Fprintf(out, "Description: %s\n", persona.Description)
	fmt.Fprintf(out, "\nSystem Prompt:\n%s\n", persona.SystemPrompt)

	return nil
}

func runPersonaAdd(cmd *cobra.Command, args []string) error {
	name := args[0]

	if _, err := config.GetPersona(name); err == nil {
		return fmt.Errorf("persona '%s' already exists", name)
	}

	out := cmd.OutOrStdout()
	reader := bufio.NewReader(cmd.InOrStdin())

	fmt.Fprint(out, "Enter description: ")
	desc, err := reader.ReadString('\n')
	if err != nil {
		return err
	}
	desc = strings.TrimSpace(desc)

	fmt.Fprintln(out, "Enter system prompt (end with an empty line):")
	var promptLines []string
	for {
		line, err := reader.ReadString('\n')
		line = strings.TrimRight(line, "\n\r")
		if line != "" {
			promptLines = append(promptLines, line)
		}
		if err != nil || line == "" {
			break
		}
	}

	persona := config.Persona{
		Name:         name,
		Description:  desc,
		SystemPrompt: strings.Join(promptLines, "\n"),
	}

	if err := config.AddPersona(persona); err != nil {
		return err
	}

	fmt.Fprintf(out, "Persona '%s' created.\n", name)
	return nil
}

func runPersonaDelete(cmd *cobra.Command, args []string) error {
	name := args[0]

	if err := config.DeletePersona(name); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Persona '%s' deleted.\n", name)
	return nil
}

func runPersonaSetDefault(cmd *cobra.Command, args []string) error {
	name := args[0]

	if err := config.SetDefaultPersona(name); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Default persona set to '%s'.\n", name)
	return nil
}
