package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/bazlabs/baz/internal/tools"
)

var toolNameStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))

var toolsCmd = &cobra.Command{
	Use:   "tools",
	Short: "List registered tools and their wire schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		reg := tools.DefaultRegistry()

		wire, err := reg.WireDefinitions()
		if err != nil {
			return err
		}

		for _, def := range wire {
			fmt.Printf("%s  %s\n", toolNameStyle.Render(def.Name), def.Description)
			params, err := json.MarshalIndent(def.Parameters, "  ", "  ")
			if err != nil {
				return err
			}
			fmt.Printf("  %s\n\n", params)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(toolsCmd)
}
