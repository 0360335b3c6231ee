package cmd

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/asmitswain/portfolio/internal/portfolio"
)

var validateCmd = &cobra.Command{
	Use:   "validate [content.yaml]",
	Short: "Check config and portfolio content without starting the server",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		path := cfg.ContentPath
		if len(args) == 1 {
			path = args[0]
		}
		content, err := portfolio.LoadFile(path)
		if err != nil {
			return errors.Wrap(err, "content")
		}

		out := cmd.OutOrStdout()
		p := content.Profile()
		fmt.Fprintf(out, "%s: %d roles, %d projects\n", p.Name, len(p.DynamicRoles), len(content.Projects()))
		for _, g := range content.SkillGroups() {
			fmt.Fprintf(out, "  %-10s %d skills\n", g.Category, len(g.Skills))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
