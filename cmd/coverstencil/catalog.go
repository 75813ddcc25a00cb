// catalog.go — themes, kit and version commands.
package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/xob0t/CoverStencil/pkg/assets"
	"github.com/xob0t/CoverStencil/pkg/overlay"
)

func newThemesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "themes",
		Short: "List the color themes, including brand kit themes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprint(cmd.OutOrStdout(), overlay.FormatThemes())
			return nil
		},
	}
}

func newKitCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "kit <path.cskit>",
		Short: "Describe and check a brand kit",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			kit, cleanup, err := assets.LoadKit(args[0])
			if err != nil {
				return err
			}
			defer cleanup()

			fmt.Fprint(cmd.OutOrStdout(), assets.FormatKit(kit))
			for _, w := range kit.Validate() {
				fmt.Fprintf(cmd.ErrOrStderr(), "Warning: %s\n", w)
			}
			return nil
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "coverstencil %s\n", Version)
		},
	}
}
