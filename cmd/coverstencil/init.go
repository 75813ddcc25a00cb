// init.go — Write starter query, payload and brand kit files.
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/xob0t/CoverStencil/pkg/assets"
	"github.com/xob0t/CoverStencil/pkg/overlay"
)

func newInitCmd(a *app) *cobra.Command {
	var queryOut, payloadOut, kitOut string
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a sample layout query, its payload and optionally a kit.json",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			query := assets.ExampleQuery()
			state, _ := overlay.FromQuery(parseQueryLines(query))
			payload, err := json.MarshalIndent(overlay.Serialize(state, overlay.Viewport{
				Width:  overlay.ReferenceWidth,
				Height: overlay.ReferenceHeight,
			}), "", "  ")
			if err != nil {
				return fmt.Errorf("encode payload: %w", err)
			}

			if err := os.WriteFile(queryOut, []byte(query), 0o644); err != nil {
				return fmt.Errorf("write query: %w", err)
			}
			if err := os.WriteFile(payloadOut, append(payload, '\n'), 0o644); err != nil {
				return fmt.Errorf("write payload: %w", err)
			}
			created := []string{queryOut, payloadOut}
			if kitOut != "" {
				if err := os.WriteFile(kitOut, []byte(assets.ExampleKitJSON()), 0o644); err != nil {
					return fmt.Errorf("write kit: %w", err)
				}
				created = append(created, kitOut)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Created: %s\n", strings.Join(created, ", "))
			fmt.Fprintf(out, "Run: coverstencil preview --query @%s -o out/\n", queryOut)
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&queryOut, "query", "layout.query", "output path for the sample query")
	f.StringVar(&payloadOut, "payload", "payload.json", "output path for the sample payload")
	f.StringVar(&kitOut, "kit", "", "also write a sample kit.json to this path")
	return cmd
}
