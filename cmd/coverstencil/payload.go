// payload.go — Print the serialized layout contract for a query.
package main

import (
	"fmt"

	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/cobra"

	"github.com/xob0t/CoverStencil/pkg/overlay"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

func newPayloadCmd(a *app) *cobra.Command {
	var (
		query, payload string
		width, height  float64
		indent         bool
	)
	cmd := &cobra.Command{
		Use:   "payload",
		Short: "Print the render payload for a layout at a viewport size",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			state, warnings, err := loadState(query, payload, a.cfg.Editor)
			if err != nil {
				return err
			}
			for _, w := range warnings {
				fmt.Fprintf(cmd.ErrOrStderr(), "Warning: %s\n", w)
			}

			p := overlay.Serialize(state, overlay.Viewport{Width: width, Height: height})
			var data []byte
			if indent {
				data, err = json.MarshalIndent(p, "", "  ")
			} else {
				data, err = overlay.MarshalPayload(p)
			}
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVarP(&query, "query", "q", "", "editor query string, or @file with one key=value per line")
	f.StringVar(&payload, "payload", "", "re-serialize an existing payload JSON")
	f.Float64VarP(&width, "width", "W", overlay.ReferenceWidth, "viewport width")
	f.Float64VarP(&height, "height", "H", overlay.ReferenceHeight, "viewport height")
	f.BoolVar(&indent, "indent", false, "pretty-print the JSON")
	return cmd
}
