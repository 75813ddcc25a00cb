// CoverStencil — Layout editor for news cover overlays.
//
// Usage:
//
//	coverstencil serve [--port 8080]
//	coverstencil preview --query @layout.query --photo photo.jpg -o out/
//	coverstencil payload --query "theme=verde&logo=none" -W 640 -H 360
//	coverstencil themes
//	coverstencil kit brand.cskit
//	coverstencil init
package main

import (
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/xob0t/CoverStencil/internal/observability"
)

func main() {
	root, a := newRootCmd()
	err := root.Execute()
	a.close()
	if err != nil {
		observability.GetLogger().Debug("command failed", zap.Error(err))
		observability.Sync()
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	observability.Sync()
}
