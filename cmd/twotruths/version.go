package cli

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

// Version is the build version, overridden at link time for releases.
var Version = "1.0.0"

// VersionCmd prints the build version and target platform.
func VersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("twotruths %s (%s/%s)\n", Version, runtime.GOOS, runtime.GOARCH)
		},
	}
}
