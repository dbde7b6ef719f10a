package cmd

import (
	"fmt"

	"github.com/paulschiretz/pgl-mirror/pkg/buildinfo"
)

// RunVersion prints the application version.
func RunVersion() {
	fmt.Printf("%s version %s\n", buildinfo.Name, buildinfo.Version)
}
