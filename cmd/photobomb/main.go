// PhotoBomb - photo library client with background batch uploads.
package main

import (
	"os"

	"github.com/bhargavkumar1612/photoBomb-sub000/internal/cli"
	"github.com/bhargavkumar1612/photoBomb-sub000/internal/version"
)

// Version information
var (
	Version   = "v1.2.0"
	BuildTime = "unknown"
)

func main() {
	// Propagate version to the packages that print it
	version.Version = Version
	version.BuildTime = BuildTime
	cli.Version = Version
	cli.BuildTime = BuildTime

	os.Exit(cli.Execute())
}
