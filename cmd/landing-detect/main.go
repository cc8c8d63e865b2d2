package main

import "github.com/ironsheep/landing-detect/cmd/landing-detect/cmd"

// Version information - set by ldflags during build
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	cmd.Execute(cmd.BuildInfo{Version: version, Commit: commit, Date: date})
}
