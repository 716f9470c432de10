// cmd/mcpchat/main.go
package main

import (
	"github.com/mwiater/mcpchat/internal/commands"
)

// Set by the linker: -ldflags "-X main.version=... -X main.commit=... -X main.date=..."
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var (
	setVersionInfo = commands.SetVersionInfo
	executeCmd     = commands.Execute
)

// main injects the build information and hands control to the cobra root
// command, which exits non-zero on failure.
func main() {
	setVersionInfo(version, commit, date)
	executeCmd()
}
