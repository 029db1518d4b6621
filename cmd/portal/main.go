// @title          LOGA Alumni Portal API
// @version        1.0
// @description    Member directory, events, jobs, forum, dues and donations for the LOGA alumni association.
// @BasePath       /
//
// @securityDefinitions.apikey BearerAuth
// @in                         header
// @name                       Authorization
// @description                Type "Bearer" followed by a space and the JWT token.
package main

import (
	"os"

	"github.com/loga-alumni/portal/cmd/portal/commands"
)

// Set at build time with -ldflags.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	commands.SetVersionInfo(version, commit, date)

	// Errors are already printed by the printer package.
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
