// fhearts is the command line client of the encrypted matchmaking engine. It
// runs a local ledger and coprocessor under --datadir.
package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/Hazem-dh/FHEarts/cmd/utils"
	"github.com/Hazem-dh/FHEarts/internal/flags"
)

const clientIdentifier = "fhearts"

// Git SHA1 commit hash of the release (set via linker flags)
var gitCommit = ""
var gitDate = ""

var app *cli.App

func init() {
	app = flags.NewApp(gitCommit, gitDate, "the encrypted matchmaking command line interface")
	app.Commands = []*cli.Command{
		// See accountcmd.go:
		accountCommand,
		// See profilecmd.go:
		registerCommand,
		updateCommand,
		deactivateCommand,
		reactivateCommand,
		// See matchcmd.go:
		searchCommand,
		resetSearchCommand,
		statusCommand,
		decryptMatchCommand,
		confirmCommand,
		respondCommand,
		clearCommand,
		consentCommand,
		pendingCommand,
		contactCommand,
		lookupCommand,
		// See config.go:
		dumpConfigCommand,
		// See misccmd.go:
		versionCommand,
	}
	app.Flags = utils.GlobalFlags
}

func main() {
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
