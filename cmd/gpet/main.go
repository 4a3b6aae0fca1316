// Copyright 2025 The go-petstake Authors
// This file is part of go-petstake.
//
// go-petstake is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// go-petstake is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with go-petstake. If not, see <http://www.gnu.org/licenses/>.

// gpet is the command-line interface to a pet-stake action ledger.
package main

import (
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/inconshreveable/log15"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
	"github.com/petstake/go-petstake/params"
	"gopkg.in/urfave/cli.v1"
)

const clientIdentifier = "gpet"

var (
	// Git SHA1 commit hash of the release (set via linker flags)
	gitCommit = ""
	gitDate   = ""

	app = cli.NewApp()

	dataDirFlag = cli.StringFlag{
		Name:  "datadir",
		Usage: "Data directory for the ledger database",
		Value: defaultDataDir(),
	}
	callerFlag = cli.StringFlag{
		Name:  "caller",
		Usage: "Address performing the operation (owner or the agent itself)",
	}
	verbosityFlag = cli.IntFlag{
		Name:  "verbosity",
		Usage: "Logging verbosity: 0=crit, 1=error, 2=warn, 3=info, 4=debug",
		Value: 3,
	}
)

func init() {
	app.Name = clientIdentifier
	app.Version = params.VersionWithCommit(gitCommit, gitDate)
	app.Usage = "the pet-stake action ledger command line interface"
	app.Copyright = "Copyright 2025 The go-petstake Authors"
	app.Flags = []cli.Flag{
		dataDirFlag,
		callerFlag,
		verbosityFlag,
		configFileFlag,
		ownerFlag,
		signerFlag,
		chainIDFlag,
		ledgerAddrFlag,
		ratioFlag,
	}
	app.Commands = []cli.Command{
		recordCommand,
		batchCommand,
		setStatusCommand,
		statusCommand,
		evaluateCommand,
		requiredCommand,
		signIntentCommand,
		verifyRecordCommand,
		dumpConfigCommand,
		versionCommand,
	}
	sort.Sort(cli.CommandsByName(app.Commands))

	app.Before = func(ctx *cli.Context) error {
		setupLogging(ctx)
		return nil
	}
}

func main() {
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// setupLogging routes log15 output through a terminal-aware colored handler.
func setupLogging(ctx *cli.Context) {
	usecolor := isatty.IsTerminal(os.Stderr.Fd()) && os.Getenv("TERM") != "dumb"
	var output io.Writer = os.Stderr
	if usecolor {
		output = colorable.NewColorableStderr()
	}
	handler := log15.StreamHandler(output, log15.TerminalFormat())
	lvl := log15.Lvl(ctx.GlobalInt(verbosityFlag.Name)) // LvlCrit==0 .. LvlDebug==4
	if lvl > log15.LvlDebug {
		lvl = log15.LvlDebug
	}
	log15.Root().SetHandler(log15.LvlFilterHandler(lvl, handler))
}

// Fatalf formats a message to standard error and exits the program.
func Fatalf(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "Fatal: "+format+"\n", args...)
	os.Exit(1)
}

var versionCommand = cli.Command{
	Action:    version,
	Name:      "version",
	Usage:     "Print version numbers",
	ArgsUsage: " ",
	Category:  "MISCELLANEOUS COMMANDS",
}

func version(ctx *cli.Context) error {
	fmt.Println(clientIdentifier)
	fmt.Println("Version:", params.VersionWithMeta)
	if gitCommit != "" {
		fmt.Println("Git Commit:", gitCommit)
	}
	if gitDate != "" {
		fmt.Println("Git Commit Date:", gitDate)
	}
	fmt.Println("Architecture:", osArch())
	return nil
}
