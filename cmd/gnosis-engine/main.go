// gnosis-engine is the operator tool of the Gnosis execution engine. It
// inspects the built-in chain specifications without touching any database.
package main

import (
	"fmt"
	"io"
	"os"
	"runtime"

	"github.com/ethereum/go-ethereum/log"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
	"github.com/urfave/cli/v2"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/gnosischain/gnosis-engine/internal/version"
	"github.com/gnosischain/gnosis-engine/params"
)

var (
	chainFlag = &cli.StringFlag{
		Name:    "chain",
		Usage:   "Built-in network to inspect (gnosis, chiado)",
		Value:   "gnosis",
		EnvVars: []string{"GNOSIS_CHAIN"},
	}
	verbosityFlag = &cli.IntFlag{
		Name:  "verbosity",
		Usage: "Logging verbosity: 0=silent, 1=error, 2=warn, 3=info, 4=debug, 5=detail",
		Value: 3,
	}
	logFileFlag = &cli.StringFlag{
		Name:  "log.file",
		Usage: "Write logs to a file as well, rotated at 100MB",
	}
)

var versionCommand = &cli.Command{
	Name:   "version",
	Usage:  "Print version numbers",
	Action: printVersion,
}

func newApp() *cli.App {
	return &cli.App{
		Name:    "gnosis-engine",
		Usage:   "the Gnosis execution engine operator tool",
		Version: params.VersionWithMeta,
		Flags:   []cli.Flag{chainFlag, verbosityFlag, logFileFlag},
		Before:  setupLogging,
		Commands: []*cli.Command{
			forkidCommand,
			forksCommand,
			blobfeeCommand,
			hotpatchCommand,
			versionCommand,
		},
	}
}

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func setupLogging(ctx *cli.Context) error {
	level := log.FromLegacyLevel(ctx.Int(verbosityFlag.Name))

	output, useColor := ctx.App.ErrWriter, false
	if output == os.Stderr && isatty.IsTerminal(os.Stderr.Fd()) {
		output, useColor = colorable.NewColorableStderr(), true
	}
	if path := ctx.String(logFileFlag.Name); path != "" {
		rotator := &lumberjack.Logger{
			Filename:   path,
			MaxSize:    100, // megabytes
			MaxBackups: 3,
			MaxAge:     28, // days
		}
		output, useColor = io.MultiWriter(output, rotator), false
	}
	log.SetDefault(log.NewLogger(log.NewTerminalHandlerWithLevel(output, level, useColor)))
	return nil
}

// chainSpec resolves the network selected with --chain.
func chainSpec(ctx *cli.Context) (*params.ChainSpec, error) {
	name := ctx.String(chainFlag.Name)
	spec, ok := params.ChainSpecByName(name)
	if !ok {
		return nil, fmt.Errorf("unknown chain %q", name)
	}
	log.Debug("Loaded chain specification", "chain", name, "chainid", spec.ChainID())
	return spec, nil
}

func printVersion(ctx *cli.Context) error {
	ver, date := version.Info()
	w := ctx.App.Writer
	fmt.Fprintln(w, ver)
	fmt.Fprintln(w, "Client:", version.ClientName("gnosis-engine"))
	if date != "" {
		fmt.Fprintln(w, "Build Date:", date)
	}
	fmt.Fprintln(w, "Architecture:", runtime.GOARCH)
	fmt.Fprintln(w, "Go Version:", runtime.Version())
	fmt.Fprintln(w, "Operating System:", runtime.GOOS)
	return nil
}
