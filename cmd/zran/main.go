// Command zran builds and queries access-point indexes over DEFLATE, zlib,
// and gzip compressed streams.
package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

// Exit codes, matching the convention the retrieved go-dictzip CLI uses.
const (
	ExitCodeSuccess = iota
	ExitCodeFlagParseError
	ExitCodeUnknownError
)

func main() {
	app := newApp()
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "zran: %v\n", err)
		os.Exit(exitCodeFor(err))
	}
}

func exitCodeFor(err error) int {
	if cliErr, ok := err.(cli.ExitCoder); ok {
		return cliErr.ExitCode()
	}
	return ExitCodeUnknownError
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "zran",
		Usage: "random access into DEFLATE, zlib, and gzip streams",
		Description: "zran builds a compact access-point index over a compressed\n" +
			"stream and uses it to extract arbitrary byte ranges without\n" +
			"decompressing from the start every time.",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:               "verbose",
				Aliases:            []string{"v"},
				Usage:              "log index-build progress at debug level",
				DisableDefaultText: true,
			},
		},
		Before: func(c *cli.Context) error {
			if c.Bool("verbose") {
				logrus.SetLevel(logrus.DebugLevel)
			}
			return nil
		},
		Commands: []*cli.Command{
			buildCommand,
			catCommand,
			lsCommand,
		},
	}
}
