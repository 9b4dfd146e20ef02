package main

import (
	"os"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"github.com/cjgriscom/zran/zran"
)

var buildCommand = &cli.Command{
	Name:      "build",
	Usage:     "build an access-point index for a compressed file",
	ArgsUsage: "PATH",
	Flags: []cli.Flag{
		&cli.Int64Flag{
			Name:  "span",
			Usage: "target uncompressed bytes between access points",
			Value: zran.DefaultSpan,
		},
		&cli.StringFlag{
			Name:  "out",
			Usage: "index output path (defaults to PATH.idx)",
		},
	},
	Action: func(c *cli.Context) error {
		path := c.Args().First()
		if path == "" {
			return cli.Exit(errors.New("build: missing PATH"), ExitCodeFlagParseError)
		}

		out := c.String("out")
		if out == "" {
			out = path + ".idx"
		}

		f, err := os.Open(path)
		if err != nil {
			return errors.Wrap(err, "build")
		}
		defer f.Close()

		idx, err := zran.BuildIndex(f, c.Int64("span"))
		if err != nil {
			return errors.Wrapf(err, "build: indexing %s", path)
		}

		w, err := os.Create(out)
		if err != nil {
			return errors.Wrap(err, "build")
		}
		defer w.Close()

		if err := idx.Encode(w); err != nil {
			return errors.Wrapf(err, "build: writing %s", out)
		}

		logrus.WithFields(logrus.Fields{
			"mode":   idx.Mode(),
			"length": idx.Length(),
			"points": len(idx.Points()),
			"out":    out,
		}).Info("build: wrote index")
		return nil
	},
}
