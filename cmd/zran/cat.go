package main

import (
	"io"
	"os"

	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"

	"github.com/cjgriscom/zran/zran"
)

var catCommand = &cli.Command{
	Name:      "cat",
	Usage:     "extract a byte range from a compressed file using its index",
	ArgsUsage: "PATH INDEX",
	Flags: []cli.Flag{
		&cli.Int64Flag{
			Name:  "offset",
			Usage: "uncompressed byte offset to start at",
		},
		&cli.Int64Flag{
			Name:  "length",
			Usage: "number of uncompressed bytes to extract (0 means to end of stream)",
		},
	},
	Action: func(c *cli.Context) error {
		path := c.Args().Get(0)
		indexPath := c.Args().Get(1)
		if path == "" || indexPath == "" {
			return cli.Exit(errors.New("cat: requires PATH and INDEX"), ExitCodeFlagParseError)
		}

		f, err := os.Open(path)
		if err != nil {
			return errors.Wrap(err, "cat")
		}
		defer f.Close()

		idxFile, err := os.Open(indexPath)
		if err != nil {
			return errors.Wrap(err, "cat")
		}
		defer idxFile.Close()

		idx, err := zran.DecodeIndex(idxFile)
		if err != nil {
			return errors.Wrapf(err, "cat: decoding %s", indexPath)
		}

		offset := c.Int64("offset")
		length := c.Int64("length")
		if length == 0 {
			length = idx.Length() - offset
		}
		if length < 0 {
			return errors.New("cat: offset past end of stream")
		}

		zr, err := zran.NewReader(f, idx)
		if err != nil {
			return errors.Wrap(err, "cat")
		}

		if _, err := zr.Seek(offset, io.SeekStart); err != nil {
			return errors.Wrap(err, "cat")
		}

		_, err = io.CopyN(c.App.Writer, zr, length)
		if err != nil && !errors.Is(err, io.EOF) {
			return errors.Wrap(err, "cat")
		}
		return nil
	},
}
