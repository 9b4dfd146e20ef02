package main

import (
	"fmt"
	"io/fs"
	"os"

	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"

	"github.com/cjgriscom/zran/zran"
	"github.com/cjgriscom/zran/archivefs"
)

var lsCommand = &cli.Command{
	Name:      "ls",
	Usage:     "list the members of a tar archive stored in a compressed stream",
	ArgsUsage: "PATH INDEX",
	Action: func(c *cli.Context) error {
		path := c.Args().Get(0)
		indexPath := c.Args().Get(1)
		if path == "" || indexPath == "" {
			return cli.Exit(errors.New("ls: requires PATH and INDEX"), ExitCodeFlagParseError)
		}

		f, err := os.Open(path)
		if err != nil {
			return errors.Wrap(err, "ls")
		}
		defer f.Close()

		idxFile, err := os.Open(indexPath)
		if err != nil {
			return errors.Wrap(err, "ls")
		}
		defer idxFile.Close()

		idx, err := zran.DecodeIndex(idxFile)
		if err != nil {
			return errors.Wrapf(err, "ls: decoding %s", indexPath)
		}

		fsys, err := archivefs.New(f, idx)
		if err != nil {
			return errors.Wrap(err, "ls")
		}

		return fs.WalkDir(fsys, ".", func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if p == "." {
				return nil
			}
			info, err := d.Info()
			if err != nil {
				return err
			}
			if d.IsDir() {
				fmt.Fprintf(c.App.Writer, "%s/\n", p)
				return nil
			}
			fmt.Fprintf(c.App.Writer, "%10d  %s\n", info.Size(), p)
			return nil
		})
	},
}
