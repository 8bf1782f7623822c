// Copyright 2020 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"log"
	"os"
	"strings"

	"github.com/urfave/cli/v3"
	"golang.org/x/term"
	"golang.org/x/xerrors"
	"rsc.io/ifswitch/diff"
	"rsc.io/ifswitch/refactor"
)

func main() {
	log.SetPrefix("ifswitch: ")
	log.SetFlags(0)

	cmd := &cli.Command{
		Name:      "ifswitch",
		Usage:     "rewrite if/else chains as switch statements",
		ArgsUsage: "script",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "diff",
				Usage: "show diff instead of writing files",
			},
			&cli.StringFlag{
				Name:  "color",
				Usage: "color the diff: auto, always or never",
				Value: "auto",
			},
			&cli.StringSliceFlag{
				Name:  "tags",
				Usage: "build tags to load packages with (GOOS, GOARCH, cgo and race are understood)",
			},
			&cli.BoolFlag{
				Name:  "v",
				Usage: "log each planned rewrite",
			},
		},
		Action: ifswitchAction,
	}
	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}

func ifswitchAction(ctx context.Context, cmd *cli.Command) error {
	if cmd.NArg() != 1 {
		return newErrUsage("ifswitch [-diff] [-color=auto|always|never] [-tags=list] [-v] script")
	}
	color, err := useColor(cmd.String("color"), term.IsTerminal(int(os.Stdout.Fd())))
	if err != nil {
		return err
	}

	rf, err := refactor.New(".")
	if err != nil {
		return err
	}
	rf.ShowDiff = cmd.Bool("diff")
	rf.Config = refactor.NewConfig(cmd.StringSlice("tags")...)

	opts := runOptions{color: color}
	if cmd.Bool("v") {
		opts.logf = log.Printf
	}
	return run(rf, cmd.Args().First(), opts)
}

// useColor decides whether to color diffs for the --color mode.
func useColor(mode string, tty bool) (bool, error) {
	switch mode {
	case "auto":
		return tty, nil
	case "always":
		return true, nil
	case "never":
		return false, nil
	}
	return false, newErrUsage("unknown -color mode %q", mode)
}

type runOptions struct {
	color bool
	logf  func(format string, args ...any)
}

// run applies script to the package loaded by rf.
// The script lists code addresses, one or more per line.
func run(rf *refactor.Refactor, script string, opts runOptions) error {
	snap, err := rf.Load()
	if err != nil {
		return err
	}
	if err := snap.Errors.Err(); err != nil {
		return newErrPrecondition("package does not type-check:\n%v", err)
	}

	sw := newSwitcher(snap, opts.logf)
	text := script
	for text != "" {
		var line string
		line, text, _ = cut(text, "\n")
		line = trimComments(line)
		for strings.HasSuffix(line, `\`) && text != "" {
			var l string
			l, text, _ = cut(text, "\n")
			line = line[:len(line)-1] + "\n" + l
			line = trimComments(line)
		}
		items, exprs := snap.LookupAll(line)
		for i, item := range items {
			if item != nil {
				sw.apply(item, exprs[i])
			}
		}
	}
	if err := snap.Errors.Err(); err != nil {
		return err
	}
	if len(snap.Modified()) == 0 {
		// Did nothing.
		return nil
	}

	snap.Gofmt()
	if err := snap.Errors.Err(); err != nil {
		return err
	}

	// Show diff before the check, so that it's easier to understand errors.
	if rf.ShowDiff {
		d, err := snap.Diff()
		if err != nil {
			return err
		}
		if opts.color {
			d = diff.Colorize(d)
		}
		rf.Stdout.Write(d)
	}

	// Reload the package with the new text
	// to make sure the rewrites are valid.
	if err := snap.Check(); err != nil {
		return xerrors.Errorf("checking rewritten package: %w", err)
	}

	if rf.ShowDiff {
		return nil
	}
	return snap.Write()
}

func trimComments(line string) string {
	// Cut line at # comment, being careful not to cut inside quoted text.
	var q byte
	for i := 0; i < len(line); i++ {
		switch c := line[i]; c {
		case q:
			q = 0
		case '\'', '"', '`':
			q = c
		case '\\':
			if q == '\'' || q == '"' {
				i++
			}
		case '#':
			if q == 0 {
				line = line[:i]
			}
		}
	}
	return strings.TrimSpace(line)
}

func cut(s, sep string) (before, after string, ok bool) {
	if i := strings.Index(s, sep); i >= 0 {
		return s[:i], s[i+len(sep):], true
	}
	return s, "", false
}
