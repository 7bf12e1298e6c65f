// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

// nm lists the symbols of ELF object files.
package main

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/peterbourgon/ff/v3/ffcli"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/elfu-tools/elfu/nm"
)

func main() {
	log.SetReportCaller(false)
	log.SetFormatter(&log.TextFormatter{})

	var args arguments
	failures := 0
	root := ffcli.Command{
		Name:       "nm",
		ShortUsage: "nm [flags] [file...]",
		ShortHelp:  "List symbols in ELF object files (" + defaultFile + " by default)",
		FlagSet:    newFlagSet(&args),
		Options:    rootOptions(),
		Exec: func(_ context.Context, files []string) error {
			if args.verboseMode {
				log.SetLevel(log.DebugLevel)
			}
			failures = run(os.Stdout, os.Stderr, &args, files)
			return nil
		},
	}

	if err := root.ParseAndRun(context.Background(), os.Args[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		log.Fatalf("%v", err)
	}
	os.Exit(failures)
}

// result is the outcome of listing one file.
type result struct {
	out []byte
	err error
}

// run lists the symbols of every file to stdout, in argument order, and
// returns the number of files that failed.
func run(stdout, stderr io.Writer, args *arguments, files []string) int {
	if len(files) == 0 {
		files = []string{defaultFile}
	}

	results := make([]result, len(files))
	var g errgroup.Group
	g.SetLimit(args.parallelism())
	for i, file := range files {
		g.Go(func() error {
			var buf bytes.Buffer
			err := nm.Process(&buf, file, args.opts)
			if err != nil {
				log.Debugf("Failed to list %s: %v", file, err)
			}
			results[i] = result{out: buf.Bytes(), err: err}
			return nil
		})
	}
	// Failures are kept per file, Wait never returns an error.
	_ = g.Wait()

	failures := 0
	for i, res := range results {
		if len(files) > 1 {
			fmt.Fprintf(stdout, "\n%s:\n", files[i])
		}
		if _, err := stdout.Write(res.out); err != nil {
			log.Errorf("Failed to write output: %v", err)
		}
		if res.err != nil {
			fmt.Fprintln(stderr, nm.ErrorMessage(files[i], res.err))
			failures++
		}
	}
	return failures
}
