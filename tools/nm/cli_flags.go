// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"flag"
	"runtime"

	"github.com/peterbourgon/ff/v3"

	"github.com/elfu-tools/elfu/nm"
)

const (
	// Default values for CLI flags
	defaultArgJobs = 0
	defaultFile    = "a.out"
)

// Help strings for command line arguments
var (
	allHelp           = "Display all symbols, including debugging ones."
	dynamicHelp       = "Display dynamic symbols instead of normal symbols."
	externalOnlyHelp  = "Display only external symbols."
	noSortHelp        = "Do not sort the symbols."
	reverseSortHelp   = "Reverse the sort order of the symbols."
	undefinedOnlyHelp = "Display only undefined symbols."
	demangleHelp      = "Decode low-level symbol names into user-level names."
	miniDebugInfoHelp = "Display the symbols of the object embedded in .gnu_debugdata."
	jobsHelp          = "Number of files processed in parallel. " +
		"Default is 0, meaning one per CPU."
	verboseModeHelp = "Enable verbose logging."
	configHelp      = "Plain config file with one flag per line, as in \"D true\"."
)

type arguments struct {
	opts        nm.Options
	jobs        int
	verboseMode bool

	fs *flag.FlagSet
}

// newFlagSet registers the nm flags on a new flag set bound to args.
func newFlagSet(args *arguments) *flag.FlagSet {
	fs := flag.NewFlagSet("nm", flag.ContinueOnError)

	// Please keep the parameters ordered alphabetically in the source-code.
	fs.BoolVar(&args.opts.All, "a", false, allHelp)
	fs.BoolVar(&args.opts.Demangle, "C", false, demangleHelp)
	fs.String("config", "", configHelp)
	fs.BoolVar(&args.opts.Dynamic, "D", false, dynamicHelp)
	fs.BoolVar(&args.opts.ExternalOnly, "g", false, externalOnlyHelp)
	fs.IntVar(&args.jobs, "j", defaultArgJobs, jobsHelp)
	fs.BoolVar(&args.opts.MiniDebugInfo, "mini-debuginfo", false, miniDebugInfoHelp)
	fs.BoolVar(&args.opts.NoSort, "p", false, noSortHelp)
	fs.BoolVar(&args.opts.Reverse, "r", false, reverseSortHelp)
	fs.BoolVar(&args.opts.UndefinedOnly, "u", false, undefinedOnlyHelp)
	fs.BoolVar(&args.verboseMode, "v", false, verboseModeHelp)

	args.fs = fs
	return fs
}

// rootOptions are the ff options of the command: every flag can be set from
// an ELFNM_<FLAG> environment variable or from a plain config file.
func rootOptions() []ff.Option {
	return []ff.Option{
		ff.WithEnvVarPrefix("ELFNM"),
		ff.WithConfigFileFlag("config"),
		ff.WithConfigFileParser(ff.PlainParser),
		ff.WithAllowMissingConfigFile(true),
	}
}

// parallelism returns the number of concurrent jobs to use.
func (args *arguments) parallelism() int {
	if args.jobs > 0 {
		return args.jobs
	}
	return runtime.GOMAXPROCS(0)
}
