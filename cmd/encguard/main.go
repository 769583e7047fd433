// Copyright 2025 The EncGuard Contributors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// encguard is the commit-time entry point: it gathers candidate files,
// runs the encryption check over them, prints a summary, and exits 0 when
// the commit may proceed or 1 when a governed file is still plaintext.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/mattn/go-isatty"

	encguard "github.com/encguard/go-encguard"
	"github.com/encguard/go-encguard/config"
	"github.com/encguard/go-encguard/leakscan"
	"github.com/encguard/go-encguard/source"
)

const (
	exitPass  = 0
	exitFail  = 1
	exitUsage = 2
)

type palette struct {
	red, green, yellow, reset string
}

func newPalette(enabled bool) palette {
	if !enabled {
		return palette{}
	}

	return palette{
		red:    "\033[31m",
		green:  "\033[32m",
		yellow: "\033[33m",
		reset:  "\033[0m",
	}
}

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	flags := flag.NewFlagSet("encguard", flag.ContinueOnError)
	rulesFile := flags.String("rules", "", "rules file location (default from config)")
	configFile := flags.String("config", "", "config file location (default .encguard.yaml)")
	staged := flags.Bool("staged", false, "check the files staged for commit instead of explicit arguments")
	prefix := flags.String("prefix", "", "only consider candidates under this path prefix")
	leakScan := flags.Bool("leak-scan", false, "scan plaintext violations for confirmed secret leaks")
	probeLimit := flags.Int("probe-limit", 0, "printable-ratio sample size in bytes")
	flags.Usage = func() {
		fmt.Fprintf(flags.Output(), "usage: encguard [flags] [paths...]\n")
		flags.PrintDefaults()
	}

	if err := flags.Parse(args); err != nil {
		return exitUsage
	}

	cfg, err := config.Load(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "encguard: %s\n", err)
		return exitUsage
	}

	if *rulesFile != "" {
		cfg.RulesFile = *rulesFile
	}
	if *prefix != "" {
		cfg.Prefix = *prefix
	}
	if *leakScan {
		cfg.LeakScan = true
	}
	if *probeLimit > 0 {
		cfg.ProbeLimit = *probeLimit
	}

	wd, err := os.Getwd()
	if err != nil {
		fmt.Fprintf(os.Stderr, "encguard: %s\n", err)
		return exitUsage
	}

	var paths []string
	if *staged {
		paths, err = source.StagedFiles(wd)
		if err != nil {
			fmt.Fprintf(os.Stderr, "encguard: %s\n", err)
			return exitUsage
		}
	} else {
		paths = source.FromArgs(flags.Args())
	}

	opts := []encguard.CheckOption{
		encguard.CheckWithRulesFile(cfg.RulesFile),
		encguard.CheckWithWorkingDir(wd),
		encguard.CheckWithPrefix(cfg.Prefix),
		encguard.CheckWithProbeLimit(cfg.ProbeLimit),
	}

	if cfg.LeakScan {
		var scannerOpts []leakscan.Option
		if cfg.LeakScanConfig != "" {
			scannerOpts = append(scannerOpts, leakscan.WithConfigPath(cfg.LeakScanConfig))
		}

		opts = append(opts, encguard.CheckWithLeakScan(leakscan.New(scannerOpts...)))
	}

	report, err := encguard.Check(context.Background(), paths, opts...)
	if err != nil {
		fmt.Fprintf(os.Stderr, "encguard: %s\n", err)
		return exitUsage
	}

	printSummary(report, newPalette(isatty.IsTerminal(os.Stdout.Fd())))

	if !report.Passed() {
		return exitFail
	}

	return exitPass
}

func printSummary(report *encguard.Report, colors palette) {
	if report.Governed == 0 && report.Skipped == 0 {
		fmt.Printf("%sencguard: nothing to check%s\n", colors.green, colors.reset)
		return
	}

	fmt.Printf("encguard: %d governed, %d encrypted, %d violating, %d skipped\n",
		report.Governed, report.Encrypted, report.Violating, report.Skipped)

	for _, result := range report.Results {
		if result.Verdict != encguard.VerdictPlaintext {
			continue
		}

		fmt.Printf("%s  plaintext: %s%s\n", colors.red, result.Path, colors.reset)
		for _, finding := range result.Findings {
			fmt.Printf("%s    contains secret (%s) at line %d%s\n",
				colors.yellow, finding.RuleID, finding.Line, colors.reset)
		}
	}

	if report.Passed() {
		fmt.Printf("%sencguard: ok%s\n", colors.green, colors.reset)
		return
	}

	fmt.Printf("%sencguard: commit blocked. Encrypt the files above (e.g. git-crypt, sops, or ansible-vault) and commit again.%s\n",
		colors.red, colors.reset)
}
