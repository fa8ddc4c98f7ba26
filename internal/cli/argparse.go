package cli

import (
	"fmt"
	"io"
	"log"
	"sort"
	"strings"

	getopt "github.com/pborman/getopt/v2"
	"github.com/pborman/options"

	"github.com/auvred/tagre"
)

// defaultMaxSteps keeps the recursion of a single line search well inside
// the goroutine stack.
const defaultMaxSteps = 1000000

type config struct {
	optSet *getopt.Set

	Help         bool   `getopt:"-h --help                Display basic help"`
	Subst        string `getopt:"-s --subst=template      Replace the first match on every matching line with template: & is the match, \\1..\\9 are the tags"`
	Global       bool   `getopt:"-g --global              With --subst, substitute every match on the line rather than the first one"`
	Invert       bool   `getopt:"-v --invert              Print the lines that do not match"`
	OnlyMatching bool   `getopt:"-o --only-matching       Print only the matched part of each line"`
	LineNumber   bool   `getopt:"-n --line-number         Prefix every printed line with its line number"`
	WordChars    string `getopt:"-w --word-chars=chars    Extra characters to treat as word characters for \\< and \\>"`
	Extended     bool   `getopt:"-x --extended            Recognize the \\b \\n \\f \\r \\t escapes"`
	Dump         bool   `getopt:"-d --dump                Print the compiled program and exit"`
	MaxSteps     int    `getopt:"--max-steps=integer      Backtracking budget for each line, 0 disables. Default:"`
	Interactive  bool   `getopt:"-i --interactive         Read subject lines from the terminal and show the tags of every match"`

	pattern string
	files   []string
}

func (cfg *config) initArgvParser(program string) {
	// operate over a private set rather than the getopt globals so that
	// Run can be called more than once
	o := getopt.New()
	if err := options.RegisterSet("", cfg, o); err != nil {
		log.Fatalf("option set registration failed: %s", err)
	}
	o.SetProgram(program)
	o.SetParameters("pattern [file...]")
	cfg.optSet = o
}

// parseArgv fills cfg from argv, argv[0] being the program name.
// Every problem found is returned, so they can be shown all at once.
func (cfg *config) parseArgv(argv []string) (argParseErrs []string) {
	if err := cfg.optSet.Getopt(argv, nil); err != nil {
		return []string{err.Error()}
	}
	if cfg.Help {
		return nil
	}

	args := cfg.optSet.Args()
	if len(args) == 0 && !cfg.Interactive {
		argParseErrs = append(argParseErrs, "a pattern must be specified")
	} else if len(args) > 0 {
		cfg.pattern = args[0]
		cfg.files = args[1:]
	}
	if cfg.Interactive && len(cfg.files) > 0 {
		argParseErrs = append(argParseErrs, "--interactive does not read files")
	}
	if cfg.Interactive && (cfg.Invert || cfg.OnlyMatching || cfg.Global) {
		argParseErrs = append(argParseErrs, "--interactive can not be combined with --invert, --only-matching or --global")
	}

	if cfg.MaxSteps < 0 {
		argParseErrs = append(argParseErrs, fmt.Sprintf(
			"--max-steps '%d' must not be negative",
			cfg.MaxSteps,
		))
	}
	if cfg.Global && !cfg.optSet.IsSet("subst") {
		argParseErrs = append(argParseErrs, "--global requires --subst")
	}
	if cfg.Invert && (cfg.OnlyMatching || cfg.optSet.IsSet("subst")) {
		argParseErrs = append(argParseErrs, "--invert can not be combined with --only-matching or --subst")
	}
	if cfg.OnlyMatching && cfg.optSet.IsSet("subst") {
		argParseErrs = append(argParseErrs, "--only-matching can not be combined with --subst")
	}
	for i := 0; i < len(cfg.WordChars); i++ {
		if cfg.WordChars[i] >= 128 {
			argParseErrs = append(argParseErrs, fmt.Sprintf(
				"--word-chars may only hold ASCII characters, found byte 0x%02x",
				cfg.WordChars[i],
			))
			break
		}
	}

	return argParseErrs
}

func (cfg *config) flags() tagre.Flag {
	var f tagre.Flag
	if cfg.Extended {
		f |= tagre.FlagExtendedEscapes
	}
	return f
}

func (cfg *config) printUsage(out io.Writer) {
	cfg.optSet.PrintUsage(out)
}

func printArgErrors(out io.Writer, errs []string) {
	sort.Strings(errs)
	fmt.Fprintf(
		out,
		"Fatal error parsing arguments:\n\t%s\n",
		strings.Join(errs, "\n\t"),
	)
}
