// Package args defines the CLI surface: the Cobra command and the
// flag struct it populates.
package args

import (
	"github.com/dlclark/regexp2"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// Args holds the parsed and validated command-line configuration for
// one run of the gadget finder.
type Args struct {
	Files       []string
	Num         int
	ROP         bool
	JOP         bool
	End         string
	Conditional bool
	Limit       int
	Bytes       bool
	Duplicates  bool
	Excludes    []string
	Includes    []string
	Verbose     bool
}

// New builds the root cobra.Command. run is invoked once flags have
// been parsed and validated, receiving the populated Args.
func New(run func(a Args) error) *cobra.Command {
	a := Args{}

	cmd := &cobra.Command{
		Use:   "ropr",
		Short: "find ROP/JOP gadget chains in ELF executables",
		Long: "ropr searches ELF executables across x86-64, ARM, AArch64 and " +
			"PowerPC for ROP/JOP gadget chains.",
		SilenceUsage: true,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			return validate(a)
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(a)
		},
	}

	var flags *pflag.FlagSet = cmd.Flags()
	flags.StringSliceVar(&a.Files, "files", nil, "input binary paths (repeatable, required)")
	flags.IntVar(&a.Num, "num", 6, "max chain length N")
	flags.BoolVar(&a.ROP, "rop", false, "include return-style terminators")
	flags.BoolVar(&a.JOP, "jop", false, "include indirect-branch-style terminators")
	flags.StringVar(&a.End, "end", "", "include terminators whose rendered text matches this regex")
	flags.BoolVar(&a.Conditional, "conditional", false, "include conditional instructions in chains")
	flags.IntVar(&a.Limit, "limit", 0, "cap the number of results displayed (0: unlimited)")
	flags.BoolVar(&a.Bytes, "bytes", false, "append a raw byte dump for each chain")
	flags.BoolVar(&a.Duplicates, "duplicates", false, "disable cross-file structural dedup")
	flags.StringArrayVar(&a.Excludes, "excludes", nil, "exclude chains whose rendered text matches this regex (repeatable)")
	flags.StringArrayVar(&a.Includes, "includes", nil, "only keep chains whose rendered text matches this regex (repeatable)")
	flags.BoolVarP(&a.Verbose, "verbose", "v", false, "enable debug logging")

	return cmd
}

// validate enforces the requirements pflag cannot express
// declaratively: at least one file, and at least one of
// --rop/--jop/--end.
func validate(a Args) error {
	if len(a.Files) == 0 {
		return errors.New("args: at least one --files path is required")
	}
	if a.Num < 1 {
		return errors.Errorf("args: --num must be >= 1, got %d", a.Num)
	}
	if !a.ROP && !a.JOP && a.End == "" {
		return errors.New("args: at least one of --rop, --jop, --end is required")
	}
	if _, err := compile(a.End); a.End != "" && err != nil {
		return errors.Wrapf(err, "args: invalid --end pattern %q", a.End)
	}
	for _, p := range a.Excludes {
		if _, err := compile(p); err != nil {
			return errors.Wrapf(err, "args: invalid --excludes pattern %q", p)
		}
	}
	for _, p := range a.Includes {
		if _, err := compile(p); err != nil {
			return errors.Wrapf(err, "args: invalid --includes pattern %q", p)
		}
	}
	return nil
}

func compile(pattern string) (*regexp2.Regexp, error) {
	return regexp2.Compile(pattern, regexp2.None)
}

// CompileEnd compiles the --end pattern, returning nil if none was given.
func CompileEnd(a Args) (*regexp2.Regexp, error) {
	if a.End == "" {
		return nil, nil
	}
	re, err := compile(a.End)
	return re, errors.WithStack(err)
}

// CompilePatterns compiles a repeatable --excludes/--includes flag's
// patterns.
func CompilePatterns(patterns []string) ([]*regexp2.Regexp, error) {
	out := make([]*regexp2.Regexp, 0, len(patterns))
	for _, p := range patterns {
		re, err := compile(p)
		if err != nil {
			return nil, errors.WithStack(err)
		}
		out = append(out, re)
	}
	return out, nil
}
