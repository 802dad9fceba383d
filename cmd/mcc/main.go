// Command mcc is the mcc compiler driver: it lexes, parses, and generates
// AArch64 assembly for a small C subset, then hands the result to the host
// assembler and linker to produce a native executable.
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/kristofer/mcc/internal/toolchain"
	"github.com/kristofer/mcc/pkg/astprint"
	"github.com/kristofer/mcc/pkg/codegen"
	"github.com/kristofer/mcc/pkg/lexer"
	"github.com/kristofer/mcc/pkg/parser"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	easy "github.com/t-tomalak/logrus-easy-formatter"
)

// builtinDemoSource is compiled when mcc is invoked with no FILE argument,
// so the driver always has something to show on a bare `mcc`.
const builtinDemoSource = `int main() {
    int a;
    int b;
    a = 3;
    b = 4;
    return a * a + b * b;
}
`

var (
	flagVerbose bool
	flagAST     bool
	flagDryRun  bool
	flagNoAsm   bool
	flagOut     string
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mcc [file]",
		Short: "Compile a small C subset to a native AArch64 executable",
		Long: heredoc.Doc(`
			mcc compiles a single-function C subset to AArch64 assembly and
			links it into a native macOS executable using the host's as and ld.

			With no FILE argument, mcc compiles a small built-in demo program.
		`),
		Args: cobra.MaximumNArgs(1),
		RunE: runCompile,
	}

	cmd.Flags().BoolVarP(&flagVerbose, "verbose", "v", false, "enable debug-level logging")
	cmd.Flags().BoolVarP(&flagAST, "ast", "a", false, "print the parsed AST to stdout")
	cmd.Flags().BoolVarP(&flagDryRun, "dry-run", "d", false, "print generated assembly instead of assembling and linking")
	cmd.Flags().BoolVarP(&flagNoAsm, "no-asm", "n", false, "suppress assembly output (composes with --dry-run; in a real build, don't leave the .s file on disk)")
	cmd.Flags().StringVarP(&flagOut, "out", "o", "", "output executable stem (default: input filename without extension, or a.out for the built-in demo)")

	return cmd
}

func newLogger() *logrus.Logger {
	log := logrus.New()
	log.SetFormatter(&easy.Formatter{
		TimestampFormat: "15:04:05",
		LogFormat:       "[%lvl%] %time% %msg%\n",
	})
	if flagVerbose {
		log.SetLevel(logrus.DebugLevel)
	} else {
		log.SetLevel(logrus.InfoLevel)
	}
	return log
}

func runCompile(cmd *cobra.Command, args []string) error {
	log := newLogger()

	source, sourceName, err := readSource(args)
	if err != nil {
		return errors.Wrap(err, "mcc: reading source")
	}
	log.WithField("source", sourceName).Debug("mcc: compiling")

	if flagOut == "" {
		flagOut = outputStem(args)
	}

	stream, err := lexer.TokenizeWithLogger(source, log)
	if err != nil {
		return errors.Wrap(err, "mcc: lexing")
	}

	prog, err := parser.Parse(stream, log)
	if err != nil {
		return errors.Wrap(err, "mcc: parsing")
	}

	if flagAST {
		fmt.Print(astprint.Print(prog))
	}

	asmProg, err := codegen.Generate(prog, log)
	if err != nil {
		return errors.Wrap(err, "mcc: generating code")
	}
	if err := asmProg.Validate(); err != nil {
		return errors.Wrap(err, "mcc: validating generated assembly")
	}
	rendered := asmProg.Render()

	if flagDryRun {
		if !flagNoAsm {
			fmt.Print(rendered)
		}
		return nil
	}

	return assembleAndLink(cmd.Context(), log, rendered)
}

func readSource(args []string) (source, name string, err error) {
	if len(args) == 0 {
		return builtinDemoSource, "<builtin demo>", nil
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return "", "", err
	}
	return string(data), args[0], nil
}

// outputStem picks the default executable path: the input filename with
// its extension stripped, or "a.out" when compiling the built-in demo.
func outputStem(args []string) string {
	if len(args) == 0 {
		return "a.out"
	}
	base := filepath.Base(args[0])
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func assembleAndLink(ctx context.Context, log *logrus.Logger, rendered string) error {
	if ctx == nil {
		ctx = context.Background()
	}

	asmPath := flagOut + ".s"
	if flagNoAsm {
		f, err := os.CreateTemp("", "mcc-*.s")
		if err != nil {
			return errors.Wrap(err, "mcc: creating temporary assembly file")
		}
		asmPath = f.Name()
		f.Close()
		defer os.Remove(asmPath)
	}

	if err := os.WriteFile(asmPath, []byte(rendered), 0o644); err != nil {
		return errors.Wrapf(err, "mcc: writing assembly to %s", asmPath)
	}
	log.WithField("path", asmPath).Debug("mcc: wrote assembly")

	tc, err := toolchain.New(ctx)
	if err != nil {
		return err
	}
	if err := tc.AssembleAndLink(ctx, asmPath, flagOut); err != nil {
		return err
	}

	log.WithField("path", flagOut).Info("mcc: wrote executable")
	return nil
}
