package main

import (
	"context"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/spf13/cobra"

	"doxyscan/internal/commands"
	"doxyscan/internal/complete"
	"doxyscan/internal/config"
	"doxyscan/internal/decl"
	"doxyscan/internal/errors"
	"doxyscan/internal/highlight"
	"doxyscan/internal/markup"
	"doxyscan/internal/slogutil"
	"doxyscan/internal/version"
)

var (
	rootFlag    string
	formatFlag  string
	tableFlag   string
	verboseFlag int
	quietFlag   bool
)

var rootCmd = &cobra.Command{
	Use:   "doxyscan",
	Short: "Doxygen comment scanner for C and C++ sources",
	Long: `doxyscan classifies comments in C and C++ sources, recognises the Doxygen
commands in documentation comments and checks them against the command
vocabulary. It offers @param/@tparam completion from the declaration that
follows a comment, renders highlighted sources, and keeps a scan index for
linting whole trees.`,
	Version:       version.Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.SetVersionTemplate("doxyscan version {{.Version}}\n")
	rootCmd.PersistentFlags().StringVar(&rootFlag, "root", ".", "Project root holding .doxyscan/")
	rootCmd.PersistentFlags().StringVar(&formatFlag, "format", "", "Output format: human, json or yaml (default from config)")
	rootCmd.PersistentFlags().StringVar(&tableFlag, "commands", "", "TOML command table to use instead of the configured one")
	rootCmd.PersistentFlags().CountVarP(&verboseFlag, "verbose", "v", "Increase log verbosity (-v info, -vv debug)")
	rootCmd.PersistentFlags().BoolVarP(&quietFlag, "quiet", "q", false, "Silence all logging")
}

// env is what every subcommand needs: configuration, logger, vocabulary
// and output format.
type env struct {
	root       string
	cfg        *config.Config
	logger     *slog.Logger
	closer     io.Closer
	recognizer *markup.Recognizer
	format     OutputFormat
	out        io.Writer
}

func newEnv(cmd *cobra.Command) (*env, error) {
	root, err := filepath.Abs(rootFlag)
	if err != nil {
		return nil, errors.New(errors.FileUnreadable, "cannot resolve "+rootFlag, err)
	}
	cfg, err := config.LoadConfig(root)
	if err != nil {
		return nil, err
	}

	logger, closer := slogutil.Setup(root, cfg, slogutil.LevelFromVerbosity(verboseFlag, quietFlag), cmd.ErrOrStderr())

	format := OutputFormat(cfg.Output.Format)
	if formatFlag != "" {
		format = OutputFormat(formatFlag)
	}
	if !format.valid() {
		_ = closer.Close()
		return nil, errors.New(errors.UnsupportedFormat, "unsupported format: "+string(format), nil)
	}

	tablePath := cfg.Commands.TablePath
	if tableFlag != "" {
		tablePath = tableFlag
	}
	var table *commands.Table
	if tablePath != "" {
		if !filepath.IsAbs(tablePath) {
			tablePath = filepath.Join(root, tablePath)
		}
		table, err = commands.Load(tablePath)
		if err != nil {
			_ = closer.Close()
			return nil, err
		}
		logger.Debug("Loaded command table", "path", tablePath, "commands", len(table.Names()))
	}

	return &env{
		root:       root,
		cfg:        cfg,
		logger:     logger,
		closer:     closer,
		recognizer: markup.New(table),
		format:     format,
		out:        cmd.OutOrStdout(),
	}, nil
}

func (e *env) Close() {
	_ = e.closer.Close()
}

// print writes resp in the selected format.
func (e *env) print(resp interface{}) error {
	s, err := FormatResponse(resp, e.format)
	if err != nil {
		return err
	}
	_, err = io.WriteString(e.out, s+"\n")
	return err
}

func (e *env) highlightOptions() highlight.Options {
	h := e.cfg.Highlight
	return highlight.Options{
		DocLineComments:  h.DocLineComments,
		DocBlockComments: h.DocBlockComments,
		Emphasis:         h.Emphasis,
		PlainEmphasis:    h.PlainEmphasis,
	}
}

// completionSource honours completion.backend, falling back to the
// heuristic when tree-sitter is not compiled in.
func (e *env) completionSource() complete.CompletionSource {
	if e.cfg.Completion.Backend == "treesitter" {
		if decl.IsAvailable() {
			return complete.NewTreeSitterSource()
		}
		e.logger.Warn("tree-sitter backend unavailable, using heuristic")
	}
	return complete.HeuristicSource{}
}

// newContext is cancelled by an interrupt.
func newContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}

// readSource reads a source file, or stdin for "-".
func readSource(path string) (string, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return "", errors.New(errors.FileUnreadable, "cannot read "+path, err)
	}
	return string(data), nil
}
