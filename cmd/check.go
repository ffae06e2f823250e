package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/stilt-dev/stilt/checker"
	"github.com/stilt-dev/stilt/frontend/diag"
	"github.com/stilt-dev/stilt/internal/config"
	"github.com/stilt-dev/stilt/internal/log"
)

var CheckCmd = &cobra.Command{
	Use:          "check file.yaml...",
	Short:        "Type-check declaration documents",
	RunE:         runCheck,
	Args:         cobra.MinimumNArgs(1),
	SilenceUsage: true,
}

var (
	configPath *string
	logLevel   *int
)

func init() {
	configPath = CheckCmd.Flags().StringP("config", "c", "", "path to a config file")
	logLevel = CheckCmd.Flags().IntP("log-level", "l", int(slog.LevelError), "log level")
}

func runCheck(cmd *cobra.Command, args []string) error {
	log.SetLevel(slog.Level(*logLevel))

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.LoadFile(*configPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}

	sink := newWriterSink(os.Stderr)
	failed := false
	for _, path := range args {
		errs, err := checker.CheckFile(path, cfg)
		if errs.HasError() {
			diag.Emit(errs, sink)
			failed = true
		}
		if err != nil {
			return err
		}
	}
	if failed {
		return fmt.Errorf("found %d problems", sink.errors)
	}
	return nil
}

// writerSink renders reports one per line, colored when the destination is a
// terminal.
type writerSink struct {
	out    io.Writer
	color  bool
	errors int
}

func newWriterSink(out io.Writer) *writerSink {
	color := false
	if f, ok := out.(*os.File); ok {
		color = isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}
	return &writerSink{out: out, color: color}
}

const (
	ansiRed   = "\033[31m"
	ansiDim   = "\033[2m"
	ansiReset = "\033[0m"
)

func (s *writerSink) Report(r diag.Report) {
	label := r.Severity.String()
	if s.color {
		switch r.Severity {
		case diag.SeverityError:
			label = ansiRed + label + ansiReset
		case diag.SeverityNote:
			label = ansiDim + label + ansiReset
		}
	}
	if r.Severity == diag.SeverityError {
		s.errors++
	}
	if r.Pos.IsValid() {
		_, _ = fmt.Fprintf(s.out, "line %d: %s: %s\n", r.Pos, label, r.Message)
		return
	}
	_, _ = fmt.Fprintf(s.out, "%s: %s\n", label, r.Message)
}
