// Command shelfscan detects shelf rectangles on scanned shelf lists and
// exports them as CSV or JSON. It also serves the detector over MCP (stdio)
// and HTTP.
package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ironsheep/shelfscan/internal/config"
	"github.com/ironsheep/shelfscan/internal/geometry"
	"github.com/ironsheep/shelfscan/internal/logger"
	"github.com/ironsheep/shelfscan/internal/ocr"
	"github.com/ironsheep/shelfscan/internal/pipeline"
	"github.com/ironsheep/shelfscan/internal/server"
	"github.com/ironsheep/shelfscan/internal/transport"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

var (
	okColor   = color.New(color.FgGreen)
	warnColor = color.New(color.FgYellow)
	errColor  = color.New(color.FgRed, color.Bold)
)

func main() {
	server.Version = Version
	transport.Version = Version

	if err := newRootCmd().Execute(); err != nil {
		errColor.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	flags := &settings{}

	root := &cobra.Command{
		Use:           "shelfscan",
		Short:         "Detect shelf rectangles in scanned shelf lists",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	flags.registerCommon(root)

	root.AddCommand(
		newDetectCmd(flags),
		newStatusCmd(flags),
		newMCPCmd(flags),
		newServeCmd(flags),
		newVersionCmd(),
	)
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "shelfscan %s\n", Version)
			fmt.Fprintf(out, "  Build time: %s\n", BuildTime)
			fmt.Fprintf(out, "  Git commit: %s\n", GitCommit)
			fmt.Fprintf(out, "  Geometry backends: %v\n", geometry.Backends())
			fmt.Fprintf(out, "  Tesseract: %s\n", ocr.Version())
		},
	}
}

func newStatusCmd(flags *settings) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Initialize the geometry backend and OCR engine and report their state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.load(cmd)
			if err != nil {
				return err
			}
			s := pipeline.NewSession(cfg)
			defer s.Close()

			initErr := s.Await(cmd.Context())
			printStatus(s.Status())
			return initErr
		},
	}
}

// printStatus writes one coloured line per subsystem to stderr.
func printStatus(st pipeline.Status) {
	line := func(name string, sub pipeline.Subsystem) {
		c := warnColor
		switch sub.State {
		case pipeline.StateReady:
			c = okColor
		case pipeline.StateFailed:
			c = errColor
		}
		c.Fprintf(os.Stderr, "%-9s %-12s", name, sub.State)
		if sub.Detail != "" {
			fmt.Fprintf(os.Stderr, " %s", sub.Detail)
		}
		if sub.Error != "" {
			fmt.Fprintf(os.Stderr, " (%s)", sub.Error)
		}
		fmt.Fprintln(os.Stderr)
	}
	line("geometry", st.Geometry)
	line("ocr", st.OCR)
}

// configure applies the logging settings of cfg.
func configure(cfg *config.Config) {
	logger.Configure(cfg.LogLevel, cfg.LogFormat)
}
