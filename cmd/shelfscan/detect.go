package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/ironsheep/shelfscan/internal/document"
	"github.com/ironsheep/shelfscan/internal/export"
	"github.com/ironsheep/shelfscan/internal/imaging"
	"github.com/ironsheep/shelfscan/internal/pipeline"
)

type detectFlags struct {
	format      string
	output      string
	overlay     string
	overlayPage int
}

func newDetectCmd(flags *settings) *cobra.Command {
	df := &detectFlags{}

	cmd := &cobra.Command{
		Use:   "detect <image-or-pdf>",
		Short: "Detect shelves in a file and export them as CSV or JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.load(cmd)
			if err != nil {
				return err
			}
			format, err := export.ParseFormat(df.format)
			if err != nil {
				return err
			}

			s := pipeline.NewSession(cfg)
			defer s.Close()
			s.Start()

			pages, err := document.Load(args[0], cfg.DPI)
			if err != nil {
				return err
			}

			if err := s.Await(cmd.Context()); err != nil {
				printStatus(s.Status())
				return err
			}

			res, err := s.Run(cmd.Context(), pages, pipeline.OptionsFromConfig(cfg))
			if err != nil {
				return err
			}
			okColor.Fprintf(os.Stderr, "detected %d shelves on %d pages", len(res.Candidates), res.Pages)
			if cfg.UseOCR {
				fmt.Fprintf(os.Stderr, " (OCR: %d recognized, %d failed)", res.Recognized, res.OCRFailed)
			}
			fmt.Fprintln(os.Stderr)
			for _, f := range res.OCRFailures {
				warnColor.Fprintf(os.Stderr, "shelf %d on page %d kept without text: %s\n", f.ShelfID, f.Page, f.Error)
			}
			if len(res.EmptyPages) > 0 {
				warnColor.Fprintf(os.Stderr, "no shelves on pages %v\n", res.EmptyPages)
			}

			if df.overlay != "" {
				if err := writeOverlay(df.overlay, pages, df.overlayPage, res); err != nil {
					return err
				}
			}
			return writeResults(cmd.OutOrStdout(), df.output, format, res)
		},
	}

	flags.registerDetection(cmd)
	f := cmd.Flags()
	f.StringVarP(&df.format, "format", "f", "csv", "export format: csv or json")
	f.StringVarP(&df.output, "output", "o", "", "write the export to this file instead of stdout")
	f.StringVar(&df.overlay, "overlay", "", "write a PNG preview of the detected shelves to this file")
	f.IntVar(&df.overlayPage, "overlay-page", 0, "page to render with --overlay")
	return cmd
}

func writeResults(stdout io.Writer, path string, format export.Format, res *pipeline.Result) error {
	if path == "" {
		return export.Write(stdout, format, res.Candidates)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := export.Write(f, format, res.Candidates); err != nil {
		f.Close()
		os.Remove(path)
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	okColor.Fprintf(os.Stderr, "wrote %s\n", path)
	return nil
}

func writeOverlay(path string, pages []document.Page, page int, res *pipeline.Result) error {
	if page < 0 || page >= len(pages) {
		return fmt.Errorf("overlay page %d out of range (document has %d pages)", page, len(pages))
	}
	img := export.Overlay(pages[page].Image, pages[page].Index, res.Candidates, imaging.OverlayOptions{})
	data, err := imaging.EncodePNG(img)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write overlay: %w", err)
	}
	okColor.Fprintf(os.Stderr, "wrote overlay %s\n", path)
	return nil
}
