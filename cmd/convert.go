// The convert command orchestrates the pipeline:
// read → decompose → load → postprocess → render → write.

package cmd

import (
	"io"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/gaurav-prasanna/mht2html/config"
	"github.com/gaurav-prasanna/mht2html/core"
	"github.com/gaurav-prasanna/mht2html/core/convert"
	"github.com/gaurav-prasanna/mht2html/core/output"
	"github.com/gaurav-prasanna/mht2html/core/render"
)

func newConvertCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "convert <source>",
		Short: "Convert an MHTML archive into a standalone page",
		Long: `Convert decomposes an MHTML archive, embeds images and style sheets as data URIs,
removes scripts and writes the page next to the source (page.mht → page.html).

Examples:
  mht2html convert page.mht
  mht2html convert page.mht --compress-images=false --compress-html=false
  mht2html convert page.mht --format markdown --output-dir ./out
  MHT2HTML_JPEG_QUALITY=60 mht2html convert page.mht`,
		Args: cobra.ExactArgs(1),
		RunE: runConvert,
	}
}

// conversionError marks failures of the conversion itself, as opposed to
// usage errors.
type conversionError struct {
	err error
}

func (e *conversionError) Error() string { return e.err.Error() }
func (e *conversionError) Unwrap() error { return e.err }

func runConvert(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig(cmd, args[0])
	if err != nil {
		return err
	}

	logger := setupLogger(cfg, cmd.ErrOrStderr())
	logger.Info().Str("source", cfg.Source).Str("format", cfg.Format).Msg("Starting conversion")

	renderer := selectRenderer(cfg)
	opts := cfg.Options()
	converter := convert.New(&opts, &logger, convert.WithRenderer(renderer))

	writer, err := output.New(cfg.OutputDir)
	if err != nil {
		return err
	}
	dst := writer.DestinationPath(cfg.Source, converter.Extension())

	if err := converter.ConvertFile(cmd.Context(), cfg.Source, dst); err != nil {
		logger.Error().Err(err).Str("source", cfg.Source).Msg("Conversion failed")
		return &conversionError{err: err}
	}
	return nil
}

// selectRenderer creates the Renderer for the configured format.
func selectRenderer(cfg config.Config) core.Renderer {
	switch cfg.Format {
	case config.FormatMarkdown:
		return render.NewMarkdownRenderer()
	default:
		return render.NewHTMLRenderer(cfg.CompressHTML, cfg.CompressCSS)
	}
}

// setupLogger builds a console logger on w at the configured level.
func setupLogger(cfg config.Config, w io.Writer) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: w, TimeFormat: "15:04:05"}).
		Level(level).
		With().
		Timestamp().
		Logger()
}
