package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/gaurav-prasanna/mht2html/core"
)

// EnvPrefix prefixes every environment override, e.g. MHT2HTML_JPEG_QUALITY.
const EnvPrefix = "MHT2HTML"

const (
	FormatHTML     = "html"
	FormatMarkdown = "markdown"
)

// Config captures all options required to run a conversion.
type Config struct {
	Source         string `mapstructure:"-"`
	CompressCSS    bool   `mapstructure:"compress-css"`
	CompressImages bool   `mapstructure:"compress-images"`
	CompressHTML   bool   `mapstructure:"compress-html"`
	UglifyPNG      bool   `mapstructure:"uglify-png"`
	JPEGQuality    int    `mapstructure:"jpeg-quality"    validate:"min=1,max=100"`
	MaxPNGColors   int    `mapstructure:"max-png-colors"  validate:"min=2,max=256"`
	Format         string `mapstructure:"format"          validate:"oneof=html markdown"`
	OutputDir      string `mapstructure:"output-dir"`
	LogLevel       string `mapstructure:"log-level"       validate:"oneof=debug info warn error"`
	ConfigFile     string `mapstructure:"config"`
}

// RegisterFlags attaches all CLI flags to cmd. The flags are persistent so
// subcommands share them.
func RegisterFlags(cmd *cobra.Command) {
	flags := cmd.PersistentFlags()
	flags.Bool("compress-css", true, "Minify inlined style sheets")
	flags.Bool("compress-images", true, "Re-encode embedded images to reduce their size")
	flags.Bool("compress-html", true, "Minify the output document instead of pretty-printing it")
	flags.Bool("uglify-png", true, "Allow opaque PNG images to be converted to JPEG")
	flags.Int("jpeg-quality", 100, "JPEG quality used when re-encoding images (1-100)")
	flags.Int("max-png-colors", core.DefaultMaxPNGColors, "Maximum palette size for quantized PNG images (2-256)")
	flags.String("format", FormatHTML, "Output format: html or markdown")
	flags.String("output-dir", "", "Output directory (default: next to the source)")
	flags.String("log-level", "info", "Logging level: debug, info, warn, error")
	flags.String("config", "", "Optional config file (YAML, TOML or JSON)")
}

// LoadConfig resolves the options for cmd. Precedence is
// flag > environment > config file > flag default.
func LoadConfig(cmd *cobra.Command, source string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return Config{}, fmt.Errorf("binding flags: %w", err)
	}

	if path := v.GetString("config"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("reading config file %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decoding configuration: %w", err)
	}
	cfg.Source = source
	cfg.Format = strings.ToLower(strings.TrimSpace(cfg.Format))
	cfg.LogLevel = strings.ToLower(strings.TrimSpace(cfg.LogLevel))
	if cfg.LogLevel == "warning" {
		cfg.LogLevel = "warn"
	}

	if err := validateConfig(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Options converts the configuration into pipeline options.
func (c Config) Options() core.Options {
	return core.Options{
		CompressCSS:    c.CompressCSS,
		CompressImages: c.CompressImages,
		CompressHTML:   c.CompressHTML,
		UglifyPNG:      c.UglifyPNG,
		JPEGQuality:    c.JPEGQuality,
		MaxPNGColors:   c.MaxPNGColors,
	}
}

var validate = validator.New()

func validateConfig(cfg Config) error {
	if strings.TrimSpace(cfg.Source) == "" {
		return fmt.Errorf("a source file is required")
	}

	err := validate.Struct(cfg)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("validating configuration: %w", err)
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("invalid --%s: %v (%s=%s)", flagName(fe.StructField()), fe.Value(), fe.Tag(), fe.Param()))
	}
	return errors.New(strings.Join(msgs, "; "))
}

// flagName maps a Config field to its flag name.
func flagName(field string) string {
	switch field {
	case "JPEGQuality":
		return "jpeg-quality"
	case "MaxPNGColors":
		return "max-png-colors"
	case "Format":
		return "format"
	case "LogLevel":
		return "log-level"
	default:
		return strings.ToLower(field)
	}
}
