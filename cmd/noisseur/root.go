package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/connoisseur/noisseur/internal/config"
	"github.com/connoisseur/noisseur/internal/ocr"
	"github.com/connoisseur/noisseur/internal/recognize"
	"github.com/connoisseur/noisseur/internal/template"
)

var (
	cfgFile   string
	logLevel  string
	logFormat string

	// Set by PersistentPreRunE for every subcommand.
	cfgManager *config.Manager
	cfg        *config.Config
	logger     *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "noisseur",
	Short: "Extract structured fields from console screenshots",
	Long: `noisseur reads screenshots of fixed-layout device consoles and returns
their field values as structured records.

Each screen type is described by a template: the rectangles of its captions,
labels, text fields, check boxes and list regions. A screenshot is OCRed,
aligned with the first template whose anchor caption it contains, and every
declared field is read by spatial containment.

The recognizer is served over MCP (stdio) or HTTP, or run once from the
command line.`,
	SilenceUsage:      true,
	PersistentPreRunE: initConfig,
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile, "config", "", "config file (default: ./config.yaml or ~/.noisseur/config.yaml)",
	)
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn or error")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "log format: text or json")
}

func initConfig(cmd *cobra.Command, _ []string) error {
	mgr, err := config.NewManager(cfgFile)
	if err != nil {
		return err
	}

	c := *mgr.Get()
	if cmd.Flags().Changed("log-level") {
		c.Logging.Level = logLevel
	}
	if cmd.Flags().Changed("log-format") {
		c.Logging.Format = logFormat
	}

	// Logs go to stderr; stdout carries MCP traffic and command output.
	l, err := config.NewLogger(c.Logging, os.Stderr)
	if err != nil {
		return err
	}
	slog.SetDefault(l)

	cfgManager, cfg, logger = mgr, &c, l
	if used := mgr.ConfigFileUsed(); used != "" {
		logger.Debug("config loaded", "file", used)
	}
	return nil
}

// openStore loads the configured templates. Without configured sources the
// store lists templates.root again on every reload.
func openStore(c *config.Config) (*template.Store, error) {
	return template.NewStore(c.Templates.Root, c.Templates.Sources, logger)
}

// newRecognizer wires Tesseract and the store into a recognizer.
func newRecognizer(c *config.Config, store *template.Store) (*recognize.Recognizer, error) {
	rc, err := c.RecognizeConfig()
	if err != nil {
		return nil, err
	}
	tess := ocr.NewTesseract(c.OCR.Language, c.OCR.Tessdata, logger)
	return recognize.New(tess, store, rc, logger)
}

// watch starts template hot reload when enabled. A config file change that
// moves the template root or sources also reloads the store.
func watch(cmd *cobra.Command, store *template.Store) {
	if !cfg.Templates.Watch {
		return
	}

	w := template.NewWatcher(store, logger)
	go func() {
		if err := w.Run(cmd.Context()); err != nil {
			logger.Error("template watcher stopped", "error", err)
		}
	}()

	cfgManager.OnChange(func(c *config.Config) {
		store.SetSources(c.Templates.Root, c.Templates.Sources)
		if err := store.Reload(); err != nil {
			logger.Error("template reload after config change failed", "error", err)
		}
	})
	cfgManager.WatchConfig()
}

// writeOutput prints v as indented JSON or YAML.
func writeOutput(w io.Writer, format string, v any) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown output format %q (want json or yaml)", format)
	}
}
