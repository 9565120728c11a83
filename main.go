package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/fasmdigital/gnre-cnab-converter/internal/api"
	"github.com/fasmdigital/gnre-cnab-converter/internal/cnab"
	"github.com/fasmdigital/gnre-cnab-converter/internal/config"
	"github.com/fasmdigital/gnre-cnab-converter/internal/extractor"
	"github.com/fasmdigital/gnre-cnab-converter/internal/gnre"
	"github.com/fasmdigital/gnre-cnab-converter/internal/writer"
)

const version = "1.0.0"

func main() {
	serveFlag := flag.Bool("serve", false, "Run the HTTP API server instead of converting files")
	outputFlag := flag.String("output", "", "Output CNAB file path (defaults to the next sequenced CNABnnnn.txt)")
	versionFlag := flag.Bool("version", false, "Print version and exit")
	helpFlag := flag.Bool("help", false, "Show usage help")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, `GNRE PDF to CNAB240 Converter

Extracts GNRE state-tax guides from PDF documents and generates
Itau CNAB240 Segment O batch payment files.

Usage:
  gnre-cnab-converter [flags] <guias.pdf> [guias2.pdf ...]
  gnre-cnab-converter -serve

Flags:
`)
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, `
Examples:
  # Convert a PDF of guides to the next sequenced CNAB file
  gnre-cnab-converter guias-janeiro.pdf

  # Custom output path
  gnre-cnab-converter --output=pagamentos.txt guias.pdf

  # Run the upload API on LISTEN_ADDR (default :8080)
  gnre-cnab-converter -serve

Payer identity and paths come from environment variables (CNAB_BANK,
CNAB_CNPJ, CNAB_AGENCY, CNAB_ACCOUNT, CNAB_ACCOUNT_DIGIT, CNAB_COMPANY,
CNAB_SEQ_FILE, LISTEN_ADDR).
`)
	}

	flag.Parse()

	if *versionFlag {
		fmt.Printf("gnre-cnab-converter v%s\n", version)
		os.Exit(0)
	}

	cfg := config.Load()

	if *serveFlag {
		serve(cfg)
		return
	}

	if *helpFlag || flag.NArg() == 0 {
		flag.Usage()
		os.Exit(0)
	}

	seq := cnab.NewSequencer(cfg.Server.SeqFilePath)

	for _, inputPath := range flag.Args() {
		if err := processFile(inputPath, cfg, seq, *outputFlag); err != nil {
			fmt.Fprintf(os.Stderr, "Error processing %s: %v\n", inputPath, err)
			os.Exit(1)
		}
	}
}

func serve(cfg *config.Config) {
	logger, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()
	log := logger.Sugar()

	if err := os.MkdirAll(filepath.Dir(cfg.Server.SeqFilePath), 0o755); err != nil {
		log.Fatalw("failed to create sequence dir", "error", err)
	}

	app := fiber.New(fiber.Config{
		BodyLimit: cfg.Server.MaxUploadMB << 20,
	})
	api.NewHandler(cfg, log).Register(app)

	log.Infow("starting API server", "addr", cfg.Server.ListenAddr)
	if err := app.Listen(cfg.Server.ListenAddr); err != nil {
		log.Fatalw("server stopped", "error", err)
	}
}

func processFile(inputPath string, cfg *config.Config, seq *cnab.Sequencer, outputPath string) error {
	if _, err := os.Stat(inputPath); os.IsNotExist(err) {
		return fmt.Errorf("input file not found: %s", inputPath)
	}

	ext := strings.ToLower(filepath.Ext(inputPath))
	if ext != ".pdf" {
		return fmt.Errorf("expected .pdf file, got %q", ext)
	}

	fmt.Printf("Processing: %s\n", inputPath)

	pages, err := extractor.ExtractText(inputPath)
	if err != nil {
		return fmt.Errorf("PDF extraction failed: %w", err)
	}

	fmt.Printf("  Extracted text from %d page(s)\n", len(pages))

	guides, failures := gnre.Classify(pages)

	fmt.Printf("  Complete guides: %d\n", len(guides))
	fmt.Printf("  Failed pages: %d\n", len(failures))

	for _, f := range failures {
		fields := make([]string, 0, len(f.MissingFields))
		for _, name := range f.MissingFields {
			fields = append(fields, string(name))
		}
		fmt.Printf("    page %d missing: %s\n", f.Page, strings.Join(fields, ", "))
		for label, snip := range f.DiagnosticSnippets {
			fmt.Printf("      %s: %s\n", label, snip)
		}
	}

	if len(guides) == 0 {
		return fmt.Errorf("no valid guides found (missing state, due date, amount, or payment line on every page)")
	}

	outPath := outputPath
	fileID := ""
	if outPath == "" {
		if err := os.MkdirAll(filepath.Dir(cfg.Server.SeqFilePath), 0o755); err != nil {
			return fmt.Errorf("failed to create sequence dir: %w", err)
		}
		fileID, err = seq.Next()
		if err != nil {
			return fmt.Errorf("file sequencing failed: %w", err)
		}
		outPath = fileID + ".txt"
	} else {
		// The encoder wants an 8-char base name; derive one from the path.
		base := strings.TrimSuffix(filepath.Base(outPath), filepath.Ext(outPath))
		fileID = fmt.Sprintf("%-8s", base)[:8]
	}

	out, err := cnab.Encode(guides, cfg.Payer, fileID, time.Now())
	if err != nil {
		return fmt.Errorf("CNAB encoding failed: %w", err)
	}

	w := &writer.CNABWriter{}
	if err := w.WriteToFile(outPath, out); err != nil {
		return fmt.Errorf("CNAB write failed: %w", err)
	}

	fmt.Printf("  Output: %s (%d payment segment(s))\n", outPath, len(guides))
	fmt.Println("  Done.")
	return nil
}
