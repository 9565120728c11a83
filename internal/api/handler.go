// Package api exposes the guide-to-CNAB conversion over HTTP.
package api

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fasmdigital/gnre-cnab-converter/internal/cnab"
	"github.com/fasmdigital/gnre-cnab-converter/internal/config"
	"github.com/fasmdigital/gnre-cnab-converter/internal/extractor"
	"github.com/fasmdigital/gnre-cnab-converter/internal/gnre"
	"github.com/fasmdigital/gnre-cnab-converter/internal/models"
)

const version = "1.0.0"

// ConvertResponse is the JSON response from the /api/convert endpoint.
type ConvertResponse struct {
	Success  bool                       `json:"success"`
	Error    string                     `json:"error,omitempty"`
	Guides   []models.Guide             `json:"guides"`
	Failures []models.ExtractionFailure `json:"failures"`
	OKCount  int                        `json:"okCount"`
	Failed   int                        `json:"failCount"`
	FileName string                     `json:"fileName,omitempty"`
	CNAB     string                     `json:"cnab,omitempty"`
	Version  string                     `json:"version,omitempty"`
}

// Handler holds the HTTP handlers and their collaborators.
type Handler struct {
	Config    *config.Config
	Sequencer *cnab.Sequencer
	Log       *zap.SugaredLogger
}

// NewHandler wires a Handler from configuration.
func NewHandler(cfg *config.Config, log *zap.SugaredLogger) *Handler {
	return &Handler{
		Config:    cfg,
		Sequencer: cnab.NewSequencer(cfg.Server.SeqFilePath),
		Log:       log,
	}
}

// Register sets up the HTTP routes.
func (h *Handler) Register(app *fiber.App) {
	app.Get("/api/health", h.HandleHealth)
	app.Post("/api/convert", h.HandleConvert)
}

// HandleHealth reports service liveness.
func (h *Handler) HandleHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":  "ok",
		"engine":  "fiber",
		"version": version,
	})
}

// HandleConvert accepts a multipart PDF upload, classifies its pages, and
// returns the guides, the per-page failure diagnostics, and — when at least
// one complete guide was found — the encoded CNAB240 file. With ?download=1
// the raw file is returned as an attachment instead of JSON.
func (h *Handler) HandleConvert(c *fiber.Ctx) error {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return writeError(c, fiber.StatusBadRequest, "No file uploaded. Use form field 'file'.")
	}

	if !strings.HasSuffix(strings.ToLower(fileHeader.Filename), ".pdf") {
		return writeError(c, fiber.StatusBadRequest, "Only PDF files are supported.")
	}

	maxBytes := int64(h.Config.Server.MaxUploadMB) << 20
	if fileHeader.Size > maxBytes {
		return writeError(c, fiber.StatusRequestEntityTooLarge,
			fmt.Sprintf("File exceeds the %d MB upload limit.", h.Config.Server.MaxUploadMB))
	}

	tmpPath := filepath.Join(os.TempDir(), "gnre-"+uuid.NewString()+".pdf")
	if err := c.SaveFile(fileHeader, tmpPath); err != nil {
		return writeError(c, fiber.StatusInternalServerError, "Failed to save uploaded file.")
	}
	defer os.Remove(tmpPath)

	pages, err := extractor.ExtractText(tmpPath)
	if err != nil {
		return writeError(c, fiber.StatusUnprocessableEntity, fmt.Sprintf("PDF extraction failed: %v", err))
	}

	guides, failures, err := gnre.ClassifyParallel(c.Context(), pages, h.Config.Server.PageWorkers)
	if err != nil {
		return writeError(c, fiber.StatusInternalServerError, fmt.Sprintf("Classification failed: %v", err))
	}

	h.Log.Infow("classified document",
		"file", fileHeader.Filename,
		"pages", len(pages),
		"guides", len(guides),
		"failures", len(failures),
	)

	if len(guides) == 0 {
		resp := ConvertResponse{
			Error:    "No valid guides found in the PDF (missing state, due date, amount, or payment line).",
			Failures: nonNilFailures(failures),
			Guides:   []models.Guide{},
			Failed:   len(failures),
			Version:  version,
		}
		return c.Status(fiber.StatusUnprocessableEntity).JSON(resp)
	}

	fileID, err := h.Sequencer.Next()
	if err != nil {
		return writeError(c, fiber.StatusInternalServerError, fmt.Sprintf("File sequencing failed: %v", err))
	}

	out, err := cnab.Encode(guides, h.Config.Payer, fileID, time.Now())
	if err != nil {
		// Classification guarantees complete guides; reaching here is a
		// contract breach, not user input.
		if errors.Is(err, cnab.ErrNoGuides) || errors.Is(err, cnab.ErrBadFileID) {
			h.Log.Errorw("encoder contract violation", "error", err)
		}
		return writeError(c, fiber.StatusInternalServerError, fmt.Sprintf("CNAB encoding failed: %v", err))
	}

	fileName := fileID + ".txt"

	if c.Query("download") != "" {
		c.Set(fiber.HeaderContentDisposition, `attachment; filename="`+fileName+`"`)
		c.Set(fiber.HeaderContentType, "text/plain; charset=us-ascii")
		return c.Send(out)
	}

	return c.JSON(ConvertResponse{
		Success:  true,
		Guides:   guides,
		Failures: nonNilFailures(failures),
		OKCount:  len(guides),
		Failed:   len(failures),
		FileName: fileName,
		CNAB:     string(out),
		Version:  version,
	})
}

// nonNilFailures keeps the JSON field an array (nil marshals to null).
func nonNilFailures(failures []models.ExtractionFailure) []models.ExtractionFailure {
	if failures == nil {
		return []models.ExtractionFailure{}
	}
	return failures
}

func writeError(c *fiber.Ctx, status int, msg string) error {
	return c.Status(status).JSON(ConvertResponse{
		Success:  false,
		Error:    msg,
		Guides:   []models.Guide{},
		Failures: []models.ExtractionFailure{},
	})
}
