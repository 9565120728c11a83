package gnre

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/fasmdigital/gnre-cnab-converter/internal/models"
)

// previewLen bounds the payment-line preview attached to failures.
const previewLen = 22

// Classify runs extraction over every page and partitions the results.
// Pages are 1-indexed and both output slices preserve page order. A page is
// a success only when all four fields resolved; anything less is reported as
// a failure for that page, because a partial guide cannot build a compliant
// payment segment.
func Classify(pages []string) ([]models.Guide, []models.ExtractionFailure) {
	var guides []models.Guide
	var failures []models.ExtractionFailure

	for i, page := range pages {
		guide, failure, ok := classifyPage(i+1, Extract(page))
		if ok {
			guides = append(guides, guide)
		} else {
			failures = append(failures, failure)
		}
	}

	return guides, failures
}

// ClassifyParallel extracts pages concurrently and gathers results back in
// page order. Extraction is a pure function of the page text, so pages carry
// no ordering dependency between each other.
func ClassifyParallel(ctx context.Context, pages []string, workers int) ([]models.Guide, []models.ExtractionFailure, error) {
	if workers < 1 {
		workers = 1
	}

	fields := make([]Fields, len(pages))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, page := range pages {
		i, page := i, page
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			fields[i] = Extract(page)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	var guides []models.Guide
	var failures []models.ExtractionFailure
	for i, f := range fields {
		guide, failure, ok := classifyPage(i+1, f)
		if ok {
			guides = append(guides, guide)
		} else {
			failures = append(failures, failure)
		}
	}
	return guides, failures, nil
}

func classifyPage(page int, f Fields) (models.Guide, models.ExtractionFailure, bool) {
	var missing []models.FieldName
	if f.PaymentLine == "" {
		missing = append(missing, models.FieldPaymentLine)
	}
	if f.State == "" {
		missing = append(missing, models.FieldState)
	}
	if f.DueDate == "" {
		missing = append(missing, models.FieldDueDate)
	}
	if f.Amount == "" {
		missing = append(missing, models.FieldAmount)
	}

	if len(missing) == 0 {
		return models.Guide{
			Page:        page,
			State:       f.State,
			DueDate:     f.DueDate,
			Amount:      f.Amount,
			PaymentLine: f.PaymentLine,
		}, models.ExtractionFailure{}, true
	}

	partial := make(map[string]string)
	if f.PaymentLine != "" {
		partial[string(models.FieldPaymentLine)] = previewPaymentLine(f.PaymentLine)
	}
	if f.State != "" {
		partial[string(models.FieldState)] = f.State
	}
	if f.DueDate != "" {
		partial[string(models.FieldDueDate)] = f.DueDate
	}
	if f.Amount != "" {
		partial[string(models.FieldAmount)] = f.Amount
	}

	return models.Guide{}, models.ExtractionFailure{
		Page:               page,
		MissingFields:      missing,
		PartialValues:      partial,
		DiagnosticSnippets: f.Snippets,
	}, false
}

// previewPaymentLine truncates a matched payment line for quick visual
// verification in failure listings.
func previewPaymentLine(line string) string {
	if len(line) <= previewLen {
		return line
	}
	return line[:previewLen] + "..."
}
