// Package pdfpages counts pages in compiled PDF bytes for reporting.
//
// The default counter scans raw bytes for page objects and may miscount
// when markers live inside compressed object streams. The structural
// counter parses the document with pdfcpu and falls back to the scan.
package pdfpages

import (
	"bytes"
	"fmt"
	"log/slog"
	"regexp"
	"sync"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// Counter modes accepted by New.
const (
	ModeHeuristic  = "heuristic"
	ModeStructural = "structural"
)

// pageMarker matches "/Type /Page" but not "/Type /Pages".
// Go regexp has no lookahead, so the following byte is matched explicitly.
var pageMarker = regexp.MustCompile(`/Type\s*/Page(?:[^s]|$)`)

// Estimate counts page objects in pdf by scanning its bytes.
func Estimate(pdf []byte) int {
	return len(pageMarker.FindAllIndex(pdf, -1))
}

// Counter returns the page count of a PDF.
type Counter interface {
	Count(pdf []byte) int
}

// Heuristic counts pages with Estimate.
type Heuristic struct{}

func (Heuristic) Count(pdf []byte) int { return Estimate(pdf) }

// Structural counts pages by reading the page tree with pdfcpu.
type Structural struct {
	Logger *slog.Logger
}

func (s Structural) Count(pdf []byte) int {
	n, err := structuralCount(pdf)
	if err != nil {
		if s.Logger != nil {
			s.Logger.Debug("Structural page count failed, using heuristic", slog.String("error", err.Error()))
		}
		return Estimate(pdf)
	}
	return n
}

// pdfcpu writes a config dir under $HOME unless told otherwise.
var disableConfigDir = sync.OnceFunc(api.DisableConfigDir)

func structuralCount(pdf []byte) (int, error) {
	disableConfigDir()
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	n, err := api.PageCount(bytes.NewReader(pdf), conf)
	if err != nil {
		return 0, fmt.Errorf("reading page tree: %w", err)
	}
	return n, nil
}

// Compile-time interface checks.
var (
	_ Counter = Heuristic{}
	_ Counter = Structural{}
)

// New returns the counter for mode. Unknown modes get the heuristic.
func New(mode string, logger *slog.Logger) Counter {
	if mode == ModeStructural {
		return Structural{Logger: logger}
	}
	return Heuristic{}
}
