package ocr

import (
	"context"
	"fmt"
	"strings"

	"github.com/gen2brain/go-fitz"
	"github.com/otiai10/gosseract/v2"

	"paperbase/internal/model"
)

const pdfRasterDPI = 150

// TesseractEngine runs recognition through the gosseract client. PDFs are
// rasterized page by page and the page texts joined with blank lines.
type TesseractEngine struct {
	langs         []string
	version       string
	available     bool
	clientFactory func() *gosseract.Client
}

// NewTesseract probes the native Tesseract installation and returns the
// engine. A missing native library leaves the engine registered but
// unavailable rather than failing startup.
func NewTesseract(langs []string) *TesseractEngine {
	e := &TesseractEngine{
		langs:         append([]string(nil), langs...),
		version:       "unknown",
		clientFactory: gosseract.NewClient,
	}
	e.probe()
	return e
}

func (e *TesseractEngine) probe() {
	defer func() {
		if recover() != nil {
			e.available = false
		}
	}()
	c := e.clientFactory()
	defer c.Close()
	if v := c.Version(); v != "" {
		e.version = v
		e.available = true
	}
}

func (e *TesseractEngine) ID() string          { return "tesseract" }
func (e *TesseractEngine) DisplayName() string { return "Tesseract OCR" }
func (e *TesseractEngine) Version() string     { return e.version }
func (e *TesseractEngine) Available() bool     { return e.available }

// Recognize extracts text from image or PDF bytes. Failures are reported as
// structured recognition errors carrying this engine's id.
func (e *TesseractEngine) Recognize(ctx context.Context, data []byte, mimeType string) (Result, error) {
	if !e.available {
		return Result{}, model.E(model.KindNoEngineAvailable, "tesseract is not installed")
	}
	if mimeType == "application/pdf" {
		return e.recognizePDF(ctx, data)
	}
	return e.recognizeImage(ctx, data)
}

func (e *TesseractEngine) recognizeImage(ctx context.Context, data []byte) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, model.RecognitionError(e.ID(), err)
	}
	c := e.clientFactory()
	defer c.Close()

	if len(e.langs) > 0 {
		if err := c.SetLanguage(e.langs...); err != nil {
			return Result{}, model.RecognitionError(e.ID(), fmt.Errorf("set languages: %w", err))
		}
	}
	if err := c.SetImageFromBytes(data); err != nil {
		return Result{}, model.RecognitionError(e.ID(), fmt.Errorf("set image: %w", err))
	}
	text, err := c.Text()
	if err != nil {
		return Result{}, model.RecognitionError(e.ID(), fmt.Errorf("recognize text: %w", err))
	}
	return Result{Text: strings.TrimSpace(text), Confidence: meanConfidence(c)}, nil
}

func (e *TesseractEngine) recognizePDF(ctx context.Context, data []byte) (Result, error) {
	doc, err := fitz.NewFromMemory(data)
	if err != nil {
		return Result{}, model.RecognitionError(e.ID(), fmt.Errorf("open pdf: %w", err))
	}
	defer doc.Close()

	pages := make([]string, 0, doc.NumPage())
	var confSum float64
	var confPages int
	for n := 0; n < doc.NumPage(); n++ {
		if err := ctx.Err(); err != nil {
			return Result{}, model.RecognitionError(e.ID(), err)
		}
		img, err := doc.ImagePNG(n, pdfRasterDPI)
		if err != nil {
			return Result{}, model.RecognitionError(e.ID(), fmt.Errorf("rasterize page %d: %w", n+1, err))
		}
		res, err := e.recognizeImage(ctx, img)
		if err != nil {
			return Result{}, err
		}
		pages = append(pages, res.Text)
		if res.Confidence > 0 {
			confSum += res.Confidence
			confPages++
		}
	}

	out := Result{Text: strings.Join(pages, "\n\n")}
	if confPages > 0 {
		out.Confidence = confSum / float64(confPages)
	}
	return out, nil
}

func meanConfidence(c *gosseract.Client) float64 {
	boxes, err := c.GetBoundingBoxes(gosseract.RIL_WORD)
	if err != nil || len(boxes) == 0 {
		return 0
	}
	var sum float64
	for _, b := range boxes {
		sum += b.Confidence / 100.0
	}
	return sum / float64(len(boxes))
}
