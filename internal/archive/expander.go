// Package archive decomposes an uploaded artifact into OCR-able ingestion
// units. A plain image or PDF yields one unit equal to the input; a ZIP yields
// one unit per contained eligible file.
package archive

import (
	"archive/zip"
	"bytes"
	"io"
	"mime"
	"path"
	"strings"

	"paperbase/internal/model"
)

// Unit is one OCR-able item derived from an upload.
type Unit struct {
	Filename string
	Data     []byte
	MimeType string
}

// Limits bound artifact sizes and archive expansion.
type Limits struct {
	// MaxFileBytes is the ceiling for a plain file and for each archive entry.
	MaxFileBytes int64
	// MaxZipBytes is the ceiling for a whole ZIP artifact.
	MaxZipBytes int64
	// MaxUnits caps how many entries one archive may expand into. Exceeding it
	// truncates the sequence instead of failing the upload.
	MaxUnits int
}

// Expansion is a finite, single-pass sequence of ingestion units.
type Expansion struct {
	next func() (*Unit, error)
	// Truncated is set when the archive held more eligible entries than
	// Limits.MaxUnits allows; the surplus was dropped, not failed.
	Truncated bool
}

// Next returns the next unit or io.EOF when the sequence is exhausted.
func (e *Expansion) Next() (*Unit, error) { return e.next() }

// Collect drains the sequence. Intended for callers that need all units at once.
func (e *Expansion) Collect() ([]Unit, error) {
	var units []Unit
	for {
		u, err := e.Next()
		if err == io.EOF {
			return units, nil
		}
		if err != nil {
			return units, err
		}
		units = append(units, *u)
	}
}

func isZipMime(m string) bool {
	switch m {
	case "application/zip", "application/x-zip-compressed":
		return true
	}
	return false
}

// IsOCRAble reports whether the mime type can be fed to an OCR engine.
func IsOCRAble(m string) bool {
	return strings.HasPrefix(m, "image/") || m == "application/pdf"
}

// InferMime guesses a mime type from a filename, stripping any parameters.
func InferMime(filename string) string {
	t := mime.TypeByExtension(path.Ext(filename))
	if t == "" {
		return ""
	}
	if i := strings.Index(t, ";"); i >= 0 {
		t = strings.TrimSpace(t[:i])
	}
	return t
}

// Expand validates the artifact against the configured ceilings and returns a
// lazy sequence of ingestion units.
func Expand(data []byte, declaredMime, filename string, limits Limits) (*Expansion, error) {
	if isZipMime(declaredMime) {
		if limits.MaxZipBytes > 0 && int64(len(data)) > limits.MaxZipBytes {
			return nil, model.E(model.KindPayloadTooLarge,
				"zip artifact is %d bytes, maximum is %d", len(data), limits.MaxZipBytes)
		}
		return expandZip(data, limits)
	}

	if limits.MaxFileBytes > 0 && int64(len(data)) > limits.MaxFileBytes {
		return nil, model.E(model.KindPayloadTooLarge,
			"file is %d bytes, maximum is %d", len(data), limits.MaxFileBytes)
	}
	if !IsOCRAble(declaredMime) {
		return nil, model.E(model.KindNoEligibleContent,
			"mime type %q is not OCR-able", declaredMime)
	}

	emitted := false
	return &Expansion{next: func() (*Unit, error) {
		if emitted {
			return nil, io.EOF
		}
		emitted = true
		return &Unit{Filename: filename, Data: data, MimeType: declaredMime}, nil
	}}, nil
}

func expandZip(data []byte, limits Limits) (*Expansion, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, model.Wrap(model.KindUnsupportedArchive, err, "cannot open zip archive")
	}

	// Eligibility is decided from headers only; entry bytes are read lazily.
	var eligible []*zip.File
	truncated := false
	for _, f := range zr.File {
		if f.FileInfo().IsDir() {
			continue
		}
		if limits.MaxFileBytes > 0 && f.UncompressedSize64 > uint64(limits.MaxFileBytes) {
			continue
		}
		if !IsOCRAble(InferMime(f.Name)) {
			continue
		}
		if limits.MaxUnits > 0 && len(eligible) >= limits.MaxUnits {
			truncated = true
			break
		}
		eligible = append(eligible, f)
	}

	i := 0
	return &Expansion{
		Truncated: truncated,
		next: func() (*Unit, error) {
			for i < len(eligible) {
				f := eligible[i]
				i++
				rc, err := f.Open()
				if err != nil {
					return nil, model.Wrap(model.KindUnsupportedArchive, err, "open zip entry %q", f.Name)
				}
				buf, ok, err := readEntry(rc, limits.MaxFileBytes)
				rc.Close()
				if err != nil {
					return nil, model.Wrap(model.KindUnsupportedArchive, err, "read zip entry %q", f.Name)
				}
				if !ok {
					// Header declared a size within the ceiling but the stream
					// decompressed past it. Skip the entry.
					continue
				}
				return &Unit{
					Filename: path.Base(f.Name),
					Data:     buf,
					MimeType: InferMime(f.Name),
				}, nil
			}
			return nil, io.EOF
		},
	}, nil
}

// readEntry reads at most max bytes from rc. It reports ok=false when the
// stream holds more than max bytes, without reading the excess.
func readEntry(rc io.Reader, max int64) ([]byte, bool, error) {
	if max <= 0 {
		buf, err := io.ReadAll(rc)
		return buf, err == nil, err
	}
	buf, err := io.ReadAll(io.LimitReader(rc, max+1))
	if err != nil {
		return nil, false, err
	}
	if int64(len(buf)) > max {
		return nil, false, nil
	}
	return buf, true, nil
}
