package barcode

import (
	"fmt"
	"image"
	"strings"

	"github.com/makiuchi-d/gozxing"
	"github.com/makiuchi-d/gozxing/oned"
	"github.com/makiuchi-d/gozxing/qrcode"
)

// Symbology is a barcode encoding standard the decoder can recognise.
type Symbology string

const (
	EAN13   Symbology = "ean_13"
	EAN8    Symbology = "ean_8"
	UPCA    Symbology = "upc_a"
	UPCE    Symbology = "upc_e"
	Code128 Symbology = "code_128"
	Code39  Symbology = "code_39"
	QRCode  Symbology = "qr_code"
)

// DefaultSymbologies covers retail product codes.
var DefaultSymbologies = []Symbology{EAN13, EAN8, UPCA, UPCE}

var readerFactories = map[Symbology]func() gozxing.Reader{
	EAN13:   func() gozxing.Reader { return oned.NewEAN13Reader() },
	EAN8:    func() gozxing.Reader { return oned.NewEAN8Reader() },
	UPCA:    func() gozxing.Reader { return oned.NewUPCAReader() },
	UPCE:    func() gozxing.Reader { return oned.NewUPCEReader() },
	Code128: func() gozxing.Reader { return oned.NewCode128Reader() },
	Code39:  func() gozxing.Reader { return oned.NewCode39Reader() },
	QRCode:  func() gozxing.Reader { return qrcode.NewQRCodeReader() },
}

// ParseSymbologies validates symbology names such as "ean_13" or "QR_CODE".
func ParseSymbologies(names []string) ([]Symbology, error) {
	symbologies := make([]Symbology, 0, len(names))
	for _, name := range names {
		s := Symbology(strings.ToLower(strings.TrimSpace(name)))
		if _, ok := readerFactories[s]; !ok {
			return nil, fmt.Errorf("unsupported symbology %q", name)
		}
		symbologies = append(symbologies, s)
	}
	return symbologies, nil
}

type namedReader struct {
	symbology Symbology
	reader    gozxing.Reader
}

// frameReader tries each configured reader in order on a frame.
// Readers keep internal state, so a frameReader belongs to one goroutine.
type frameReader struct {
	readers []namedReader
	hints   map[gozxing.DecodeHintType]interface{}
}

func newFrameReader(symbologies []Symbology) (*frameReader, error) {
	if len(symbologies) == 0 {
		return nil, fmt.Errorf("no symbologies configured")
	}

	fr := &frameReader{
		hints: map[gozxing.DecodeHintType]interface{}{
			gozxing.DecodeHintType_TRY_HARDER: true,
		},
	}
	seen := make(map[Symbology]bool)
	for _, s := range symbologies {
		factory, ok := readerFactories[s]
		if !ok {
			return nil, fmt.Errorf("unsupported symbology %q", s)
		}
		if seen[s] {
			continue
		}
		seen[s] = true
		fr.readers = append(fr.readers, namedReader{symbology: s, reader: factory()})
	}
	return fr, nil
}

// decode returns the first payload any reader finds in img.
func (fr *frameReader) decode(img image.Image) (string, Symbology, bool) {
	bmp, err := gozxing.NewBinaryBitmapFromImage(img)
	if err != nil {
		return "", "", false
	}

	for _, nr := range fr.readers {
		result, err := nr.reader.Decode(bmp, fr.hints)
		nr.reader.Reset()
		if err != nil {
			continue
		}
		if text := result.GetText(); text != "" {
			return text, nr.symbology, true
		}
	}
	return "", "", false
}
