package style

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidPageSize is returned by PageByName for unknown sizes.
var ErrInvalidPageSize = errors.New("invalid page size")

// Page size names.
const (
	PageSizeA4     = "a4"
	PageSizeLetter = "letter"
	PageSizeLegal  = "legal"
)

// PointsPerInch converts between points and inches.
const PointsPerInch = 72.0

// Page is a portrait page size in points.
type Page struct {
	Name   string
	Width  float64
	Height float64
}

var (
	A4     = Page{Name: PageSizeA4, Width: 595.28, Height: 841.89}
	Letter = Page{Name: PageSizeLetter, Width: 612, Height: 792}
	Legal  = Page{Name: PageSizeLegal, Width: 612, Height: 1008}
)

// DefaultPage is the page used when none is configured.
var DefaultPage = A4

// PageByName looks up a page size, ignoring case and surrounding space.
// An empty name yields DefaultPage.
func PageByName(name string) (Page, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "":
		return DefaultPage, nil
	case PageSizeA4:
		return A4, nil
	case PageSizeLetter:
		return Letter, nil
	case PageSizeLegal:
		return Legal, nil
	}
	return Page{}, fmt.Errorf("%w: %q", ErrInvalidPageSize, name)
}

// ContentWidth is the printable width inside m, never negative.
func (p Page) ContentWidth(m Margins) float64 {
	return nonNegative(p.Width - m.Left - m.Right)
}

// ContentHeight is the printable height inside m, never negative.
func (p Page) ContentHeight(m Margins) float64 {
	return nonNegative(p.Height - m.Top - m.Bottom)
}

// WidthInches and HeightInches are used by engines that size paper in inches.
func (p Page) WidthInches() float64  { return p.Width / PointsPerInch }
func (p Page) HeightInches() float64 { return p.Height / PointsPerInch }

func nonNegative(v float64) float64 {
	if v < 0 {
		return 0
	}
	return v
}
