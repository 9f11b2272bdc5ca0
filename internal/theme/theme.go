package theme

import (
	"embed"
	"image/color"
)

// EmbeddedThemes holds the themes shipped with the binary.
//
//go:embed defaults/*.theme
var EmbeddedThemes embed.FS

// Theme is the color palette of the canvas window and rendered pages.
type Theme struct {
	Name string

	// Page
	Paper     color.RGBA // canvas background
	Grid      color.RGBA // ruled lines
	Margin    color.RGBA // left margin rule
	Ink       color.RGBA // default pen color
	Selection color.RGBA // selection box outline
	Shadow    color.RGBA // page drop shadow

	// Chrome
	Background        color.RGBA // window area outside the page
	ToolbarBackground color.RGBA
	ToolbarText       color.RGBA
	ToolActive        color.RGBA // highlight for the current tool
	StatusText        color.RGBA
}

// Default returns the built-in light theme.
func Default() *Theme {
	return &Theme{
		Name:              "default",
		Paper:             color.RGBA{255, 253, 245, 255},
		Grid:              color.RGBA{200, 215, 235, 255},
		Margin:            color.RGBA{235, 170, 170, 255},
		Ink:               color.RGBA{20, 20, 40, 255},
		Selection:         color.RGBA{40, 120, 220, 255},
		Shadow:            color.RGBA{0, 0, 0, 90},
		Background:        color.RGBA{210, 210, 210, 255},
		ToolbarBackground: color.RGBA{230, 230, 230, 255},
		ToolbarText:       color.RGBA{0, 0, 0, 255},
		ToolActive:        color.RGBA{190, 205, 230, 255},
		StatusText:        color.RGBA{60, 60, 60, 255},
	}
}
