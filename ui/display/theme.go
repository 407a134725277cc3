package display

import (
	"image/color"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/theme"
)

// SweeperTheme tints the default theme in the classic board colours.
type SweeperTheme struct{}

var _ fyne.Theme = (*SweeperTheme)(nil)

func (t *SweeperTheme) Color(name fyne.ThemeColorName, variant fyne.ThemeVariant) color.Color {
	switch name {
	case theme.ColorNamePrimary:
		return color.NRGBA{R: 0x00, G: 0x00, B: 0xFF, A: 0xFF} // the "1" blue
	case theme.ColorNameSelection:
		return color.NRGBA{R: 0x00, G: 0x80, B: 0x00, A: 0x80}
	case theme.ColorNameError:
		return color.NRGBA{R: 0xFF, G: 0x00, B: 0x00, A: 0xFF}
	default:
		return theme.DefaultTheme().Color(name, variant)
	}
}

func (t *SweeperTheme) Font(style fyne.TextStyle) fyne.Resource {
	return theme.DefaultTheme().Font(style)
}

func (t *SweeperTheme) Icon(name fyne.ThemeIconName) fyne.Resource {
	return theme.DefaultTheme().Icon(name)
}

func (t *SweeperTheme) Size(name fyne.ThemeSizeName) float32 {
	switch name {
	case theme.SizeNamePadding:
		return 3 // compact side window
	default:
		return theme.DefaultTheme().Size(name)
	}
}
