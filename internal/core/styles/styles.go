// Package styles provides shared lipgloss styles for CLI and TUI output.
package styles

import (
	glamouransi "github.com/charmbracelet/glamour/ansi"
	glamourstyles "github.com/charmbracelet/glamour/styles"
	"github.com/charmbracelet/lipgloss"
)

// CurrentPalette holds the active theme palette.
var CurrentPalette Palette

// Style exports.
var (
	// CLI styles.
	CommandHeaderStyle lipgloss.Style
	CommandStyle       lipgloss.Style
	DividerStyle       lipgloss.Style
	ErrorStyle         lipgloss.Style
	WarningStyle       lipgloss.Style
	SuccessStyle       lipgloss.Style

	// Scoring screen.
	TitleStyle          lipgloss.Style
	SubtitleStyle       lipgloss.Style
	NoticeStyle         lipgloss.Style
	NoticeTitleStyle    lipgloss.Style
	SliderFocusedStyle  lipgloss.Style
	SliderBlurredStyle  lipgloss.Style
	SliderFillStyle     lipgloss.Style
	SliderTrackStyle    lipgloss.Style
	ScaleLabelStyle     lipgloss.Style
	ButtonStyle         lipgloss.Style
	ButtonDisabledStyle lipgloss.Style
	PanelStyle          lipgloss.Style
)

// SetTheme sets the active palette and rebuilds all global styles.
func SetTheme(p Palette) {
	CurrentPalette = p

	CommandHeaderStyle = lipgloss.NewStyle().Foreground(p.Primary).Bold(true)
	CommandStyle = lipgloss.NewStyle().Foreground(p.Foreground)
	DividerStyle = lipgloss.NewStyle().Foreground(p.Muted)
	ErrorStyle = lipgloss.NewStyle().Foreground(p.Error).Bold(true)
	WarningStyle = lipgloss.NewStyle().Foreground(p.Warning)
	SuccessStyle = lipgloss.NewStyle().Foreground(p.Success)

	TitleStyle = lipgloss.NewStyle().
		Foreground(p.Primary).
		Bold(true).
		MarginBottom(1)
	SubtitleStyle = lipgloss.NewStyle().Foreground(p.Muted)
	NoticeStyle = lipgloss.NewStyle().Foreground(p.Foreground).Italic(true)
	NoticeTitleStyle = lipgloss.NewStyle().Foreground(p.Warning).Bold(true)

	SliderFocusedStyle = lipgloss.NewStyle().
		Border(lipgloss.ThickBorder(), false, false, false, true).
		BorderForeground(p.Primary).
		PaddingLeft(1)
	SliderBlurredStyle = lipgloss.NewStyle().
		Border(lipgloss.ThickBorder(), false, false, false, true).
		BorderForeground(p.Muted).
		PaddingLeft(1)
	SliderFillStyle = lipgloss.NewStyle().Foreground(p.Secondary)
	SliderTrackStyle = lipgloss.NewStyle().Foreground(p.Surface)
	ScaleLabelStyle = lipgloss.NewStyle().Foreground(p.Muted)

	ButtonStyle = lipgloss.NewStyle().
		Padding(0, 1).
		Background(p.Primary).
		Foreground(p.Background).
		Bold(true)
	ButtonDisabledStyle = lipgloss.NewStyle().
		Padding(0, 1).
		Background(p.Surface).
		Foreground(p.Muted)

	PanelStyle = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(p.Surface).
		Padding(1, 2)
}

// nolint:gochecknoinits // bootstrap default theme before any style is accessed.
func init() {
	SetTheme(themes[DefaultTheme])
}

func hexPtr(c lipgloss.Color) *string {
	s := string(c)
	return &s
}

// GlamourStyle returns a Glamour style config derived from the active theme.
func GlamourStyle() glamouransi.StyleConfig {
	cfg := glamourstyles.DarkStyleConfig
	p := CurrentPalette

	cfg.Document.Color = hexPtr(p.Foreground)
	cfg.Paragraph.Color = hexPtr(p.Foreground)

	cfg.Heading.Color = hexPtr(p.Primary)
	cfg.H1.Color = hexPtr(p.Foreground)
	cfg.H1.BackgroundColor = hexPtr(p.Surface)
	cfg.H2.Color = hexPtr(p.Primary)
	cfg.H3.Color = hexPtr(p.Primary)

	cfg.BlockQuote.Color = hexPtr(p.Muted)
	cfg.HorizontalRule.Color = hexPtr(p.Muted)
	cfg.Link.Color = hexPtr(p.Secondary)
	cfg.LinkText.Color = hexPtr(p.Secondary)
	cfg.Code.Color = hexPtr(p.Secondary)
	cfg.Strong.Color = hexPtr(p.Warning)

	return cfg
}
