package viz

import "github.com/charmbracelet/lipgloss"

// Theme is the color scheme for panels, charts and the explorer.
type Theme struct {
	Name      string
	Primary   lipgloss.Color
	Secondary lipgloss.Color
	Accent    lipgloss.Color
	Text      lipgloss.Color
	Muted     lipgloss.Color
	Border    lipgloss.Color
	Warning   lipgloss.Color
	Error     lipgloss.Color
}

var (
	ThemeNebula = Theme{
		Name:      "nebula",
		Primary:   lipgloss.Color("#00ffff"),
		Secondary: lipgloss.Color("#00ccff"),
		Accent:    lipgloss.Color("#ff00ff"),
		Text:      lipgloss.Color("#ffffff"),
		Muted:     lipgloss.Color("#666688"),
		Border:    lipgloss.Color("#444466"),
		Warning:   lipgloss.Color("#ffaa00"),
		Error:     lipgloss.Color("#ff4444"),
	}

	ThemeRedshift = Theme{
		Name:      "redshift",
		Primary:   lipgloss.Color("#ff6b6b"),
		Secondary: lipgloss.Color("#feca57"),
		Accent:    lipgloss.Color("#ff9ff3"),
		Text:      lipgloss.Color("#fff5f5"),
		Muted:     lipgloss.Color("#8b6b8c"),
		Border:    lipgloss.Color("#5a3b5c"),
		Warning:   lipgloss.Color("#ffc048"),
		Error:     lipgloss.Color("#ff4757"),
	}

	ThemeMono = Theme{
		Name:      "mono",
		Primary:   lipgloss.Color("#ffffff"),
		Secondary: lipgloss.Color("#cccccc"),
		Accent:    lipgloss.Color("#0088ff"),
		Text:      lipgloss.Color("#ffffff"),
		Muted:     lipgloss.Color("#888888"),
		Border:    lipgloss.Color("#555555"),
		Warning:   lipgloss.Color("#ffaa00"),
		Error:     lipgloss.Color("#ff0000"),
	}

	CurrentTheme = ThemeNebula

	Themes = []Theme{ThemeNebula, ThemeRedshift, ThemeMono}
)

// GetTheme returns a theme by name and whether it exists.
func GetTheme(name string) (Theme, bool) {
	for _, t := range Themes {
		if t.Name == name {
			return t, true
		}
	}
	return ThemeNebula, false
}

// SetTheme makes t current and restyles every shared style.
func SetTheme(t Theme) {
	CurrentTheme = t
	GlassPanel = GlassPanel.BorderForeground(t.Border)
	Title = Title.Foreground(t.Primary)
	Subtle = Subtle.Foreground(t.Muted)
	MetricValue = MetricValue.Foreground(t.Secondary)
	MetricLabel = MetricLabel.Foreground(t.Muted)
	Selected = Selected.Foreground(t.Accent)
	Warning = Warning.Foreground(t.Warning)
	ErrorText = ErrorText.Foreground(t.Error)
	KeyHint = KeyHint.Foreground(t.Muted)
}

// NextTheme returns the theme after the current one.
func NextTheme() Theme {
	for i, t := range Themes {
		if t.Name == CurrentTheme.Name {
			return Themes[(i+1)%len(Themes)]
		}
	}
	return Themes[0]
}

func ThemeNames() []string {
	names := make([]string, len(Themes))
	for i, t := range Themes {
		names[i] = t.Name
	}
	return names
}
