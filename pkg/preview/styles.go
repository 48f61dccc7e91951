package preview

import "github.com/charmbracelet/lipgloss"

var (
	colorCyan   = lipgloss.Color("51")
	colorYellow = lipgloss.Color("214")
	colorRed    = lipgloss.Color("196")
	colorDim    = lipgloss.Color("240")
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorCyan).
			Padding(0, 1)

	promptStyle = lipgloss.NewStyle().
			Padding(0, 1)

	optionStyle = lipgloss.NewStyle().
			Foreground(colorYellow)

	breadcrumbStyle = lipgloss.NewStyle().
			Faint(true).
			Padding(0, 1)

	warnStyle = lipgloss.NewStyle().
			Foreground(colorRed).
			Bold(true)

	keyStyle = lipgloss.NewStyle().
			Foreground(colorCyan).
			Bold(true)

	keyDescStyle = lipgloss.NewStyle().
			Foreground(colorDim)
)
