package harness

import "github.com/charmbracelet/lipgloss"

var (
	passStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true)
	failStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	warnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	infoStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("14"))
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("13")).Bold(true)
)

// PassStyle renders green bold text, shared with the golden path output.
func PassStyle() lipgloss.Style { return passStyle }

// FailStyle renders red bold text.
func FailStyle() lipgloss.Style { return failStyle }

// WarnStyle renders yellow text.
func WarnStyle() lipgloss.Style { return warnStyle }

// InfoStyle renders cyan text.
func InfoStyle() lipgloss.Style { return infoStyle }

// HeaderStyle renders banner text.
func HeaderStyle() lipgloss.Style { return headerStyle }
