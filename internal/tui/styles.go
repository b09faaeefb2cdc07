package tui

import (
	"github.com/bizmatters/reasoning-console/internal/models"
	"github.com/charmbracelet/lipgloss"
)

var (
	HeaderStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15")).
			Background(lipgloss.Color("62")).Padding(0, 1)

	OnlineStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true)
	OfflineStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	DimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("243"))

	ContentStyle = lipgloss.NewStyle().PaddingLeft(2)
	PendingStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("243")).Italic(true).PaddingLeft(2)

	InputStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).Padding(0, 1)
	ErrorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))

	HelpKeyStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("75")).Bold(true)
	HelpDescStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("243"))
)

// kindLabels names and colours every step kind in the transcript
var kindLabels = map[models.StepKind]struct {
	label string
	color lipgloss.Color
}{
	models.StepUser:             {"You", "75"},
	models.StepSystem:           {"System", "214"},
	models.StepAnalysis:         {"Analysis", "141"},
	models.StepReasoning:        {"Reasoning", "105"},
	models.StepBaseResponse:     {"Base response", "250"},
	models.StepReasonedResponse: {"Reasoned response", "117"},
	models.StepFinalResponse:    {"Final response", "42"},
	models.StepPatterns:         {"Patterns", "180"},
}

func kindLabel(kind models.StepKind) string {
	entry, ok := kindLabels[kind]
	if !ok {
		return lipgloss.NewStyle().Bold(true).Render(string(kind))
	}
	return lipgloss.NewStyle().Bold(true).Foreground(entry.color).Render(entry.label)
}
