package report

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"gcode-toolpath/pkg/toolpath"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	sectionStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("81")).
			MarginTop(1)

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			Width(18).
			PaddingLeft(2)

	valueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("255"))

	noteStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			PaddingLeft(2)

	boxStyle = lipgloss.NewStyle().
			Padding(0, 1).
			Border(lipgloss.NormalBorder()).
			BorderForeground(lipgloss.Color("63"))

	levelStyles = map[toolpath.Level]lipgloss.Style{
		toolpath.LevelInfo:    lipgloss.NewStyle().Foreground(lipgloss.Color("81")),
		toolpath.LevelWarning: lipgloss.NewStyle().Foreground(lipgloss.Color("208")).Bold(true),
		toolpath.LevelError:   lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true),
	}
)

// Text renders the metrics for a terminal. Colours follow lipgloss's
// detection of the output, so piped output stays plain.
func Text(m *toolpath.Metrics, src Source) string {
	title := "Toolpath report"
	if src.Name != "" {
		title += " · " + src.Name
	}

	blocks := []string{titleStyle.Render(title)}
	for _, s := range sections(m, src) {
		lines := []string{sectionStyle.Render(s.title)}
		for _, r := range s.rows {
			lines = append(lines, lipgloss.JoinHorizontal(lipgloss.Top,
				labelStyle.Render(r.label), valueStyle.Render(r.value)))
		}
		blocks = append(blocks, strings.Join(lines, "\n"))
	}
	blocks = append(blocks, diagnosticsBox(m.Warnings))
	return lipgloss.JoinVertical(lipgloss.Left, blocks...) + "\n"
}

func diagnosticsBox(warnings []toolpath.Warning) string {
	if len(warnings) == 0 {
		return sectionStyle.Render("Diagnostics") + "\n" + noteStyle.Render("No issues found.")
	}
	lines := make([]string, 0, len(warnings))
	for _, w := range warnings {
		badge := levelStyles[w.Level].Render(strings.ToUpper(w.Level.String()))
		lines = append(lines, badge+" "+w.Message)
	}
	return sectionStyle.Render("Diagnostics") + "\n" + boxStyle.Render(strings.Join(lines, "\n"))
}
