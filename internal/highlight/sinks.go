package highlight

import (
	"io"

	"github.com/charmbracelet/lipgloss"
)

// Collector keeps every range it receives.
type Collector struct {
	Ranges []Range
}

// Highlight implements HighlightSink.
func (c *Collector) Highlight(r Range) {
	c.Ranges = append(c.Ranges, r)
}

// Palette
var (
	colorComment   = lipgloss.Color("#6B7280")
	colorDoc       = lipgloss.Color("#94A3B8")
	colorString    = lipgloss.Color("#10B981")
	colorCommand   = lipgloss.Color("#8B5CF6")
	colorParameter = lipgloss.Color("#06B6D4")
	colorOption    = lipgloss.Color("#F59E0B")
	colorReference = lipgloss.Color("#3B82F6")
	colorRegion    = lipgloss.Color("#F8FAFC")
	colorError     = lipgloss.Color("#EF4444")
)

// DefaultTheme maps each class to a terminal style.
func DefaultTheme() map[Class]lipgloss.Style {
	return map[Class]lipgloss.Style{
		ClassLineComment:     lipgloss.NewStyle().Foreground(colorComment),
		ClassBlockComment:    lipgloss.NewStyle().Foreground(colorComment),
		ClassDocLineComment:  lipgloss.NewStyle().Foreground(colorDoc),
		ClassDocBlockComment: lipgloss.NewStyle().Foreground(colorDoc),
		ClassString:          lipgloss.NewStyle().Foreground(colorString),
		ClassCommand:         lipgloss.NewStyle().Foreground(colorCommand).Bold(true),
		ClassEscape:          lipgloss.NewStyle().Foreground(colorCommand),
		ClassParameter:       lipgloss.NewStyle().Foreground(colorParameter).Bold(true),
		ClassTitle:           lipgloss.NewStyle().Foreground(colorDoc).Bold(true),
		ClassOption:          lipgloss.NewStyle().Foreground(colorOption),
		ClassReference:       lipgloss.NewStyle().Foreground(colorReference).Underline(true),
		ClassQuoted:          lipgloss.NewStyle().Foreground(colorString),
		ClassRegion:          lipgloss.NewStyle().Foreground(colorRegion),
		ClassFormula:         lipgloss.NewStyle().Foreground(colorError).Italic(true),
		ClassBold:            lipgloss.NewStyle().Foreground(colorDoc).Bold(true),
		ClassItalic:          lipgloss.NewStyle().Foreground(colorDoc).Italic(true),
		ClassStrike:          lipgloss.NewStyle().Foreground(colorDoc).Strikethrough(true),
		ClassInlineCode:      lipgloss.NewStyle().Foreground(colorRegion),
	}
}

// TerminalSink renders text with ANSI styles once all ranges are in. The
// innermost range decides the style of each byte.
type TerminalSink struct {
	text   string
	theme  map[Class]lipgloss.Style
	ranges []Range
}

// NewTerminalSink prepares a sink for text. A nil theme selects
// DefaultTheme.
func NewTerminalSink(text string, theme map[Class]lipgloss.Style) *TerminalSink {
	if theme == nil {
		theme = DefaultTheme()
	}
	return &TerminalSink{text: text, theme: theme}
}

// Highlight implements HighlightSink.
func (s *TerminalSink) Highlight(r Range) {
	s.ranges = append(s.ranges, r)
}

// Render writes the styled text to w. Line breaks are written unstyled so
// that every line carries its own escape sequences.
func (s *TerminalSink) Render(w io.Writer) error {
	classes := make([]Class, len(s.text))
	for _, r := range s.ranges {
		for i := max(r.Start, 0); i < r.End && i < len(classes); i++ {
			classes[i] = r.Class
		}
	}

	for i := 0; i < len(s.text); {
		j := i + 1
		for j < len(s.text) && classes[j] == classes[i] && s.text[j] != '\n' && s.text[i] != '\n' {
			j++
		}
		chunk := s.text[i:j]
		if style, ok := s.theme[classes[i]]; ok && classes[i] != "" && chunk != "\n" {
			chunk = style.Render(chunk)
		}
		if _, err := io.WriteString(w, chunk); err != nil {
			return err
		}
		i = j
	}
	return nil
}
