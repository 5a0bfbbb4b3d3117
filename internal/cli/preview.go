package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"

	"github.com/grahms/tagweaver"
)

// previewStyles are applied only when writing to a terminal.
type previewStyles struct {
	header  lipgloss.Style
	index   lipgloss.Style
	label   lipgloss.Style
	prompt  lipgloss.Style
	warning lipgloss.Style
	more    lipgloss.Style
}

func newPreviewStyles(w io.Writer) previewStyles {
	if !isTerminal(w) {
		plain := lipgloss.NewStyle()
		return previewStyles{plain, plain, plain, plain.PaddingLeft(4), plain, plain}
	}
	r := lipgloss.NewRenderer(w)
	return previewStyles{
		header:  r.NewStyle().Bold(true),
		index:   r.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#5A56E0", Dark: "#7571F9"}).Bold(true),
		label:   r.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#6C6C6C", Dark: "#9B9B9B"}),
		prompt:  r.NewStyle().PaddingLeft(4),
		warning: r.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#D7A000", Dark: "#FFD700"}).Bold(true),
		more:    r.NewStyle().Italic(true).Faint(true),
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// writePreview prints the combination count, a warning when it exceeds
// warnThreshold (0 disables it), then each rendered item.
func writePreview(w io.Writer, p tagweaver.Preview, warnThreshold int) error {
	st := newPreviewStyles(w)

	if _, err := fmt.Fprintln(w, st.header.Render(fmt.Sprintf("%d combination(s)", p.Total))); err != nil {
		return err
	}
	if warnThreshold > 0 && p.Total > warnThreshold {
		msg := fmt.Sprintf("warning: %d combinations exceed the threshold of %d", p.Total, warnThreshold)
		if _, err := fmt.Fprintln(w, st.warning.Render(msg)); err != nil {
			return err
		}
	}

	for _, item := range p.Items {
		label := item.Label
		if label == "" {
			label = tagweaver.DefaultComboName
		}
		if _, err := fmt.Fprintf(w, "%s %s\n%s\n",
			st.index.Render(fmt.Sprintf("#%d", item.Index)),
			st.label.Render(label),
			st.prompt.Render(item.Prompt)); err != nil {
			return err
		}
	}

	if n := p.Truncated(); n > 0 {
		if _, err := fmt.Fprintln(w, st.more.Render(fmt.Sprintf("... and %d more", n))); err != nil {
			return err
		}
	}
	return nil
}
