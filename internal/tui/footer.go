package tui

import "strings"

// FooterModel renders the key help and the run status.
type FooterModel struct {
	keymap KeyMap
	paused bool
	done   bool
	failed bool
	width  int
}

// NewFooterModel creates a footer for keymap.
func NewFooterModel(keymap KeyMap) FooterModel {
	return FooterModel{keymap: keymap}
}

func (f *FooterModel) SetWidth(w int)   { f.width = w }
func (f *FooterModel) SetPaused(p bool) { f.paused = p }
func (f *FooterModel) SetDone(d bool)   { f.done = d }
func (f *FooterModel) SetFailed(e bool) { f.failed = e }

// Status returns the status label of the run.
func (f FooterModel) Status() string {
	switch {
	case f.failed && f.done:
		return "FAILED"
	case f.done:
		return "DONE"
	case f.paused:
		return "PAUSED"
	default:
		return "RUNNING"
	}
}

// View renders the footer.
func (f FooterModel) View() string {
	parts := make([]string, 0, 5)
	for _, b := range f.keymap.ShortHelp() {
		h := b.Help()
		parts = append(parts, footerKeyStyle.Render(h.Key)+" "+dimStyle.Render(h.Desc))
	}

	var status string
	switch f.Status() {
	case "FAILED":
		status = errorStyle.Render("FAILED")
	case "DONE":
		status = successStyle.Render("DONE")
	case "PAUSED":
		status = warningStyle.Render("PAUSED")
	default:
		status = accentStyle.Render("RUNNING")
	}
	return " " + status + "  " + strings.Join(parts, dimStyle.Render(" · "))
}
