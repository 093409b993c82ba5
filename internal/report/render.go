package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

const (
	ansiReset  = "\x1b[0m"
	ansiTitle  = "\x1b[1;38;2;59;130;246m"
	ansiYellow = "\x1b[33m"
	ansiGreen  = "\x1b[32m"
	ansiGray   = "\x1b[90m"
)

// Style controls terminal decoration of the text report.
type Style struct {
	Color bool
}

func (s Style) paint(code, text string) string {
	if !s.Color {
		return text
	}
	return code + text + ansiReset
}

// Render writes the human-readable report.
func Render(w io.Writer, rep Report, style Style) error {
	var b strings.Builder

	b.WriteString("\n")
	b.WriteString(style.paint(ansiTitle, "Restormel Security Audit"))
	b.WriteString("\n\n")

	if rep.TotalSecretCount > 0 {
		fmt.Fprintf(&b, "%s\n", style.paint(ansiYellow, fmt.Sprintf("⚠ Potential secret(s) found: %d", rep.TotalSecretCount)))
	}

	dangerous := rep.DangerousFiles()
	if len(dangerous) > 0 {
		fmt.Fprintf(&b, "%s\n", style.paint(ansiYellow, "⚠ Dangerous pattern(s):"))
		for _, f := range dangerous {
			fmt.Fprintf(&b, "%s%s\n", style.paint(ansiGray, "  "+f.Path+": "), strings.Join(f.DangerousNames, ", "))
		}
	}

	if rep.TotalSecretCount == 0 && len(dangerous) == 0 {
		fmt.Fprintf(&b, "%s\n", style.paint(ansiGreen, "✓ No obvious secrets or dangerous patterns detected."))
	}

	if len(rep.Skipped) > 0 {
		fmt.Fprintf(&b, "%s\n", style.paint(ansiGray, fmt.Sprintf("Skipped %d unreadable path(s):", len(rep.Skipped))))
		for _, s := range rep.Skipped {
			fmt.Fprintf(&b, "%s\n", style.paint(ansiGray, "  "+s.Path+": "+s.Reason))
		}
	}

	b.WriteString("\n")

	_, err := io.WriteString(w, b.String())
	return err
}

// RenderJSON writes the report as indented JSON.
func RenderJSON(w io.Writer, rep Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(rep); err != nil {
		return fmt.Errorf("encode json: %w", err)
	}
	return nil
}
