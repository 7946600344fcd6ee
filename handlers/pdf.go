package handlers

import (
	"io"

	"github.com/jung-kurt/gofpdf"

	"fable_ai/story"
)

// writeTranscriptPDF lays the playthrough out as a simple one-column PDF:
// scenes in body type, the player's choices indented in italics.
func writeTranscriptPDF(w io.Writer, snap story.Snapshot) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle(tr(snap.Theme), true)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	title := snap.Theme
	if title == "" {
		title = "An adventure"
	}
	pdf.MultiCell(0, 8, tr(title), "", "L", false)
	pdf.Ln(4)

	for _, entry := range snap.Log {
		switch entry.Kind {
		case story.KindChoice:
			pdf.SetFont("Helvetica", "I", 11)
			pdf.SetX(pdf.GetX() + 8)
			pdf.MultiCell(0, 6, tr("> "+entry.Text), "", "L", false)
		default:
			pdf.SetFont("Times", "", 12)
			pdf.MultiCell(0, 6, tr(entry.Text), "", "L", false)
		}
		pdf.Ln(2)
	}

	if snap.Phase == story.PhaseGameOver && snap.Scene != nil {
		pdf.SetFont("Times", "", 12)
		pdf.MultiCell(0, 6, tr(snap.Scene.Description), "", "L", false)
		pdf.Ln(2)
		pdf.SetFont("Times", "B", 12)
		pdf.MultiCell(0, 6, tr(snap.Scene.GameOverMessage), "", "L", false)
	}

	return pdf.Output(w)
}
