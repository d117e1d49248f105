package service

import (
	"bytes"
	"fmt"
	"html"
	"regexp"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-pdf/fpdf"

	"github.com/simulai/simulai/internal/domain"
)

const (
	contentTypePDF = "application/pdf"
	contentTypeDoc = "application/msword"
)

var (
	htmlTagRe   = regexp.MustCompile(`<[a-zA-Z][^>]*>`)
	blankLineRe = regexp.MustCompile(`\n{3,}`)
	slugRe      = regexp.MustCompile(`[^a-z0-9]+`)
)

func isHTML(content string) bool {
	return htmlTagRe.MatchString(content)
}

// htmlToText flattens HTML to text, keeping block elements on their own lines
func htmlToText(content string) string {
	if !isHTML(content) {
		return strings.TrimSpace(content)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(content))
	if err != nil {
		return strings.TrimSpace(htmlTagRe.ReplaceAllString(content, ""))
	}
	doc.Find("script, style").Remove()
	doc.Find("br").ReplaceWithHtml("\n")
	doc.Find("li").Each(func(_ int, s *goquery.Selection) {
		s.PrependHtml("- ")
	})
	doc.Find("p, div, li, tr, h1, h2, h3, h4, h5, h6").Each(func(_ int, s *goquery.Selection) {
		s.AppendHtml("\n")
	})

	text := strings.ReplaceAll(doc.Text(), "\r\n", "\n")
	lines := strings.Split(text, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSpace(l)
	}
	text = blankLineRe.ReplaceAllString(strings.Join(lines, "\n"), "\n\n")
	return strings.TrimSpace(text)
}

func exportFilename(report *domain.Report, ext string) string {
	slug := strings.Trim(slugRe.ReplaceAllString(strings.ToLower(report.Title), "-"), "-")
	if slug == "" {
		slug = "report-" + report.ID
	}
	return slug + "." + ext
}

func sortedScores(scores domain.AspectScores) []string {
	names := make([]string, 0, len(scores))
	for k := range scores {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

func exportPDF(report *domain.Report) (*domain.ExportedFile, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle(report.Title, true)
	pdf.SetMargins(20, 20, 20)
	pdf.SetAutoPageBreak(true, 20)
	pdf.SetFooterFunc(func() {
		pdf.SetY(-15)
		pdf.SetFont("Helvetica", "I", 8)
		pdf.CellFormat(0, 10, fmt.Sprintf("%d", pdf.PageNo()), "", 0, "C", false, 0, "")
	})
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.MultiCell(0, 8, tr(report.Title), "", "L", false)
	pdf.SetFont("Helvetica", "", 9)
	pdf.SetTextColor(110, 110, 110)
	pdf.CellFormat(0, 6, tr(fmt.Sprintf("Generated %s by %s", report.CreatedAt.UTC().Format("2006-01-02 15:04 MST"), report.Assistant)), "", 1, "L", false, 0, "")
	pdf.SetTextColor(0, 0, 0)
	pdf.Ln(4)

	if len(report.Scores) > 0 {
		pdf.SetFont("Helvetica", "B", 11)
		pdf.SetFillColor(235, 238, 245)
		pdf.CellFormat(120, 7, "Aspect", "1", 0, "L", true, 0, "")
		pdf.CellFormat(30, 7, "Score", "1", 1, "C", true, 0, "")
		pdf.SetFont("Helvetica", "", 11)
		for _, name := range sortedScores(report.Scores) {
			pdf.CellFormat(120, 7, tr(name), "1", 0, "L", false, 0, "")
			pdf.CellFormat(30, 7, fmt.Sprintf("%d", report.Scores[name]), "1", 1, "C", false, 0, "")
		}
		pdf.Ln(6)
	}

	pdf.SetFont("Helvetica", "", 11)
	for _, paragraph := range strings.Split(htmlToText(report.Content), "\n") {
		if paragraph == "" {
			pdf.Ln(3)
			continue
		}
		pdf.MultiCell(0, 5.5, tr(paragraph), "", "L", false)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to render PDF: %w", err)
	}
	return &domain.ExportedFile{
		Filename:    exportFilename(report, "pdf"),
		ContentType: contentTypePDF,
		Content:     buf.Bytes(),
	}, nil
}

// exportDoc writes an HTML document Word opens as a .doc
func exportDoc(report *domain.Report) *domain.ExportedFile {
	var b strings.Builder
	b.WriteString(`<html xmlns:o="urn:schemas-microsoft-com:office:office" xmlns:w="urn:schemas-microsoft-com:office:word" xmlns="http://www.w3.org/TR/REC-html40">`)
	b.WriteString("<head><meta charset=\"utf-8\"><title>")
	b.WriteString(html.EscapeString(report.Title))
	b.WriteString("</title><style>body{font-family:Calibri,Arial,sans-serif;font-size:11pt}table{border-collapse:collapse}td,th{border:1px solid #999;padding:4px 8px}</style></head><body>")
	fmt.Fprintf(&b, "<h1>%s</h1>", html.EscapeString(report.Title))

	if len(report.Scores) > 0 {
		b.WriteString("<table><tr><th>Aspect</th><th>Score</th></tr>")
		for _, name := range sortedScores(report.Scores) {
			fmt.Fprintf(&b, "<tr><td>%s</td><td>%d</td></tr>", html.EscapeString(name), report.Scores[name])
		}
		b.WriteString("</table>")
	}

	b.WriteString(docBody(report.Content))
	b.WriteString("</body></html>")

	return &domain.ExportedFile{
		Filename:    exportFilename(report, "doc"),
		ContentType: contentTypeDoc,
		Content:     []byte(b.String()),
	}
}

func docBody(content string) string {
	if isHTML(content) {
		doc, err := goquery.NewDocumentFromReader(strings.NewReader(content))
		if err == nil {
			doc.Find("script, style").Remove()
			if body, err := doc.Find("body").Html(); err == nil {
				return body
			}
		}
	}

	var b strings.Builder
	for _, paragraph := range strings.Split(strings.TrimSpace(content), "\n\n") {
		lines := strings.Split(strings.TrimSpace(paragraph), "\n")
		for i, l := range lines {
			lines[i] = html.EscapeString(l)
		}
		fmt.Fprintf(&b, "<p>%s</p>", strings.Join(lines, "<br>"))
	}
	return b.String()
}
