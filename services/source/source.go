// Package sourcesvc extracts the text of the documents courses are generated from.
package sourcesvc

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/go-shiori/go-readability"
	"github.com/ledongthuc/pdf"
	"github.com/pkg/errors"
	"github.com/xuri/excelize/v2"
)

// ReadFile returns the text of the document at path, picking the parser from its extension.
// PDF pages and spreadsheet sheets are delimited by "--- Page N ---" / "--- Sheet: NAME ---" lines,
// HTML is reduced to its main article and rendered as Markdown. Anything else is read as plain text.
func ReadFile(path string) (string, error) {
	var text string
	var err error

	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		text, err = readPDF(path)
	case ".xlsx", ".xlsm":
		text, err = readSpreadsheet(path)
	case ".html", ".htm":
		text, err = readHTML(path)
	default:
		var data []byte
		data, err = os.ReadFile(path)
		text = string(data)
	}
	if err != nil {
		return "", errors.Wrapf(err, "reading %s", filepath.Base(path))
	}
	return cleanText(text), nil
}

func readPDF(path string) (string, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	var sb strings.Builder
	for i := 1; i <= r.NumPage(); i++ {
		p := r.Page(i)
		if p.V.IsNull() {
			continue
		}
		text, err := p.GetPlainText(nil)
		if err != nil {
			return "", errors.Wrapf(err, "page %d", i)
		}
		fmt.Fprintf(&sb, "--- Page %d ---\n%s\n\n", i, cleanText(text))
	}
	return sb.String(), nil
}

func readSpreadsheet(path string) (string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	var sb strings.Builder
	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet)
		if err != nil {
			return "", errors.Wrapf(err, "sheet %s", sheet)
		}
		if len(rows) == 0 {
			continue
		}
		fmt.Fprintf(&sb, "--- Sheet: %s ---\n%s\n", sheet, rowsToMarkdown(rows))
	}
	return sb.String(), nil
}

// rowsToMarkdown renders rows as a Markdown table, the first row being the header.
func rowsToMarkdown(rows [][]string) string {
	cols := 0
	for _, row := range rows {
		if len(row) > cols {
			cols = len(row)
		}
	}

	var sb strings.Builder
	writeRow := func(row []string) {
		cells := make([]string, cols)
		for i, cell := range row {
			cell = strings.ReplaceAll(cell, "|", "\\|")
			cells[i] = strings.ReplaceAll(cell, "\n", " ")
		}
		sb.WriteString("| " + strings.Join(cells, " | ") + " |\n")
	}

	writeRow(rows[0])
	sb.WriteString("|" + strings.Repeat(" --- |", cols) + "\n")
	for _, row := range rows[1:] {
		writeRow(row)
	}
	return sb.String()
}

func readHTML(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	content, title := "", ""
	article, err := readability.FromReader(f, &url.URL{Scheme: "file", Path: path})
	if err == nil {
		content, title = article.Content, article.Title
	}
	if strings.TrimSpace(content) == "" {
		// not an article: convert the whole page
		data, err := os.ReadFile(path)
		if err != nil {
			return "", err
		}
		content = string(data)
	}

	converter := md.NewConverter("", true, nil)
	markdown, err := converter.ConvertString(content)
	if err != nil {
		return "", errors.Wrap(err, "converting to markdown")
	}
	if title != "" && !strings.Contains(markdown, title) {
		markdown = "# " + title + "\n\n" + markdown
	}
	return markdown, nil
}

func cleanText(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\x00", "")
	return strings.TrimSpace(text)
}
