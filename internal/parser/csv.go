package parser

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/dgallion1/bookplay/internal/doctree"
)

// CSVParser handles CSV exports. When the header names a title column and
// a text column, each row is one chapter. Any other table is rendered as
// "header: value" lines in batches of csvBatchRows rows.
type CSVParser struct{}

const csvBatchRows = 20

var (
	csvTitleColumns = []string{"title", "chapter", "name", "название", "глава", "заголовок"}
	csvTextColumns  = []string{"text", "body", "content", "текст", "содержание"}
)

func (p *CSVParser) Parse(r io.Reader, filename string) (*doctree.DocTree, error) {
	reader := csv.NewReader(r)
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}

	tree := &doctree.DocTree{Title: baseTitle(filename)}
	if len(records) == 0 {
		return tree, nil
	}

	headers := records[0]
	rows := records[1:]
	titleCol, textCol := csvColumn(headers, csvTitleColumns), csvColumn(headers, csvTextColumns)
	if textCol >= 0 {
		tree.Children = csvChapters(rows, titleCol, textCol)
		return tree, nil
	}

	for i := 0; i < len(rows); i += csvBatchRows {
		end := min(i+csvBatchRows, len(rows))
		var lines []string
		for _, row := range rows[i:end] {
			lines = append(lines, csvLine(headers, row))
		}
		tree.Children = append(tree.Children, &doctree.DocNode{
			Title: fmt.Sprintf("Rows %d-%d", i+2, end+1), // 1-indexed, skip header
			Text:  strings.Join(lines, "\n"),
		})
	}
	return tree, nil
}

func csvColumn(headers []string, names []string) int {
	for i, h := range headers {
		h = strings.ToLower(strings.TrimSpace(h))
		for _, name := range names {
			if h == name {
				return i
			}
		}
	}
	return -1
}

func csvChapters(rows [][]string, titleCol, textCol int) []*doctree.DocNode {
	var nodes []*doctree.DocNode
	for _, row := range rows {
		if textCol >= len(row) {
			continue
		}
		text := strings.TrimSpace(row[textCol])
		if text == "" {
			continue
		}
		node := &doctree.DocNode{Text: text}
		if titleCol >= 0 && titleCol < len(row) {
			node.Title = strings.TrimSpace(row[titleCol])
		}
		nodes = append(nodes, node)
	}
	return nodes
}

func csvLine(headers, row []string) string {
	cells := make([]string, 0, len(row))
	for j, cell := range row {
		if j < len(headers) {
			cells = append(cells, headers[j]+": "+cell)
		} else {
			cells = append(cells, cell)
		}
	}
	return strings.Join(cells, ", ")
}
