// Package doc is the PDF reference-document backend: one page per group, a
// cross-linked table listing every member's name, kind, hex global id and
// description.
package doc

import (
	"fmt"
	"path/filepath"

	"github.com/phpdave11/gofpdf"

	"github.com/fvsolutions-common/odin/internal/backend"
	"github.com/fvsolutions-common/odin/internal/oderr"
	"github.com/fvsolutions-common/odin/internal/tree"
)

const (
	marginMM   = 15.0
	rowHeight  = 7.0
	titleSize  = 16.0
	headerSize = 11.0
	bodySize   = 9.0
)

// Generate writes a paginated PDF reference document for ctx's model to
// outDir/<name>.pdf.
func Generate(ctx *backend.Context, outDir, name, title string) error {
	if err := ctx.Validate(); err != nil {
		return err
	}
	if title == "" {
		title = name + " Object Dictionary Reference"
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(title, true)
	pdf.SetMargins(marginMM, marginMM, marginMM)

	links := make(map[*tree.Node]int)
	ctx.Walk(func(n *tree.Node) {
		if n.Kind == tree.KindGroup {
			links[n] = pdf.AddLink()
		}
	})

	renderGroup(pdf, ctx.Root(), links, title)

	path := filepath.Join(outDir, name+".pdf")
	if err := pdf.OutputFileAndClose(path); err != nil {
		return oderr.New(oderr.PipelineMisuse, path, "could not write PDF document: %v", err)
	}
	return nil
}

func renderGroup(pdf *gofpdf.Fpdf, n *tree.Node, links map[*tree.Node]int, title string) {
	pdf.AddPage()
	if link, ok := links[n]; ok {
		pdf.SetLink(link, 0, -1)
	}

	groupName := n.AbsolutePath
	if groupName == "" {
		groupName = title
	}
	pdf.SetFont("Helvetica", "B", titleSize)
	pdf.CellFormat(0, 10, groupName, "", 1, "L", false, 0, "")
	if n.Description != "" {
		pdf.SetFont("Helvetica", "I", bodySize)
		pdf.MultiCell(0, 5, n.Description, "", "L", false)
	}
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "B", headerSize)
	widths := []float64{50, 25, 35, 0}
	widths[3] = 180 - widths[0] - widths[1] - widths[2]
	headers := []string{"Name", "Kind", "Global ID", "Description"}
	for i, h := range headers {
		pdf.CellFormat(widths[i], rowHeight, h, "B", 0, "L", false, 0, "")
	}
	pdf.Ln(rowHeight)

	pdf.SetFont("Helvetica", "", bodySize)
	for _, c := range n.Children {
		row := []string{c.Name, string(c.Kind), fmt.Sprintf("0x%08X", c.GlobalID), c.Description}
		link := 0
		if l, ok := links[c]; ok {
			link = l
		}
		for i, v := range row {
			linkArg := 0
			if i == 0 && link != 0 {
				linkArg = link
			}
			pdf.CellFormat(widths[i], rowHeight, v, "B", 0, "L", false, linkArg, "")
		}
		pdf.Ln(rowHeight)
	}

	for _, c := range n.Children {
		if c.Kind == tree.KindGroup {
			renderGroup(pdf, c, links, title)
		}
	}
}
