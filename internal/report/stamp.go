package report

import (
	"bytes"
	"fmt"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

// footerDesc centres the footer 22pt (about 8mm) above the bottom edge.
const footerDesc = "fontname:Helvetica, points:8, position:bc, offset:0 22, scalefactor:1 abs, rotation:0, fillcolor:#646464"

func pdfConfig() *model.Configuration {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return conf
}

// stampFooters is the final pass over a finished document: every page gets
// "Page X of N", which needs the total page count.
func stampFooters(doc []byte) ([]byte, error) {
	wm, err := api.TextWatermark("Page %p of %P", footerDesc, true, false, types.POINTS)
	if err != nil {
		return nil, fmt.Errorf("report: footer stamp: %w", err)
	}
	var out bytes.Buffer
	if err := api.AddWatermarks(bytes.NewReader(doc), &out, nil, wm, pdfConfig()); err != nil {
		return nil, fmt.Errorf("report: apply footer: %w", err)
	}
	return out.Bytes(), nil
}

// PageCount returns the number of pages of a PDF document.
func PageCount(doc []byte) (int, error) {
	n, err := api.PageCount(bytes.NewReader(doc), pdfConfig())
	if err != nil {
		return 0, fmt.Errorf("report: page count: %w", err)
	}
	return n, nil
}
