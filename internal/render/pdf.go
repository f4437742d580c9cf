package render

import (
	"context"
	"encoding/base64"
	"fmt"
	"html"
	"os"
	"strings"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/sahanw/valuerpro/internal/store"
)

type ChromiumPDFRenderer struct {
	chromePath string
}

func NewChromiumPDFRenderer() *ChromiumPDFRenderer {
	return &ChromiumPDFRenderer{chromePath: detectChromePath()}
}

// Render produces the A4 PDF for a valuation report.
func (r *ChromiumPDFRenderer) Render(ctx context.Context, report *store.Report) ([]byte, error) {
	htmlDoc, err := buildHTML(report)
	if err != nil {
		return nil, err
	}

	timeoutCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	opts := []chromedp.ExecAllocatorOption{
		chromedp.NoSandbox,
		chromedp.DisableGPU,
		chromedp.Flag("disable-dev-shm-usage", true),
	}
	if r.chromePath != "" {
		opts = append(opts, chromedp.ExecPath(r.chromePath))
	}
	allocCtx, allocCancel := chromedp.NewExecAllocator(timeoutCtx, append(chromedp.DefaultExecAllocatorOptions[:], opts...)...)
	defer allocCancel()

	taskCtx, taskCancel := chromedp.NewContext(allocCtx)
	defer taskCancel()

	var pdf []byte
	dataURL := "data:text/html;base64," + base64.StdEncoding.EncodeToString([]byte(htmlDoc))
	if err := chromedp.Run(taskCtx,
		chromedp.Navigate(dataURL),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.ActionFunc(func(ctx context.Context) error {
			footer := `<div style="width:100%;text-align:center;font-size:9px;color:#666;padding-right:8px;">` +
				`Page <span class="pageNumber"></span> of <span class="totalPages"></span></div>`
			out, _, err := page.PrintToPDF().
				WithPrintBackground(true).
				WithDisplayHeaderFooter(true).
				WithHeaderTemplate(`<div></div>`).
				WithFooterTemplate(footer).
				WithPaperWidth(8.27).
				WithPaperHeight(11.69).
				WithMarginTop(0.5).
				WithMarginBottom(0.75).
				WithMarginLeft(0.45).
				WithMarginRight(0.45).
				Do(ctx)
			if err != nil {
				return err
			}
			pdf = out
			return nil
		}),
	); err != nil {
		return nil, err
	}
	return pdf, nil
}

const reportCSS = `
body{font-family:Georgia,'Times New Roman',serif;color:#1c1917;font-size:11pt;line-height:1.45;margin:0;padding:0.6rem;}
h1{font-size:17pt;text-align:center;border-bottom:2px solid #1c1917;padding-bottom:0.4rem;}
h2{font-size:12.5pt;margin-top:1.2rem;border-bottom:1px solid #a8a29e;padding-bottom:0.15rem;break-after:avoid;}
table{width:100%;border-collapse:collapse;border:1px solid #a8a29e;font-size:9.5pt;margin:0.4rem 0;}
th,td{border:1px solid #a8a29e;padding:0.3rem 0.45rem;text-align:left;vertical-align:top;}
thead th{background:#f1f5f9;font-weight:700;}
ul{padding-left:1.2rem;}
strong{color:#1c1917;}
h2[data-page-break-before="true"]{break-before:page;page-break-before:always;}
html,body,*{-webkit-print-color-adjust:exact !important;print-color-adjust:exact !important;}
@media print{ @page{size:A4;margin:12mm;} body{padding:0;} }
`

func buildHTML(report *store.Report) (string, error) {
	var content strings.Builder
	md := goldmark.New(goldmark.WithExtensions(extension.GFM))
	if err := md.Convert([]byte(BuildMarkdown(report)), &content); err != nil {
		return "", fmt.Errorf("markdown convert: %w", err)
	}
	contentHTML := applyPrintLayoutHooks(content.String())

	title := "Valuation Report"
	if strings.TrimSpace(report.Reference) != "" {
		title += " " + report.Reference
	}
	return "<!doctype html><html><head><meta charset='utf-8'><title>" + html.EscapeString(title) + "</title>" +
		"<style>" + reportCSS + "</style></head><body>" +
		"<div class='report-html'>" + contentHTML + "</div>" +
		"</body></html>", nil
}

// applyPrintLayoutHooks starts the certificate on its own page so signatures
// never straddle a page break.
func applyPrintLayoutHooks(contentHTML string) string {
	return strings.Replace(contentHTML,
		"<h2>Valuer&#39;s Certificate</h2>",
		`<h2 data-page-break-before="true">Valuer&#39;s Certificate</h2>`, 1)
}

func detectChromePath() string {
	candidates := []string{
		"/usr/bin/chromium-browser",
		"/usr/bin/chromium",
		"/usr/bin/google-chrome",
	}
	for _, p := range candidates {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}
