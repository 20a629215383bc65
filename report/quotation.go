package report

import (
	"bytes"
	"context"
	"fmt"
	"html/template"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/sourcedesk/sourcedesk/internal/quotation"
)

// QuotationRenderer turns a priced quotation snapshot into a PDF through
// Gotenberg. The snapshot handed in here is guaranteed consistent by the
// quotation service: totals always match the item set at render time.
type QuotationRenderer struct {
	client *Client
	tmpl   *template.Template
}

// NewQuotationRenderer parses the document template.
func NewQuotationRenderer(client *Client) (*QuotationRenderer, error) {
	printer := message.NewPrinter(language.Spanish)
	funcs := template.FuncMap{
		"money": func(v float64) string {
			return printer.Sprintf("%.2f", v)
		},
		"pct": func(v float64) string {
			return fmt.Sprintf("%.1f%%", v)
		},
	}
	tmpl, err := template.New("quotation").Funcs(funcs).Parse(quotationTemplate)
	if err != nil {
		return nil, fmt.Errorf("report: parse quotation template: %w", err)
	}
	return &QuotationRenderer{client: client, tmpl: tmpl}, nil
}

type quotationView struct {
	Quotation *quotation.Quotation
	Breakdown quotation.Breakdown
}

// Render implements quotation.DocumentExporter.
func (r *QuotationRenderer) Render(ctx context.Context, q *quotation.Quotation, b quotation.Breakdown) ([]byte, error) {
	var buf bytes.Buffer
	if err := r.tmpl.Execute(&buf, quotationView{Quotation: q, Breakdown: b}); err != nil {
		return nil, fmt.Errorf("report: render quotation %s: %w", q.Number, err)
	}
	return r.client.RenderHTML(ctx, buf.String())
}

const quotationTemplate = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<style>
body { font-family: Helvetica, Arial, sans-serif; font-size: 12px; color: #1a1a1a; margin: 32px; }
h1 { font-size: 20px; margin-bottom: 0; }
.meta { color: #555; margin-bottom: 24px; }
table { width: 100%; border-collapse: collapse; margin-bottom: 24px; }
th { text-align: left; border-bottom: 2px solid #333; padding: 6px 8px; }
td { border-bottom: 1px solid #ddd; padding: 6px 8px; }
td.num, th.num { text-align: right; }
.totals td { border: none; padding: 3px 8px; }
.totals .label { text-align: right; color: #555; }
.totals .grand { font-weight: bold; border-top: 2px solid #333; }
.notes { white-space: pre-wrap; color: #444; }
</style>
</head>
<body>
<h1>Quotation {{.Quotation.Number}}</h1>
<p class="meta">
Status: {{.Quotation.Status}} &middot; Incoterm: {{.Quotation.Incoterm}} &middot; Currency: {{.Quotation.Currency}}
{{if .Quotation.ValidUntil}} &middot; Valid until {{.Quotation.ValidUntil.Format "2006-01-02"}}{{end}}
</p>

<table>
<thead>
<tr>
<th>#</th><th>Product</th><th>SKU</th><th class="num">Qty</th><th>UoM</th
><th class="num">Unit Price</th><th class="num">Tariff</th><th class="num">Freight</th><th class="num">Line Total</th>
</tr>
</thead>
<tbody>
{{range .Quotation.Items}}
<tr>
<td>{{.SortOrder}}</td>
<td>{{.ProductName}}{{if .Description}}<br><small>{{.Description}}</small>{{end}}</td>
<td>{{if .SKU}}{{.SKU}}{{end}}</td>
<td class="num">{{.Quantity}}</td>
<td>{{.UnitOfMeasure}}</td>
<td class="num">{{money .UnitPrice}}</td>
<td class="num">{{money .TariffAmount}}</td>
<td class="num">{{money .FreightAmount}}</td>
<td class="num">{{money .LineTotal}}</td>
</tr>
{{end}}
</tbody>
</table>

<table class="totals">
<tr><td class="label">Subtotal FOB (USD)</td><td class="num">{{money .Breakdown.SubtotalFOBUSD}}</td></tr>
<tr><td class="label">Tariffs (USD)</td><td class="num">{{money .Breakdown.TariffTotalUSD}}</td></tr>
<tr><td class="label">International freight (USD)</td><td class="num">{{money .Breakdown.FreightIntlUSD}}</td></tr>
<tr><td class="label">Insurance (USD)</td><td class="num">{{money .Breakdown.InsuranceUSD}}</td></tr>
<tr><td class="label">Inspection (USD)</td><td class="num">{{money .Breakdown.InspectionUSD}}</td></tr>
<tr><td class="label">Subtotal (USD)</td><td class="num">{{money .Breakdown.SubtotalUSD}}</td></tr>
<tr><td class="label">Exchange rate</td><td class="num">{{money .Breakdown.ExchangeRate}}</td></tr>
<tr><td class="label">National freight &amp; other (COP)</td><td class="num">{{money .Breakdown.FreightNationalLocal}}</td></tr>
<tr><td class="label">Nationalization (COP)</td><td class="num">{{money .Breakdown.NationalizationLocal}}</td></tr>
<tr><td class="label">Margin ({{pct .Breakdown.MarginPercent}})</td><td class="num">{{money .Breakdown.MarginLocal}}</td></tr>
<tr><td class="label">Total (COP)</td><td class="num">{{money .Breakdown.TotalLocal}}</td></tr>
{{if gt .Quotation.DiscountPercent 0.0}}
<tr><td class="label">Discount ({{pct .Quotation.DiscountPercent}})</td><td class="num">-{{money .Quotation.DiscountAmount}}</td></tr>
{{end}}
<tr class="grand"><td class="label grand">Grand Total (COP)</td><td class="num grand">{{money .Quotation.GrandTotal}}</td></tr>
</table>

{{if .Quotation.Notes}}<p class="notes">{{.Quotation.Notes}}</p>{{end}}
{{if .Quotation.Terms}}<p class="notes">{{.Quotation.Terms}}</p>{{end}}
</body>
</html>`
