package email

import (
	htmltemplate "html/template"
	texttemplate "text/template"
)

type receiptData struct {
	Name       string
	OrderID    uint
	Total      string
	PaymentRef string
	ReceiptURL string
	Address    string
	Lines      []receiptLine
}

type receiptLine struct {
	Name      string
	Quantity  int
	UnitPrice string
	LineTotal string
}

var textTemplates = texttemplate.Must(texttemplate.New("").Parse(`
{{define "receipt"}}Hello {{.Name}},

Thank you for shopping with Agromart. Payment for order #{{.OrderID}} is confirmed.
{{range .Lines}}
  {{.Name}} x {{.Quantity}} @ {{.UnitPrice}} = {{.LineTotal}}{{end}}

Total paid: {{.Total}}
Payment reference: {{.PaymentRef}}
Shipping to: {{.Address}}

View your receipt: {{.ReceiptURL}}
{{end}}
{{define "contact"}}Name: {{.Name}}
Email: {{.Email}}
Phone: {{.Phone}}

{{.Comment}}
{{end}}`))

var htmlTemplates = htmltemplate.Must(htmltemplate.New("").Parse(`
{{define "receipt"}}<html><body style="font-family: sans-serif;">
<h2>Payment received</h2>
<p>Hello {{.Name}},</p>
<p>Thank you for shopping with Agromart. Payment for order <strong>#{{.OrderID}}</strong> is confirmed.</p>
<table cellpadding="4">
<tr><th align="left">Item</th><th>Qty</th><th align="right">Price</th><th align="right">Total</th></tr>
{{range .Lines}}<tr><td>{{.Name}}</td><td align="center">{{.Quantity}}</td><td align="right">{{.UnitPrice}}</td><td align="right">{{.LineTotal}}</td></tr>
{{end}}</table>
<p><strong>Total paid:</strong> {{.Total}}<br>
<strong>Payment reference:</strong> {{.PaymentRef}}<br>
<strong>Shipping to:</strong> {{.Address}}</p>
<p><a href="{{.ReceiptURL}}">View your receipt</a></p>
</body></html>{{end}}
{{define "contact"}}<html><body style="font-family: sans-serif;">
<p><strong>Name:</strong> {{.Name}}<br>
<strong>Email:</strong> {{.Email}}<br>
<strong>Phone:</strong> {{.Phone}}</p>
<p>{{.Comment}}</p>
</body></html>{{end}}`))
