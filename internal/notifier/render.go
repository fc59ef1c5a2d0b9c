package notifier

import (
	"bytes"
	"fmt"
	"text/template"
)

var orderPlacedTmpl = template.Must(template.New("placed").Parse(
	`Hi {{if .Name}}{{.Name}}{{else}}there{{end}},

Thank you for shopping with InkDesk. We have received your order {{.OrderNumber}}.

{{range .Items}}  {{.Quantity}} x {{.Name}} @ {{printf "%.2f" .Price}}
{{end}}
Subtotal: {{printf "%.2f" .Subtotal}}
Shipping: {{printf "%.2f" .Shipping}}
Tax:      {{printf "%.2f" .Tax}}
Total:    {{printf "%.2f" .Total}}

We will let you know when it ships.
`))

var orderCancelledTmpl = template.Must(template.New("cancelled").Parse(
	`Hi {{if .Name}}{{.Name}}{{else}}there{{end}},

Your order {{.OrderNumber}} has been cancelled.
{{range .Items}}  {{.Quantity}} x {{.Name}}
{{end}}
If you did not request this, reply to this email.
`))

type Content struct {
	Subject string
	Body    string
}

func RenderOrderPlaced(n Notification) (Content, error) {
	body, err := execute(orderPlacedTmpl, n)
	if err != nil {
		return Content{}, err
	}
	return Content{Subject: fmt.Sprintf("Order %s confirmed", n.OrderNumber), Body: body}, nil
}

func RenderOrderCancelled(n Notification) (Content, error) {
	body, err := execute(orderCancelledTmpl, n)
	if err != nil {
		return Content{}, err
	}
	return Content{Subject: fmt.Sprintf("Order %s cancelled", n.OrderNumber), Body: body}, nil
}

// Render picks the template for n.Kind.
func Render(n Notification) (Content, error) {
	switch n.Kind {
	case KindOrderPlaced:
		return RenderOrderPlaced(n)
	case KindOrderCancelled:
		return RenderOrderCancelled(n)
	}
	return Content{}, fmt.Errorf("unknown notification kind %q", n.Kind)
}

func execute(t *template.Template, n Notification) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, n); err != nil {
		return "", fmt.Errorf("render %s: %w", t.Name(), err)
	}
	return buf.String(), nil
}
