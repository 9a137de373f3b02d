// internal/pkg/email/templates.go
package email

// Inline templates keep the binary self contained; there is no
// template directory to ship or misplace in deployment.
const mailTemplates = `
{{define "layout_top"}}
<!DOCTYPE html>
<html>
<head><meta charset="UTF-8"><title>{{.SiteName}}</title></head>
<body style="font-family: Arial, sans-serif; margin: 0; padding: 20px; background-color: #f4f4f4;">
  <div style="max-width: 600px; margin: 0 auto; background-color: #ffffff; padding: 24px; border-radius: 8px;">
    <h1 style="color: #333333; font-size: 20px;">{{.SiteName}}</h1>
    <p>Hello {{.Customer}},</p>
{{end}}

{{define "layout_bottom"}}
    <p>Best regards,<br>The {{.SiteName}} Team</p>
  </div>
</body>
</html>
{{end}}

{{define "order_items"}}
    <table style="width: 100%; border-collapse: collapse; margin: 16px 0;">
      <tr style="text-align: left; border-bottom: 1px solid #dddddd;">
        <th style="padding: 8px 4px;">Item</th>
        <th style="padding: 8px 4px;">Qty</th>
        <th style="padding: 8px 4px;">Subtotal</th>
      </tr>
      {{range .Items}}
      <tr style="border-bottom: 1px solid #eeeeee;">
        <td style="padding: 8px 4px;">{{.Name}}{{if .Size}} ({{.Size}}){{end}}</td>
        <td style="padding: 8px 4px;">{{.Quantity}}</td>
        <td style="padding: 8px 4px;">{{.Subtotal}}</td>
      </tr>
      {{end}}
      <tr>
        <td style="padding: 8px 4px;" colspan="2"><strong>Total</strong></td>
        <td style="padding: 8px 4px;"><strong>{{.Amount}}</strong></td>
      </tr>
    </table>
{{end}}

{{define "order_confirmation"}}
{{template "layout_top" .}}
    <p>Thank you for your order! We have received order <strong>{{.OrderNumber}}</strong> and it is awaiting payment.</p>
{{template "order_items" .}}
    <p>Complete your payment to get it on its way.</p>
{{template "layout_bottom" .}}
{{end}}

{{define "payment_received"}}
{{template "layout_top" .}}
    <p>Your payment for order <strong>{{.OrderNumber}}</strong> has been received. We are getting it ready now.</p>
{{template "order_items" .}}
{{template "layout_bottom" .}}
{{end}}
`
