package notify

import (
	"bytes"
	"fmt"
	"html/template"
)

// Templates are compiled in so the binary carries no runtime file
// dependency.

const alertBody = `<html>
  <body style="font-family: Arial, sans-serif; padding: 20px; background-color: #f4f4f4;">
    <div style="max-width: 600px; margin: 0 auto; background-color: white; padding: 30px; border-radius: 10px;">
      <h1 style="color: #28a745; text-align: center;">Price Drop Alert!</h1>
      <div style="background-color: #f8f9fa; padding: 20px; border-radius: 8px; margin: 20px 0;">
        <h2 style="color: #333; margin-top: 0;">{{.ProductName}}</h2>
        <p style="font-size: 16px; color: #666; margin: 5px 0;">
          <strong>Current Price:</strong>
          <span style="color: #28a745; font-size: 24px; font-weight: bold;">₹{{.CurrentPrice | inr}}</span>
        </p>
        <p style="font-size: 16px; color: #666; margin: 5px 0;"><strong>Your Target:</strong> ₹{{.TargetPrice | inr}}</p>
        <p style="font-size: 16px; color: #28a745; margin: 5px 0;"><strong>You Save:</strong> ₹{{.Savings | inr}}</p>
      </div>
      <div style="text-align: center; margin: 30px 0;">
        <a href="{{.ProductURL}}" style="background-color: #28a745; color: white; padding: 15px 40px; text-decoration: none; border-radius: 8px; font-size: 18px; display: inline-block;">View Product Now</a>
      </div>
      <p style="color: #999; font-size: 12px; text-align: center; margin-top: 30px;">This is an automated alert from PricePulse</p>
    </div>
  </body>
</html>`

const digestBody = `<html>
  <body style="font-family: Arial, sans-serif; padding: 20px; background-color: #f4f4f4;">
    <div style="max-width: 600px; margin: 0 auto; background-color: white; padding: 30px; border-radius: 10px;">
      <h1 style="color: #667eea; text-align: center;">Your Weekly Price Summary</h1>
      <p style="text-align: center; color: #666;">Here's what happened with your tracked products this week</p>
      {{range .Items}}
      <div style="background-color: #f8f9fa; padding: 15px; margin: 10px 0; border-radius: 8px;">
        <h3 style="margin: 0 0 10px 0; color: #333;">{{.Name}}</h3>
        <p style="margin: 5px 0;">Current Price: <strong>₹{{.CurrentPrice | inr}}</strong></p>
        <p style="margin: 5px 0;">Lowest This Week: <strong style="color: #28a745;">₹{{.LowestPrice | inr}}</strong></p>
        <a href="{{.URL}}" style="color: #667eea; text-decoration: none;">View Product</a>
      </div>
      {{end}}
      <p style="color: #999; font-size: 12px; text-align: center; margin-top: 30px;">PricePulse - Weekly Summary</p>
    </div>
  </body>
</html>`

var funcs = template.FuncMap{
	"inr": func(v float64) string { return fmt.Sprintf("%.2f", v) },
}

var (
	alertTmpl  = template.Must(template.New("alert").Funcs(funcs).Parse(alertBody))
	digestTmpl = template.Must(template.New("digest").Funcs(funcs).Parse(digestBody))
)

type PriceAlert struct {
	ProductName  string
	CurrentPrice float64
	TargetPrice  float64
	Savings      float64
	ProductURL   string
}

// RenderPriceAlert builds the subject and HTML body of a price-drop email.
func RenderPriceAlert(a PriceAlert) (subject, body string, err error) {
	a.Savings = a.TargetPrice - a.CurrentPrice
	var buf bytes.Buffer
	if err := alertTmpl.Execute(&buf, a); err != nil {
		return "", "", fmt.Errorf("render price alert: %w", err)
	}
	return "Price Drop Alert: " + a.ProductName, buf.String(), nil
}

type DigestItem struct {
	Name         string
	CurrentPrice float64
	LowestPrice  float64
	URL          string
}

// RenderWeeklySummary builds the weekly digest email.
func RenderWeeklySummary(items []DigestItem) (subject, body string, err error) {
	var buf bytes.Buffer
	if err := digestTmpl.Execute(&buf, struct{ Items []DigestItem }{items}); err != nil {
		return "", "", fmt.Errorf("render weekly summary: %w", err)
	}
	return "Weekly Price Summary", buf.String(), nil
}
