package notify

import (
	"bytes"
	"fmt"
	"html/template"
	"math"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"github.com/jpalmerr/listingwatch/internal/listing"
)

// EmptyBody is the body rendered when there is nothing new to report.
const EmptyBody = "<p>No new listings found matching your criteria today.</p>"

var printer = message.NewPrinter(language.Latvian)

// formatEUR renders v as a Latvian-formatted euro amount, e.g. "1 234,56 €".
func formatEUR(v float64) string {
	if !listing.Known(v) {
		return "N/A"
	}
	return printer.Sprintf("%v €", number.Decimal(v, number.MinFractionDigits(2), number.MaxFractionDigits(2)))
}

func formatNumber(v float64) string {
	if !listing.Known(v) {
		return "N/A"
	}
	if v == math.Trunc(v) {
		return printer.Sprintf("%v", number.Decimal(v, number.MaxFractionDigits(0)))
	}
	return printer.Sprintf("%v", number.Decimal(v, number.MaxFractionDigits(2)))
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}

var bodyTemplate = template.Must(template.New("body").Funcs(template.FuncMap{
	"eur":   formatEUR,
	"num":   formatNumber,
	"orNA":  orNA,
	"known": listing.Known,
}).Parse(`<h1>New Real Estate Listings Summary</h1>
<p>{{with .MonitorName}}{{.}}: {{end}}Found {{len .Listings}} new listing(s) matching your criteria:</p>
<ul style="list-style: none; padding: 0; margin: 0;">
{{- range .Listings}}
<li style="margin-bottom: 30px; border-bottom: 1px solid #eee; padding-bottom: 20px; display: flex; align-items: flex-start;">
  <div class="image-column" style="flex: 0 0 220px; margin-right: 20px;">
  {{- if .ImageURL}}
    <img src="{{.ImageURL}}" alt="Listing image" style="width: 200px; max-width: 100%; height: auto; border: 1px solid #ddd; display: block;">
  {{- else}}
    <div style="width: 200px; height: 150px; background-color: #f0f0f0; border: 1px solid #ddd; color: #aaa;">No Image</div>
  {{- end}}
  </div>
  <div class="details-column" style="flex: 1 1 auto;">
    <h2 style="margin-top: 0; margin-bottom: 10px; font-size: 1.1em;">{{orNA .District}} - {{if .Address}}{{.Address}}{{else}}Address N/A{{end}}</h2>
    <p style="margin: 4px 0;"><strong>Price:</strong> {{eur .TotalPrice}}</p>
    {{- if known .M2Price}}
    <p style="margin: 4px 0;"><strong>Price per m²:</strong> {{eur .M2Price}}</p>
    {{- end}}
    <p style="margin: 4px 0;"><strong>Rooms:</strong> {{num .Rooms}}</p>
    <p style="margin: 4px 0;"><strong>Area:</strong> {{if known .Area}}{{num .Area}} m²{{else}}N/A{{end}}</p>
    <p style="margin: 4px 0;"><strong>Floor:</strong> {{orNA .Floor}}</p>
    {{- if known .LandArea}}
    <p style="margin: 4px 0;"><strong>Land area:</strong> {{num .LandArea}} m²</p>
    {{- end}}
    <p style="margin: 4px 0; font-size: 0.9em; color: #555;">Series: {{orNA .Series}}</p>
    <p style="margin-top: 15px;">
      <a href="{{if .Link}}{{.Link}}{{else}}#{{end}}" target="_blank" rel="noopener noreferrer" style="display: inline-block; padding: 10px 15px; background-color: #007bff; color: white; text-decoration: none; border-radius: 4px;">View Listing on ss.com</a>
    </p>
  </div>
</li>
{{- end}}
</ul>
`))

// Render builds the HTML summary for listings. An empty slice renders
// [EmptyBody].
func Render(listings []listing.Listing, monitorName string) (string, error) {
	if len(listings) == 0 {
		return EmptyBody, nil
	}

	var buf bytes.Buffer
	err := bodyTemplate.Execute(&buf, struct {
		MonitorName string
		Listings    []listing.Listing
	}{monitorName, listings})
	if err != nil {
		return "", fmt.Errorf("render notification: %w", err)
	}
	return buf.String(), nil
}

// Subject returns the message subject for n new listings.
func Subject(n int) string {
	return fmt.Sprintf("Daily Real Estate Alert - %d New Listings", n)
}
