// Standalone mock listing site for trying the CLI.
//
// Usage:
//
//	go run ./example/cmd/mockserver
//
// Then in another terminal:
//
//	go run ./cmd/listingwatch preview -c example/config.yaml --out ./previews
package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"golang.org/x/text/encoding/charmap"
)

var flats = []struct {
	id                                 int
	title, address, rooms, area, floor string
	series, m2Price, totalPrice        string
}{
	{101, "Renovēts dzīvoklis klusajā centrā", "Brīvības 88", "3", "82", "3/6", "Renov.", "2 317 €", "190 000 €"},
	{102, "Plašs dzīvoklis ar balkonu", "Tērbatas 14", "4", "110", "2/5", "P. kara", "1 909 €", "210 000 €"},
	{103, "Mājīgs studio", "Ģertrūdes 40", "1", "28", "5/5", "Renov.", "2 500 €", "70 000 €"},
}

func main() {
	fmt.Println("Mock listing site starting on :9999")
	fmt.Println("Flats: http://localhost:9999/lv/real-estate/flats/riga/centre/sell/")
	fmt.Println("Press Ctrl+C to stop")
	fmt.Println()

	http.HandleFunc("/lv/real-estate/flats/riga/centre/sell/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/lv/real-estate/flats/riga/centre/sell/" {
			http.NotFound(w, r)
			return
		}

		var b strings.Builder
		b.WriteString(`<html><head><meta charset="windows-1257"></head><body><table>`)
		for _, f := range flats {
			fmt.Fprintf(&b, `<tr id="tr_%d"><td></td>`+
				`<td><a href="/msg/%d.html"><img src="https://i.ss.com/gallery/%d.th2.jpg"></a></td>`+
				`<td><a href="/msg/%d.html">%s</a></td><td>%s</td>`+
				`<td>%s</td><td>%s</td><td>%s</td><td>%s</td><td>%s</td><td>%s</td></tr>`,
				f.id, f.id, f.id, f.id, f.title, f.address, f.rooms, f.area, f.floor, f.series, f.m2Price, f.totalPrice)
		}
		b.WriteString(`</table></body></html>`)

		page, err := charmap.Windows1257.NewEncoder().String(b.String())
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=windows-1257")
		_, _ = w.Write([]byte(page))
	})

	if err := http.ListenAndServe(":9999", nil); err != nil {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
}
