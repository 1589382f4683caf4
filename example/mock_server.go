package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/text/encoding/charmap"
)

// mockListing is one row served by the mock listing site.
type mockListing struct {
	id                          int
	description, address        string
	rooms, area, floor, series  string
	m2Price, totalPrice, landM2 string
}

// StartMockListingServer serves ss.com style listing tables on addr.
//
//	/flats/          flat layout, two pages (/flats/page2.html)
//	/houses/{slug}/  house layout, one page per district slug
//
// Pages are windows-1257 encoded like the real site. A new flat appears at
// the top of page one every 20 seconds, so repeated runs report it once.
// Call this in a goroutine before running monitors against it.
func StartMockListingServer(addr string) {
	var (
		mu    sync.Mutex
		flats = []mockListing{
			{id: 101, description: "Renovēts dzīvoklis klusajā centrā", address: "Brīvības 88", rooms: "3", area: "82", floor: "3/6", series: "Renov.", m2Price: "2 317 €", totalPrice: "190 000 €"},
			{id: 102, description: "Plašs dzīvoklis ar balkonu", address: "Tērbatas 14", rooms: "4", area: "110", floor: "2/5", series: "P. kara", m2Price: "1 909 €", totalPrice: "210 000 €"},
			{id: 103, description: "Mājīgs studio", address: "Ģertrūdes 40", rooms: "1", area: "28", floor: "5/5", series: "Renov.", m2Price: "2 500 €", totalPrice: "70 000 €"},
			{id: 104, description: "Dzīvoklis jaunajā projektā", address: "Skanstes 29", rooms: "2", area: "61", floor: "9/12", series: "Jaun.", m2Price: "3 115 €", totalPrice: "190 000 €"},
		}
		houses = map[string][]mockListing{
			"agenskalns": {
				{id: 201, description: "Koka māja ar dārzu", address: "Kalnciema 120", area: "180", floor: "2", rooms: "6", landM2: "900 m²", totalPrice: "320 000 €"},
			},
			"mezaparks": {
				{id: 301, description: "Vēsturiska villa", address: "Hamburgas 7", area: "420", floor: "3", rooms: "9", landM2: "1 800 m²", totalPrice: "1 150 000 €"},
				{id: 302, description: "Māja pie ezera", address: "Ezermalas 3", area: "150", floor: "2", rooms: "5", landM2: "-", totalPrice: "410 000 €"},
			},
		}
		nextID = 105
	)

	go func() {
		for range time.Tick(20 * time.Second) {
			mu.Lock()
			l := mockListing{
				id: nextID, description: fmt.Sprintf("Jauns sludinājums #%d", nextID), address: "Elizabetes 21",
				rooms: "3", area: "75", floor: "4/6", series: "Renov.", m2Price: "2 400 €", totalPrice: "180 000 €",
			}
			flats = append([]mockListing{l}, flats...)
			nextID++
			mu.Unlock()
			slog.Info("mock listing published", "id", l.id)
		}
	}()

	mux := http.NewServeMux()
	mux.HandleFunc("/flats/", func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		rows := append([]mockListing(nil), flats...)
		mu.Unlock()

		switch r.URL.Path {
		case "/flats/":
			rows = rows[:len(rows)/2]
		case "/flats/page2.html":
			rows = rows[len(rows)/2:]
		default:
			http.NotFound(w, r)
			return
		}
		writePage(w, flatTable(rows))
	})
	mux.HandleFunc("/houses/{slug}/", func(w http.ResponseWriter, r *http.Request) {
		slug := r.PathValue("slug")
		rows, ok := houses[slug]
		if !ok || r.URL.Path != "/houses/"+slug+"/" {
			http.NotFound(w, r)
			return
		}
		writePage(w, houseTable(rows))
	})

	if err := http.ListenAndServe(addr, mux); err != nil {
		slog.Error("mock server error", "error", err)
	}
}

func flatTable(rows []mockListing) string {
	var b strings.Builder
	b.WriteString(`<table><tr id="head_line"><td>Sludinājumi</td></tr>`)
	for _, l := range rows {
		fmt.Fprintf(&b, `<tr id="tr_%d"><td></td>`+
			`<td><a href="/msg/lv/real-estate/flats/riga/centre/%d.html"><img src="https://i.ss.com/gallery/%d.th2.jpg"></a></td>`+
			`<td><a href="/msg/lv/real-estate/flats/riga/centre/%d.html">%s</a></td>`+
			`<td>%s</td><td>%s</td><td>%s</td><td>%s</td><td>%s</td><td>%s</td><td>%s</td></tr>`,
			l.id, l.id, l.id, l.id, l.description,
			l.address, l.rooms, l.area, l.floor, l.series, l.m2Price, l.totalPrice)
	}
	b.WriteString(`</table>`)
	return b.String()
}

func houseTable(rows []mockListing) string {
	var b strings.Builder
	b.WriteString(`<table><tr id="head_line"><td>Sludinājumi</td></tr>`)
	for _, l := range rows {
		fmt.Fprintf(&b, `<tr id="tr_%d"><td></td>`+
			`<td><a href="/msg/lv/real-estate/homes-summer-residences/%d.html"><img src="https://i.ss.com/gallery/%d.th2.jpg"></a></td>`+
			`<td><a href="/msg/lv/real-estate/homes-summer-residences/%d.html">%s</a></td>`+
			`<td>%s</td><td>%s</td><td>%s</td><td>%s</td><td>%s</td><td>%s</td></tr>`,
			l.id, l.id, l.id, l.id, l.description,
			l.address, l.area, l.floor, l.rooms, l.landM2, l.totalPrice)
	}
	b.WriteString(`</table>`)
	return b.String()
}

// writePage encodes body as windows-1257.
func writePage(w http.ResponseWriter, table string) {
	page := `<html><head><meta http-equiv="Content-Type" content="text/html; charset=windows-1257"></head><body>` +
		table + `</body></html>`

	encoded, err := charmap.Windows1257.NewEncoder().String(page)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=windows-1257")
	_, _ = w.Write([]byte(encoded))
}
