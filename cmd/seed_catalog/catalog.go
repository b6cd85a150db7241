package main

import (
	"encoding/xml"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

// seedNamespace hace que los IDs sean estables entre ejecuciones: el mismo SKU siempre
// produce el mismo UUID.
var seedNamespace = uuid.MustParse("6f1c2b1e-5f0a-4a35-9a52-3f1d8a2c7e10")

type catalog struct {
	Locations []catalogLocation `xml:"locations>location"`
	Items     []catalogItem     `xml:"items>item"`
}

type catalogLocation struct {
	Code        string `xml:"code,attr"`
	Name        string `xml:"name,attr"`
	Description string `xml:"description,attr"`
}

type catalogItem struct {
	SKU         string `xml:"sku,attr"`
	Name        string `xml:"name,attr"`
	Description string `xml:"description,attr"`
}

// parseCatalog decodifica el XML, descarta filas sin código o nombre y deduplica
// (sin distinguir mayúsculas; gana la última aparición). El resultado queda ordenado por código.
func parseCatalog(r io.Reader) (*catalog, error) {
	var raw catalog
	dec := xml.NewDecoder(r)
	dec.CharsetReader = func(charset string, input io.Reader) (io.Reader, error) {
		switch strings.ToUpper(charset) {
		case "ISO-8859-1", "ISO8859-1", "LATIN1":
			return transform.NewReader(input, charmap.ISO8859_1.NewDecoder()), nil
		case "WINDOWS-1252", "CP1252":
			return transform.NewReader(input, charmap.Windows1252.NewDecoder()), nil
		}
		return input, nil
	}
	if err := dec.Decode(&raw); err != nil {
		return nil, err
	}

	locs := make(map[string]catalogLocation)
	for _, l := range raw.Locations {
		l.Code = strings.ToUpper(strings.TrimSpace(l.Code))
		l.Name = strings.TrimSpace(l.Name)
		l.Description = strings.TrimSpace(l.Description)
		if l.Code == "" || l.Name == "" {
			continue
		}
		locs[l.Code] = l
	}
	items := make(map[string]catalogItem)
	for _, it := range raw.Items {
		it.SKU = strings.TrimSpace(it.SKU)
		it.Name = strings.TrimSpace(it.Name)
		it.Description = strings.TrimSpace(it.Description)
		if it.SKU == "" || it.Name == "" {
			continue
		}
		items[strings.ToLower(it.SKU)] = it
	}

	out := &catalog{}
	for _, l := range locs {
		out.Locations = append(out.Locations, l)
	}
	for _, it := range items {
		out.Items = append(out.Items, it)
	}
	sort.Slice(out.Locations, func(i, j int) bool { return out.Locations[i].Code < out.Locations[j].Code })
	sort.Slice(out.Items, func(i, j int) bool { return strings.ToLower(out.Items[i].SKU) < strings.ToLower(out.Items[j].SKU) })
	return out, nil
}

// writeSQL escribe INSERT ... ON CONFLICT para que el script sea re-ejecutable.
func writeSQL(w io.Writer, cat *catalog) error {
	var b strings.Builder
	b.WriteString("-- Catálogo de ubicaciones e ítems\n")
	b.WriteString("-- Generado por cmd/seed_catalog\n\n")

	if len(cat.Locations) > 0 {
		b.WriteString("-- 1. Ubicaciones\n")
		b.WriteString("INSERT INTO locations (id, code, name, description) VALUES\n")
		for i, l := range cat.Locations {
			fmt.Fprintf(&b, "  ('%s', '%s', '%s', '%s')%s\n",
				stableID("location", l.Code), escapeSQL(l.Code), escapeSQL(l.Name), escapeSQL(l.Description), sep(i, len(cat.Locations)))
		}
		b.WriteString("ON CONFLICT ((lower(code))) DO UPDATE SET name = EXCLUDED.name, description = EXCLUDED.description;\n\n")
	}

	if len(cat.Items) > 0 {
		b.WriteString("-- 2. Ítems\n")
		b.WriteString("INSERT INTO items (id, sku, name, description) VALUES\n")
		for i, it := range cat.Items {
			fmt.Fprintf(&b, "  ('%s', '%s', '%s', '%s')%s\n",
				stableID("item", it.SKU), escapeSQL(it.SKU), escapeSQL(it.Name), escapeSQL(it.Description), sep(i, len(cat.Items)))
		}
		b.WriteString("ON CONFLICT ((lower(sku))) DO UPDATE SET name = EXCLUDED.name, description = EXCLUDED.description;\n")
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func stableID(kind, code string) string {
	return uuid.NewSHA1(seedNamespace, []byte(kind+":"+strings.ToLower(code))).String()
}

func sep(i, n int) string {
	if i < n-1 {
		return ","
	}
	return ""
}

func escapeSQL(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}
