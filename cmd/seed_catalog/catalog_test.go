package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"
)

const sampleXML = `<?xml version="1.0" encoding="ISO-8859-1"?>
<catalog>
  <locations>
    <location code="b" name="Bodega Norte"/>
    <location code="A" name="Almacén Central" description="Piso 1"/>
    <location code="" name="sin código"/>
  </locations>
  <items>
    <item sku="W-1" name="Tornillo 1/2'" description="Caja x100"/>
    <item sku="w-1" name="Tornillo duplicado"/>
    <item sku="P-9" name="Pintura"/>
  </items>
</catalog>`

func latin1(t *testing.T, s string) []byte {
	t.Helper()
	out, err := charmap.ISO8859_1.NewEncoder().String(s)
	require.NoError(t, err)
	return []byte(out)
}

func TestParseCatalog_ISO88591(t *testing.T) {
	cat, err := parseCatalog(bytes.NewReader(latin1(t, sampleXML)))
	require.NoError(t, err)

	require.Len(t, cat.Locations, 2)
	assert.Equal(t, "A", cat.Locations[0].Code)
	assert.Equal(t, "Almacén Central", cat.Locations[0].Name)
	assert.Equal(t, "B", cat.Locations[1].Code)

	require.Len(t, cat.Items, 2)
	assert.Equal(t, "P-9", cat.Items[0].SKU)
	assert.Equal(t, "Tornillo duplicado", cat.Items[1].Name, "gana la última aparición")
}

func TestWriteSQL(t *testing.T) {
	cat, err := parseCatalog(strings.NewReader(strings.Replace(sampleXML, "ISO-8859-1", "UTF-8", 1)))
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, writeSQL(&buf, cat))
	sql := buf.String()

	assert.Contains(t, sql, "INSERT INTO locations (id, code, name, description) VALUES")
	assert.Contains(t, sql, "ON CONFLICT ((lower(sku)))")
	assert.Contains(t, sql, stableID("item", "W-1"))
	assert.Equal(t, stableID("item", "W-1"), stableID("item", "w-1"))
	assert.NotEqual(t, stableID("item", "A"), stableID("location", "A"))
}

func TestEscapeSQL(t *testing.T) {
	assert.Equal(t, "Tornillo 1/2''", escapeSQL("Tornillo 1/2'"))
}
