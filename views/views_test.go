package views

import (
	"bytes"
	"testing"

	"github.com/Kariqs/smart-inventory/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTemplatesParse(t *testing.T) {
	tmpl := Templates()
	for _, name := range []string{
		"home.html", "product_index.html", "product_rows.html", "category_index.html",
		"order_create.html", "order_details.html", "account_login.html", "error.html",
	} {
		assert.NotNil(t, tmpl.Lookup(name), name)
	}
}

func TestTemplateFuncs(t *testing.T) {
	money := funcs["money"].(func(decimal.Decimal) string)
	assert.Equal(t, "20.00", money(decimal.NewFromInt(20)))
	assert.Equal(t, "999.99", money(decimal.RequireFromString("999.990")))

	hasID := funcs["hasID"].(func([]uint, uint) bool)
	assert.True(t, hasID([]uint{1, 3}, 3))
	assert.False(t, hasID(nil, 1))
}

func TestErrorPageRenders(t *testing.T) {
	var buf bytes.Buffer
	err := Templates().ExecuteTemplate(&buf, "error.html", map[string]any{
		"Title":   "Error",
		"Code":    404,
		"Message": "The requested resource was not found.",
		"User":    models.Principal{},
	})
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "Page not found")
	assert.Contains(t, buf.String(), "Log in")
}
