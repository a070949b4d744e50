package views

import (
	"embed"
	"html/template"
	"time"

	"github.com/shopspring/decimal"
)

//go:embed templates/*.html
var files embed.FS

var funcs = template.FuncMap{
	"money": func(d decimal.Decimal) string {
		return d.StringFixed(2)
	},
	"date": func(t time.Time) string {
		return t.Format("2006-01-02 15:04")
	},
	"hasID": func(ids []uint, id uint) bool {
		for _, v := range ids {
			if v == id {
				return true
			}
		}
		return false
	},
}

// Templates parses the page templates. Each page is addressed by its file
// name, e.g. "product_index.html".
func Templates() *template.Template {
	return template.Must(template.New("pages").Funcs(funcs).ParseFS(files, "templates/*.html"))
}
