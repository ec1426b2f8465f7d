package extractors

import (
	"github.com/trita-a/ricerca/internal/core/domain"
	"github.com/trita-a/ricerca/internal/core/ports/driven"
	"github.com/trita-a/ricerca/internal/extractors/archive"
	"github.com/trita-a/ricerca/internal/extractors/email"
	"github.com/trita-a/ricerca/internal/extractors/legacy"
	"github.com/trita-a/ricerca/internal/extractors/markup"
	"github.com/trita-a/ricerca/internal/extractors/office"
	"github.com/trita-a/ricerca/internal/extractors/pdf"
	"github.com/trita-a/ricerca/internal/extractors/plaintext"
	"github.com/trita-a/ricerca/internal/extractors/tabular"
)

// NewDefaultRegistry creates a registry with every built-in extractor.
// runner is used by the extractors that shell out to optional tools;
// those whose tool is missing are registered as absent.
func NewDefaultRegistry(runner driven.CommandRunner, limits domain.ExtractLimits) *Registry {
	r := NewRegistry(limits)
	limits = r.Limits()

	text := plaintext.New()
	r.Register(text)
	r.SetFallback(text)

	r.Register(markup.New())
	r.Register(office.New(limits))
	r.Register(archive.New(limits))
	r.Register(tabular.NewCSV(limits))
	r.Register(tabular.NewDBF(limits))
	r.Register(tabular.NewSQLite(limits))

	mail := email.New(limits)
	mail.SetRouter(r)
	r.Register(mail)

	if runner == nil {
		r.RegisterAbsent("external tools disabled",
			".pdf", ".doc", ".dot", ".xls", ".xlt", ".ppt", ".pps", ".mdb", ".accdb")
		return r
	}
	r.Register(pdf.New(runner, limits))
	r.Register(legacy.NewDoc(runner))
	r.Register(legacy.NewXLS(runner))
	r.Register(legacy.NewPPT(runner))
	r.Register(tabular.NewMDB(runner, limits))

	return r
}
