package detectors

import (
	"context"
	"fmt"

	"github.com/Kaccad/Juicyscore-test/modules"
)

// DefaultFontFamilies are the font families checked when nothing else is configured.
var DefaultFontFamilies = []string{
	"Arial",
	"Arial Black",
	"Calibri",
	"Cambria",
	"Comic Sans MS",
	"Consolas",
	"Courier New",
	"DejaVu Sans",
	"Georgia",
	"Helvetica",
	"Liberation Sans",
	"Noto Sans",
	"Segoe UI",
	"Tahoma",
	"Times New Roman",
	"Ubuntu",
	"Verdana",
}

var _ modules.OneShotModule = &Fonts{}

// Fonts reports which of a list of font families are available.
type Fonts struct {
	families func() []string
}

// NewFonts returns a fonts detector. families is called on every execution;
// if it is nil, DefaultFontFamilies are checked.
func NewFonts(families func() []string) *Fonts {
	if families == nil {
		families = func() []string { return DefaultFontFamilies }
	}
	return &Fonts{
		families: families,
	}
}

// Name implements modules.Module.
func (f *Fonts) Name() string { return "fonts" }

// Kind implements modules.Module.
func (f *Fonts) Kind() modules.Kind { return modules.KindOneShot }

// Exec checks the font families against the document.
func (f *Fonts) Exec(ctx context.Context, scope *modules.Scope) (modules.Result, error) {
	if scope == nil || scope.Doc == nil {
		return nil, fmt.Errorf("%w: document", ErrMissingCapability)
	}

	fonts := scope.Doc.Fonts()
	families := f.families()
	available := make([]string, 0, len(families))
	for _, family := range families {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if fonts.Check(family) {
			available = append(available, family)
		}
	}

	return modules.Result{
		"fonts":   available,
		"checked": len(families),
	}, nil
}
