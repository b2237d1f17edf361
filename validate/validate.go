package validate

import (
	"bytes"
	"fmt"
	"sync"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/tsawler/pdfstrip/core"
	"github.com/tsawler/pdfstrip/pages"
	"github.com/tsawler/pdfstrip/reader"
	"github.com/tsawler/pdfstrip/resolver"
)

// Expect describes what a written file must contain.
type Expect struct {
	Objects int
	Pages   int
}

// RoundTrip reloads data and checks that it yields the expected number of
// objects and pages and a resolvable catalog, and that no page or form
// still draws from an emptied object. A negative page count skips the page
// checks. Failures wrap core.ErrValidationFailed.
func RoundTrip(data []byte, want Expect) error {
	doc, err := reader.Load(data)
	if err != nil {
		return fmt.Errorf("%w: reload: %v", core.ErrValidationFailed, err)
	}
	if doc.Repaired() {
		return fmt.Errorf("%w: written cross-reference table is unusable", core.ErrValidationFailed)
	}
	if doc.Len() != want.Objects {
		return fmt.Errorf("%w: %d objects, want %d", core.ErrValidationFailed, doc.Len(), want.Objects)
	}
	if want.Pages < 0 {
		return nil
	}
	catalog, _ := doc.Catalog()
	all, err := pages.NewPageTree(catalog, doc.Resolver()).Pages()
	if err != nil {
		return fmt.Errorf("%w: page tree: %v", core.ErrValidationFailed, err)
	}
	if len(all) != want.Pages {
		return fmt.Errorf("%w: %d pages, want %d", core.ErrValidationFailed, len(all), want.Pages)
	}

	r := resolver.New(doc, resolver.WithMaxDepth(resourceDepth))
	for _, page := range all {
		res, _ := r.ResolveDeep(page.ResourcesObject()).(core.Dict)
		if name, ok := emptied(res); ok {
			return fmt.Errorf("%w: page %d: /%s names an emptied object", core.ErrValidationFailed, page.Index+1, name)
		}
	}
	return nil
}

// resourceDepth bounds the expansion of a page's resources, forms
// included.
const resourceDepth = 32

// emptied finds an /XObject entry that resolves to an empty dictionary,
// the shape removed images are left in, searching the tables of forms
// too.
func emptied(res core.Dict) (string, bool) {
	table, _ := res.Get("XObject").(core.Dict)
	for _, name := range table.Keys() {
		switch v := table[name].(type) {
		case core.Dict:
			if len(v) == 0 {
				return name, true
			}
		case *core.Stream:
			inner, _ := v.Dict.Get("Resources").(core.Dict)
			if found, ok := emptied(inner); ok {
				return name + "/" + found, true
			}
		}
	}
	return "", false
}

var configDir sync.Once

// External checks data with pdfcpu in relaxed mode. pageCount is compared
// with pdfcpu's page count unless it is negative.
func External(data []byte, pageCount int) error {
	configDir.Do(api.DisableConfigDir)

	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	ctx, err := api.ReadContext(bytes.NewReader(data), conf)
	if err != nil {
		return fmt.Errorf("%w: pdfcpu read: %v", core.ErrValidationFailed, err)
	}
	if err := api.ValidateContext(ctx); err != nil {
		return fmt.Errorf("%w: pdfcpu: %v", core.ErrValidationFailed, err)
	}
	if pageCount < 0 {
		return nil
	}
	if err := ctx.EnsurePageCount(); err != nil {
		return fmt.Errorf("%w: pdfcpu page count: %v", core.ErrValidationFailed, err)
	}
	if ctx.PageCount != pageCount {
		return fmt.Errorf("%w: pdfcpu sees %d pages, want %d", core.ErrValidationFailed, ctx.PageCount, pageCount)
	}
	return nil
}

// Output runs RoundTrip and, when external is set, External.
func Output(data []byte, want Expect, external bool) error {
	if err := RoundTrip(data, want); err != nil {
		return err
	}
	if external {
		return External(data, want.Pages)
	}
	return nil
}
