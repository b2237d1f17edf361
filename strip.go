package pdfstrip

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/tsawler/pdfstrip/contentstream"
	"github.com/tsawler/pdfstrip/core"
	"github.com/tsawler/pdfstrip/images"
	"github.com/tsawler/pdfstrip/logging"
	"github.com/tsawler/pdfstrip/pages"
	"github.com/tsawler/pdfstrip/reader"
	"github.com/tsawler/pdfstrip/resolver"
	"github.com/tsawler/pdfstrip/validate"
	"github.com/tsawler/pdfstrip/writer"
)

// Strip removes the images cfg selects from the PDF in data and returns
// the rewritten file.
//
// The returned error is non-nil only when no output could be produced:
// the document root cannot be resolved, the file is encrypted, or ctx was
// cancelled before every page was planned. Everything else is recorded in
// Report.Warnings.
func Strip(ctx context.Context, data []byte, cfg Config) ([]byte, *Report, error) {
	e := &engine{
		cfg:      cfg,
		policy:   cfg.policy(),
		progress: -1,
		report:   &Report{Mode: cfg.ReplacementMode, InputSize: len(data)},
	}
	return e.run(ctx, data)
}

// engine carries the state of one run.
type engine struct {
	cfg      Config
	policy   images.Policy
	progress int

	doc       *reader.Document
	r         *resolver.Resolver
	pageCount int
	targets   []target
	decisions map[core.IndirectRef]images.Decision
	report    *Report
}

// target is one content sequence to rewrite: a page or a form XObject.
type target struct {
	page *pages.Page
	form *images.Form

	// inheritors are the forms without resources that draw from this
	// target's table. sharedInheritors is set when one of them also draws
	// from another table; the table is then left unpruned.
	inheritors       []core.IndirectRef
	sharedInheritors bool
}

// key identifies the table a target draws from.
func (t target) key() tableOwner {
	if t.form != nil {
		return tableOwner{page: -1, form: t.form.Ref}
	}
	return tableOwner{page: t.page.Index}
}

// tableOwner is a page, by index, or a form with its own resources.
type tableOwner struct {
	page int
	form core.IndirectRef
}

func (t target) owner() core.Dict {
	if t.form != nil {
		return t.form.Stream.Dict
	}
	return t.page.Dict
}

// plan is the rewrite computed for one target. Plans only read the
// document; they are applied serially.
type plan struct {
	target   target
	streams  []*core.Stream
	original [][]byte
	table    core.Dict
	result   *contentstream.Result
	warnings []error
	err      error
}

func (e *engine) step(percent int) {
	if percent <= e.progress {
		return
	}
	e.progress = percent
	if e.cfg.Progress != nil {
		e.cfg.Progress(percent)
	}
}

func (e *engine) run(ctx context.Context, data []byte) ([]byte, *Report, error) {
	e.step(0)
	doc, err := reader.Load(data)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load document: %w", err)
	}
	e.doc = doc
	e.r = doc.Resolver()
	e.report.Repaired = doc.Repaired()
	e.report.Warnings = append(e.report.Warnings, doc.Warnings()...)
	e.step(20)

	e.discover()

	plans, err := e.plan(ctx)
	if err != nil {
		return nil, nil, err
	}
	e.step(50)

	e.resolveConflicts(plans)
	e.apply(plans)
	e.prune(plans)
	e.placeholders()
	e.step(80)

	out, err := writer.Bytes(doc)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to write document: %w", err)
	}
	e.step(90)

	want := validate.Expect{Objects: doc.Len(), Pages: e.pageCount}
	if err := validate.Output(out, want, e.cfg.ExternalValidation); err != nil {
		logging.Logger().Warn("output failed validation, returning it unvalidated", slog.String("reason", err.Error()))
		e.report.ValidationFallback = true
		e.report.Warnings = append(e.report.Warnings, err)
	}

	e.finish(out)
	e.step(100)
	return out, e.report, nil
}

// discover lists the pages and the forms they reach, and decides every
// image XObject found along the way.
func (e *engine) discover() {
	e.decisions = make(map[core.IndirectRef]images.Decision)

	catalog, _ := e.doc.Catalog()
	all, err := pages.NewPageTree(catalog, e.r).Pages()
	if err != nil {
		logging.Logger().Warn("page tree unreadable", slog.String("reason", err.Error()))
		e.report.Warnings = append(e.report.Warnings, fmt.Errorf("page tree: %w", err))
		e.pageCount = -1
		return
	}
	e.pageCount = len(all)
	e.report.Pages = len(all)
	e.report.PageReports = make([]PageReport, len(all))

	seenForms := make(map[core.IndirectRef]bool)
	inheritors := make(map[tableOwner][]core.IndirectRef)
	inheritedFrom := make(map[core.IndirectRef]map[tableOwner]bool)
	for _, page := range all {
		e.report.PageReports[page.Index].Index = page.Index
		inv := images.Collect(page, e.r, e.cfg.MaxFormNestingDepth)
		e.targets = append(e.targets, target{page: page})

		for _, f := range inv.Forms {
			if !f.InheritsResources() {
				continue
			}
			o := tableOwner{page: page.Index}
			if !f.Owner.IsZero() {
				o = tableOwner{page: -1, form: f.Owner}
			}
			if inheritedFrom[f.Ref] == nil {
				inheritedFrom[f.Ref] = make(map[tableOwner]bool)
			}
			if !inheritedFrom[f.Ref][o] {
				inheritedFrom[f.Ref][o] = true
				inheritors[o] = append(inheritors[o], f.Ref)
			}
		}

		for _, c := range inv.Images {
			if c.Ref.IsZero() {
				continue
			}
			if _, ok := e.decisions[c.Ref]; !ok {
				e.decisions[c.Ref] = e.policy.Decide(c)
			}
		}
		for i := range inv.Forms {
			f := inv.Forms[i]
			if seenForms[f.Ref] {
				continue
			}
			seenForms[f.Ref] = true
			e.targets = append(e.targets, target{page: page, form: &f})
		}
	}
	for i := range e.targets {
		t := &e.targets[i]
		t.inheritors = inheritors[t.key()]
		for _, ref := range t.inheritors {
			if len(inheritedFrom[ref]) > 1 {
				t.sharedInheritors = true
			}
		}
	}
	logging.Logger().Debug("targets discovered",
		slog.Int("pages", len(all)),
		slog.Int("targets", len(e.targets)),
		slog.Int("images", len(e.decisions)))
}

// plan rewrites every target in parallel. New tasks stop being scheduled
// once ctx is done, and the run fails.
func (e *engine) plan(ctx context.Context) ([]*plan, error) {
	plans := make([]*plan, len(e.targets))
	var g errgroup.Group
	g.SetLimit(max(1, e.cfg.Workers))
	for i, t := range e.targets {
		if err := ctx.Err(); err != nil {
			_ = g.Wait()
			return nil, fmt.Errorf("stripping cancelled: %w", err)
		}
		g.Go(func() error {
			plans[i] = e.planTarget(t)
			return nil
		})
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("stripping cancelled: %w", err)
	}
	return plans, nil
}

func (e *engine) planTarget(t target) (p *plan) {
	p = &plan{target: t}
	defer func() {
		if v := recover(); v != nil {
			logging.Logger().Warn("page task panicked", slog.Int("page", t.page.Index), slog.Any("panic", v))
			p.result = nil
			p.err = e.pageError(t, fmt.Errorf("panic: %v", v))
		}
	}()

	if t.form != nil {
		p.streams = []*core.Stream{t.form.Stream}
		p.table = t.form.XObjects(e.r)
	} else {
		for _, c := range t.page.Contents() {
			p.streams = append(p.streams, c.Stream)
		}
		p.table = t.page.XObjects()
	}

	p.original = make([][]byte, len(p.streams))
	for i, s := range p.streams {
		data, err := s.DecodeWith(e.r)
		if err != nil {
			p.err = e.pageError(t, fmt.Errorf("failed to decode content stream: %w", err))
			return p
		}
		p.original[i] = data
	}

	p.result = contentstream.RewriteStreams(p.original, e.decide(p.table), e.cfg.ReplacementMode)
	for _, err := range p.result.Errors {
		p.warnings = append(p.warnings, e.pageError(t, err))
	}
	return p
}

func (e *engine) pageError(t target, err error) *PageError {
	if t.form != nil {
		err = fmt.Errorf("form %s: %w", t.form.Ref, err)
	}
	return &PageError{Page: t.page.Index, Err: err}
}

// decide returns the verdicts for content drawn with the given /XObject
// table.
func (e *engine) decide(table core.Dict) contentstream.Decisions {
	return contentstream.Decisions{
		XObject: func(name string) (images.Decision, bool) {
			return e.decideName(table, name)
		},
		Inline: func(img *contentstream.InlineImage) images.Decision {
			return e.policy.Decide(images.FromInline(img.Params, len(img.Data)))
		},
	}
}

func (e *engine) decideName(table core.Dict, name string) (images.Decision, bool) {
	obj := table.Get(name)
	s, ok := e.r.Stream(obj)
	if !ok {
		return images.Keep, false
	}
	if subtype, _ := e.r.Name(s.Dict.Get("Subtype")); subtype != "Image" {
		return images.Keep, false
	}
	ref, _ := obj.(core.IndirectRef)
	if d, ok := e.decisions[ref]; ok {
		return d, true
	}
	return e.policy.Decide(images.FromStream(name, ref, s, e.r)), true
}

// keepAll returns verdicts that keep every image while still telling
// images from other XObjects.
func (e *engine) keepAll(table core.Dict) contentstream.Decisions {
	return contentstream.Decisions{
		XObject: func(name string) (images.Decision, bool) {
			_, isImage := e.decideName(table, name)
			return images.Keep, isImage
		},
	}
}

// resolveConflicts reverts plans that disagree about the bytes of a
// stream they share, until no two plans disagree.
func (e *engine) resolveConflicts(plans []*plan) {
	for {
		outputs := make(map[*core.Stream][]byte)
		owners := make(map[*core.Stream][]*plan)
		conflicted := make(map[*core.Stream]bool)
		for _, p := range plans {
			if p.err != nil {
				continue
			}
			for i, s := range p.streams {
				out := p.result.Streams[i]
				if prev, ok := outputs[s]; ok && !bytes.Equal(prev, out) {
					conflicted[s] = true
				}
				outputs[s] = out
				owners[s] = append(owners[s], p)
			}
		}
		if len(conflicted) == 0 {
			return
		}

		reverted := false
		for s := range conflicted {
			for _, p := range owners[s] {
				if !p.result.Changed {
					continue
				}
				logging.Logger().Warn("shared content stream rewritten differently, keeping its images",
					slog.Int("page", p.target.page.Index))
				p.result = contentstream.RewriteStreams(p.original, e.keepAll(p.table), e.cfg.ReplacementMode)
				p.warnings = append(p.warnings, e.pageError(p.target, errors.New("content stream shared with another page; images kept")))
				reverted = true
			}
		}
		if !reverted {
			return
		}
	}
}

// apply stores the rewritten streams and accumulates the counts.
func (e *engine) apply(plans []*plan) {
	written := make(map[*core.Stream]bool)
	for _, p := range plans {
		if p.err != nil {
			e.report.Warnings = append(e.report.Warnings, p.err)
			continue
		}
		e.report.Warnings = append(e.report.Warnings, p.warnings...)

		res := p.result
		e.report.ImagesRemoved += res.Removed
		e.report.ImagesKept += res.Kept
		if p.target.page.Index < len(e.report.PageReports) {
			pr := &e.report.PageReports[p.target.page.Index]
			pr.Removed += res.Removed
			pr.Kept += res.Kept
			if p.target.form == nil {
				pr.Placements = append(pr.Placements, res.Placements...)
			}
		}

		if !res.Changed {
			continue
		}
		for i, s := range p.streams {
			if written[s] || bytes.Equal(res.Streams[i], p.original[i]) {
				continue
			}
			if err := s.SetDecoded(res.Streams[i]); err != nil {
				p.err = e.pageError(p.target, err)
				e.report.Warnings = append(e.report.Warnings, p.err)
				break
			}
			written[s] = true
		}
	}
}

// finish fills in the summary fields of the report.
func (e *engine) finish(out []byte) {
	r := e.report
	r.Objects = e.doc.Len()
	r.OutputSize = len(out)
	r.ImagesSeen = r.ImagesRemoved + r.ImagesKept
	if info := e.doc.Info(); info != nil {
		if s, ok := e.r.Resolve(info.Get("Title")).(core.String); ok {
			r.Title = core.DecodeTextString(s)
		}
		if s, ok := e.r.Resolve(info.Get("Producer")).(core.String); ok {
			r.Producer = core.DecodeTextString(s)
		}
	}
	logging.Logger().Debug("document stripped",
		slog.Int("pages", r.Pages),
		slog.Int("removed", r.ImagesRemoved),
		slog.Int("kept", r.ImagesKept),
		slog.Int("placeholders", r.Placeholders),
		slog.Int("warnings", len(r.Warnings)))
}
