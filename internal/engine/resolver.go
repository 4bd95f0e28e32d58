package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"github.com/roach88/tablegraph/internal/ir"
	"github.com/roach88/tablegraph/internal/join"
	"github.com/roach88/tablegraph/internal/mapping"
	"github.com/roach88/tablegraph/internal/rdf"
	"github.com/roach88/tablegraph/internal/source"
	"github.com/roach88/tablegraph/internal/termmap"
)

// Resolver turns a mapping.Spec and a DataSource into triples.
//
// Thread-safety model:
//   - Resolve and ResolveEntity: safe from any goroutine
//   - parent indexes are cached for one Resolve or ResolveEntity call
//   - row scopes are per row and never shared between workers
//
// INVARIANTS:
//   - entity map results are merged in declaration order
//   - within an entity map, row batches are ordered by row index
//   - subjects are never literals, predicates are always IRIs
type Resolver struct {
	source source.DataSource
	blanks termmap.BlankGenerator
	logger *slog.Logger

	rowPolicy   RowErrorPolicy
	maxRows     int
	parallelism int
	rowWorkers  int
	bestEffort  bool

	registerer     prometheus.Registerer
	metrics        *Metrics
	indexCacheSize int
}

// New creates a Resolver reading rows from ds.
//
// Returns an error only when WithMetrics was given a registry whose
// existing collectors conflict with the resolver's.
func New(ds source.DataSource, opts ...Option) (*Resolver, error) {
	if ds == nil {
		return nil, fmt.Errorf("engine: nil data source")
	}
	r := &Resolver{
		source:         ds,
		logger:         slog.Default(),
		rowPolicy:      FailFast,
		parallelism:    1,
		rowWorkers:     1,
		indexCacheSize: DefaultIndexCacheSize,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.blanks == nil {
		r.blanks = termmap.NewUUIDGenerator()
	}
	if r.registerer != nil {
		m, err := NewMetrics(r.registerer)
		if err != nil {
			return nil, fmt.Errorf("engine: register metrics: %w", err)
		}
		r.metrics = m
	}
	return r, nil
}

// Result is the output of a Resolve run.
type Result struct {
	// Triples holds every emitted triple: entity maps in declaration
	// order, rows in source order. Duplicates are kept.
	Triples []rdf.Triple

	// Errors holds per-entity-map failures collected in best-effort mode.
	Errors []error

	// Rows is the number of rows pulled across all entity maps.
	Rows int64

	// Skipped is the number of rows dropped under SkipRow.
	Skipped int64
}

// Graph returns the triples as a set: deduplicated and sorted.
func (res *Result) Graph() []rdf.Triple {
	out := rdf.Dedup(res.Triples)
	rdf.SortTriples(out)
	return out
}

// Err joins the collected best-effort errors, or returns nil.
func (res *Result) Err() error {
	return errors.Join(res.Errors...)
}

// runStats is shared by the workers of one Resolve call: row counters
// and the parent indexes built for it. Indexes never outlive the call,
// so a later call sees the rows the source holds then.
type runStats struct {
	rows    Counter
	skipped Counter
	indexes *indexCache
}

func (r *Resolver) newRunStats() *runStats {
	return &runStats{indexes: newIndexCache(r.indexCacheSize)}
}

// Resolve runs every entity map of spec and merges their triples.
//
// Fail-fast (the default): the first error cancels the remaining work and
// is returned with a nil Result. With WithBestEffort, failed entity maps
// contribute no triples and their errors are collected in Result.Errors.
func (r *Resolver) Resolve(ctx context.Context, spec *mapping.Spec) (*Result, error) {
	if spec == nil {
		return nil, fmt.Errorf("engine: nil spec")
	}
	maps := spec.EntityMaps()
	sinks := make([]*Sink, len(maps))
	stats := r.newRunStats()

	var (
		errMu    sync.Mutex
		failures = make([]error, len(maps))
	)

	r.logger.Info("resolve starting",
		"entity_maps", len(maps),
		"parallelism", r.parallelism,
		"row_workers", r.rowWorkers,
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.parallelism)
	for i, em := range maps {
		g.Go(func() error {
			sink := NewSink()
			err := r.resolveEntity(gctx, spec, em, sink.Emit, stats)
			sink.Close()
			if err == nil {
				sinks[i] = sink
				return nil
			}
			if !r.bestEffort || isContextErr(err) {
				return err
			}
			r.logger.Warn("entity map failed",
				"entity_map", em.ID(),
				"code", string(CodeOf(err)),
				"error", err,
			)
			errMu.Lock()
			failures[i] = err
			errMu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		r.logger.Error("resolve failed", "error", err)
		return nil, err
	}

	res := &Result{
		Rows:    stats.rows.Load(),
		Skipped: stats.skipped.Load(),
	}
	for i := range maps {
		if failures[i] != nil {
			res.Errors = append(res.Errors, failures[i])
			continue
		}
		res.Triples = append(res.Triples, sinks[i].Triples()...)
	}

	r.logger.Info("resolve finished",
		"triples", len(res.Triples),
		"rows", res.Rows,
		"skipped", res.Skipped,
		"errors", len(res.Errors),
	)
	return res, nil
}

// ResolveEntity resolves one entity map of spec, handing each row's
// triples to emit as one batch.
//
// spec supplies the parent entity maps of referencing object maps. emit
// is never called concurrently, even with several row workers.
func (r *Resolver) ResolveEntity(ctx context.Context, spec *mapping.Spec, em *mapping.EntityMap, emit Emitter) error {
	if spec == nil || em == nil {
		return fmt.Errorf("engine: nil spec or entity map")
	}
	return r.resolveEntity(ctx, spec, em, emit, r.newRunStats())
}

// plan holds what is prepared once per entity map before rows flow.
type plan struct {
	em      *mapping.EntityMap
	refs    map[int]mapping.Reference
	indexes map[int]*join.Index
	quota   *RowQuota
	stats   *runStats
}

func (r *Resolver) resolveEntity(ctx context.Context, spec *mapping.Spec, em *mapping.EntityMap, emit Emitter, stats *runStats) error {
	start := time.Now()
	defer r.metrics.observe(em.ID(), start)

	r.logger.Info("entity map starting",
		"entity_map", em.ID(),
		"source", em.Source().String(),
		"pairs", em.NumPairs(),
	)

	p, err := r.prepare(ctx, spec, em, stats)
	if err != nil {
		return r.fail(em.ID(), -1, err)
	}

	it, err := r.source.Rows(ctx, em.Source())
	if err != nil {
		return r.fail(em.ID(), -1, source.Unavailable(em.Source(), err))
	}
	defer func() {
		if cerr := it.Close(); cerr != nil {
			r.logger.Warn("closing rows failed", "entity_map", em.ID(), "error", cerr)
		}
	}()

	var mu sync.Mutex
	var triples int
	serialEmit := func(row int, batch []rdf.Triple) error {
		mu.Lock()
		defer mu.Unlock()
		triples += len(batch)
		r.metrics.emitted(em.ID(), len(batch))
		return emit(row, batch)
	}

	if r.rowWorkers <= 1 {
		err = r.runInline(ctx, p, it, serialEmit)
	} else {
		err = r.runWorkers(ctx, p, it, serialEmit)
	}
	if err != nil {
		return err
	}

	r.logger.Info("entity map finished",
		"entity_map", em.ID(),
		"rows", p.quota.Current(),
		"triples", triples,
		"duration", time.Since(start),
	)
	return nil
}

// prepare resolves references and builds parent indexes. Parent rows are
// read to completion before the entity map's own rows are opened.
func (r *Resolver) prepare(ctx context.Context, spec *mapping.Spec, em *mapping.EntityMap, stats *runStats) (*plan, error) {
	p := &plan{
		em:      em,
		refs:    make(map[int]mapping.Reference),
		indexes: make(map[int]*join.Index),
		quota:   NewRowQuota(r.maxRows),
		stats:   stats,
	}
	for _, ref := range spec.References(em.ID()) {
		p.refs[ref.Pair] = ref
		if ref.Joined == nil {
			continue
		}
		ix, err := r.parentIndex(ctx, stats.indexes, ref)
		if err != nil {
			return nil, err
		}
		p.indexes[ref.Pair] = ix
	}
	return p, nil
}

// next pulls one row and counts it against the quota.
func (r *Resolver) next(ctx context.Context, p *plan, it source.RowIter) (ir.Record, bool, error) {
	if err := ctx.Err(); err != nil {
		return ir.Record{}, false, err
	}
	rec, ok, err := it.Next(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return ir.Record{}, false, ctx.Err()
		}
		return ir.Record{}, false, r.fail(p.em.ID(), -1, source.Unavailable(p.em.Source(), err))
	}
	if !ok {
		return ir.Record{}, false, nil
	}
	if err := p.quota.Check(p.em.ID()); err != nil {
		return ir.Record{}, false, r.fail(p.em.ID(), p.quota.Current()-1, err)
	}
	p.stats.rows.Inc()
	r.metrics.row(p.em.ID())
	return rec, true, nil
}

func (r *Resolver) runInline(ctx context.Context, p *plan, it source.RowIter, emit Emitter) error {
	for idx := 0; ; idx++ {
		rec, ok, err := r.next(ctx, p, it)
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		if err := r.handleRow(p, idx, rec, emit); err != nil {
			return err
		}
	}
}

type rowJob struct {
	idx int
	rec ir.Record
}

// runWorkers fans rows out to r.rowWorkers goroutines. The channel is
// unbuffered: a row is pulled only when a worker is ready for it.
func (r *Resolver) runWorkers(ctx context.Context, p *plan, it source.RowIter, emit Emitter) error {
	g, gctx := errgroup.WithContext(ctx)
	jobs := make(chan rowJob)

	g.Go(func() error {
		defer close(jobs)
		for idx := 0; ; idx++ {
			rec, ok, err := r.next(gctx, p, it)
			if err != nil {
				return err
			}
			if !ok {
				return nil
			}
			select {
			case jobs <- rowJob{idx: idx, rec: rec}:
			case <-gctx.Done():
				return gctx.Err()
			}
		}
	})
	for w := 0; w < r.rowWorkers; w++ {
		g.Go(func() error {
			for job := range jobs {
				if err := r.handleRow(p, job.idx, job.rec, emit); err != nil {
					return err
				}
			}
			return nil
		})
	}
	return g.Wait()
}

// handleRow resolves one row and emits its batch, applying the row
// error policy.
func (r *Resolver) handleRow(p *plan, idx int, rec ir.Record, emit Emitter) error {
	batch, err := r.resolveRow(p, idx, rec)
	if err != nil {
		err = r.fail(p.em.ID(), idx, err)
		if r.rowPolicy == SkipRow && !isAbort(err) {
			p.stats.skipped.Inc()
			r.logger.Warn("row skipped",
				"entity_map", p.em.ID(),
				"row", idx,
				"code", string(CodeOf(err)),
				"error", err,
			)
			return nil
		}
		return err
	}
	if len(batch) == 0 {
		return nil
	}
	return emit(idx, batch)
}

// resolveRow produces the triples of one row.
func (r *Resolver) resolveRow(p *plan, idx int, rec ir.Record) ([]rdf.Triple, error) {
	em := p.em
	scope := termmap.NewScope(r.blanks, rowScopeKey(em.ID(), rec))

	subject, err := termmap.Resolve(em.Subject().Definition(), rec, scope)
	if errors.Is(err, termmap.ErrNullValue) {
		r.logger.Debug("row skipped: null subject", "entity_map", em.ID(), "row", idx)
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("subject: %w", err)
	}
	if subject.Kind() == rdf.KindLiteral {
		return nil, &ResolveError{
			Code:      ErrCodeInvalidSubjectType,
			EntityMap: em.ID(),
			Row:       idx,
			Err:       fmt.Errorf("subject resolved to literal %s", subject),
		}
	}

	var out []rdf.Triple
	for _, class := range em.Subject().Classes() {
		out = append(out, rdf.Triple{S: subject, P: rdf.RDFType, O: class})
	}

	for i, pair := range em.Pairs() {
		pterm, err := termmap.Resolve(pair.Predicate.Definition(), rec, scope)
		if errors.Is(err, termmap.ErrNullValue) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("pair %d predicate: %w", i, err)
		}
		predicate, ok := pterm.(rdf.IRI)
		if !ok {
			return nil, &ResolveError{
				Code:      ErrCodeInvalidPredicateType,
				EntityMap: em.ID(),
				Row:       idx,
				Err:       fmt.Errorf("pair %d predicate resolved to %s %s", i, pterm.Kind(), pterm),
			}
		}

		if !pair.Object.IsReferencing() {
			object, err := termmap.Resolve(pair.Object.Definition(), rec, scope)
			if errors.Is(err, termmap.ErrNullValue) {
				continue
			}
			if err != nil {
				return nil, fmt.Errorf("pair %d object: %w", i, err)
			}
			out = append(out, rdf.Triple{S: subject, P: predicate, O: object})
			continue
		}

		objects, err := r.referencedObjects(p, i, rec)
		if err != nil {
			return nil, fmt.Errorf("pair %d object: %w", i, err)
		}
		for _, object := range objects {
			out = append(out, rdf.Triple{S: subject, P: predicate, O: object})
		}
	}

	r.logger.Debug("row resolved", "entity_map", em.ID(), "row", idx, "triples", len(out))
	return out, nil
}

// referencedObjects evaluates the parent subject map of pair i for every
// parent row joining rec. Without join conditions the parent subject map
// is evaluated on rec itself.
func (r *Resolver) referencedObjects(p *plan, i int, rec ir.Record) ([]rdf.Term, error) {
	ref, ok := p.refs[i]
	if !ok {
		return nil, fmt.Errorf("referencing object map has no resolved parent")
	}
	parentDef := ref.Parent.Subject().Definition()

	if ref.Joined == nil {
		scope := termmap.NewScope(r.blanks, rowScopeKey(ref.Parent.ID(), rec))
		o, err := termmap.Resolve(parentDef, rec, scope)
		if errors.Is(err, termmap.ErrNullValue) {
			return nil, nil
		}
		if err != nil {
			return nil, err
		}
		return []rdf.Term{o}, nil
	}

	matches, err := p.indexes[i].Match(rec)
	if err != nil {
		return nil, err
	}
	// The parent subject is evaluated with the parent row as primary:
	// condition columns route to their own side, other names read the
	// parent first.
	flipped := flip(ref.Conditions)
	out := make([]rdf.Term, 0, len(matches))
	for _, parentRow := range matches {
		scope := termmap.NewScope(r.blanks, rowScopeKey(ref.Parent.ID(), parentRow))
		o, err := termmap.ResolveJoined(parentDef, flipped, parentRow, rec, scope)
		if errors.Is(err, termmap.ErrNullValue) {
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, nil
}

// fail locates err within the run and counts it.
func (r *Resolver) fail(emID string, row int, err error) error {
	if err == nil {
		return nil
	}
	if isContextErr(err) {
		return fmt.Errorf("entity map %s: %w", emID, err)
	}
	out := newResolveError(emID, row, err)
	r.metrics.failed(CodeOf(out))
	return out
}

// rowScopeKey identifies the blank node scope of a row of an entity map.
// The parent side of a join uses the parent's ID so a row yields the same
// blank subject whether reached directly or through a reference.
func rowScopeKey(emID string, rec ir.Record) string {
	return emID + "\x00" + rec.Key()
}

func flip(conds []mapping.JoinCondition) []mapping.JoinCondition {
	out := make([]mapping.JoinCondition, len(conds))
	for i, c := range conds {
		out[i] = mapping.JoinCondition{Child: c.Parent, Parent: c.Child}
	}
	return out
}

func isContextErr(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

// isAbort reports whether err ends the entity map regardless of the row
// error policy.
func isAbort(err error) bool {
	if isContextErr(err) {
		return true
	}
	switch CodeOf(err) {
	case ErrCodeSourceUnavailable, ErrCodeRowLimitExceeded:
		return true
	}
	return false
}
