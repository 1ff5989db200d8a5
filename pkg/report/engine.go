package report

import (
	"context"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// ErrEmptySelection is returned when a request selects no metrics.
var ErrEmptySelection = fmt.Errorf("no metrics selected")

// ErrRowLimit is returned when a report window would scan more rows than
// the configured guard allows.
var ErrRowLimit = fmt.Errorf("report window exceeds scanned row limit")

// Engine drives the dimension and metric descriptors to produce the result
// set for one report request. It is stateless across requests; a single
// Engine may serve concurrent requests.
type Engine struct {
	log            logrus.FieldLogger
	ds             DataSource
	maxScannedRows int
}

// NewEngine creates an engine over a data source. maxScannedRows bounds the
// number of rows a single report may fetch; zero disables the guard.
func NewEngine(
	log logrus.FieldLogger, ds DataSource, maxScannedRows int,
) *Engine {
	return &Engine{
		log:            log.WithField("component", "report-engine"),
		ds:             ds,
		maxScannedRows: maxScannedRows,
	}
}

// Run computes one report. Each selected metric is aggregated concurrently;
// metrics sharing a fact table share one fetch. Errors from the data source
// or from malformed filters propagate to the caller unchanged — a failed
// report is surfaced, never silently partial.
//
// With no dimensions selected each metric yields a single global row. The
// returned Summary is empty in that case; callers decide whether that is
// renderable.
func (e *Engine) Run(ctx context.Context, req Request) (*Result, error) {
	if len(req.Metrics) == 0 {
		return nil, ErrEmptySelection
	}

	scope := Scope{ProjectID: req.ProjectID}

	dims := make([]*Dimension, 0, len(req.Dimensions))
	dimLabels := make([]string, 0, len(req.Dimensions))

	for _, id := range req.Dimensions {
		dim, err := LookupDimension(id, scope)
		if err != nil {
			return nil, err
		}

		dims = append(dims, dim)
		dimLabels = append(dimLabels, dim.Label)
	}

	metrics := make([]*Metric, 0, len(req.Metrics))
	metricLabels := make([]string, 0, len(req.Metrics))

	for _, id := range req.Metrics {
		metric, err := LookupMetric(id)
		if err != nil {
			return nil, err
		}

		metrics = append(metrics, metric)
		metricLabels = append(metricLabels, metric.Label)
	}

	res, err := buildResolver(ctx, e.ds, scope, dims)
	if err != nil {
		return nil, err
	}

	e.log.WithFields(logrus.Fields{
		"dimensions": req.Dimensions,
		"metrics":    req.Metrics,
		"scoped":     scope.ProjectSpecific(),
	}).Debug("Running report")

	cache := newFetchCache(e.ds, scope, e.maxScannedRows)
	results := make([]MetricResult, len(metrics))

	g, gCtx := errgroup.WithContext(ctx)

	for i, metric := range metrics {
		i, metric := i, metric
		g.Go(func() error {
			filter, err := BuildDateFilter(req.Filters, metric.DateField)
			if err != nil {
				return err
			}

			records, err := cache.get(gCtx, metric.Entity, filter)
			if err != nil {
				return fmt.Errorf("fetching %s rows: %w", metric.Entity, err)
			}

			aggRows := groupAndAggregate(records, dims, res, metric.spec)
			results[i] = formatMetricResult(metric, dims, res, aggRows)

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	summary, _ := Summary(metricLabels, dimLabels, nil)

	return &Result{Summary: summary, Results: results}, nil
}

// formatMetricResult converts raw aggregation rows into display-formatted
// output rows, stripping internal accumulator state and attaching the
// composite group key for downstream joining.
func formatMetricResult(
	metric *Metric, dims []*Dimension, res *resolver, aggRows []aggRow,
) MetricResult {
	columns := make([]string, 0, len(dims)+1)
	for _, dim := range dims {
		columns = append(columns, dim.Key)
	}

	columns = append(columns, metric.ValueKey)

	rows := make([]Row, 0, len(aggRows))

	for _, ar := range aggRows {
		row := make(Row, len(dims)+2)

		for i, dim := range dims {
			row[dim.Key] = dim.Display(ar.parts[i], res)
		}

		row[metric.ValueKey] = ar.value
		row[GroupKeyField] = ar.key

		rows = append(rows, row)
	}

	return MetricResult{
		MetricID: metric.ID,
		Label:    metric.Label,
		ValueKey: metric.ValueKey,
		Columns:  columns,
		Rows:     rows,
	}
}

// fetchKey identifies one fact-table fetch within a request.
type fetchKey struct {
	entity Entity
	field  string
	start  string
	end    string
}

// fetchCache deduplicates fact-table fetches across concurrently computed
// metrics within one request.
type fetchCache struct {
	ds      DataSource
	scope   Scope
	maxRows int

	mu      sync.Mutex
	entries map[fetchKey]*fetchEntry
}

type fetchEntry struct {
	once    sync.Once
	records []Record
	err     error
}

func newFetchCache(ds DataSource, scope Scope, maxRows int) *fetchCache {
	return &fetchCache{
		ds:      ds,
		scope:   scope,
		maxRows: maxRows,
		entries: make(map[fetchKey]*fetchEntry),
	}
}

func (c *fetchCache) get(
	ctx context.Context, entity Entity, filter DateFilter,
) ([]Record, error) {
	key := fetchKey{entity: entity, field: filter.Field}

	if filter.Start != nil {
		key.start = filter.Start.String()
	}

	if filter.End != nil {
		key.end = filter.End.String()
	}

	c.mu.Lock()

	entry, ok := c.entries[key]
	if !ok {
		entry = &fetchEntry{}
		c.entries[key] = entry
	}

	c.mu.Unlock()

	entry.once.Do(func() {
		records, err := c.ds.Records(ctx, entity, c.scope, filter)
		if err != nil {
			entry.err = err

			return
		}

		if c.maxRows > 0 && len(records) > c.maxRows {
			entry.err = fmt.Errorf(
				"%w: %d rows fetched, limit %d",
				ErrRowLimit, len(records), c.maxRows,
			)

			return
		}

		entry.records = records
	})

	return entry.records, entry.err
}
