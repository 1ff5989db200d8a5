package report

import "math"

// accKind selects the closed-form finalizer of an accumulator.
type accKind int

const (
	accCount accKind = iota
	accSum
	accAverage
	accRatio
	accMax
)

// accumulatorSpec is the single parameterization point for every metric:
// one grouping algorithm, five aggregation shapes.
//
//	Count           — one increment per row
//	Sum(sample)     — running total, nil samples counted as 0
//	Average(sample) — sum/count, nil samples excluded from both, rounded
//	Ratio(match)    — matching/total*100, 0 when total is 0
//	Max(sample)     — running maximum
type accumulatorSpec struct {
	kind accKind

	// sample extracts the measured value for sum/average/max. ok=false
	// marks a null sample.
	sample func(rec Record) (float64, bool)

	// match is the ratio numerator predicate.
	match func(rec Record) bool
}

func countSpec() accumulatorSpec {
	return accumulatorSpec{kind: accCount}
}

func sumSpec(sample func(Record) (float64, bool)) accumulatorSpec {
	return accumulatorSpec{kind: accSum, sample: sample}
}

func averageSpec(sample func(Record) (float64, bool)) accumulatorSpec {
	return accumulatorSpec{kind: accAverage, sample: sample}
}

func ratioSpec(match func(Record) bool) accumulatorSpec {
	return accumulatorSpec{kind: accRatio, match: match}
}

func maxSpec(sample func(Record) (float64, bool)) accumulatorSpec {
	return accumulatorSpec{kind: accMax, sample: sample}
}

// accumulator holds the running state for one group key.
type accumulator struct {
	total    float64
	matching float64
	sum      float64
	count    float64
	max      float64
	hasMax   bool
}

// aggRow is one finalized group: the raw per-dimension scalars in selection
// order plus the metric value.
type aggRow struct {
	key   string
	parts []string
	value float64
}

// groupAndAggregate is the shared grouping algorithm behind every metric.
// For each record it expands the per-dimension scalars (multi-valued
// dimensions fan one record into the cartesian product of their values; a
// record with no value for a multi-valued dimension is dropped), composes
// the group key, and feeds the accumulator for that key. Accumulator
// creation is idempotent: the first record with a new key initializes it.
// With no dimensions selected every record lands in one global group.
func groupAndAggregate(
	records []Record,
	dims []*Dimension,
	res *resolver,
	spec accumulatorSpec,
) []aggRow {
	accs := make(map[string]*accumulator)
	order := make([]string, 0)
	partsByKey := make(map[string][]string)

	for i := range records {
		rec := &records[i]

		for _, parts := range expandDimensionValues(rec, dims, res) {
			key := composeGroupKey(parts)

			acc, ok := accs[key]
			if !ok {
				acc = &accumulator{}
				accs[key] = acc
				partsByKey[key] = parts
				order = append(order, key)
			}

			accumulate(acc, rec, spec)
		}
	}

	rows := make([]aggRow, 0, len(order))

	for _, key := range order {
		rows = append(rows, aggRow{
			key:   key,
			parts: partsByKey[key],
			value: finalize(accs[key], spec),
		})
	}

	return rows
}

// expandDimensionValues produces every scalar combination one record
// contributes to. Single-valued dimensions yield exactly one scalar;
// multi-valued dimensions (group membership) yield one combination per
// value and zero combinations when the record has none, dropping it from
// the grouping entirely.
func expandDimensionValues(
	rec *Record, dims []*Dimension, res *resolver,
) [][]string {
	combos := [][]string{{}}

	for _, dim := range dims {
		values := dim.scalars(rec, res)
		if len(values) == 0 {
			return nil
		}

		next := make([][]string, 0, len(combos)*len(values))

		for _, combo := range combos {
			for _, v := range values {
				extended := make([]string, len(combo), len(combo)+1)
				copy(extended, combo)
				next = append(next, append(extended, v))
			}
		}

		combos = next
	}

	return combos
}

// accumulate feeds one accumulation event into the group state.
func accumulate(acc *accumulator, rec *Record, spec accumulatorSpec) {
	switch spec.kind {
	case accCount:
		acc.count++

	case accSum:
		v, ok := spec.sample(*rec)
		if !ok {
			v = 0
		}

		acc.sum += v

	case accAverage:
		v, ok := spec.sample(*rec)
		if !ok {
			return
		}

		acc.sum += v
		acc.count++

	case accRatio:
		acc.total++

		if spec.match(*rec) {
			acc.matching++
		}

	case accMax:
		v, ok := spec.sample(*rec)
		if !ok {
			return
		}

		if !acc.hasMax || v > acc.max {
			acc.max = v
			acc.hasMax = true
		}
	}
}

// finalize computes the closed-form metric value for one group.
// Zero denominators yield 0, never NaN or Inf.
func finalize(acc *accumulator, spec accumulatorSpec) float64 {
	switch spec.kind {
	case accCount:
		return acc.count

	case accSum:
		return acc.sum

	case accAverage:
		if acc.count == 0 {
			return 0
		}

		return math.Round(acc.sum / acc.count)

	case accRatio:
		if acc.total == 0 {
			return 0
		}

		return acc.matching / acc.total * 100

	case accMax:
		return acc.max
	}

	return 0
}
