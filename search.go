package amxbench

import (
	"container/heap"
	"fmt"
	"slices"

	"github.com/LynnColeArt/amxbench/compute/f32"
)

// SearchParams shapes the search phase.
type SearchParams struct {
	// Batch is the number of queries scored together per pass over the
	// dataset
	Batch int

	// TopK is the number of best dataset rows kept per query
	TopK int
}

// normalize fills zero fields with defaults and rejects negative ones.
func (p SearchParams) normalize() (SearchParams, error) {
	if p.Batch < 0 || p.TopK < 0 {
		return p, NewInvalidArgError("Search", fmt.Sprintf("batch %d and topk %d must be non-negative", p.Batch, p.TopK))
	}
	if p.Batch == 0 {
		p.Batch = DefaultBatch
	}
	if p.TopK == 0 {
		p.TopK = DefaultTopK
	}
	return p, nil
}

// Hit is one scored dataset row.
type Hit struct {
	Index int
	Score float32
}

// better orders hits by descending score, then ascending index.
func better(a, b Hit) bool {
	if a.Score != b.Score {
		return a.Score > b.Score
	}
	return a.Index < b.Index
}

// Search scores every query row against every dataset row with dot and
// returns the TopK best hits of each query, best first.
//
// Queries are processed Batch at a time; within a batch each dataset row is
// loaded once and scored against all queries of the batch.
func Search(queries, dataset *Matrix, params SearchParams, dot f32.DotFunc) [][]Hit {
	dim := queries.Cols
	qv, dv := queries.Float32(), dataset.Float32()
	k := min(params.TopK, dataset.Rows)
	batch := max(params.Batch, 1)

	results := make([][]Hit, queries.Rows)
	heaps := make([]topK, batch)
	for start := 0; start < queries.Rows; start += batch {
		end := min(start+batch, queries.Rows)
		for q := start; q < end; q++ {
			heaps[q-start].reset(k)
		}
		for j := 0; j < dataset.Rows; j++ {
			row := dv[j*dim : (j+1)*dim]
			for q := start; q < end; q++ {
				heaps[q-start].offer(Hit{Index: j, Score: dot(qv[q*dim:(q+1)*dim], row, dim)})
			}
		}
		for q := start; q < end; q++ {
			results[q] = heaps[q-start].sorted()
		}
	}
	return results
}

// topK keeps the k best hits seen so far. The root is the worst kept hit.
type topK struct {
	k    int
	hits []Hit
}

func (t *topK) Len() int           { return len(t.hits) }
func (t *topK) Less(i, j int) bool { return better(t.hits[j], t.hits[i]) }
func (t *topK) Swap(i, j int)      { t.hits[i], t.hits[j] = t.hits[j], t.hits[i] }
func (t *topK) Push(x any)         { t.hits = append(t.hits, x.(Hit)) }
func (t *topK) Pop() any {
	last := t.hits[len(t.hits)-1]
	t.hits = t.hits[:len(t.hits)-1]
	return last
}

func (t *topK) reset(k int) {
	t.k = k
	t.hits = t.hits[:0]
}

func (t *topK) offer(h Hit) {
	switch {
	case t.k <= 0:
	case len(t.hits) < t.k:
		heap.Push(t, h)
	case better(h, t.hits[0]):
		t.hits[0] = h
		heap.Fix(t, 0)
	}
}

func (t *topK) sorted() []Hit {
	out := slices.Clone(t.hits)
	slices.SortFunc(out, func(a, b Hit) int {
		if better(a, b) {
			return -1
		}
		if better(b, a) {
			return 1
		}
		return 0
	})
	return out
}
