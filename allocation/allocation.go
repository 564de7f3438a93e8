// Package allocation partitions the identity tree among a set of relays in
// proportion to their consensus weight, using a greedy binary-buddy split:
// whichever request currently carries the most weight claims the largest
// free cell it can still absorb, and any cell too large for the heaviest
// remaining request is split into its two children.
package allocation

import (
	"bytes"
	"container/heap"
	"fmt"
	"math/big"
	"sort"

	"github.com/kit-ps/aimless-onions-go/nodename"
)

// weightSpaceSize is 2^nodename.Depth, the unit every request's weight is
// normalized against before allocation.
var weightSpaceSize = new(big.Int).Lsh(big.NewInt(1), nodename.Depth)

// AllocationRequest is one relay's bid for tree space: Weight is its
// consensus weight, and Key exists purely to make the allocation
// deterministic when weights tie.
type AllocationRequest struct {
	ID     uint32
	Key    [16]byte
	Weight uint64
}

// Allocation is the set of subtree roots assigned to one request's ID.
type Allocation struct {
	ID    uint32
	Nodes []nodename.NodeName
}

type normalizedRequest struct {
	id     uint32
	key    [16]byte
	weight uint64
}

// requestHeap is a max-heap over normalizedRequest ordered primarily by
// weight, and by key then id on a tie, so the allocation a given set of
// requests produces never depends on map iteration order.
type requestHeap []normalizedRequest

func (h requestHeap) Len() int { return len(h) }

func (h requestHeap) Less(i, j int) bool {
	if h[i].weight != h[j].weight {
		return h[i].weight > h[j].weight
	}
	if cmp := bytes.Compare(h[i].key[:], h[j].key[:]); cmp != 0 {
		return cmp < 0
	}
	return h[i].id < h[j].id
}

func (h requestHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *requestHeap) Push(x any) { *h = append(*h, x.(normalizedRequest)) }

func (h *requestHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// Allocate partitions the tree among requests. Every request with nonzero
// weight ends up owning a disjoint set of subtree roots whose total leaf
// count is, up to rounding, proportional to its share of the total weight.
func Allocate(requests []AllocationRequest) ([]Allocation, error) {
	sorted := append([]AllocationRequest(nil), requests...)
	sort.Slice(sorted, func(i, j int) bool {
		return bytes.Compare(sorted[i].Key[:], sorted[j].Key[:]) < 0
	})

	var sumWeight uint64
	for _, r := range sorted {
		sumWeight += r.Weight
	}

	allocations := make(map[uint32]*Allocation, len(sorted))
	pending := make(requestHeap, 0, len(sorted))
	for _, r := range sorted {
		allocations[r.ID] = &Allocation{ID: r.ID}

		var normalized uint64
		if sumWeight > 0 {
			n := new(big.Int).Mul(weightSpaceSize, new(big.Int).SetUint64(r.Weight))
			n.Div(n, new(big.Int).SetUint64(sumWeight))
			normalized = n.Uint64()
		}
		pending = append(pending, normalizedRequest{id: r.ID, key: r.Key, weight: normalized})
	}
	heap.Init(&pending)

	freeCells := []nodename.NodeName{nodename.Root}
	cellSize := nodename.Root.SubtreeSize()

	for pending.Len() > 0 {
		largest := heap.Pop(&pending).(normalizedRequest)
		if largest.weight == 0 {
			break
		}

		if largest.weight < cellSize {
			cellSize /= 2
			next := make([]nodename.NodeName, 0, len(freeCells)*2)
			for _, cell := range freeCells {
				left, err := cell.Left()
				if err != nil {
					return nil, fmt.Errorf("allocate: %w", err)
				}
				right, err := cell.Right()
				if err != nil {
					return nil, fmt.Errorf("allocate: %w", err)
				}
				next = append(next, left, right)
			}
			freeCells = next
		} else {
			largest.weight -= cellSize
			n := len(freeCells) - 1
			cell := freeCells[n]
			freeCells = freeCells[:n]
			allocations[largest.id].Nodes = append(allocations[largest.id].Nodes, cell)
		}
		heap.Push(&pending, largest)
	}

	out := make([]Allocation, 0, len(allocations))
	for _, a := range allocations {
		out = append(out, *a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}
