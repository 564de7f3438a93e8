package nodename

import (
	"encoding/json"
	"errors"
	"testing"
)

func must(n NodeName, err error) NodeName {
	if err != nil {
		panic(err)
	}
	return n
}

func TestLeftRightChild(t *testing.T) {
	if got, want := must(Root.Left()), must(New(1, 0)); got != want {
		t.Errorf("Root.Left() = %v, want %v", got, want)
	}
	if got, want := must(Root.Right()), must(New(1, 1)); got != want {
		t.Errorf("Root.Right() = %v, want %v", got, want)
	}
}

func TestNewRejectsOverlongLength(t *testing.T) {
	if _, err := New(Depth+1, 0); !errors.Is(err, ErrLengthExceedsDepth) {
		t.Errorf("New(Depth+1, 0): err = %v, want ErrLengthExceedsDepth", err)
	}
}

func TestWalk(t *testing.T) {
	node := must(must(must(Root.Left()).Right()).Right())
	walk := node.Walk()
	want := []NodeName{
		must(Root.Left()),
		must(must(Root.Left()).Right()),
		must(must(must(Root.Left()).Right()).Right()),
	}
	if len(walk) != len(want) {
		t.Fatalf("Walk() length = %d, want %d", len(walk), len(want))
	}
	for i := range want {
		if walk[i] != want[i] {
			t.Errorf("Walk()[%d] = %v, want %v", i, walk[i], want[i])
		}
	}
}

func TestWalkOnLeafEndsAtLeaf(t *testing.T) {
	leaf := Number(0xDEADBEEF)
	walk := leaf.Walk()
	if len(walk) != Depth {
		t.Fatalf("Walk() length = %d, want %d", len(walk), Depth)
	}
	if walk[len(walk)-1] != leaf {
		t.Errorf("Walk() last element = %v, want %v", walk[len(walk)-1], leaf)
	}
}

func TestContains(t *testing.T) {
	if !Root.Contains(Root) {
		t.Error("Root should contain itself")
	}
	if !Root.Contains(must(Root.Left())) {
		t.Error("Root should contain its left child")
	}
	if !Root.Contains(must(must(Root.Right()).Left())) {
		t.Error("Root should contain its grandchild")
	}
	if !must(Root.Left()).Contains(must(must(Root.Left()).Left())) {
		t.Error("Root.Left() should contain its own left child")
	}
	if must(Root.Left()).Contains(Root) {
		t.Error("Root.Left() should not contain the root")
	}
	if must(Root.Left()).Contains(must(Root.Right())) {
		t.Error("Root.Left() should not contain Root.Right()")
	}
}

func TestContainsReflexiveTransitive(t *testing.T) {
	a := must(Root.Left())
	b := must(a.Right())
	c := must(b.Left())
	if !a.Contains(a) || !b.Contains(b) || !c.Contains(c) {
		t.Error("Contains should be reflexive")
	}
	if !(a.Contains(b) && b.Contains(c) && a.Contains(c)) {
		t.Error("Contains should be transitive")
	}
}

func TestNumberRoundTrip(t *testing.T) {
	for _, x := range []uint64{0, 1, 0xDEADCAFE, ^uint64(0)} {
		// Only the low Depth bits survive canonicalization.
		want := x & (uint64(1)<<Depth - 1)
		if got := Number(x).Path(); got != want {
			t.Errorf("Number(%#x).Path() = %#x, want %#x", x, got, want)
		}
	}
}

func TestSubtreeSize(t *testing.T) {
	if got, want := Root.SubtreeSize(), uint64(1)<<Depth; got != want {
		t.Errorf("Root.SubtreeSize() = %d, want %d", got, want)
	}
	leaf := Number(0)
	if got, want := leaf.SubtreeSize(), uint64(1); got != want {
		t.Errorf("leaf.SubtreeSize() = %d, want %d", got, want)
	}
}

func TestParentOfRootReturnsError(t *testing.T) {
	if _, err := Root.Parent(); !errors.Is(err, ErrParentOfRoot) {
		t.Errorf("Root.Parent(): err = %v, want ErrParentOfRoot", err)
	}
}

func TestChildOfLeafReturnsError(t *testing.T) {
	leaf := Number(0)
	if _, err := leaf.Left(); !errors.Is(err, ErrChildOfLeaf) {
		t.Errorf("leaf.Left(): err = %v, want ErrChildOfLeaf", err)
	}
	if _, err := leaf.Right(); !errors.Is(err, ErrChildOfLeaf) {
		t.Errorf("leaf.Right(): err = %v, want ErrChildOfLeaf", err)
	}
}

func TestIdentityVectorLength(t *testing.T) {
	n := must(must(must(Root.Left()).Right()).Left())
	vec := IdentityVector(n)
	if len(vec) != int(n.Length()) {
		t.Fatalf("IdentityVector length = %d, want %d", len(vec), n.Length())
	}
}

func TestJSONRoundTrip(t *testing.T) {
	n := must(must(must(Root.Left()).Right()).Left())
	data, err := json.Marshal(n)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var got NodeName
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if got != n {
		t.Errorf("round trip = %v, want %v", got, n)
	}
}

func TestIdentityVectorMatchesAlphabet(t *testing.T) {
	alphabet := IdentityAlphabet()
	n := must(Root.Left()) // path bit 0 -> H(0)
	vec := IdentityVector(n)
	if vec[0] != alphabet[0] {
		t.Error("left child's identity element should be H(0)")
	}
	n = must(Root.Right()) // path bit 1 -> H(1)
	vec = IdentityVector(n)
	if vec[0] != alphabet[1] {
		t.Error("right child's identity element should be H(1)")
	}
}
