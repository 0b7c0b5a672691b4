package graph

import (
	"errors"
	"reflect"
	"testing"
)

func TestOrder(t *testing.T) {
	tests := []struct {
		name      string
		nodes     []string
		edges     []Edge
		selection []string
		want      [][]string
	}{
		{
			name:      "independent packages share one level",
			nodes:     []string{"c", "a", "b"},
			selection: []string{"c", "a", "b"},
			want:      [][]string{{"a", "b", "c"}},
		},
		{
			name:  "chain",
			nodes: []string{"app", "core", "util"},
			edges: []Edge{
				{From: "app", To: "core"},
				{From: "core", To: "util"},
			},
			selection: []string{"app", "core", "util"},
			want:      [][]string{{"util"}, {"core"}, {"app"}},
		},
		{
			name:  "diamond",
			nodes: []string{"top", "left", "right", "base"},
			edges: []Edge{
				{From: "top", To: "left"},
				{From: "top", To: "right"},
				{From: "left", To: "base"},
				{From: "right", To: "base", Kind: KindBuild},
			},
			selection: []string{"top", "left", "right", "base"},
			want:      [][]string{{"base"}, {"left", "right"}, {"top"}},
		},
		{
			name:  "dev edges are ignored",
			nodes: []string{"a", "b"},
			edges: []Edge{
				{From: "a", To: "b"},
				{From: "b", To: "a", Kind: KindDev},
			},
			selection: []string{"a", "b"},
			want:      [][]string{{"b"}, {"a"}},
		},
		{
			name:  "dependencies outside the selection are ignored",
			nodes: []string{"a", "b", "c"},
			edges: []Edge{
				{From: "a", To: "b"},
				{From: "b", To: "c"},
			},
			selection: []string{"a", "c"},
			want:      [][]string{{"a", "c"}},
		},
		{
			name:  "edges to unknown packages are ignored",
			nodes: []string{"a"},
			edges: []Edge{
				{From: "a", To: "external"},
			},
			selection: []string{"a"},
			want:      [][]string{{"a"}},
		},
		{
			name:  "optional edges order",
			nodes: []string{"a", "b"},
			edges: []Edge{
				{From: "b", To: "a", Kind: KindOptional},
			},
			selection: []string{"a", "b"},
			want:      [][]string{{"a"}, {"b"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := New(tt.nodes, tt.edges)
			got, err := g.Order(tt.selection)
			if err != nil {
				t.Fatalf("Order failed: %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Order = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestOrder_DependenciesComeFirst(t *testing.T) {
	edges := []Edge{
		{From: "e", To: "d"},
		{From: "d", To: "b"},
		{From: "c", To: "a"},
		{From: "d", To: "c"},
		{From: "b", To: "a"},
	}
	g := New([]string{"a", "b", "c", "d", "e"}, edges)

	groups, err := g.Order([]string{"e", "d", "c", "b", "a"})
	if err != nil {
		t.Fatalf("Order failed: %v", err)
	}

	pos := make(map[string]int)
	for i, name := range Flatten(groups) {
		pos[name] = i
	}
	for _, e := range edges {
		if pos[e.To] >= pos[e.From] {
			t.Errorf("%s must come before %s in %v", e.To, e.From, groups)
		}
	}
}

func TestOrder_Cycle(t *testing.T) {
	g := New([]string{"a", "b", "c", "d"}, []Edge{
		{From: "a", To: "b"},
		{From: "b", To: "c"},
		{From: "c", To: "a"},
		{From: "d", To: "a"},
	})

	_, err := g.Order([]string{"a", "b", "c", "d"})
	if !errors.Is(err, ErrCycleDetected) {
		t.Fatalf("expected ErrCycleDetected, got %v", err)
	}

	var ce *CycleError
	if !errors.As(err, &ce) {
		t.Fatalf("expected *CycleError, got %T", err)
	}
	want := []string{"a", "b", "c", "a"}
	if !reflect.DeepEqual(ce.Cycle, want) {
		t.Errorf("Cycle = %v, want %v", ce.Cycle, want)
	}
	if err.Error() != "dependency cycle detected: a -> b -> c -> a" {
		t.Errorf("unexpected message: %s", err)
	}
}

func TestOrder_SelfLoop(t *testing.T) {
	g := New([]string{"a"}, []Edge{{From: "a", To: "a"}})

	_, err := g.Order([]string{"a"})
	var ce *CycleError
	if !errors.As(err, &ce) {
		t.Fatalf("expected *CycleError, got %v", err)
	}
	if !reflect.DeepEqual(ce.Cycle, []string{"a", "a"}) {
		t.Errorf("Cycle = %v", ce.Cycle)
	}
}

func TestOrder_CycleOutsideSelectionIsIgnored(t *testing.T) {
	g := New([]string{"a", "b", "c"}, []Edge{
		{From: "a", To: "b"},
		{From: "b", To: "a"},
	})

	got, err := g.Order([]string{"a", "c"})
	if err != nil {
		t.Fatalf("Order failed: %v", err)
	}
	if !reflect.DeepEqual(got, [][]string{{"a", "c"}}) {
		t.Errorf("Order = %v", got)
	}
}

func TestOrder_UnknownSelection(t *testing.T) {
	g := New([]string{"a"}, nil)

	if _, err := g.Order([]string{"missing"}); !errors.Is(err, ErrUnknownNode) {
		t.Fatalf("expected ErrUnknownNode, got %v", err)
	}
}

func TestOrder_Deterministic(t *testing.T) {
	edges := []Edge{{From: "x", To: "m"}, {From: "y", To: "m"}, {From: "z", To: "n"}}
	first, err := New([]string{"x", "y", "z", "m", "n"}, edges).Order([]string{"z", "y", "x", "n", "m"})
	if err != nil {
		t.Fatalf("Order failed: %v", err)
	}
	second, err := New([]string{"n", "m", "z", "y", "x"}, []Edge{edges[2], edges[1], edges[0]}).Order([]string{"m", "n", "x", "y", "z"})
	if err != nil {
		t.Fatalf("Order failed: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Errorf("ordering depends on input order: %v vs %v", first, second)
	}
}

func TestDependentsAndDependencies(t *testing.T) {
	g := New([]string{"app", "cli", "core", "testkit"}, []Edge{
		{From: "app", To: "core"},
		{From: "cli", To: "core"},
		{From: "app", To: "core"},
		{From: "core", To: "testkit", Kind: KindDev},
	})

	if got := g.Dependents("core"); !reflect.DeepEqual(got, []string{"app", "cli"}) {
		t.Errorf("Dependents(core) = %v", got)
	}
	if got := g.Dependencies("app"); !reflect.DeepEqual(got, []string{"core"}) {
		t.Errorf("Dependencies(app) = %v", got)
	}
	if got := g.Dependencies("core"); len(got) != 0 {
		t.Errorf("dev edge should be dropped, got %v", got)
	}
	if g.Dependents("missing") != nil {
		t.Error("expected nil for unknown package")
	}
}
