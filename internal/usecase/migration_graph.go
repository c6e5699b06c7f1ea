package usecase

import (
	"sort"

	"github.com/samber/lo"
	"github.com/trebuchet-org/treb-migrate/internal/domain"
	"github.com/trebuchet-org/treb-migrate/internal/domain/models"
)

// MigrationPlan is the linearized set of migrations a run will execute
type MigrationPlan struct {
	// Order is every discovered migration in execution order
	Order []string
	// Pending are the migrations without a completion marker, in execution order
	Pending []models.Migration
	// Completed are the migrations skipped because their marker is set
	Completed []string
}

// Total returns the number of discovered migrations
func (p *MigrationPlan) Total() int {
	return len(p.Order)
}

// MigrationGraph is a directed acyclic graph of migrations
type MigrationGraph struct {
	nodes map[string]models.Migration
	index map[string]int      // discovery position
	edges map[string][]string // adjacency list: node -> list of dependents
	order []string
}

// NewMigrationGraph validates the discovered migrations and builds the graph.
// Duplicate names and dependencies on undiscovered migrations are rejected.
func NewMigrationGraph(discovered []models.Migration) (*MigrationGraph, error) {
	graph := &MigrationGraph{
		nodes: make(map[string]models.Migration, len(discovered)),
		index: make(map[string]int, len(discovered)),
		edges: make(map[string][]string),
	}

	for i, m := range discovered {
		if _, exists := graph.nodes[m.Name]; exists {
			return nil, &domain.GraphError{Kind: domain.GraphDuplicate, Migration: m.Name}
		}
		graph.nodes[m.Name] = m
		graph.index[m.Name] = i
		graph.order = append(graph.order, m.Name)
	}

	for _, name := range graph.order {
		for _, dep := range graph.nodes[name].Dependencies {
			if dep == name {
				return nil, &domain.GraphError{
					Kind:      domain.GraphCycle,
					Migration: name,
					Cycle:     []string{name, name},
				}
			}
			if _, exists := graph.nodes[dep]; !exists {
				return nil, &domain.GraphError{
					Kind:       domain.GraphMissingDependency,
					Migration:  name,
					Dependency: dep,
				}
			}
			graph.edges[dep] = append(graph.edges[dep], name)
		}
	}

	return graph, nil
}

// TopologicalSort returns every migration in execution order. Among
// migrations that are ready at the same time the one discovered first runs
// first, so the order is identical across runs.
func (g *MigrationGraph) TopologicalSort() ([]string, error) {
	inDegree := make(map[string]int, len(g.nodes))
	for _, name := range g.order {
		inDegree[name] = len(lo.Uniq(g.nodes[name].Dependencies))
	}

	var queue []string
	for _, name := range g.order {
		if inDegree[name] == 0 {
			queue = append(queue, name)
		}
	}

	var result []string
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		result = append(result, current)

		for _, dependent := range lo.Uniq(g.edges[current]) {
			inDegree[dependent]--
			if inDegree[dependent] == 0 {
				queue = append(queue, dependent)
				g.sortByDiscovery(queue)
			}
		}
	}

	if len(result) != len(g.nodes) {
		var cycle []string
		for _, name := range g.order {
			if inDegree[name] > 0 {
				cycle = append(cycle, name)
			}
		}
		return nil, &domain.GraphError{Kind: domain.GraphCycle, Migration: cycle[0], Cycle: cycle}
	}

	return result, nil
}

func (g *MigrationGraph) sortByDiscovery(names []string) {
	sort.SliceStable(names, func(i, j int) bool {
		return g.index[names[i]] < g.index[names[j]]
	})
}

// PlanMigrations orders the discovered migrations and drops those already
// complete. The whole discovered set is validated first so a broken graph
// fails the run before anything is submitted. Dependencies on complete
// migrations are satisfied.
func PlanMigrations(discovered []models.Migration, completed func(name string) bool) (*MigrationPlan, error) {
	graph, err := NewMigrationGraph(discovered)
	if err != nil {
		return nil, err
	}

	order, err := graph.TopologicalSort()
	if err != nil {
		return nil, err
	}

	plan := &MigrationPlan{Order: order}
	for _, name := range order {
		if completed != nil && completed(name) {
			plan.Completed = append(plan.Completed, name)
			continue
		}
		plan.Pending = append(plan.Pending, graph.nodes[name])
	}

	return plan, nil
}
