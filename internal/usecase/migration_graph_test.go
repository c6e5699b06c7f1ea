package usecase

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trebuchet-org/treb-migrate/internal/domain"
	"github.com/trebuchet-org/treb-migrate/internal/domain/models"
)

func migration(name string, deps ...string) models.Migration {
	return models.Migration{Name: name, Dependencies: deps}
}

func pendingNames(plan *MigrationPlan) []string {
	names := make([]string, len(plan.Pending))
	for i, m := range plan.Pending {
		names[i] = m.Name
	}
	return names
}

func TestPlanMigrations_Order(t *testing.T) {
	tests := []struct {
		name       string
		discovered []models.Migration
		want       []string
	}{
		{
			name:       "independent migrations keep discovery order",
			discovered: []models.Migration{migration("c"), migration("a"), migration("b")},
			want:       []string{"c", "a", "b"},
		},
		{
			name: "dependency runs first",
			discovered: []models.Migration{
				migration("0002_multiply", "0001_library"),
				migration("0001_library"),
			},
			want: []string{"0001_library", "0002_multiply"},
		},
		{
			name: "diamond",
			discovered: []models.Migration{
				migration("top", "left", "right"),
				migration("right", "base"),
				migration("left", "base"),
				migration("base"),
			},
			want: []string{"base", "right", "left", "top"},
		},
		{
			name: "repeated dependency",
			discovered: []models.Migration{
				migration("b", "a", "a"),
				migration("a"),
			},
			want: []string{"a", "b"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan, err := PlanMigrations(tt.discovered, nil)
			require.NoError(t, err)
			assert.Equal(t, tt.want, pendingNames(plan))
			assert.Equal(t, tt.want, plan.Order)
			assert.Empty(t, plan.Completed)
		})
	}
}

func TestPlanMigrations_SkipsCompleted(t *testing.T) {
	discovered := []models.Migration{
		migration("0001_library"),
		migration("0002_multiply", "0001_library"),
		migration("0003_register", "0002_multiply"),
	}
	completed := map[string]bool{"0001_library": true}

	plan, err := PlanMigrations(discovered, func(name string) bool { return completed[name] })
	require.NoError(t, err)

	assert.Equal(t, []string{"0002_multiply", "0003_register"}, pendingNames(plan))
	assert.Equal(t, []string{"0001_library"}, plan.Completed)
	assert.Equal(t, 3, plan.Total())
}

func TestPlanMigrations_Deterministic(t *testing.T) {
	discovered := []models.Migration{
		migration("e", "a"), migration("d", "a"), migration("c"), migration("b", "c"), migration("a"),
	}

	first, err := PlanMigrations(discovered, nil)
	require.NoError(t, err)
	for i := 0; i < 20; i++ {
		again, err := PlanMigrations(discovered, nil)
		require.NoError(t, err)
		assert.Equal(t, first.Order, again.Order)
	}
}

func TestPlanMigrations_Errors(t *testing.T) {
	tests := []struct {
		name       string
		discovered []models.Migration
		kind       domain.GraphErrorKind
	}{
		{
			name:       "cycle",
			discovered: []models.Migration{migration("a", "b"), migration("b", "a"), migration("c")},
			kind:       domain.GraphCycle,
		},
		{
			name:       "self dependency",
			discovered: []models.Migration{migration("a", "a")},
			kind:       domain.GraphCycle,
		},
		{
			name:       "dangling dependency",
			discovered: []models.Migration{migration("a", "missing")},
			kind:       domain.GraphMissingDependency,
		},
		{
			name:       "duplicate name",
			discovered: []models.Migration{migration("a"), migration("a")},
			kind:       domain.GraphDuplicate,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// completion of every migration must not hide a broken graph
			plan, err := PlanMigrations(tt.discovered, func(string) bool { return true })
			assert.Nil(t, plan)

			var graphErr *domain.GraphError
			require.True(t, errors.As(err, &graphErr), "got %v", err)
			assert.Equal(t, tt.kind, graphErr.Kind)
		})
	}
}

func TestPlanMigrations_CycleMembers(t *testing.T) {
	_, err := PlanMigrations([]models.Migration{
		migration("root"),
		migration("x", "root", "z"),
		migration("y", "x"),
		migration("z", "y"),
	}, nil)

	var graphErr *domain.GraphError
	require.True(t, errors.As(err, &graphErr))
	assert.Equal(t, []string{"x", "y", "z"}, graphErr.Cycle)
}
