package validate

import (
	"context"
	"errors"
	"runtime"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/syssam/ormap/mapping"
)

// SortExpressionValidator parses the sort expressions of all collection end
// points. It must run on a frozen mapping since the parsed expressions are
// cached on the end points.
type SortExpressionValidator struct {
	workers int
}

// NewSortExpressionValidator returns a validator parsing up to workers
// expressions concurrently. A non-positive value uses GOMAXPROCS.
func NewSortExpressionValidator(workers int) *SortExpressionValidator {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &SortExpressionValidator{workers: workers}
}

// Validate parses every sort expression of the relations.
func (v *SortExpressionValidator) Validate(ctx context.Context, relations []*mapping.RelationDefinition) error {
	var (
		mu         sync.Mutex
		violations []*mapping.ValidationError
	)
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(v.workers)
	for _, rd := range relations {
		rd := rd
		for _, ep := range rd.EndPointDefinitions() {
			vep, ok := ep.(*mapping.VirtualRelationEndPoint)
			if !ok || vep.Cardinality() != mapping.Many || vep.SortExpressionText() == "" {
				continue
			}
			g.Go(func() error {
				if err := ctx.Err(); err != nil {
					return err
				}
				if _, err := vep.GetSortExpression(); err != nil {
					violation := relationViolation(rd, vep, "%s", reason(err))
					mu.Lock()
					violations = append(violations, violation)
					mu.Unlock()
				}
				return nil
			})
		}
	}
	if err := g.Wait(); err != nil {
		return err
	}
	sort.Slice(violations, func(i, j int) bool {
		return violations[i].Relation < violations[j].Relation
	})
	return mapping.NewValidationFailure(StageSortExpression, violations)
}

// reason strips the location prefixes of a nested mapping error.
func reason(err error) string {
	var me *mapping.MappingError
	if !errors.As(err, &me) {
		return err.Error()
	}
	msg := me.Message
	if me.Cause != nil {
		msg += ": " + reason(me.Cause)
	}
	return msg
}
