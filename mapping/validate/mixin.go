package validate

import (
	"slices"
	"strings"

	"github.com/syssam/ormap/mapping"
	"github.com/syssam/ormap/reflection"
)

// MixinConfigurationValidator checks that the persistent mixins recorded
// when the classes were built are still the ones observed now.
type MixinConfigurationValidator struct {
	finder reflection.MixinFinder
}

// NewMixinConfigurationValidator returns a validator observing the current
// mixins with the given finder.
func NewMixinConfigurationValidator(finder reflection.MixinFinder) *MixinConfigurationValidator {
	return &MixinConfigurationValidator{finder: finder}
}

// Validate compares the recorded and the observed mixins of every class.
func (v *MixinConfigurationValidator) Validate(classes []*mapping.ClassDefinition) error {
	var violations []*mapping.ValidationError
	for _, cls := range classes {
		t := cls.Type()
		if t == nil {
			continue
		}
		added, removed := diffMixins(cls.PersistentMixins(), v.finder.PersistentMixins(t))
		if len(added) == 0 && len(removed) == 0 {
			continue
		}
		violations = append(violations, mapping.NewValidationError(cls.ID(), "", "persistent mixins changed after the mapping was built: added [%s], removed [%s]",
			strings.Join(added, ", "), strings.Join(removed, ", ")))
	}
	return mapping.NewValidationFailure(StageMixin, violations)
}

func diffMixins(recorded, current []*reflection.Type) (added, removed []string) {
	for _, t := range current {
		if !slices.Contains(recorded, t) {
			added = append(added, t.Name)
		}
	}
	for _, t := range recorded {
		if !slices.Contains(current, t) {
			removed = append(removed, t.Name)
		}
	}
	slices.Sort(added)
	slices.Sort(removed)
	return added, removed
}
