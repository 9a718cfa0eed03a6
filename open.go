package ormap

import (
	"github.com/syssam/ormap/config"
	"github.com/syssam/ormap/load"
	"github.com/syssam/ormap/mapping"
	"github.com/syssam/ormap/persistence/rdbms"
	"github.com/syssam/ormap/reflection"
)

// Open loads the descriptor files of the settings and builds a
// configuration stored in relational tables. Options override the
// settings.
func Open(s *config.Settings, opts ...Option) (*Configuration, error) {
	o, err := settingsOptions(s, opts)
	if err != nil {
		return nil, err
	}
	return open(s, o)
}

func settingsOptions(s *config.Settings, opts []Option) (*options, error) {
	log, err := s.Logger()
	if err != nil {
		return nil, err
	}
	base := []Option{
		WithLogger(log),
		WithSortExpressionWorkers(s.Validation.SortWorkers),
	}
	if s.Validation.Mixins {
		base = append(base, WithMixinFinder(reflection.DeclaredMixins{}))
	}
	return newOptions(append(base, opts...)), nil
}

func open(s *config.Settings, o *options) (*Configuration, error) {
	var lopts []load.Option
	if s.Naming.PluralizeEntityNames {
		lopts = append(lopts, load.WithPluralizedEntityNames())
	}
	model, err := load.Files(s.Descriptors, lopts...)
	if err != nil {
		return nil, err
	}
	persistence := rdbms.NewLoader(
		rdbms.WithSchema(s.Storage.Schema),
		rdbms.WithLogger(o.log),
	)
	return build(mapping.NewModelReflector(model), persistence, o)
}
