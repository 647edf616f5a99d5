package storage

import (
	"fmt"
	"maps"
	"pokedex/internal/models"
	"slices"
)

// constructors maps each storage type name to its backend.
var constructors = map[string]func(Config) (Storage, error){
	models.StorageTypeJSON:     func(c Config) (Storage, error) { return NewJSONStorage(c) },
	models.StorageTypeMemory:   func(c Config) (Storage, error) { return NewMemoryStorage(c) },
	models.StorageTypePostgres: func(c Config) (Storage, error) { return NewPostgresStorage(c) },
	models.StorageTypeSQLite:   func(c Config) (Storage, error) { return NewSQLiteStorage(c) },
}

// Factory creates the team store named by configuration.
type Factory struct{}

func NewFactory() *Factory {
	return &Factory{}
}

// Create opens the backend named by config.Type. The json backend reads its
// cache TTL from the "cache_ttl" option; database backends use
// config.Database.
func (f *Factory) Create(config models.StorageConfig) (Storage, error) {
	newStorage, ok := constructors[config.Type]
	if !ok {
		return nil, fmt.Errorf("unsupported storage type: %s", config.Type)
	}

	return newStorage(Config{
		Type:             config.Type,
		Path:             config.Path,
		ConnectionString: config.Database.DSN,
		MaxOpenConns:     config.Database.MaxOpenConns,
		MaxIdleConns:     config.Database.MaxIdleConns,
		ConnMaxLifetime:  config.Database.ConnMaxLifetime,
		CacheTTL:         config.Options["cache_ttl"],
	})
}

// GetSupportedProviders lists the storage types Create accepts, sorted.
func (f *Factory) GetSupportedProviders() []string {
	return slices.Sorted(maps.Keys(constructors))
}
