// Package registry maps connector names to factories. Readers and writers
// register themselves from their package init functions.
package registry

import (
	"fmt"
	"sort"
	"sync"

	"github.com/ajitpratap0/adreader/pkg/config"
	"github.com/ajitpratap0/adreader/pkg/connector/core"
	"github.com/ajitpratap0/adreader/pkg/errors"
	"github.com/ajitpratap0/adreader/pkg/logger"
	"go.uber.org/zap"
)

// ReaderFactory creates a reader from the run configuration
type ReaderFactory func(cfg *config.Config) (core.Reader, error)

// WriterFactory creates a writer from the run configuration
type WriterFactory func(cfg *config.Config) (core.Writer, error)

// Registry manages connector registration and instantiation
type Registry struct {
	readers map[string]ReaderFactory
	writers map[string]WriterFactory
	info    map[string]*ConnectorInfo
	mu      sync.RWMutex
	logger  *zap.Logger
}

// ConnectorInfo describes a registered connector
type ConnectorInfo struct {
	Name        string             `json:"name"`
	Type        core.ConnectorType `json:"type"`
	Description string             `json:"description"`
	// Streams lists the stream names or name patterns the reader emits
	Streams []string `json:"streams,omitempty"`
}

// Global registry instance
var globalRegistry = NewRegistry()

// NewRegistry creates a new connector registry
func NewRegistry() *Registry {
	return &Registry{
		readers: make(map[string]ReaderFactory),
		writers: make(map[string]WriterFactory),
		info:    make(map[string]*ConnectorInfo),
		logger:  logger.Get().With(zap.String("component", "connector_registry")),
	}
}

// RegisterReader registers a reader factory
func (r *Registry) RegisterReader(name string, factory ReaderFactory) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.readers[name]; exists {
		return errors.New(errors.ErrorTypeConfig, fmt.Sprintf("reader %s already registered", name))
	}

	r.readers[name] = factory
	r.logger.Debug("reader registered", zap.String("name", name))
	return nil
}

// RegisterWriter registers a writer factory
func (r *Registry) RegisterWriter(name string, factory WriterFactory) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.writers[name]; exists {
		return errors.New(errors.ErrorTypeConfig, fmt.Sprintf("writer %s already registered", name))
	}

	r.writers[name] = factory
	r.logger.Debug("writer registered", zap.String("name", name))
	return nil
}

// RegisterInfo records descriptive metadata for a connector
func (r *Registry) RegisterInfo(info *ConnectorInfo) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.info[string(info.Type)+"/"+info.Name] = info
}

// CreateReader creates a reader instance
func (r *Registry) CreateReader(name string, cfg *config.Config) (core.Reader, error) {
	r.mu.RLock()
	factory, exists := r.readers[name]
	r.mu.RUnlock()

	if !exists {
		return nil, errors.Newf(errors.ErrorTypeConfig, "reader %s not found, available: %v", name, r.ListReaders())
	}

	reader, err := factory(cfg)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConfig, fmt.Sprintf("failed to create reader %s", name))
	}

	return reader, nil
}

// CreateWriter creates a writer instance
func (r *Registry) CreateWriter(name string, cfg *config.Config) (core.Writer, error) {
	r.mu.RLock()
	factory, exists := r.writers[name]
	r.mu.RUnlock()

	if !exists {
		return nil, errors.Newf(errors.ErrorTypeConfig, "writer %s not found, available: %v", name, r.ListWriters())
	}

	writer, err := factory(cfg)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConfig, fmt.Sprintf("failed to create writer %s", name))
	}

	return writer, nil
}

// ListReaders returns the sorted names of registered readers
func (r *Registry) ListReaders() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.readers))
	for name := range r.readers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ListWriters returns the sorted names of registered writers
func (r *Registry) ListWriters() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.writers))
	for name := range r.writers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Info returns the metadata registered for a connector, if any
func (r *Registry) Info(connectorType core.ConnectorType, name string) (*ConnectorInfo, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	info, ok := r.info[string(connectorType)+"/"+name]
	return info, ok
}

// HasReader checks if a reader is registered
func (r *Registry) HasReader(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, exists := r.readers[name]
	return exists
}

// HasWriter checks if a writer is registered
func (r *Registry) HasWriter(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, exists := r.writers[name]
	return exists
}

// Clear removes all registered connectors (mainly for testing)
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.readers = make(map[string]ReaderFactory)
	r.writers = make(map[string]WriterFactory)
	r.info = make(map[string]*ConnectorInfo)
}

// Global registry functions

// RegisterReader registers a reader in the global registry
func RegisterReader(name string, factory ReaderFactory) error {
	return globalRegistry.RegisterReader(name, factory)
}

// RegisterWriter registers a writer in the global registry
func RegisterWriter(name string, factory WriterFactory) error {
	return globalRegistry.RegisterWriter(name, factory)
}

// RegisterInfo records connector metadata in the global registry
func RegisterInfo(info *ConnectorInfo) {
	globalRegistry.RegisterInfo(info)
}

// CreateReader creates a reader from the global registry
func CreateReader(name string, cfg *config.Config) (core.Reader, error) {
	return globalRegistry.CreateReader(name, cfg)
}

// CreateWriter creates a writer from the global registry
func CreateWriter(name string, cfg *config.Config) (core.Writer, error) {
	return globalRegistry.CreateWriter(name, cfg)
}

// ListReaders returns registered readers from the global registry
func ListReaders() []string {
	return globalRegistry.ListReaders()
}

// ListWriters returns registered writers from the global registry
func ListWriters() []string {
	return globalRegistry.ListWriters()
}

// GetRegistry returns the global registry instance
func GetRegistry() *Registry {
	return globalRegistry
}
