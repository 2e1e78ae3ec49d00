// Package base provides the pieces shared by every adreader connector:
// BaseConnector carries identity, configuration and a scoped logger;
// RetryPolicy implements capped exponential backoff; ProgressReporter logs
// byte transfers.
//
// Connectors embed BaseConnector:
//
//	type Reader struct {
//	    *base.BaseConnector
//	    // connector-specific fields
//	}
//
//	func NewReader(cfg *config.Config) *Reader {
//	    return &Reader{
//	        BaseConnector: base.NewBaseConnector("dv360", core.ConnectorTypeReader, cfg),
//	    }
//	}
package base

import (
	"context"
	"sync"

	"github.com/ajitpratap0/adreader/pkg/config"
	"github.com/ajitpratap0/adreader/pkg/connector/core"
	"github.com/ajitpratap0/adreader/pkg/errors"
	"github.com/ajitpratap0/adreader/pkg/logger"
	"go.uber.org/zap"
)

// BaseConnector provides common functionality for all connectors.
type BaseConnector struct {
	name          string
	connectorType core.ConnectorType
	config        *config.Config
	logger        *zap.Logger
	httpRetry     *RetryPolicy

	closers []func(context.Context) error
	mu      sync.Mutex
	closed  bool
}

// NewBaseConnector creates a base connector bound to cfg.
func NewBaseConnector(name string, connectorType core.ConnectorType, cfg *config.Config) *BaseConnector {
	if cfg == nil {
		cfg = config.NewDefault()
	}
	return &BaseConnector{
		name:          name,
		connectorType: connectorType,
		config:        cfg,
		logger: logger.With(
			zap.String("connector", name),
			zap.String("connector_type", string(connectorType))),
		httpRetry: HTTPPolicyFromConfig(cfg.Reliability),
	}
}

// Name returns the connector name
func (bc *BaseConnector) Name() string {
	return bc.name
}

// Type returns the connector type
func (bc *BaseConnector) Type() core.ConnectorType {
	return bc.connectorType
}

// GetLogger returns the connector's logger
func (bc *BaseConnector) GetLogger() *zap.Logger {
	return bc.logger
}

// GetConfig returns the run configuration
func (bc *BaseConnector) GetConfig() *config.Config {
	return bc.config
}

// HTTPRetryPolicy returns the policy for transient API failures
func (bc *BaseConnector) HTTPRetryPolicy() *RetryPolicy {
	return bc.httpRetry
}

// SetHTTPRetryPolicy replaces the policy for transient API failures
func (bc *BaseConnector) SetHTTPRetryPolicy(p *RetryPolicy) {
	bc.httpRetry = p
}

// ExecuteWithRetry runs fn, retrying errors marked retryable
func (bc *BaseConnector) ExecuteWithRetry(ctx context.Context, fn func() error) error {
	return bc.httpRetry.ExecuteWithCondition(ctx, fn, errors.IsRetryable)
}

// OnClose registers a cleanup run by Close in reverse order
func (bc *BaseConnector) OnClose(fn func(context.Context) error) {
	bc.mu.Lock()
	defer bc.mu.Unlock()
	bc.closers = append(bc.closers, fn)
}

// Close runs registered cleanups once and returns the first error
func (bc *BaseConnector) Close(ctx context.Context) error {
	bc.mu.Lock()
	if bc.closed {
		bc.mu.Unlock()
		return nil
	}
	bc.closed = true
	closers := bc.closers
	bc.closers = nil
	bc.mu.Unlock()

	var firstErr error
	for i := len(closers) - 1; i >= 0; i-- {
		if err := closers[i](ctx); err != nil {
			bc.logger.Warn("cleanup failed", zap.Error(err))
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	bc.logger.Debug("connector closed")
	return firstErr
}
