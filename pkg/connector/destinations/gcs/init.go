package gcs

import (
	"github.com/ajitpratap0/adreader/pkg/config"
	"github.com/ajitpratap0/adreader/pkg/connector/core"
	"github.com/ajitpratap0/adreader/pkg/connector/registry"
)

func init() {
	_ = registry.RegisterWriter(WriterName, func(cfg *config.Config) (core.Writer, error) {
		return NewWriter(cfg)
	})
	registry.RegisterInfo(&registry.ConnectorInfo{
		Name:        WriterName,
		Type:        core.ConnectorTypeWriter,
		Description: "Google Cloud Storage objects",
	})
}
