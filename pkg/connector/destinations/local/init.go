package local

import (
	"github.com/ajitpratap0/adreader/pkg/config"
	"github.com/ajitpratap0/adreader/pkg/connector/core"
	"github.com/ajitpratap0/adreader/pkg/connector/registry"
)

func init() {
	_ = registry.RegisterWriter(WriterName, func(cfg *config.Config) (core.Writer, error) {
		return NewWriter(cfg)
	})
	_ = registry.RegisterWriter(ConsoleWriterName, func(cfg *config.Config) (core.Writer, error) {
		return NewConsoleWriter(cfg), nil
	})
	registry.RegisterInfo(&registry.ConnectorInfo{
		Name:        WriterName,
		Type:        core.ConnectorTypeWriter,
		Description: "Files in a local directory, optionally gzip or zstd compressed",
	})
	registry.RegisterInfo(&registry.ConnectorInfo{
		Name:        ConsoleWriterName,
		Type:        core.ConnectorTypeWriter,
		Description: "Standard output",
	})
}
