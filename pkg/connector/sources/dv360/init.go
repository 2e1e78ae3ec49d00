package dv360

import (
	"github.com/ajitpratap0/adreader/pkg/config"
	"github.com/ajitpratap0/adreader/pkg/connector/core"
	"github.com/ajitpratap0/adreader/pkg/connector/registry"
)

func init() {
	_ = registry.RegisterReader(ReaderName, func(cfg *config.Config) (core.Reader, error) {
		return NewReader(cfg), nil
	})
	registry.RegisterInfo(&registry.ConnectorInfo{
		Name:        ReaderName,
		Type:        core.ConnectorTypeReader,
		Description: "Display & Video 360 Structured Data Files",
		Streams:     []string{JSONStreamName, "sdf_<FileName>"},
	})
}
