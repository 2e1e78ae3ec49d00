package gsheets

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
		Description: "Google Sheets worksheet",
		Streams:     []string{StreamName},
	})
}
