package exporter

import (
	"context"
	"errors"
	"strings"

	"github.com/wonny/soywatch/backend/internal/contracts"
)

// Multi fans a result out to several exporters.
// Every exporter runs even when an earlier one fails.
type Multi struct {
	exporters []contracts.Exporter
}

// NewMulti creates a Multi over exporters, skipping nil entries
func NewMulti(exporters ...contracts.Exporter) *Multi {
	m := &Multi{}
	for _, e := range exporters {
		if e != nil {
			m.exporters = append(m.exporters, e)
		}
	}
	return m
}

// Len returns the number of exporters
func (m *Multi) Len() int {
	return len(m.exporters)
}

// Export runs every exporter and joins their destinations with ", "
func (m *Multi) Export(ctx context.Context, result *contracts.CollectionResult) (string, error) {
	var (
		destinations []string
		errs         []error
	)

	for _, e := range m.exporters {
		dest, err := e.Export(ctx, result)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		destinations = append(destinations, dest)
	}

	return strings.Join(destinations, ", "), errors.Join(errs...)
}
