package productdata

import (
	"context"
	"os"
	"sync"

	"github.com/goccy/go-yaml"
	"github.com/mitchellh/mapstructure"

	"github.com/prodpulse/knowledgesync/errors"
)

type (
	// FileStore serves tenant records from a YAML fixture file. It backs the
	// CLI's offline mode and tests; production deployments talk to the
	// platform API instead.
	FileStore struct {
		mu      sync.RWMutex
		tenants map[string]fileTenant
	}

	fileTenant struct {
		Instructions string                      `yaml:"instructions"`
		Records      map[string][]map[string]any `yaml:"records"`
	}

	fileRoot struct {
		Tenants map[string]fileTenant `yaml:"tenants"`
	}
)

var (
	_ Store    = (*FileStore)(nil)
	_ Settings = (*FileStore)(nil)
)

// NewFileStore loads a tenant fixture file. The expected layout is:
//
//	tenants:
//	  <tenant-id>:
//	    instructions: <free text>
//	    records:
//	      features:
//	        - id: feat-1
//	          title: Dark mode
//	          status: planned
func NewFileStore(path string) (*FileStore, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read product data file %s", path)
	}

	var root fileRoot
	if err := yaml.Unmarshal(raw, &root); err != nil {
		return nil, errors.Wrapf(err, "failed to unmarshal product data file %s", path)
	}

	if root.Tenants == nil {
		root.Tenants = map[string]fileTenant{}
	}

	return &FileStore{tenants: root.Tenants}, nil
}

func (s *FileStore) GetRecordsByType(ctx context.Context, tenantID string, recordType RecordType) FetchResult {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tenant, ok := s.tenants[tenantID]
	if !ok {
		return Success(nil)
	}

	records := make([]Record, 0, len(tenant.Records[string(recordType)]))
	for _, raw := range tenant.Records[string(recordType)] {
		var record Record
		if err := mapstructure.Decode(raw, &record); err != nil {
			return Failure(errors.Wrapf(err, "failed to decode %s record", recordType))
		}
		records = append(records, record)
	}

	return Success(records)
}

func (s *FileStore) GetAssistantInstructions(ctx context.Context, tenantID string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tenant, ok := s.tenants[tenantID]
	if !ok {
		return "", nil
	}
	return tenant.Instructions, nil
}
