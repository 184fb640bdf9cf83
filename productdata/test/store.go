package productdatatest

import (
	"context"
	"sync"

	"github.com/prodpulse/knowledgesync/productdata"
)

// Store is an in-memory product data source for tests. Individual record
// types can be made to fail so partial-failure paths are exercisable.
type Store struct {
	mu sync.RWMutex

	instructions map[string]string
	records      map[string]map[productdata.RecordType][]productdata.Record

	// FailTypes makes GetRecordsByType report failure for a record type.
	FailTypes map[productdata.RecordType]error
	// InstructionsErr makes GetAssistantInstructions fail.
	InstructionsErr error
}

var (
	_ productdata.Store    = (*Store)(nil)
	_ productdata.Settings = (*Store)(nil)
)

func NewStore() *Store {
	return &Store{
		instructions: map[string]string{},
		records:      map[string]map[productdata.RecordType][]productdata.Record{},
		FailTypes:    map[productdata.RecordType]error{},
	}
}

func (s *Store) Add(tenantID string, recordType productdata.RecordType, records ...productdata.Record) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tenant, ok := s.records[tenantID]
	if !ok {
		tenant = map[productdata.RecordType][]productdata.Record{}
		s.records[tenantID] = tenant
	}
	tenant[recordType] = append(tenant[recordType], records...)
}

func (s *Store) SetInstructions(tenantID, instructions string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.instructions[tenantID] = instructions
}

func (s *Store) GetRecordsByType(ctx context.Context, tenantID string, recordType productdata.RecordType) productdata.FetchResult {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if err, ok := s.FailTypes[recordType]; ok {
		return productdata.Failure(err)
	}
	return productdata.Success(s.records[tenantID][recordType])
}

func (s *Store) GetAssistantInstructions(ctx context.Context, tenantID string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.InstructionsErr != nil {
		return "", s.InstructionsErr
	}
	return s.instructions[tenantID], nil
}
