package vault

import (
	"encoding/json"
	"fmt"
)

// schemaVersion of the persisted collection documents.
const schemaVersion = 1

type document[T any] struct {
	Version int `json:"version"`
	Records []T `json:"records"`
}

type validator[T any] interface {
	*T
	Validate() error
}

// loadRecords reads and validates one collection. An absent collection yields no records.
func loadRecords[T any, PT validator[T]](s Store, collection string) ([]T, error) {
	data, err := s.Load(collection)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", collection, err)
	}
	if len(data) == 0 {
		return nil, nil
	}
	defer clear(data)

	var doc document[T]
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to unmarshal %s: %w", collection, err)
	}
	if doc.Version != schemaVersion {
		return nil, fmt.Errorf("%s: unsupported schema version %d", collection, doc.Version)
	}
	for i := range doc.Records {
		if err := PT(&doc.Records[i]).Validate(); err != nil {
			return nil, fmt.Errorf("%s: invalid record %d: %w", collection, i, err)
		}
	}
	return doc.Records, nil
}

// saveRecords persists the full collection.
func saveRecords[T any](s Store, collection string, records []T) error {
	if records == nil {
		records = []T{}
	}
	data, err := json.Marshal(document[T]{Version: schemaVersion, Records: records})
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", collection, err)
	}
	defer clear(data)
	if err := s.Save(collection, data); err != nil {
		return fmt.Errorf("failed to save %s: %w", collection, err)
	}
	return nil
}
