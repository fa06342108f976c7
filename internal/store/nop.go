package store

import "jobwatch/internal/model"

// NopStore is a read-nothing, persist-nothing store used in check mode.
// Every employer appears to have no stored snapshot, so every listed posting
// is treated as new on each poll, and commits are discarded.
type NopStore struct {
	employers []model.Employer
}

func NewNopStore(employers []model.Employer) *NopStore {
	return &NopStore{employers: employers}
}

func (s *NopStore) GetSnapshot(name string) (string, bool, error) { return "", false, nil }
func (s *NopStore) UpsertSnapshot(name, externalID, raw string) error { return nil }
func (s *NopStore) ListEmployers() ([]model.Employer, error)      { return s.employers, nil }
