package server

import (
	"context"
	"log/slog"
	"testing"

	"github.com/nijave/ddns-webhook/internal/credentials"
	"github.com/nijave/ddns-webhook/internal/resolver"
	"github.com/nijave/ddns-webhook/pkg/provider"
)

// fakeClient is an in-memory RecordClient that counts mutations.
type fakeClient struct {
	records []provider.Record

	listErr   error
	createErr error

	createCalls int
	updateCalls int
	deleteCalls int
}

func (f *fakeClient) ListRecords(_ context.Context, hostname string, recordType provider.RecordType) ([]provider.Record, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	var matched []provider.Record
	for _, r := range f.records {
		if r.Hostname == hostname && r.Type == recordType {
			matched = append(matched, r)
		}
	}
	return matched, nil
}

func (f *fakeClient) CreateRecord(_ context.Context, record provider.Record) (string, error) {
	f.createCalls++
	if f.createErr != nil {
		return "", f.createErr
	}
	record.ID = "1"
	f.records = append(f.records, record)
	return record.ID, nil
}

func (f *fakeClient) UpdateRecord(_ context.Context, record provider.Record, newValue string) error {
	f.updateCalls++
	for i := range f.records {
		if f.records[i].ID == record.ID {
			f.records[i].Value = newValue
		}
	}
	return nil
}

func (f *fakeClient) DeleteRecord(_ context.Context, record provider.Record) error {
	f.deleteCalls++
	kept := f.records[:0]
	for _, r := range f.records {
		if r.ID != record.ID {
			kept = append(kept, r)
		}
	}
	f.records = kept
	return nil
}

func (f *fakeClient) Ping(context.Context) error { return nil }

const (
	testHostname = "home.example.com"
	testSecret   = "supersecretkey1234567890"

	otherHostname = "other.example.com"
	otherSecret   = "anotherlongsecret0987654321"
)

// newTestServer wires a Server around a fake provider client.
func newTestServer(t *testing.T, client *fakeClient) *Server {
	t.Helper()

	store, err := credentials.New(map[string]string{
		testHostname:  testSecret,
		otherHostname: otherSecret,
	}, slog.Default())
	if err != nil {
		t.Fatalf("building credential store: %v", err)
	}

	return New(0, store, resolver.New(client))
}
