package dnsimple

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"

	"github.com/nijave/ddns-webhook/pkg/httputil"
	"github.com/nijave/ddns-webhook/pkg/provider"
)

// Provider implements provider.RecordClient against a DNSimple account.
// Zone apexes are discovered per hostname and zone IDs cached for the
// process lifetime; zones are not expected to appear or vanish while the
// webhook runs.
type Provider struct {
	client *Client
	finder ZoneFinder
	ttl    int
	logger *slog.Logger

	mu      sync.Mutex
	zoneIDs map[string]int64
}

// ProviderOption is a functional option for configuring the Provider.
type ProviderOption func(*Provider)

// WithProviderLogger sets a custom logger for the provider.
func WithProviderLogger(logger *slog.Logger) ProviderOption {
	return func(p *Provider) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithZoneFinder overrides zone discovery, mainly for tests.
func WithZoneFinder(finder ZoneFinder) ProviderOption {
	return func(p *Provider) {
		if finder != nil {
			p.finder = finder
		}
	}
}

// WithClient overrides the API client, mainly for tests.
func WithClient(client *Client) ProviderOption {
	return func(p *Provider) {
		if client != nil {
			p.client = client
		}
	}
}

// New creates a DNSimple record client from config.
func New(config *Config, opts ...ProviderOption) (*Provider, error) {
	if config == nil {
		return nil, fmt.Errorf("config is required")
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	p := &Provider{
		ttl:     config.ttlOrDefault(),
		logger:  slog.Default(),
		zoneIDs: make(map[string]int64),
	}

	for _, opt := range opts {
		opt(p)
	}

	if p.client == nil {
		clientOpts := []ClientOption{
			WithLogger(p.logger),
			WithHTTPClient(httputil.NewClient(&httputil.ClientConfig{
				Timeout: config.Timeout,
				Logger:  p.logger,
			})),
		}
		if config.APIEndpoint != "" {
			clientOpts = append(clientOpts, WithAPIEndpoint(config.APIEndpoint))
		}
		p.client = NewClient(config.AccountID, config.APIKey, clientOpts...)
	}

	if p.finder == nil {
		if config.Zone != "" {
			p.finder = staticZoneFinder{zone: config.Zone}
		} else {
			finder, err := NewSOAFinder(p.logger)
			if err != nil {
				return nil, fmt.Errorf("creating zone finder: %w", err)
			}
			p.finder = finder
		}
	}

	return p, nil
}

// zoneFor resolves the zone apex and zone ID covering hostname.
// SOA discovery failures fall back to matching the hostname against the
// account's zone list by longest suffix.
func (p *Provider) zoneFor(ctx context.Context, hostname string) (string, int64, error) {
	zoneName, err := p.finder.FindZone(ctx, hostname)
	if err != nil {
		p.logger.Warn("zone discovery failed, falling back to zone list",
			slog.String("hostname", hostname),
			slog.String("error", err.Error()),
		)
		return p.zoneFromList(ctx, hostname)
	}

	id, err := p.zoneID(ctx, zoneName)
	if err != nil {
		if provider.IsZoneNotFound(err) {
			// Discovered apex is not hosted on this account; the zone list
			// is the authority on what we can actually mutate.
			return p.zoneFromList(ctx, hostname)
		}
		return "", 0, err
	}
	return zoneName, id, nil
}

// zoneID returns the cached zone ID, looking it up once per zone name.
func (p *Provider) zoneID(ctx context.Context, zoneName string) (int64, error) {
	p.mu.Lock()
	id, ok := p.zoneIDs[zoneName]
	p.mu.Unlock()
	if ok {
		return id, nil
	}

	zone, err := p.client.GetZone(ctx, zoneName)
	if err != nil {
		return 0, err
	}

	p.mu.Lock()
	p.zoneIDs[zone.Name] = zone.ID
	p.mu.Unlock()
	return zone.ID, nil
}

// zoneFromList picks the account zone with the longest suffix match.
func (p *Provider) zoneFromList(ctx context.Context, hostname string) (string, int64, error) {
	zones, err := p.client.ListZones(ctx)
	if err != nil {
		return "", 0, err
	}

	var best *zoneData
	for i, zone := range zones {
		if hostname != zone.Name && !strings.HasSuffix(hostname, "."+zone.Name) {
			continue
		}
		if best == nil || len(zone.Name) > len(best.Name) {
			best = &zones[i]
		}
	}
	if best == nil {
		return "", 0, fmt.Errorf("no zone covers %s: %w", hostname, provider.ErrZoneNotFound)
	}

	p.mu.Lock()
	p.zoneIDs[best.Name] = best.ID
	p.mu.Unlock()
	return best.Name, best.ID, nil
}

// relativeName returns the record name relative to its zone, "@" at the apex.
func relativeName(hostname, zone string) string {
	if hostname == zone {
		return "@"
	}
	return strings.TrimSuffix(hostname, "."+zone)
}

// absoluteName reverses relativeName for records read back from the API.
func absoluteName(name, zone string) string {
	if name == "" || name == "@" {
		return zone
	}
	return name + "." + zone
}

// ListRecords returns all records of the given type for the hostname.
func (p *Provider) ListRecords(ctx context.Context, hostname string, recordType provider.RecordType) ([]provider.Record, error) {
	zoneName, zoneID, err := p.zoneFor(ctx, hostname)
	if err != nil {
		return nil, err
	}

	data, err := p.client.ListRecords(ctx, zoneID, relativeName(hostname, zoneName), string(recordType))
	if err != nil {
		return nil, err
	}

	records := make([]provider.Record, 0, len(data))
	for _, r := range data {
		records = append(records, provider.Record{
			ID:       strconv.FormatInt(r.ID, 10),
			Hostname: absoluteName(r.Name, zoneName),
			Type:     provider.RecordType(r.Type),
			Value:    r.Content,
			TTL:      r.TTL,
		})
	}
	return records, nil
}

// CreateRecord creates the record and returns the provider-assigned ID.
func (p *Provider) CreateRecord(ctx context.Context, record provider.Record) (string, error) {
	zoneName, zoneID, err := p.zoneFor(ctx, record.Hostname)
	if err != nil {
		return "", err
	}

	ttl := record.TTL
	if ttl <= 0 {
		ttl = p.ttl
	}

	id, err := p.client.CreateRecord(ctx, zoneID, relativeName(record.Hostname, zoneName), string(record.Type), record.Value, ttl)
	if err != nil {
		return "", err
	}
	return strconv.FormatInt(id, 10), nil
}

// UpdateRecord replaces the value of an existing record.
func (p *Provider) UpdateRecord(ctx context.Context, record provider.Record, newValue string) error {
	recordID, err := strconv.ParseInt(record.ID, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid record ID %q: %w", record.ID, err)
	}

	_, zoneID, err := p.zoneFor(ctx, record.Hostname)
	if err != nil {
		return err
	}

	return p.client.UpdateRecord(ctx, zoneID, recordID, newValue)
}

// DeleteRecord removes an existing record.
func (p *Provider) DeleteRecord(ctx context.Context, record provider.Record) error {
	recordID, err := strconv.ParseInt(record.ID, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid record ID %q: %w", record.ID, err)
	}

	_, zoneID, err := p.zoneFor(ctx, record.Hostname)
	if err != nil {
		return err
	}

	return p.client.DeleteRecord(ctx, zoneID, recordID)
}

// Ping checks connectivity to the DNSimple API.
func (p *Provider) Ping(ctx context.Context) error {
	return p.client.Whoami(ctx)
}

// Ensure Provider implements provider.RecordClient at compile time.
var _ provider.RecordClient = (*Provider)(nil)
