package mapping

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/mwantia/feedtree/data"
	"github.com/mwantia/feedtree/mapping/consul"
	"github.com/mwantia/feedtree/mapping/memory"
	"github.com/mwantia/feedtree/mapping/postgres"
	"github.com/mwantia/feedtree/mapping/s3"
	"github.com/mwantia/feedtree/mapping/sqlite"
)

// ParseAddress creates the store described by address without opening it.
//
//	:memory:                                     in-process store
//	sqlite://<path>                              SQLite file (or sqlite://:memory:)
//	postgres://<user>:<pass>@<host>:<port>/<db>  PostgreSQL (also postgresql://)
//	consul://<host>:<port>/<prefix>?token=&datacenter=&scheme=
//	s3://<access>:<secret>@<host>:<port>/<bucket>/<prefix>?ssl=  (also minio://)
func ParseAddress(address string) (Store, error) {
	address = strings.TrimSpace(address)

	// Special 'direct no address declarations'
	switch address {
	case ":memory:", "memory://", ":ephemeral:":
		return memory.NewMemoryStore(), nil
	}

	if !strings.Contains(address, "://") {
		return nil, fmt.Errorf("failed to parse address '%s': %w", address, data.ErrMalformedAddress)
	}

	switch {
	case strings.HasPrefix(address, "sqlite://"):
		return parseSqliteAddress(strings.TrimPrefix(address, "sqlite://"))
	case strings.HasPrefix(address, "postgres://"), strings.HasPrefix(address, "postgresql://"):
		return postgres.NewPostgresStore(address)
	case strings.HasPrefix(address, "consul://"):
		return parseConsulAddress(address)
	case strings.HasPrefix(address, "s3://"), strings.HasPrefix(address, "minio://"):
		return parseS3Address(address)
	}

	return nil, fmt.Errorf("failed to parse address '%s': %w", address, data.ErrUnknownAddressScheme)
}

// Open parses address and opens the resulting store.
func Open(ctx context.Context, address string) (Store, error) {
	store, err := ParseAddress(address)
	if err != nil {
		return nil, err
	}

	if err := store.Open(ctx); err != nil {
		_ = store.Close(ctx)
		return nil, fmt.Errorf("failed to open %s store: %w", store.Name(), err)
	}

	return store, nil
}

func parseSqliteAddress(path string) (Store, error) {
	if path == "" {
		return nil, fmt.Errorf("sqlite address requires a path: %w", data.ErrMalformedAddress)
	}
	return sqlite.NewSQLiteStore(path)
}

func parseConsulAddress(address string) (Store, error) {
	u, err := url.Parse(address)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", data.ErrMalformedAddress, err)
	}

	query := u.Query()
	return consul.NewConsulStore(&consul.ConsulStoreConfig{
		Address:    u.Host,
		Scheme:     query.Get("scheme"),
		Token:      query.Get("token"),
		Datacenter: query.Get("datacenter"),
		Prefix:     u.Path,
	})
}

func parseS3Address(address string) (Store, error) {
	u, err := url.Parse(address)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", data.ErrMalformedAddress, err)
	}

	bucket, prefix, _ := strings.Cut(strings.Trim(u.Path, "/"), "/")
	if u.Host == "" || bucket == "" {
		return nil, fmt.Errorf("s3 address requires host and bucket: %w", data.ErrMalformedAddress)
	}

	useSSL := true
	if raw := u.Query().Get("ssl"); raw != "" {
		if useSSL, err = strconv.ParseBool(raw); err != nil {
			return nil, fmt.Errorf("invalid ssl flag '%s': %w", raw, data.ErrMalformedAddress)
		}
	}

	secret, _ := u.User.Password()
	return s3.NewS3Store(s3.S3StoreConfig{
		Endpoint:  u.Host,
		AccessKey: u.User.Username(),
		SecretKey: secret,
		UseSSL:    useSSL,
		Bucket:    bucket,
		Prefix:    prefix,
	})
}
