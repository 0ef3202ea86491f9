// Package feed fetches the entries owned by an author from the remote feed
// service and filters out entries that cannot be played.
package feed

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mwantia/feedtree/data"
	"github.com/mwantia/feedtree/log"
)

const (
	DefaultMaxResults = 25
	DefaultTimeout    = 10 * time.Second
)

type FetcherOptions struct {
	// MaxResults used when a caller passes zero (default: 25)
	MaxResults int
	// Timeout applied to every query (default: 10s)
	Timeout time.Duration
	Logger  *log.Logger
}

type Fetcher struct {
	client     Client
	log        *log.Logger
	maxResults int
	timeout    time.Duration
}

func NewFetcher(client Client, opts FetcherOptions) *Fetcher {
	maxResults := opts.MaxResults
	if maxResults <= 0 {
		maxResults = DefaultMaxResults
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Discard()
	}

	return &Fetcher{
		client:     client,
		log:        logger,
		maxResults: maxResults,
		timeout:    timeout,
	}
}

// FetchForOwner returns the playable entries of owner in feed order, with
// duplicate tokens collapsed onto their first occurrence.
//
// An empty owner yields no entries and no error. Transport failures are
// logged and yield no entries together with an error wrapping
// data.ErrRemoteUnavailable, so callers can degrade to an empty result.
func (f *Fetcher) FetchForOwner(ctx context.Context, owner string, maxResults int, safety SafetyLevel) ([]*data.RemoteEntry, error) {
	owner = strings.TrimSpace(owner)
	if owner == "" {
		return []*data.RemoteEntry{}, nil
	}
	if maxResults <= 0 {
		maxResults = f.maxResults
	}
	if safety == "" {
		safety = SafetyStrict
	}

	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	started := time.Now()
	entries, err := f.client.Query(ctx, Query{
		Author:     owner,
		MaxResults: maxResults,
		Safety:     safety,
	})
	if err != nil {
		f.log.Error("Failed to query feed for '%s': %v", owner, err)
		return []*data.RemoteEntry{}, fmt.Errorf("%w: %v", data.ErrRemoteUnavailable, err)
	}

	seen := make(map[string]bool, len(entries))
	result := make([]*data.RemoteEntry, 0, len(entries))
	restricted := 0
	for _, entry := range entries {
		if entry == nil || entry.Token == "" {
			continue
		}
		// Restricted entries carry no media content
		if entry.Restricted {
			restricted++
			continue
		}
		if seen[entry.Token] {
			continue
		}
		seen[entry.Token] = true
		result = append(result, entry)
	}

	f.log.Debug("Fetched %d entries for '%s' (%d restricted) in %s", len(result), owner, restricted, time.Since(started))
	return result, nil
}

// Find fetches the entries of owner and returns the one carrying token.
func (f *Fetcher) Find(ctx context.Context, owner, token string, maxResults int, safety SafetyLevel) (*data.RemoteEntry, error) {
	entries, err := f.FetchForOwner(ctx, owner, maxResults, safety)
	if err != nil {
		return nil, err
	}

	for _, entry := range entries {
		if entry.Token == token {
			return entry, nil
		}
	}

	return nil, data.ErrNotFound
}
