package feed

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/mwantia/feedtree/data"
)

func entries(tokens ...string) []*data.RemoteEntry {
	result := make([]*data.RemoteEntry, 0, len(tokens))
	for _, token := range tokens {
		result = append(result, &data.RemoteEntry{Token: token, Title: "Title " + token, URL: "http://media/" + token})
	}
	return result
}

func TestFetcher_FiltersRestricted(t *testing.T) {
	feedEntries := entries("a", "b", "c")
	feedEntries[1].Restricted = true

	f := NewFetcher(ClientFunc(func(ctx context.Context, q Query) ([]*data.RemoteEntry, error) {
		return feedEntries, nil
	}), FetcherOptions{})

	got, err := f.FetchForOwner(t.Context(), "owner", 0, SafetyStrict)
	if err != nil {
		t.Fatalf("FetchForOwner failed: %v", err)
	}
	if len(got) != 2 || got[0].Token != "a" || got[1].Token != "c" {
		t.Fatalf("Expected [a c], got %v", got)
	}
	for _, e := range got {
		if e.Restricted {
			t.Errorf("Restricted entry %q leaked", e.Token)
		}
	}
}

func TestFetcher_PassesQuery(t *testing.T) {
	var seen Query
	f := NewFetcher(ClientFunc(func(ctx context.Context, q Query) ([]*data.RemoteEntry, error) {
		seen = q
		return nil, nil
	}), FetcherOptions{MaxResults: 10})

	if _, err := f.FetchForOwner(t.Context(), "  owner ", 0, ""); err != nil {
		t.Fatalf("FetchForOwner failed: %v", err)
	}
	if seen.Author != "owner" || seen.MaxResults != 10 || seen.Safety != SafetyStrict {
		t.Errorf("Unexpected query %+v", seen)
	}

	if _, err := f.FetchForOwner(t.Context(), "owner", 5, SafetyModerate); err != nil {
		t.Fatalf("FetchForOwner failed: %v", err)
	}
	if seen.MaxResults != 5 || seen.Safety != SafetyModerate {
		t.Errorf("Unexpected query %+v", seen)
	}
}

func TestFetcher_EmptyOwner(t *testing.T) {
	called := false
	f := NewFetcher(ClientFunc(func(ctx context.Context, q Query) ([]*data.RemoteEntry, error) {
		called = true
		return entries("a"), nil
	}), FetcherOptions{})

	got, err := f.FetchForOwner(t.Context(), "   ", 0, SafetyStrict)
	if err != nil {
		t.Fatalf("Expected no error for empty owner, got %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Errorf("Expected empty non-nil slice, got %v", got)
	}
	if called {
		t.Error("Client must not be queried for an empty owner")
	}
}

func TestFetcher_TransportFailure(t *testing.T) {
	f := NewFetcher(ClientFunc(func(ctx context.Context, q Query) ([]*data.RemoteEntry, error) {
		return nil, fmt.Errorf("dial tcp: connection refused")
	}), FetcherOptions{})

	got, err := f.FetchForOwner(t.Context(), "owner", 0, SafetyStrict)
	if !errors.Is(err, data.ErrRemoteUnavailable) {
		t.Fatalf("Expected ErrRemoteUnavailable, got %v", err)
	}
	if len(got) != 0 {
		t.Errorf("Expected no entries, got %d", len(got))
	}
}

func TestFetcher_Timeout(t *testing.T) {
	f := NewFetcher(ClientFunc(func(ctx context.Context, q Query) ([]*data.RemoteEntry, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}), FetcherOptions{Timeout: 10 * time.Millisecond})

	if _, err := f.FetchForOwner(t.Context(), "owner", 0, SafetyStrict); !errors.Is(err, data.ErrRemoteUnavailable) {
		t.Errorf("Expected ErrRemoteUnavailable after timeout, got %v", err)
	}
}

func TestFetcher_DuplicateTokens(t *testing.T) {
	feedEntries := entries("a", "b", "a")
	feedEntries[2].Title = "second a"

	f := NewFetcher(ClientFunc(func(ctx context.Context, q Query) ([]*data.RemoteEntry, error) {
		return feedEntries, nil
	}), FetcherOptions{})

	got, _ := f.FetchForOwner(t.Context(), "owner", 0, SafetyStrict)
	if len(got) != 2 || got[0].Title != "Title a" {
		t.Errorf("Expected first occurrence to win, got %v", got)
	}
}

func TestFetcher_Find(t *testing.T) {
	f := NewFetcher(ClientFunc(func(ctx context.Context, q Query) ([]*data.RemoteEntry, error) {
		return entries("a", "b"), nil
	}), FetcherOptions{})

	e, err := f.Find(t.Context(), "owner", "b", 0, SafetyStrict)
	if err != nil || e.Token != "b" {
		t.Fatalf("Expected entry b, got %v (%v)", e, err)
	}
	if _, err := f.Find(t.Context(), "owner", "zzz", 0, SafetyStrict); !errors.Is(err, data.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestParseSafetyLevel(t *testing.T) {
	for input, want := range map[string]SafetyLevel{"": SafetyStrict, "Strict": SafetyStrict, "moderate": SafetyModerate, "none": SafetyNone} {
		got, err := ParseSafetyLevel(input)
		if err != nil || got != want {
			t.Errorf("ParseSafetyLevel(%q) = %v, %v; want %v", input, got, err, want)
		}
	}
	if _, err := ParseSafetyLevel("off"); err == nil {
		t.Error("Expected error for unknown level")
	}
}
