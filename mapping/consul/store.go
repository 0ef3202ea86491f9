package consul

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/hashicorp/consul/api"
	"github.com/mwantia/feedtree/data"
	"github.com/mwantia/feedtree/mapping/internal/index"
)

// ConsulStore keeps the id table in the HashiCorp Consul KV store.
//
// Layout (below the configured prefix):
// - <ns>/ids/<id>                 JSON encoded row
// - <ns>/tokens/<parent>/<token>  id of the row, token path-escaped
//
// Creation writes the id key first and then claims the token key with a
// check-and-set on ModifyIndex 0, so only one creator can ever own a token.
// A creator that loses the race removes its id key and adopts the winner.
type ConsulStore struct {
	client *api.Client
	kv     *api.KV
	rows   *index.Index

	// Configuration
	config *ConsulStoreConfig
}

// ConsulStoreConfig contains configuration options for the Consul store
type ConsulStoreConfig struct {
	// Address of the Consul server (default: "127.0.0.1:8500")
	Address string

	// Scheme used to reach the server (default: "http")
	Scheme string

	// Token for Consul ACL authentication (optional)
	Token string

	// Datacenter to use (optional)
	Datacenter string

	// Prefix for all keys in Consul KV (default: "feedtree")
	Prefix string
}

// NewConsulStore creates a new Consul-backed store
func NewConsulStore(config *ConsulStoreConfig) (*ConsulStore, error) {
	if config == nil {
		config = &ConsulStoreConfig{}
	}

	// Set defaults
	if config.Address == "" {
		config.Address = "127.0.0.1:8500"
	}

	config.Prefix = strings.Trim(config.Prefix, "/")
	if config.Prefix == "" {
		config.Prefix = "feedtree"
	}

	clientConfig := api.DefaultConfig()
	clientConfig.Address = config.Address
	if config.Scheme != "" {
		clientConfig.Scheme = config.Scheme
	}
	if config.Token != "" {
		clientConfig.Token = config.Token
	}
	if config.Datacenter != "" {
		clientConfig.Datacenter = config.Datacenter
	}

	client, err := api.NewClient(clientConfig)
	if err != nil {
		return nil, err
	}

	return &ConsulStore{
		client: client,
		kv:     client.KV(),
		rows:   index.New(),
		config: config,
	}, nil
}

// Name returns the identifier name defined for this store
func (*ConsulStore) Name() string {
	return "consul"
}

// Open checks that the agent is reachable
func (cs *ConsulStore) Open(ctx context.Context) error {
	if _, err := cs.client.Status().Leader(); err != nil {
		return fmt.Errorf("failed to reach consul: %w", err)
	}
	return nil
}

// Close drops the local index - the Consul client is stateless
func (cs *ConsulStore) Close(ctx context.Context) error {
	cs.rows.Clear()
	return nil
}

func (cs *ConsulStore) Lookup(ctx context.Context, namespace string, id data.ID) (*data.Mapping, error) {
	if err := data.ValidateNamespace(namespace); err != nil {
		return nil, err
	}
	if m, ok := cs.rows.ByID(namespace, id); ok {
		return m, nil
	}

	pair, _, err := cs.kv.Get(index.IDPath(cs.config.Prefix, namespace, id), queryOptions(ctx))
	if err != nil {
		return nil, err
	}
	if pair == nil {
		return nil, data.ErrNotFound
	}

	var m data.Mapping
	if err := json.Unmarshal(pair.Value, &m); err != nil {
		return nil, fmt.Errorf("failed to decode mapping '%s': %w", pair.Key, err)
	}

	cs.rows.Put(&m)
	return &m, nil
}

func (cs *ConsulStore) LookupByToken(ctx context.Context, namespace, token string, parent data.ID) (*data.Mapping, error) {
	if err := data.ValidateNamespace(namespace); err != nil {
		return nil, err
	}
	if m, ok := cs.rows.ByToken(namespace, token, parent); ok {
		return m, nil
	}

	pair, _, err := cs.kv.Get(index.TokenPath(cs.config.Prefix, namespace, parent, token), queryOptions(ctx))
	if err != nil {
		return nil, err
	}
	if pair == nil {
		return nil, data.ErrNotFound
	}

	id, err := data.ParseID(string(pair.Value))
	if err != nil {
		return nil, err
	}

	return cs.Lookup(ctx, namespace, id)
}

func (cs *ConsulStore) Create(ctx context.Context, namespace, token string, parent data.ID, name string) (*data.Mapping, error) {
	if m, err := cs.LookupByToken(ctx, namespace, token, parent); err == nil {
		return m, nil
	} else if !errors.Is(err, data.ErrNotFound) {
		return nil, err
	}

	m := &data.Mapping{
		Namespace:  namespace,
		Token:      token,
		ID:         data.NewID(),
		ParentID:   parent,
		Name:       name,
		CreateTime: time.Now().Unix(),
	}

	value, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}

	idKey := index.IDPath(cs.config.Prefix, namespace, m.ID)
	if _, err := cs.kv.Put(&api.KVPair{Key: idKey, Value: value}, writeOptions(ctx)); err != nil {
		return nil, fmt.Errorf("failed to write mapping: %w", err)
	}

	// ModifyIndex 0 turns the CAS into create-only
	claimed, _, err := cs.kv.CAS(&api.KVPair{
		Key:         index.TokenPath(cs.config.Prefix, namespace, parent, token),
		Value:       []byte(m.ID.String()),
		ModifyIndex: 0,
	}, writeOptions(ctx))
	if err != nil {
		return nil, fmt.Errorf("failed to claim token: %w", err)
	}

	if !claimed {
		if _, err := cs.kv.Delete(idKey, writeOptions(ctx)); err != nil {
			return nil, fmt.Errorf("failed to release lost mapping: %w", err)
		}
		return cs.LookupByToken(ctx, namespace, token, parent)
	}

	cs.rows.Put(m)
	return m, nil
}

func (cs *ConsulStore) Keys(ctx context.Context, namespace string, id data.ID) ([]*data.Mapping, error) {
	m, err := cs.Lookup(ctx, namespace, id)
	if errors.Is(err, data.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return []*data.Mapping{m}, nil
}

func (cs *ConsulStore) DeleteByParent(ctx context.Context, namespace string, parent data.ID) ([]*data.Mapping, error) {
	if err := data.ValidateNamespace(namespace); err != nil {
		return nil, err
	}

	prefix := index.ParentPath(cs.config.Prefix, namespace, parent)
	pairs, _, err := cs.kv.List(prefix, queryOptions(ctx))
	if err != nil {
		return nil, err
	}

	errs := data.Errors{}
	var removed []*data.Mapping
	for _, pair := range pairs {
		id, err := data.ParseID(string(pair.Value))
		if err != nil {
			errs.Add(err)
			continue
		}

		m, err := cs.Lookup(ctx, namespace, id)
		if err == nil {
			removed = append(removed, m)
		} else if !errors.Is(err, data.ErrNotFound) {
			errs.Add(err)
			continue
		}

		if _, err := cs.kv.Delete(index.IDPath(cs.config.Prefix, namespace, id), writeOptions(ctx)); err != nil {
			errs.Add(err)
		}
	}

	if _, err := cs.kv.DeleteTree(prefix, writeOptions(ctx)); err != nil {
		errs.Add(err)
	}

	cs.rows.DeleteParent(namespace, parent)
	return removed, errs.Errors()
}

func queryOptions(ctx context.Context) *api.QueryOptions {
	return (&api.QueryOptions{}).WithContext(ctx)
}

func writeOptions(ctx context.Context) *api.WriteOptions {
	return (&api.WriteOptions{}).WithContext(ctx)
}
