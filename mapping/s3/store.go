package s3

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/mwantia/feedtree/data"
	"github.com/mwantia/feedtree/mapping/internal/index"
)

// S3Store keeps the id table as small objects in an S3 compatible bucket,
// using the same key layout as the Consul store.
//
// S3 offers no create-only write through this client, so Create performs a
// read-before-write under a process wide lock. Deployments with several
// writer processes should prefer the sqlite, postgres or consul stores.
type S3Store struct {
	mu     sync.Mutex
	client *minio.Client
	rows   *index.Index

	bucketName string
	prefix     string
}

// S3StoreConfig contains configuration options for the S3 store
type S3StoreConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	UseSSL    bool
	Bucket    string
	// Prefix for all object keys (default: "feedtree")
	Prefix string
}

func NewS3Store(config S3StoreConfig) (*S3Store, error) {
	if config.Bucket == "" {
		return nil, fmt.Errorf("s3 bucket must not be empty")
	}

	client, err := minio.New(config.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(config.AccessKey, config.SecretKey, ""),
		Secure: config.UseSSL,
	})
	if err != nil {
		return nil, err
	}

	prefix := strings.Trim(config.Prefix, "/")
	if prefix == "" {
		prefix = "feedtree"
	}

	return &S3Store{
		client:     client,
		rows:       index.New(),
		bucketName: config.Bucket,
		prefix:     prefix,
	}, nil
}

// Name returns the identifier name defined for this store
func (*S3Store) Name() string {
	return "s3"
}

// Open verifies that the configured bucket exists
func (ss *S3Store) Open(ctx context.Context) error {
	exists, err := ss.client.BucketExists(ctx, ss.bucketName)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("s3 bucket '%s' does not exist", ss.bucketName)
	}
	return nil
}

// Close drops the local index
func (ss *S3Store) Close(ctx context.Context) error {
	ss.rows.Clear()
	return nil
}

func (ss *S3Store) Lookup(ctx context.Context, namespace string, id data.ID) (*data.Mapping, error) {
	if err := data.ValidateNamespace(namespace); err != nil {
		return nil, err
	}
	if m, ok := ss.rows.ByID(namespace, id); ok {
		return m, nil
	}

	buf, err := ss.readObject(ctx, index.IDPath(ss.prefix, namespace, id))
	if err != nil {
		return nil, err
	}

	var m data.Mapping
	if err := json.Unmarshal(buf, &m); err != nil {
		return nil, fmt.Errorf("failed to decode mapping: %w", err)
	}

	ss.rows.Put(&m)
	return &m, nil
}

func (ss *S3Store) LookupByToken(ctx context.Context, namespace, token string, parent data.ID) (*data.Mapping, error) {
	if err := data.ValidateNamespace(namespace); err != nil {
		return nil, err
	}
	if m, ok := ss.rows.ByToken(namespace, token, parent); ok {
		return m, nil
	}

	buf, err := ss.readObject(ctx, index.TokenPath(ss.prefix, namespace, parent, token))
	if err != nil {
		return nil, err
	}

	id, err := data.ParseID(string(buf))
	if err != nil {
		return nil, err
	}

	return ss.Lookup(ctx, namespace, id)
}

func (ss *S3Store) Create(ctx context.Context, namespace, token string, parent data.ID, name string) (*data.Mapping, error) {
	ss.mu.Lock()
	defer ss.mu.Unlock()

	if m, err := ss.LookupByToken(ctx, namespace, token, parent); err == nil {
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

	if err := ss.writeObject(ctx, index.IDPath(ss.prefix, namespace, m.ID), value, "application/json"); err != nil {
		return nil, fmt.Errorf("failed to write mapping: %w", err)
	}
	if err := ss.writeObject(ctx, index.TokenPath(ss.prefix, namespace, parent, token), []byte(m.ID.String()), "text/plain"); err != nil {
		return nil, fmt.Errorf("failed to write token: %w", err)
	}

	ss.rows.Put(m)
	return m, nil
}

func (ss *S3Store) Keys(ctx context.Context, namespace string, id data.ID) ([]*data.Mapping, error) {
	m, err := ss.Lookup(ctx, namespace, id)
	if errors.Is(err, data.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return []*data.Mapping{m}, nil
}

func (ss *S3Store) DeleteByParent(ctx context.Context, namespace string, parent data.ID) ([]*data.Mapping, error) {
	if err := data.ValidateNamespace(namespace); err != nil {
		return nil, err
	}

	ss.mu.Lock()
	defer ss.mu.Unlock()

	objectsCh := ss.client.ListObjects(ctx, ss.bucketName, minio.ListObjectsOptions{
		Prefix:    index.ParentPath(ss.prefix, namespace, parent),
		Recursive: true,
	})

	errs := data.Errors{}
	var removed []*data.Mapping
	for object := range objectsCh {
		if object.Err != nil {
			return removed, object.Err
		}

		buf, err := ss.readObject(ctx, object.Key)
		if err != nil {
			errs.Add(err)
			continue
		}
		id, err := data.ParseID(string(buf))
		if err != nil {
			errs.Add(err)
			continue
		}

		if m, err := ss.Lookup(ctx, namespace, id); err == nil {
			removed = append(removed, m)
		}

		if err := ss.client.RemoveObject(ctx, ss.bucketName, index.IDPath(ss.prefix, namespace, id), minio.RemoveObjectOptions{}); err != nil {
			errs.Add(err)
		}
		if err := ss.client.RemoveObject(ctx, ss.bucketName, object.Key, minio.RemoveObjectOptions{}); err != nil {
			errs.Add(err)
		}
	}

	ss.rows.DeleteParent(namespace, parent)
	return removed, errs.Errors()
}

func (ss *S3Store) readObject(ctx context.Context, key string) ([]byte, error) {
	object, err := ss.client.GetObject(ctx, ss.bucketName, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, translateError(err)
	}
	defer object.Close()

	buf, err := io.ReadAll(object)
	if err != nil {
		return nil, translateError(err)
	}
	return buf, nil
}

func (ss *S3Store) writeObject(ctx context.Context, key string, value []byte, contentType string) error {
	_, err := ss.client.PutObject(ctx, ss.bucketName, key, bytes.NewReader(value), int64(len(value)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	return err
}

func translateError(err error) error {
	errResponse := minio.ToErrorResponse(err)
	if errResponse.Code == "NoSuchKey" {
		return data.ErrNotFound
	}
	return err
}
