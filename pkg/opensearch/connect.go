package opensearch

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/opensearch-project/opensearch-go/v2"
)

// New creates a client and verifies the cluster answers.
func New(ctx context.Context, cfg Config) (*opensearch.Client, error) {
	client, err := opensearch.NewClient(opensearch.Config{
		Addresses:    cfg.Addresses,
		Username:     cfg.Username,
		Password:     cfg.Password,
		MaxRetries:   cfg.MaxRetries,
		DisableRetry: cfg.DisableRetry,
	})
	if err != nil {
		return nil, errors.Join(ErrConnectionFailed, err)
	}

	if err := Healthcheck(client)(ctx); err != nil {
		return nil, err
	}
	return client, nil
}

// EnsureIndex creates index with the given settings/mappings body unless it already exists.
func EnsureIndex(ctx context.Context, client *opensearch.Client, index, body string) error {
	exists, err := client.Indices.Exists([]string{index}, client.Indices.Exists.WithContext(ctx))
	if err != nil {
		return errors.Join(ErrIndexSetup, err)
	}
	exists.Body.Close()

	switch exists.StatusCode {
	case http.StatusOK:
		return nil
	case http.StatusNotFound:
	default:
		return fmt.Errorf("%w: exists check returned %s", ErrIndexSetup, exists.Status())
	}

	res, err := client.Indices.Create(index,
		client.Indices.Create.WithContext(ctx),
		client.Indices.Create.WithBody(strings.NewReader(body)),
	)
	if err != nil {
		return errors.Join(ErrIndexSetup, err)
	}
	defer res.Body.Close()

	// A concurrent creator wins the race with resource_already_exists_exception.
	if res.IsError() && res.StatusCode != http.StatusBadRequest {
		return fmt.Errorf("%w: create returned %s", ErrIndexSetup, res.Status())
	}
	return nil
}
