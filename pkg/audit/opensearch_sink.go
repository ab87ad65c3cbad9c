package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/opensearch-project/opensearch-go/v2"
)

// OpenSearchMapping is the index body matching the fields OpenSearchSink queries.
const OpenSearchMapping = `{
  "mappings": {
    "dynamic_templates": [
      {"strings": {"match_mapping_type": "string", "mapping": {"type": "text", "fields": {"keyword": {"type": "keyword", "ignore_above": 256}}}}}
    ],
    "properties": {
      "timestamp": {"type": "date"},
      "seq": {"type": "long"},
      "metadata": {"type": "object", "enabled": false}
    }
  }
}`

// OpenSearchSink indexes one document per event.
type OpenSearchSink struct {
	client *opensearch.Client
	index  string
}

// NewOpenSearchSink creates a sink writing to index. Panics on nil client or empty index.
func NewOpenSearchSink(client *opensearch.Client, index string) *OpenSearchSink {
	if client == nil {
		panic("audit: opensearch client cannot be nil")
	}
	if index == "" {
		panic("audit: opensearch index cannot be empty")
	}
	return &OpenSearchSink{client: client, index: index}
}

type bulkAction struct {
	Index struct {
		Index string `json:"_index"`
		ID    string `json:"_id"`
	} `json:"index"`
}

// Write implements Sink using the bulk API.
func (s *OpenSearchSink) Write(ctx context.Context, events []Event) error {
	if len(events) == 0 {
		return nil
	}

	var body bytes.Buffer
	enc := json.NewEncoder(&body)
	for _, e := range events {
		var action bulkAction
		action.Index.Index = s.index
		action.Index.ID = e.ID
		if err := enc.Encode(action); err != nil {
			return err
		}
		if err := enc.Encode(e); err != nil {
			return err
		}
	}

	res, err := s.client.Bulk(&body,
		s.client.Bulk.WithContext(ctx),
		s.client.Bulk.WithIndex(s.index),
	)
	if err != nil {
		return errors.Join(ErrSinkUnavailable, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("%w: bulk status %s", ErrSinkUnavailable, res.Status())
	}

	var result struct {
		Errors bool `json:"errors"`
	}
	if err := json.NewDecoder(res.Body).Decode(&result); err != nil {
		return err
	}
	if result.Errors {
		return fmt.Errorf("%w: bulk request had item failures", ErrSinkUnavailable)
	}
	return nil
}

// Query implements Querier.
func (s *OpenSearchSink) Query(ctx context.Context, c Criteria) ([]Event, error) {
	body, err := json.Marshal(searchBody(c))
	if err != nil {
		return nil, err
	}

	res, err := s.client.Search(
		s.client.Search.WithContext(ctx),
		s.client.Search.WithIndex(s.index),
		s.client.Search.WithBody(bytes.NewReader(body)),
		s.client.Search.WithSize(c.limit()),
		s.client.Search.WithFrom(max(c.Offset, 0)),
	)
	if err != nil {
		return nil, errors.Join(ErrSinkUnavailable, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		msg, _ := io.ReadAll(io.LimitReader(res.Body, 512))
		return nil, fmt.Errorf("%w: search status %s: %s", ErrSinkUnavailable, res.Status(), msg)
	}

	var result struct {
		Hits struct {
			Hits []struct {
				Source Event `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&result); err != nil {
		return nil, err
	}

	out := make([]Event, 0, len(result.Hits.Hits))
	for _, h := range result.Hits.Hits {
		out = append(out, h.Source)
	}
	return out, nil
}

func searchBody(c Criteria) map[string]any {
	var filters []map[string]any

	if !c.From.IsZero() || !c.To.IsZero() {
		rng := map[string]any{}
		if !c.From.IsZero() {
			rng["gte"] = c.From.UTC().Format(time.RFC3339Nano)
		}
		if !c.To.IsZero() {
			rng["lt"] = c.To.UTC().Format(time.RFC3339Nano)
		}
		filters = append(filters, map[string]any{"range": map[string]any{"timestamp": rng}})
	}
	if len(c.Types) > 0 {
		filters = append(filters, map[string]any{"terms": map[string]any{"type.keyword": c.Types}})
	}
	if c.KeyID != "" {
		filters = append(filters, map[string]any{"term": map[string]any{"key_id.keyword": c.KeyID}})
	}
	if c.Outcome != "" {
		filters = append(filters, map[string]any{"term": map[string]any{"outcome.keyword": string(c.Outcome)}})
	}

	query := map[string]any{"match_all": map[string]any{}}
	if len(filters) > 0 {
		query = map[string]any{"bool": map[string]any{"filter": filters}}
	}
	return map[string]any{
		"query": query,
		"sort": []map[string]any{
			{"timestamp": map[string]any{"order": "asc"}},
			{"seq": map[string]any{"order": "asc"}},
		},
	}
}
