// Package opensearch connects the audit log to an OpenSearch cluster.
//
// New builds a client from Config (AUDIT_OPENSEARCH_* variables) and checks the cluster info
// endpoint. EnsureIndex creates the audit index with explicit mappings on first start.
//
//	client, err := opensearch.New(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	if err := opensearch.EnsureIndex(ctx, client, cfg.Index, audit.OpenSearchMapping); err != nil {
//		return err
//	}
//	sink := audit.NewOpenSearchSink(client, cfg.Index)
package opensearch
