package main

import "context"

func doBackendPing(ctx context.Context, client *rpcClient, out any) error {
	return client.call(ctx, "backend.ping", nil, out)
}

func doRecordsList(ctx context.Context, client *rpcClient, entity, q string, out any) error {
	return client.call(ctx, "records.list", map[string]any{"entity": entity, "q": q}, out)
}

func doAuditList(ctx context.Context, client *rpcClient, limit int, out any) error {
	return client.call(ctx, "audit.list", map[string]any{"limit": limit}, out)
}

func doPurgeSessions(ctx context.Context, client *rpcClient) (int64, error) {
	var out struct {
		Deleted int64 `json:"deleted"`
	}
	if err := client.call(ctx, "sessions.purge", nil, &out); err != nil {
		return 0, err
	}
	return out.Deleted, nil
}
