// Package storage provides persistence adapters for lightstate containers.
//
// Every adapter satisfies the container's Storage contract:
//
//	Load(ctx, key) (map[string]any, bool, error)
//	Save(ctx, key, map[string]any) error
//
// Adapters only load and save one snapshot per key. They do not merge,
// validate or notify; that stays in the container.
//
//   - MemoryStorage keeps snapshots in process memory (tests, examples).
//   - FileStorage writes one file per key using a JSON, YAML or TOML codec.
//   - SQLStorage persists snapshots in a bun-managed table (sqlite by default).
//
// Open builds the adapter named by a Config so applications can choose the
// backend from configuration.
package storage
