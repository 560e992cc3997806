package cache

import (
	"context"
	"encoding/json"
	"sync"

	"AudioEditor/model"

	"github.com/cockroachdb/errors"
	"github.com/go-redis/redis/v8"
)

// AssetIndex remembers uploaded assets by id. Entries never expire because uploads are
// never deleted.
type AssetIndex interface {
	Put(ctx context.Context, asset model.UploadedAsset) error
	Get(ctx context.Context, id string) (model.UploadedAsset, bool, error)
}

var (
	_ AssetIndex = &MemoryAssetIndex{}
	_ AssetIndex = &RedisAssetIndex{}
)

type MemoryAssetIndex struct {
	mutex  sync.RWMutex
	assets map[string]model.UploadedAsset
}

func NewMemoryAssetIndex() *MemoryAssetIndex {
	return &MemoryAssetIndex{assets: make(map[string]model.UploadedAsset)}
}

func (m *MemoryAssetIndex) Put(_ context.Context, asset model.UploadedAsset) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.assets[asset.ID] = asset
	return nil
}

func (m *MemoryAssetIndex) Get(_ context.Context, id string) (model.UploadedAsset, bool, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	asset, ok := m.assets[id]
	return asset, ok, nil
}

// RedisAssetIndex stores each asset as JSON under asset:<id>.
type RedisAssetIndex struct {
	client *redis.Client
}

func NewRedisAssetIndex(client *redis.Client) *RedisAssetIndex {
	return &RedisAssetIndex{client: client}
}

func assetKey(id string) string {
	return "asset:" + id
}

// storedAsset keeps the local path, which the public JSON form hides.
type storedAsset struct {
	model.UploadedAsset
	Path string `json:"path"`
}

func (r *RedisAssetIndex) Put(ctx context.Context, asset model.UploadedAsset) error {
	data, err := json.Marshal(storedAsset{UploadedAsset: asset, Path: asset.Path})
	if err != nil {
		return errors.Wrap(err, "encoding asset")
	}
	if err := r.client.Set(ctx, assetKey(asset.ID), data, 0).Err(); err != nil {
		return errors.Wrapf(err, "storing asset %s", asset.ID)
	}
	return nil
}

func (r *RedisAssetIndex) Get(ctx context.Context, id string) (model.UploadedAsset, bool, error) {
	data, err := r.client.Get(ctx, assetKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return model.UploadedAsset{}, false, nil
	}
	if err != nil {
		return model.UploadedAsset{}, false, errors.Wrapf(err, "loading asset %s", id)
	}
	var stored storedAsset
	if err := json.Unmarshal(data, &stored); err != nil {
		return model.UploadedAsset{}, false, errors.Wrapf(err, "decoding asset %s", id)
	}
	asset := stored.UploadedAsset
	asset.Path = stored.Path
	return asset, true, nil
}
