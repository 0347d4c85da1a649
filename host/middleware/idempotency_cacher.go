package middleware

import (
	"context"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
)

// IdempotencyTTL is how long a response stays paired to its idempotency key.
const IdempotencyTTL = 24 * time.Hour

var (
	_ IdempotencyCacher = new(IdemResMap)
	_ IdempotencyCacher = IdemResRedis{}
)

// An IdempotencyCacher can store responses paired to idempotency keys.
type IdempotencyCacher interface {
	Get(ctx context.Context, key string) (IdemRes, bool)
	Set(ctx context.Context, key string, idemRes IdemRes)
}

// An IdemResMap stores idempotency key, IdemRes value pairs in memory.
//
// Server restarts reset an IdemResMap
// and Hosts sharing a database do not share one.
type IdemResMap struct {
	mu   sync.Mutex
	vals map[string]idemResMapVal
}

type idemResMapVal struct {
	IdemRes

	at time.Time
}

// NewIdemResMap constructs an *IdemResMap
// for use in an Idempotent middleware as a cache.
func NewIdemResMap() *IdemResMap {
	return &IdemResMap{vals: make(map[string]idemResMapVal)}
}

// Get retrieves the result of the request matching the idempotency key.
func (i *IdemResMap) Get(ctx context.Context, key string) (IdemRes, bool) {
	if key == "" || ctx.Err() != nil {
		return IdemRes{}, false
	}

	i.mu.Lock()
	defer i.mu.Unlock()

	v, ok := i.vals[key]
	if !ok || time.Since(v.at) > IdempotencyTTL {
		return IdemRes{}, false
	}

	return v.IdemRes, true
}

// Set overwrites the value paired to key.
//
// For each call to Set, keys older than IdempotencyTTL are evicted.
func (i *IdemResMap) Set(ctx context.Context, key string, idemRes IdemRes) {
	if ctx.Err() != nil {
		return
	}

	i.mu.Lock()
	defer i.mu.Unlock()

	for k, v := range i.vals {
		if time.Since(v.at) > IdempotencyTTL {
			delete(i.vals, k)
		}
	}

	i.vals[key] = idemResMapVal{IdemRes: idemRes, at: time.Now()}
}

// An IdemResRedis connects to a Redis backend
// for the purposes of caching idempotent responses.
type IdemResRedis struct {
	client *redis.Client
	prefix string
}

// NewRedisCache constructs an IdemResRedis storing keys under prefix.
func NewRedisCache(client *redis.Client, prefix string) IdemResRedis {
	return IdemResRedis{client: client, prefix: prefix}
}

// Get retrieves the IdemRes paired to key from the connected Redis backend.
func (i IdemResRedis) Get(ctx context.Context, key string) (IdemRes, bool) {
	b, err := i.client.Get(ctx, i.prefix+key).Bytes()
	if err != nil {
		return IdemRes{}, false
	}

	ir := new(IdemRes)
	if err := ir.GobDecode(b); err != nil {
		return IdemRes{}, false
	}

	return *ir, true
}

// Set saves the IdemRes by pairing it to the key in the Redis backend.
func (i IdemResRedis) Set(ctx context.Context, key string, idemRes IdemRes) {
	b, err := idemRes.GobEncode()
	if err != nil {
		return
	}

	i.client.Set(ctx, i.prefix+key, b, IdempotencyTTL)
}
