// Package store owns the sharded, concurrent set of live tracks for one
// tracker instance, spanning every scene: each track belongs to exactly
// one shard, chosen by hash(id) mod N, and never migrates. Cross-shard
// operations (ForEachInScene, FindBaseline) fan out shard-local work with
// a bounded worker pool built on golang.org/x/sync/errgroup; each worker
// locks only its own shard, so no caller ever holds two shard locks at
// once and no lock ordering is needed. Applying assignments to tracks is
// done by the engines, not by the store.
package store
