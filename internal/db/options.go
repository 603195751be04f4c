package db

import (
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"
	"github.com/wx-shi/shadow-ledger/internal/config"
)

const (
	// DefaultMaxTableSize is 64 MB. Projection records are tiny; a batch
	// commit never comes close to ~15% of this.
	DefaultMaxTableSize = 64 << 20

	// DefaultLogValueSize is 64 MB.
	DefaultLogValueSize = 64 << 20

	// DefaultBlockCacheSize is 256 MB.
	DefaultBlockCacheSize = 256 << 20

	DefaultCompressionMode = options.ZSTD

	// Default GC settings for reclaiming
	// space in value logs.
	defaultGCInterval     = 30 * time.Minute
	defaultGCDiscardRatio = 0.1
)

func DefaultBadgerOptions(conf *config.BadgerDBConfig) badger.Options {
	opts := badger.DefaultOptions(conf.Directory)
	if conf.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	}

	opts.Compression = DefaultCompressionMode
	opts.MemTableSize = DefaultMaxTableSize
	opts.ValueLogFileSize = DefaultLogValueSize
	opts.BlockCacheSize = DefaultBlockCacheSize

	// the indexer's store loop is the only writer
	opts.DetectConflicts = false

	// We don't compact L0 on close as this can greatly delay shutdown time.
	opts.CompactL0OnClose = false

	return opts.WithLoggingLevel(badger.WARNING)
}
