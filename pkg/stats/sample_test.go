package stats

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCollectorShardsConcurrent(t *testing.T) {
	const shards, perShard = 8, 500
	c := NewCollector(shards, perShard)

	var wg sync.WaitGroup
	for i := 0; i < shards; i++ {
		wg.Add(1)
		go func(sh *Shard) {
			defer wg.Done()
			for j := 0; j < perShard; j++ {
				sh.Record(Sample{Kind: Read, Latency: time.Duration(j)})
			}
		}(c.Shard(i))
	}
	wg.Wait()

	assert.Equal(t, shards*perShard, c.Len())
	assert.Len(t, c.Samples(), shards*perShard)
}

func TestCollectorPreservesOrder(t *testing.T) {
	c := NewCollector(1, 0)
	c.Record(Sample{Kind: Read, Latency: 1})
	c.Record(Sample{Kind: Write, Latency: 2})

	got := c.Samples()
	assert.Equal(t, []Sample{{Kind: Read, Latency: 1}, {Kind: Write, Latency: 2}}, got)
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "read", Read.String())
	assert.Equal(t, "write", Write.String())
}
