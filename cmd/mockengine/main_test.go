package main

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunWithoutConsumerFinishes(t *testing.T) {
	e := newMockEngine()
	s := &session{id: "s1", events: make(chan event, 2)}
	e.sessions[s.id] = s
	e.current = s

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan struct{})
	go func() {
		// Buffer holds 2 events but the crawl produces far more; with
		// nobody reading, run must drop the surplus and still return.
		e.run(ctx, s, startRequest{URL: "https://example.com", MaxPages: 8, DelayMS: 1})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("run blocked with no event consumer")
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	assert.Nil(t, e.current)
	assert.Empty(t, e.sessions)
}

func TestLedgerChainsHashes(t *testing.T) {
	e := newMockEngine()
	e.appendBlock("scraped_page", time.Now())
	e.appendBlock("scraped_page", time.Now())

	blocks := e.snapshot()
	require.Len(t, blocks, 3)
	assert.Equal(t, "genesis", blocks[0].DataType)
	assert.Equal(t, "0", blocks[0].PreviousHash)
	for i := 1; i < len(blocks); i++ {
		assert.Equal(t, i, blocks[i].Index)
		assert.Equal(t, blocks[i-1].Hash, blocks[i].PreviousHash)
	}
}
