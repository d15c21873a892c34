package codec

import (
	"bytes"
	"fmt"
	"runtime"
	"sync"

	"github.com/eric-unc/adder-codec-go/internal/event"
)

// ParallelEncode compresses disjoint groups of events concurrently, one
// CompressedOutput per group, and returns each group's encoded stream in
// the same order the groups were given. Each group's stream is identical
// to what EncodeAll produces for that group alone, since every group gets
// its own CompressedOutput and ADUs from different groups never
// interleave on the wire.
//
// This mirrors the tile-parallel worker pool a block-based image codec
// uses to code its blocks concurrently: a pre-filled job channel, a
// capped pool of workers draining it, and ordered-by-index collection of
// results once every worker has finished.
func ParallelEncode(groups [][]event.Event, meta CodecMetadata) ([][]byte, error) {
	numWorkers := runtime.GOMAXPROCS(0)
	if numWorkers > len(groups) {
		numWorkers = len(groups)
	}
	if numWorkers == 0 {
		return nil, nil
	}

	type job struct {
		index  int
		events []event.Event
	}
	type result struct {
		index   int
		encoded []byte
		err     error
	}

	jobChan := make(chan job, len(groups))
	for i, g := range groups {
		jobChan <- job{index: i, events: g}
	}
	close(jobChan)

	resultChan := make(chan result, len(groups))
	var wg sync.WaitGroup
	for i := 0; i < numWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobChan {
				var buf bytes.Buffer
				err := EncodeAll(&buf, meta, j.events)
				resultChan <- result{index: j.index, encoded: buf.Bytes(), err: err}
			}
		}()
	}
	go func() {
		wg.Wait()
		close(resultChan)
	}()

	results := make([][]byte, len(groups))
	var firstErr error
	for r := range resultChan {
		if r.err != nil && firstErr == nil {
			firstErr = fmt.Errorf("encoding group %d: %w", r.index, r.err)
			continue
		}
		results[r.index] = r.encoded
	}
	if firstErr != nil {
		return nil, firstErr
	}
	return results, nil
}
