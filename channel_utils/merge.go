package channel_utils

import "sync"

// MergeChannels fans values from every input channel into one output channel.
// The merged channel closes once all inputs are drained. Forwarders run as
// plain goroutines: fan-in blocks until consumers read the merged channel, so
// it must not hold worker-pool slots away from the tasks producing the inputs.
func MergeChannels[T any](channels ...<-chan T) <-chan T {
	var wg sync.WaitGroup
	merged := make(chan T)

	wg.Add(len(channels))
	for _, c := range channels {
		ch := c
		go func() {
			for val := range ch {
				merged <- val
			}
			wg.Done()
		}()
	}

	go func() {
		wg.Wait()
		close(merged)
	}()

	return merged
}
