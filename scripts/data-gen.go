/*
	Load generator: concurrent workers store and check ~20k credentials
	against an in-memory 1 MiB directory while a simulated clock advances,
	so credentials keep expiring and being compacted away.
*/

package main

import (
	"fmt"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"

	"github.com/0xRadioAc7iv/go-flashdir/core"
	"github.com/0xRadioAc7iv/go-flashdir/internal/medium"
	"github.com/0xRadioAc7iv/go-flashdir/internal/record"
)

const (
	concurrency = 6

	// Fixed universe
	totalCredentials = 20000

	// Per-cycle behavior
	putsPerCycle    = 20
	checksPerCycle  = 40
	cyclesPerWorker = 2000

	// Simulated time
	startTime      = 1_700_000_000
	secondsPerTick = 5
	minLifetime    = 600
	maxLifetime    = 6 * 3600

	progressEvery = 500
)

type counters struct {
	puts, capacityExceeded atomic.Int64
	verdicts               [core.VerdictError + 1]atomic.Int64
}

func main() {
	start := time.Now()
	fmt.Println("Starting flashdir churn-heavy load generator")

	d, err := core.New(medium.NewMemory(medium.OneMegabyte))
	if err != nil {
		fmt.Println("Error while creating directory:", err)
		return
	}

	credentials := makeCredentials(totalCredentials)

	var clock atomic.Uint32
	clock.Store(startTime)

	var c counters
	var wg sync.WaitGroup

	for i := 0; i < concurrency; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			runWorker(id, d, credentials, &clock, &c)
		}(i)
	}

	wg.Wait()

	now := clock.Load()
	fmt.Printf("Load finished in %v (simulated %ds)\n", time.Since(start), now-startTime)
	fmt.Printf("puts %d, capacity exceeded %d\n", c.puts.Load(), c.capacityExceeded.Load())
	for v := core.VerdictUnknown; v <= core.VerdictError; v++ {
		fmt.Printf("check %-16s %d\n", v, c.verdicts[v].Load())
	}

	s, err := d.Stats(now)
	if err != nil {
		fmt.Println("Error while collecting stats:", err)
		return
	}
	fmt.Printf("slots %d: live %d, stale %d, empty %d\n", s.Slots, s.Live, s.Stale, s.Empty)

	removed, err := d.Sweep(now)
	if err != nil {
		fmt.Println("Error while sweeping:", err)
		return
	}
	fmt.Printf("final sweep removed %d\n", removed)
}

func runWorker(id int, d *core.Directory, credentials []record.Credential, clock *atomic.Uint32, c *counters) {
	rng := rand.New(rand.NewSource(time.Now().UnixNano() + int64(id)))

	for cycle := 1; cycle <= cyclesPerWorker; cycle++ {
		now := clock.Add(secondsPerTick)

		// ---- PUT PHASE ----
		for i := 0; i < putsPerCycle; i++ {
			cred := credentials[rng.Intn(len(credentials))]
			expiry := now + uint32(minLifetime+rng.Intn(maxLifetime-minLifetime))

			err := d.Put(cred, expiry, now)
			c.puts.Add(1)
			if errors.Is(err, core.ErrCapacityExceeded) {
				c.capacityExceeded.Add(1)
				continue
			}
			if err != nil {
				fmt.Printf("[worker %d] PUT error: %v\n", id, err)
				return
			}
		}

		// ---- CHECK PHASE ----
		for i := 0; i < checksPerCycle; i++ {
			cred := credentials[rng.Intn(len(credentials))]

			verdict, err := d.Verify(cred, now)
			if err != nil {
				fmt.Printf("[worker %d] CHECK error: %v\n", id, err)
				return
			}
			c.verdicts[verdict].Add(1)
		}

		if cycle%progressEvery == 0 {
			fmt.Printf("[worker %d] completed %d cycles\n", id, cycle)
		}
	}
}

func makeCredentials(n int) []record.Credential {
	rng := rand.New(rand.NewSource(1))

	credentials := make([]record.Credential, n)
	for i := range credentials {
		rng.Read(credentials[i][:])
	}
	return credentials
}
