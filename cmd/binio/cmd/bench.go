package cmd

import (
	"fmt"
	"math/rand/v2"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/andrei-cloud/go_binio/internal/boundary"
	"github.com/andrei-cloud/go_binio/internal/config"
	"github.com/andrei-cloud/go_binio/internal/host"
	"github.com/andrei-cloud/go_binio/pkg/geometry"
)

func newBenchCmd() *cobra.Command {
	var (
		calls   int
		workers int
	)

	benchCmd := &cobra.Command{
		Use:   "bench",
		Short: "Run many round trips over a pool of guest instances",
		Long: `Run random point pairs through the compute export in parallel. Each instance serves
one call at a time; the pool size comes from runtime.pool_size. Every result is checked
against the host-side computation.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if calls < 1 {
				return fmt.Errorf("--calls must be positive, got %d", calls)
			}

			ctx := cmd.Context()
			cfg := config.Get()
			if workers < 1 {
				workers = cfg.Runtime.PoolSize
			}

			s, err := openSession(ctx, cfg)
			if err != nil {
				return err
			}
			defer s.Close()

			pool := s.manager.NewPool(s.info.Name, cfg.Runtime.PoolSize)
			defer pool.Close(ctx)

			var (
				wg       sync.WaitGroup
				failures atomic.Int64
				sem      = make(chan struct{}, workers)
			)

			start := time.Now()
			for range calls {
				sem <- struct{}{}
				wg.Add(1)
				go func() {
					defer wg.Done()
					defer func() { <-sem }()

					pair := randomPair()
					err := pool.Do(ctx, func(inst *host.Instance) error {
						r, err := boundary.Call[geometry.Rect](ctx, inst.Caller, cfg.Guest.ComputeExport, &pair)
						if err != nil {
							return err
						}
						if want := pair.Bound(); r != want {
							return fmt.Errorf("guest returned %+v, want %+v", r, want)
						}
						return nil
					})
					if err != nil {
						failures.Add(1)
						log.Error().Str("event", "bench_call").Err(err).Msg("call failed")
					}
				}()
			}
			wg.Wait()
			elapsed := time.Since(start)

			cmd.Printf("Calls: %d\n", calls)
			cmd.Printf("Failures: %d\n", failures.Load())
			cmd.Printf("Instances: %d\n", cfg.Runtime.PoolSize)
			cmd.Printf("Elapsed: %s\n", elapsed.Round(time.Microsecond))
			cmd.Printf("Throughput: %.0f calls/s\n", float64(calls)/elapsed.Seconds())

			if n := failures.Load(); n > 0 {
				return fmt.Errorf("%d of %d calls failed", n, calls)
			}
			return nil
		},
	}

	benchCmd.Flags().IntVar(&calls, "calls", 1000, "number of round trips")
	benchCmd.Flags().IntVar(&workers, "workers", 0, "concurrent callers (default: runtime.pool_size)")

	return benchCmd
}

func randomPair() geometry.PointPair {
	return geometry.PointPair{
		First:  geometry.Point{X: rand.Int32(), Y: -rand.Int32()},
		Second: geometry.Point{X: -rand.Int32(), Y: rand.Int32()},
	}
}
