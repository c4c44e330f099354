package cmd

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/andrei-cloud/go_binio/internal/boundary"
	"github.com/andrei-cloud/go_binio/internal/config"
	"github.com/andrei-cloud/go_binio/internal/logging"
	"github.com/andrei-cloud/go_binio/pkg/binio"
	"github.com/andrei-cloud/go_binio/pkg/geometry"
)

func newRectCmd() *cobra.Command {
	var asJSON bool

	rectCmd := &cobra.Command{
		Use:   "rect X1,Y1 X2,Y2",
		Short: "Compute the bounding rectangle of two points in the guest",
		Long: `Send a pair of points to the guest's compute export and print the rectangle it returns.
The full call sequence runs: reserve, write, compute, read and decode.`,
		Example: "  binio rect 2,3 8,9",
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			first, err := parsePoint(args[0])
			if err != nil {
				return err
			}
			second, err := parsePoint(args[1])
			if err != nil {
				return err
			}
			pair := geometry.PointPair{First: first, Second: second}

			ctx := cmd.Context()
			cfg := config.Get()
			s, err := openSession(ctx, cfg)
			if err != nil {
				return err
			}
			defer s.Close()

			inst, err := s.instantiate(ctx)
			if err != nil {
				return err
			}

			argData, err := binio.Encode(&pair)
			if err != nil {
				return err
			}
			logging.LogCall(s.info.Name, cfg.Guest.ComputeExport, argData)

			start := time.Now()
			r, err := boundary.Call[geometry.Rect](ctx, inst.Caller, cfg.Guest.ComputeExport, &pair)
			logging.LogResult(s.info.Name, cfg.Guest.ComputeExport, r, time.Since(start), err)
			if err != nil {
				return fmt.Errorf("guest call failed: %w", err)
			}

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				return enc.Encode(r)
			}
			cmd.Printf("Left: %d\n", r.Left)
			cmd.Printf("Right: %d\n", r.Right)
			cmd.Printf("Top: %d\n", r.Top)
			cmd.Printf("Bottom: %d\n", r.Bottom)

			return nil
		},
	}

	rectCmd.Flags().BoolVar(&asJSON, "json", false, "print the rectangle as JSON")

	return rectCmd
}

// parsePoint parses "X,Y".
func parsePoint(s string) (geometry.Point, error) {
	xs, ys, ok := strings.Cut(s, ",")
	if !ok {
		return geometry.Point{}, fmt.Errorf("invalid point %q: want X,Y", s)
	}
	x, err := strconv.ParseInt(strings.TrimSpace(xs), 10, 32)
	if err != nil {
		return geometry.Point{}, fmt.Errorf("invalid point %q: %w", s, err)
	}
	y, err := strconv.ParseInt(strings.TrimSpace(ys), 10, 32)
	if err != nil {
		return geometry.Point{}, fmt.Errorf("invalid point %q: %w", s, err)
	}

	return geometry.Point{X: int32(x), Y: int32(y)}, nil
}
