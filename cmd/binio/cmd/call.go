package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/tetratelabs/wazero/api"

	"github.com/andrei-cloud/go_binio/internal/config"
)

func newCallCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "call EXPORT [ARGS...]",
		Short: "Call a scalar guest export",
		Long: `Call an export that takes and returns plain integers, such as "add 1 2".
Arguments are converted to the export's parameter types.`,
		Example: "  binio call add 2 3\n  binio call hello",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := openSession(ctx, config.Get())
			if err != nil {
				return err
			}
			defer s.Close()

			export := args[0]
			e, ok := s.info.Export(export)
			if !ok || e.Kind != "func" {
				return fmt.Errorf("guest %q has no function export %q", s.info.Name, export)
			}
			if len(args)-1 != len(e.Params) {
				return fmt.Errorf("%s takes %d arguments, got %d", export, len(e.Params), len(args)-1)
			}

			params := make([]uint64, len(e.Params))
			for i, kind := range e.Params {
				params[i], err = encodeScalar(kind, args[i+1])
				if err != nil {
					return fmt.Errorf("argument %d: %w", i+1, err)
				}
			}

			inst, err := s.instantiate(ctx)
			if err != nil {
				return err
			}
			results, err := inst.Caller.Scalar(ctx, export, params...)
			if err != nil {
				return err
			}

			if len(results) == 0 {
				cmd.Println("Result: (none)")
				return nil
			}
			out := make([]string, len(results))
			for i, r := range results {
				out[i] = decodeScalar(e.Results[i], r)
			}
			cmd.Printf("Result: %s\n", strings.Join(out, " "))

			return nil
		},
	}
}

func encodeScalar(kind, s string) (uint64, error) {
	switch kind {
	case "i32":
		v, err := strconv.ParseInt(s, 0, 32)
		if err != nil {
			return 0, err
		}
		return api.EncodeI32(int32(v)), nil
	case "i64":
		v, err := strconv.ParseInt(s, 0, 64)
		if err != nil {
			return 0, err
		}
		return api.EncodeI64(v), nil
	case "f32":
		v, err := strconv.ParseFloat(s, 32)
		if err != nil {
			return 0, err
		}
		return api.EncodeF32(float32(v)), nil
	case "f64":
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, err
		}
		return api.EncodeF64(v), nil
	default:
		return 0, fmt.Errorf("unsupported parameter type %s", kind)
	}
}

func decodeScalar(kind string, v uint64) string {
	switch kind {
	case "i32":
		return strconv.FormatInt(int64(api.DecodeI32(v)), 10)
	case "f32":
		return strconv.FormatFloat(float64(api.DecodeF32(v)), 'g', -1, 32)
	case "f64":
		return strconv.FormatFloat(api.DecodeF64(v), 'g', -1, 64)
	default:
		return strconv.FormatInt(int64(v), 10)
	}
}
