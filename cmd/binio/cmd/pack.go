package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/andrei-cloud/go_binio/pkg/abi"
)

func newPackCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "pack PTR LEN",
		Short: "Pack a pointer and a length into one i64",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ptr, err := strconv.ParseInt(args[0], 0, 64)
			if err != nil {
				return fmt.Errorf("invalid pointer: %w", err)
			}
			length, err := strconv.ParseInt(args[1], 0, 64)
			if err != nil {
				return fmt.Errorf("invalid length: %w", err)
			}

			packed, err := abi.PackChecked(ptr, length)
			if err != nil {
				return err
			}

			cmd.Printf("Packed: %d\n", packed)
			cmd.Printf("Hex: 0x%016x\n", uint64(packed))
			return nil
		},
	}
}

func newUnpackCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "unpack VALUE",
		Short: "Split a packed i64 into pointer and length",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := parsePacked(args[0])
			if err != nil {
				return err
			}

			h := abi.UnpackHandle(v)
			cmd.Printf("Pointer: %d\n", h.Ptr)
			cmd.Printf("Length: %d\n", h.Len)
			return nil
		},
	}
}

// parsePacked accepts signed decimal or any 64-bit pattern in hex.
func parsePacked(s string) (int64, error) {
	if v, err := strconv.ParseInt(s, 0, 64); err == nil {
		return v, nil
	}
	u, err := strconv.ParseUint(s, 0, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid packed value %q: %w", s, err)
	}
	return int64(u), nil
}
