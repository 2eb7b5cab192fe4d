package commands

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"SplitLedger/client"
	"SplitLedger/internal/api"
)

// keygen: generate a wallet key file.
func keygenCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "keygen",
		Short: "Generate a new wallet key",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w, err := client.NewWallet()
			if err != nil {
				return err
			}

			if err := w.Save(keyPath); err != nil {
				return err
			}

			fmt.Printf("address: %s\nkey saved to %s\n", w.AddressHex(), keyPath)

			return nil
		},
	}
}

// create <addr:share[:note]>...: register an artifact with its royalty split.
func createCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "create <addr:share[:note]>...",
		Short: "Register an artifact with its contributor split",
		Long:  "Registers an artifact. Each argument is addr:share[:note]; shares must sum to 100.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			contributors, err := parseContributorArgs(args)
			if err != nil {
				return err
			}

			c := newClient()

			w, err := loadWallet(c)
			if err != nil {
				return err
			}

			id, err := c.CreateArtifact(w, contributors)
			if err != nil {
				return err
			}

			fmt.Printf("artifact: %s\n", id)

			return nil
		},
	}
}

// show <artifact>: print an artifact's contribution record.
func showCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <artifact>",
		Short: "Show an artifact's contribution record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			info, err := newClient().Contributions(args[0])
			if err != nil {
				return err
			}

			fmt.Printf("artifact:   %s\nregistered: height %d\nowner:      %s\n",
				info.ArtifactID, info.RegisteredAt, info.Owner)

			for _, c := range info.Contributors {
				fmt.Printf("  %s  %3d%%  %s\n", c.Address, c.Share, c.Note)
			}

			return nil
		},
	}
}

// transfer <artifact> <to>: move the artifact token to a new holder.
func transferCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "transfer <artifact> <to>",
		Short: "Transfer an artifact token to a new owner",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			to, err := parseAddressArg(args[1])
			if err != nil {
				return err
			}

			c := newClient()

			w, err := loadWallet(c)
			if err != nil {
				return err
			}

			if err := c.TransferArtifact(w, args[0], to); err != nil {
				return err
			}

			fmt.Println("transferred")

			return nil
		},
	}
}

// distribute <artifact> <salePrice>: settle a sale across contributors.
func distributeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "distribute <artifact> <salePrice>",
		Short: "Distribute a sale's proceeds across contributors",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			salePrice, err := strconv.ParseUint(args[1], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid sale price: %q", args[1])
			}

			c := newClient()

			w, err := loadWallet(c)
			if err != nil {
				return err
			}

			distributed, err := c.Distribute(w, args[0], salePrice)
			if err != nil {
				return err
			}

			fmt.Printf("distributed: %d (remainder %d retained)\n", distributed, salePrice-distributed)

			return nil
		},
	}
}

// parseContributorArgs parses addr:share[:note] arguments.
func parseContributorArgs(args []string) ([]api.ContributorEntry, error) {
	contributors := make([]api.ContributorEntry, len(args))

	for i, arg := range args {
		parts := strings.SplitN(arg, ":", 3)
		if len(parts) < 2 {
			return nil, fmt.Errorf("invalid contributor %q, want addr:share[:note]", arg)
		}

		share, err := strconv.ParseUint(parts[1], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid share in %q", arg)
		}

		entry := api.ContributorEntry{Address: parts[0], Share: share}
		if len(parts) == 3 {
			entry.Note = parts[2]
		}

		contributors[i] = entry
	}

	return contributors, nil
}

// parseAddressArg decodes a hex address argument.
func parseAddressArg(s string) ([32]byte, error) {
	data, err := hex.DecodeString(s)
	if err != nil || len(data) != 32 {
		return [32]byte{}, fmt.Errorf("invalid address: %q", s)
	}

	var addr [32]byte
	copy(addr[:], data)

	return addr, nil
}
