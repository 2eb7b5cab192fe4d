package commands

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"SplitLedger/client"
)

// withdraw: pay out the wallet's accumulated royalties.
func withdrawCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "withdraw",
		Short: "Withdraw accumulated royalties",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c := newClient()

			w, err := loadWallet(c)
			if err != nil {
				return err
			}

			amount, err := c.Withdraw(w)
			if err != nil {
				return err
			}

			fmt.Printf("withdrawn: %d\n", amount)

			return nil
		},
	}
}

// balance [addr]: show a royalty balance (defaults to the wallet address).
func balanceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "balance [addr]",
		Short: "Show an accumulated royalty balance",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c := newClient()

			addr, err := resolveAddressArg(args)
			if err != nil {
				return err
			}

			balance, err := c.RoyaltyBalance(addr)
			if err != nil {
				return err
			}

			fmt.Printf("royalty balance: %d\n", balance)

			return nil
		},
	}
}

// account [addr]: show a native token balance.
func accountCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "account [addr]",
		Short: "Show a native token account balance",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c := newClient()

			addr, err := resolveAddressArg(args)
			if err != nil {
				return err
			}

			balance, err := c.AccountBalance(addr)
			if err != nil {
				return err
			}

			fmt.Printf("account balance: %d\n", balance)

			return nil
		},
	}
}

// faucet <amount>: request tokens for the wallet address.
func faucetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "faucet <amount>",
		Short: "Request tokens from the node faucet",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := strconv.ParseUint(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid amount: %q", args[0])
			}

			c := newClient()

			w, err := loadWallet(c)
			if err != nil {
				return err
			}

			balance, err := c.Faucet(w.Address(), amount)
			if err != nil {
				return err
			}

			fmt.Printf("account balance: %d\n", balance)

			return nil
		},
	}
}

// status: show node height and artifact count.
func statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show node status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			status, err := newClient().Status()
			if err != nil {
				return err
			}

			fmt.Printf("height:    %d\nartifacts: %d\n", status.Height, status.Artifacts)

			return nil
		},
	}
}

// resolveAddressArg returns the explicit address argument or falls back to
// the wallet address.
func resolveAddressArg(args []string) ([32]byte, error) {
	if len(args) == 1 {
		return parseAddressArg(args[0])
	}

	w, err := client.LoadWallet(keyPath)
	if err != nil {
		return [32]byte{}, fmt.Errorf("load wallet (run 'royalty keygen' first): %w", err)
	}

	return w.Address(), nil
}
