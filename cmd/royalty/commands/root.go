package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"SplitLedger/client"
)

var (
	nodeAddr string
	keyPath  string
)

// Execute runs the royalty CLI.
func Execute() error {
	root := &cobra.Command{
		Use:           "royalty",
		Short:         "SplitLedger royalty settlement CLI",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	root.PersistentFlags().StringVar(&nodeAddr, "node", "127.0.0.1:8080", "node HTTP address")
	root.PersistentFlags().StringVar(&keyPath, "key", "royalty.key", "wallet key file")

	root.AddCommand(
		keygenCmd(),
		createCmd(),
		showCmd(),
		transferCmd(),
		distributeCmd(),
		withdrawCmd(),
		balanceCmd(),
		accountCmd(),
		faucetCmd(),
		proposalCmd(),
		statusCmd(),
	)

	return root.Execute()
}

// newClient connects to the configured node.
func newClient() *client.Client {
	return client.New(nodeAddr)
}

// loadWallet loads the wallet key and syncs its nonce with the node.
func loadWallet(c *client.Client) (*client.Wallet, error) {
	w, err := client.LoadWallet(keyPath)
	if err != nil {
		return nil, fmt.Errorf("load wallet (run 'royalty keygen' first): %w", err)
	}

	if err := c.SyncNonce(w); err != nil {
		return nil, err
	}

	return w, nil
}
