package commands

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

// proposal: governance proposal subcommands.
func proposalCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "proposal",
		Short: "Manage governance proposals",
	}

	cmd.AddCommand(
		proposalCreateCmd(),
		proposalVoteCmd(),
		proposalCloseCmd(),
		proposalShowCmd(),
	)

	return cmd
}

// proposal create <artifact> <title>: open a proposal for an artifact.
func proposalCreateCmd() *cobra.Command {
	var (
		description string
		window      uint64
	)

	cmd := &cobra.Command{
		Use:   "create <artifact> <title>",
		Short: "Open a proposal for an artifact you own",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			c := newClient()

			w, err := loadWallet(c)
			if err != nil {
				return err
			}

			id, err := c.CreateProposal(w, args[0], args[1], description, window)
			if err != nil {
				return err
			}

			fmt.Printf("proposal: %d\n", id)

			return nil
		},
	}

	cmd.Flags().StringVar(&description, "description", "", "proposal description")
	cmd.Flags().Uint64Var(&window, "window", 100, "voting window in heights")

	return cmd
}

// proposal vote <id> <for|against>: record a vote.
func proposalVoteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "vote <id> <for|against>",
		Short: "Vote on a proposal",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseUint(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid proposal id: %q", args[0])
			}

			var approve bool
			switch args[1] {
			case "for":
				approve = true
			case "against":
				approve = false
			default:
				return fmt.Errorf("vote must be 'for' or 'against', got %q", args[1])
			}

			c := newClient()

			w, err := loadWallet(c)
			if err != nil {
				return err
			}

			if err := c.Vote(w, id, approve); err != nil {
				return err
			}

			fmt.Println("vote recorded")

			return nil
		},
	}
}

// proposal close <id>: finalize a proposal after its window.
func proposalCloseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "close <id>",
		Short: "Close a proposal after its voting window",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseUint(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid proposal id: %q", args[0])
			}

			c := newClient()

			w, err := loadWallet(c)
			if err != nil {
				return err
			}

			passed, err := c.CloseProposal(w, id)
			if err != nil {
				return err
			}

			if passed {
				fmt.Println("closed: passed")
			} else {
				fmt.Println("closed: rejected")
			}

			return nil
		},
	}
}

// proposal show <id>: print a proposal's state.
func proposalShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show a proposal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseUint(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid proposal id: %q", args[0])
			}

			info, err := newClient().Proposal(id)
			if err != nil {
				return err
			}

			fmt.Printf("proposal:  %d\nartifact:  %s\ntitle:     %s\ncreator:   %s\ncloses at: height %d\nfor:       %d\nagainst:   %d\n",
				info.ProposalID, info.Artifact, info.Title, info.Creator, info.ClosesAt, info.VotesFor, info.VotesAgainst)

			if info.Description != "" {
				fmt.Printf("\n%s\n", info.Description)
			}

			if info.Closed {
				fmt.Printf("\nclosed: passed=%v\n", info.Passed)
			}

			return nil
		},
	}
}
