package client

import (
	"encoding/hex"
	"fmt"

	"SplitLedger/internal/api"
)

// Client connects to a SplitLedger node via HTTP.
type Client struct {
	nodeAddr string // nodeAddr is the HTTP address (e.g. "127.0.0.1:8080")
}

// ArtifactInfo holds a registered artifact's contribution record.
type ArtifactInfo struct {
	ArtifactID   string                 `json:"artifactID"`
	RegisteredAt uint64                 `json:"registeredAt"`
	Contributors []api.ContributorEntry `json:"contributors"`
	Owner        string                 `json:"owner"`
}

// ProposalInfo holds a governance proposal's state.
type ProposalInfo struct {
	ProposalID   uint64 `json:"proposalID"`
	Artifact     string `json:"artifact"`
	Title        string `json:"title"`
	Description  string `json:"description"`
	Creator      string `json:"creator"`
	ClosesAt     uint64 `json:"closesAt"`
	VotesFor     uint64 `json:"votesFor"`
	VotesAgainst uint64 `json:"votesAgainst"`
	Closed       bool   `json:"closed"`
	Passed       bool   `json:"passed"`
}

// Status holds node monitoring state.
type Status struct {
	Height    uint64 `json:"height"`
	Artifacts int    `json:"artifacts"`
}

// New creates a client for the node at the given HTTP address.
func New(nodeAddr string) *Client {
	return &Client{nodeAddr: nodeAddr}
}

// SyncNonce fetches the wallet's last accepted nonce from the node so the
// next signed request continues the sequence.
func (c *Client) SyncNonce(w *Wallet) error {
	var resp struct {
		Nonce uint64 `json:"nonce"`
	}

	if err := httpGet(c.url("/nonces/"+w.AddressHex()), &resp); err != nil {
		return fmt.Errorf("get nonce:\n%w", err)
	}

	w.SetNonce(resp.Nonce)

	return nil
}

// CreateArtifact registers a new artifact and returns its identifier.
func (c *Client) CreateArtifact(w *Wallet, contributors []api.ContributorEntry) (string, error) {
	req, err := w.sign(api.Payload{
		Op:           api.OpCreateArtifact,
		Contributors: contributors,
	})
	if err != nil {
		return "", err
	}

	var resp struct {
		ArtifactID string `json:"artifactID"`
	}

	if err := httpPostJSON(c.url("/artifacts"), req, &resp); err != nil {
		return "", fmt.Errorf("create artifact:\n%w", err)
	}

	return resp.ArtifactID, nil
}

// Contributions fetches an artifact's contribution record.
func (c *Client) Contributions(artifactID string) (ArtifactInfo, error) {
	var info ArtifactInfo

	if err := httpGet(c.url("/artifacts/"+artifactID), &info); err != nil {
		return ArtifactInfo{}, fmt.Errorf("get artifact:\n%w", err)
	}

	return info, nil
}

// Distribute settles a sale across an artifact's contributors and returns
// the total distributed.
func (c *Client) Distribute(w *Wallet, artifactID string, salePrice uint64) (uint64, error) {
	req, err := w.sign(api.Payload{
		Op:        api.OpDistribute,
		Artifact:  artifactID,
		SalePrice: salePrice,
	})
	if err != nil {
		return 0, err
	}

	var resp struct {
		Distributed uint64 `json:"distributed"`
	}

	if err := httpPostJSON(c.url("/distribute"), req, &resp); err != nil {
		return 0, fmt.Errorf("distribute:\n%w", err)
	}

	return resp.Distributed, nil
}

// Withdraw pays out the wallet's accumulated royalties and returns the
// amount withdrawn.
func (c *Client) Withdraw(w *Wallet) (uint64, error) {
	req, err := w.sign(api.Payload{Op: api.OpWithdraw})
	if err != nil {
		return 0, err
	}

	var resp struct {
		Withdrawn uint64 `json:"withdrawn"`
	}

	if err := httpPostJSON(c.url("/withdraw"), req, &resp); err != nil {
		return 0, fmt.Errorf("withdraw:\n%w", err)
	}

	return resp.Withdrawn, nil
}

// TransferArtifact moves an artifact token to a new holder.
func (c *Client) TransferArtifact(w *Wallet, artifactID string, to [32]byte) error {
	req, err := w.sign(api.Payload{
		Op:       api.OpTransferArtifact,
		Artifact: artifactID,
		To:       hex.EncodeToString(to[:]),
	})
	if err != nil {
		return err
	}

	var resp struct {
		Owner string `json:"owner"`
	}

	if err := httpPostJSON(c.url("/transfer-artifact"), req, &resp); err != nil {
		return fmt.Errorf("transfer artifact:\n%w", err)
	}

	return nil
}

// RoyaltyBalance returns an address's accumulated royalty balance.
func (c *Client) RoyaltyBalance(addr [32]byte) (uint64, error) {
	var resp struct {
		Balance uint64 `json:"balance"`
	}

	if err := httpGet(c.url("/royalties/"+hex.EncodeToString(addr[:])), &resp); err != nil {
		return 0, fmt.Errorf("get royalty balance:\n%w", err)
	}

	return resp.Balance, nil
}

// AccountBalance returns an address's native token balance.
func (c *Client) AccountBalance(addr [32]byte) (uint64, error) {
	var resp struct {
		Balance uint64 `json:"balance"`
	}

	if err := httpGet(c.url("/accounts/"+hex.EncodeToString(addr[:])), &resp); err != nil {
		return 0, fmt.Errorf("get account balance:\n%w", err)
	}

	return resp.Balance, nil
}

// Faucet requests tokens for an address and returns the new balance.
func (c *Client) Faucet(addr [32]byte, amount uint64) (uint64, error) {
	body := map[string]any{
		"pubkey": hex.EncodeToString(addr[:]),
		"amount": amount,
	}

	var resp struct {
		Balance uint64 `json:"balance"`
	}

	if err := httpPostJSON(c.url("/faucet"), body, &resp); err != nil {
		return 0, fmt.Errorf("faucet:\n%w", err)
	}

	return resp.Balance, nil
}

// CreateProposal opens a governance proposal for an artifact.
func (c *Client) CreateProposal(w *Wallet, artifactID, title, description string, window uint64) (uint64, error) {
	req, err := w.sign(api.Payload{
		Op:          api.OpCreateProposal,
		Artifact:    artifactID,
		Title:       title,
		Description: description,
		Window:      window,
	})
	if err != nil {
		return 0, err
	}

	var resp struct {
		ProposalID uint64 `json:"proposalID"`
	}

	if err := httpPostJSON(c.url("/proposals"), req, &resp); err != nil {
		return 0, fmt.Errorf("create proposal:\n%w", err)
	}

	return resp.ProposalID, nil
}

// Vote records a vote on a proposal.
func (c *Client) Vote(w *Wallet, proposalID uint64, approve bool) error {
	req, err := w.sign(api.Payload{
		Op:       api.OpVote,
		Proposal: proposalID,
		Approve:  approve,
	})
	if err != nil {
		return err
	}

	var resp struct {
		Recorded bool `json:"recorded"`
	}

	if err := httpPostJSON(c.url("/proposals/vote"), req, &resp); err != nil {
		return fmt.Errorf("vote:\n%w", err)
	}

	return nil
}

// CloseProposal finalizes a proposal and reports whether it passed.
func (c *Client) CloseProposal(w *Wallet, proposalID uint64) (bool, error) {
	req, err := w.sign(api.Payload{
		Op:       api.OpCloseProposal,
		Proposal: proposalID,
	})
	if err != nil {
		return false, err
	}

	var resp struct {
		Passed bool `json:"passed"`
	}

	if err := httpPostJSON(c.url("/proposals/close"), req, &resp); err != nil {
		return false, fmt.Errorf("close proposal:\n%w", err)
	}

	return resp.Passed, nil
}

// Proposal fetches a proposal's state.
func (c *Client) Proposal(proposalID uint64) (ProposalInfo, error) {
	var info ProposalInfo

	if err := httpGet(c.url(fmt.Sprintf("/proposals/%d", proposalID)), &info); err != nil {
		return ProposalInfo{}, fmt.Errorf("get proposal:\n%w", err)
	}

	return info, nil
}

// Snapshot downloads the node's current settlement state snapshot.
func (c *Client) Snapshot() ([]byte, error) {
	return httpGetBytes(c.url("/snapshot"))
}

// Status fetches node monitoring state.
func (c *Client) Status() (Status, error) {
	var status Status

	if err := httpGet(c.url("/status"), &status); err != nil {
		return Status{}, fmt.Errorf("get status:\n%w", err)
	}

	return status, nil
}

// url builds a full endpoint URL.
func (c *Client) url(path string) string {
	return "http://" + c.nodeAddr + path
}
