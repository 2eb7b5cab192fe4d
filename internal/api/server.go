package api

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"SplitLedger/internal/governance"
	"SplitLedger/internal/logger"
	"SplitLedger/internal/ownership"
	"SplitLedger/internal/royalty"
)

// maxBodySize is the maximum accepted request body in bytes.
const maxBodySize = 1 << 20 // 1 MB

// LedgerService exposes the settlement core operations.
type LedgerService interface {
	CreateArtifact(contributors []royalty.Contributor, creator royalty.Address) (royalty.ArtifactID, error)
	Contributions(id royalty.ArtifactID) (royalty.ContributionRecord, bool)
	Distribute(id royalty.ArtifactID, salePrice uint64, caller royalty.Address) (uint64, error)
	Withdraw(addr royalty.Address) (uint64, error)
	RoyaltyBalance(addr royalty.Address) uint64
	ArtifactOwner(id royalty.ArtifactID) (royalty.Address, bool)
	TransferArtifact(id royalty.ArtifactID, from, to royalty.Address) error
}

// AccountService exposes native token accounts.
type AccountService interface {
	AccountBalance(addr royalty.Address) uint64
	Mint(addr royalty.Address, amount uint64) error
}

// GovernanceService exposes the proposal lifecycle.
type GovernanceService interface {
	CreateProposal(artifact royalty.ArtifactID, title, description string, creator royalty.Address, window uint64) (uint64, error)
	Vote(id uint64, voter royalty.Address, approve bool) error
	CloseProposal(id uint64, caller royalty.Address) (governance.Proposal, error)
	Proposal(id uint64) (governance.Proposal, bool)
}

// StatusProvider exposes node state for monitoring.
type StatusProvider interface {
	Height() uint64
	ArtifactCount() int
}

// SnapshotProvider exports the current settlement state.
type SnapshotProvider interface {
	Snapshot() ([]byte, error)
}

// Server is the HTTP API server.
type Server struct {
	addr      string
	ledger    LedgerService
	accounts  AccountService
	gov       GovernanceService
	status    StatusProvider
	snapshots SnapshotProvider
	nonces    *NonceStore
	server    *http.Server
}

// New creates an HTTP API server.
func New(addr string, ledger LedgerService, accounts AccountService, gov GovernanceService, status StatusProvider, snapshots SnapshotProvider, nonces *NonceStore) *Server {
	return &Server{
		addr:      addr,
		ledger:    ledger,
		accounts:  accounts,
		gov:       gov,
		status:    status,
		snapshots: snapshots,
		nonces:    nonces,
	}
}

// Start starts the HTTP server in a goroutine.
func (s *Server) Start() {
	s.server = &http.Server{
		Addr:         s.addr,
		Handler:      s.Handler(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("http api started", "addr", s.addr)

		if err := s.server.ListenAndServe(); err != http.ErrServerClosed {
			logger.Error("http server error", "error", err)
		}
	}()
}

// Stop gracefully shuts down the HTTP server.
func (s *Server) Stop() error {
	if s.server == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return s.server.Shutdown(ctx)
}

// Handler builds the route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /artifacts", s.handleCreateArtifact)
	mux.HandleFunc("GET /artifacts/{id}", s.handleGetArtifact)
	mux.HandleFunc("POST /distribute", s.handleDistribute)
	mux.HandleFunc("POST /withdraw", s.handleWithdraw)
	mux.HandleFunc("POST /transfer-artifact", s.handleTransferArtifact)
	mux.HandleFunc("GET /royalties/{addr}", s.handleRoyaltyBalance)
	mux.HandleFunc("GET /accounts/{addr}", s.handleAccountBalance)
	mux.HandleFunc("POST /faucet", s.handleFaucet)
	mux.HandleFunc("POST /proposals", s.handleCreateProposal)
	mux.HandleFunc("POST /proposals/vote", s.handleVote)
	mux.HandleFunc("POST /proposals/close", s.handleCloseProposal)
	mux.HandleFunc("GET /proposals/{id}", s.handleGetProposal)
	mux.HandleFunc("GET /nonces/{addr}", s.handleGetNonce)
	mux.HandleFunc("GET /snapshot", s.handleSnapshot)
	mux.HandleFunc("GET /status", s.handleStatus)
	mux.HandleFunc("GET /health", s.handleHealth)

	return mux
}

// readSignedRequest decodes and verifies a signed request body, including
// the nonce check. Returns the verified caller address.
func (s *Server) readSignedRequest(r *http.Request, wantOp string) (SignedRequest, royalty.Address, error) {
	var req SignedRequest

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize))
	if err != nil {
		return SignedRequest{}, royalty.Address{}, fmt.Errorf("read body:\n%w", err)
	}

	if err := json.Unmarshal(body, &req); err != nil {
		return SignedRequest{}, royalty.Address{}, fmt.Errorf("decode request: %v", err)
	}

	caller, err := verifySignedRequest(req, wantOp)
	if err != nil {
		return SignedRequest{}, royalty.Address{}, err
	}

	if err := s.nonces.Check(caller, req.Payload.Nonce); err != nil {
		return SignedRequest{}, royalty.Address{}, err
	}

	return req, caller, nil
}

// handleCreateArtifact handles POST /artifacts.
func (s *Server) handleCreateArtifact(w http.ResponseWriter, r *http.Request) {
	req, caller, err := s.readSignedRequest(r, OpCreateArtifact)
	if err != nil {
		writeError(w, http.StatusUnauthorized, err.Error())
		return
	}

	contributors, err := ParseContributors(req.Payload.Contributors)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	id, err := s.ledger.CreateArtifact(contributors, caller)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	logger.Info("artifact registered",
		"artifact", hex.EncodeToString(id[:8]),
		"contributors", len(contributors),
	)

	writeJSON(w, http.StatusCreated, map[string]string{
		"artifactID": hex.EncodeToString(id[:]),
	})
}

// handleGetArtifact handles GET /artifacts/{id}.
func (s *Server) handleGetArtifact(w http.ResponseWriter, r *http.Request) {
	id, err := ParseArtifactID(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	record, ok := s.ledger.Contributions(id)
	if !ok {
		writeError(w, http.StatusNotFound, "artifact not found")
		return
	}

	contributors := make([]ContributorEntry, len(record.Contributors))
	for i, c := range record.Contributors {
		contributors[i] = ContributorEntry{
			Address: hex.EncodeToString(c.Address[:]),
			Share:   c.Share,
			Note:    c.Note,
		}
	}

	resp := map[string]any{
		"artifactID":   hex.EncodeToString(record.ArtifactID[:]),
		"registeredAt": record.RegisteredAt,
		"contributors": contributors,
	}

	if owner, ok := s.ledger.ArtifactOwner(id); ok {
		resp["owner"] = hex.EncodeToString(owner[:])
	}

	writeJSON(w, http.StatusOK, resp)
}

// handleDistribute handles POST /distribute.
func (s *Server) handleDistribute(w http.ResponseWriter, r *http.Request) {
	req, caller, err := s.readSignedRequest(r, OpDistribute)
	if err != nil {
		writeError(w, http.StatusUnauthorized, err.Error())
		return
	}

	id, err := ParseArtifactID(req.Payload.Artifact)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	distributed, err := s.ledger.Distribute(id, req.Payload.SalePrice, caller)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	logger.Info("royalties distributed",
		"artifact", hex.EncodeToString(id[:8]),
		"salePrice", req.Payload.SalePrice,
		"distributed", distributed,
	)

	writeJSON(w, http.StatusOK, map[string]uint64{
		"distributed": distributed,
	})
}

// handleWithdraw handles POST /withdraw.
func (s *Server) handleWithdraw(w http.ResponseWriter, r *http.Request) {
	_, caller, err := s.readSignedRequest(r, OpWithdraw)
	if err != nil {
		writeError(w, http.StatusUnauthorized, err.Error())
		return
	}

	amount, err := s.ledger.Withdraw(caller)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	logger.Info("royalties withdrawn",
		"address", hex.EncodeToString(caller[:8]),
		"amount", amount,
	)

	writeJSON(w, http.StatusOK, map[string]uint64{
		"withdrawn": amount,
	})
}

// handleTransferArtifact handles POST /transfer-artifact.
func (s *Server) handleTransferArtifact(w http.ResponseWriter, r *http.Request) {
	req, caller, err := s.readSignedRequest(r, OpTransferArtifact)
	if err != nil {
		writeError(w, http.StatusUnauthorized, err.Error())
		return
	}

	id, err := ParseArtifactID(req.Payload.Artifact)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	to, err := ParseAddress(req.Payload.To)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := s.ledger.TransferArtifact(id, caller, to); err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"owner": hex.EncodeToString(to[:]),
	})
}

// handleRoyaltyBalance handles GET /royalties/{addr}.
func (s *Server) handleRoyaltyBalance(w http.ResponseWriter, r *http.Request) {
	addr, err := ParseAddress(r.PathValue("addr"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]uint64{
		"balance": s.ledger.RoyaltyBalance(addr),
	})
}

// handleAccountBalance handles GET /accounts/{addr}.
func (s *Server) handleAccountBalance(w http.ResponseWriter, r *http.Request) {
	addr, err := ParseAddress(r.PathValue("addr"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]uint64{
		"balance": s.accounts.AccountBalance(addr),
	})
}

// handleFaucet handles POST /faucet. Unsigned: the faucet exists for local
// development and integration tests.
func (s *Server) handleFaucet(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Pubkey string `json:"pubkey"`
		Amount uint64 `json:"amount"`
	}

	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodySize)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	addr, err := ParseAddress(req.Pubkey)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := s.accounts.Mint(addr, req.Amount); err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]uint64{
		"balance": s.accounts.AccountBalance(addr),
	})
}

// handleCreateProposal handles POST /proposals.
func (s *Server) handleCreateProposal(w http.ResponseWriter, r *http.Request) {
	req, caller, err := s.readSignedRequest(r, OpCreateProposal)
	if err != nil {
		writeError(w, http.StatusUnauthorized, err.Error())
		return
	}

	artifact, err := ParseArtifactID(req.Payload.Artifact)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	id, err := s.gov.CreateProposal(artifact, req.Payload.Title, req.Payload.Description, caller, req.Payload.Window)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]uint64{
		"proposalID": id,
	})
}

// handleVote handles POST /proposals/vote.
func (s *Server) handleVote(w http.ResponseWriter, r *http.Request) {
	req, caller, err := s.readSignedRequest(r, OpVote)
	if err != nil {
		writeError(w, http.StatusUnauthorized, err.Error())
		return
	}

	if err := s.gov.Vote(req.Payload.Proposal, caller, req.Payload.Approve); err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{
		"recorded": true,
	})
}

// handleCloseProposal handles POST /proposals/close.
func (s *Server) handleCloseProposal(w http.ResponseWriter, r *http.Request) {
	req, caller, err := s.readSignedRequest(r, OpCloseProposal)
	if err != nil {
		writeError(w, http.StatusUnauthorized, err.Error())
		return
	}

	proposal, err := s.gov.CloseProposal(req.Payload.Proposal, caller)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"proposalID": proposal.ID,
		"passed":     proposal.Passed,
	})
}

// handleGetProposal handles GET /proposals/{id}.
func (s *Server) handleGetProposal(w http.ResponseWriter, r *http.Request) {
	var id uint64
	if _, err := fmt.Sscanf(r.PathValue("id"), "%d", &id); err != nil {
		writeError(w, http.StatusBadRequest, "invalid proposal id")
		return
	}

	proposal, ok := s.gov.Proposal(id)
	if !ok {
		writeError(w, http.StatusNotFound, "proposal not found")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"proposalID":   proposal.ID,
		"artifact":     hex.EncodeToString(proposal.Artifact[:]),
		"title":        proposal.Title,
		"description":  proposal.Description,
		"creator":      hex.EncodeToString(proposal.Creator[:]),
		"closesAt":     proposal.ClosesAt,
		"votesFor":     proposal.VotesFor,
		"votesAgainst": proposal.VotesAgainst,
		"closed":       proposal.Closed,
		"passed":       proposal.Passed,
	})
}

// handleGetNonce handles GET /nonces/{addr}.
func (s *Server) handleGetNonce(w http.ResponseWriter, r *http.Request) {
	addr, err := ParseAddress(r.PathValue("addr"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]uint64{
		"nonce": s.nonces.Last(addr),
	})
}

// handleSnapshot handles GET /snapshot.
func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	data, err := s.snapshots.Snapshot()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	w.Header().Set("Content-Type", "application/octet-stream")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// handleStatus handles GET /status.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"height":    s.status.Height(),
		"artifacts": s.status.ArtifactCount(),
	})
}

// handleHealth handles GET /health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
	})
}

// writeServiceError maps a core error to an HTTP status. Caller errors map
// to 4xx so clients know to fix the request; transfer failures map to 503 as
// a retry-later signal.
func writeServiceError(w http.ResponseWriter, err error) {
	writeError(w, errorStatus(err), err.Error())
}

// errorStatus picks the HTTP status for a service error.
func errorStatus(err error) int {
	switch {
	case errors.Is(err, royalty.ErrNotFound),
		errors.Is(err, governance.ErrProposalNotFound),
		errors.Is(err, ownership.ErrUnknownArtifact):
		return http.StatusNotFound

	case errors.Is(err, royalty.ErrNotAuthorized),
		errors.Is(err, governance.ErrNotProposalOwner),
		errors.Is(err, ownership.ErrNotOwner):
		return http.StatusForbidden

	case errors.Is(err, royalty.ErrDuplicateArtifact),
		errors.Is(err, royalty.ErrNoBalance),
		errors.Is(err, governance.ErrAlreadyVoted),
		errors.Is(err, governance.ErrVotingClosed),
		errors.Is(err, governance.ErrVotingOpen),
		errors.Is(err, governance.ErrProposalClosed),
		errors.Is(err, ownership.ErrAlreadyClaimed):
		return http.StatusConflict

	case errors.Is(err, royalty.ErrTransferFailed):
		return http.StatusServiceUnavailable

	default:
		return http.StatusBadRequest
	}
}

// writeJSON writes a JSON response with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
