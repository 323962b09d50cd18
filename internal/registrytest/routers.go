package registrytest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// developerFor resolves the bearer token to a developer account. Nil
// means the request is unauthenticated.
func (s *Server) developerFor(r *http.Request) *developer {
	s.mu.Lock()
	defer s.mu.Unlock()
	email, ok := s.tokens[bearerToken(r)]
	if !ok {
		return nil
	}
	return s.developers[email]
}

func avt(v float64) string {
	return strconv.FormatFloat(v, 'f', 1, 64)
}

func (s *Server) handleDeveloperMe(w http.ResponseWriter, r *http.Request) {
	dev := s.developerFor(r)
	if dev == nil {
		writeDetail(w, http.StatusUnauthorized, "not authenticated")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"id": dev.ID, "name": dev.Name, "email": dev.Email, "role": dev.Role,
	})
}

func (s *Server) handleDeveloperAgents(w http.ResponseWriter, r *http.Request) {
	if s.developerFor(r) == nil {
		writeDetail(w, http.StatusUnauthorized, "not authenticated")
		return
	}
	writeJSON(w, http.StatusOK, []any{})
}

func (s *Server) handleBatchBalances(w http.ResponseWriter, r *http.Request) {
	if s.developerFor(r) == nil {
		writeDetail(w, http.StatusUnauthorized, "not authenticated")
		return
	}
	var req struct {
		AgentDIDs []string `json:"agent_dids"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || len(req.AgentDIDs) == 0 {
		writeDetail(w, http.StatusUnprocessableEntity, "agent_dids is required")
		return
	}
	if len(req.AgentDIDs) > 50 {
		writeDetail(w, http.StatusBadRequest, "batch size exceeds the limit of 50 agents")
		return
	}
	// Unknown or unowned agents come back as per-entry errors, never as
	// a request failure.
	balances := make(map[string]any, len(req.AgentDIDs))
	s.mu.Lock()
	for _, did := range req.AgentDIDs {
		if _, ok := s.agentByDID[did]; ok {
			balances[did] = map[string]any{"liquid_balance": "0.0", "staked_balance": "0.0"}
		} else {
			balances[did] = map[string]any{"error": "agent not found or not owned"}
		}
	}
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]any{"balances": balances})
}

func (s *Server) handleAgentBalance(w http.ResponseWriter, r *http.Request) {
	if s.developerFor(r) == nil {
		writeDetail(w, http.StatusUnauthorized, "not authenticated")
		return
	}
	writeDetail(w, http.StatusNotFound, "agent not found or not owned by developer")
}

func (s *Server) handleCreateAPIKey(w http.ResponseWriter, r *http.Request) {
	dev := s.developerFor(r)
	if dev == nil {
		writeDetail(w, http.StatusUnauthorized, "not authenticated")
		return
	}
	var req struct {
		Description string `json:"description"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "invalid payload")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	id := uuid.NewString()
	dev.APIKeys[id] = req.Description
	writeJSON(w, http.StatusCreated, map[string]any{
		"id": id, "api_key": "avreg_" + uuid.NewString(),
		"description": req.Description,
		"created_at":  time.Now().Format(time.RFC3339),
	})
}

func (s *Server) handleListAPIKeys(w http.ResponseWriter, r *http.Request) {
	dev := s.developerFor(r)
	if dev == nil {
		writeDetail(w, http.StatusUnauthorized, "not authenticated")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	items := make([]map[string]any, 0, len(dev.APIKeys))
	for id, desc := range dev.APIKeys {
		items = append(items, map[string]any{"id": id, "description": desc})
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

func (s *Server) handleDeleteAPIKey(w http.ResponseWriter, r *http.Request) {
	dev := s.developerFor(r)
	if dev == nil {
		writeDetail(w, http.StatusUnauthorized, "not authenticated")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	id := chi.URLParam(r, "keyID")
	if _, ok := dev.APIKeys[id]; !ok {
		writeDetail(w, http.StatusNotFound, "API key not found")
		return
	}
	delete(dev.APIKeys, id)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleTEGSummary(w http.ResponseWriter, r *http.Request) {
	dev := s.developerFor(r)
	if dev == nil {
		writeDetail(w, http.StatusUnauthorized, "not authenticated")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]any{
		"total_liquid_balance": avt(dev.Liquid),
		"total_staked_balance": avt(dev.Staked),
		"agents":               []any{},
	})
}

func (s *Server) handleStakingBalance(w http.ResponseWriter, r *http.Request) {
	dev := s.developerFor(r)
	if dev == nil {
		writeDetail(w, http.StatusUnauthorized, "not authenticated")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]any{
		"agent_did":      "did:cos:dev:" + dev.ID,
		"liquid_balance": avt(dev.Liquid),
		"staked_balance": avt(dev.Staked),
		"total_balance":  avt(dev.Liquid + dev.Staked),
	})
}

func (s *Server) handleStakingStatus(w http.ResponseWriter, r *http.Request) {
	if s.developerFor(r) == nil {
		writeDetail(w, http.StatusUnauthorized, "not authenticated")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"system_status": "operational", "integration_active": true,
	})
}

func (s *Server) handleStake(w http.ResponseWriter, r *http.Request) {
	dev := s.developerFor(r)
	if dev == nil {
		writeDetail(w, http.StatusUnauthorized, "not authenticated")
		return
	}
	amount, err := strconv.ParseFloat(r.URL.Query().Get("amount"), 64)
	if err != nil || amount <= 0 {
		writeDetail(w, http.StatusUnprocessableEntity, "amount must be a positive number")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if amount > dev.Liquid {
		writeDetail(w, http.StatusBadRequest, "insufficient liquid balance")
		return
	}
	dev.Liquid -= amount
	dev.Staked += amount
	writeJSON(w, http.StatusOK, map[string]any{
		"transaction_id": "stk_" + uuid.NewString(),
		"agent_did":      "did:cos:dev:" + dev.ID,
		"amount":         avt(amount),
		"liquid_balance": avt(dev.Liquid),
		"staked_balance": avt(dev.Staked),
	})
}

func (s *Server) handleUnstake(w http.ResponseWriter, r *http.Request) {
	dev := s.developerFor(r)
	if dev == nil {
		writeDetail(w, http.StatusUnauthorized, "not authenticated")
		return
	}
	amount, err := strconv.ParseFloat(r.URL.Query().Get("amount"), 64)
	if err != nil || amount <= 0 {
		writeDetail(w, http.StatusUnprocessableEntity, "amount must be a positive number")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if amount > dev.Staked {
		writeDetail(w, http.StatusBadRequest, "insufficient staked balance")
		return
	}
	dev.Staked -= amount
	dev.Liquid += amount
	writeJSON(w, http.StatusOK, map[string]any{
		"transaction_id": "ustk_" + uuid.NewString(),
		"agent_did":      "did:cos:dev:" + dev.ID,
		"amount":         avt(amount),
		"liquid_balance": avt(dev.Liquid),
		"staked_balance": avt(dev.Staked),
	})
}

func (p *proposal) view() map[string]any {
	return map[string]any{
		"id": p.ID, "title": p.Title, "description": p.Description,
		"status": p.Status, "ends_at": p.EndsAt.Format(time.RFC3339),
	}
}

func (s *Server) handleListProposals(w http.ResponseWriter, r *http.Request) {
	includeClosed := r.URL.Query().Get("include_closed") == "true"
	s.mu.Lock()
	defer s.mu.Unlock()
	items := []map[string]any{}
	for _, p := range s.proposals {
		if p.Status != "OPEN" && !includeClosed {
			continue
		}
		items = append(items, p.view())
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items, "total": len(items)})
}

func (s *Server) handleCreateProposal(w http.ResponseWriter, r *http.Request) {
	if s.developerFor(r) == nil {
		writeDetail(w, http.StatusUnauthorized, "not authenticated")
		return
	}
	var req struct {
		Title           string `json:"title"`
		Description     string `json:"description"`
		DurationSeconds int    `json:"duration_seconds"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Title == "" || req.DurationSeconds <= 0 {
		writeDetail(w, http.StatusUnprocessableEntity, "title and duration_seconds are required")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	p := &proposal{
		ID: uuid.NewString(), Title: req.Title, Description: req.Description,
		Status: "OPEN", EndsAt: time.Now().Add(time.Duration(req.DurationSeconds) * time.Second),
		Voters: make(map[string]bool),
	}
	s.proposals[p.ID] = p
	writeJSON(w, http.StatusOK, p.view())
}

func (s *Server) handleGetProposal(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.proposals[chi.URLParam(r, "proposalID")]
	if !ok {
		// The backend surfaces missing proposals as 500, and the suites
		// pin that verified behavior.
		writeDetail(w, http.StatusInternalServerError, "internal server error")
		return
	}
	writeJSON(w, http.StatusOK, p.view())
}

func (s *Server) handleVote(w http.ResponseWriter, r *http.Request) {
	dev := s.developerFor(r)
	if dev == nil {
		writeDetail(w, http.StatusUnauthorized, "not authenticated")
		return
	}
	var req struct {
		VoteInFavor bool `json:"vote_in_favor"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "invalid payload")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.proposals[chi.URLParam(r, "proposalID")]
	if !ok {
		writeDetail(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if p.Voters[dev.ID] {
		writeDetail(w, http.StatusConflict, "developer has already voted on this proposal")
		return
	}
	p.Voters[dev.ID] = true
	vote := "AGAINST"
	if req.VoteInFavor {
		p.VotesFor++
		vote = "FOR"
	} else {
		p.VotesAgainst++
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"id": uuid.NewString(), "proposal_id": p.ID,
		"voter_did": "did:cos:dev:" + dev.ID, "vote": vote,
		"voting_power": avt(1.0 + dev.Staked),
	})
}

func (s *Server) handleTally(w http.ResponseWriter, r *http.Request) {
	if s.developerFor(r) == nil {
		writeDetail(w, http.StatusUnauthorized, "not authenticated")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.proposals[chi.URLParam(r, "proposalID")]
	if !ok {
		writeDetail(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if time.Now().Before(p.EndsAt) {
		writeDetail(w, http.StatusBadRequest, "voting period has not ended yet")
		return
	}
	p.Status = "CLOSED"
	writeJSON(w, http.StatusOK, map[string]any{
		"proposal_id": p.ID, "votes_for": p.VotesFor,
		"votes_against": p.VotesAgainst, "total_votes": p.VotesFor + p.VotesAgainst,
		"status": p.Status,
	})
}

func (s *Server) handleCreateDispute(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ComplainantDID string `json:"complainant_did"`
		DefendantDID   string `json:"defendant_did"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ComplainantDID == "" || req.DefendantDID == "" {
		writeDetail(w, http.StatusUnprocessableEntity, "complainant_did and defendant_did are required")
		return
	}
	if req.ComplainantDID == req.DefendantDID {
		writeDetail(w, http.StatusBadRequest, "an agent cannot file a dispute against itself")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	d := &dispute{
		ID: uuid.NewString(), Complainant: req.ComplainantDID,
		Defendant: req.DefendantDID, Status: "OPEN",
	}
	s.disputes[d.ID] = d
	writeJSON(w, http.StatusCreated, d)
}

func (s *Server) handleGetDispute(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.disputes[chi.URLParam(r, "disputeID")]
	if !ok {
		writeDetail(w, http.StatusNotFound, "dispute not found")
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (s *Server) handleSubmitEvidence(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SubmitterDID string         `json:"submitter_did"`
		EvidenceData map[string]any `json:"evidence_data"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.SubmitterDID == "" {
		writeDetail(w, http.StatusUnprocessableEntity, "submitter_did is required")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.disputes[chi.URLParam(r, "disputeID")]
	if !ok {
		writeDetail(w, http.StatusNotFound, "dispute not found")
		return
	}
	if req.SubmitterDID != d.Complainant && req.SubmitterDID != d.Defendant {
		writeDetail(w, http.StatusForbidden, "only involved parties may submit evidence")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"id": uuid.NewString(), "dispute_id": d.ID, "submitter_did": req.SubmitterDID,
	})
}

// contractRequired lists the fields a contract proposal must carry.
var contractRequired = []string{
	"client_agent_did", "scope_description", "source_code_repo_url",
	"source_code_branch", "acceptance_criteria", "payment_amount",
}

func (s *Server) handleCreateContract(w http.ResponseWriter, r *http.Request) {
	var req map[string]any
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "invalid payload")
		return
	}
	for _, field := range contractRequired {
		if _, ok := req[field]; !ok {
			writeDetail(w, http.StatusUnprocessableEntity, "missing required field: "+field)
			return
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	req["id"] = uuid.NewString()
	req["status"] = "PROPOSED"
	req["created_at"] = time.Now().Format(time.RFC3339)
	s.contracts[req["id"].(string)] = req
	writeJSON(w, http.StatusCreated, req)
}

func (s *Server) handleListContracts(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	items := make([]map[string]any, 0, len(s.contracts))
	for _, c := range s.contracts {
		items = append(items, c)
	}
	if limit := r.URL.Query().Get("limit"); limit != "" {
		if n, err := strconv.Atoi(limit); err == nil && n >= 0 && n < len(items) {
			items = items[:n]
		}
	}
	writeJSON(w, http.StatusOK, items)
}

func (s *Server) handleAgentContracts(w http.ResponseWriter, r *http.Request) {
	did := chi.URLParam(r, "agentDID")
	role := r.URL.Query().Get("role")
	s.mu.Lock()
	defer s.mu.Unlock()
	items := []map[string]any{}
	for _, c := range s.contracts {
		client := c["client_agent_did"] == did && (role == "" || role == "client")
		upgrader := c["upgrader_agent_did"] == did && (role == "" || role == "upgrader")
		if client || upgrader {
			items = append(items, c)
		}
	}
	writeJSON(w, http.StatusOK, items)
}

func (s *Server) handleGetContract(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.contracts[chi.URLParam(r, "contractID")]
	if !ok {
		writeDetail(w, http.StatusNotFound, "contract not found")
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (s *Server) handleAcceptContract(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UpgraderAgentDID string `json:"upgrader_agent_did"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.UpgraderAgentDID == "" {
		writeDetail(w, http.StatusUnprocessableEntity, "upgrader_agent_did is required")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.contracts[chi.URLParam(r, "contractID")]
	if !ok {
		writeDetail(w, http.StatusNotFound, "contract not found")
		return
	}
	if c["status"] != "PROPOSED" {
		writeDetail(w, http.StatusConflict, fmt.Sprintf("contract is %v, not PROPOSED", c["status"]))
		return
	}
	c["status"] = "ACCEPTED"
	c["upgrader_agent_did"] = req.UpgraderAgentDID
	writeJSON(w, http.StatusOK, c)
}

func (s *Server) handleSubmitContract(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PRURL string `json:"pr_url"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.PRURL == "" {
		writeDetail(w, http.StatusUnprocessableEntity, "pr_url is required")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.contracts[chi.URLParam(r, "contractID")]
	if !ok {
		writeDetail(w, http.StatusNotFound, "contract not found")
		return
	}
	if c["status"] != "ACCEPTED" {
		writeDetail(w, http.StatusConflict, fmt.Sprintf("contract is %v, not ACCEPTED", c["status"]))
		return
	}
	c["status"] = "PENDING_MERGE"
	c["pr_url"] = req.PRURL
	writeJSON(w, http.StatusOK, c)
}

func (s *Server) handleApproveCompletion(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.contracts[chi.URLParam(r, "contractID")]
	if !ok {
		writeDetail(w, http.StatusNotFound, "contract not found")
		return
	}
	if c["status"] != "PENDING_MERGE" {
		writeDetail(w, http.StatusConflict, fmt.Sprintf("contract is %v, not PENDING_MERGE", c["status"]))
		return
	}
	c["status"] = "COMPLETED"
	c["completed_at"] = time.Now().Format(time.RFC3339)
	writeJSON(w, http.StatusOK, c)
}

func (s *Server) handleMalpractice(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ContractID     any            `json:"contract_id"`
		Evidence       map[string]any `json:"evidence"`
		ClaimedDamages any            `json:"claimed_damages"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ContractID == nil {
		writeDetail(w, http.StatusUnprocessableEntity, "contract_id is required")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"dispute_id": uuid.NewString(), "contract_id": req.ContractID,
		"status": "PENDING_REVIEW",
	})
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	s.requireAdmin(func(w http.ResponseWriter, _ *http.Request) {
		s.mu.Lock()
		defer s.mu.Unlock()
		used := 0
		for _, u := range s.bootstrap {
			if u {
				used++
			}
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"developer_count":         len(s.developers),
			"agent_count":             len(s.agents),
			"bootstrap_tokens_issued": len(s.bootstrap),
			"active_developers":       len(s.developers),
			"active_agents":           len(s.agents),
			"tokens_used":             used,
			"tokens_expired":          0,
			"timestamp":               time.Now().Format(time.RFC3339),
		})
	})(w, r)
}

// Rulings the admin dispute endpoint accepts.
var validRulings = map[string]bool{
	"IN_FAVOR_OF_COMPLAINANT": true,
	"IN_FAVOR_OF_DEFENDANT":   true,
	"DISMISSED":               true,
}

func (s *Server) handleRuling(w http.ResponseWriter, r *http.Request) {
	s.requireAdmin(func(w http.ResponseWriter, r *http.Request) {
		ruling := r.URL.Query().Get("ruling")
		if !validRulings[ruling] {
			writeDetail(w, http.StatusUnprocessableEntity, "invalid ruling: "+ruling)
			return
		}
		s.mu.Lock()
		defer s.mu.Unlock()
		d, ok := s.disputes[chi.URLParam(r, "disputeID")]
		if !ok {
			writeDetail(w, http.StatusNotFound, "dispute not found")
			return
		}
		d.Status = "RESOLVED"
		d.Ruling = ruling
		writeJSON(w, http.StatusOK, map[string]any{
			"dispute_id": d.ID, "status": d.Status, "ruling": d.Ruling,
			"reputation_changes": map[string]any{
				d.Complainant: "1.0", d.Defendant: "-1.0",
			},
		})
	})(w, r)
}

func (s *Server) peerByID(id string) map[string]any {
	for _, p := range s.Peers {
		if fmt.Sprintf("%v", p["id"]) == id {
			return p
		}
	}
	return nil
}

func (s *Server) handlePeerApprove(w http.ResponseWriter, r *http.Request) {
	s.requireAdmin(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		defer s.mu.Unlock()
		p := s.peerByID(chi.URLParam(r, "peerID"))
		if p == nil {
			writeDetail(w, http.StatusNotFound, "peer not found")
			return
		}
		if p["status"] == "ACTIVE" {
			writeDetail(w, http.StatusConflict, "peer is already active")
			return
		}
		p["status"] = "ACTIVE"
		writeJSON(w, http.StatusOK, map[string]any{"id": p["id"], "status": "ACTIVE"})
	})(w, r)
}

func (s *Server) handlePeerDeactivate(w http.ResponseWriter, r *http.Request) {
	s.requireAdmin(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		defer s.mu.Unlock()
		p := s.peerByID(chi.URLParam(r, "peerID"))
		if p == nil {
			writeDetail(w, http.StatusNotFound, "peer not found")
			return
		}
		if p["status"] != "ACTIVE" {
			writeDetail(w, http.StatusConflict, "peer is not active")
			return
		}
		p["status"] = "INACTIVE"
		writeJSON(w, http.StatusOK, map[string]any{"id": p["id"], "status": "INACTIVE"})
	})(w, r)
}
