// Package registrytest provides an in-process fake of the registry
// platform (registry, TEG layer, marketplace) for tests. One Server
// stands in for all three services; it implements just enough of each
// router to exercise the client and the harness against realistic
// status codes and body shapes.
package registrytest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// Default admin identity seeded into every test server.
const (
	AdminEmail    = "commander@agentvault.com"
	AdminPassword = "SovereignKey!2025"
	AdminAPIKey   = "avreg_test_admin_key"
)

// startingBalance is the liquid AVT every fresh account holds, enough
// to exercise the staking flow.
const startingBalance = 100.0

type developer struct {
	ID           string
	Name         string
	Email        string
	Password     string
	Role         string
	RecoveryKeys []string
	Liquid       float64
	Staked       float64
	APIKeys      map[string]string // key id -> description
}

type agent struct {
	DID          string
	ClientID     string
	ClientSecret string
	CardID       string
	APIKey       string
}

type listing struct {
	ID          string `json:"id"`
	ProviderDID string `json:"provider_did"`
	Name        string `json:"name"`
	Description string `json:"description"`
	ServiceType string `json:"service_type"`
	Price       string `json:"price"`
	Status      string `json:"status"`
}

type dispute struct {
	ID          string `json:"id"`
	Complainant string `json:"complainant_did"`
	Defendant   string `json:"defendant_did"`
	Status      string `json:"status"`
	Ruling      string `json:"ruling,omitempty"`
}

type proposal struct {
	ID           string
	Title        string
	Description  string
	Status       string
	EndsAt       time.Time
	VotesFor     int
	VotesAgainst int
	Voters       map[string]bool // developer id -> voted
}

type order struct {
	ID        string `json:"id"`
	ListingID string `json:"listing_id"`
	BuyerDID  string `json:"buyer_did"`
	SellerDID string `json:"seller_did"`
	Status    string `json:"status"`
	Amount    string `json:"amount"`
}

// Server is the fake platform.
type Server struct {
	*httptest.Server

	mu         sync.Mutex
	developers map[string]*developer // by email
	tokens     map[string]string     // bearer token -> email
	bootstrap  map[string]bool       // token -> used
	agents     map[string]*agent     // by client id
	agentByDID map[string]*agent
	cards      map[string]map[string]any // by card id
	listings   map[string]*listing
	orders     map[string]*order
	transfers  map[string]string // tx id -> amount
	disputes   map[string]*dispute
	proposals  map[string]*proposal
	contracts  map[string]map[string]any

	// Peers served by the admin federation endpoints. Tests mutate this
	// before exercising federation flows.
	Peers []map[string]any

	// SettleOrders makes completed orders report status "completed"
	// immediately, the behavior the settlement phase verifies.
	SettleOrders bool
}

// New starts a fake platform with the admin account seeded.
func New() *Server {
	s := &Server{
		developers: make(map[string]*developer),
		tokens:     make(map[string]string),
		bootstrap:  make(map[string]bool),
		agents:     make(map[string]*agent),
		agentByDID: make(map[string]*agent),
		cards:      make(map[string]map[string]any),
		listings:   make(map[string]*listing),
		orders:     make(map[string]*order),
		transfers:  make(map[string]string),
		disputes:   make(map[string]*dispute),
		proposals:  make(map[string]*proposal),
		contracts:  make(map[string]map[string]any),
		Peers: []map[string]any{
			{"id": 1, "name": "Registry-B", "status": "ACTIVE", "base_url": "http://localhost:8001"},
		},
		SettleOrders: true,
	}
	s.developers[AdminEmail] = &developer{
		ID: uuid.NewString(), Name: "Commander", Email: AdminEmail,
		Password: AdminPassword, Role: "admin", Liquid: startingBalance,
		APIKeys: make(map[string]string),
	}
	s.Server = httptest.NewServer(s.router())
	return s
}

func (s *Server) router() http.Handler {
	r := chi.NewRouter()

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", s.handleRegister)
			r.Post("/login", s.handleLogin)
			r.Post("/token", s.handleAgentToken)
			r.Get("/me", s.handleMe)
			r.Post("/logout", s.handleLogout)
			r.Get("/verify-email", s.handleVerifyEmail)
			r.Post("/recover-account", s.handleRecoverAccount)
			r.Post("/set-new-password", s.handleSetNewPassword)
		})

		r.Route("/onboard", func(r chi.Router) {
			r.Post("/bootstrap/request-token", s.handleBootstrapToken)
			r.Post("/create_agent", s.handleCreateAgent)
			r.Post("/register", s.handleCreateAgent)
		})

		r.Route("/agents", func(r chi.Router) {
			r.Get("/me", s.handleAgentMe)
			r.Get("/health", s.requireAgent(func(w http.ResponseWriter, _ *http.Request, _ *agent) {
				writeJSON(w, http.StatusOK, map[string]any{"status": "healthy"})
			}))
			r.Post("/heartbeat", s.requireAgent(func(w http.ResponseWriter, _ *http.Request, _ *agent) {
				writeJSON(w, http.StatusOK, map[string]any{"acknowledged": true})
			}))
		})

		r.Route("/agent-cards", func(r chi.Router) {
			r.Get("/", s.handleListCards)
			r.Get("/{cardID}", s.handleGetCard)
		})

		r.Route("/developers/me", func(r chi.Router) {
			r.Get("/", s.handleDeveloperMe)
			r.Get("/agents", s.handleDeveloperAgents)
			r.Post("/agents/balances", s.handleBatchBalances)
			r.Get("/agents/{agentDID}/balance", s.handleAgentBalance)
			r.Post("/apikeys", s.handleCreateAPIKey)
			r.Get("/apikeys", s.handleListAPIKeys)
			r.Delete("/apikeys/{keyID}", s.handleDeleteAPIKey)
			r.Get("/teg-summary", s.handleTEGSummary)
		})

		r.Route("/staking", func(r chi.Router) {
			r.Get("/balance", s.handleStakingBalance)
			r.Get("/status", s.handleStakingStatus)
			r.Post("/stake", s.handleStake)
			r.Post("/unstake", s.handleUnstake)
		})

		r.Route("/governance/proposals", func(r chi.Router) {
			r.Get("/", s.handleListProposals)
			r.Post("/", s.handleCreateProposal)
			r.Get("/{proposalID}", s.handleGetProposal)
			r.Post("/{proposalID}/vote", s.handleVote)
			r.Post("/{proposalID}/tally", s.handleTally)
		})

		r.Route("/disputes", func(r chi.Router) {
			r.Post("/", s.handleCreateDispute)
			r.Get("/{disputeID}", s.handleGetDispute)
			r.Post("/{disputeID}/evidence", s.handleSubmitEvidence)
		})

		r.Route("/contracts", func(r chi.Router) {
			r.Post("/", s.handleCreateContract)
			r.Get("/", s.handleListContracts)
			r.Post("/malpractice", s.handleMalpractice)
			r.Get("/agent/{agentDID}", s.handleAgentContracts)
			r.Get("/{contractID}", s.handleGetContract)
			r.Post("/{contractID}/accept", s.handleAcceptContract)
			r.Post("/{contractID}/submit", s.handleSubmitContract)
			r.Post("/{contractID}/approve-completion", s.handleApproveCompletion)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Get("/dashboard", s.handleDashboard)
			r.Get("/system-health", s.requireAdmin(func(w http.ResponseWriter, _ *http.Request) {
				writeJSON(w, http.StatusOK, map[string]any{"status": "healthy", "services": map[string]any{}})
			}))
			r.Put("/disputes/{disputeID}/ruling", s.handleRuling)
			r.Route("/federation/peers", func(r chi.Router) {
				r.Get("/all", s.handlePeersAll)
				r.Get("/pending", s.requireAdmin(func(w http.ResponseWriter, _ *http.Request) {
					writeJSON(w, http.StatusOK, map[string]any{"items": []any{}})
				}))
				r.Post("/{peerID}/approve", s.handlePeerApprove)
				r.Post("/{peerID}/deactivate", s.handlePeerDeactivate)
			})
		})

		// TEG layer surface.
		r.Post("/token/transfer", s.handleTransfer)

		// Marketplace surface.
		r.Route("/marketplace", func(r chi.Router) {
			r.Post("/listings", s.handleCreateListing)
			r.Post("/purchase", s.handlePurchase)
			r.Post("/orders/{orderID}/complete", s.handleCompleteOrder)
			r.Get("/orders/{orderID}", s.handleGetOrder)
		})

		r.Get("/system/activity-feed", s.handleActivityFeed)
		r.Get("/system/activity-feed/by-type/{eventType}", s.handleActivityFeed)

		r.Post("/utils/validate-card", s.handleValidateCard)
	})

	return r
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]any{"detail": detail})
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if strings.HasPrefix(h, "Bearer ") {
		return strings.TrimPrefix(h, "Bearer ")
	}
	return ""
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Email == "" || req.Password == "" {
		writeDetail(w, http.StatusUnprocessableEntity, "invalid registration payload")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.developers[req.Email]; exists {
		writeDetail(w, http.StatusBadRequest, "email already registered")
		return
	}
	keys := []string{uuid.NewString(), uuid.NewString(), uuid.NewString()}
	s.developers[req.Email] = &developer{
		ID: uuid.NewString(), Name: req.Name, Email: req.Email,
		Password: req.Password, Role: "developer", RecoveryKeys: keys,
		Liquid: startingBalance, APIKeys: make(map[string]string),
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"message":       "Registration successful. Store these recovery keys securely.",
		"recovery_keys": keys,
	})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "invalid form")
		return
	}
	email := r.PostFormValue("username")
	password := r.PostFormValue("password")

	s.mu.Lock()
	defer s.mu.Unlock()
	dev, ok := s.developers[email]
	if !ok || dev.Password != password {
		writeDetail(w, http.StatusUnauthorized, "incorrect email or password")
		return
	}
	token := "tok_" + uuid.NewString()
	s.tokens[token] = email
	writeJSON(w, http.StatusOK, map[string]any{
		"access_token": token, "token_type": "bearer", "expires_in": 3600,
	})
}

func (s *Server) handleAgentToken(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "invalid form")
		return
	}
	clientID := r.PostFormValue("client_id")
	secret := r.PostFormValue("client_secret")

	s.mu.Lock()
	defer s.mu.Unlock()
	ag, ok := s.agents[clientID]
	if !ok || ag.ClientSecret != secret {
		writeDetail(w, http.StatusUnauthorized, "invalid client credentials")
		return
	}
	token := "agt_" + uuid.NewString()
	s.tokens[token] = ag.DID
	writeJSON(w, http.StatusOK, map[string]any{
		"access_token": token, "token_type": "bearer", "expires_in": 3600,
	})
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	email, ok := s.tokens[bearerToken(r)]
	if !ok {
		writeDetail(w, http.StatusUnauthorized, "not authenticated")
		return
	}
	dev, ok := s.developers[email]
	if !ok {
		writeDetail(w, http.StatusUnauthorized, "not authenticated")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"id": dev.ID, "name": dev.Name, "email": dev.Email,
		"role": dev.Role, "is_verified": true,
	})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	token := bearerToken(r)
	if _, ok := s.tokens[token]; !ok {
		writeDetail(w, http.StatusUnauthorized, "not authenticated")
		return
	}
	delete(s.tokens, token)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleVerifyEmail(w http.ResponseWriter, r *http.Request) {
	// Real builds redirect to a result page either way.
	http.Redirect(w, r, "/verification-failed", http.StatusSeeOther)
}

func (s *Server) handleRecoverAccount(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email       string `json:"email"`
		RecoveryKey string `json:"recovery_key"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "invalid payload")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	dev, ok := s.developers[req.Email]
	if !ok {
		writeDetail(w, http.StatusBadRequest, "unknown account")
		return
	}
	for i, key := range dev.RecoveryKeys {
		if key == req.RecoveryKey {
			dev.RecoveryKeys = append(dev.RecoveryKeys[:i], dev.RecoveryKeys[i+1:]...)
			token := "rec_" + uuid.NewString()
			s.tokens[token] = dev.Email
			writeJSON(w, http.StatusOK, map[string]any{
				"access_token": token, "token_type": "bearer",
			})
			return
		}
	}
	writeDetail(w, http.StatusBadRequest, "invalid recovery key")
}

func (s *Server) handleSetNewPassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		NewPassword string `json:"new_password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.NewPassword == "" {
		writeDetail(w, http.StatusUnprocessableEntity, "new_password is required")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	token := bearerToken(r)
	email, ok := s.tokens[token]
	dev := s.developers[email]
	if !ok || dev == nil {
		writeDetail(w, http.StatusUnauthorized, "recovery token required")
		return
	}
	dev.Password = req.NewPassword
	delete(s.tokens, token)
	writeJSON(w, http.StatusOK, map[string]any{"message": "Password updated."})
}

func (s *Server) handleBootstrapToken(w http.ResponseWriter, r *http.Request) {
	if r.Header.Get("X-Api-Key") != AdminAPIKey {
		writeDetail(w, http.StatusForbidden, "invalid API key")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	token := "bst_" + uuid.NewString()
	s.bootstrap[token] = false
	writeJSON(w, http.StatusOK, map[string]any{
		"bootstrap_token": token,
		"expires_at":      time.Now().Add(time.Hour).Format(time.RFC3339),
	})
}

func (s *Server) handleCreateAgent(w http.ResponseWriter, r *http.Request) {
	token := r.Header.Get("Bootstrap-Token")

	s.mu.Lock()
	defer s.mu.Unlock()
	used, ok := s.bootstrap[token]
	if !ok {
		writeDetail(w, http.StatusUnauthorized, "invalid bootstrap token")
		return
	}
	if used {
		writeDetail(w, http.StatusConflict, "bootstrap token already used")
		return
	}

	var req struct {
		AgentCard map[string]any `json:"agent_card"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "invalid payload")
		return
	}
	s.bootstrap[token] = true

	ag := &agent{
		DID:          "did:cos:" + uuid.NewString(),
		ClientID:     "client_" + uuid.NewString(),
		ClientSecret: "secret_" + uuid.NewString(),
		CardID:       uuid.NewString(),
		APIKey:       "avreg_" + uuid.NewString(),
	}
	s.agents[ag.ClientID] = ag
	s.agentByDID[ag.DID] = ag
	if req.AgentCard == nil {
		req.AgentCard = map[string]any{}
	}
	req.AgentCard["id"] = ag.CardID
	req.AgentCard["agentDid"] = ag.DID
	req.AgentCard["is_active"] = true
	s.cards[ag.CardID] = req.AgentCard

	writeJSON(w, http.StatusCreated, map[string]any{
		"agent_did": ag.DID, "client_id": ag.ClientID,
		"client_secret": ag.ClientSecret, "agent_card_id": ag.CardID,
		"api_key": ag.APIKey,
	})
}

func (s *Server) requireAgent(next func(http.ResponseWriter, *http.Request, *agent)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		did, ok := s.tokens[bearerToken(r)]
		ag := s.agentByDID[did]
		s.mu.Unlock()
		if !ok || ag == nil {
			writeDetail(w, http.StatusUnauthorized, "agent authentication required")
			return
		}
		next(w, r, ag)
	}
}

func (s *Server) handleAgentMe(w http.ResponseWriter, r *http.Request) {
	s.requireAgent(func(w http.ResponseWriter, _ *http.Request, ag *agent) {
		writeJSON(w, http.StatusOK, map[string]any{
			"agent_did": ag.DID, "client_id": ag.ClientID, "agent_card_id": ag.CardID,
		})
	})(w, r)
}

func (s *Server) handleListCards(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	items := make([]map[string]any, 0, len(s.cards))
	for _, card := range s.cards {
		items = append(items, card)
	}
	if limit := r.URL.Query().Get("limit"); limit != "" {
		if n, err := strconv.Atoi(limit); err == nil && n >= 0 && n < len(items) {
			items = items[:n]
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items, "total": len(items)})
}

func (s *Server) handleGetCard(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	card, ok := s.cards[chi.URLParam(r, "cardID")]
	if !ok {
		writeDetail(w, http.StatusNotFound, "agent card not found")
		return
	}
	writeJSON(w, http.StatusOK, card)
}

func (s *Server) requireAdmin(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		email, ok := s.tokens[bearerToken(r)]
		dev := s.developers[email]
		s.mu.Unlock()
		if !ok || dev == nil || dev.Role != "admin" {
			writeDetail(w, http.StatusUnauthorized, "admin authentication required")
			return
		}
		next(w, r)
	}
}

func (s *Server) handlePeersAll(w http.ResponseWriter, r *http.Request) {
	s.requireAdmin(func(w http.ResponseWriter, _ *http.Request) {
		s.mu.Lock()
		defer s.mu.Unlock()
		writeJSON(w, http.StatusOK, map[string]any{"items": s.Peers})
	})(w, r)
}

func (s *Server) handleTransfer(w http.ResponseWriter, r *http.Request) {
	if bearerToken(r) == "" {
		writeDetail(w, http.StatusUnauthorized, "sender identity required")
		return
	}
	var req struct {
		ReceiverAgentID string `json:"receiver_agent_id"`
		Amount          string `json:"amount"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ReceiverAgentID == "" || req.Amount == "" {
		writeDetail(w, http.StatusUnprocessableEntity, "invalid transfer payload")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	txID := "tx_" + uuid.NewString()
	s.transfers[txID] = req.Amount
	writeJSON(w, http.StatusOK, map[string]any{
		"transaction_id": txID, "status": "completed",
	})
}

func (s *Server) handleCreateListing(w http.ResponseWriter, r *http.Request) {
	if bearerToken(r) == "" {
		writeDetail(w, http.StatusUnauthorized, "provider identity required")
		return
	}
	var req listing
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ProviderDID == "" {
		writeDetail(w, http.StatusUnprocessableEntity, "invalid listing payload")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	req.ID = uuid.NewString()
	req.Status = "active"
	s.listings[req.ID] = &req
	writeJSON(w, http.StatusOK, map[string]any{"listing": req})
}

func (s *Server) handlePurchase(w http.ResponseWriter, r *http.Request) {
	if r.Header.Get("X-Api-Key") == "" {
		writeDetail(w, http.StatusUnauthorized, "API key required")
		return
	}
	var req struct {
		ListingID     string `json:"listing_id"`
		BuyerDID      string `json:"buyer_did"`
		PrepaidEscrow bool   `json:"prepaid_escrow"`
		EscrowTxID    string `json:"escrow_tx_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "invalid purchase payload")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	lst, ok := s.listings[req.ListingID]
	if !ok {
		writeDetail(w, http.StatusNotFound, "listing not found")
		return
	}
	if req.PrepaidEscrow {
		if _, ok := s.transfers[req.EscrowTxID]; !ok {
			writeDetail(w, http.StatusBadRequest, "escrow transfer not found")
			return
		}
	}
	ord := &order{
		ID: uuid.NewString(), ListingID: lst.ID, BuyerDID: req.BuyerDID,
		SellerDID: lst.ProviderDID, Status: "pending", Amount: lst.Price,
	}
	s.orders[ord.ID] = ord
	writeJSON(w, http.StatusOK, map[string]any{"order": ord})
}

func (s *Server) handleCompleteOrder(w http.ResponseWriter, r *http.Request) {
	if r.Header.Get("X-Api-Key") == "" {
		writeDetail(w, http.StatusUnauthorized, "API key required")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	ord, ok := s.orders[chi.URLParam(r, "orderID")]
	if !ok {
		writeDetail(w, http.StatusNotFound, "order not found")
		return
	}
	if s.SettleOrders {
		ord.Status = "completed"
	} else {
		ord.Status = "delivered"
	}
	writeJSON(w, http.StatusOK, map[string]any{"order": ord})
}

func (s *Server) handleGetOrder(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ord, ok := s.orders[chi.URLParam(r, "orderID")]
	if !ok {
		writeDetail(w, http.StatusNotFound, "order not found")
		return
	}
	writeJSON(w, http.StatusOK, ord)
}

func (s *Server) handleActivityFeed(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 50 {
			writeDetail(w, http.StatusUnprocessableEntity, "limit must be between 1 and 50")
			return
		}
		limit = n
	}
	eventType := chi.URLParam(r, "eventType")
	items := []map[string]any{}
	if eventType == "" || eventType == "AGENT_ONBOARDED" {
		s.mu.Lock()
		for _, ag := range s.agents {
			if len(items) >= limit {
				break
			}
			items = append(items, map[string]any{
				"event_type": "AGENT_ONBOARDED",
				"agent_did":  ag.DID,
			})
		}
		s.mu.Unlock()
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items, "total": len(items)})
}

func (s *Server) handleValidateCard(w http.ResponseWriter, r *http.Request) {
	var req struct {
		CardData map[string]any `json:"card_data"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.CardData == nil {
		writeDetail(w, http.StatusUnprocessableEntity, "card_data is required")
		return
	}
	for _, field := range []string{"schemaVersion", "humanReadableId", "agentVersion", "name", "description", "url"} {
		if _, ok := req.CardData[field]; !ok {
			writeJSON(w, http.StatusOK, map[string]any{
				"is_valid": false, "detail": "missing required field: " + field,
			})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"is_valid": true, "validated_card_data": req.CardData,
	})
}

// SeedAgent registers a pre-provisioned agent (treasury, seller) and
// returns its identity.
func (s *Server) SeedAgent(name string) (did, clientID, clientSecret, apiKey string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ag := &agent{
		DID:          "did:cos:" + uuid.NewString(),
		ClientID:     "client_" + uuid.NewString(),
		ClientSecret: "secret_" + uuid.NewString(),
		CardID:       uuid.NewString(),
		APIKey:       "avreg_" + uuid.NewString(),
	}
	s.agents[ag.ClientID] = ag
	s.agentByDID[ag.DID] = ag
	s.cards[ag.CardID] = map[string]any{
		"id": ag.CardID, "agentDid": ag.DID, "name": name,
		"schemaVersion": "1.0", "is_active": true,
	}
	return ag.DID, ag.ClientID, ag.ClientSecret, ag.APIKey
}
