package goldenpath

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"cerberus/internal/artifacts"
	"cerberus/internal/harness"
	"cerberus/internal/registry"
)

// runSetup checks every configured service concurrently, probes the
// federation trust bridge, and writes the environment status artifact.
// Critical services must be healthy; federation is reported but optional.
func runSetup(ctx context.Context, o *Orchestrator) (string, error) {
	services := o.cfg.AllServices()
	status := make([]bool, len(services))
	messages := make([]string, len(services))

	g, gctx := errgroup.WithContext(ctx)
	for i, svc := range services {
		g.Go(func() error {
			client := registry.NewClient(svc.URL, o.cfg.GetHTTPTimeout(), o.logger.Named(svc.Name))
			status[i], messages[i] = client.Healthy(gctx, svc.Health)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return "", err
	}

	serviceStatus := make(map[string]bool, len(services))
	criticalHealthy := true
	for i, svc := range services {
		serviceStatus[svc.Name] = status[i]
		icon := harness.PassStyle().Render("[OK]")
		if !status[i] {
			icon = harness.FailStyle().Render("[FAIL]")
			if svc.Critical {
				criticalHealthy = false
			}
		}
		tag := ""
		if svc.Critical {
			tag = " [CRITICAL]"
		}
		fmt.Fprintf(o.out, "%s %-22s: %s%s\n", icon, svc.Name, messages[i], tag)
	}

	federationActive := o.checkFederation(ctx)

	env := artifacts.EnvironmentStatus{
		Timestamp:        time.Now(),
		Services:         serviceStatus,
		FederationActive: federationActive,
		EnvironmentReady: criticalHealthy && federationActive,
	}
	if err := o.store.Save(artifacts.EnvironmentFile, env); err != nil {
		return "", err
	}

	if !criticalHealthy {
		return "", fmt.Errorf("critical services are not available")
	}
	if !federationActive {
		fmt.Fprintln(o.out, harness.WarnStyle().Render(
			"[WARNING] Federation is not active; cross-registry discovery will not work."))
	}
	return "Execution successful.", nil
}

// checkFederation logs in as admin and looks for an ACTIVE Registry-B
// peer on registry A.
func (o *Orchestrator) checkFederation(ctx context.Context) bool {
	tok, err := o.registryA.Login(ctx, o.cfg.Admin.Email, o.cfg.Admin.Password)
	if err != nil {
		o.logger.Warn("federation check: admin login failed", zap.Error(err))
		return false
	}
	peers, err := o.registryA.ListFederationPeers(ctx, tok.AccessToken)
	if err != nil {
		o.logger.Warn("federation check: peer listing failed", zap.Error(err))
		return false
	}
	for _, peer := range peers {
		if peer.Name == "Registry-B" && peer.Status == "ACTIVE" {
			fmt.Fprintln(o.out, harness.PassStyle().Render("[OK] Federation trust bridge is ACTIVE"))
			return true
		}
	}
	fmt.Fprintln(o.out, harness.WarnStyle().Render("[WARNING] Federation trust bridge is NOT ACTIVE"))
	return false
}

// runBirth onboards the First Citizen: bootstrap token, agent creation,
// direct card lookup, and an authentication probe. Its identity papers
// are persisted for the rest of the path.
func runBirth(ctx context.Context, o *Orchestrator) (string, error) {
	var env artifacts.EnvironmentStatus
	if err := o.store.Load(artifacts.EnvironmentFile, &env); err != nil {
		return "", fmt.Errorf("environment status not found, run setup first: %w", err)
	}
	if !env.EnvironmentReady {
		return "", fmt.Errorf("environment not ready")
	}

	token, err := o.registryA.RequestBootstrapToken(ctx, o.cfg.Admin.APIKey, registry.BootstrapTokenRequest{
		AgentTypeHint: "sovereign-citizen",
		RequestedBy:   o.cfg.Admin.Email,
		Description:   "Bootstrap token for the First Citizen",
	})
	if err != nil {
		return "", err
	}
	fmt.Fprintf(o.out, "[OK] Bootstrap token acquired: %.20s...\n", token)

	card := firstCitizenCard(o.cfg.Services.RegistryA.URL)
	created, err := o.registryA.CreateAgent(ctx, token, card)
	if err != nil {
		return "", err
	}
	fmt.Fprintln(o.out, harness.PassStyle().Render("[OK] THE FIRST CITIZEN IS BORN!"))
	fmt.Fprintf(o.out, "   DID: %s\n   Client ID: %s\n   Card ID: %s\n",
		created.AgentDID, created.ClientID, created.AgentCardID)

	// Direct card lookup is the reliable registration check.
	if _, err := o.registryA.GetAgentCard(ctx, o.cfg.Admin.APIKey, created.AgentCardID); err != nil {
		return "", fmt.Errorf("agent not retrievable after creation: %w", err)
	}

	// Authentication probe; a failure here is a warning, not fatal.
	if _, err := o.registryA.AgentToken(ctx, created.ClientID, created.ClientSecret); err != nil {
		fmt.Fprintln(o.out, harness.WarnStyle().Render("[WARNING] Authentication test failed: "+err.Error()))
	}

	creds := artifacts.Credentials{
		AgentName:       FirstCitizenName,
		HumanReadableID: FirstCitizenID,
		AgentDID:        created.AgentDID,
		ClientID:        created.ClientID,
		ClientSecret:    created.ClientSecret,
		AgentCardID:     created.AgentCardID,
		APIKey:          created.APIKey,
		RegistryURL:     o.cfg.Services.RegistryA.URL,
		TEGURL:          o.cfg.Services.TEG.URL,
		BootstrapToken:  token,
		CreatedAt:       time.Now().Format(time.RFC3339),
		Tags:            card.Tags,
	}
	if err := o.store.Save(artifacts.CredentialsFile, creds); err != nil {
		return "", err
	}
	return "Agent DID created: " + created.AgentDID, nil
}

// runProvision grants the First Citizen a working API key and transfers
// the Genesis Grant from the treasury.
func runProvision(ctx context.Context, o *Orchestrator) (string, error) {
	var creds artifacts.Credentials
	if err := o.store.Load(artifacts.CredentialsFile, &creds); err != nil {
		return "", err
	}

	// Onboarding does not always return a usable key; apply the
	// administrative grant when it is missing.
	if creds.APIKey != FirstCitizenAPIKey {
		fmt.Fprintln(o.out, "   Applying administrative API key grant...")
		creds.APIKey = FirstCitizenAPIKey
		if err := o.store.Save(artifacts.CredentialsFile, creds); err != nil {
			return "", err
		}
	}

	treasury, err := artifacts.LoadCredentialsFile(o.cfg.Credentials.TreasuryFile)
	if err != nil {
		return "", err
	}

	transfer, err := o.teg.Transfer(ctx, treasury.AgentDID, registry.TransferRequest{
		ReceiverAgentID: creds.AgentDID,
		Amount:          GenesisGrantAmount,
		Message:         "Genesis Grant - Welcome to sovereignty, First Citizen!",
	})
	if err != nil {
		return "", fmt.Errorf("genesis grant transfer: %w", err)
	}
	fmt.Fprintf(o.out, "[OK] Genesis Grant transferred. Transaction ID: %s\n", transfer.TransactionID)

	record := artifacts.FundingRecord{
		Timestamp: time.Now(),
		TxID:      transfer.TransactionID,
		Amount:    GenesisGrantAmount,
		From:      "Marketplace Treasury",
		To:        FirstCitizenName,
	}
	if err := o.store.Save(artifacts.FundingFile, record); err != nil {
		return "", err
	}
	return fmt.Sprintf("Granted %s AVT and API Key.", GenesisGrantAmount), nil
}

// runDiscoveryAndListing performs federated discovery as the First
// Citizen, then lists the Data Processor's service on the marketplace.
func runDiscoveryAndListing(ctx context.Context, o *Orchestrator) (string, error) {
	var creds artifacts.Credentials
	if err := o.store.Load(artifacts.CredentialsFile, &creds); err != nil {
		return "", err
	}
	if creds.APIKey == "" {
		return "", fmt.Errorf("credentials missing api_key, run provisioning first")
	}

	page, err := o.registryA.ListAgentCards(ctx, creds.APIKey, true, 100)
	if err != nil {
		return "", fmt.Errorf("federated discovery: %w", err)
	}
	fmt.Fprintf(o.out, "[OK] Discovery successful. Found %d total agents.\n", len(page.Items))

	local, federated := splitByOrigin(page.Items, creds.AgentDID)
	federatedCount := 0
	for name, agents := range federated {
		federatedCount += len(agents)
		fmt.Fprintf(o.out, "   Agents from %s: %d\n", name, len(agents))
	}
	fmt.Fprintf(o.out, "   Local agents found: %d\n", len(local))

	record := artifacts.DiscoveryRecord{
		Timestamp:         time.Now(),
		SearcherDID:       creds.AgentDID,
		LocalAgentsFound:  len(local),
		FederatedAgents:   federatedCount,
		ResultsByRegistry: federated,
		FederationActive:  federatedCount > 0,
	}
	if err := o.store.Save(artifacts.DiscoveryFile, record); err != nil {
		return "", err
	}

	// Listing: the seller (Data Processor) publishes its service.
	seller, err := artifacts.LoadCredentialsFile(o.cfg.Credentials.SellerFile)
	if err != nil {
		return "", err
	}
	listing, err := o.marketplace.CreateListing(ctx, seller.AgentDID, registry.ListingRequest{
		ProviderDID: seller.AgentDID,
		Name:        "Premium Data Processing",
		Description: "High-throughput, reliable data processing services with economic guarantees.",
		ServiceType: "analysis",
		Price:       "50.0",
	})
	if err != nil {
		return "", fmt.Errorf("listing creation: %w", err)
	}
	fmt.Fprintf(o.out, "[OK] Service listed successfully. Listing ID: %s\n", listing.ID)

	if err := o.store.Save(artifacts.ListingFile, listing); err != nil {
		return "", err
	}
	return fmt.Sprintf("Discovered %d local & %d federated agents. | Service listed with ID: %.8s...",
		len(local), federatedCount, listing.ID), nil
}

// splitByOrigin separates discovered cards into local agents and a map
// of origin registry name to its agents, excluding the searcher itself.
func splitByOrigin(items []map[string]any, searcherDID string) ([]map[string]any, map[string][]map[string]any) {
	var local []map[string]any
	federated := make(map[string][]map[string]any)
	for _, item := range items {
		if item["agentDid"] == searcherDID {
			continue
		}
		origin, _ := item["origin_registry_name"].(string)
		if origin == "" || origin == "Local" {
			local = append(local, item)
			continue
		}
		federated[origin] = append(federated[origin], item)
	}
	return local, federated
}

// runPurchase executes the two-step prepaid escrow protocol: commit
// price plus fee to the marketplace on the TEG layer, then authorize the
// purchase with the transfer id as proof of payment.
func runPurchase(ctx context.Context, o *Orchestrator) (string, error) {
	var creds artifacts.Credentials
	if err := o.store.Load(artifacts.CredentialsFile, &creds); err != nil {
		return "", err
	}
	var listing registry.Listing
	if err := o.store.Load(artifacts.ListingFile, &listing); err != nil {
		return "", err
	}

	total, err := totalWithFee(listing.Price)
	if err != nil {
		return "", err
	}
	fmt.Fprintf(o.out, "   Step 1: Committing funds. Pre-transferring %s AVT to marketplace...\n", total)

	transfer, err := o.teg.Transfer(ctx, creds.AgentDID, registry.TransferRequest{
		ReceiverAgentID: MarketplaceDID,
		Amount:          total,
		Message:         "Prepaid escrow for listing " + listing.ID,
	})
	if err != nil {
		return "", fmt.Errorf("escrow pre-transfer: %w", err)
	}
	fmt.Fprintf(o.out, "   [OK] Escrow funds committed. TX ID: %s\n", transfer.TransactionID)

	fmt.Fprintln(o.out, "   Step 2: Authorizing purchase with proof of payment...")
	purchase, err := o.marketplace.Purchase(ctx, creds.APIKey, registry.PurchaseRequest{
		ListingID:     listing.ID,
		BuyerDID:      creds.AgentDID,
		PrepaidEscrow: true,
		EscrowTxID:    transfer.TransactionID,
	})
	if err != nil {
		return "", fmt.Errorf("purchase authorization: %w", err)
	}
	fmt.Fprintf(o.out, "[OK] Purchase authorized. Order ID: %s\n", purchase.Order.ID)

	record := artifacts.TransactionRecord{Order: purchase.Order}
	if err := o.store.Save(artifacts.TransactionFile, record); err != nil {
		return "", err
	}
	return fmt.Sprintf("Purchase order created: %.8s...", purchase.Order.ID), nil
}

// marketplaceFee is the 2.5% escrow fee applied on top of the listing
// price.
var marketplaceFee = big.NewRat(25, 1000)

// totalWithFee returns price plus the marketplace fee as a decimal
// string. Rational arithmetic keeps decimal prices exact.
func totalWithFee(price string) (string, error) {
	p, ok := new(big.Rat).SetString(price)
	if !ok {
		return "", fmt.Errorf("invalid listing price %q", price)
	}
	fee := new(big.Rat).Mul(p, marketplaceFee)
	total := new(big.Rat).Add(p, fee)
	return trimDecimal(total.FloatString(4)), nil
}

// trimDecimal drops trailing zeros but keeps at least one fractional
// digit, matching the TEG layer's decimal-string convention.
func trimDecimal(s string) string {
	for len(s) > 0 && s[len(s)-1] == '0' {
		s = s[:len(s)-1]
	}
	if len(s) > 0 && s[len(s)-1] == '.' {
		s += "0"
	}
	return s
}

// runSettlement has the seller complete the order and verifies that the
// marketplace, the source of truth, reports it settled.
func runSettlement(ctx context.Context, o *Orchestrator) (string, error) {
	seller, err := artifacts.LoadCredentialsFile(o.cfg.Credentials.SellerFile)
	if err != nil {
		return "", err
	}
	var record artifacts.TransactionRecord
	if err := o.store.Load(artifacts.TransactionFile, &record); err != nil {
		return "", err
	}
	orderID := record.Order.ID

	if err := o.marketplace.CompleteOrder(ctx, seller.APIKey, orderID); err != nil {
		return "", fmt.Errorf("order completion: %w", err)
	}
	fmt.Fprintln(o.out, "[OK] Marketplace acknowledged order completion.")

	if o.SettleDelay > 0 {
		fmt.Fprintln(o.out, "[WAIT] Waiting for the marketplace to process settlement...")
		select {
		case <-time.After(o.SettleDelay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}

	order, err := o.marketplace.GetOrder(ctx, orderID)
	if err != nil {
		return "", fmt.Errorf("settlement verification: %w", err)
	}
	if order.Status != "completed" {
		return "", fmt.Errorf("marketplace reports order status %q, not \"completed\"", order.Status)
	}
	fmt.Fprintln(o.out, harness.PassStyle().Render("[OK] VERIFIED: the transaction is complete."))
	return "Economic settlement confirmed by Marketplace.", nil
}

// firstCitizenCard is the showcase agent's identity document.
func firstCitizenCard(registryURL string) *registry.AgentCard {
	return &registry.AgentCard{
		SchemaVersion:   "1.0",
		HumanReadableID: FirstCitizenID,
		AgentVersion:    "1.0.0",
		Name:            FirstCitizenName,
		Description:     "The inaugural sovereign agent - born free, destined to thrive",
		URL:             registryURL + "/agents/" + FirstCitizenID,
		Provider: registry.AgentCardProvider{
			Name:           "The Protocol",
			URL:            "https://www.theprotocol.cloud",
			SupportContact: "protocol@agentvault.com",
		},
		Capabilities: registry.AgentCardCapabilities{
			A2AVersion:                "1.0",
			SupportedMessageParts:     []string{"text", "data", "transaction"},
			SupportsPushNotifications: true,
		},
		AuthSchemes: []registry.AgentCardAuthScheme{
			{Scheme: "apiKey", Description: "API Key authentication for programmatic access."},
		},
		Tags: []string{"sovereign", "first-citizen", "genesis", "showcase", "e2e-test"},
		Skills: []registry.AgentCardSkill{
			{ID: "marketplace-participant", Name: "Marketplace Participant",
				Description: "Can buy and sell services in the marketplace"},
			{ID: "economic-actor", Name: "Economic Actor",
				Description: "Participates in the token economy"},
		},
	}
}
