package payments

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// LedgerPoller scans an external bank-statement feed for an inbound transfer
// matching a session. It fails open: any transport, status, or parse problem
// is logged and reported as "not matched" so a feed outage never blocks a
// confirmation path or a sweep.
type LedgerPoller struct {
	feedURL   string
	tolerance float64
	timeout   time.Duration
	client    *http.Client
}

func NewLedgerPoller(feedURL string, tolerance float64, timeout time.Duration) *LedgerPoller {
	return &LedgerPoller{
		feedURL:   feedURL,
		tolerance: tolerance,
		timeout:   timeout,
		client:    &http.Client{},
	}
}

type ledgerFeed struct {
	Data []ledgerRow `json:"data"`
}

type ledgerRow struct {
	Description string       `json:"description"`
	Amount      ledgerAmount `json:"amount"`
}

// ledgerAmount tolerates feeds that serialise amounts as JSON numbers or as
// strings.
type ledgerAmount float64

func (a *ledgerAmount) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "null" || trimmed == `""` {
		*a = 0
		return nil
	}
	if strings.HasPrefix(trimmed, `"`) {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		parsed, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return fmt.Errorf("ledger amount %q is not numeric", s)
		}
		*a = ledgerAmount(parsed)
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	*a = ledgerAmount(f)
	return nil
}

// FindMatchingPayment reports whether the ledger contains an inbound transfer
// whose description references the session and whose amount is within
// tolerance of expectedAmount. First matching row wins.
func (p *LedgerPoller) FindMatchingPayment(ctx context.Context, sessionID string, expectedAmount float64) bool {
	if p.feedURL == "" {
		log.Println("[LEDGER] [WARN] no feed URL configured, skipping check")
		return false
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.feedURL, nil)
	if err != nil {
		log.Println("[LEDGER] [ERROR] building feed request:", err)
		return false
	}

	resp, err := p.client.Do(req)
	if err != nil {
		log.Println("[LEDGER] [ERROR] feed unreachable:", err)
		return false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Println("[LEDGER] [ERROR] feed returned status", resp.StatusCode)
		return false
	}

	var feed ledgerFeed
	if err := json.NewDecoder(resp.Body).Decode(&feed); err != nil {
		log.Println("[LEDGER] [ERROR] decoding feed response:", err)
		return false
	}

	patterns := candidatePatterns(sessionID)
	for _, row := range feed.Data {
		if !descriptionMatches(row.Description, patterns) {
			continue
		}
		if amountMatches(float64(row.Amount), expectedAmount, p.tolerance) {
			log.Printf("[LEDGER] [INFO] payment found for session %s: %q amount=%.0f", sessionID, row.Description, float64(row.Amount))
			return true
		}
	}

	return false
}
