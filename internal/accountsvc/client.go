// Package accountsvc talks to the external account service of spec.md
// §6.2: the game server never stores account credentials, it only
// redeems the 64-bit opaque ticket a CL_APILOGIN packet carries. HTTP
// client shape (a thin wrapper holding a *http.Client and doing its own
// JSON marshal/unmarshal per call, no generated client) is grounded on
// the pack's only external-HTTP-API integration,
// iamvalenciia-kick-game-stream's internal/kick/service.go.
package accountsvc

import (
	"bytes"
	"context"
	"crypto/hmac"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/crypto/blake2b"

	"github.com/originrealm/worldserver/internal/config"
)

// ErrTicketInvalid covers a bad MAC or a malformed response body: spec.md
// §7 "Invalid ticket" surfaces as a rejected login, not a crash.
var ErrTicketInvalid = errors.New("accountsvc: invalid ticket")

// ErrTicketExpired is a MAC-valid ticket past its TTL.
var ErrTicketExpired = errors.New("accountsvc: ticket expired")

// ErrUnreachable wraps a transport failure against the account service
// (spec.md §7 "External-service failure ... reject the login with a
// transient code; the client may retry").
var ErrUnreachable = errors.New("accountsvc: unreachable")

const macSize = 32 // blake2b-256

// Ticket is a redeemed CL_APILOGIN ticket, bound to (account, character)
// per spec.md §6.2.
type Ticket struct {
	Account   int32
	Character int32
	ExpiresAt time.Time
}

// Client validates game-login tickets against the account service and
// computes/verifies the keyed MAC the wire payload carries.
type Client struct {
	baseURL string
	macKey  []byte
	http    *http.Client
}

func NewClient(cfg config.AccountServiceConfig) (*Client, error) {
	key, err := hex.DecodeString(cfg.MACKeyHex)
	if err != nil {
		return nil, fmt.Errorf("accountsvc: bad mac_key_hex: %w", err)
	}
	return &Client{
		baseURL: cfg.BaseURL,
		macKey:  key,
		http:    &http.Client{Timeout: cfg.RequestTimeout},
	}, nil
}

type ticketResponse struct {
	Account   int32  `json:"account"`
	Character int32  `json:"character"`
	ExpiresAt int64  `json:"expires_at"` // unix seconds
	MAC       string `json:"mac"`        // hex-encoded blake2b MAC
}

// ValidateTicket redeems the 64-bit opaque ticket a CL_APILOGIN packet
// carries (spec.md §6.1 step 3, §6.2). The account service returns the
// bound (account, character, expiry) plus a MAC over those fields keyed
// with the shared secret; ValidateTicket recomputes and compares it
// before trusting the response, in case the service or the path to it is
// compromised.
func (c *Client) ValidateTicket(ctx context.Context, ticket uint64) (Ticket, error) {
	body, _ := json.Marshal(struct {
		Ticket uint64 `json:"ticket"`
	}{Ticket: ticket})

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/tickets/validate", bytes.NewReader(body))
	if err != nil {
		return Ticket{}, fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return Ticket{}, fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusUnauthorized {
		return Ticket{}, ErrTicketInvalid
	}
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return Ticket{}, fmt.Errorf("%w: status %d: %s", ErrUnreachable, resp.StatusCode, string(b))
	}

	var tr ticketResponse
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		return Ticket{}, fmt.Errorf("%w: decode: %v", ErrTicketInvalid, err)
	}

	gotMAC, err := hex.DecodeString(tr.MAC)
	if err != nil || len(gotMAC) != macSize {
		return Ticket{}, ErrTicketInvalid
	}
	wantMAC := c.computeMAC(ticket, tr.Account, tr.Character, tr.ExpiresAt)
	if !hmac.Equal(gotMAC, wantMAC) {
		return Ticket{}, ErrTicketInvalid
	}

	expiry := time.Unix(tr.ExpiresAt, 0)
	if time.Now().After(expiry) {
		return Ticket{}, ErrTicketExpired
	}

	return Ticket{Account: tr.Account, Character: tr.Character, ExpiresAt: expiry}, nil
}

// computeMAC is a keyed BLAKE2b MAC over (ticket, account, character,
// expiry), matching the account service's signing scheme.
func (c *Client) computeMAC(ticket uint64, account, character int32, expiresAt int64) []byte {
	h, err := blake2b.New256(c.macKey)
	if err != nil {
		panic(fmt.Sprintf("accountsvc: bad mac key length: %v", err))
	}
	var buf [24]byte
	putU64(buf[0:8], ticket)
	putI32(buf[8:12], account)
	putI32(buf[12:16], character)
	putU64(buf[16:24], uint64(expiresAt))
	h.Write(buf[:])
	return h.Sum(nil)
}

func putU64(b []byte, v uint64) {
	for i := 0; i < 8; i++ {
		b[i] = byte(v >> (8 * i))
	}
}

func putI32(b []byte, v int32) {
	u := uint32(v)
	for i := 0; i < 4; i++ {
		b[i] = byte(u >> (8 * i))
	}
}
