package goWallet

import (
	"context"
	"net/http"
	"strings"
)

// RequestPayment asks the backend to pay merchantID from walletID. The
// returned Payment is usually PENDING; follow it with TrackPayment.
func (c *Client) RequestPayment(ctx context.Context, walletID, merchantID string, amount float64) (Payment, error) {
	if _, err := requireID("wallet id", walletID); err != nil {
		return Payment{}, err
	}
	if _, err := requireID("merchant id", merchantID); err != nil {
		return Payment{}, err
	}
	amt, err := FormatAmount(amount)
	if err != nil {
		return Payment{}, err
	}
	raw, err := c.call(ctx, http.MethodPost, "/payment", map[string]string{
		"wallet_id":   strings.TrimSpace(walletID),
		"merchant_id": strings.TrimSpace(merchantID),
		"amount":      amt,
	})
	if err != nil {
		return Payment{}, err
	}
	var p Payment
	if err := decodeAt(raw, "transaction", &p); err != nil {
		return Payment{}, err
	}
	p.Status = normalizeStatus(string(p.Status))
	return p, nil
}

// PaymentStatus fetches one payment.
func (c *Client) PaymentStatus(ctx context.Context, transactionID string) (Payment, error) {
	if _, err := requireID("transaction id", transactionID); err != nil {
		return Payment{}, err
	}
	raw, err := c.call(ctx, http.MethodGet, KindPayment.statusPath(strings.TrimSpace(transactionID)), nil)
	if err != nil {
		return Payment{}, err
	}
	var p Payment
	if err := decodeAt(raw, "transaction", &p); err != nil {
		return Payment{}, err
	}
	p.Status = normalizeStatus(string(p.Status))
	return p, nil
}

// PaymentsByWallet lists the payments made from walletID.
func (c *Client) PaymentsByWallet(ctx context.Context, walletID string) ([]Payment, error) {
	id, err := requireID("wallet id", walletID)
	if err != nil {
		return nil, err
	}
	raw, err := c.call(ctx, http.MethodGet, "/payment/by-wallet/"+id, nil)
	if err != nil {
		return nil, err
	}
	var out []Payment
	if err := decodeAt(raw, "transactions", &out); err != nil {
		return nil, err
	}
	for i := range out {
		out[i].Status = normalizeStatus(string(out[i].Status))
	}
	return out, nil
}

// TrackPayment is Track with KindPayment.
func (c *Client) TrackPayment(transactionID string, onUpdate, onTerminal func(Status)) bool {
	return c.Track(transactionID, KindPayment, onUpdate, onTerminal)
}
