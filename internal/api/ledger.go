package api

import (
	"context"
	"net/http"
	"net/url"

	"github.com/google/uuid"

	"cashbet-backoffice/internal/model"
)

// Ledger wraps the `/tr/*` endpoints: transfers and transfer history.
type Ledger struct {
	c *Client
}

// TransferResult is the successful transfer response, carrying the updated
// balances for both parties. The server is authoritative for those values.
type TransferResult struct {
	Message         string          `json:"message"`
	Transfer        model.Transfer  `json:"transfer"`
	UpdatedSender   *model.UserNode `json:"updatedSender"`
	UpdatedReceiver *model.UserNode `json:"updatedReceiver"`
}

// Transfer submits one balance movement. A fresh transaction id is attached
// so the server can de-duplicate replays.
func (l *Ledger) Transfer(ctx context.Context, senderID, receiverID string, amount float64, transferType, note string) (*TransferResult, error) {
	body := map[string]any{
		"senderId":       senderID,
		"receiverId":     receiverID,
		"amount":         amount,
		"type":           transferType,
		"note":           note,
		"transaction_id": uuid.NewString(),
	}

	var out struct {
		Message string `json:"message"`
		Data    struct {
			Transfer model.Transfer `json:"transfer"`
		} `json:"data"`
		UpdatedSender   *model.UserNode `json:"updatedSender"`
		UpdatedReceiver *model.UserNode `json:"updatedReceiver"`
	}
	if err := l.c.do(ctx, http.MethodPost, "/tr/transfer", nil, body, &out); err != nil {
		return nil, err
	}
	return &TransferResult{
		Message:         out.Message,
		Transfer:        out.Data.Transfer,
		UpdatedSender:   out.UpdatedSender,
		UpdatedReceiver: out.UpdatedReceiver,
	}, nil
}

// TransferHistory lists an account's transfers for one day.
func (l *Ledger) TransferHistory(ctx context.Context, username, date string) ([]model.Transfer, error) {
	query := url.Values{}
	query.Set("username", username)
	query.Set("date", date)

	var out struct {
		TransferHistory []model.Transfer `json:"transferHistory"`
	}
	if err := l.c.do(ctx, http.MethodGet, "/tr/transfer-history", query, nil, &out); err != nil {
		return nil, err
	}
	return out.TransferHistory, nil
}

// wireParty is the populated sender/receiver reference as the backend sends it.
// The reference is null when the account was deleted after the transfer.
type wireParty struct {
	ID       string     `json:"_id"`
	Username string     `json:"username"`
	Role     model.Role `json:"role"`
}

// wireTransfer is the raw all-transfers row before normalization.
type wireTransfer struct {
	ID            string            `json:"_id"`
	SenderID      *wireParty        `json:"senderId"`
	ReceiverID    *wireParty        `json:"receiverId"`
	TransactionID string            `json:"transaction_id"`
	Amount        float64           `json:"amount"`
	Date          string            `json:"date"`
	Type          string            `json:"type"`
	Note          string            `json:"note"`
	BalanceBefore model.BalancePair `json:"balanceBefore"`
	BalanceAfter  model.BalancePair `json:"balanceAfter"`
	RolledBack    bool              `json:"rolledBack"`
}

// AllTransfers lists every transfer visible to the operator, normalized so
// deleted parties render as Unknown rather than panicking the view.
func (l *Ledger) AllTransfers(ctx context.Context) ([]model.Transfer, error) {
	var out struct {
		Transfers []wireTransfer `json:"transfers"`
	}
	if err := l.c.do(ctx, http.MethodGet, "/tr/all-transfers", nil, nil, &out); err != nil {
		return nil, err
	}

	transfers := make([]model.Transfer, 0, len(out.Transfers))
	for _, t := range out.Transfers {
		transfers = append(transfers, model.Transfer{
			ID:            t.ID,
			Sender:        normalizeParty(t.SenderID),
			Receiver:      normalizeParty(t.ReceiverID),
			TransactionID: t.TransactionID,
			Amount:        t.Amount,
			Date:          t.Date,
			Type:          t.Type,
			Note:          t.Note,
			BalanceBefore: t.BalanceBefore,
			BalanceAfter:  t.BalanceAfter,
			RolledBack:    t.RolledBack,
		})
	}
	return transfers, nil
}

// normalizeParty fills in placeholders for transfers whose party was deleted.
func normalizeParty(p *wireParty) model.Party {
	if p == nil {
		return model.Party{Username: "Unknown", Role: "Unknown"}
	}
	return model.Party{ID: p.ID, Username: p.Username, Role: p.Role}
}

// AgentTransfers lists the agent transaction ledger with audit balances.
func (l *Ledger) AgentTransfers(ctx context.Context) ([]model.AgentTransfer, error) {
	var out struct {
		AgentTransactions []model.AgentTransfer `json:"agentTransactions"`
	}
	if err := l.c.do(ctx, http.MethodGet, "/tr/agent-transfer", nil, nil, &out); err != nil {
		return nil, err
	}
	return out.AgentTransactions, nil
}
