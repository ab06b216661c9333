// Package model defines the data models for the CashBet back office.
package model

// Role is the privilege level of an operator account.
// The creation hierarchy is strictly ordered: Owner > Partner > SuperAgent > Agent > User.
// SuperPartner sits outside that chain; it is the role the back-office
// dashboard itself requires.
type Role string

// Account roles as the backend reports them.
const (
	RoleSuperPartner Role = "SuperPartner"
	RoleOwner        Role = "Owner"
	RolePartner      Role = "Partner"
	RoleSuperAgent   Role = "SuperAgent"
	RoleAgent        Role = "Agent"
	RoleUser         Role = "User"
)

// HierarchyRoles returns the creation-hierarchy roles in descending privilege order.
func HierarchyRoles() []Role {
	return []Role{RoleOwner, RolePartner, RoleSuperAgent, RoleAgent, RoleUser}
}

// UserNode represents one operator account in the hierarchy.
// CreatorID forms the parent edge; it is empty for the root of a fetched subtree.
type UserNode struct {
	ID        string     `json:"_id"`
	Username  string     `json:"username"`
	Role      Role       `json:"role"`
	Balance   float64    `json:"balance"`
	CreatorID string     `json:"createrId,omitempty"`
	Children  []UserNode `json:"children,omitempty"`
}

// Transfer types for balance movements between accounts.
const (
	TransferDeposit  = "deposit"  // operator credits the target
	TransferWithdraw = "withdraw" // operator debits the target
	TransferDebit    = "debit"
	TransferCredit   = "credit"
)

// Party identifies one side of a transfer.
type Party struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Role     Role   `json:"role"`
}

// BalancePair holds both parties' balances at a single point in time.
type BalancePair struct {
	Sender   *float64 `json:"sender"`
	Receiver *float64 `json:"receiver"`
}

// Transfer represents one recorded balance movement between two accounts.
// Immutable once created; only RolledBack can change server-side, and the
// client only ever reads it.
type Transfer struct {
	ID            string      `json:"id"`
	Sender        Party       `json:"sender"`
	Receiver      Party       `json:"receiver"`
	TransactionID string      `json:"transactionId"`
	Amount        float64     `json:"amount"`
	Date          string      `json:"date"`
	Type          string      `json:"type"`
	Note          string      `json:"note"`
	BalanceBefore BalancePair `json:"balanceBefore"`
	BalanceAfter  BalancePair `json:"balanceAfter"`
	RolledBack    bool        `json:"rolledBack"`
}

// AgentTransfer is one row of the agent transaction ledger, with before and
// after balances for both parties for audit purposes.
type AgentTransfer struct {
	SenderRole            Role    `json:"senderRole"`
	Date                  string  `json:"date"`
	SenderUsername        string  `json:"senderUsername"`
	SenderID              string  `json:"senderID"`
	ReceiverID            string  `json:"receiverID"`
	ReceiverUsername      string  `json:"receiverUsername"`
	SenderBalanceBefore   float64 `json:"senderBalanceBefore"`
	SenderBalanceAfter    float64 `json:"senderBalanceAfter"`
	ReceiverBalanceBefore float64 `json:"receiverBalanceBefore"`
	ReceiverBalanceAfter  float64 `json:"receiverBalanceAfter"`
	Amount                float64 `json:"amount"`
}

// ReportRow is one per-player daily aggregate from the daily report.
// System is populated only on flat casino-wide rows; the per-system view
// carries the system name alongside its rows instead.
type ReportRow struct {
	PlayerID            string  `json:"playerid"`
	Date                string  `json:"date"`
	Bet                 float64 `json:"bet"`
	Win                 float64 `json:"win"`
	Net                 float64 `json:"net"`
	GamesPlayed         int     `json:"gamesPlayed"`
	JackpotContribution float64 `json:"jackpotContribution"`
	Fee                 float64 `json:"fee"`
	Tip                 float64 `json:"tip"`
	Tournament          bool    `json:"tournament"`
	System              string  `json:"system,omitempty"`
}
