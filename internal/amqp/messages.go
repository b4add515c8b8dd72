package amqp

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"masarif/internal/core"
)

// MessageTypeExpenseRecorded is set as the AMQP Type of every event.
const MessageTypeExpenseRecorded = "expense.recorded"

// ExpensePayload is the record carried by an event. The amount travels as
// a decimal string so no precision is lost on the way.
type ExpensePayload struct {
	ID          int64  `json:"id"`
	Amount      string `json:"amount"`
	Category    string `json:"category"`
	Description string `json:"description"`
	Date        string `json:"date"`
	Time        string `json:"time"`
}

// ExpenseRecordedMessage announces one record appended to the log.
type ExpenseRecordedMessage struct {
	MessageID  string         `json:"message_id"`
	Expense    ExpensePayload `json:"expense"`
	RecordedAt time.Time      `json:"recorded_at"`
}

// NewExpenseRecordedMessage wraps e with a fresh message ID.
func NewExpenseRecordedMessage(e core.Expense, at time.Time) *ExpenseRecordedMessage {
	return &ExpenseRecordedMessage{
		MessageID: uuid.NewString(),
		Expense: ExpensePayload{
			ID:          e.ID,
			Amount:      e.Amount.String(),
			Category:    e.Category,
			Description: e.Description,
			Date:        e.Date.String(),
			Time:        e.Time.String(),
		},
		RecordedAt: at.UTC(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *ExpenseRecordedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ToExpense converts the payload back into a validated record.
func (m *ExpenseRecordedMessage) ToExpense() (core.Expense, error) {
	amount, err := decimal.NewFromString(m.Expense.Amount)
	if err != nil {
		return core.Expense{}, fmt.Errorf("%w: %v", core.ErrInvalidAmount, err)
	}
	e := core.Expense{
		ID:          m.Expense.ID,
		Amount:      amount,
		Category:    m.Expense.Category,
		Description: m.Expense.Description,
		Date:        core.Date(m.Expense.Date),
		Time:        core.TimeOfDay(m.Expense.Time),
	}
	if err := e.Validate(); err != nil {
		return core.Expense{}, err
	}
	return e, nil
}

// ExpenseRecordedMessageFromJSON parses a message body. Messages without a
// message ID are rejected.
func ExpenseRecordedMessageFromJSON(data []byte) (*ExpenseRecordedMessage, error) {
	var msg ExpenseRecordedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.MessageID == "" {
		return nil, fmt.Errorf("missing message_id")
	}
	return &msg, nil
}
