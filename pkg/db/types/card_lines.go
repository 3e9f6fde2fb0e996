package types

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

// CardLine is one card reference inside a match or notification payload.
type CardLine struct {
	Name     string          `json:"name"`
	Edition  string          `json:"edition,omitempty"`
	Quantity int             `json:"quantity"`
	Price    decimal.Decimal `json:"price"`
}

// CardLines stores a list of card references as a JSONB column.
type CardLines []CardLine

// Value implements driver.Valuer.
func (c CardLines) Value() (driver.Value, error) {
	if c == nil {
		return "[]", nil
	}
	payload, err := json.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("marshal card lines: %w", err)
	}
	return string(payload), nil
}

// Scan implements sql.Scanner.
func (c *CardLines) Scan(src any) error {
	if src == nil {
		*c = nil
		return nil
	}
	var payload []byte
	switch v := src.(type) {
	case []byte:
		payload = v
	case string:
		payload = []byte(v)
	default:
		return fmt.Errorf("unsupported card lines source %T", src)
	}
	if len(payload) == 0 {
		*c = nil
		return nil
	}
	return json.Unmarshal(payload, c)
}

// Names returns the card names in order.
func (c CardLines) Names() []string {
	names := make([]string, 0, len(c))
	for _, line := range c {
		names = append(names, line.Name)
	}
	return names
}

// TotalValue sums price*quantity across all lines.
func (c CardLines) TotalValue() decimal.Decimal {
	total := decimal.Zero
	for _, line := range c {
		qty := line.Quantity
		if qty <= 0 {
			qty = 1
		}
		total = total.Add(line.Price.Mul(decimal.NewFromInt(int64(qty))))
	}
	return total
}
