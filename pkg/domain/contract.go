package domain

import (
	"fmt"
	"time"
)

type PaymentMethod string

const (
	PaymentUPI    PaymentMethod = "upi"
	PaymentCOD    PaymentMethod = "cod"
	PaymentCredit PaymentMethod = "credit"
	PaymentDebit  PaymentMethod = "debit"
)

var PaymentMethods = []PaymentMethod{PaymentUPI, PaymentCOD, PaymentCredit, PaymentDebit}

func ValidPaymentMethod(s string) bool {
	for _, m := range PaymentMethods {
		if string(m) == s {
			return true
		}
	}
	return false
}

type ContractStatus string

const (
	ContractProposed ContractStatus = "PROPOSED"
	ContractAccepted ContractStatus = "ACCEPTED"
)

// Contract is a supply agreement between a buyer and a farmer.
type Contract struct {
	ID            string         `json:"id"`
	BuyerID       string         `json:"buyerId"`
	FarmerID      string         `json:"farmerId"`
	Quantity      int            `json:"quantity"`
	Description   string         `json:"description,omitempty"`
	Price         float64        `json:"price"`
	StartDate     time.Time      `json:"startDate"`
	EndDate       *time.Time     `json:"endDate,omitempty"`
	PaymentTerms  string         `json:"paymentTerms,omitempty"`
	DeliveryTerms string         `json:"deliveryTerms,omitempty"`
	PaymentMethod PaymentMethod  `json:"paymentMethod"`
	Status        ContractStatus `json:"status"`
	CreatedOn     time.Time      `json:"createdOn"`
}

func (c *Contract) Validate() error {
	if c.FarmerID == "" {
		return fmt.Errorf("farmerId is required")
	}
	if c.Quantity <= 0 {
		return fmt.Errorf("quantity must be positive")
	}
	if c.Price < 0 {
		return fmt.Errorf("price must not be negative")
	}
	if !ValidPaymentMethod(string(c.PaymentMethod)) {
		return fmt.Errorf("invalid payment method %q, choices are %v", c.PaymentMethod, PaymentMethods)
	}
	return nil
}

// PartyOf reports whether the user participates in the contract.
func (c *Contract) PartyOf(userID string) bool {
	return userID != "" && (c.BuyerID == userID || c.FarmerID == userID)
}
