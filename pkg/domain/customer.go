package domain

import "github.com/shopspring/decimal"

// Customer is a directory record for a known applicant.
type Customer struct {
	ID               string          `json:"id" yaml:"id"`
	Name             string          `json:"name" yaml:"name"`
	Email            string          `json:"email" yaml:"email"`
	Phone            string          `json:"phone,omitempty" yaml:"phone"`
	Age              int             `json:"age,omitempty" yaml:"age"`
	City             string          `json:"city,omitempty" yaml:"city"`
	Address          string          `json:"address,omitempty" yaml:"address"`
	CreditScore      int             `json:"credit_score,omitempty" yaml:"credit_score"`
	PreApprovedLimit decimal.Decimal `json:"pre_approved_limit" yaml:"pre_approved_limit"`
	MonthlySalary    decimal.Decimal `json:"monthly_salary" yaml:"monthly_salary"`
	KYCVerified      bool            `json:"kyc_verified" yaml:"kyc_verified"`
}

// Profile converts the record into the profile a session starts with.
func (c Customer) Profile() CustomerProfile {
	return CustomerProfile{
		Name:             c.Name,
		Phone:            c.Phone,
		Age:              c.Age,
		Address:          c.Address,
		City:             c.City,
		PreApprovedLimit: c.PreApprovedLimit,
		MonthlySalary:    c.MonthlySalary,
		CreditScore:      c.CreditScore,
		KYCVerified:      c.KYCVerified,
	}
}
