package models

import (
	"time"

	"github.com/junwei-lin/smsflow/utils"
)

// AccountType categorizes the account holder
type AccountType string

const (
	AccountTypePersonal   AccountType = "personal"
	AccountTypeEnterprise AccountType = "enterprise"
)

// Account is the user profile plus the two balance buckets.
// FreeSmsQuota is the complimentary allowance, SmsBalance the paid one;
// debits drain the paid bucket first.
type Account struct {
	UserType         AccountType `json:"userType"`
	Name             string      `json:"name"`
	Phone            string      `json:"phone"`
	Company          string      `json:"company"`
	Industry         string      `json:"industry"`
	RegistrationTime time.Time   `json:"registrationTime"`
	FreeSmsQuota     int         `json:"freeSmsQuota"`
	SmsBalance       int         `json:"smsBalance"`
	TrialDaysLeft    int         `json:"trialDaysLeft"`
}

// DefaultAccount returns the account a fresh (or unreadable) ledger starts with.
func DefaultAccount() *Account {
	return &Account{
		UserType:         AccountTypePersonal,
		Name:             "未设置",
		Phone:            "18069413066",
		Company:          "未设置",
		Industry:         "未设置",
		RegistrationTime: utils.UTCNow(),
		FreeSmsQuota:     utils.DefaultFreeQuota,
		SmsBalance:       0,
		TrialDaysLeft:    utils.DefaultTrialDays,
	}
}

// TotalBalance is the number of messages the account can still send.
func (a *Account) TotalBalance() int {
	return a.FreeSmsQuota + a.SmsBalance
}
