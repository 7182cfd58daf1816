package models

import "time"

type Payment struct {
	Signature     string    `db:"signature" json:"signature"`
	WalletAddress string    `db:"wallet_address" json:"walletAddress"`
	Amount        int64     `db:"amount" json:"amount"`
	Purpose       string    `db:"purpose" json:"purpose"`
	CreatedAt     time.Time `db:"created_at" json:"createdAt"`
}
