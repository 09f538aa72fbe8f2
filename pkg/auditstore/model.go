package auditstore

import "time"

// TransactionRecord is one row of the audit trail: the lifecycle of a
// single CFDP transaction as observed by this entity, from submission or
// first sight through to completion.
type TransactionRecord struct {
	ID                  string `gorm:"primaryKey;size:64"`
	SourceEntityID      uint64 `gorm:"index;not null"`
	DestinationEntityID uint64 `gorm:"index;not null"`
	SourceFilePath      string
	DestinationFilePath string
	TransmissionMode    string `gorm:"size:32"`

	ConditionCode string `gorm:"size:32"`
	DeliveryCode  string `gorm:"size:32"`

	StartedAt   time.Time `gorm:"autoCreateTime"`
	CompletedAt *time.Time
}

// TableName returns the table name for TransactionRecord.
func (TransactionRecord) TableName() string {
	return "transaction_audit"
}

// AllModels returns every model the audit store migrates.
func AllModels() []any {
	return []any{&TransactionRecord{}}
}
