package models

type UserRole string
type TaskStatus string
type SubmissionStatus string
type PaymentStatus string
type LedgerEntryType string

const (
	UserRoleWorker      UserRole = "worker"
	UserRoleTaskCreator UserRole = "taskCreator"
	UserRoleAdmin       UserRole = "admin"

	TaskStatusOpen   TaskStatus = "Open"
	TaskStatusClosed TaskStatus = "Closed"

	SubmissionStatusPending  SubmissionStatus = "Pending"
	SubmissionStatusApproved SubmissionStatus = "Approved"
	SubmissionStatusRejected SubmissionStatus = "Rejected"

	PaymentStatusPaid PaymentStatus = "paid"

	LedgerSignupBonus          LedgerEntryType = "signup_bonus"
	LedgerPurchase             LedgerEntryType = "purchase"
	LedgerTaskEscrow           LedgerEntryType = "task_escrow"
	LedgerTaskRefund           LedgerEntryType = "task_refund"
	LedgerSubmissionReward     LedgerEntryType = "submission_reward"
	LedgerWithdrawalSettlement LedgerEntryType = "withdrawal_settlement"
)

func (r UserRole) IsValid() bool {
	switch r {
	case UserRoleWorker, UserRoleTaskCreator, UserRoleAdmin:
		return true
	}
	return false
}

func (s SubmissionStatus) IsValid() bool {
	switch s {
	case SubmissionStatusPending, SubmissionStatusApproved, SubmissionStatusRejected:
		return true
	}
	return false
}
