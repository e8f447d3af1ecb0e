package audithook

// Action constants for audit events.
const (
	// Fee structure actions
	ActionFeeStructureCreated = "fee_structure.created"
	ActionFeeStructureUpdated = "fee_structure.updated"
	ActionFeeStructureDeleted = "fee_structure.deleted"

	// Payment actions
	ActionPaymentRecorded = "payment.recorded"
	ActionPaymentDeleted  = "payment.deleted"

	// Reconciliation actions
	ActionAnomalyDetected = "anomaly.detected"

	// Storage actions
	ActionStoreError = "store.error"
)

// Resource constants for audit events.
const (
	ResourceFeeStructure = "fee_structure"
	ResourcePayment      = "payment"
	ResourceStudent      = "student"
	ResourceStore        = "store"
)

// Category constants for audit events.
const (
	CategoryFees           = "fees"
	CategoryPayment        = "payment"
	CategoryReconciliation = "reconciliation"
	CategorySystem         = "system"
)

// Severity levels for audit events.
const (
	SeverityInfo     = "info"
	SeverityWarning  = "warning"
	SeverityError    = "error"
	SeverityCritical = "critical"
)

// Outcome values for audit events.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)
