package cfdp

// FsmResult is returned by every state_machine/Receive call on both
// handlers. It carries the PDUs the caller must now transmit and reports
// whether the transaction reached a terminal step, so a caller driving many
// transactions knows when it can stop polling one.
type FsmResult struct {
	// TransactionID is the transaction this call advanced. Zero if the
	// call produced no transaction (e.g. a PutRequest that failed
	// validation before a TransactionID was assigned).
	TransactionID TransactionID

	// PDUsToSend are emitted in the order the caller must transmit them.
	PDUsToSend []PDU

	// SourceStep/DestStep report the step reached by this call. Exactly
	// one of them is meaningful, depending on which handler produced the
	// result; the other is left at its zero value.
	SourceStep SourceStep
	DestStep   DestStep

	// Terminal is true once the transaction has reached its
	// Notice-of-Completion step (delivered, cancelled, or abandoned) and
	// will not be driven further.
	Terminal bool
}
