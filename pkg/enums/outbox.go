package enums

// OutboxEventType names a domain event stored in the transactional outbox.
type OutboxEventType string

const (
	EventOrderCreated          OutboxEventType = "order.created"
	EventOrderPaid             OutboxEventType = "order.paid"
	EventOrderShipped          OutboxEventType = "order.shipped"
	EventOrderDelivered        OutboxEventType = "order.delivered"
	EventOrderCancelled        OutboxEventType = "order.cancelled"
	EventOrderRefunded         OutboxEventType = "order.refunded"
	EventOrderStatusOverridden OutboxEventType = "order.status_overridden"
	EventPayoutCredited        OutboxEventType = "payout.credited"
	EventPayoutMatured         OutboxEventType = "payout.matured"
	EventWithdrawalRequested   OutboxEventType = "withdrawal.requested"
	EventWithdrawalCompleted   OutboxEventType = "withdrawal.completed"
	EventRefundInstructed      OutboxEventType = "refund.instructed"
	EventReturnUpdated         OutboxEventType = "return.updated"
	EventDisputeUpdated        OutboxEventType = "dispute.updated"
)

// OutboxAggregateType names the aggregate an outbox event belongs to.
type OutboxAggregateType string

const (
	AggregateOrder      OutboxAggregateType = "order"
	AggregatePayout     OutboxAggregateType = "payout"
	AggregateWithdrawal OutboxAggregateType = "withdrawal"
	AggregateReturn     OutboxAggregateType = "return"
	AggregateDispute    OutboxAggregateType = "dispute"
)

// OutboxDLQErrorReason classifies why an outbox event was dead-lettered.
type OutboxDLQErrorReason string

const (
	OutboxDLQReasonMaxAttempts  OutboxDLQErrorReason = "max_attempts"
	OutboxDLQReasonNonRetryable OutboxDLQErrorReason = "non_retryable"
)

// OutboxEventStatus tracks publishing progress for an outbox row.
type OutboxEventStatus string

const (
	OutboxEventStatusPending   OutboxEventStatus = "pending"
	OutboxEventStatusPublished OutboxEventStatus = "published"
	OutboxEventStatusFailed    OutboxEventStatus = "failed"
)
