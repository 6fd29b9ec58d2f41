package events

// Topics emitted by the storefront.
const (
	TopicOrderCreated     = "order.created"
	TopicOrderConfirmed   = "order.confirmed"
	TopicOrderCanceled    = "order.canceled"
	TopicDiscountSettled  = "discount.settled"
	TopicDiscountReleased = "discount.released"
	TopicReviewSubmitted  = "review.submitted"
	TopicReviewApproved   = "review.approved"
)
