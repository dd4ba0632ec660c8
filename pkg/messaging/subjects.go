package messaging

// JetStream subjects the storefront publishes on.
const (
	OrdersCreatedSubject = "orders.created"
	OTPRequestedSubject  = "accounts.otp.requested"
	CartSyncedSubject    = "carts.synced"
)
