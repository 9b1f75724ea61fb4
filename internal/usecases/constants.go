package usecases

import "time"

// Payment defaults
const (
	DefaultCurrency            = "usd"
	RegistrationFeeDescription = "GradVillage student registration fee"
	DonationDescription        = "GradVillage scholarship donation"
	DefaultSyntheticDelay      = 500 * time.Millisecond
)

// Flows reported to metrics and gateway metadata
const (
	FlowRegistration = "registration"
	FlowDonation     = "donation"
)

// Session and lifecycle durations
const (
	DefaultPendingDonationExpiry = 24 * time.Hour
	DefaultOutboxMaxAttempts     = 8
	DefaultOutboxBaseBackoff     = 30 * time.Second
	DefaultOutboxMaxBackoff      = time.Hour
	DefaultOutboxLockTimeout     = 2 * time.Minute
)

// CodeGatewayUnavailable is returned when no gateway credentials are configured.
const CodeGatewayUnavailable = "payment_gateway_unavailable"

const (
	syntheticIntentPrefix = "pi_test_"
	maxDonationMessageLen = 500
	minPasswordLen        = 8
)
