package internaldefs

import (
	goSignup "github.com/MrEthical07/goSignup"
)

// CounterDef names one engine counter for export.
type CounterDef struct {
	ID   goSignup.MetricID
	Name string
	Help string
}

// HistogramDef names one engine histogram for export.
type HistogramDef struct {
	ID   goSignup.MetricID
	Name string
	Help string
}

var CounterDefs = []CounterDef{
	{ID: goSignup.MetricCodeIssued, Name: "gosignup_code_issued_total", Help: "Verification codes stored."},
	{ID: goSignup.MetricCodeDeliveryFailed, Name: "gosignup_code_delivery_failed_total", Help: "Verification codes the notifier could not deliver."},
	{ID: goSignup.MetricCodeVerified, Name: "gosignup_code_verified_total", Help: "Successful verification code checks."},
	{ID: goSignup.MetricCodeRejected, Name: "gosignup_code_rejected_total", Help: "Verification code checks rejected as missing, wrong or expired."},
	{ID: goSignup.MetricRegistrationSuccess, Name: "gosignup_registration_success_total", Help: "Credentials created."},
	{ID: goSignup.MetricRegistrationDuplicate, Name: "gosignup_registration_duplicate_total", Help: "Registrations refused for an existing email."},
	{ID: goSignup.MetricRegistrationNotVerified, Name: "gosignup_registration_not_verified_total", Help: "Registrations refused for an unverified email."},
	{ID: goSignup.MetricLoginSuccess, Name: "gosignup_login_success_total", Help: "Successful logins."},
	{ID: goSignup.MetricLoginFailure, Name: "gosignup_login_failure_total", Help: "Logins rejected with invalid credentials."},
	{ID: goSignup.MetricAuthenticateSuccess, Name: "gosignup_authenticate_success_total", Help: "Accepted session tokens."},
	{ID: goSignup.MetricAuthenticateFailure, Name: "gosignup_authenticate_failure_total", Help: "Missing or invalid session tokens."},
	{ID: goSignup.MetricAuthenticateExpired, Name: "gosignup_authenticate_expired_total", Help: "Expired session tokens."},
}

var HistogramDefs = []HistogramDef{
	{ID: goSignup.MetricLoginLatency, Name: "gosignup_login_latency_seconds", Help: "Login latency."},
}

// HistogramBounds are the upper bounds, in seconds, of every bucket but the last.
var HistogramBounds = []float64{0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5}

// HistogramBoundSuffix names each bucket, +Inf included, for exporters that
// flatten buckets into gauges.
var HistogramBoundSuffix = []string{
	"0_025",
	"0_05",
	"0_1",
	"0_25",
	"0_5",
	"1",
	"2_5",
	"inf",
}

// NormalizeBuckets copies raw into a fixed-size array, zero-filling missing buckets.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

// CumulativeBuckets turns per-bucket counts into running totals.
func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}
