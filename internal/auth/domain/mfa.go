package domain

// MFAProvision carries the material returned from MFA setup. The secret is
// held encrypted as the user's temp secret and is not active until
// verify-setup succeeds.
type MFAProvision struct {
	Secret     string // base32, for manual entry
	OTPAuthURL string // otpauth:// URI for QR encoding
}

// MFAEnrolment is the one-time result of a committed verify-setup: the
// plaintext recovery codes, shown exactly once.
type MFAEnrolment struct {
	RecoveryCodes []string
}
