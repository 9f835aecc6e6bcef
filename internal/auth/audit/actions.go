package audit

// Modules classify entries for retention purposes; "auth" and "mfa" entries
// are security-relevant and kept longer.
const (
	ModuleAuth = "auth"
	ModuleMFA  = "mfa"
)

// Actions recorded by the auth handlers. Reason codes only; never the
// attempted password or code.
const (
	ActionRegister          = "register"
	ActionLoginSuccess      = "login_success"
	ActionLoginFailed       = "login_failed"
	ActionLoginLocked       = "login_locked"
	ActionLogout            = "logout"
	ActionPasswordChanged   = "password_changed"
	ActionPasswordExpired   = "password_expired"
	ActionMFASetup          = "mfa_setup"
	ActionMFAEnabled        = "mfa_enabled"
	ActionMFADisabled       = "mfa_disabled"
	ActionMFAFailed         = "mfa_failed"
	ActionMFARecoveryUsed   = "mfa_recovery_used"
	ActionSessionRefreshed  = "session_refreshed"
	ActionAccountDeactivate = "account_deactivated"
)
