package domain

// VerificationState is the step of a two-step phone verification.
type VerificationState string

const (
	StateAwaitingCode VerificationState = "awaiting_code"
	StateCodeSent     VerificationState = "code_sent"
)

// PhoneVerification tracks a phone sign-in. A confirmation handle exists
// only in StateCodeSent.
type PhoneVerification struct {
	state  VerificationState
	phone  string
	handle string
}

// NewPhoneVerification starts in StateAwaitingCode.
func NewPhoneVerification() *PhoneVerification {
	return &PhoneVerification{state: StateAwaitingCode}
}

func (v *PhoneVerification) State() VerificationState { return v.state }

// Phone returns the number the code was sent to.
func (v *PhoneVerification) Phone() string { return v.phone }

// Handle returns the confirmation handle; ok is false unless a code was sent.
func (v *PhoneVerification) Handle() (handle string, ok bool) {
	if v.state != StateCodeSent {
		return "", false
	}
	return v.handle, true
}

// CodeSent moves to StateCodeSent.
func (v *PhoneVerification) CodeSent(phone, handle string) error {
	if v.state != StateAwaitingCode || handle == "" {
		return ErrVerificationState
	}
	v.state = StateCodeSent
	v.phone = phone
	v.handle = handle
	return nil
}

// Reset discards any confirmation handle and returns to StateAwaitingCode.
func (v *PhoneVerification) Reset() {
	v.state = StateAwaitingCode
	v.phone = ""
	v.handle = ""
}
