package email

import "fmt"

// Message is a rendered transactional email, ready for a Sender.
type Message struct {
	Subject string
	Body    string
}

// SignupConfirm is sent after signup; the link carries the address token
// and verification code.
func SignupConfirm(displayName, confirmLink string) Message {
	return Message{
		Subject: "Confirm your directory account",
		Body: fmt.Sprintf(
			"Hello %s,\n\nWelcome to the directory! Confirm your email address to activate your account:\n\n  %s\n\nIf you did not sign up, ignore this email.\n",
			displayName, confirmLink,
		),
	}
}

// ResetPassword is sent in response to a forgot-password request.
func ResetPassword(displayName, resetLink string) Message {
	return Message{
		Subject: "Reset your directory password",
		Body: fmt.Sprintf(
			"Hello %s,\n\nReset your directory account password:\n\n  %s\n\nIf you did not request a password reset, ignore this email — your password has not changed.\n",
			displayName, resetLink,
		),
	}
}

// ProfileUpdated notifies the owner that their public profile changed.
func ProfileUpdated(displayName, profileName string) Message {
	return Message{
		Subject: "Your directory profile was updated",
		Body: fmt.Sprintf(
			"Hello %s,\n\nYour public profile %q has just been updated.\n\nIf you did not make this change, reset your password immediately.\n",
			displayName, profileName,
		),
	}
}

// AccountUpdated notifies the owner that account fields changed. When the
// email address itself changed, confirmLink is non-empty and the message is
// addressed to the NEW address: the account stays inactive until the link
// is followed.
func AccountUpdated(displayName, confirmLink string) Message {
	if confirmLink == "" {
		return Message{
			Subject: "Your directory account was updated",
			Body: fmt.Sprintf(
				"Hello %s,\n\nYour account details have just been updated.\n\nIf you did not make this change, reset your password immediately.\n",
				displayName,
			),
		}
	}
	return Message{
		Subject: "Confirm your new email address",
		Body: fmt.Sprintf(
			"Hello %s,\n\nYour account email was changed. Confirm the new address to reactivate your account:\n\n  %s\n\nUntil then you will not be able to sign in.\n",
			displayName, confirmLink,
		),
	}
}

// AccountDeleted is sent when an account deletion is performed. The
// reactivation link restores access if the deletion was not requested by
// the account's owner.
func AccountDeleted(displayName, reactivateLink string) Message {
	return Message{
		Subject: "Your directory account was deleted",
		Body: fmt.Sprintf(
			"Hello %s,\n\nYour directory account has been deleted and your public profile hidden.\n\nIf this was NOT you, reactivate your account here:\n\n  %s\n",
			displayName, reactivateLink,
		),
	}
}
