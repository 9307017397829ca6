package notifier

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"
	"time"

	"lockerd/pkg/model"
)

// SMTPNotifier sends plaintext mail through a local relay (mailhog/maildev in
// development, a real relay in production). No TLS or auth: the relay is
// assumed to sit on the same network.
type SMTPNotifier struct {
	addr string
	from string
}

func NewSMTPNotifier(host string, port int, from string) *SMTPNotifier {
	return &SMTPNotifier{
		addr: fmt.Sprintf("%s:%d", host, port),
		from: from,
	}
}

func (n *SMTPNotifier) ReservationConfirmed(_ context.Context, user *model.User, reservation *model.Reservation, locker *model.Locker) error {
	subject := fmt.Sprintf("Reservation confirmed - Locker %s", locker.Number)
	body := fmt.Sprintf(
		"Your reservation has been confirmed.\n\nLocker: %s (%s)\nStart: %s\nEnd: %s\n\nPlease free the locker before the end of the reservation to avoid automatic expiration.\n",
		locker.Number, locker.Size,
		formatDate(reservation.StartDate), formatDate(reservation.EndDate),
	)
	return n.send(user.Email, subject, body)
}

func (n *SMTPNotifier) ReservationReturned(_ context.Context, user *model.User, _ *model.Reservation, locker *model.Locker) error {
	number := "unknown"
	if locker != nil {
		number = locker.Number
	}
	subject := fmt.Sprintf("Locker returned - Locker %s", number)
	body := fmt.Sprintf(
		"Your reservation has been cancelled and locker %s is available again.\n\nThank you for using our service.\n",
		number,
	)
	return n.send(user.Email, subject, body)
}

func (n *SMTPNotifier) ReservationReminder(_ context.Context, user *model.User, reservation *model.Reservation, locker *model.Locker) error {
	subject := fmt.Sprintf("Reservation expiring soon - Locker %s", locker.Number)
	body := fmt.Sprintf(
		"Your reservation for locker %s expires at %s.\n\nPlease collect your belongings and free the locker before then.\n",
		locker.Number, formatDate(reservation.EndDate),
	)
	return n.send(user.Email, subject, body)
}

func (n *SMTPNotifier) ReservationExpired(_ context.Context, user *model.User, reservation *model.Reservation, locker *model.Locker) error {
	subject := fmt.Sprintf("Reservation expired - Locker %s", locker.Number)
	body := fmt.Sprintf(
		"Your reservation for locker %s expired at %s. The locker has been released.\n",
		locker.Number, formatDate(reservation.EndDate),
	)
	return n.send(user.Email, subject, body)
}

func (n *SMTPNotifier) PasswordReset(_ context.Context, user *model.User, resetToken string) error {
	subject := "Password reset request"
	body := fmt.Sprintf(
		"You requested a password reset.\n\nUse this token to set a new password: %s\n\nThe token expires in 1 hour. If you did not request this, ignore this message.\n",
		resetToken,
	)
	return n.send(user.Email, subject, body)
}

func (n *SMTPNotifier) send(to, subject, body string) error {
	var msg strings.Builder
	fmt.Fprintf(&msg, "From: %s\r\n", n.from)
	fmt.Fprintf(&msg, "To: %s\r\n", to)
	fmt.Fprintf(&msg, "Subject: %s\r\n", subject)
	msg.WriteString("MIME-Version: 1.0\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n")
	msg.WriteString(body)

	return smtp.SendMail(n.addr, nil, n.from, []string{to}, []byte(msg.String()))
}

func formatDate(t time.Time) string {
	return t.Format("2 January 2006 15:04 MST")
}
