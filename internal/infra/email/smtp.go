package email

import (
	"fmt"
	"net/smtp"
	"strings"
)

type SMTPMailer struct {
	From     string
	Password string
	Host     string
	Port     string
}

func NewSMTPMailer(from, password, host, port string) *SMTPMailer {
	return &SMTPMailer{From: from, Password: password, Host: host, Port: port}
}

func (m *SMTPMailer) SendSubscriptionChangeEmail(msg SubscriptionChangeEmail) error {
	subject, intro := changeCopy(msg)

	var b strings.Builder
	fmt.Fprintf(&b, "Hi %s,\n\n%s\n", msg.Name, intro)
	if msg.AmountEUR > 0 {
		fmt.Fprintf(&b, "\nAmount: %.2f EUR", msg.AmountEUR)
		if msg.BillingInterval != "" {
			fmt.Fprintf(&b, " (%s)", msg.BillingInterval)
		}
		b.WriteString("\n")
	}
	if msg.NextBillingDate != nil {
		fmt.Fprintf(&b, "Next billing date: %s\n", msg.NextBillingDate.Format("2 January 2006"))
	}
	if msg.UpdatePaymentURL != "" {
		fmt.Fprintf(&b, "\nManage your billing details here:\n%s\n", msg.UpdatePaymentURL)
	}
	b.WriteString("\nThe WaveOrder team\n")

	return m.send(msg.To, subject, b.String())
}

func (m *SMTPMailer) SendPaymentFailedEmail(msg PaymentFailedEmail) error {
	var b strings.Builder
	fmt.Fprintf(&b, "Hi %s,\n\nWe could not collect your payment of %.2f EUR.\n", msg.Name, msg.AmountEUR)
	if msg.NextRetryDate != nil {
		fmt.Fprintf(&b, "We will retry on %s.\n", msg.NextRetryDate.Format("2 January 2006"))
	}
	if msg.UpdatePaymentURL != "" {
		fmt.Fprintf(&b, "\nPlease update your payment method here:\n%s\n", msg.UpdatePaymentURL)
	}
	b.WriteString("\nThe WaveOrder team\n")

	return m.send(msg.To, "Payment failed for your WaveOrder subscription", b.String())
}

func changeCopy(msg SubscriptionChangeEmail) (subject, intro string) {
	switch msg.ChangeType {
	case ChangeCreated:
		return "Welcome to WaveOrder " + msg.NewPlan,
			fmt.Sprintf("Your %s subscription is now active.", msg.NewPlan)
	case ChangeUpgraded:
		return "Your WaveOrder plan was upgraded",
			fmt.Sprintf("You moved from %s to %s.", msg.OldPlan, msg.NewPlan)
	case ChangeDowngraded:
		return "Your WaveOrder plan was changed",
			fmt.Sprintf("You moved from %s to %s.", msg.OldPlan, msg.NewPlan)
	case ChangeCanceled:
		return "Your WaveOrder subscription was canceled",
			"Your subscription has ended and your account is back on the STARTER plan."
	case ChangeRenewed:
		return "Your WaveOrder subscription renewed",
			fmt.Sprintf("Your %s subscription renewed successfully.", msg.NewPlan)
	case ChangeTrialConverted:
		return "Your WaveOrder trial converted",
			fmt.Sprintf("Your trial ended and your %s subscription is now active.", msg.NewPlan)
	case ChangeTrialEnding:
		return "Your WaveOrder trial is ending soon",
			fmt.Sprintf("Your %s trial ends in a few days. Add a payment method to keep your plan.", msg.NewPlan)
	case ChangeTrialExpired:
		return "Your WaveOrder trial expired",
			"Your trial ended without a payment method, so your account moved to the STARTER plan."
	case ChangeResumed:
		return "Your WaveOrder subscription resumed",
			fmt.Sprintf("Your %s subscription is active again.", msg.NewPlan)
	}
	return "Your WaveOrder subscription changed", "Your subscription was updated."
}

func (m *SMTPMailer) send(to, subject, body string) error {
	auth := smtp.PlainAuth("", m.From, m.Password, m.Host)

	message := []byte("Subject: " + subject + "\r\n" +
		"From: " + m.From + "\r\n" +
		"To: " + to + "\r\n" +
		"Content-Type: text/plain; charset=UTF-8\r\n" +
		"\r\n" +
		body + "\r\n")

	return smtp.SendMail(m.Host+":"+m.Port, auth, m.From, []string{to}, message)
}
