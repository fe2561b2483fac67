// Package mailer renders and delivers transactional email: verification codes,
// password reset links and donation receipts.
package mailer

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/bhos1242/seva-samarpan-sub001/internal/domain"
)

// Mailer is implemented by SMTPMailer and LogMailer.
type Mailer interface {
	SendOTPEmail(ctx context.Context, to, name, code string) error
	SendPasswordResetEmail(ctx context.Context, to, name, link string) error
	SendDonationReceipt(ctx context.Context, d domain.Donation, s *domain.Student) error
}

// Message is a rendered email.
type Message struct {
	To      string
	Subject string
	Text    string
	HTML    string
}

var (
	titleCaser = cases.Title(language.English)
	rupees     = message.NewPrinter(language.MustParse("en-IN"))
)

var templates = template.Must(template.New("mail").Parse(`
{{define "otp"}}<p>Hello {{.Name}},</p>
<p>Your Seva Samarpan verification code is <strong>{{.Code}}</strong>. It expires in {{.Minutes}} minutes.</p>
<p>If you did not sign up, you can ignore this email.</p>{{end}}

{{define "reset"}}<p>Hello {{.Name}},</p>
<p>We received a request to reset your password. The link below is valid for one hour and can be used once.</p>
<p><a href="{{.Link}}">Reset your password</a></p>
<p>If you did not ask for this, no action is needed.</p>{{end}}

{{define "receipt"}}<p>Dear {{.Name}},</p>
<p>Thank you for your donation of <strong>{{.Amount}}</strong>.</p>
{{if .Student}}<p>Your gift supports {{.Student}}, who is now {{.Progress}}% funded.</p>{{end}}
<table>
<tr><td>Receipt</td><td>{{.DonationID}}</td></tr>
<tr><td>Payment</td><td>{{.PaymentID}}</td></tr>
<tr><td>Order</td><td>{{.OrderID}}</td></tr>
<tr><td>Date</td><td>{{.Date}}</td></tr>
{{if .PAN}}<tr><td>PAN</td><td>{{.PAN}}</td></tr>{{end}}
</table>
{{if .Require80G}}<p>Your 80G tax exemption certificate will follow by email.</p>{{end}}{{end}}
`))

// DisplayName title-cases a donor or user name for salutations.
func DisplayName(name string) string {
	name = strings.Join(strings.Fields(name), " ")
	if name == "" {
		return "Friend"
	}
	return titleCaser.String(name)
}

// FormatRupees renders amount with Indian digit grouping.
func FormatRupees(amount int64) string {
	return rupees.Sprintf("₹%d", amount)
}

func render(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("render %s: %w", name, err)
	}
	return strings.TrimSpace(buf.String()), nil
}

func otpMessage(to, name, code string) (Message, error) {
	html, err := render("otp", map[string]any{
		"Name":    DisplayName(name),
		"Code":    code,
		"Minutes": int(domain.OTPLifetime / time.Minute),
	})
	if err != nil {
		return Message{}, err
	}
	return Message{
		To:      to,
		Subject: "Your Seva Samarpan verification code",
		Text:    fmt.Sprintf("Your verification code is %s. It expires in %d minutes.", code, int(domain.OTPLifetime/time.Minute)),
		HTML:    html,
	}, nil
}

func resetMessage(to, name, link string) (Message, error) {
	html, err := render("reset", map[string]any{"Name": DisplayName(name), "Link": link})
	if err != nil {
		return Message{}, err
	}
	return Message{
		To:      to,
		Subject: "Reset your Seva Samarpan password",
		Text:    "Reset your password within one hour: " + link,
		HTML:    html,
	}, nil
}

func receiptMessage(d domain.Donation, s *domain.Student) (Message, error) {
	data := map[string]any{
		"Name":       DisplayName(d.Name),
		"Amount":     FormatRupees(d.Amount),
		"DonationID": d.ID,
		"PaymentID":  d.PaymentID,
		"OrderID":    d.OrderID,
		"Date":       d.CreatedAt.Format("02 Jan 2006"),
		"Require80G": d.Require80G,
		"PAN":        "",
	}
	if d.PANNumber != nil {
		data["PAN"] = *d.PANNumber
	}
	if s != nil {
		data["Student"] = DisplayName(s.Name)
		data["Progress"] = s.ProgressPercentage
	}
	html, err := render("receipt", data)
	if err != nil {
		return Message{}, err
	}
	return Message{
		To:      d.Email,
		Subject: "Thank you for your donation",
		Text:    fmt.Sprintf("Thank you for donating %s. Payment %s.", FormatRupees(d.Amount), d.PaymentID),
		HTML:    html,
	}, nil
}
