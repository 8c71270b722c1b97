package notify

import (
	"bytes"
	htmltemplate "html/template"
	texttemplate "text/template"
	"time"
)

const defaultBrand = "Excel Platform"

type emailData struct {
	Brand   string
	Code    string
	Minutes int
	Year    int
}

var htmlBody = htmltemplate.Must(htmltemplate.New("verification.html").Parse(`<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto; padding: 20px; background-color: #f5f5f5;">
  <div style="background-color: white; padding: 30px; border-radius: 10px;">
    <div style="text-align: center; margin-bottom: 30px;">
      <h1 style="color: #2563eb; margin-bottom: 10px;">{{.Brand}}</h1>
      <h2 style="color: #374151; margin-bottom: 20px;">Email Verification</h2>
    </div>
    <div style="text-align: center; margin-bottom: 30px;">
      <p style="color: #6b7280; font-size: 16px;">Thank you for signing up! Please use the verification code below to complete your registration:</p>
      <div style="background-color: #f3f4f6; padding: 20px; border-radius: 8px; margin: 20px 0;">
        <div style="font-size: 32px; font-weight: bold; color: #2563eb; letter-spacing: 8px; font-family: monospace;">{{.Code}}</div>
      </div>
      <p style="color: #ef4444; font-size: 14px;">This code will expire in {{.Minutes}} minutes.</p>
    </div>
    <div style="border-top: 1px solid #e5e7eb; padding-top: 20px; text-align: center;">
      <p style="color: #9ca3af; font-size: 12px;">If you didn't request this verification, please ignore this email.</p>
      <p style="color: #9ca3af; font-size: 12px;">&copy; {{.Year}} {{.Brand}}. All rights reserved.</p>
    </div>
  </div>
</div>
`))

var textBody = texttemplate.Must(texttemplate.New("verification.txt").Parse(`{{.Brand}} - Email Verification

Thank you for signing up! Please use the verification code below to complete your registration:

    {{.Code}}

This code will expire in {{.Minutes}} minutes.

If you didn't request this verification, please ignore this email.
`))

func subject(brand string) string {
	return brand + " - Email Verification Code"
}

func newEmailData(brand, code string, ttl time.Duration, now time.Time) emailData {
	minutes := int(ttl.Round(time.Minute) / time.Minute)
	if minutes < 1 {
		minutes = 1
	}
	return emailData{Brand: brand, Code: code, Minutes: minutes, Year: now.Year()}
}

func render(data emailData) (html string, text string, err error) {
	var hb, tb bytes.Buffer
	if err := htmlBody.Execute(&hb, data); err != nil {
		return "", "", err
	}
	if err := textBody.Execute(&tb, data); err != nil {
		return "", "", err
	}
	return hb.String(), tb.String(), nil
}
