// internal/app/system/mailer/templates.go
package mailer

import (
	"bytes"
	"fmt"
	"html/template"
)

// TurnStartedData holds data for the "your turn has started" email.
type TurnStartedData struct {
	SiteName    string
	MemberName  string
	StableName  string
	ProcessName string
	TurnOrder   int // 1-based position shown to the member
	TotalTurns  int
}

// BuildTurnStartedEmail creates the notification sent to a member when
// their turn becomes active. The caller sets To.
func BuildTurnStartedEmail(data TurnStartedData) Email {
	return Email{
		Subject:  fmt.Sprintf("It's your turn in %s", data.ProcessName),
		TextBody: buildTurnStartedText(data),
		HTMLBody: buildTurnStartedHTML(data),
	}
}

func buildTurnStartedText(data TurnStartedData) string {
	var buf bytes.Buffer
	buf.WriteString(fmt.Sprintf("Hi %s,\n\n", data.MemberName))
	buf.WriteString(fmt.Sprintf("It's your turn to make selections in %q at %s.\n", data.ProcessName, data.StableName))
	buf.WriteString(fmt.Sprintf("You are turn %d of %d.\n\n", data.TurnOrder, data.TotalTurns))
	buf.WriteString(fmt.Sprintf("Sign in to %s to make your selections and complete your turn.\n", data.SiteName))
	return buf.String()
}

func buildTurnStartedHTML(data TurnStartedData) string {
	tmpl := template.Must(template.New("turn_started").Parse(turnStartedHTMLTemplate))
	var buf bytes.Buffer
	_ = tmpl.Execute(&buf, data)
	return buf.String()
}

// ProcessCompletedData holds data for the completion email sent to every
// participant when the final turn finishes.
type ProcessCompletedData struct {
	SiteName    string
	MemberName  string
	StableName  string
	ProcessName string
}

// BuildProcessCompletedEmail creates the process-completed notification.
// The caller sets To.
func BuildProcessCompletedEmail(data ProcessCompletedData) Email {
	return Email{
		Subject:  fmt.Sprintf("%s has completed", data.ProcessName),
		TextBody: buildProcessCompletedText(data),
		HTMLBody: buildProcessCompletedHTML(data),
	}
}

func buildProcessCompletedText(data ProcessCompletedData) string {
	var buf bytes.Buffer
	buf.WriteString(fmt.Sprintf("Hi %s,\n\n", data.MemberName))
	buf.WriteString(fmt.Sprintf("The selection process %q at %s has completed. All turns are done.\n\n", data.ProcessName, data.StableName))
	buf.WriteString(fmt.Sprintf("Sign in to %s to review the final selections.\n", data.SiteName))
	return buf.String()
}

func buildProcessCompletedHTML(data ProcessCompletedData) string {
	tmpl := template.Must(template.New("process_completed").Parse(processCompletedHTMLTemplate))
	var buf bytes.Buffer
	_ = tmpl.Execute(&buf, data)
	return buf.String()
}

const turnStartedHTMLTemplate = `<!DOCTYPE html>
<html>
<head>
  <meta charset="UTF-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
  <title>Your Turn</title>
</head>
<body style="margin: 0; padding: 0; font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, 'Helvetica Neue', Arial, sans-serif; background-color: #f3f4f6;">
  <table role="presentation" width="100%" cellspacing="0" cellpadding="0" style="background-color: #f3f4f6;">
    <tr>
      <td align="center" style="padding: 40px 20px;">
        <table role="presentation" width="100%" cellspacing="0" cellpadding="0" style="max-width: 480px; background-color: #ffffff; border-radius: 8px; box-shadow: 0 2px 4px rgba(0, 0, 0, 0.1);">
          <tr>
            <td style="padding: 32px 32px 24px; text-align: center; border-bottom: 1px solid #e5e7eb;">
              <h1 style="margin: 0; font-size: 24px; font-weight: 600; color: #166534;">{{.SiteName}}</h1>
            </td>
          </tr>
          <tr>
            <td style="padding: 32px;">
              <p style="margin: 0 0 24px; font-size: 16px; color: #374151; line-height: 1.5;">
                Hi {{.MemberName}}, it&rsquo;s your turn to make selections in <strong>{{.ProcessName}}</strong> at {{.StableName}}.
              </p>
              <div style="background-color: #f3f4f6; border-radius: 8px; padding: 24px; text-align: center; margin-bottom: 24px;">
                <span style="font-size: 24px; font-weight: 700; color: #1f2937;">Turn {{.TurnOrder}} of {{.TotalTurns}}</span>
              </div>
              <p style="margin: 0; font-size: 14px; color: #6b7280; text-align: center;">
                Sign in to make your selections, then complete your turn to pass it on.
              </p>
            </td>
          </tr>
          <tr>
            <td style="padding: 24px 32px; background-color: #f9fafb; border-top: 1px solid #e5e7eb; border-radius: 0 0 8px 8px;">
              <p style="margin: 0; font-size: 12px; color: #9ca3af; text-align: center;">
                You are receiving this because you are a member of {{.StableName}}.
              </p>
            </td>
          </tr>
        </table>
      </td>
    </tr>
  </table>
</body>
</html>`

const processCompletedHTMLTemplate = `<!DOCTYPE html>
<html>
<head>
  <meta charset="UTF-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
  <title>Process Completed</title>
</head>
<body style="margin: 0; padding: 0; font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, 'Helvetica Neue', Arial, sans-serif; background-color: #f3f4f6;">
  <table role="presentation" width="100%" cellspacing="0" cellpadding="0" style="background-color: #f3f4f6;">
    <tr>
      <td align="center" style="padding: 40px 20px;">
        <table role="presentation" width="100%" cellspacing="0" cellpadding="0" style="max-width: 480px; background-color: #ffffff; border-radius: 8px; box-shadow: 0 2px 4px rgba(0, 0, 0, 0.1);">
          <tr>
            <td style="padding: 32px 32px 24px; text-align: center; border-bottom: 1px solid #e5e7eb;">
              <h1 style="margin: 0; font-size: 24px; font-weight: 600; color: #166534;">{{.SiteName}}</h1>
            </td>
          </tr>
          <tr>
            <td style="padding: 32px;">
              <p style="margin: 0 0 24px; font-size: 16px; color: #374151; line-height: 1.5;">
                Hi {{.MemberName}}, the selection process <strong>{{.ProcessName}}</strong> at {{.StableName}} has completed. All turns are done.
              </p>
              <p style="margin: 0; font-size: 14px; color: #6b7280; text-align: center;">
                Sign in to review the final selections.
              </p>
            </td>
          </tr>
          <tr>
            <td style="padding: 24px 32px; background-color: #f9fafb; border-top: 1px solid #e5e7eb; border-radius: 0 0 8px 8px;">
              <p style="margin: 0; font-size: 12px; color: #9ca3af; text-align: center;">
                You are receiving this because you are a member of {{.StableName}}.
              </p>
            </td>
          </tr>
        </table>
      </td>
    </tr>
  </table>
</body>
</html>`
