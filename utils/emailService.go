package utils

import (
	"fmt"
	"html"
)

// HTML wrapper shared by every transactional email
func getEmailTemplate(title string, bodyContent string) string {
	return fmt.Sprintf(`
	<!DOCTYPE html>
	<html>
	<head>
		<style>
			body { font-family: 'Helvetica Neue', Helvetica, Arial, sans-serif; background-color: #F6F6F6; margin: 0; padding: 0; }
			.container { max-width: 600px; margin: 40px auto; background: #FFFFFF; border-radius: 8px; overflow: hidden; }
			.header { background-color: #1F2A44; padding: 30px; text-align: center; }
			.header h1 { color: #FFFFFF; margin: 0; font-size: 24px; letter-spacing: 1px; }
			.content { padding: 40px 30px; color: #1F2A44; line-height: 1.6; }
			.footer { background-color: #F6F6F6; padding: 20px; text-align: center; font-size: 12px; color: #666666; }
			.btn { display: inline-block; padding: 12px 24px; background-color: #3B82F6; color: #FFFFFF; text-decoration: none; border-radius: 4px; font-weight: bold; margin-top: 20px; }
		</style>
	</head>
	<body>
		<div class="container">
			<div class="header">
				<h1>COURSEHUB</h1>
			</div>
			<div class="content">
				<h2>%s</h2>
				%s
			</div>
			<div class="footer">
				You are receiving this email because you enrolled in a course.
			</div>
		</div>
	</body>
	</html>
	`, html.EscapeString(title), bodyContent)
}

// EnrollmentEmail builds the subject, plain text and HTML bodies sent after a
// learner gains access to a course.
func EnrollmentEmail(name, courseTitle, courseURL string, paid bool) (subject, text, htmlBody string) {
	subject = "You're enrolled: " + courseTitle

	how := "Your enrollment is confirmed."
	if paid {
		how = "We have received your payment and your enrollment is confirmed."
	}

	text = fmt.Sprintf("Hi %s,\n\n%s You now have full access to %q.\n\nStart learning: %s\n", name, how, courseTitle, courseURL)

	body := fmt.Sprintf(`
		<p>Hi %s,</p>
		<p>%s You now have full access to <strong>%s</strong>.</p>
		<a href="%s" class="btn">Start learning</a>
	`, html.EscapeString(name), how, html.EscapeString(courseTitle), html.EscapeString(courseURL))

	htmlBody = getEmailTemplate("Enrollment confirmed", body)
	return subject, text, htmlBody
}
