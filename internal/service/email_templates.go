package service

import "fmt"

func welcomeEmailTemplate(name, resourcesURL, appName string) (string, string) {
	subject := fmt.Sprintf("Welcome to %s!", appName)
	body := fmt.Sprintf(`Hi %s,

Your account is ready. Share your notes, save what helps you and ask the community when you get stuck.

Browse the latest study resources: %s

Best,
The %s Team`, name, resourcesURL, appName)

	return subject, body
}
