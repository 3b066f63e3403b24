package routes

import (
	"fmt"
	"net/http"
)

// PrivacyPolicyHandler serves the Privacy Policy content
func PrivacyPolicyHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html")

	html := `
	<!DOCTYPE html>
	<html lang="en">
	<head>
		<meta charset="UTF-8">
		<meta name="viewport" content="width=device-width, initial-scale=1.0">
		<title>Circloth Privacy Policy</title>
	</head>
	<body>
		<h1>Privacy Policy</h1>
		<p>Circloth stores your profile, the items you list, your likes and passes, and your chat messages so that other members can swap clothes with you.</p>
		<p>Your location is only used to show you nearby items first. Deleting your account removes your items, your decisions and your conversations.</p>
	</body>
	</html>
	`
	fmt.Fprint(w, html)
}
