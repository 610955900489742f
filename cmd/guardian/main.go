// Guardian is a content moderation service for user-generated text.
//
// It scans submissions against an ordered rule table (self-harm, threats,
// hate speech, slurs, profanity, sexual content, phone numbers), records
// violations for moderator review, and tracks repeat offenders.
//
// Usage:
//
//	# Start the HTTP service
//	guardian run --config config.yaml
//
//	# Scan text offline
//	echo "call me 555-123-4567" | guardian scan --format json
//
//	# Show the active rule table
//	guardian rules list
//
//	# Query moderation records
//	guardian moderation query --author gary --format csv -o gary.csv
package main

func main() {
	Execute()
}
