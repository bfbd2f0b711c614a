// Mercury is the runtime-reconfigurable backend gateway for the Meridian
// mail client.
//
// It sits between the mail frontend and whichever backend the user points it
// at, forwarding /api and /health traffic to the currently configured
// backend origin and serving a small local surface of its own: the
// /config/backend endpoint for switching backends at runtime, the static
// frontend bundle, and local probe endpoints.
//
// Usage:
//
//	# Start the gateway with the default configuration
//	mercury run
//
//	# Start with a custom configuration file
//	mercury run --config /path/to/config.yaml
//
//	# Inspect or change the persisted backend location
//	mercury backend get
//	mercury backend set http://localhost:9000
//
//	# Query recorded traffic
//	mercury history query --outcome backend_unavailable --format json
//
//	# Validate the configuration file
//	mercury validate
package main

func main() {
	Execute()
}
