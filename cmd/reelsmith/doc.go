// Command reelsmith is the CLI for the Reelsmith production daemon: run
// intake, progress inspection, cost reporting, ducking filter previews, and
// publish signing.
package main
