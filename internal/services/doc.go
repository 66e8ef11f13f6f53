// Package services holds the cross-cutting contracts shared by pipeline
// agents: the sentinel error taxonomy used to classify failures, and the
// context annotations (run, agent, correlation ID) that logging and the run
// manager thread through every step.
//
// Vendor API clients themselves live outside this core; agents only surface
// their cost, result, and failure shape through these types.
package services
