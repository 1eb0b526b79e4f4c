// Package logging wires log/slog for the organizer: a console handler that
// promotes the component attribute into the line prefix, a JSON handler for
// machine consumption, and shared attribute helpers so field names stay
// consistent across packages.
package logging
