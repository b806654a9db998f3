// Package helper provides test doubles for the abortable packages: log, metrics and tracing spies
// plus scripted sources with controllable timing and failures.
package helper
