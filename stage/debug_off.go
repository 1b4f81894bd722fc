//go:build !batchdebug

package stage

// debugChecks enables validation of every resolved vertex table. Build with
// -tags batchdebug to turn it on.
const debugChecks = false
