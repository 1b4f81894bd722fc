//go:build batchdebug

package stage

const debugChecks = true
