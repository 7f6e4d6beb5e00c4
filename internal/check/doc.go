// Package check runs quality checks over loaded dataset records.
// Each check inspects records for one category of problem and reports
// findings; the Checker coordinates all registered checks and
// deduplicates their output.
package check
