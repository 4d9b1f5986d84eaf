// Package aggregates implements the errand aggregate on gorm.
//
// Every write runs in its own transaction, checks the errand version on
// commit and is retried on a lost version check. Reads used by handlers go
// straight to the repos in internal/data/repos.
package aggregates
