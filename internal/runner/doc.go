// Package runner admits pipeline runs. It guarantees at most one run per
// video id at a time, using an in-process lock or a Redis lock shared by
// several instances, and bounds the number of concurrent runs with worker
// slots.
package runner
