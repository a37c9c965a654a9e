// Package app assembles the detection service from configuration: the
// database, the detector backend, the pipeline and its collaborators, the
// run admission layer and, when Redis is configured, the background job
// queue.
//
// Both the HTTP server and the detectvideo CLI build on an App so that a
// run started from either records the same bookkeeping.
package app
