// Package jobs runs pipeline work in the background through an asynq queue
// backed by Redis. Each video has at most one pending task: the task id is
// derived from the video id, so a second enqueue while one is waiting or
// active is reported as a duplicate instead of queuing more work.
package jobs
