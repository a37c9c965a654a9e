// Package logging provides the leveled logging interface used across the
// detection service.
//
// It supports the following log levels:
//   - DEBUG: Verbose debugging information
//   - INFO: General operational messages
//   - WARN: Warning conditions
//   - ERROR: Error conditions
//   - FATAL: Fatal errors that terminate the application
//
// The log level is configured via the LOG_LEVEL environment variable, or
// forced to debug with DEBUG=true. Output is produced by a logrus text
// formatter; WithFields and WithVideo attach structured context such as the
// video id and frame index of a pipeline run.
package logging
