// Package api implements the HTTP trigger surface for the sync task queue.
//
// The endpoints are not user-facing: they are invoked by external scheduler
// infrastructure (cron-style callers) and authenticated with a shared-secret
// bearer token. Error responses carry sanitized messages plus the request's
// trace id; raw internal errors only appear in logs.
package api
