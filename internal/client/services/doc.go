// Package services is the boundary between the clipsync core and its front
// ends. SyncService bootstraps the machine identity, restores the history
// checkpoint, and exposes the commands a UI issues (connect, copy, clear...)
// together with the notifications it renders.
package services
