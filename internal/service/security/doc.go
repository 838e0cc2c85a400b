// Package security implements the alarm decision engine.
//
// The Engine turns sensor changes, arming changes and camera frames into
// alarm status transitions. Current statuses and the sensor set live in a
// StateStore, cat detection is delegated to a CatClassifier, and every
// transition is broadcast to registered StatusListeners.
//
// The Engine is not safe for concurrent use. Callers serving several
// goroutines must hold one lock around every call. Listeners run inline and
// must not call back into the Engine.
package security
