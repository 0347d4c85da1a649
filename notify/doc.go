// Package notify broadcasts changes to the data behind a URI
// to the Observers, such as open cursors, watching it.
//
// [Resolver] delivers within a process;
// [RedisBroadcaster] extends delivery to every process subscribed to the same Redis channel.
package notify
