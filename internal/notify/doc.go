// Package notify turns a request's labels into notification channels and
// fans a message out to them.
//
// The channel map arrives in whatever shape the configuration layer hands
// over and is normalized once by [ParseChannelMap]. [ResolveChannels] is a
// pure function of the map and the labels. [Dispatcher] sends one message
// per channel concurrently and reports every channel's outcome; one
// channel's failure never affects another.
package notify
