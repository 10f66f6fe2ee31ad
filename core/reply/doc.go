// Package reply provides single-use reply channels for returning one value
// from an asynchronous operation to the caller that started it.
//
// The sender half travels with the message; the receiver half stays with the
// caller:
//
//	tx, rx := reply.Channel[bool]()
//	counter.Increment(tx)
//	ok, err := rx.Receive(ctx)
//
// A sender that is closed (or discarded along with its message) without
// sending resolves the receiver with [ErrDisconnected], so a caller can tell
// "the actor is gone" apart from "still pending". Sends after the receiver
// was closed are ignored.
package reply
