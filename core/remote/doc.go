// Package remote provides the pieces for invoking an actor capability
// through an erased, location-proxying handle.
//
// A capability is a Go interface an actor's local binding implements. Its
// object-safe methods (no type parameters) are encoded as a closed set of
// message types, one per method, each carrying the method's arguments.
// The bridge is written by hand following this template:
//
//	// Capability
//	type Greeter interface {
//	    Greet(name string, res *reply.Sender[string])
//	}
//
//	// Message enum: sealed interface plus one struct per method.
//	type GreeterMsg interface{ greeterMsg() }
//
//	type GreetMsg struct {
//	    Name string
//	    Res  *reply.Sender[string]
//	}
//
//	func (GreetMsg) greeterMsg() {}
//	func (m GreetMsg) Discard()  { m.Res.Discard() }
//
//	// Dispatch: decode a message back into a method call.
//	func HandleGreeterMsg(g Greeter, msg GreeterMsg) {
//	    switch m := msg.(type) {
//	    case GreetMsg:
//	        g.Greet(m.Name, m.Res)
//	    }
//	}
//
//	// Proxy: encode method calls as messages.
//	type GreeterRemote struct{ remote.Remote[GreeterMsg] }
//
//	func (r GreeterRemote) Greet(name string, res *reply.Sender[string]) {
//	    r.Inner().Handle(GreetMsg{Name: name, Res: res})
//	}
//
// A local binding is exposed with Bind(local, HandleGreeterMsg), usually
// through a transport such as [MemoryTransport]; the proxy wraps the
// transport's Route.
//
// Methods with type parameters cannot be encoded. They are written as
// generic functions over the capability interface that obtain the local
// binding with [Local], which panics with [*MisuseError] when handed a
// proxy. That panic is a programming error, not a recoverable condition.
package remote
