package mesh

// Receiver consumes decoded records in file order. The section parsers
// call it as soon as a record is complete; returning an error from any
// method aborts the parse, which is also how a streaming consumer stops
// early. The Builder is the default implementation.
type Receiver interface {
	AddNode(n Node) error
	AddElement(e Element) error
	AddEntity(e Entity) error
	AddPhysicalName(pn PhysicalName) error
	AddPeriodic(p Periodic) error
	// Finalize is called once after the last section, and only if no
	// error occurred before it.
	Finalize() error
}

// FormatReceiver is implemented by receivers that want the decoded header.
type FormatReceiver interface {
	SetFormat(f Format) error
}

// GhostReceiver is implemented by receivers that accept $GhostElements.
type GhostReceiver interface {
	AddGhostElement(g GhostElement) error
}
