package bind_group_provider

// BufferWrite is one staged uniform update: Data is copied into the buffer at Binding of Provider,
// starting Offset bytes in. Writes are queued before the frame's passes execute.
type BufferWrite struct {
	Provider BindGroupProvider
	Binding  int
	Offset   uint64
	Data     []byte
}
