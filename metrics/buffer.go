package metrics

// Buffer is a fixed-capacity ring of recent episode values. Once full,
// new values overwrite the oldest ones.
type Buffer struct {
	data []float64
	size int
	pos  int
}

func NewBuffer(capacity int) *Buffer {
	if capacity < 1 {
		capacity = 1
	}
	return &Buffer{data: make([]float64, capacity)}
}

func (b *Buffer) Add(v float64) {
	b.data[b.pos] = v
	b.pos = (b.pos + 1) % len(b.data)
	if b.size < len(b.data) {
		b.size++
	}
}

func (b *Buffer) Len() int {
	return b.size
}

// Mean returns the average of the buffered values, 0 if empty.
func (b *Buffer) Mean() float64 {
	if b.size == 0 {
		return 0
	}
	var sum float64
	for _, v := range b.Values() {
		sum += v
	}
	return sum / float64(b.size)
}

// Values returns the buffered values in insertion order.
func (b *Buffer) Values() []float64 {
	out := make([]float64, 0, b.size)
	start := 0
	if b.size == len(b.data) {
		start = b.pos
	}
	for i := 0; i < b.size; i++ {
		out = append(out, b.data[(start+i)%len(b.data)])
	}
	return out
}

func (b *Buffer) Reset() {
	b.size = 0
	b.pos = 0
}
