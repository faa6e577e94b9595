package keys

import "testing"

func BenchmarkFor(b *testing.B) {
	b.ReportAllocs()
	var sink Queue
	for i := 0; i < b.N; i++ {
		sink = For("email")
	}
	_ = sink
}

func BenchmarkQueued(b *testing.B) {
	b.ReportAllocs()
	var s string
	for i := 0; i < b.N; i++ {
		s = Queued("video-jobs", "tenant-42")
	}
	_ = s
}
