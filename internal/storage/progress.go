package storage

import "sync"

// progressReader is handed to minio as PutObjectOptions.Progress. minio calls Read with
// each chunk it has sent; only the length matters.
type progressReader struct {
	mu       sync.Mutex
	total    int64
	sent     int64
	last     float64
	reported bool
	fn       ProgressFunc
}

func newProgressReader(total int64, fn ProgressFunc) *progressReader {
	return &progressReader{total: total, fn: fn}
}

func (p *progressReader) Read(b []byte) (int, error) {
	p.mu.Lock()
	p.sent += int64(len(b))
	var pct float64 = 100
	if p.total > 0 && p.sent < p.total {
		pct = float64(p.sent) * 100 / float64(p.total)
	}
	p.mu.Unlock()

	p.report(pct)
	return len(b), nil
}

func (p *progressReader) report(pct float64) {
	if p.fn == nil {
		return
	}
	if pct > 100 {
		pct = 100
	}

	p.mu.Lock()
	if p.reported && pct <= p.last {
		p.mu.Unlock()
		return
	}
	p.last = pct
	p.reported = true
	p.mu.Unlock()

	p.fn(pct)
}
